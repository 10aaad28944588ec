// Package app assembles the marketplace from configuration. Both the
// server and marketctl build their object graph here.
package app

import (
	"context"
	"fmt"
	"strings"

	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/internal/core/routing"
	"agentmart/internal/core/services"
	"agentmart/internal/core/session"
	"agentmart/internal/infrastructure/distributed"
	"agentmart/internal/infrastructure/monitoring"
	"agentmart/internal/infrastructure/repositories"
	"agentmart/pkg/config"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type App struct {
	Config  *config.Config
	Repos   *repositories.RepositoryFactory
	Metrics *monitoring.PrometheusCollector
	Health  *monitoring.HealthChecker

	Auth   ports.AuthService
	Agents ports.AgentService
	Admin  *services.CachedAdminService

	Codec *session.Codec
	Gate  *routing.Gate

	// Events is set on the redis backend only.
	Events *distributed.EventBus

	logger *zap.SugaredLogger
}

// New opens storage and wires the services on top of it. reg receives the
// marketplace metrics.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *zap.SugaredLogger) (*App, error) {
	codec, err := NewCodec(cfg)
	if err != nil {
		return nil, err
	}
	gate, err := NewGate(cfg)
	if err != nil {
		return nil, err
	}

	repos, err := repositories.NewRepositoryFactory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	collector := monitoring.NewPrometheusCollector(reg)
	users := repos.UserRepository()
	agentRepo := repos.AgentRepository()

	idp, err := services.NewIdentityProvider(users, cfg.Auth.BcryptCost)
	if err != nil {
		repos.Close()
		return nil, err
	}
	admin := services.NewCachedAdminService(services.NewAdminService(agentRepo, users, collector), cfg.Cache.StatsTTL)

	onChange := []func(){admin.Invalidate}
	var events *distributed.EventBus
	if client := repos.RedisClient(); client != nil {
		events = distributed.NewEventBus(client, uuid.NewString(), logger)
		err := events.Subscribe(ctx, func(e *distributed.Event) {
			if e.Type == distributed.EventAgentsChanged {
				admin.Invalidate()
			}
		})
		if err != nil {
			admin.Stop()
			repos.Close()
			return nil, err
		}
		onChange = append(onChange, events.PublishAgentsChanged)
	}

	health := monitoring.NewHealthChecker()
	health.AddStorageCheck(repos.Backend(), repos, cfg.Storage.Postgres.PingTimeout)

	return &App{
		Config:  cfg,
		Repos:   repos,
		Metrics: collector,
		Health:  health,
		Auth:    services.NewAuthService(idp, users),
		Agents:  services.NewAgentService(agentRepo, collector, onChange...),
		Admin:   admin,
		Codec:   codec,
		Gate:    gate,
		Events:  events,
		logger:  logger,
	}, nil
}

// SeedAdmin creates the configured admin account if it is missing. Without
// a configured email it does nothing.
func (a *App) SeedAdmin(ctx context.Context) error {
	seed := a.Config.Auth.SeedAdmin
	if seed.Email == "" {
		return nil
	}
	ident, err := a.Auth.SeedAdmin(ctx, seed.Email, seed.Password)
	if err != nil {
		return fmt.Errorf("failed to seed admin %s: %w", seed.Email, err)
	}
	a.logger.Infow("admin account ready", "user_id", ident.UserID, "email", ident.Email)
	return nil
}

func (a *App) Close() error {
	if a.Events != nil {
		a.Events.Close()
	}
	a.Admin.Stop()
	return a.Repos.Close()
}

func NewCodec(cfg *config.Config) (*session.Codec, error) {
	sameSite, ok := session.ParseSameSite(cfg.Session.SameSite)
	if !ok {
		return nil, fmt.Errorf("unknown session.same_site %q", cfg.Session.SameSite)
	}
	return session.NewCodec(session.CodecConfig{
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.MaxAge,
		SameSite:   sameSite,
		Secure:     session.SecureMode(cfg.Session.SecureMode),
	}), nil
}

func NewGate(cfg *config.Config) (*routing.Gate, error) {
	rules, err := RulesFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	hops, err := routing.NewHopSigner(cfg.Edge.HopSecret, cfg.Edge.HopTokenTTL)
	if err != nil {
		return nil, err
	}
	return routing.NewGate(rules, hops, cfg.Edge.MaxHops), nil
}

// RulesFromConfig starts from the default route table and replaces each
// list the edge section sets.
func RulesFromConfig(cfg *config.Config) (routing.Rules, error) {
	rules := routing.DefaultRules()
	edge := cfg.Edge

	if edge.SignInPath != "" {
		rules.SignInPath = edge.SignInPath
	}
	if len(edge.PublicRoutes) > 0 {
		rules.PublicRoutes = edge.PublicRoutes
	}
	if len(edge.AuthRoutes) > 0 {
		rules.AuthRoutes = edge.AuthRoutes
	}
	if len(edge.ProtectedPrefixes) > 0 {
		rules.ProtectedPrefixes = edge.ProtectedPrefixes
	}
	if len(edge.RolePrefixes) > 0 {
		prefixes := make(map[string]domain.Role, len(edge.RolePrefixes))
		for prefix, name := range edge.RolePrefixes {
			role, err := domain.ParseRole(name)
			if err != nil {
				return routing.Rules{}, fmt.Errorf("edge.role_prefixes[%s]: %w", prefix, err)
			}
			prefixes[strings.TrimSuffix(prefix, "/")] = role
		}
		rules.RolePrefixes = prefixes
	}
	return rules, nil
}
