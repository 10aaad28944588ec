package services

import (
	"context"
	"time"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
)

const overviewRecent = 5

type adminService struct {
	agents  ports.AgentRepository
	users   ports.UserRepository
	metrics ports.AccessMetrics
	now     func() time.Time
}

func NewAdminService(agents ports.AgentRepository, users ports.UserRepository, metrics ports.AccessMetrics) ports.AdminService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &adminService{agents: agents, users: users, metrics: metrics, now: time.Now}
}

func (s *adminService) require(caller *domain.Identity, op string) error {
	if err := access.RequireAdmin(caller); err != nil {
		s.metrics.RecordAccessDenied(op)
		return err
	}
	return nil
}

func (s *adminService) Stats(ctx context.Context, caller *domain.Identity) (*domain.AdminStats, error) {
	if err := s.require(caller, "admin_stats"); err != nil {
		return nil, err
	}
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, backing(err)
	}
	total := 0
	for _, n := range byRole {
		total += n
	}
	counts, err := countAgents(ctx, s.agents, access.For(caller))
	if err != nil {
		return nil, err
	}
	return &domain.AdminStats{
		Users:       total,
		UsersByRole: byRole,
		Agents:      *counts,
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *adminService) Overview(ctx context.Context, caller *domain.Identity) (*domain.AdminOverview, error) {
	stats, err := s.Stats(ctx, caller)
	if err != nil {
		return nil, err
	}
	agents, err := s.agents.List(ctx, access.For(caller), domain.AgentQuery{
		Page: domain.Page{Number: 1, Size: overviewRecent},
	})
	if err != nil {
		return nil, backing(err)
	}
	users, err := s.users.List(ctx, domain.UserQuery{Page: 1, PageSize: overviewRecent})
	if err != nil {
		return nil, backing(err)
	}
	return &domain.AdminOverview{Stats: *stats, RecentAgents: agents, RecentUsers: withoutHashes(users)}, nil
}

func (s *adminService) ListUsers(ctx context.Context, caller *domain.Identity, query domain.UserQuery) ([]*domain.User, error) {
	if err := s.require(caller, "admin_users"); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, query)
	if err != nil {
		return nil, backing(err)
	}
	return withoutHashes(users), nil
}

// withoutHashes returns copies safe to render.
func withoutHashes(users []*domain.User) []*domain.User {
	out := make([]*domain.User, len(users))
	for i, u := range users {
		cp := *u
		cp.PasswordHash = ""
		out[i] = &cp
	}
	return out
}
