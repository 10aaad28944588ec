package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"agentmart/internal/core/ports"
	"agentmart/internal/infrastructure/repositories/memory"
	"agentmart/internal/infrastructure/repositories/postgres"
	redisrepo "agentmart/internal/infrastructure/repositories/redis"
	"agentmart/internal/infrastructure/repositories/sqlite"
	"agentmart/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// RepositoryFactory opens the configured storage backend once and hands out
// repositories sharing its connection.
type RepositoryFactory struct {
	backend     string
	redisClient *redis.Client
	pgPool      *pgxpool.Pool
	sqliteDB    *sql.DB
	agents      ports.AgentRepository
	users       ports.UserRepository
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory connects to the backend named by storage.backend.
// An unreachable Redis falls back to memory when redis.fallback_to_memory
// is set; the relational backends fail hard.
func NewRepositoryFactory(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	f := &RepositoryFactory{backend: cfg.Storage.Backend, logger: logger}

	switch cfg.Storage.Backend {
	case BackendRedis:
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			if !cfg.Redis.FallbackToMemory {
				return nil, err
			}
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			f.useMemory()
			break
		}
		f.redisClient = client
		f.agents = redisrepo.NewRedisAgentRepository(client)
		f.users = redisrepo.NewRedisUserRepository(client)
		logger.Info("using Redis repositories")

	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			DSN:             cfg.Storage.Postgres.DSN,
			RequireTLS:      cfg.Storage.Postgres.RequireTLS,
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			MaxConnIdleTime: cfg.Storage.Postgres.MaxConnIdleTime,
			PingTimeout:     cfg.Storage.Postgres.PingTimeout,
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
		f.pgPool = pool
		f.agents = postgres.NewPostgresAgentRepository(pool)
		f.users = postgres.NewPostgresUserRepository(pool)
		logger.Info("using Postgres repositories")

	case BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		f.sqliteDB = db
		f.agents = sqlite.NewSQLiteAgentRepository(db)
		f.users = sqlite.NewSQLiteUserRepository(db)
		logger.Infow("using SQLite repositories", "path", cfg.Storage.SQLite.Path)

	case BackendMemory, "":
		f.useMemory()

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	f.agents = newTracedAgentRepository(f.backend, f.agents)
	return f, nil
}

func (f *RepositoryFactory) useMemory() {
	f.backend = BackendMemory
	f.agents = memory.NewMemoryAgentRepository()
	f.users = memory.NewMemoryUserRepository()
	f.logger.Info("using memory repositories")
}

// Backend reports the backend actually in use, after any fallback.
func (f *RepositoryFactory) Backend() string {
	return f.backend
}

// RedisClient is the shared client when the redis backend is in use, nil
// otherwise.
func (f *RepositoryFactory) RedisClient() *redis.Client {
	return f.redisClient
}

func (f *RepositoryFactory) AgentRepository() ports.AgentRepository {
	return f.agents
}

func (f *RepositoryFactory) UserRepository() ports.UserRepository {
	return f.users
}

// Close releases the backend connection.
func (f *RepositoryFactory) Close() error {
	switch {
	case f.redisClient != nil:
		return redisrepo.CloseRedisClient(f.redisClient)
	case f.pgPool != nil:
		f.pgPool.Close()
	case f.sqliteDB != nil:
		return f.sqliteDB.Close()
	}
	return nil
}

// HealthCheck pings the backend. Memory is always healthy.
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	switch {
	case f.redisClient != nil:
		return f.redisClient.Ping(ctx).Err()
	case f.pgPool != nil:
		return f.pgPool.Ping(ctx)
	case f.sqliteDB != nil:
		return f.sqliteDB.PingContext(ctx)
	}
	return nil
}
