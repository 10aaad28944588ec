package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agentmart/internal/core/domain"
	"agentmart/pkg/distributed"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	schemaVersionKey     = keyPrefix + "schema:version"
	migrationLockKey     = keyPrefix + "lock:migrate"
	currentSchemaVersion = 2

	migrationLockTTL  = 30 * time.Second
	migrationLockWait = 10 * time.Second
)

// Migration represents a schema migration. Redis has no schema; migrations
// rebuild or backfill index sets.
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, client *redis.Client) error
}

// Migrate runs all pending migrations. Instances starting together
// serialize on a Redis lock; the version is read only once it is held.
func Migrate(ctx context.Context, client *redis.Client, logger *zap.SugaredLogger) error {
	lock, err := distributed.NewLock(client, migrationLockKey, migrationLockTTL)
	if err != nil {
		return err
	}
	if err := lock.Acquire(ctx, migrationLockWait); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer lock.Release(context.Background())

	currentVersion, err := SchemaVersion(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion >= currentSchemaVersion {
		if logger != nil {
			logger.Infow("schema is up to date",
				"current_version", currentVersion,
				"target_version", currentSchemaVersion,
			)
		}
		return nil
	}

	for _, migration := range migrations() {
		if migration.Version <= currentVersion {
			continue
		}
		if logger != nil {
			logger.Infow("running migration",
				"version", migration.Version,
				"description", migration.Description,
			)
		}

		if err := migration.Up(ctx, client); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := setSchemaVersion(ctx, client, migration.Version); err != nil {
			return fmt.Errorf("failed to update schema version: %w", err)
		}
	}

	if logger != nil {
		logger.Infow("all migrations completed",
			"final_version", currentSchemaVersion,
		)
	}
	return nil
}

func SchemaVersion(ctx context.Context, client *redis.Client) (int, error) {
	val, err := client.Get(ctx, schemaVersionKey).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

func setSchemaVersion(ctx context.Context, client *redis.Client, version int) error {
	return client.Set(ctx, schemaVersionKey, version, 0).Err()
}

func migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "initial key layout",
			Up: func(ctx context.Context, client *redis.Client) error {
				return nil
			},
		},
		{
			Version:     2,
			Description: "rebuild public and per-creator agent indexes",
			Up:          rebuildAgentIndexes,
		},
	}
}

// rebuildAgentIndexes derives the public and creator sets from the stored
// blobs, dropping index entries whose blob is gone.
func rebuildAgentIndexes(ctx context.Context, client *redis.Client) error {
	repo := &RedisAgentRepository{client: client, prefix: keyPrefix + "agent:"}

	ids, err := client.SMembers(ctx, repo.allKey()).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		agent, err := repo.load(ctx, client, domain.AgentID(id))
		if errors.Is(err, domain.ErrAgentNotFound) {
			client.SRem(ctx, repo.allKey(), id)
			continue
		}
		if err != nil {
			return err
		}
		_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			repo.index(ctx, pipe, agent)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
