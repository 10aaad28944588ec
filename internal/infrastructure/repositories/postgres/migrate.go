package postgres

import (
	"context"
	"fmt"

	"agentmart/internal/infrastructure/repositories/sqlstore"

	"go.uber.org/zap"
)

// Migrate applies pending migrations. Each step runs its statements and
// records the version; statements are idempotent so a step interrupted
// half way can be re-run.
func Migrate(ctx context.Context, db DB, logger *zap.SugaredLogger) error {
	if _, err := db.Exec(ctx, sqlstore.SchemaVersionTable); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range sqlstore.Migrations(sqlstore.Postgres) {
		if m.Version <= current {
			continue
		}
		for _, stmt := range m.Statements {
			if _, err := db.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.Version, err)
			}
		}
		if _, err := db.Exec(ctx, "INSERT INTO schema_version (version) VALUES ($1)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if logger != nil {
			logger.Infow("postgres migration applied", "version", m.Version)
		}
	}
	return nil
}
