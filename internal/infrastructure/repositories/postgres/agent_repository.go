package postgres

import (
	"context"
	"errors"
	"fmt"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/internal/infrastructure/repositories/sqlstore"

	"github.com/jackc/pgx/v5"
)

type PostgresAgentRepository struct {
	db DB
}

func NewPostgresAgentRepository(db DB) ports.AgentRepository {
	return &PostgresAgentRepository{db: db}
}

func (r *PostgresAgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	q := sqlstore.InsertAgent(sqlstore.Postgres, agent)
	if _, err := r.db.Exec(ctx, q.SQL, q.Args...); err != nil {
		return fmt.Errorf("failed to insert agent: %w", err)
	}
	return nil
}

func (r *PostgresAgentRepository) one(ctx context.Context, q sqlstore.Query) (*domain.Agent, error) {
	agent, err := sqlstore.ScanAgent(r.db.QueryRow(ctx, q.SQL, q.Args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read agent: %w", err)
	}
	return agent, nil
}

func (r *PostgresAgentRepository) GetByID(ctx context.Context, id domain.AgentID) (*domain.Agent, error) {
	return r.one(ctx, sqlstore.SelectAgent(sqlstore.Postgres, id, nil))
}

func (r *PostgresAgentRepository) Find(ctx context.Context, id domain.AgentID, filter access.Filter) (*domain.Agent, error) {
	return r.one(ctx, sqlstore.SelectAgent(sqlstore.Postgres, id, &filter))
}

func (r *PostgresAgentRepository) List(ctx context.Context, filter access.Filter, query domain.AgentQuery) ([]*domain.Agent, error) {
	q := sqlstore.ListAgents(sqlstore.Postgres, filter, query)
	rows, err := r.db.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	agents := []*domain.Agent{}
	for rows.Next() {
		agent, err := sqlstore.ScanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

func (r *PostgresAgentRepository) Count(ctx context.Context, filter access.Filter, criteria domain.AgentCriteria) (int, error) {
	q := sqlstore.CountAgents(sqlstore.Postgres, filter, criteria)
	var n int64
	if err := r.db.QueryRow(ctx, q.SQL, q.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count agents: %w", err)
	}
	return int(n), nil
}

func (r *PostgresAgentRepository) exec(ctx context.Context, op string, q sqlstore.Query) error {
	tag, err := r.db.Exec(ctx, q.SQL, q.Args...)
	if err != nil {
		return fmt.Errorf("failed to %s agent: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

func (r *PostgresAgentRepository) Update(ctx context.Context, agent *domain.Agent, filter access.Filter) error {
	return r.exec(ctx, "update", sqlstore.UpdateAgent(sqlstore.Postgres, agent, filter))
}

func (r *PostgresAgentRepository) Delete(ctx context.Context, id domain.AgentID, filter access.Filter) error {
	return r.exec(ctx, "delete", sqlstore.DeleteAgent(sqlstore.Postgres, id, filter))
}
