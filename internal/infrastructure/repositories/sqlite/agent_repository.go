package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/internal/infrastructure/repositories/sqlstore"
)

type SQLiteAgentRepository struct {
	db *sql.DB
}

func NewSQLiteAgentRepository(db *sql.DB) ports.AgentRepository {
	return &SQLiteAgentRepository{db: db}
}

func (r *SQLiteAgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	q := sqlstore.InsertAgent(sqlstore.SQLite, agent)
	if _, err := r.db.ExecContext(ctx, q.SQL, q.Args...); err != nil {
		return fmt.Errorf("failed to insert agent: %w", err)
	}
	return nil
}

func (r *SQLiteAgentRepository) one(ctx context.Context, q sqlstore.Query) (*domain.Agent, error) {
	agent, err := sqlstore.ScanAgent(r.db.QueryRowContext(ctx, q.SQL, q.Args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read agent: %w", err)
	}
	return agent, nil
}

func (r *SQLiteAgentRepository) GetByID(ctx context.Context, id domain.AgentID) (*domain.Agent, error) {
	return r.one(ctx, sqlstore.SelectAgent(sqlstore.SQLite, id, nil))
}

func (r *SQLiteAgentRepository) Find(ctx context.Context, id domain.AgentID, filter access.Filter) (*domain.Agent, error) {
	return r.one(ctx, sqlstore.SelectAgent(sqlstore.SQLite, id, &filter))
}

func (r *SQLiteAgentRepository) List(ctx context.Context, filter access.Filter, query domain.AgentQuery) ([]*domain.Agent, error) {
	q := sqlstore.ListAgents(sqlstore.SQLite, filter, query)
	rows, err := r.db.QueryContext(ctx, q.SQL, q.Args...)
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

func (r *SQLiteAgentRepository) Count(ctx context.Context, filter access.Filter, criteria domain.AgentCriteria) (int, error) {
	q := sqlstore.CountAgents(sqlstore.SQLite, filter, criteria)
	var n int
	if err := r.db.QueryRowContext(ctx, q.SQL, q.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count agents: %w", err)
	}
	return n, nil
}

func (r *SQLiteAgentRepository) exec(ctx context.Context, op string, q sqlstore.Query) error {
	res, err := r.db.ExecContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return fmt.Errorf("failed to %s agent: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s agent: %w", op, err)
	}
	if n == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

func (r *SQLiteAgentRepository) Update(ctx context.Context, agent *domain.Agent, filter access.Filter) error {
	return r.exec(ctx, "update", sqlstore.UpdateAgent(sqlstore.SQLite, agent, filter))
}

func (r *SQLiteAgentRepository) Delete(ctx context.Context, id domain.AgentID, filter access.Filter) error {
	return r.exec(ctx, "delete", sqlstore.DeleteAgent(sqlstore.SQLite, id, filter))
}
