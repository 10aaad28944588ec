package postgres

import (
	"context"
	"errors"
	"fmt"

	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/internal/infrastructure/repositories/sqlstore"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresUserRepository struct {
	db DB
}

func NewPostgresUserRepository(db DB) ports.UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	q := sqlstore.InsertUser(sqlstore.Postgres, user)
	if _, err := r.db.Exec(ctx, q.SQL, q.Args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) one(ctx context.Context, q sqlstore.Query) (*domain.User, error) {
	user, err := sqlstore.ScanUser(r.db.QueryRow(ctx, q.SQL, q.Args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return r.one(ctx, sqlstore.SelectUserBy(sqlstore.Postgres, "id", string(id)))
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, sqlstore.SelectUserBy(sqlstore.Postgres, "email", email))
}

func (r *PostgresUserRepository) List(ctx context.Context, query domain.UserQuery) ([]*domain.User, error) {
	q := sqlstore.ListUsers(sqlstore.Postgres, query)
	rows, err := r.db.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := sqlstore.ScanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *PostgresUserRepository) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	rows, err := r.db.Query(ctx, sqlstore.CountUsersByRole)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	defer rows.Close()

	counts := sqlstore.ZeroCounts()
	for rows.Next() {
		var (
			role string
			n    int64
		)
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[domain.Role(role)] = int(n)
	}
	return counts, rows.Err()
}
