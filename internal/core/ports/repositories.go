package ports

import (
	"context"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"
)

// AgentRepository stores agents. Every read and write except GetByID takes
// the caller's access filter and applies it inside the query itself, so a
// row outside the filter is never returned or modified.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	// GetByID ignores visibility. It is the ownership probe run before a
	// mutation and must not be used to serve reads.
	GetByID(ctx context.Context, id domain.AgentID) (*domain.Agent, error)
	Find(ctx context.Context, id domain.AgentID, filter access.Filter) (*domain.Agent, error)
	List(ctx context.Context, filter access.Filter, query domain.AgentQuery) ([]*domain.Agent, error)
	Count(ctx context.Context, filter access.Filter, criteria domain.AgentCriteria) (int, error)
	// Update and Delete return domain.ErrAgentNotFound when no row matched
	// both the id and the filter.
	Update(ctx context.Context, agent *domain.Agent, filter access.Filter) error
	Delete(ctx context.Context, id domain.AgentID, filter access.Filter) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, query domain.UserQuery) ([]*domain.User, error)
	CountByRole(ctx context.Context) (map[domain.Role]int, error)
}

// IdentityProvider is the backing authentication service: credential
// verification and identity lookup.
type IdentityProvider interface {
	Register(ctx context.Context, email, password, name string, role domain.Role) (*domain.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*domain.Identity, error)
	Lookup(ctx context.Context, id domain.UserID) (*domain.Identity, error)
}
