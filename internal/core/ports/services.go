package ports

import (
	"context"

	"agentmart/internal/core/domain"
)

type AuthService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	// Resolve re-derives the caller from the identity store. Store failures
	// surface as domain.ErrBackingServiceUnavailable.
	Resolve(ctx context.Context, id domain.UserID) (*domain.Identity, error)
	SeedAdmin(ctx context.Context, email, password string) (*domain.Identity, error)
}

type SignUpRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
}

// AgentService is the only way handlers reach agent rows; each method
// derives its access filter from caller.
type AgentService interface {
	List(ctx context.Context, caller *domain.Identity, query domain.AgentQuery) (*AgentPage, error)
	Get(ctx context.Context, caller *domain.Identity, id domain.AgentID) (*domain.Agent, error)
	Create(ctx context.Context, caller *domain.Identity, draft domain.AgentDraft) (*domain.Agent, error)
	Update(ctx context.Context, caller *domain.Identity, id domain.AgentID, patch domain.AgentPatch) (*domain.Agent, error)
	Delete(ctx context.Context, caller *domain.Identity, id domain.AgentID) error
	Counts(ctx context.Context, caller *domain.Identity) (*domain.AgentCounts, error)
}

type AgentPage struct {
	Agents   []*domain.Agent `json:"agents"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type AdminService interface {
	Stats(ctx context.Context, caller *domain.Identity) (*domain.AdminStats, error)
	Overview(ctx context.Context, caller *domain.Identity) (*domain.AdminOverview, error)
	ListUsers(ctx context.Context, caller *domain.Identity, query domain.UserQuery) ([]*domain.User, error)
}

// AccessMetrics receives access-gate outcomes from the services.
type AccessMetrics interface {
	RecordAccessDenied(operation string)
	RecordAgentMutation(operation string)
}
