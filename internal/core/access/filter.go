// Package access is the row-level visibility gate for agents. Every read
// and write of the agent entity derives its filter from For, whichever
// storage backend executes the query.
package access

import (
	"fmt"

	"agentmart/internal/core/domain"
)

type Scope int

const (
	// ScopeNone matches nothing. It is the zero value so an unset filter
	// fails closed.
	ScopeNone Scope = iota
	ScopePublic
	ScopeOwner
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopePublic:
		return "public"
	case ScopeOwner:
		return "owner"
	case ScopeAll:
		return "all"
	default:
		return "none"
	}
}

// Filter is the predicate intersected with every agent query.
type Filter struct {
	Scope     Scope
	CreatorID domain.UserID
}

// For computes the visibility filter from the caller identity alone, never
// from request parameters. A nil caller is unauthenticated.
func For(caller *domain.Identity) Filter {
	if caller == nil {
		return Filter{Scope: ScopePublic}
	}
	switch caller.Role {
	case domain.RoleCreator:
		if caller.UserID == "" {
			return Filter{Scope: ScopeNone}
		}
		return Filter{Scope: ScopeOwner, CreatorID: caller.UserID}
	case domain.RoleEnterprise:
		return Filter{Scope: ScopePublic}
	case domain.RoleAdmin:
		return Filter{Scope: ScopeAll}
	default:
		return Filter{Scope: ScopeNone}
	}
}

func (f Filter) Matches(a *domain.Agent) bool {
	if a == nil {
		return false
	}
	switch f.Scope {
	case ScopePublic:
		return a.IsPublic
	case ScopeOwner:
		return f.CreatorID != "" && a.CreatorID == f.CreatorID
	case ScopeAll:
		return true
	default:
		return false
	}
}

func (f Filter) Describe() string {
	if f.Scope == ScopeOwner {
		return fmt.Sprintf("owner:%s", f.CreatorID)
	}
	return f.Scope.String()
}
