package access

import (
	"fmt"

	"agentmart/internal/core/domain"
)

func denied(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, reason)
}

// RequireWriter allows creators and admins to mutate agents.
func RequireWriter(caller *domain.Identity) error {
	if caller == nil {
		return denied("sign in required")
	}
	switch caller.Role {
	case domain.RoleCreator, domain.RoleAdmin:
		return nil
	case domain.RoleEnterprise:
		return denied("enterprise accounts cannot manage agents")
	default:
		return denied("unknown role")
	}
}

// CanMutate checks ownership on top of RequireWriter.
func CanMutate(caller *domain.Identity, agent *domain.Agent) error {
	if err := RequireWriter(caller); err != nil {
		return err
	}
	switch caller.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleCreator:
		if agent == nil || agent.CreatorID != caller.UserID {
			return denied("agent belongs to another creator")
		}
		return nil
	default:
		return denied("unknown role")
	}
}

func RequireAdmin(caller *domain.Identity) error {
	if caller == nil {
		return denied("sign in required")
	}
	if caller.Role != domain.RoleAdmin {
		return denied("admin role required")
	}
	return nil
}

// OwnerFor resolves who will own a new agent.
func OwnerFor(caller *domain.Identity, draft domain.AgentDraft) (domain.UserID, error) {
	if err := RequireWriter(caller); err != nil {
		return "", err
	}
	switch caller.Role {
	case domain.RoleAdmin:
		if draft.CreatorID != "" {
			return draft.CreatorID, nil
		}
		return caller.UserID, nil
	case domain.RoleCreator:
		if draft.CreatorID != "" && draft.CreatorID != caller.UserID {
			return "", denied("cannot create agents for another creator")
		}
		return caller.UserID, nil
	default:
		return "", denied("unknown role")
	}
}

// creatorStatuses are the moderation states a creator may move their own
// agent into. Publishing and rejection are admin decisions.
var creatorStatuses = map[domain.AgentStatus]bool{
	domain.AgentStatusDraft:    true,
	domain.AgentStatusPending:  true,
	domain.AgentStatusArchived: true,
}

// CheckPatch rejects fields the caller's role may not change.
func CheckPatch(caller *domain.Identity, patch domain.AgentPatch) error {
	if err := RequireWriter(caller); err != nil {
		return err
	}
	if caller.Role == domain.RoleAdmin {
		return nil
	}
	if patch.Featured != nil {
		return denied("only admins can feature agents")
	}
	if patch.Status != nil && !creatorStatuses[*patch.Status] {
		return denied(fmt.Sprintf("creators cannot set status %q", *patch.Status))
	}
	return nil
}
