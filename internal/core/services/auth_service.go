package services

import (
	"context"
	"errors"
	"fmt"

	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/pkg/utils"
	"agentmart/pkg/validation"
)

type authService struct {
	idp   ports.IdentityProvider
	users ports.UserRepository
}

func NewAuthService(idp ports.IdentityProvider, users ports.UserRepository) ports.AuthService {
	return &authService{idp: idp, users: users}
}

// SignUp registers a creator or enterprise account. Admins are only
// created by SeedAdmin or the CLI.
func (s *authService) SignUp(ctx context.Context, req ports.SignUpRequest) (*domain.Identity, error) {
	switch req.Role {
	case domain.RoleCreator, domain.RoleEnterprise:
	case domain.RoleAdmin:
		return nil, fmt.Errorf("%w: admin accounts cannot be self-registered", domain.ErrPermissionDenied)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, req.Role)
	}
	if err := validation.ValidateDisplayName(req.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}

	user, err := s.idp.Register(ctx, req.Email, req.Password, utils.SanitizeString(req.Name), req.Role)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	return s.idp.VerifyCredentials(ctx, email, password)
}

func (s *authService) Resolve(ctx context.Context, id domain.UserID) (*domain.Identity, error) {
	if id == "" {
		return nil, domain.ErrUserNotFound
	}
	return s.idp.Lookup(ctx, id)
}

// SeedAdmin makes sure an admin account exists for email. An existing
// non-admin account with the same email is an error.
func (s *authService) SeedAdmin(ctx context.Context, email, password string) (*domain.Identity, error) {
	existing, err := s.users.GetByEmail(ctx, utils.NormalizeEmail(email))
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			return nil, fmt.Errorf("%w: %s is registered as %s", domain.ErrEmailTaken, email, existing.Role)
		}
		return existing.Identity(), nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, backing(err)
	}

	user, err := s.idp.Register(ctx, email, password, "Administrator", domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}
