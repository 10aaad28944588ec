package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/pkg/utils"
	"agentmart/pkg/validation"

	"golang.org/x/crypto/bcrypt"
)

type identityProvider struct {
	users ports.UserRepository
	cost  int
	now   func() time.Time
	// dummyHash keeps unknown-email sign-ins as slow as wrong passwords.
	dummyHash []byte
}

// NewIdentityProvider is the local credential store: bcrypt password hashes
// kept in the user repository.
func NewIdentityProvider(users ports.UserRepository, bcryptCost int) (ports.IdentityProvider, error) {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", bcryptCost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("agentmart-dummy-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare identity provider: %w", err)
	}
	return &identityProvider{users: users, cost: bcryptCost, now: time.Now, dummyHash: dummy}, nil
}

func (p *identityProvider) Register(ctx context.Context, email, password, name string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}
	email = utils.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           domain.UserID(utils.NewUserID()),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, backing(err)
	}
	return user, nil
}

func (p *identityProvider) VerifyCredentials(ctx context.Context, email, password string) (*domain.Identity, error) {
	user, err := p.users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, backing(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user.Identity(), nil
}

func (p *identityProvider) Lookup(ctx context.Context, id domain.UserID) (*domain.Identity, error) {
	user, err := p.users.GetByID(ctx, id)
	if err != nil {
		return nil, backing(err)
	}
	return user.Identity(), nil
}
