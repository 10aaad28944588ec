package services

import (
	"context"
	"fmt"
	"time"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/pkg/cache"
)

// CachedAdminService wraps AdminService with a short-lived cache for the
// dashboard aggregates. User listings are never cached.
type CachedAdminService struct {
	base  ports.AdminService
	cache *cache.Cache
	ttl   time.Duration
}

func NewCachedAdminService(base ports.AdminService, ttl time.Duration) *CachedAdminService {
	return &CachedAdminService{base: base, cache: cache.New(ttl), ttl: ttl}
}

// The admin check runs before the cache lookup so a cached value is never
// served to a caller the base service would refuse.
func (s *CachedAdminService) Stats(ctx context.Context, caller *domain.Identity) (*domain.AdminStats, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return s.base.Stats(ctx, caller)
	}
	v, err := s.cache.GetOrSet(ctx, fmt.Sprintf("admin:stats:%s", caller.UserID), s.ttl, func(ctx context.Context) (interface{}, error) {
		return s.base.Stats(ctx, caller)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.AdminStats), nil
}

func (s *CachedAdminService) Overview(ctx context.Context, caller *domain.Identity) (*domain.AdminOverview, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return s.base.Overview(ctx, caller)
	}
	v, err := s.cache.GetOrSet(ctx, fmt.Sprintf("admin:overview:%s", caller.UserID), s.ttl, func(ctx context.Context) (interface{}, error) {
		return s.base.Overview(ctx, caller)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.AdminOverview), nil
}

func (s *CachedAdminService) ListUsers(ctx context.Context, caller *domain.Identity, query domain.UserQuery) ([]*domain.User, error) {
	return s.base.ListUsers(ctx, caller, query)
}

// Invalidate drops every cached aggregate.
func (s *CachedAdminService) Invalidate() {
	s.cache.Invalidate("admin:")
}

func (s *CachedAdminService) Stop() {
	s.cache.Stop()
}
