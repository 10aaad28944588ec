package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func seedAgents(t *testing.T, repo *RedisAgentRepository) {
	t.Helper()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.Agent{
		{ID: "a1", CreatorID: "u1", Name: "Invoice Reader", Category: "finance", IsPublic: true, Status: domain.AgentStatusPublished},
		{ID: "a2", CreatorID: "u1", Name: "Draft Bot", Category: "support", Status: domain.AgentStatusDraft},
		{ID: "a3", CreatorID: "u3", Name: "Support Triage", Category: "support", IsPublic: true, Status: domain.AgentStatusPublished},
	}
	for i := range rows {
		rows[i].CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(context.Background(), &rows[i]))
	}
}

func ids(agents []*domain.Agent) []domain.AgentID {
	out := make([]domain.AgentID, 0, len(agents))
	for _, a := range agents {
		out = append(out, a.ID)
	}
	return out
}

func TestRedisAgentRepository_Visibility(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	repo := NewRedisAgentRepository(client).(*RedisAgentRepository)
	seedAgents(t, repo)

	tests := []struct {
		name   string
		caller *domain.Identity
		want   []domain.AgentID
	}{
		{"anonymous", nil, []domain.AgentID{"a3", "a1"}},
		{"creator", &domain.Identity{UserID: "u1", Role: domain.RoleCreator}, []domain.AgentID{"a2", "a1"}},
		{"enterprise", &domain.Identity{UserID: "e1", Role: domain.RoleEnterprise}, []domain.AgentID{"a3", "a1"}},
		{"admin", &domain.Identity{UserID: "x", Role: domain.RoleAdmin}, []domain.AgentID{"a3", "a2", "a1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, access.For(tt.caller), domain.AgentQuery{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	_, err := repo.Find(ctx, "a2", access.For(nil))
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)

	n, err := repo.Count(ctx, access.Filter{Scope: access.ScopeAll}, domain.AgentCriteria{Category: "support"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRedisAgentRepository_UpdateReindexes(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	repo := NewRedisAgentRepository(client).(*RedisAgentRepository)
	seedAgents(t, repo)
	owner := access.For(&domain.Identity{UserID: "u1", Role: domain.RoleCreator})

	a2, err := repo.GetByID(ctx, "a2")
	require.NoError(t, err)
	a2.IsPublic = true
	require.NoError(t, repo.Update(ctx, a2, owner))

	members, err := mr.SMembers("agentmart:agent:public")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a2", "a3"}, members)

	a2.IsPublic = false
	require.NoError(t, repo.Update(ctx, a2, owner))
	members, err = mr.SMembers("agentmart:agent:public")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a3"}, members)
}

func TestRedisAgentRepository_ForeignMutationsRefused(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	repo := NewRedisAgentRepository(client).(*RedisAgentRepository)
	seedAgents(t, repo)
	u2 := access.For(&domain.Identity{UserID: "u2", Role: domain.RoleCreator})

	a3, err := repo.GetByID(ctx, "a3")
	require.NoError(t, err)
	a3.Name = "hijacked"

	assert.ErrorIs(t, repo.Update(ctx, a3, u2), domain.ErrAgentNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "a3", u2), domain.ErrAgentNotFound)

	stored, err := repo.GetByID(ctx, "a3")
	require.NoError(t, err)
	assert.Equal(t, "Support Triage", stored.Name)

	require.NoError(t, repo.Delete(ctx, "a3", access.Filter{Scope: access.ScopeAll}))
	_, err = repo.GetByID(ctx, "a3")
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)

	got, err := repo.List(ctx, access.For(nil), domain.AgentQuery{})
	require.NoError(t, err)
	assert.Equal(t, []domain.AgentID{"a1"}, ids(got))
}

func TestRedisAgentRepository_DuplicateCreate(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewRedisAgentRepository(client)
	agent := &domain.Agent{ID: "dup", CreatorID: "u1"}

	require.NoError(t, repo.Create(context.Background(), agent))
	assert.Error(t, repo.Create(context.Background(), agent))
}

func TestRedisUserRepository(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	repo := NewRedisUserRepository(client)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, role := range []domain.Role{domain.RoleCreator, domain.RoleEnterprise, domain.RoleAdmin} {
		require.NoError(t, repo.Create(ctx, &domain.User{
			ID:        domain.UserID(fmt.Sprintf("u%d", i+1)),
			Email:     fmt.Sprintf("user%d@example.com", i+1),
			Role:      role,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	err := repo.Create(ctx, &domain.User{ID: "u9", Email: "user1@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	_, err = repo.GetByID(ctx, "u9")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	u, err := repo.GetByEmail(ctx, "user2@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEnterprise, u.Role)

	counts, err := repo.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.RoleAdmin])

	page, err := repo.List(ctx, domain.UserQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, domain.UserID("u3"), page[0].ID)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)

	// a blob indexed before the public set existed, plus a dangling id
	mr.Set("agentmart:agent:old", `{"id":"old","creator_id":"u7","is_public":true}`)
	mr.SAdd("agentmart:agent:all", "old", "gone")

	require.NoError(t, Migrate(ctx, client, nil))

	version, err := SchemaVersion(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	public, err := mr.SMembers("agentmart:agent:public")
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, public)
	all, err := mr.SMembers("agentmart:agent:all")
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, all)

	assert.False(t, mr.Exists("agentmart:lock:migrate"), "migration lock is released")

	require.NoError(t, Migrate(ctx, client, nil), "second run is a no-op")
}
