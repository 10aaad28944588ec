package access

import (
	"testing"

	"agentmart/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	creatorU1  = &domain.Identity{UserID: "u1", Role: domain.RoleCreator}
	creatorU2  = &domain.Identity{UserID: "u2", Role: domain.RoleCreator}
	enterprise = &domain.Identity{UserID: "e1", Role: domain.RoleEnterprise}
	admin      = &domain.Identity{UserID: "a1", Role: domain.RoleAdmin}
	bogus      = &domain.Identity{UserID: "x1", Role: domain.Role("superuser")}
)

func agents() []*domain.Agent {
	return []*domain.Agent{
		{ID: "pub-u1", CreatorID: "u1", IsPublic: true},
		{ID: "priv-u1", CreatorID: "u1", IsPublic: false},
		{ID: "pub-u3", CreatorID: "u3", IsPublic: true},
		{ID: "priv-u3", CreatorID: "u3", IsPublic: false},
	}
}

func visible(f Filter) []domain.AgentID {
	var ids []domain.AgentID
	for _, a := range agents() {
		if f.Matches(a) {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestFor_Golden(t *testing.T) {
	cases := []struct {
		name     string
		caller   *domain.Identity
		want     Filter
		describe string
		visible  []domain.AgentID
	}{
		{
			name:     "anonymous sees public only",
			caller:   nil,
			want:     Filter{Scope: ScopePublic},
			describe: "public",
			visible:  []domain.AgentID{"pub-u1", "pub-u3"},
		},
		{
			name:     "creator sees own agents only",
			caller:   creatorU1,
			want:     Filter{Scope: ScopeOwner, CreatorID: "u1"},
			describe: "owner:u1",
			visible:  []domain.AgentID{"pub-u1", "priv-u1"},
		},
		{
			name:     "enterprise sees public only",
			caller:   enterprise,
			want:     Filter{Scope: ScopePublic},
			describe: "public",
			visible:  []domain.AgentID{"pub-u1", "pub-u3"},
		},
		{
			name:     "admin is unrestricted",
			caller:   admin,
			want:     Filter{Scope: ScopeAll},
			describe: "all",
			visible:  []domain.AgentID{"pub-u1", "priv-u1", "pub-u3", "priv-u3"},
		},
		{
			name:     "unknown role matches nothing",
			caller:   bogus,
			want:     Filter{Scope: ScopeNone},
			describe: "none",
			visible:  nil,
		},
		{
			name:     "creator without id matches nothing",
			caller:   &domain.Identity{Role: domain.RoleCreator},
			want:     Filter{Scope: ScopeNone},
			describe: "none",
			visible:  nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := For(tc.caller)
			assert.Equal(t, tc.want, f)
			assert.Equal(t, tc.describe, f.Describe())
			assert.Equal(t, tc.visible, visible(f))
		})
	}
}

func TestZeroFilterFailsClosed(t *testing.T) {
	var f Filter
	assert.Empty(t, visible(f))
	assert.False(t, f.Matches(nil))
}

func TestCanMutate(t *testing.T) {
	owned := &domain.Agent{ID: "a", CreatorID: "u1"}
	foreign := &domain.Agent{ID: "b", CreatorID: "u3"}

	require.NoError(t, CanMutate(creatorU1, owned))
	require.NoError(t, CanMutate(admin, foreign))

	for name, tc := range map[string]struct {
		caller *domain.Identity
		agent  *domain.Agent
	}{
		"anonymous":       {nil, owned},
		"enterprise":      {enterprise, owned},
		"foreign creator": {creatorU2, owned},
		"unknown role":    {bogus, owned},
	} {
		t.Run(name, func(t *testing.T) {
			err := CanMutate(tc.caller, tc.agent)
			assert.ErrorIs(t, err, domain.ErrPermissionDenied)
		})
	}
}

func TestOwnerFor(t *testing.T) {
	id, err := OwnerFor(creatorU1, domain.AgentDraft{})
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), id)

	_, err = OwnerFor(creatorU1, domain.AgentDraft{CreatorID: "u3"})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	id, err = OwnerFor(admin, domain.AgentDraft{CreatorID: "u3"})
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u3"), id)

	_, err = OwnerFor(enterprise, domain.AgentDraft{})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestCheckPatch(t *testing.T) {
	featured := true
	published := domain.AgentStatusPublished
	pending := domain.AgentStatusPending

	assert.ErrorIs(t, CheckPatch(creatorU1, domain.AgentPatch{Featured: &featured}), domain.ErrPermissionDenied)
	assert.ErrorIs(t, CheckPatch(creatorU1, domain.AgentPatch{Status: &published}), domain.ErrPermissionDenied)
	assert.NoError(t, CheckPatch(creatorU1, domain.AgentPatch{Status: &pending}))
	assert.NoError(t, CheckPatch(admin, domain.AgentPatch{Status: &published, Featured: &featured}))
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(admin))
	assert.ErrorIs(t, RequireAdmin(creatorU1), domain.ErrPermissionDenied)
	assert.ErrorIs(t, RequireAdmin(nil), domain.ErrPermissionDenied)
}
