package sqlstore

import (
	"testing"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestScopeClause(t *testing.T) {
	tests := []struct {
		name   string
		filter access.Filter
		sql    string
		args   []any
	}{
		{"public", access.For(nil), "SELECT COUNT(*) FROM agents WHERE is_public = $1", []any{true}},
		{"owner", access.For(&domain.Identity{UserID: "u1", Role: domain.RoleCreator}), "SELECT COUNT(*) FROM agents WHERE creator_id = $1", []any{"u1"}},
		{"admin", access.For(&domain.Identity{UserID: "a", Role: domain.RoleAdmin}), "SELECT COUNT(*) FROM agents", nil},
		{"zero value", access.Filter{}, "SELECT COUNT(*) FROM agents WHERE 1 = 0", nil},
		{"owner without id", access.Filter{Scope: access.ScopeOwner}, "SELECT COUNT(*) FROM agents WHERE 1 = 0", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := CountAgents(Postgres, tt.filter, domain.AgentCriteria{})
			assert.Equal(t, tt.sql, q.SQL)
			assert.Equal(t, tt.args, q.Args)
		})
	}
}

func TestListAgents_Criteria(t *testing.T) {
	yes := true
	q := ListAgents(Postgres, access.For(nil), domain.AgentQuery{
		Criteria: domain.AgentCriteria{
			Status:   domain.AgentStatusPublished,
			Category: "Support",
			Featured: &yes,
			Search:   "50%_off",
		},
		Page: domain.Page{Number: 3, Size: 10},
	})

	assert.Equal(t, "SELECT "+AgentColumns+" FROM agents WHERE is_public = $1 AND status = $2 AND LOWER(category) = $3 AND featured = $4"+
		` AND (LOWER(name) LIKE $5 ESCAPE '\' OR LOWER(description) LIKE $6 ESCAPE '\')`+
		" ORDER BY created_at_ms DESC, id ASC LIMIT $7 OFFSET $8", q.SQL)
	assert.Equal(t, []any{true, "published", "support", true, `%50\%\_off%`, `%50\%\_off%`, 10, 20}, q.Args)
}

func TestSQLitePlaceholders(t *testing.T) {
	q := CountAgents(SQLite, access.For(&domain.Identity{UserID: "u1", Role: domain.RoleCreator}), domain.AgentCriteria{Status: domain.AgentStatusDraft})
	assert.Equal(t, "SELECT COUNT(*) FROM agents WHERE creator_id = ? AND status = ?", q.SQL)
}

func TestUpdateAgent_FilterInWhere(t *testing.T) {
	agent := &domain.Agent{ID: "a1", CreatorID: "u3", Name: "n", Category: "c", Status: domain.AgentStatusDraft}
	q := UpdateAgent(Postgres, agent, access.For(&domain.Identity{UserID: "u2", Role: domain.RoleCreator}))

	assert.Contains(t, q.SQL, "WHERE id = $10 AND creator_id = $11")
	assert.Len(t, q.Args, 11)
	assert.Equal(t, "a1", q.Args[9])
	assert.Equal(t, "u2", q.Args[10])
}

func TestDeleteAgent(t *testing.T) {
	q := DeleteAgent(SQLite, "a1", access.For(nil))
	assert.Equal(t, "DELETE FROM agents WHERE id = ? AND is_public = ?", q.SQL)
	assert.Equal(t, []any{"a1", true}, q.Args)
}

func TestSelectAgent(t *testing.T) {
	q := SelectAgent(Postgres, "a1", nil)
	assert.Equal(t, "SELECT "+AgentColumns+" FROM agents WHERE id = $1", q.SQL)

	f := access.For(nil)
	q = SelectAgent(Postgres, "a1", &f)
	assert.Equal(t, "SELECT "+AgentColumns+" FROM agents WHERE id = $1 AND is_public = $2", q.SQL)
}

func TestListUsers(t *testing.T) {
	q := ListUsers(Postgres, domain.UserQuery{Role: domain.RoleCreator, Search: "ada"})
	assert.Equal(t, "SELECT "+UserColumns+" FROM users WHERE role = $1"+
		` AND (LOWER(email) LIKE $2 ESCAPE '\' OR LOWER(name) LIKE $3 ESCAPE '\')`+
		" ORDER BY created_at_ms DESC, id ASC LIMIT $4 OFFSET $5", q.SQL)
	assert.Equal(t, []any{"creator", "%ada%", "%ada%", domain.DefaultPageSize, 0}, q.Args)
}

func TestSelectUserBy_RejectsUnknownColumn(t *testing.T) {
	assert.Panics(t, func() { SelectUserBy(Postgres, "password_hash", "x") })
}

func TestMigrationsAreOrdered(t *testing.T) {
	for _, d := range []Dialect{Postgres, SQLite} {
		prev := 0
		for _, m := range Migrations(d) {
			assert.Greater(t, m.Version, prev)
			prev = m.Version
		}
		assert.Equal(t, prev, Latest(d))
	}
	assert.Contains(t, Migrations(SQLite)[0].Statements[1], "is_public INTEGER")
	assert.Contains(t, Migrations(Postgres)[0].Statements[1], "is_public BOOLEAN")
}
