package sqlstore

import (
	"fmt"
	"strings"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"
)

const AgentColumns = "id, creator_id, name, description, category, is_public, status, featured, price_cents, created_at_ms, updated_at_ms"

const UserColumns = "id, email, name, role, password_hash, created_at_ms"

// Query is a statement with its bind arguments.
type Query struct {
	SQL  string
	Args []any
}

type builder struct {
	dialect Dialect
	conds   []string
	args    []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

func (b *builder) where(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *builder) clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// scope translates the access filter. An unknown or empty scope matches
// no rows.
func (b *builder) scope(f access.Filter) {
	switch f.Scope {
	case access.ScopePublic:
		b.where("is_public = " + b.bind(true))
	case access.ScopeOwner:
		if f.CreatorID == "" {
			b.where("1 = 0")
			return
		}
		b.where("creator_id = " + b.bind(string(f.CreatorID)))
	case access.ScopeAll:
	default:
		b.where("1 = 0")
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (b *builder) criteria(c domain.AgentCriteria) {
	if c.Status != "" {
		b.where("status = " + b.bind(string(c.Status)))
	}
	if c.Category != "" {
		b.where("LOWER(category) = " + b.bind(strings.ToLower(c.Category)))
	}
	if c.Featured != nil {
		b.where("featured = " + b.bind(*c.Featured))
	}
	if c.Public != nil {
		b.where("is_public = " + b.bind(*c.Public))
	}
	if q := strings.ToLower(strings.TrimSpace(c.Search)); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		b.where(fmt.Sprintf(`(LOWER(name) LIKE %s ESCAPE '\' OR LOWER(description) LIKE %s ESCAPE '\')`,
			b.bind(pattern), b.bind(pattern)))
	}
}

func SelectAgent(d Dialect, id domain.AgentID, f *access.Filter) Query {
	b := &builder{dialect: d}
	b.where("id = " + b.bind(string(id)))
	if f != nil {
		b.scope(*f)
	}
	return Query{SQL: "SELECT " + AgentColumns + " FROM agents" + b.clause(), Args: b.args}
}

func ListAgents(d Dialect, f access.Filter, q domain.AgentQuery) Query {
	b := &builder{dialect: d}
	b.scope(f)
	b.criteria(q.Criteria)
	page := q.Page.Normalize()
	sql := "SELECT " + AgentColumns + " FROM agents" + b.clause() +
		" ORDER BY created_at_ms DESC, id ASC LIMIT " + b.bind(page.Size) + " OFFSET " + b.bind(page.Offset())
	return Query{SQL: sql, Args: b.args}
}

func CountAgents(d Dialect, f access.Filter, c domain.AgentCriteria) Query {
	b := &builder{dialect: d}
	b.scope(f)
	b.criteria(c)
	return Query{SQL: "SELECT COUNT(*) FROM agents" + b.clause(), Args: b.args}
}

func InsertAgent(d Dialect, a *domain.Agent) Query {
	b := &builder{dialect: d}
	values := []string{
		b.bind(string(a.ID)), b.bind(string(a.CreatorID)), b.bind(a.Name), b.bind(a.Description),
		b.bind(a.Category), b.bind(a.IsPublic), b.bind(string(a.Status)), b.bind(a.Featured),
		b.bind(a.PriceCents), b.bind(ToMillis(a.CreatedAt)), b.bind(ToMillis(a.UpdatedAt)),
	}
	return Query{
		SQL:  "INSERT INTO agents (" + AgentColumns + ") VALUES (" + strings.Join(values, ", ") + ")",
		Args: b.args,
	}
}

// UpdateAgent writes every mutable column. The access filter is part of
// the WHERE clause, so a row outside the caller's scope is not touched and
// the statement reports zero affected rows.
func UpdateAgent(d Dialect, a *domain.Agent, f access.Filter) Query {
	b := &builder{dialect: d}
	sets := []string{
		"creator_id = " + b.bind(string(a.CreatorID)),
		"name = " + b.bind(a.Name),
		"description = " + b.bind(a.Description),
		"category = " + b.bind(a.Category),
		"is_public = " + b.bind(a.IsPublic),
		"status = " + b.bind(string(a.Status)),
		"featured = " + b.bind(a.Featured),
		"price_cents = " + b.bind(a.PriceCents),
		"updated_at_ms = " + b.bind(ToMillis(a.UpdatedAt)),
	}
	b.where("id = " + b.bind(string(a.ID)))
	b.scope(f)
	return Query{SQL: "UPDATE agents SET " + strings.Join(sets, ", ") + b.clause(), Args: b.args}
}

func DeleteAgent(d Dialect, id domain.AgentID, f access.Filter) Query {
	b := &builder{dialect: d}
	b.where("id = " + b.bind(string(id)))
	b.scope(f)
	return Query{SQL: "DELETE FROM agents" + b.clause(), Args: b.args}
}

func InsertUser(d Dialect, u *domain.User) Query {
	b := &builder{dialect: d}
	values := []string{
		b.bind(string(u.ID)), b.bind(u.Email), b.bind(u.Name), b.bind(string(u.Role)),
		b.bind(u.PasswordHash), b.bind(ToMillis(u.CreatedAt)),
	}
	return Query{
		SQL:  "INSERT INTO users (" + UserColumns + ") VALUES (" + strings.Join(values, ", ") + ")",
		Args: b.args,
	}
}

func SelectUserBy(d Dialect, column string, value string) Query {
	if column != "id" && column != "email" {
		panic("sqlstore: unsupported user lookup column " + column)
	}
	b := &builder{dialect: d}
	b.where(column + " = " + b.bind(value))
	return Query{SQL: "SELECT " + UserColumns + " FROM users" + b.clause(), Args: b.args}
}

func ListUsers(d Dialect, q domain.UserQuery) Query {
	b := &builder{dialect: d}
	if q.Role != "" {
		b.where("role = " + b.bind(string(q.Role)))
	}
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		b.where(fmt.Sprintf(`(LOWER(email) LIKE %s ESCAPE '\' OR LOWER(name) LIKE %s ESCAPE '\')`,
			b.bind(pattern), b.bind(pattern)))
	}
	page := domain.Page{Number: q.Page, Size: q.PageSize}.Normalize()
	sql := "SELECT " + UserColumns + " FROM users" + b.clause() +
		" ORDER BY created_at_ms DESC, id ASC LIMIT " + b.bind(page.Size) + " OFFSET " + b.bind(page.Offset())
	return Query{SQL: sql, Args: b.args}
}

const CountUsersByRole = "SELECT role, COUNT(*) FROM users GROUP BY role"

// Scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

func ScanAgent(s Scanner) (*domain.Agent, error) {
	var (
		a                  domain.Agent
		id, creator, state string
		created, updated   int64
	)
	if err := s.Scan(&id, &creator, &a.Name, &a.Description, &a.Category, &a.IsPublic,
		&state, &a.Featured, &a.PriceCents, &created, &updated); err != nil {
		return nil, err
	}
	a.ID = domain.AgentID(id)
	a.CreatorID = domain.UserID(creator)
	a.Status = domain.AgentStatus(state)
	a.CreatedAt = FromMillis(created)
	a.UpdatedAt = FromMillis(updated)
	return &a, nil
}

func ScanUser(s Scanner) (*domain.User, error) {
	var (
		u        domain.User
		id, role string
		created  int64
	)
	if err := s.Scan(&id, &u.Email, &u.Name, &role, &u.PasswordHash, &created); err != nil {
		return nil, err
	}
	u.ID = domain.UserID(id)
	u.Role = domain.Role(role)
	u.CreatedAt = FromMillis(created)
	return &u, nil
}

// ZeroCounts returns a role histogram with every role present.
func ZeroCounts() map[domain.Role]int {
	counts := make(map[domain.Role]int, len(domain.Roles))
	for _, role := range domain.Roles {
		counts[role] = 0
	}
	return counts
}
