package sqlstore

import "fmt"

// Migration is one schema step. Version numbers are shared by both
// dialects.
type Migration struct {
	Version    int
	Statements []string
}

const SchemaVersionTable = `CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
)`

func Migrations(d Dialect) []Migration {
	return []Migration{
		{
			Version: 1,
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					email TEXT NOT NULL UNIQUE,
					name TEXT NOT NULL DEFAULT '',
					role TEXT NOT NULL,
					password_hash TEXT NOT NULL,
					created_at_ms BIGINT NOT NULL
				)`,
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS agents (
					id TEXT PRIMARY KEY,
					creator_id TEXT NOT NULL,
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL,
					is_public %[1]s NOT NULL,
					status TEXT NOT NULL,
					featured %[1]s NOT NULL,
					price_cents BIGINT NOT NULL DEFAULT 0,
					created_at_ms BIGINT NOT NULL,
					updated_at_ms BIGINT NOT NULL
				)`, d.boolType()),
			},
		},
		{
			Version: 2,
			Statements: []string{
				`CREATE INDEX IF NOT EXISTS agents_creator_idx ON agents (creator_id)`,
				`CREATE INDEX IF NOT EXISTS agents_public_idx ON agents (is_public, created_at_ms)`,
				`CREATE INDEX IF NOT EXISTS users_role_idx ON users (role)`,
			},
		},
	}
}

// Latest is the highest migration version.
func Latest(d Dialect) int {
	ms := Migrations(d)
	return ms[len(ms)-1].Version
}
