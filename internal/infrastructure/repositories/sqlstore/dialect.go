// Package sqlstore holds the SQL shared by the relational backends: schema,
// migrations, and the query builder that turns an access filter into a
// WHERE clause.
package sqlstore

import (
	"strconv"
	"time"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

func (d Dialect) boolType() string {
	if d == SQLite {
		return "INTEGER"
	}
	return "BOOLEAN"
}

// Timestamps are stored as Unix milliseconds in both dialects.
func ToMillis(t time.Time) int64 { return t.UnixMilli() }

func FromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
