package kv

import (
	"fmt"
)

// Dialect covers the SQL differences between the sqlite and postgres stores.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name ("pgx" or "sqlite").
	DriverName() string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	Placeholder(index int) string

	// NowExpr returns the SQL expression for the current timestamp.
	NowExpr() string

	// TableSQL returns the DDL of the entries table.
	TableSQL() string
}

// NewDialect creates a Dialect for the given driver name ("postgres" or "sqlite").
func NewDialect(driver string) Dialect {
	switch driver {
	case "sqlite":
		return sqliteDialect{}
	default:
		return postgresDialect{}
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string       { return "postgres" }
func (postgresDialect) DriverName() string { return "pgx" }
func (postgresDialect) NowExpr() string    { return "NOW()" }

func (postgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (postgresDialect) TableSQL() string {
	return `
CREATE TABLE IF NOT EXISTS kv_entries (
    entry_key   TEXT PRIMARY KEY,
    entry_value TEXT NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite" }
func (sqliteDialect) NowExpr() string    { return "datetime('now')" }

func (sqliteDialect) Placeholder(index int) string {
	return fmt.Sprintf("?%d", index)
}

func (sqliteDialect) TableSQL() string {
	return `
CREATE TABLE IF NOT EXISTS kv_entries (
    entry_key   TEXT PRIMARY KEY,
    entry_value TEXT NOT NULL,
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
)`
}
