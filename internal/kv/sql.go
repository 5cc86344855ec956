package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	_ "modernc.org/sqlite"             // Register sqlite as database/sql driver
)

// SQL is a Store over a single kv_entries table in sqlite or postgres.
type SQL struct {
	DB      *sql.DB
	Dialect Dialect
}

// OpenSQL opens the database, applies connection settings for the driver and
// creates the entries table.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	if dsn == "" {
		return nil, fmt.Errorf("kv %s: empty dsn", driver)
	}
	dialect := NewDialect(driver)

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect.Name() == "sqlite" {
		// SQLite: single writer, WAL mode for concurrent reads
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, dialect.TableSQL()); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &SQL{DB: db, Dialect: dialect}, nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	q := fmt.Sprintf("SELECT entry_value FROM kv_entries WHERE entry_key = %s", s.Dialect.Placeholder(1))
	var v string
	err := s.DB.QueryRowContext(ctx, q, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("kv get %s: %w", key, err)
	}
	return v, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	q := fmt.Sprintf(
		`INSERT INTO kv_entries (entry_key, entry_value, updated_at) VALUES (%s, %s, %s)
ON CONFLICT (entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = excluded.updated_at`,
		s.Dialect.Placeholder(1), s.Dialect.Placeholder(2), s.Dialect.NowExpr(),
	)
	if _, err := s.DB.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Remove(ctx context.Context, key string) error {
	q := fmt.Sprintf("DELETE FROM kv_entries WHERE entry_key = %s", s.Dialect.Placeholder(1))
	if _, err := s.DB.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("kv remove %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.DB.Close()
}
