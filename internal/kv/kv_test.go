package kv

import (
	"context"
	"errors"
	"os"
	"testing"

	"kairos-gateway/internal/config"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "recent:asha"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, "recent:asha", `["a"]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "recent:asha", `["b"]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, "recent:asha")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != `["b"]` {
		t.Fatalf("expected last write to win, got %s", got)
	}
	if err := s.Remove(ctx, "recent:asha"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Get(ctx, "recent:asha"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	if err := s.Remove(ctx, "missing"); err != nil {
		t.Fatalf("removing a missing key should succeed: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQL(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	exercise(t, s)
}

func TestRedis(t *testing.T) {
	url := os.Getenv("KAIROS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("KAIROS_TEST_REDIS_URL not set")
	}
	r, err := OpenRedis(context.Background(), url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	r.Prefix = "kairos-test:"
	exercise(t, r)
}

func TestOpen_Drivers(t *testing.T) {
	s, err := Open(context.Background(), config.KVConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("expected *Memory, got %T", s)
	}
	if _, err := Open(context.Background(), config.KVConfig{Driver: "etcd"}); err == nil {
		t.Fatal("expected unknown driver error")
	}
	if _, err := Open(context.Background(), config.KVConfig{Driver: "postgres"}); err == nil {
		t.Fatal("expected error for empty postgres dsn")
	}
}

func TestDialectPlaceholders(t *testing.T) {
	if NewDialect("sqlite").Placeholder(2) != "?2" {
		t.Fatal("sqlite placeholder")
	}
	if NewDialect("postgres").Placeholder(2) != "$2" {
		t.Fatal("postgres placeholder")
	}
}
