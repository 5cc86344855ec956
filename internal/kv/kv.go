// Package kv is the small get/set/remove store behind per-user console state
// such as recent items. Writers do not coordinate: last writer wins.
package kv

import (
	"context"
	"errors"
	"fmt"

	"kairos-gateway/internal/config"
)

var ErrNotFound = errors.New("kv: key not found")

// Store is implemented by Memory, SQL and Redis.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.KVConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQL(ctx, "sqlite", cfg.Path)
	case "postgres":
		return OpenSQL(ctx, "postgres", cfg.DSN)
	case "redis":
		return OpenRedis(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown kv driver %q", cfg.Driver)
	}
}
