package kv

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Open returns the Store for driver. addr is the redis address or the postgres DSN.
func Open(ctx context.Context, driver, addr string) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverRedis:
		return NewRedisStore(ctx, addr)
	case DriverPostgres:
		return NewPostgresStore(ctx, addr)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
