package ports

import (
	"context"
	"time"
)

// Cache is a generic key-value capability for usecases. Writes are
// best-effort: callers must tolerate a lost or failed entry.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
