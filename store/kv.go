package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Get for keys that were never written or were deleted.
var ErrNotFound = errors.New("store: key not found")

// KV is the durable blob store the snapshots are written to. Each Set replaces
// the whole value for a key in a single call.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
