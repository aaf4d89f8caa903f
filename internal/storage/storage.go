// Package storage provides the durable client-side key-value store the
// gateway persists its cart and session credential into. Two backends exist:
// a file store (one file per key under a data directory) and a Redis store
// for deployments where gateway restarts must share state.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get when no value exists under the key.
var ErrNotFound = errors.New("storage: key not found")

// KV is a durable key-value store. Values round-trip exactly. The store is
// single-writer per key from this client's perspective; concurrent instances
// racing writes is an accepted limitation.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
