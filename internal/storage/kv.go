// Package storage provides the flat key-value store backing the ledger,
// the credential store and the mirrored session flags. Values are opaque
// serialized blobs keyed by string; writers do read-modify-write with no
// locking across processes, last writer wins.
package storage

import "context"

// KV is a minimal string key-value store.
type KV interface {
	// Get returns the value for key, or apperrors.ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
