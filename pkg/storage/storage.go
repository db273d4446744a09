// Package storage provides the durable key-value port the state managers
// persist their snapshots through. Values are JSON-serialized strings;
// consumers treat malformed content as absence.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a key has no stored value.
var ErrKeyNotFound = errors.New("storage: key not found")

// Store is the durable key-value contract. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
