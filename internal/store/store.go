// ABOUTME: Store interface for durable client-side state
// ABOUTME: A small string key/value contract plus the fixed key holding the active thread id

package store

import (
	"context"
	"errors"
)

// ThreadIDKey is the fixed key under which the last known thread id is persisted.
const ThreadIDKey = "chat_thread_id"

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("store closed")

// Store persists small string values across process restarts.
type Store interface {
	// Get returns the value for key. The boolean is false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
