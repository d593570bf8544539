// Package store provides keyed byte slots for snapshots and cached
// artifacts.
//
// # Backends
//
//   - [FileStore]: one JSON file per key under a directory (the default for
//     the CLI)
//   - [MemoryStore]: process-local map, for tests and the HTTP server
//   - [RedisStore]: shared slot for several editor or server instances
//   - [MongoStore]: durable slot with server-side expiry
//   - [NullStore]: stores nothing, used when snapshots are disabled
//
// [Open] selects a backend from a [Config]. Every backend honors a TTL on
// Set; a zero TTL never expires.
//
// # Keys
//
// Keys are produced by a [Keyer] so that snapshot slots and artifacts never
// collide. [ScopedKeyer] adds a namespace, e.g. one per workspace.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matzehuels/thinkingspace/pkg/observability"
)

// Sentinel errors for store operations.
var (
	// ErrUnknownBackend is returned by Open for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Store is a keyed slot of bytes.
type Store interface {
	// Get returns the value stored under key. A missing or expired key is
	// reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A positive ttl bounds the entry's lifetime.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Instrumented reports every operation on a Store to the registered
// observability store hooks.
type Instrumented struct {
	Store
}

// Instrument wraps s so that hits, misses and writes reach
// observability.Store().
func Instrument(s Store) *Instrumented {
	return &Instrumented{Store: s}
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := i.Store.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		observability.Store().OnStoreHit(ctx, keyType(key))
	} else {
		observability.Store().OnStoreMiss(ctx, keyType(key))
	}
	return data, ok, nil
}

func (i *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := i.Store.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Store().OnStoreSet(ctx, keyType(key), len(data))
	return nil
}

// keyType is the first key segment that is not a scope, e.g. "snapshot"
// for "ws:demo:snapshot:main".
func keyType(key string) string {
	for _, part := range strings.Split(key, ":") {
		switch part {
		case snapshotPrefix, artifactPrefix:
			return part
		}
	}
	kind, _, _ := strings.Cut(key, ":")
	return kind
}

var _ Store = (*Instrumented)(nil)
