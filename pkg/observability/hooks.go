// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about editing, persistence, store access and
// HTTP calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEditorHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Persistence().OnLoad(ctx, "http", stats, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Editor Hooks
// =============================================================================

// EditorHooks receives events from the interactive editor. Editor calls
// happen on the event loop and carry no context.
type EditorHooks interface {
	// OnSelectionChange records a selection change. kind and id are empty
	// when the selection was cleared.
	OnSelectionChange(kind, id string)

	// OnMutation records a document change made through the editor, e.g.
	// op "add", "delete", "move", "resize", "relabel".
	OnMutation(op, kind, id string)
}

// =============================================================================
// Persistence Hooks
// =============================================================================

// PersistenceHooks receives events from loading, importing and
// snapshotting documents.
type PersistenceHooks interface {
	// OnLoad records an initial load from source ("http", "dir", "file").
	OnLoad(ctx context.Context, source string, entities int, duration time.Duration, err error)

	// OnImport records a wholesale document replacement.
	OnImport(ctx context.Context, dialect string, entities int, err error)

	// OnSnapshot records a snapshot write. skipped is true when the
	// content had not changed since the previous snapshot.
	OnSnapshot(ctx context.Context, key string, size int, skipped bool, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from keyed store operations.
type StoreHooks interface {
	// OnStoreHit records a read that found a value.
	OnStoreHit(ctx context.Context, keyType string)

	// OnStoreMiss records a read that found nothing.
	OnStoreMiss(ctx context.Context, keyType string)

	// OnStoreSet records a write.
	OnStoreSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEditorHooks is a no-op implementation of EditorHooks.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnSelectionChange(string, string)  {}
func (NoopEditorHooks) OnMutation(string, string, string) {}

// NoopPersistenceHooks is a no-op implementation of PersistenceHooks.
type NoopPersistenceHooks struct{}

func (NoopPersistenceHooks) OnLoad(context.Context, string, int, time.Duration, error) {}
func (NoopPersistenceHooks) OnImport(context.Context, string, int, error)             {}
func (NoopPersistenceHooks) OnSnapshot(context.Context, string, int, bool, error)     {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnStoreHit(context.Context, string)      {}
func (NoopStoreHooks) OnStoreMiss(context.Context, string)     {}
func (NoopStoreHooks) OnStoreSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	editorHooks      EditorHooks      = NoopEditorHooks{}
	persistenceHooks PersistenceHooks = NoopPersistenceHooks{}
	storeHooks       StoreHooks       = NoopStoreHooks{}
	httpHooks        HTTPHooks        = NoopHTTPHooks{}
	hooksMu          sync.RWMutex
)

// SetEditorHooks registers custom editor hooks.
func SetEditorHooks(h EditorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		editorHooks = h
	}
}

// SetPersistenceHooks registers custom persistence hooks.
func SetPersistenceHooks(h PersistenceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		persistenceHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Editor returns the registered editor hooks.
func Editor() EditorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return editorHooks
}

// Persistence returns the registered persistence hooks.
func Persistence() PersistenceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return persistenceHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	editorHooks = NoopEditorHooks{}
	persistenceHooks = NoopPersistenceHooks{}
	storeHooks = NoopStoreHooks{}
	httpHooks = NoopHTTPHooks{}
}
