package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level log
// records. The CLI installs it when run with --verbose.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to logger, or to log.Default() when
// logger is nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{Logger: logger.WithPrefix("hooks")}
}

// Install registers h for every hook category.
func (h *LogHooks) Install() {
	SetEditorHooks(h)
	SetPersistenceHooks(h)
	SetStoreHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnSelectionChange(kind, id string) {
	h.Logger.Debug("selection", "kind", kind, "id", id)
}

func (h *LogHooks) OnMutation(op, kind, id string) {
	h.Logger.Debug("mutation", "op", op, "kind", kind, "id", id)
}

func (h *LogHooks) OnLoad(_ context.Context, source string, entities int, d time.Duration, err error) {
	h.Logger.Debug("load", "source", source, "entities", entities, "duration", d, "err", err)
}

func (h *LogHooks) OnImport(_ context.Context, dialect string, entities int, err error) {
	h.Logger.Debug("import", "dialect", dialect, "entities", entities, "err", err)
}

func (h *LogHooks) OnSnapshot(_ context.Context, key string, size int, skipped bool, err error) {
	h.Logger.Debug("snapshot", "key", key, "bytes", size, "skipped", skipped, "err", err)
}

func (h *LogHooks) OnStoreHit(_ context.Context, keyType string) {
	h.Logger.Debug("store hit", "type", keyType)
}

func (h *LogHooks) OnStoreMiss(_ context.Context, keyType string) {
	h.Logger.Debug("store miss", "type", keyType)
}

func (h *LogHooks) OnStoreSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("store set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ EditorHooks      = (*LogHooks)(nil)
	_ PersistenceHooks = (*LogHooks)(nil)
	_ StoreHooks       = (*LogHooks)(nil)
	_ HTTPHooks        = (*LogHooks)(nil)
)
