package export

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

// Runner renders exports, caching rendered formats in a store.
//
// The Runner is stateless except for the store and logger. Multiple
// goroutines can safely use the same Runner as long as each passes its own
// document.
type Runner struct {
	Store  store.Store
	Keyer  store.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given store and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If st is nil, a NullStore is used (caching disabled).
func NewRunner(st store.Store, keyer store.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = store.NewDefaultKeyer()
	}
	if st == nil {
		st = store.NewNullStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Store: st, Keyer: keyer, Logger: logger}
}

// Execute renders every requested format of doc.
func (r *Runner) Execute(ctx context.Context, doc *model.Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	hash, err := DocumentHash(doc)
	if err != nil {
		return nil, err
	}
	stats := doc.Stats()
	res := &Result{
		DocHash:   hash,
		Artifacts: make(map[string][]byte, len(opts.Formats)),
		CacheHits: make(map[string]bool),
		Stats:     Stats{Nodes: stats.Nodes, Connections: stats.Connections, Groups: stats.Groups},
	}

	start := time.Now()
	for _, format := range opts.Formats {
		if _, done := res.Artifacts[format]; done {
			continue
		}
		data, hit, err := r.render(ctx, doc, hash, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		res.Artifacts[format] = data
		if hit {
			res.CacheHits[format] = true
		}
	}
	res.Stats.RenderTime = time.Since(start)

	r.Logger.Info("exported",
		"formats", opts.Formats,
		"cached", len(res.CacheHits),
		"duration", res.Stats.RenderTime)
	return res, nil
}

func (r *Runner) render(ctx context.Context, doc *model.Document, hash, format string, opts Options) ([]byte, bool, error) {
	if !Cacheable(format) {
		data, err := Render(ctx, doc, format, opts)
		return data, false, err
	}

	key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
	if !opts.Refresh {
		if data, hit, err := r.Store.Get(ctx, key); err == nil && hit {
			return data, true, nil
		} else if err != nil {
			r.Logger.Warn("artifact lookup failed", "format", format, "err", err)
		}
	}

	data, err := Render(ctx, doc, format, opts)
	if err != nil {
		return nil, false, err
	}
	if err := r.Store.Set(ctx, key, data, TTLArtifact); err != nil {
		r.Logger.Warn("artifact not cached", "format", format, "err", err)
	}
	return data, false, nil
}

// DocumentHash returns the content hash of doc, independent of any export
// timestamp.
func DocumentHash(doc *model.Document) (string, error) {
	data, err := codec.Marshal(doc, codec.Record)
	if err != nil {
		return "", err
	}
	return store.Hash(data), nil
}

// Close releases the runner's store.
func (r *Runner) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}
