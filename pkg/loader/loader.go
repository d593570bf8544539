// Package loader performs the initial load of a diagram from three section
// documents: nodes.yaml, connections.yaml and groups.yaml.
//
// The sections are fetched in parallel from a [Source], either over HTTP
// ([HTTPSource]) or from a directory ([DirSource]). Loading is all or
// nothing: if any section cannot be fetched or decoded, [Loader.Load]
// returns an empty document together with a FETCH_ERROR so the editor can
// still start.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/httputil"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/observability"
)

// Source fetches the raw text of one section document.
type Source interface {
	Fetch(ctx context.Context, s codec.Section) ([]byte, error)
	// Name identifies the source kind in logs and hooks, e.g. "http".
	Name() string
}

// HTTPSource fetches <BaseURL>/<section>.yaml.
type HTTPSource struct {
	BaseURL string
	Client  *httputil.Client
}

// NewHTTPSource returns a source reading from baseURL with client. A nil
// client retries three times starting at one second.
func NewHTTPSource(baseURL string, client *httputil.Client) *HTTPSource {
	if client == nil {
		client = httputil.NewClient(nil, 3, time.Second)
	}
	return &HTTPSource{BaseURL: strings.TrimSuffix(baseURL, "/"), Client: client}
}

func (h *HTTPSource) Fetch(ctx context.Context, s codec.Section) ([]byte, error) {
	return h.Client.Get(ctx, h.BaseURL+"/"+s.Filename(codec.Block))
}

func (h *HTTPSource) Name() string { return "http" }

// DirSource reads <Dir>/<section>.yaml.
type DirSource struct {
	Dir string
}

func (d DirSource) Fetch(ctx context.Context, s codec.Section) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.Dir, s.Filename(codec.Block)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read section %s", s)
	}
	return data, nil
}

func (d DirSource) Name() string { return "dir" }

// Loader assembles a document from a Source.
type Loader struct {
	src    Source
	logger *log.Logger
}

// New creates a loader over src. A nil logger uses log.Default().
func New(src Source, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{src: src, logger: logger}
}

// Load fetches all three sections concurrently and decodes them in the
// order nodes, connections, groups. On any failure it returns an empty
// document and an error with code FETCH_ERROR.
func (l *Loader) Load(ctx context.Context) (*model.Document, error) {
	start := time.Now()
	doc, err := l.load(ctx)
	observability.Persistence().OnLoad(ctx, l.src.Name(), doc.Len(), time.Since(start), err)
	if err != nil {
		l.logger.Error("initial load failed, starting with an empty document", "source", l.src.Name(), "err", err)
		return doc, err
	}
	l.logger.Debug("loaded", "source", l.src.Name(), "entities", doc.Len(), "duration", time.Since(start).Round(time.Millisecond))
	return doc, nil
}

func (l *Loader) load(ctx context.Context) (*model.Document, error) {
	raw := make([][]byte, len(codec.Sections))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range codec.Sections {
		g.Go(func() error {
			data, err := l.src.Fetch(gctx, s)
			if err != nil {
				return err
			}
			raw[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.New(), errors.Wrap(errors.ErrCodeFetch, err, "fetch %s sections", l.src.Name())
	}

	doc := model.New()
	for i, s := range codec.Sections {
		if err := codec.UnmarshalSection(raw[i], codec.Block, s, doc); err != nil {
			return model.New(), errors.Wrap(errors.ErrCodeFetch, err, "decode %s", s.Filename(codec.Block))
		}
	}
	return doc, nil
}

// ReadFile imports a whole document from path, choosing the dialect by
// extension.
func ReadFile(ctx context.Context, path string) (*model.Document, error) {
	start := time.Now()
	doc, err := codec.ReadFile(path)
	n := 0
	if doc != nil {
		n = doc.Len()
	}
	observability.Persistence().OnLoad(ctx, "file", n, time.Since(start), err)
	return doc, err
}
