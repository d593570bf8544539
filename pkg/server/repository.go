package server

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/loader"
	"github.com/matzehuels/thinkingspace/pkg/model"
)

// Repository holds the served document.
type Repository interface {
	// Document returns a copy of the current document.
	Document() *model.Document

	// Section renders one section in the block dialect.
	Section(s codec.Section) ([]byte, error)

	// Replace swaps in doc wholesale.
	Replace(ctx context.Context, doc *model.Document) error
}

// DirRepository serves a document kept as nodes.yaml, connections.yaml and
// groups.yaml in a directory. Replacements are written back to the
// directory. It is safe for concurrent use.
type DirRepository struct {
	dir    string
	logger *log.Logger

	mu  sync.RWMutex
	doc *model.Document
}

// OpenDir loads the section files in dir. A directory without a
// nodes.yaml starts empty; one with unreadable or invalid sections is an
// error.
func OpenDir(ctx context.Context, dir string, logger *log.Logger) (*DirRepository, error) {
	if logger == nil {
		logger = log.Default()
	}
	if dir == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "data dir cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create data dir")
	}
	r := &DirRepository{dir: dir, logger: logger, doc: model.New()}

	first := filepath.Join(dir, codec.SectionNodes.Filename(codec.Block))
	if _, err := os.Stat(first); os.IsNotExist(err) {
		logger.Info("no document in data dir, starting empty", "dir", dir)
		return r, nil
	}
	doc, err := loader.New(loader.DirSource{Dir: dir}, logger).Load(ctx)
	if err != nil {
		return nil, err
	}
	r.doc = doc
	return r, nil
}

// NewMemoryRepository serves doc without persisting it.
func NewMemoryRepository(doc *model.Document) *DirRepository {
	if doc == nil {
		doc = model.New()
	}
	return &DirRepository{doc: doc.Clone(), logger: log.Default()}
}

// Dir returns the backing directory, or "" for a memory repository.
func (r *DirRepository) Dir() string { return r.dir }

func (r *DirRepository) Document() *model.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc.Clone()
}

func (r *DirRepository) Section(s codec.Section) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return codec.MarshalSection(r.doc, codec.Block, s)
}

func (r *DirRepository) Replace(ctx context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dir != "" {
		for _, s := range codec.Sections {
			data, err := codec.MarshalSection(doc, codec.Block, s)
			if err != nil {
				return err
			}
			if err := writeAtomic(filepath.Join(r.dir, s.Filename(codec.Block)), data); err != nil {
				return err
			}
		}
	}
	r.doc = doc.Clone()
	r.logger.Info("document replaced", "entities", doc.Len())
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".section-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", filepath.Base(path))
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", filepath.Base(path))
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", filepath.Base(path))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", filepath.Base(path))
	}
	return nil
}

var _ Repository = (*DirRepository)(nil)
