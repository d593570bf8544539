// Package session owns one editing session of a diagram.
//
// A [Session] is the composition root of the editor core: it holds the
// document and wires the scene synchronizer, the selection editor, the
// inspector binding, the text editor and the snapshotter to it. Every
// component receives the session's pieces at construction; there is no
// package-level state.
//
// # Threading
//
// A session is driven by a single event loop. The snapshot timer and the
// file watcher run on their own goroutines but only signal on channels;
// the loop performs the actual work:
//
//	for {
//	    select {
//	    case <-sess.Snapshots().Due():
//	        sess.Snapshots().Save(ctx, sess.Document())
//	    case path := <-watcher.Changes():
//	        sess.ReloadFile(ctx, path)
//	    }
//	}
//
// # Import and refresh
//
// [Session.Import] replaces the document wholesale and leaves the scene
// alone; [Session.Refresh] rebuilds the scene and the text pane from the
// document. [Session.ResetTo] does both.
package session

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkingspace/pkg/buildinfo"
	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/editor"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/inspector"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/observability"
	"github.com/matzehuels/thinkingspace/pkg/scene"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

// Options configures a Session. Zero values are usable: no picker, a
// [editor.TransformGizmo], no inspector panel and snapshots disabled.
type Options struct {
	Editor editor.Options
	Picker scene.Picker
	Gizmo  editor.Gizmo
	Panel  inspector.Panel

	// Store holds snapshots. A nil store disables them.
	Store     store.Store
	Keyer     store.Keyer
	Workspace string

	SnapshotInterval time.Duration
	SnapshotTTL      time.Duration
}

// Session is one open document with its scene and editors.
type Session struct {
	doc     *model.Document
	initial *model.Document
	sync    *scene.Sync
	editor  *editor.Editor
	binding *inspector.Binding
	text    *TextEditor
	snaps   *Snapshotter
	logger  *log.Logger
}

// New builds a session around doc, which must already be loaded, and
// renders it into r. doc is kept as the defaults restored by
// [Session.ResetToDefaults].
func New(doc *model.Document, r scene.Renderer, opts Options, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	if doc == nil {
		doc = model.New()
	}
	s := &Session{
		doc:     doc,
		initial: doc.Clone(),
		sync:    scene.NewSync(r, logger.WithPrefix("scene")),
		logger:  logger,
	}
	s.editor = editor.New(doc, s.sync, opts.Picker, opts.Gizmo, opts.Editor, logger.WithPrefix("editor"))
	if opts.Panel != nil {
		s.binding = inspector.Bind(s.editor, opts.Panel, logger.WithPrefix("inspector"))
	}
	s.text = newTextEditor(s)

	keyer := opts.Keyer
	if keyer == nil {
		keyer = store.NewDefaultKeyer()
	}
	st := opts.Store
	if st == nil {
		st = store.NewNullStore()
	}
	s.snaps = NewSnapshotter(st, keyer.SnapshotKey(opts.Workspace), opts.SnapshotInterval, opts.SnapshotTTL, logger.WithPrefix("snapshot"))

	s.Refresh()
	return s
}

// Document returns the live document. It is mutated in place by imports.
func (s *Session) Document() *model.Document { return s.doc }

// Editor returns the selection and manipulation editor.
func (s *Session) Editor() *editor.Editor { return s.editor }

// Scene returns the scene synchronizer.
func (s *Session) Scene() *scene.Sync { return s.sync }

// Inspector returns the inspector binding, or nil without a panel.
func (s *Session) Inspector() *inspector.Binding { return s.binding }

// Text returns the text pane editor.
func (s *Session) Text() *TextEditor { return s.text }

// Snapshots returns the snapshotter.
func (s *Session) Snapshots() *Snapshotter { return s.snaps }

// Refresh drops the selection, rebuilds the scene from the document and
// regenerates the text pane, discarding unapplied text edits.
func (s *Session) Refresh() {
	s.editor.Reset()
	s.sync.Render(s.doc)
	if s.binding != nil {
		s.binding.Refresh()
	}
	s.text.Refresh()
	s.logger.Debug("refreshed", "entities", s.doc.Len())
}

// Import parses data in dialect d and replaces the document with it. The
// import is all or nothing: on error the document is unchanged. The scene
// is not refreshed; call [Session.Refresh] afterwards.
func (s *Session) Import(ctx context.Context, data []byte, d codec.Dialect) error {
	doc, err := codec.Unmarshal(data, d)
	n := 0
	if doc != nil {
		n = doc.Len()
	}
	observability.Persistence().OnImport(ctx, string(d), n, err)
	if err != nil {
		s.logger.Warn("import rejected", "dialect", d, "err", err)
		return err
	}
	s.editor.Reset()
	s.doc.Replace(doc)
	s.logger.Info("imported", "dialect", d, "nodes", len(doc.Nodes), "connections", len(doc.Connections), "groups", len(doc.Groups))
	return nil
}

// ImportFile imports the document at path, choosing the dialect by
// extension.
func (s *Session) ImportFile(ctx context.Context, path string) error {
	d, err := codec.DialectFromPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", filepath.Base(path))
	}
	return s.Import(ctx, data, d)
}

// ReloadFile imports path and refreshes the scene.
func (s *Session) ReloadFile(ctx context.Context, path string) error {
	if err := s.ImportFile(ctx, path); err != nil {
		return err
	}
	s.Refresh()
	return nil
}

// Export serializes the document in dialect d with a provenance header.
func (s *Session) Export(d codec.Dialect) ([]byte, error) {
	return codec.MarshalExport(s.doc, d, codec.Metadata{
		Exported: time.Now(),
		Version:  buildinfo.Version,
	})
}

// ExportFile writes the document to path, choosing the dialect by
// extension.
func (s *Session) ExportFile(path string) error {
	d, err := codec.DialectFromPath(path)
	if err != nil {
		return err
	}
	data, err := s.Export(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", filepath.Base(path))
	}
	s.logger.Info("exported", "path", path, "bytes", len(data))
	return nil
}

// ResetTo replaces the document with a copy of doc and refreshes.
func (s *Session) ResetTo(doc *model.Document) {
	s.editor.Reset()
	s.doc.Replace(doc)
	s.Refresh()
}

// ResetToDefaults restores the document the session was created with.
func (s *Session) ResetToDefaults() {
	s.ResetTo(s.initial)
}

// Restore replaces the document with the latest snapshot. It reports false
// when no snapshot exists.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	snap, ok, err := s.snaps.Latest(ctx)
	if err != nil || !ok {
		return false, err
	}
	s.ResetTo(snap.Document)
	s.logger.Info("restored snapshot", "saved", snap.SavedAt.Format(time.DateTime))
	return true, nil
}

// Close stops the snapshot timer and detaches the inspector.
func (s *Session) Close() {
	s.snaps.Stop()
	if s.binding != nil {
		s.binding.Close()
	}
}
