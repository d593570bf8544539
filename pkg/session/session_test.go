package session

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/inspector"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/scene"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

func sample(t *testing.T) *model.Document {
	t.Helper()
	d := model.New()
	for _, err := range []error{
		d.AddNode(model.Node{ID: "api", Label: "API", Position: model.Vec3{0, 0, 0}, Size: model.Vec3{2, 1, 1}, Color: "#3498db", Group: model.NoGroup}),
		d.AddNode(model.Node{ID: "db", Label: "DB", Position: model.Vec3{6, 0, 0}, Size: model.Vec3{2, 1, 1}, Color: "#3498db", Group: model.NoGroup}),
		d.AddConnection(model.Connection{ID: "api-db", From: "api", To: "db", Label: "query", Color: "#2ecc71"}),
		d.AddGroup(model.Group{ID: "backend", Label: "Backend", Bounds: model.DefaultGroupBounds, Color: "#f39c12", Wireframe: true}),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func newSession(t *testing.T, opts Options) (*Session, *scene.MemoryRenderer) {
	t.Helper()
	r := scene.NewMemoryRenderer()
	opts.Picker = r
	s := New(sample(t), r, opts, log.New(io.Discard))
	t.Cleanup(s.Close)
	return s, r
}

const oneNode = `nodes:
  - id: solo
    label: Solo
connections: []
groups: []
`

func TestNewRendersDocument(t *testing.T) {
	s, _ := newSession(t, Options{})
	if got, want := s.Scene().Len(), s.Document().Len(); got != want {
		t.Errorf("scene has %d entries, want %d", got, want)
	}
	if !strings.Contains(s.Text().Text(), `id: "api-db"`) {
		t.Errorf("text pane not generated:\n%s", s.Text().Text())
	}
	if s.Text().Dirty() {
		t.Error("fresh text pane is dirty")
	}
}

func TestImport(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"valid", oneNode, ""},
		{"malformed", "nodes: [", errors.ErrCodeParse},
		{"missing groups", "nodes: []\nconnections: []\n", errors.ErrCodeSchema},
		{"not a mapping", "- a\n- b\n", errors.ErrCodeSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession(t, Options{})
			before := s.Document().Clone()
			drawn := s.Scene().Len()

			err := s.Import(context.Background(), []byte(tt.data), codec.Block)
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Fatalf("err = %v, want %s", err, tt.code)
				}
				if !s.Document().Equal(before) {
					t.Error("failed import changed the document")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(s.Document().Nodes) != 1 || s.Document().Nodes[0].ID != "solo" {
				t.Fatalf("document = %+v", s.Document())
			}
			if s.Scene().Len() != drawn {
				t.Error("import refreshed the scene on its own")
			}
			s.Refresh()
			if s.Scene().Len() != 1 {
				t.Errorf("scene has %d entries after refresh, want 1", s.Scene().Len())
			}
		})
	}
}

func TestImportDropsSelection(t *testing.T) {
	s, _ := newSession(t, Options{})
	s.Editor().Select(model.NodeRef("api"))
	if err := s.Import(context.Background(), []byte(oneNode), codec.Block); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Editor().Selection(); ok {
		t.Error("selection survived the import")
	}
}

func TestTextApply(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, Options{})

	t.Run("missing groups is rejected", func(t *testing.T) {
		before := s.Document().Clone()
		s.Text().SetText("nodes:\n  - id: x\nconnections: []\n")
		if !s.Text().Dirty() {
			t.Error("edited pane not dirty")
		}
		if err := s.Text().Validate(); !errors.Is(err, errors.ErrCodeSchema) {
			t.Errorf("Validate = %v", err)
		}
		if err := s.Text().Apply(ctx); !errors.Is(err, errors.ErrCodeSchema) {
			t.Fatalf("Apply = %v, want SCHEMA_ERROR", err)
		}
		if !s.Document().Equal(before) {
			t.Error("rejected apply changed the document")
		}
	})

	t.Run("parse error is rejected", func(t *testing.T) {
		s.Text().SetText("nodes: [\n")
		if err := s.Text().Apply(ctx); !errors.Is(err, errors.ErrCodeParse) {
			t.Fatalf("Apply = %v, want PARSE_ERROR", err)
		}
	})

	t.Run("refresh discards edits", func(t *testing.T) {
		s.Text().Refresh()
		if s.Text().Dirty() || !strings.Contains(s.Text().Text(), `id: "api"`) {
			t.Errorf("pane not regenerated:\n%s", s.Text().Text())
		}
	})

	t.Run("valid text replaces the document", func(t *testing.T) {
		edited := strings.Replace(s.Text().Text(), `label: "API"`, `label: "Gateway"`, 1)
		s.Text().SetText(edited)
		if err := s.Text().Apply(ctx); err != nil {
			t.Fatal(err)
		}
		n, _ := s.Document().Node("api")
		if n.Label != "Gateway" {
			t.Errorf("label = %q", n.Label)
		}
		if s.Text().Dirty() {
			t.Error("pane dirty after apply")
		}
		if s.Scene().Len() != s.Document().Len() {
			t.Error("scene not rebuilt after apply")
		}
	})
}

func TestExportImportFile(t *testing.T) {
	ctx := context.Background()
	for _, ext := range []string{".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			s, _ := newSession(t, Options{})
			want := s.Document().Clone()
			path := filepath.Join(t.TempDir(), "diagram"+ext)
			if err := s.ExportFile(path); err != nil {
				t.Fatal(err)
			}
			data, _ := os.ReadFile(path)
			if !strings.Contains(string(data), codec.DefaultTool) {
				t.Errorf("export lacks metadata header:\n%s", data)
			}

			s.ResetTo(model.New())
			if err := s.ReloadFile(ctx, path); err != nil {
				t.Fatal(err)
			}
			if !s.Document().Equal(want) {
				t.Errorf("round trip changed the document:\n%+v\n%+v", s.Document(), want)
			}
			if s.Scene().Len() != want.Len() {
				t.Error("reload did not refresh the scene")
			}
		})
	}
}

func TestImportFileErrors(t *testing.T) {
	s, _ := newSession(t, Options{})
	dir := t.TempDir()
	if err := s.ImportFile(context.Background(), filepath.Join(dir, "diagram.txt")); !errors.Is(err, errors.ErrCodeInvalidDialect) {
		t.Errorf("unknown extension: %v", err)
	}
	if err := s.ImportFile(context.Background(), filepath.Join(dir, "missing.yaml")); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("missing file: %v", err)
	}
}

func TestResetToDefaults(t *testing.T) {
	s, r := newSession(t, Options{})
	want := s.Document().Clone()
	if _, err := s.Editor().AddNode(); err != nil {
		t.Fatal(err)
	}
	s.ResetToDefaults()
	if !s.Document().Equal(want) {
		t.Error("defaults not restored")
	}
	if r.Reachable() != r.Live() {
		t.Errorf("leaked resources: %d live, %d reachable", r.Live(), r.Reachable())
	}
}

func TestRestoreSnapshot(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	s, _ := newSession(t, Options{Store: mem, Workspace: "team"})
	want := s.Document().Clone()

	if ok, err := s.Restore(ctx); ok || err != nil {
		t.Fatalf("Restore on empty slot = %v, %v", ok, err)
	}
	if _, err := s.Snapshots().Save(ctx, s.Document()); err != nil {
		t.Fatal(err)
	}
	if s.Snapshots().Key() != "snapshot:team" {
		t.Errorf("key = %q", s.Snapshots().Key())
	}

	s.ResetTo(model.New())
	ok, err := s.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	if !s.Document().Equal(want) {
		t.Error("snapshot not restored")
	}
}

func TestWithPanel(t *testing.T) {
	p := &recordingPanel{}
	s, _ := newSession(t, Options{Panel: p})
	s.Editor().Select(model.NodeRef("db"))
	if p.title != "Node: DB" {
		t.Errorf("panel title = %q", p.title)
	}
	s.Refresh()
	if p.title != "" {
		t.Errorf("panel still shows %q after refresh", p.title)
	}
	if s.Inspector() == nil {
		t.Error("no inspector binding")
	}
}

type recordingPanel struct{ title string }

func (p *recordingPanel) Show(title string, _ []inspector.Field) { p.title = title }
func (p *recordingPanel) Clear()                                { p.title = "" }

func TestFileWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diagram.yaml")
	if err := os.WriteFile(path, []byte(oneNode), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := WatchFile(path, 20*time.Millisecond, log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(oneNode+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-w.Changes():
		if got != w.Path() {
			t.Errorf("change for %q, want %q", got, w.Path())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}
