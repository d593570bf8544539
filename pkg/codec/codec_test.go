package codec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
)

func fixture() *model.Document {
	d := model.New()
	_ = d.AddNode(model.Node{ID: "api", Label: "API Gateway", Position: model.Vec3{0, 1.5, -2}, Size: model.Vec3{2, 1, 1}, Color: "#3498db", Group: "backend"})
	_ = d.AddNode(model.Node{ID: "db", Label: `Main "DB"`, Position: model.Vec3{4.25, 0, 0.1}, Size: model.Vec3{0.5, 3, 1e-3}, Color: "#e74c3c", Group: model.NoGroup})
	_ = d.AddNode(model.Node{ID: "q", Label: "", Position: model.Vec3{-7, -0.333, 12}, Size: model.Vec3{1, 1, 1}, Color: "#fff", Group: model.NoGroup})
	_ = d.AddConnection(model.Connection{ID: "c1", From: "api", To: "db", Label: "queries\nreads", Color: "#2ecc71"})
	_ = d.AddConnection(model.Connection{ID: "c2", From: "db", To: "gone", Label: "", Color: "#000000"})
	_ = d.AddGroup(model.Group{ID: "backend", Label: "Backend: core", Bounds: model.Bounds{Min: model.Vec3{-4, -2, -2}, Max: model.Vec3{4, 2, 2}}, Color: "#f39c12", Wireframe: true})
	_ = d.AddGroup(model.Group{ID: "edge", Label: "yes", Bounds: model.Bounds{Min: model.Vec3{0, 0, 0}, Max: model.Vec3{0, 0, 0}}, Color: "#9b59b6", Wireframe: false})
	return d
}

func TestRoundTrip(t *testing.T) {
	docs := map[string]*model.Document{
		"fixture": fixture(),
		"empty":   model.New(),
	}
	for _, d := range Dialects {
		for name, doc := range docs {
			t.Run(string(d)+"/"+name, func(t *testing.T) {
				data, err := Marshal(doc, d)
				if err != nil {
					t.Fatalf("Marshal: %v", err)
				}
				got, err := Unmarshal(data, d)
				if err != nil {
					t.Fatalf("Unmarshal: %v\n%s", err, data)
				}
				if !got.Equal(doc) {
					t.Errorf("round trip mismatch\nwant %+v\ngot  %+v\n%s", doc, got, data)
				}

				again, err := Marshal(got, d)
				if err != nil {
					t.Fatalf("Marshal again: %v", err)
				}
				if string(again) != string(data) {
					t.Error("Marshal is not deterministic")
				}
			})
		}
	}
}

func TestBlockLayout(t *testing.T) {
	data, err := Marshal(fixture(), Block)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		"# " + Title,
		"# System Nodes",
		"# System Connections",
		"# Logical Groups",
		"position: [0, 1.5, -2]",
		`id: "api"`,
		"wireframe: false",
		"min: [-4, -2, -2]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("block output missing %q\n%s", want, out)
		}
	}
	if strings.Index(out, "nodes:") > strings.Index(out, "connections:") ||
		strings.Index(out, "connections:") > strings.Index(out, "groups:") {
		t.Error("sections out of order")
	}
}

func TestUnmarshalDefaults(t *testing.T) {
	inputs := map[Dialect]string{
		Block: `
nodes:
  - id: a
  - id: b
    group: ""
connections:
  - id: c
    from: a
    to: b
groups:
  - id: g
  - id: h
    bounds:
      max: [5, 5, 5]
`,
		Record: `{
  "nodes": [{"id": "a"}, {"id": "b", "group": ""}],
  "connections": [{"id": "c", "from": "a", "to": "b"}],
  "groups": [{"id": "g"}, {"id": "h", "bounds": {"max": [5, 5, 5]}}]
}`,
	}
	for d, in := range inputs {
		t.Run(string(d), func(t *testing.T) {
			doc, err := Unmarshal([]byte(in), d)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			a := doc.Nodes[0]
			if a.Label != "a" || a.Position != (model.Vec3{}) || a.Size != model.DefaultNodeSize ||
				a.Color != model.DefaultNodeColor || a.Group != model.NoGroup {
				t.Errorf("node defaults wrong: %+v", a)
			}
			if doc.Nodes[1].Group != model.NoGroup {
				t.Errorf("empty group = %q, want %q", doc.Nodes[1].Group, model.NoGroup)
			}
			c := doc.Connections[0]
			if c.Label != "" || c.Color != model.DefaultConnectionColor {
				t.Errorf("connection defaults wrong: %+v", c)
			}
			g := doc.Groups[0]
			if g.Label != "g" || g.Bounds != model.DefaultGroupBounds || g.Color != model.DefaultGroupColor || !g.Wireframe {
				t.Errorf("group defaults wrong: %+v", g)
			}
			h := doc.Groups[1]
			if h.Bounds.Min != model.DefaultGroupBounds.Min || h.Bounds.Max != (model.Vec3{5, 5, 5}) {
				t.Errorf("partial bounds = %+v", h.Bounds)
			}
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		input   string
		code    errors.Code
	}{
		{"yaml malformed", Block, "nodes: [\n  - id: a\n", errors.ErrCodeParse},
		{"yaml tab indent", Block, "nodes:\n\t- id: a", errors.ErrCodeParse},
		{"yaml missing groups", Block, "nodes: []\nconnections: []\n", errors.ErrCodeSchema},
		{"yaml empty", Block, "", errors.ErrCodeSchema},
		{"yaml scalar top", Block, "hello", errors.ErrCodeSchema},
		{"yaml short position", Block, "nodes:\n  - id: a\n    position: [1, 2]\nconnections: []\ngroups: []\n", errors.ErrCodeSchema},
		{"yaml position not list", Block, "nodes:\n  - id: a\n    position: up\nconnections: []\ngroups: []\n", errors.ErrCodeSchema},
		{"yaml missing id", Block, "nodes:\n  - label: x\nconnections: []\ngroups: []\n", errors.ErrCodeSchema},
		{"yaml duplicate id", Block, "nodes:\n  - id: a\n  - id: a\nconnections: []\ngroups: []\n", errors.ErrCodeSchema},
		{"yaml zero size", Block, "nodes:\n  - id: a\n    size: [1, 0, 1]\nconnections: []\ngroups: []\n", errors.ErrCodeSchema},
		{"yaml inverted bounds", Block, "nodes: []\nconnections: []\ngroups:\n  - id: g\n    bounds: {min: [1, 1, 1], max: [0, 2, 2]}\n", errors.ErrCodeSchema},
		{"yaml connection without to", Block, "nodes: []\nconnections:\n  - id: c\n    from: a\ngroups: []\n", errors.ErrCodeSchema},
		{"json malformed", Record, `{"nodes": [`, errors.ErrCodeParse},
		{"json empty", Record, ``, errors.ErrCodeParse},
		{"json array top", Record, `[]`, errors.ErrCodeSchema},
		{"json missing connections", Record, `{"nodes": [], "groups": []}`, errors.ErrCodeSchema},
		{"json section object", Record, `{"nodes": {}, "connections": [], "groups": []}`, errors.ErrCodeSchema},
		{"json string size", Record, `{"nodes": [{"id": "a", "size": "big"}], "connections": [], "groups": []}`, errors.ErrCodeSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Unmarshal([]byte(tt.input), tt.dialect)
			if err == nil {
				t.Fatalf("Unmarshal succeeded: %+v", doc)
			}
			if doc != nil {
				t.Error("a document was returned alongside an error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestNullSectionIsEmpty(t *testing.T) {
	doc, err := Unmarshal([]byte("nodes:\nconnections:\ngroups:\n"), Block)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc.Len() != 0 {
		t.Errorf("Len = %d, want 0", doc.Len())
	}
}

func TestUnknownFieldsDropped(t *testing.T) {
	in := `{"nodes": [{"id": "a", "owner": "ops"}], "connections": [], "groups": [], "extra": 1}`
	doc, err := Unmarshal([]byte(in), Record)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	out, _ := Marshal(doc, Record)
	if strings.Contains(string(out), "owner") || strings.Contains(string(out), "extra") {
		t.Errorf("unknown fields survived:\n%s", out)
	}
}

func TestMarshalExport(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	meta := Metadata{Exported: at, Version: "2.1.0", Tool: "ThinkingSpace"}

	t.Run("record", func(t *testing.T) {
		data, err := MarshalExport(fixture(), Record, meta)
		if err != nil {
			t.Fatal(err)
		}
		var top struct {
			Metadata map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(data, &top); err != nil {
			t.Fatal(err)
		}
		want := map[string]string{"exported": "2026-03-01T12:00:00Z", "version": "2.1.0", "tool": "ThinkingSpace"}
		for k, v := range want {
			if top.Metadata[k] != v {
				t.Errorf("metadata[%s] = %q, want %q", k, top.Metadata[k], v)
			}
		}
		if !strings.HasPrefix(strings.TrimSpace(string(data)), "{\n  \"metadata\"") {
			t.Error("metadata is not the first key")
		}
		doc, err := Unmarshal(data, Record)
		if err != nil {
			t.Fatalf("re-import: %v", err)
		}
		if !doc.Equal(fixture()) {
			t.Error("export did not re-import to the same document")
		}
	})

	t.Run("block", func(t *testing.T) {
		data, err := MarshalExport(fixture(), Block, meta)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "Generated: 2026-03-01T12:00:00Z") {
			t.Errorf("missing generated header:\n%s", data)
		}
		doc, err := Unmarshal(data, Block)
		if err != nil {
			t.Fatalf("re-import: %v", err)
		}
		if !doc.Equal(fixture()) {
			t.Error("export did not re-import to the same document")
		}
	})
}

func TestUnmarshalSection(t *testing.T) {
	full := fixture()
	doc := model.New()
	for _, s := range Sections {
		for _, d := range []Dialect{Block} {
			data, err := MarshalSection(full, d, s)
			if err != nil {
				t.Fatalf("MarshalSection(%s): %v", s, err)
			}
			if err := UnmarshalSection(data, d, s, doc); err != nil {
				t.Fatalf("UnmarshalSection(%s): %v", s, err)
			}
		}
	}
	if !doc.Equal(full) {
		t.Errorf("sections did not reassemble the document")
	}

	// A missing key is an empty section; a parse failure leaves doc untouched.
	if err := UnmarshalSection([]byte("other: 1\n"), Block, SectionGroups, doc); err != nil {
		t.Errorf("missing key: %v", err)
	}
	before := doc.Clone()
	err := UnmarshalSection([]byte("nodes:\n  - id: new\n  - id: api\n"), Block, SectionNodes, doc)
	if !errors.Is(err, errors.ErrCodeSchema) {
		t.Errorf("duplicate across sections: %v", err)
	}
	if !doc.Equal(before) {
		t.Error("failed UnmarshalSection modified the document")
	}
}

func TestMarshalSectionRecord(t *testing.T) {
	data, err := MarshalSection(fixture(), Record, SectionGroups)
	if err != nil {
		t.Fatal(err)
	}
	doc := model.New()
	if err := UnmarshalSection(data, Record, SectionGroups, doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Groups) != 2 || len(doc.Nodes) != 0 {
		t.Errorf("stats = %+v", doc.Stats())
	}
}

func TestDialectFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Dialect
		wantErr bool
	}{
		{"system.yaml", Block, false},
		{"dir/system.YML", Block, false},
		{"export.json", Record, false},
		{"notes.txt", "", true},
		{"README", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DialectFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]byte("nodes: []\n"), Block); err != nil {
		t.Errorf("well-formed but incomplete: %v", err)
	}
	if err := Validate([]byte("nodes: [\n"), Block); !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("malformed: %v", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"system.yaml", "system.json"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, fixture(), Metadata{}); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
		doc, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", name, err)
		}
		if !doc.Equal(fixture()) {
			t.Errorf("%s: mismatch", name)
		}
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("nodes: []\nconnections: []\n"), 0o644)
	if _, err := ReadFile(bad); !errors.Is(err, errors.ErrCodeSchema) {
		t.Errorf("ReadFile(bad) = %v, want SCHEMA_ERROR", err)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := map[float64]string{
		0:     "0",
		2:     "2",
		-0.5:  "-0.5",
		1e21:  "1e+21",
		0.001: "0.001",
	}
	for in, want := range tests {
		if got := formatFloat(in); got != want {
			t.Errorf("formatFloat(%v) = %q, want %q", in, got, want)
		}
	}
}
