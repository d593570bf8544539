package dot

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/thinkingspace/pkg/model"
)

func sample(t *testing.T) *model.Document {
	t.Helper()
	d := model.New()
	for _, err := range []error{
		d.AddNode(model.Node{ID: "api", Label: "API", Position: model.Vec3{0, 0, 0}, Size: model.Vec3{2, 1, 1}, Color: "#3498db", Group: model.NoGroup}),
		d.AddNode(model.Node{ID: "db", Label: "DB", Position: model.Vec3{6, 0, 2}, Size: model.Vec3{2, 1, 1}, Color: "#3498db", Group: model.NoGroup}),
		d.AddConnection(model.Connection{ID: "c1", From: "api", To: "db", Label: "query", Color: "#2ecc71"}),
		d.AddConnection(model.Connection{ID: "c2", From: "api", To: "gone", Color: "#2ecc71"}),
		d.AddGroup(model.Group{ID: "g", Label: "Backend", Bounds: model.Bounds{Min: model.Vec3{-2, -2, -2}, Max: model.Vec3{8, 2, 4}}, Color: "#f39c12", Wireframe: true}),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func TestToDOT(t *testing.T) {
	src := ToDOT(sample(t), Options{Scale: 1})
	tests := []struct {
		name, want string
	}{
		{"engine", "layout=neato;"},
		{"node pinned", `"node:db" [label="DB", pos="6,-2!", width=2, height=1`},
		{"node color", `fillcolor="#3498db"`},
		{"group extent", `"group:g" [label="Backend", labelloc=t, pos="3,-1!", width=10, height=6`},
		{"wireframe group", "style=dashed"},
		{"edge", `"node:api" -> "node:db" [color="#2ecc71", label="query"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(src, tt.want) {
				t.Errorf("missing %q in:\n%s", tt.want, src)
			}
		})
	}
	if strings.Contains(src, "gone") {
		t.Error("dangling connection was drawn")
	}
	if strings.Index(src, "group:g") > strings.Index(src, "node:api") {
		t.Error("groups must precede nodes")
	}
}

func TestToDOTSolidGroupAndDefaultScale(t *testing.T) {
	d := model.New()
	if err := d.AddGroup(model.Group{ID: "g", Bounds: model.DefaultGroupBounds, Color: "#ff0000"}); err != nil {
		t.Fatal(err)
	}
	src := ToDOT(d, Options{})
	for _, want := range []string{`fillcolor="#ff000033"`, "width=2, height=2", `label="g"`} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in:\n%s", want, src)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := Render(context.Background(), sample(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)) {
		t.Errorf("root element not normalized:\n%.300s", svg)
	}
	for _, label := range []string{"API", "DB", "Backend", "query"} {
		if !bytes.Contains(svg, []byte(label)) {
			t.Errorf("svg lacks %q", label)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("got %s", got)
	}
	if plain := []byte("<svg/>"); !bytes.Equal(normalizeViewBox(plain), plain) {
		t.Error("svg without viewBox changed")
	}
}
