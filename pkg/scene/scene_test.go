package scene

import (
	"math"
	"testing"

	"github.com/matzehuels/thinkingspace/pkg/model"
)

func testDoc() *model.Document {
	d := model.New()
	_ = d.AddGroup(model.Group{ID: "g", Label: "Grp", Bounds: model.Bounds{Min: model.Vec3{-10, -1, -10}, Max: model.Vec3{10, 1, 10}}, Color: "#f39c12", Wireframe: true})
	_ = d.AddNode(model.Node{ID: "a", Label: "A", Position: model.Vec3{0, 0, 0}, Size: model.Vec3{2, 1, 1}, Color: "#3498db", Group: "g"})
	_ = d.AddNode(model.Node{ID: "b", Label: "B", Position: model.Vec3{6, 0, 0}, Size: model.Vec3{2, 1, 1}, Color: "#3498db", Group: model.NoGroup})
	_ = d.AddConnection(model.Connection{ID: "ab", From: "a", To: "b", Label: "calls", Color: "#2ecc71"})
	_ = d.AddConnection(model.Connection{ID: "ax", From: "a", To: "missing", Color: "#2ecc71"})
	return d
}

func TestArcMidpoint(t *testing.T) {
	tests := []struct {
		start, end model.Vec3
		wantY      float64
	}{
		{model.Vec3{0, 0, 0}, model.Vec3{10, 0, 0}, 3},
		{model.Vec3{10, 0, 0}, model.Vec3{0, 0, 0}, 3},
		{model.Vec3{0, 2, 0}, model.Vec3{0, 4, 5}, 3},
		{model.Vec3{-2, 0, 0}, model.Vec3{2, 0, 0}, 1.2},
	}
	for _, tt := range tests {
		mid := ArcMidpoint(tt.start, tt.end)
		if math.Abs(mid[1]-tt.wantY) > 1e-9 {
			t.Errorf("ArcMidpoint(%v, %v).y = %v, want %v", tt.start, tt.end, mid[1], tt.wantY)
		}
		straight := tt.start.Lerp(tt.end, 0.5)
		lift := mid[1] - straight[1]
		if math.Abs(lift-0.3*math.Abs(tt.end[0]-tt.start[0])) > 1e-9 {
			t.Errorf("lift = %v, want 0.3*|dx|", lift)
		}
	}
}

func TestArc(t *testing.T) {
	start, end := model.Vec3{0, 0, 0}, model.Vec3{10, 0, 0}
	pts := Arc(start, end, 5)
	if len(pts) != MinArcSegments+1 {
		t.Fatalf("len = %d, want %d", len(pts), MinArcSegments+1)
	}
	if pts[0] != start || pts[len(pts)-1] != end {
		t.Errorf("endpoints = %v, %v", pts[0], pts[len(pts)-1])
	}
	// The curve apex sits halfway to the control point.
	apex := pts[MinArcSegments/2]
	if math.Abs(apex[1]-1.5) > 1e-9 || math.Abs(apex[0]-5) > 1e-9 {
		t.Errorf("apex = %v, want (5, 1.5, 0)", apex)
	}
	if got := len(Arc(start, end, 40)); got != 41 {
		t.Errorf("Arc(40) len = %d", got)
	}
}

func TestRenderOrderAndSkip(t *testing.T) {
	r := NewMemoryRenderer()
	s := NewSync(r, nil)
	s.Render(testDoc())

	if s.Len() != 4 {
		t.Fatalf("Len = %d, want 4 (dangling connection skipped)", s.Len())
	}
	if _, ok := s.Entry(model.ConnectionRef("ax")); ok {
		t.Error("dangling connection was drawn")
	}
	if n := len(r.Primitives(LayerGroups)); n != 2 {
		t.Errorf("group layer = %d primitives, want body+label", n)
	}
	if n := len(r.Primitives(LayerNodes)); n != 4 {
		t.Errorf("node layer = %d primitives, want 4", n)
	}
	if n := len(r.Primitives(LayerConnections)); n != 2 {
		t.Errorf("connection layer = %d primitives, want line+label", n)
	}
	if r.Live() != r.Reachable() {
		t.Errorf("live %d != reachable %d", r.Live(), r.Reachable())
	}

	// A second full rebuild must not leak.
	live := r.Live()
	s.Render(testDoc())
	if r.Live() != live {
		t.Errorf("rebuild leaked: live %d -> %d", live, r.Live())
	}
}

func TestLabels(t *testing.T) {
	r := NewMemoryRenderer()
	s := NewSync(r, nil)
	doc := testDoc()
	s.Render(doc)

	node, _ := s.Entry(model.NodeRef("a"))
	if node.Label.Position != (model.Vec3{0, 1, 0}) {
		t.Errorf("node label at %v", node.Label.Position)
	}
	group, _ := s.Entry(model.GroupRef("g"))
	if group.Label.Position != (model.Vec3{0, 1, 0}) || group.Label.Scale[0] != GroupLabelScale {
		t.Errorf("group label at %v scale %v", group.Label.Position, group.Label.Scale)
	}

	conn, _ := s.Entry(model.ConnectionRef("ab"))
	wantY := ArcMidpoint(model.Vec3{0, 0, 0}, model.Vec3{6, 0, 0})[1] + ConnectionLabelOffset
	if math.Abs(conn.Label.Position[1]-wantY) > 1e-9 {
		t.Errorf("connection label y = %v, want %v", conn.Label.Position[1], wantY)
	}
	tex, ok := r.Texture(conn.Label.Material.Texture)
	if !ok || tex.Color != "#2ecc71" || tex.Text != "calls" {
		t.Errorf("connection label texture = %+v", tex)
	}

	// Connections without a label get no sprite.
	doc.Connections[0].Label = ""
	s.Relabel(model.ConnectionRef("ab"), doc)
	conn, _ = s.Entry(model.ConnectionRef("ab"))
	if conn.Label != nil {
		t.Error("unlabeled connection has a label sprite")
	}
}

func TestMoveAndResize(t *testing.T) {
	r := NewMemoryRenderer()
	s := NewSync(r, nil)
	doc := testDoc()
	s.Render(doc)
	live := r.Live()

	n, _ := doc.Node("b")
	n.Position = model.Vec3{6, 0, 4}
	s.MoveNode(*n, doc)

	conn, _ := s.Entry(model.ConnectionRef("ab"))
	g, _ := r.Geometry(conn.Body.Geometry)
	if last := g.Points[len(g.Points)-1]; last != n.Position {
		t.Errorf("arc ends at %v, want %v", last, n.Position)
	}
	lbl, _ := s.Entry(model.NodeRef("b"))
	if lbl.Label.Position != (model.Vec3{6, 1, 4}) {
		t.Errorf("label not moved: %v", lbl.Label.Position)
	}

	n.Size = model.Vec3{4, 2, 2}
	s.ResizeNode(*n)
	body, _ := s.Entry(model.NodeRef("b"))
	bg, _ := r.Geometry(body.Body.Geometry)
	eg, _ := r.Geometry(body.Body.Child(ChildEdges).Geometry)
	if bg.Size != n.Size || eg.Size != n.Size {
		t.Errorf("sizes = %v / %v, want %v", bg.Size, eg.Size, n.Size)
	}
	if r.Live() != live {
		t.Errorf("move/resize leaked: live %d -> %d", live, r.Live())
	}
}

func TestRemoveReleases(t *testing.T) {
	r := NewMemoryRenderer()
	s := NewSync(r, nil)
	doc := testDoc()
	s.Render(doc)

	s.Decorate(model.NodeRef("a"), s.Factory().Outline(ChildSelection, SelectionColor, model.Vec3{2, 1, 1}))
	for _, ref := range s.Refs() {
		s.Remove(ref)
	}
	if r.Live() != 0 {
		t.Errorf("Live = %d after removing everything", r.Live())
	}
	for _, l := range Layers {
		if n := len(r.Primitives(l)); n != 0 {
			t.Errorf("layer %s still has %d primitives", l, n)
		}
	}
}

func TestDecorate(t *testing.T) {
	r := NewMemoryRenderer()
	s := NewSync(r, nil)
	s.Render(testDoc())
	f := s.Factory()
	ref := model.NodeRef("a")

	s.Decorate(ref, f.Outline(ChildSelection, SelectionColor, model.Vec3{2, 1, 1}))
	s.Decorate(ref, f.Outline(ChildSelection, SelectionColor, model.Vec3{2, 1, 1}))
	e, _ := s.Entry(ref)
	count := 0
	for _, c := range e.Body.Children {
		if c.Name == ChildSelection {
			count++
		}
	}
	if count != 1 {
		t.Errorf("selection outlines = %d, want 1", count)
	}
	if !s.Undecorate(ref, ChildSelection) || s.Undecorate(ref, ChildSelection) {
		t.Error("Undecorate should succeed once")
	}
	if r.Live() != r.Reachable() {
		t.Errorf("decoration leaked: live %d reachable %d", r.Live(), r.Reachable())
	}
}

func TestPick(t *testing.T) {
	r := NewMemoryRenderer()
	s := NewSync(r, nil)
	s.Render(testDoc())

	tests := []struct {
		name   string
		x, z   float64
		want   model.Ref
		wantOK bool
	}{
		{"node a", 0.5, 0.2, model.NodeRef("a"), true},
		{"node b", 6.9, -0.4, model.NodeRef("b"), true},
		{"connection", 3, 0.1, model.ConnectionRef("ab"), true},
		{"group edge", 10, 3, model.GroupRef("g"), true},
		{"inside group", 3, 5, model.Ref{}, false},
		{"outside", 40, 40, model.Ref{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Pick(tt.x, tt.z)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Pick(%v, %v) = %v, %v; want %v, %v", tt.x, tt.z, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	s.SetVisible(model.KindConnection, false)
	if _, ok := r.Pick(3, 0.1); ok {
		t.Error("hidden connection layer was picked")
	}
}
