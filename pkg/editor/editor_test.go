package editor

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/scene"
)

// Layout, seen from above (pointer x, y = world x, z):
//
//	node a at x=0, node b at x=6, connection a→b along z=0,
//	group g spanning x∈[-2,2], z∈[8,12].
func fixture(t *testing.T) (*Editor, *scene.MemoryRenderer, *TransformGizmo) {
	t.Helper()
	d := model.New()
	must(t, d.AddNode(model.Node{ID: "a", Label: "A", Position: model.Vec3{0, 0, 0}, Size: model.Vec3{2, 1, 1}, Color: "#3498db", Group: model.NoGroup}))
	must(t, d.AddNode(model.Node{ID: "b", Label: "B", Position: model.Vec3{6, 0, 0}, Size: model.Vec3{2, 1, 1}, Color: "#3498db", Group: model.NoGroup}))
	must(t, d.AddConnection(model.Connection{ID: "ab", From: "a", To: "b", Label: "calls", Color: "#2ecc71"}))
	must(t, d.AddGroup(model.Group{ID: "g", Label: "Grp", Bounds: model.Bounds{Min: model.Vec3{-2, -2, 8}, Max: model.Vec3{2, 2, 12}}, Color: "#f39c12", Wireframe: true}))
	return newEditor(d)
}

func newEditor(d *model.Document) (*Editor, *scene.MemoryRenderer, *TransformGizmo) {
	r := scene.NewMemoryRenderer()
	s := scene.NewSync(r, log.New(io.Discard))
	s.Render(d)
	g := NewTransformGizmo()
	return New(d, s, r, g, DefaultOptions(), log.New(io.Discard)), r, g
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func hasChild(ed *Editor, ref model.Ref, name string) bool {
	e, ok := ed.sync.Entry(ref)
	return ok && e.Body.Child(name) != nil
}

func TestPickTransitions(t *testing.T) {
	tests := []struct {
		name   string
		clicks [][3]float64 // x, y, shift
		want   State
	}{
		{"pick node", [][3]float64{{0, 0, 0}}, State{Selected, model.NodeRef("a")}},
		{"pick connection", [][3]float64{{3, 0, 0}}, State{Selected, model.ConnectionRef("ab")}},
		{"pick group outline", [][3]float64{{2, 10, 0}}, State{Selected, model.GroupRef("g")}},
		{"inside group is empty", [][3]float64{{0, 10, 0}}, State{}},
		{"pick empty", [][3]float64{{0, 0, 0}, {3, 5, 0}}, State{}},
		{"reselect", [][3]float64{{0, 0, 0}, {6, 0, 0}}, State{Selected, model.NodeRef("b")}},
		{"shift on node", [][3]float64{{0, 0, 1}}, State{Connecting, model.NodeRef("a")}},
		{"shift from selected", [][3]float64{{6, 0, 0}, {0, 0, 1}}, State{Connecting, model.NodeRef("a")}},
		{"shift on connection selects", [][3]float64{{3, 0, 1}}, State{Selected, model.ConnectionRef("ab")}},
		{"shift on empty", [][3]float64{{3, 5, 1}}, State{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, _, _ := fixture(t)
			for _, c := range tt.clicks {
				ed.Click(c[0], c[1], c[2] != 0)
			}
			if got := ed.State(); got != tt.want {
				t.Errorf("state = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSelectionDecorations(t *testing.T) {
	ed, r, g := fixture(t)
	base := r.Live()

	ed.Click(0, 0, false)
	if !hasChild(ed, model.NodeRef("a"), scene.ChildSelection) {
		t.Error("selected node has no outline")
	}
	if !g.Attached() {
		t.Error("gizmo not attached to selected node")
	}

	ed.Click(3, 0, false)
	if hasChild(ed, model.NodeRef("a"), scene.ChildSelection) {
		t.Error("outline left on previous selection")
	}
	if g.Attached() {
		t.Error("gizmo attached to a connection")
	}
	if !hasChild(ed, model.ConnectionRef("ab"), scene.ChildSelection) {
		t.Error("selected connection has no outline")
	}

	ed.Escape()
	if ed.State().Kind != Idle {
		t.Errorf("state = %v after Escape", ed.State().Kind)
	}
	if r.Live() != base {
		t.Errorf("live resources = %d, want %d", r.Live(), base)
	}
}

func TestShiftConnect(t *testing.T) {
	ed, r, _ := fixture(t)
	var events []EventType
	ed.Subscribe(func(e Event) { events = append(events, e.Type) })

	ed.Click(6, 0, true)
	if !hasChild(ed, model.NodeRef("b"), scene.ChildConnectStart) {
		t.Error("connect start marker missing")
	}
	if n := len(r.Primitives(scene.LayerOverlay)); n != 1 {
		t.Errorf("overlay primitives = %d, want 1 preview", n)
	}
	ed.PointerMove(3, 4)
	ed.Click(0, 0, false)

	if ed.State().Kind != Idle {
		t.Errorf("state = %v, want idle", ed.State().Kind)
	}
	d := ed.Document()
	if len(d.Connections) != 2 {
		t.Fatalf("connections = %d, want 2", len(d.Connections))
	}
	c := d.Connections[1]
	if c.From != "b" || c.To != "a" || c.Label != "" || c.Color != model.DefaultConnectionColor {
		t.Errorf("new connection = %+v", c)
	}
	if _, ok := ed.sync.Entry(c.Ref()); !ok {
		t.Error("new connection not drawn")
	}
	if hasChild(ed, model.NodeRef("b"), scene.ChildConnectStart) {
		t.Error("connect start marker not removed")
	}
	if n := len(r.Primitives(scene.LayerOverlay)); n != 0 {
		t.Errorf("overlay primitives = %d after connect", n)
	}
	want := []EventType{EventConnectStarted, EventConnected}
	if len(events) != len(want) || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestConnectCancel(t *testing.T) {
	tests := []struct {
		name   string
		cancel func(*Editor)
	}{
		{"escape", func(ed *Editor) { ed.Escape() }},
		{"empty space", func(ed *Editor) { ed.Click(3, 5, false) }},
		{"same node", func(ed *Editor) { ed.Click(0, 0, false) }},
		{"connection", func(ed *Editor) { ed.Click(3, 0, false) }},
		{"group", func(ed *Editor) { ed.Click(2, 10, false) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, r, _ := fixture(t)
			base := r.Live()
			ed.Click(0, 0, true)
			ed.PointerMove(4, 4)
			tt.cancel(ed)

			if ed.State().Kind != Idle {
				t.Errorf("state = %v, want idle", ed.State().Kind)
			}
			if n := len(ed.Document().Connections); n != 1 {
				t.Errorf("connections = %d, want 1", n)
			}
			if r.Live() != base {
				t.Errorf("live resources = %d, want %d", r.Live(), base)
			}
		})
	}
}

func TestDeleteNodeCascades(t *testing.T) {
	ed, r, _ := fixture(t)
	ed.Click(0, 0, false)

	prompt, ok := ed.DeletePrompt()
	if !ok || prompt != "Delete node: A?" {
		t.Errorf("prompt = %q, %v", prompt, ok)
	}

	var asked string
	deleted, err := ed.Delete(ConfirmFunc(func(p string) bool { asked = p; return false }))
	if err != nil || deleted {
		t.Fatalf("declined delete = %v, %v", deleted, err)
	}
	if asked != prompt || !ed.Document().Has(model.NodeRef("a")) {
		t.Fatal("declined delete changed the document")
	}

	deleted, err = ed.Delete(ConfirmFunc(func(string) bool { return true }))
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	d := ed.Document()
	if d.Has(model.NodeRef("a")) || len(d.Connections) != 0 {
		t.Errorf("after delete: nodes=%v connections=%v", d.Nodes, d.Connections)
	}
	if _, ok := ed.sync.Entry(model.ConnectionRef("ab")); ok {
		t.Error("cascaded connection still drawn")
	}
	if ed.State().Kind != Idle {
		t.Errorf("state = %v", ed.State().Kind)
	}
	if r.Reachable() != r.Live() {
		t.Errorf("reachable %d != live %d", r.Reachable(), r.Live())
	}
}

func TestDeleteGroupKeepsNodes(t *testing.T) {
	ed, _, _ := fixture(t)
	ed.Click(2, 10, false)
	must(t, ed.DeleteSelected())
	d := ed.Document()
	if d.Has(model.GroupRef("g")) || len(d.Nodes) != 2 || len(d.Connections) != 1 {
		t.Errorf("stats = %+v", d.Stats())
	}
}

func TestDeleteOnlyNode(t *testing.T) {
	d := model.New()
	must(t, d.AddNode(model.NewNode("solo")))
	ed, r, _ := newEditor(d)
	ed.Click(0, 0, false)
	must(t, ed.DeleteSelected())
	if d.Len() != 0 || ed.sync.Len() != 0 {
		t.Errorf("len = %d, drawn = %d", d.Len(), ed.sync.Len())
	}
	if r.Live() != 0 {
		t.Errorf("live resources = %d", r.Live())
	}
}

func TestDeleteWithoutSelection(t *testing.T) {
	ed, _, _ := fixture(t)
	if _, err := ed.Delete(nil); err != ErrNothingSelected {
		t.Errorf("err = %v", err)
	}
	if _, ok := ed.DeletePrompt(); ok {
		t.Error("prompt without selection")
	}
}

func TestGizmoTranslateSnaps(t *testing.T) {
	tests := []struct {
		name  string
		snap  bool
		delta model.Vec3
		want  model.Vec3
	}{
		{"snapped", true, model.Vec3{1.4, 0, 0.6}, model.Vec3{1, 0, 1}},
		{"negative", true, model.Vec3{-2.6, 0.2, 0}, model.Vec3{-3, 0, 0}},
		{"free", false, model.Vec3{1.4, 0, 0.6}, model.Vec3{1.4, 0, 0.6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, _, g := fixture(t)
			if !tt.snap {
				ed.ToggleSnap()
			}
			ed.Click(0, 0, false)
			g.Translate(tt.delta)
			ed.GizmoChanged()

			n, _ := ed.Document().Node("a")
			if n.Position != tt.want {
				t.Errorf("position = %v, want %v", n.Position, tt.want)
			}
			if g.Position() != tt.want {
				t.Errorf("gizmo position = %v, want %v", g.Position(), tt.want)
			}
			e, _ := ed.sync.Entry(model.NodeRef("a"))
			if e.Body.Position != tt.want {
				t.Errorf("body position = %v", e.Body.Position)
			}
		})
	}
}

func TestGizmoAxisConstraint(t *testing.T) {
	ed, _, g := fixture(t)
	ed.ToggleAxis(AxisY)
	ed.Click(0, 0, false)
	g.Translate(model.Vec3{2, 3, 0})
	ed.GizmoChanged()
	n, _ := ed.Document().Node("a")
	if n.Position != (model.Vec3{2, 0, 0}) {
		t.Errorf("position = %v", n.Position)
	}
}

func TestGizmoScaleBakesSize(t *testing.T) {
	ed, r, g := fixture(t)
	ed.SetMode(ModeScale)
	ed.Click(0, 0, false)
	base := r.Live()

	g.ScaleBy(2)
	ed.GizmoChanged()

	n, _ := ed.Document().Node("a")
	if n.Size != (model.Vec3{4, 2, 2}) {
		t.Errorf("size = %v, want [4 2 2]", n.Size)
	}
	if g.Scale() != (model.Vec3{1, 1, 1}) {
		t.Errorf("gizmo scale = %v, want reset", g.Scale())
	}
	e, _ := ed.sync.Entry(model.NodeRef("a"))
	geo, _ := r.Geometry(e.Body.Geometry)
	if geo.Size != n.Size || e.Body.Scale != (model.Vec3{1, 1, 1}) {
		t.Errorf("geometry size = %v scale = %v", geo.Size, e.Body.Scale)
	}
	if r.Live() != base {
		t.Errorf("live resources = %d, want %d", r.Live(), base)
	}
}

func TestGizmoScaleClampsSize(t *testing.T) {
	ed, _, g := fixture(t)
	ed.SetMode(ModeScale)
	ed.Click(0, 0, false)
	g.ScaleBy(0.01)
	ed.GizmoChanged()
	n, _ := ed.Document().Node("a")
	for _, v := range n.Size {
		if v < MinNodeSize {
			t.Errorf("size = %v", n.Size)
		}
	}
}

func TestAddConnectionNeedsTwoNodes(t *testing.T) {
	d := model.New()
	must(t, d.AddNode(model.NewNode("solo")))
	ed, _, _ := newEditor(d)
	_, err := ed.AddConnection()
	if err != ErrNotEnoughNodes || !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if len(d.Connections) != 0 {
		t.Error("connection added")
	}
}

func TestAddEntities(t *testing.T) {
	ed, _, _ := fixture(t)

	n, err := ed.AddNode()
	must(t, err)
	if n.Label != model.NewNodeLabel || n.Size != model.DefaultNodeSize {
		t.Errorf("node = %+v", n)
	}
	if ed.State() != (State{Selected, n.Ref()}) {
		t.Errorf("new node not selected: %+v", ed.State())
	}

	c, err := ed.AddConnection()
	must(t, err)
	if c.From != "a" || c.To != "b" || c.Label != model.NewConnectionLabel {
		t.Errorf("connection = %+v", c)
	}
	if _, ok := ed.sync.Entry(c.Ref()); !ok {
		t.Error("connection not drawn")
	}

	g, err := ed.AddGroup()
	must(t, err)
	if !g.Wireframe || g.Bounds != model.DefaultGroupBounds {
		t.Errorf("group = %+v", g)
	}
	if got := ed.Document().Stats(); got != (model.Stats{Nodes: 3, Connections: 2, Groups: 2}) {
		t.Errorf("stats = %+v", got)
	}
}

func TestPropertyEdits(t *testing.T) {
	ed, r, _ := fixture(t)
	d := ed.Document()

	must(t, ed.SetLabel(model.NodeRef("a"), "Gateway"))
	must(t, ed.SetColor(model.ConnectionRef("ab"), "#F00"))
	must(t, ed.SetPosition("b", model.Vec3{6, 0, 4}))
	must(t, ed.SetSize("a", model.Vec3{3, 1, 1}))
	must(t, ed.SetWireframe("g", false))

	if n, _ := d.Node("a"); n.Label != "Gateway" || n.Size != (model.Vec3{3, 1, 1}) {
		t.Errorf("node a = %+v", n)
	}
	if c, _ := d.Connection("ab"); c.Color != "#ff0000" {
		t.Errorf("color = %q", c.Color)
	}
	if g, _ := d.Group("g"); g.Wireframe {
		t.Error("wireframe not cleared")
	}

	e, _ := ed.sync.Entry(model.NodeRef("a"))
	tex, _ := r.Texture(e.Label.Material.Texture)
	if tex.Text != "Gateway" {
		t.Errorf("label texture = %q", tex.Text)
	}

	if err := ed.SetSize("a", model.Vec3{0, 1, 1}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("zero size err = %v", err)
	}
	if err := ed.SetColor(model.NodeRef("a"), "blue"); err == nil {
		t.Error("invalid color accepted")
	}
	if err := ed.SetLabel(model.NodeRef("zz"), "x"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing node err = %v", err)
	}
	if r.Reachable() != r.Live() {
		t.Errorf("reachable %d != live %d", r.Reachable(), r.Live())
	}
}

func TestRelabelKeepsSelection(t *testing.T) {
	ed, _, _ := fixture(t)
	ed.Click(3, 0, false)
	must(t, ed.SetLabel(model.ConnectionRef("ab"), "renamed"))
	if !hasChild(ed, model.ConnectionRef("ab"), scene.ChildSelection) {
		t.Error("selection outline lost after relabel")
	}
}

func TestSubscribe(t *testing.T) {
	ed, _, _ := fixture(t)
	var got []Event
	unsubscribe := ed.Subscribe(func(e Event) { got = append(got, e) })

	ed.Click(0, 0, false)
	ed.Click(3, 5, false)
	if len(got) != 2 || got[0].Type != EventSelected || got[1].Type != EventDeselected {
		t.Fatalf("events = %+v", got)
	}
	if got[0].Ref != model.NodeRef("a") || got[0].State.Kind != Selected {
		t.Errorf("selected event = %+v", got[0])
	}

	unsubscribe()
	ed.Click(0, 0, false)
	if len(got) != 2 {
		t.Errorf("events after unsubscribe = %d", len(got))
	}
}

func TestSettings(t *testing.T) {
	ed, _, g := fixture(t)
	if err := ed.SetGridSize(0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("SetGridSize(0) = %v", err)
	}
	must(t, ed.SetGridSize(0.5))
	ed.SetMode(ModeRotate)
	if g.Mode() != ModeRotate || ed.Options().Mode != ModeRotate {
		t.Errorf("mode = %v", g.Mode())
	}
	ed.ToggleAxis(AxisZ)
	if g.Axes() != (Axes{true, true, false}) {
		t.Errorf("axes = %v", g.Axes())
	}
	if ed.ToggleSnap() {
		t.Error("snap still on")
	}
}

func TestSnap(t *testing.T) {
	tests := []struct {
		v, grid float64
		on      bool
		want    float64
	}{
		{1.4, 1, true, 1},
		{1.5, 1, true, 2},
		{-0.6, 0.5, true, -0.5},
		{1.4, 1, false, 1.4},
		{1.4, 0, true, 1.4},
	}
	for _, tt := range tests {
		if got := Snap(tt.v, tt.grid, tt.on); got != tt.want {
			t.Errorf("Snap(%v, %v, %v) = %v, want %v", tt.v, tt.grid, tt.on, got, tt.want)
		}
	}
}
