package scene

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
)

// Entry is the visual representation of one entity.
type Entry struct {
	Ref   model.Ref
	Layer Layer
	Body  *Primitive
	Label *Primitive // nil for connections without a label
}

// Sync keeps the scene consistent with a document: one entry per live
// entity, each in its kind's layer.
//
// Sync is driven by the editor's event loop and is not safe for concurrent
// use.
type Sync struct {
	r       Renderer
	f       *Factory
	entries map[model.Ref]*Entry
	logger  *log.Logger
}

// NewSync creates a synchronizer drawing on r. A nil logger uses
// log.Default().
func NewSync(r Renderer, logger *log.Logger) *Sync {
	if logger == nil {
		logger = log.Default()
	}
	return &Sync{
		r:       r,
		f:       NewFactory(r),
		entries: make(map[model.Ref]*Entry),
		logger:  logger,
	}
}

// Factory returns the primitive factory shared with the editor.
func (s *Sync) Factory() *Factory { return s.f }

// Renderer returns the renderer the scene is drawn on.
func (s *Sync) Renderer() Renderer { return s.r }

// Entry returns the entry for an entity.
func (s *Sync) Entry(r model.Ref) (*Entry, bool) {
	e, ok := s.entries[r]
	return e, ok
}

// Len returns the number of entities currently drawn.
func (s *Sync) Len() int { return len(s.entries) }

// Refs returns the drawn entities, sorted by kind and id.
func (s *Sync) Refs() []model.Ref {
	refs := make([]model.Ref, 0, len(s.entries))
	for r := range s.entries {
		refs = append(refs, r)
	}
	slices.SortFunc(refs, func(a, b model.Ref) int {
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return refs
}

// Render discards the whole scene and rebuilds it from doc: groups first,
// then nodes, then connections. Connections with a missing endpoint are
// skipped.
func (s *Sync) Render(doc *model.Document) {
	for _, e := range s.entries {
		s.dispose(e)
	}
	clear(s.entries)
	for _, l := range Layers {
		if l != LayerOverlay {
			s.r.Clear(l)
		}
	}

	for _, g := range doc.Groups {
		s.AddGroup(g)
	}
	for _, n := range doc.Nodes {
		s.AddNode(n)
	}
	skipped := 0
	for _, c := range doc.Connections {
		if !s.AddConnection(c, doc) {
			skipped++
		}
	}
	s.logger.Debug("scene rebuilt",
		"groups", len(doc.Groups),
		"nodes", len(doc.Nodes),
		"connections", len(doc.Connections)-skipped,
		"skipped", skipped)
}

// AddNode draws a node, replacing any existing drawing of the same id.
func (s *Sync) AddNode(n model.Node) {
	s.Remove(n.Ref())
	e := &Entry{Ref: n.Ref(), Layer: LayerNodes, Body: s.f.NodeBody(n), Label: s.f.NodeLabel(n)}
	s.attach(e)
}

// AddGroup draws a group, replacing any existing drawing of the same id.
func (s *Sync) AddGroup(g model.Group) {
	s.Remove(g.Ref())
	e := &Entry{Ref: g.Ref(), Layer: LayerGroups, Body: s.f.GroupBody(g), Label: s.f.GroupLabel(g)}
	s.attach(e)
}

// AddConnection draws a connection between the current positions of its
// endpoints in doc. It reports false, drawing nothing, when an endpoint is
// missing.
func (s *Sync) AddConnection(c model.Connection, doc *model.Document) bool {
	s.Remove(c.Ref())
	from, okFrom := doc.Node(c.From)
	to, okTo := doc.Node(c.To)
	if !okFrom || !okTo {
		s.logger.Debug("skipping connection",
			"error", errors.New(errors.ErrCodeReferentialGap, "connection %s: %s -> %s", c.ID, c.From, c.To))
		return false
	}
	e := &Entry{Ref: c.Ref(), Layer: LayerConnections, Body: s.f.ConnectionLine(c, from.Position, to.Position)}
	if c.Label != "" {
		e.Label = s.f.ConnectionLabel(c, from.Position, to.Position)
	}
	s.attach(e)
	return true
}

// Add draws the referenced entity from doc.
func (s *Sync) Add(r model.Ref, doc *model.Document) bool {
	switch r.Kind {
	case model.KindNode:
		if n, ok := doc.Node(r.ID); ok {
			s.AddNode(*n)
			return true
		}
	case model.KindGroup:
		if g, ok := doc.Group(r.ID); ok {
			s.AddGroup(*g)
			return true
		}
	case model.KindConnection:
		if c, ok := doc.Connection(r.ID); ok {
			return s.AddConnection(*c, doc)
		}
	}
	return false
}

// Remove detaches an entity's primitives and releases their resources.
func (s *Sync) Remove(r model.Ref) bool {
	e, ok := s.entries[r]
	if !ok {
		return false
	}
	s.r.Detach(e.Layer, e.Body)
	if e.Label != nil {
		s.r.Detach(e.Layer, e.Label)
	}
	s.dispose(e)
	delete(s.entries, r)
	return true
}

// MoveNode moves a node's body and label to n.Position and redraws the
// connections touching it.
func (s *Sync) MoveNode(n model.Node, doc *model.Document) {
	e, ok := s.entries[n.Ref()]
	if !ok {
		return
	}
	e.Body.Position = n.Position
	s.r.Update(e.Layer, e.Body)
	e.Label.Position = n.Position
	e.Label.Position[1] += LabelOffset
	s.r.Update(e.Layer, e.Label)
	s.RefreshConnections(n.ID, doc)
}

// ResizeNode regenerates a node's geometry for n.Size.
func (s *Sync) ResizeNode(n model.Node) {
	e, ok := s.entries[n.Ref()]
	if !ok {
		return
	}
	s.f.Resize(e.Body, n.Size)
	s.r.Update(e.Layer, e.Body)
}

// RefreshConnections redraws every connection touching nodeID.
func (s *Sync) RefreshConnections(nodeID string, doc *model.Document) {
	for _, c := range doc.ConnectionsOf(nodeID) {
		s.AddConnection(c, doc)
	}
}

// Relabel redraws the label of an entity from its current state in doc.
func (s *Sync) Relabel(r model.Ref, doc *model.Document) {
	e, ok := s.entries[r]
	if !ok {
		return
	}
	switch r.Kind {
	case model.KindNode:
		if n, ok := doc.Node(r.ID); ok {
			s.f.Relabel(e.Label, n.DisplayLabel(), LabelColor, false)
			s.r.Update(e.Layer, e.Label)
		}
	case model.KindGroup:
		if g, ok := doc.Group(r.ID); ok {
			s.f.Relabel(e.Label, g.DisplayLabel(), LabelColor, false)
			s.r.Update(e.Layer, e.Label)
		}
	case model.KindConnection:
		s.Add(r, doc)
	}
}

// Recolor redraws an entity's materials from its current state in doc.
func (s *Sync) Recolor(r model.Ref, doc *model.Document) {
	e, ok := s.entries[r]
	if !ok {
		return
	}
	switch r.Kind {
	case model.KindNode:
		n, ok := doc.Node(r.ID)
		if !ok {
			return
		}
		e.Body.Material.Color = n.Color
		if edges := e.Body.Child(ChildEdges); edges != nil {
			edges.Material.Color = n.Color
		}
		s.r.Update(e.Layer, e.Body)
	case model.KindGroup:
		g, ok := doc.Group(r.ID)
		if !ok {
			return
		}
		e.Body.Material.Color = g.Color
		s.r.Update(e.Layer, e.Body)
	case model.KindConnection:
		s.Add(r, doc)
	}
}

// Decorate attaches p as a child of an entity's body, replacing any child
// with the same name.
func (s *Sync) Decorate(r model.Ref, p *Primitive) bool {
	e, ok := s.entries[r]
	if !ok {
		return false
	}
	s.undecorate(e, p.Name)
	e.Body.Children = append(e.Body.Children, p)
	s.r.Update(e.Layer, e.Body)
	return true
}

// Undecorate removes and disposes the named child of an entity's body.
func (s *Sync) Undecorate(r model.Ref, name string) bool {
	e, ok := s.entries[r]
	if !ok {
		return false
	}
	if !s.undecorate(e, name) {
		return false
	}
	s.r.Update(e.Layer, e.Body)
	return true
}

// SetVisible shows or hides every entity of a kind.
func (s *Sync) SetVisible(k model.Kind, visible bool) {
	s.r.SetVisible(LayerOf(k), visible)
}

func (s *Sync) undecorate(e *Entry, name string) bool {
	i := slices.IndexFunc(e.Body.Children, func(c *Primitive) bool { return c.Name == name })
	if i < 0 {
		return false
	}
	s.f.Dispose(e.Body.Children[i])
	e.Body.Children = slices.Delete(e.Body.Children, i, i+1)
	return true
}

func (s *Sync) attach(e *Entry) {
	s.entries[e.Ref] = e
	s.r.Attach(e.Layer, e.Body)
	if e.Label != nil {
		s.r.Attach(e.Layer, e.Label)
	}
}

func (s *Sync) dispose(e *Entry) {
	s.f.Dispose(e.Body)
	s.f.Dispose(e.Label)
}
