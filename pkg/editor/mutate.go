package editor

import (
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/observability"
)

// AddNode appends a default node at the origin, draws it and selects it.
func (e *Editor) AddNode() (model.Node, error) {
	n := model.NewNode(e.doc.NewID(model.KindNode))
	if err := e.doc.AddNode(n); err != nil {
		return model.Node{}, err
	}
	e.sync.AddNode(n)
	e.added(n.Ref())
	return n, nil
}

// AddGroup appends a default group, draws it and selects it.
func (e *Editor) AddGroup() (model.Group, error) {
	g := model.NewGroup(e.doc.NewID(model.KindGroup))
	if err := e.doc.AddGroup(g); err != nil {
		return model.Group{}, err
	}
	e.sync.AddGroup(g)
	e.added(g.Ref())
	return g, nil
}

// AddConnection links the first two nodes of the document with a default
// connection and draws it. It fails with [ErrNotEnoughNodes] when there are
// fewer than two nodes.
func (e *Editor) AddConnection() (model.Connection, error) {
	if len(e.doc.Nodes) < 2 {
		return model.Connection{}, ErrNotEnoughNodes
	}
	c := model.NewConnection(e.doc.NewID(model.KindConnection), e.doc.Nodes[0].ID, e.doc.Nodes[1].ID)
	if err := e.doc.AddConnection(c); err != nil {
		return model.Connection{}, err
	}
	e.sync.AddConnection(c, e.doc)
	e.added(c.Ref())
	return c, nil
}

func (e *Editor) added(ref model.Ref) {
	observability.Editor().OnMutation("add", string(ref.Kind), ref.ID)
	e.logger.Debug("added", "kind", ref.Kind, "id", ref.ID)
	e.emit(EventAdded, ref)
	e.Select(ref)
}

// SetLabel renames an entity.
func (e *Editor) SetLabel(ref model.Ref, label string) error {
	switch ref.Kind {
	case model.KindNode:
		n, ok := e.doc.Node(ref.ID)
		if !ok {
			return notFound(ref)
		}
		n.Label = label
	case model.KindConnection:
		c, ok := e.doc.Connection(ref.ID)
		if !ok {
			return notFound(ref)
		}
		c.Label = label
	case model.KindGroup:
		g, ok := e.doc.Group(ref.ID)
		if !ok {
			return notFound(ref)
		}
		g.Label = label
	default:
		return notFound(ref)
	}
	e.sync.Relabel(ref, e.doc)
	if ref.Kind == model.KindConnection {
		e.rehighlight(ref)
	}
	e.changed("relabel", ref)
	return nil
}

// SetColor recolors an entity. color must be #RGB or #RRGGBB.
func (e *Editor) SetColor(ref model.Ref, color string) error {
	if err := errors.ValidateColor(color); err != nil {
		return err
	}
	color = errors.NormalizeColor(color)
	switch ref.Kind {
	case model.KindNode:
		n, ok := e.doc.Node(ref.ID)
		if !ok {
			return notFound(ref)
		}
		n.Color = color
	case model.KindConnection:
		c, ok := e.doc.Connection(ref.ID)
		if !ok {
			return notFound(ref)
		}
		c.Color = color
	case model.KindGroup:
		g, ok := e.doc.Group(ref.ID)
		if !ok {
			return notFound(ref)
		}
		g.Color = color
	default:
		return notFound(ref)
	}
	e.sync.Recolor(ref, e.doc)
	if ref.Kind == model.KindConnection {
		e.rehighlight(ref)
	}
	e.changed("recolor", ref)
	return nil
}

// SetPosition moves a node. The value is stored as given; snapping applies
// to gizmo drags only.
func (e *Editor) SetPosition(nodeID string, pos model.Vec3) error {
	n, ok := e.doc.Node(nodeID)
	if !ok {
		return notFound(model.NodeRef(nodeID))
	}
	if !pos.Finite() {
		return errors.New(errors.ErrCodeInvalidInput, "position must be finite")
	}
	n.Position = pos
	e.sync.MoveNode(*n, e.doc)
	if e.state.Kind == Selected && e.state.Ref == n.Ref() {
		e.gizmo.SetPosition(pos)
	}
	e.changed("move", n.Ref())
	return nil
}

// SetSize resizes a node. Every component must be positive.
func (e *Editor) SetSize(nodeID string, size model.Vec3) error {
	n, ok := e.doc.Node(nodeID)
	if !ok {
		return notFound(model.NodeRef(nodeID))
	}
	for _, v := range size {
		if !(v > 0) {
			return errors.Wrap(errors.ErrCodeInvalidInput, model.ErrInvalidSize, "node %s size %v", nodeID, size)
		}
	}
	n.Size = size
	e.sync.ResizeNode(*n)
	e.changed("resize", n.Ref())
	return nil
}

// SetWireframe switches a group between wireframe and solid rendering.
func (e *Editor) SetWireframe(groupID string, wireframe bool) error {
	g, ok := e.doc.Group(groupID)
	if !ok {
		return notFound(model.GroupRef(groupID))
	}
	if g.Wireframe == wireframe {
		return nil
	}
	g.Wireframe = wireframe
	e.sync.AddGroup(*g)
	e.rehighlight(g.Ref())
	e.changed("restyle", g.Ref())
	return nil
}

// SetBounds changes a group's extent. Min must not exceed Max.
func (e *Editor) SetBounds(groupID string, b model.Bounds) error {
	g, ok := e.doc.Group(groupID)
	if !ok {
		return notFound(model.GroupRef(groupID))
	}
	if !b.Valid() {
		return errors.Wrap(errors.ErrCodeInvalidInput, model.ErrInvalidBounds, "group %s", groupID)
	}
	g.Bounds = b
	e.sync.AddGroup(*g)
	e.rehighlight(g.Ref())
	e.changed("resize", g.Ref())
	return nil
}

func (e *Editor) changed(op string, ref model.Ref) {
	observability.Editor().OnMutation(op, string(ref.Kind), ref.ID)
	e.emit(EventChanged, ref)
}

func notFound(ref model.Ref) error {
	return errors.New(errors.ErrCodeNotFound, "no %s with id %q", ref.Kind, ref.ID)
}
