package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidID is returned by the Add methods when the id is empty.
	ErrInvalidID = errors.New("id must not be empty")

	// ErrDuplicateID is returned by the Add methods when a live entity of the
	// same kind already uses the id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInvalidSize is returned by [Document.Validate] when a node has a
	// non-positive or non-finite size component.
	ErrInvalidSize = errors.New("node size must be positive")

	// ErrInvalidBounds is returned by [Document.Validate] when a group's max
	// corner is below its min corner on some axis.
	ErrInvalidBounds = errors.New("group bounds max must not be below min")
)

// Document is the diagram: three insertion-ordered entity sequences.
//
// The zero value is an empty, usable document.
type Document struct {
	Nodes       []Node
	Connections []Connection
	Groups      []Group

	// seen records every id that has been live in this document so that
	// NewID never hands out a deleted entity's id.
	seen map[Ref]struct{}
}

// New creates an empty document.
func New() *Document {
	return &Document{}
}

func (d *Document) remember(r Ref) {
	if d.seen == nil {
		d.seen = make(map[Ref]struct{})
	}
	d.seen[r] = struct{}{}
}

// AddNode appends n.
func (d *Document) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidID
	}
	if _, ok := d.Node(n.ID); ok {
		return fmt.Errorf("%w: node %q", ErrDuplicateID, n.ID)
	}
	if n.Group == "" {
		n.Group = NoGroup
	}
	d.Nodes = append(d.Nodes, n)
	d.remember(n.Ref())
	return nil
}

// AddConnection appends c. Its endpoints are not required to exist.
func (d *Document) AddConnection(c Connection) error {
	if c.ID == "" {
		return ErrInvalidID
	}
	if _, ok := d.Connection(c.ID); ok {
		return fmt.Errorf("%w: connection %q", ErrDuplicateID, c.ID)
	}
	d.Connections = append(d.Connections, c)
	d.remember(c.Ref())
	return nil
}

// AddGroup appends g.
func (d *Document) AddGroup(g Group) error {
	if g.ID == "" {
		return ErrInvalidID
	}
	if _, ok := d.Group(g.ID); ok {
		return fmt.Errorf("%w: group %q", ErrDuplicateID, g.ID)
	}
	d.Groups = append(d.Groups, g)
	d.remember(g.Ref())
	return nil
}

// Node returns the node with the given id.
func (d *Document) Node(id string) (*Node, bool) {
	i := slices.IndexFunc(d.Nodes, func(n Node) bool { return n.ID == id })
	if i < 0 {
		return nil, false
	}
	return &d.Nodes[i], true
}

// Connection returns the connection with the given id.
func (d *Document) Connection(id string) (*Connection, bool) {
	i := slices.IndexFunc(d.Connections, func(c Connection) bool { return c.ID == id })
	if i < 0 {
		return nil, false
	}
	return &d.Connections[i], true
}

// Group returns the group with the given id.
func (d *Document) Group(id string) (*Group, bool) {
	i := slices.IndexFunc(d.Groups, func(g Group) bool { return g.ID == id })
	if i < 0 {
		return nil, false
	}
	return &d.Groups[i], true
}

// Has reports whether r names a live entity.
func (d *Document) Has(r Ref) bool {
	var ok bool
	switch r.Kind {
	case KindNode:
		_, ok = d.Node(r.ID)
	case KindConnection:
		_, ok = d.Connection(r.ID)
	case KindGroup:
		_, ok = d.Group(r.ID)
	}
	return ok
}

// ConnectionsOf returns the connections that name nodeID as an endpoint,
// in document order.
func (d *Document) ConnectionsOf(nodeID string) []Connection {
	var out []Connection
	for _, c := range d.Connections {
		if c.Touches(nodeID) {
			out = append(out, c)
		}
	}
	return out
}

// RemoveNode deletes the node and every connection touching it. It returns
// the removed node and connections, and false when no such node exists.
func (d *Document) RemoveNode(id string) (Node, []Connection, bool) {
	i := slices.IndexFunc(d.Nodes, func(n Node) bool { return n.ID == id })
	if i < 0 {
		return Node{}, nil, false
	}
	removed := d.Nodes[i]
	d.Nodes = slices.Delete(d.Nodes, i, i+1)

	var dropped []Connection
	d.Connections = slices.DeleteFunc(d.Connections, func(c Connection) bool {
		if c.Touches(id) {
			dropped = append(dropped, c)
			return true
		}
		return false
	})
	return removed, dropped, true
}

// RemoveConnection deletes one connection.
func (d *Document) RemoveConnection(id string) bool {
	n := len(d.Connections)
	d.Connections = slices.DeleteFunc(d.Connections, func(c Connection) bool { return c.ID == id })
	return len(d.Connections) != n
}

// RemoveGroup deletes one group. Member nodes keep their group reference.
func (d *Document) RemoveGroup(id string) bool {
	n := len(d.Groups)
	d.Groups = slices.DeleteFunc(d.Groups, func(g Group) bool { return g.ID == id })
	return len(d.Groups) != n
}

// Remove deletes the referenced entity, cascading for nodes.
func (d *Document) Remove(r Ref) bool {
	switch r.Kind {
	case KindNode:
		_, _, ok := d.RemoveNode(r.ID)
		return ok
	case KindConnection:
		return d.RemoveConnection(r.ID)
	case KindGroup:
		return d.RemoveGroup(r.ID)
	}
	return false
}

// Replace swaps all three sequences for those of other. The id history of d
// is kept, so ids deleted before the replace are still never generated.
func (d *Document) Replace(other *Document) {
	c := other.Clone()
	d.Nodes, d.Connections, d.Groups = c.Nodes, c.Connections, c.Groups
	for _, n := range d.Nodes {
		d.remember(n.Ref())
	}
	for _, cn := range d.Connections {
		d.remember(cn.Ref())
	}
	for _, g := range d.Groups {
		d.remember(g.Ref())
	}
}

// Clone returns a deep copy of the entity sequences. The id history is not
// carried over.
func (d *Document) Clone() *Document {
	return &Document{
		Nodes:       slices.Clone(d.Nodes),
		Connections: slices.Clone(d.Connections),
		Groups:      slices.Clone(d.Groups),
	}
}

// Equal reports whether d and o hold the same entities in the same order.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	return slices.Equal(d.Nodes, o.Nodes) &&
		slices.Equal(d.Connections, o.Connections) &&
		slices.Equal(d.Groups, o.Groups)
}

// Len returns the total number of entities.
func (d *Document) Len() int {
	return len(d.Nodes) + len(d.Connections) + len(d.Groups)
}

// Stats counts the entities per kind.
func (d *Document) Stats() Stats {
	return Stats{
		Nodes:       len(d.Nodes),
		Connections: len(d.Connections),
		Groups:      len(d.Groups),
	}
}

// Validate checks structural invariants that the Add methods cannot enforce
// on their own: id uniqueness after direct slice edits, positive sizes and
// ordered bounds.
func (d *Document) Validate() error {
	ids := make(map[Ref]struct{}, d.Len())
	check := func(r Ref) error {
		if r.ID == "" {
			return fmt.Errorf("%s: %w", r.Kind, ErrInvalidID)
		}
		if _, dup := ids[r]; dup {
			return fmt.Errorf("%w: %s %q", ErrDuplicateID, r.Kind, r.ID)
		}
		ids[r] = struct{}{}
		return nil
	}
	for _, n := range d.Nodes {
		if err := check(n.Ref()); err != nil {
			return err
		}
		if !n.Position.Finite() || !n.Size.Finite() {
			return fmt.Errorf("node %q: non-finite coordinates", n.ID)
		}
		for _, s := range n.Size {
			if s <= 0 {
				return fmt.Errorf("%w: node %q", ErrInvalidSize, n.ID)
			}
		}
	}
	for _, c := range d.Connections {
		if err := check(c.Ref()); err != nil {
			return err
		}
	}
	for _, g := range d.Groups {
		if err := check(g.Ref()); err != nil {
			return err
		}
		if !g.Bounds.Valid() {
			return fmt.Errorf("%w: group %q", ErrInvalidBounds, g.ID)
		}
	}
	return nil
}

// DanglingConnections returns connections whose endpoints are missing.
func (d *Document) DanglingConnections() []Connection {
	var out []Connection
	for _, c := range d.Connections {
		_, okFrom := d.Node(c.From)
		_, okTo := d.Node(c.To)
		if !okFrom || !okTo {
			out = append(out, c)
		}
	}
	return out
}

// NewID returns an id of the given kind that is neither live nor has been
// live in d. The id is "<kind>-<8 hex chars>".
func (d *Document) NewID(kind Kind) string {
	for {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		r := Ref{Kind: kind, ID: string(kind) + "-" + suffix}
		if _, used := d.seen[r]; used || d.Has(r) {
			continue
		}
		d.remember(r)
		return r.ID
	}
}
