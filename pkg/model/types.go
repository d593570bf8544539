package model

import "fmt"

// =============================================================================
// Defaults
// =============================================================================

// NoGroup is the group reference of a node that belongs to no group.
const NoGroup = "none"

// Defaults applied to missing fields and to newly created entities.
const (
	DefaultNodeColor       = "#3498db"
	DefaultConnectionColor = "#2ecc71"
	DefaultGroupColor      = "#f39c12"

	NewNodeLabel       = "New Node"
	NewConnectionLabel = "New Connection"
	NewGroupLabel      = "New Group"
)

// DefaultNodeSize is the size of a node whose size is unspecified.
var DefaultNodeSize = Vec3{2, 1, 1}

// DefaultGroupBounds are the bounds of a group whose bounds are unspecified.
var DefaultGroupBounds = Bounds{Min: Vec3{-2, -2, -2}, Max: Vec3{2, 2, 2}}

// =============================================================================
// Kinds and references
// =============================================================================

// Kind names one of the three entity sequences.
type Kind string

// Entity kinds.
const (
	KindNode       Kind = "node"
	KindConnection Kind = "connection"
	KindGroup      Kind = "group"
)

// Kinds lists every entity kind in rebuild order.
var Kinds = []Kind{KindGroup, KindNode, KindConnection}

// Ref identifies one entity. The zero Ref refers to nothing.
type Ref struct {
	Kind Kind
	ID   string
}

// NodeRef returns a reference to the node with the given id.
func NodeRef(id string) Ref { return Ref{Kind: KindNode, ID: id} }

// ConnectionRef returns a reference to the connection with the given id.
func ConnectionRef(id string) Ref { return Ref{Kind: KindConnection, ID: id} }

// GroupRef returns a reference to the group with the given id.
func GroupRef(id string) Ref { return Ref{Kind: KindGroup, ID: id} }

// IsZero reports whether r refers to nothing.
func (r Ref) IsZero() bool { return r.Kind == "" && r.ID == "" }

func (r Ref) String() string { return fmt.Sprintf("%s:%s", r.Kind, r.ID) }

// =============================================================================
// Entities
// =============================================================================

// Node is a 3D box in the diagram.
type Node struct {
	ID       string
	Label    string
	Position Vec3 // center
	Size     Vec3 // width, height, depth; each > 0
	Color    string
	Group    string // group id or NoGroup
}

// Ref returns a reference to n.
func (n Node) Ref() Ref { return NodeRef(n.ID) }

// DisplayLabel returns the label, falling back to the id.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Connection is a directed link between two nodes.
type Connection struct {
	ID    string
	From  string
	To    string
	Label string
	Color string
}

// Ref returns a reference to c.
func (c Connection) Ref() Ref { return ConnectionRef(c.ID) }

// DisplayLabel returns the label, falling back to the id.
func (c Connection) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

// Touches reports whether nodeID is either endpoint of c.
func (c Connection) Touches(nodeID string) bool { return c.From == nodeID || c.To == nodeID }

// Group is a labeled bounding box.
type Group struct {
	ID        string
	Label     string
	Bounds    Bounds
	Color     string
	Wireframe bool
}

// Ref returns a reference to g.
func (g Group) Ref() Ref { return GroupRef(g.ID) }

// DisplayLabel returns the label, falling back to the id.
func (g Group) DisplayLabel() string {
	if g.Label != "" {
		return g.Label
	}
	return g.ID
}

// NewNode returns a node with the defaults used by the editor's
// "add node" action.
func NewNode(id string) Node {
	return Node{
		ID:    id,
		Label: NewNodeLabel,
		Size:  DefaultNodeSize,
		Color: DefaultNodeColor,
		Group: NoGroup,
	}
}

// NewConnection returns a connection from → to with editor defaults.
func NewConnection(id, from, to string) Connection {
	return Connection{
		ID:    id,
		From:  from,
		To:    to,
		Label: NewConnectionLabel,
		Color: DefaultConnectionColor,
	}
}

// NewGroup returns a group with the editor defaults.
func NewGroup(id string) Group {
	return Group{
		ID:        id,
		Label:     NewGroupLabel,
		Bounds:    DefaultGroupBounds,
		Color:     DefaultGroupColor,
		Wireframe: true,
	}
}

// Stats counts the entities of a document.
type Stats struct {
	Nodes       int `json:"nodes"`
	Connections int `json:"connections"`
	Groups      int `json:"groups"`
}
