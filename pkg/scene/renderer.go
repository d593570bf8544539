package scene

import "github.com/matzehuels/thinkingspace/pkg/model"

// Layer is a visual container. Each entity kind renders into its own layer;
// transient editor visuals go to LayerOverlay.
type Layer int

// Scene layers in draw order.
const (
	LayerGroups Layer = iota
	LayerNodes
	LayerConnections
	LayerOverlay
)

// Layers lists every layer in draw order.
var Layers = []Layer{LayerGroups, LayerNodes, LayerConnections, LayerOverlay}

func (l Layer) String() string {
	switch l {
	case LayerGroups:
		return "groups"
	case LayerNodes:
		return "nodes"
	case LayerConnections:
		return "connections"
	case LayerOverlay:
		return "overlay"
	}
	return "unknown"
}

// LayerOf returns the layer an entity kind renders into.
func LayerOf(k model.Kind) Layer {
	switch k {
	case model.KindGroup:
		return LayerGroups
	case model.KindConnection:
		return LayerConnections
	}
	return LayerNodes
}

// Handle names a renderer-owned resource. The zero Handle is no resource.
type Handle uint64

// GeometryKind selects how a Geometry is tessellated.
type GeometryKind int

const (
	// GeometryBox is a solid box of the given Size centered on the origin.
	GeometryBox GeometryKind = iota
	// GeometryBoxEdges is the 12 edges of a box of the given Size.
	GeometryBoxEdges
	// GeometryPolyline is an open line strip through Points.
	GeometryPolyline
)

// Geometry describes a shape for the renderer to build.
type Geometry struct {
	Kind   GeometryKind
	Size   model.Vec3
	Points []model.Vec3
}

// Texture describes a text sprite image.
type Texture struct {
	Text  string
	Color string
	Bold  bool
}

// PrimitiveKind tells the renderer how to draw a primitive.
type PrimitiveKind int

const (
	PrimitiveMesh PrimitiveKind = iota
	PrimitiveLines
	PrimitiveSprite
)

// Material is the surface description of a primitive.
type Material struct {
	Color     string
	Opacity   float64
	Wireframe bool
	Texture   Handle
}

// Primitive is one drawable object. Children are positioned relative to
// their parent. Tag is set on pickable entity bodies only.
type Primitive struct {
	Name     string
	Kind     PrimitiveKind
	Tag      model.Ref
	Geometry Handle
	Material Material
	Position model.Vec3
	Scale    model.Vec3
	Children []*Primitive
}

// Child returns the direct child with the given name.
func (p *Primitive) Child(name string) *Primitive {
	for _, c := range p.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Walk calls fn on p and then on every descendant, depth first.
func (p *Primitive) Walk(fn func(*Primitive)) {
	fn(p)
	for _, c := range p.Children {
		c.Walk(fn)
	}
}

// Renderer is the rendering pipeline the scene is drawn by. Implementations
// own every Handle they return until it is passed to Release.
type Renderer interface {
	CreateGeometry(g Geometry) Handle
	CreateTexture(t Texture) Handle
	Release(h Handle)

	Attach(l Layer, p *Primitive)
	Detach(l Layer, p *Primitive)
	// Update signals that a primitive's transform, material or children
	// changed in place.
	Update(l Layer, p *Primitive)
	// Clear detaches every primitive of a layer. It does not release
	// resources.
	Clear(l Layer)
	SetVisible(l Layer, visible bool)
}

// Picker resolves pointer coordinates against the rendered scene.
type Picker interface {
	// Pick returns the entity under the pointer, if any.
	Pick(x, y float64) (model.Ref, bool)
	// Project maps the pointer onto the ground plane.
	Project(x, y float64) model.Vec3
}
