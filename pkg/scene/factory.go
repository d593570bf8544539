package scene

import "github.com/matzehuels/thinkingspace/pkg/model"

// Label placement.
const (
	LabelOffset           = 1.0
	ConnectionLabelOffset = 0.3
	GroupLabelScale       = 0.8
	ConnectionLabelScale  = 0.6 * 0.8
)

// Material constants.
const (
	NodeOpacity  = 0.05
	GroupOpacity = 0.3
	LabelColor   = "#ffffff"

	SelectionColor    = "#00ff00"
	ConnectStartColor = "#00ffff"
	PreviewColor      = "#ffff00"
)

// Names of well-known child primitives.
const (
	ChildEdges        = "node-edges"
	ChildSelection    = "selection-outline"
	ChildConnectStart = "connect-start"
)

// outlinePad enlarges decoration outlines so they sit just outside the body.
const outlinePad = 1.08

// Factory builds and disposes the primitives shared by the synchronizer and
// the editor. Every resource it creates is released through Dispose,
// Resize, Reshape or Relabel.
type Factory struct {
	r Renderer
}

// NewFactory returns a factory that allocates resources on r.
func NewFactory(r Renderer) *Factory {
	return &Factory{r: r}
}

func unit() model.Vec3 { return model.Vec3{1, 1, 1} }

// NodeBody builds a node: a nearly transparent box with an opaque edge
// outline child.
func (f *Factory) NodeBody(n model.Node) *Primitive {
	return &Primitive{
		Name:     n.ID,
		Kind:     PrimitiveMesh,
		Tag:      n.Ref(),
		Geometry: f.r.CreateGeometry(Geometry{Kind: GeometryBox, Size: n.Size}),
		Material: Material{Color: n.Color, Opacity: NodeOpacity},
		Position: n.Position,
		Scale:    unit(),
		Children: []*Primitive{{
			Name:     ChildEdges,
			Kind:     PrimitiveLines,
			Geometry: f.r.CreateGeometry(Geometry{Kind: GeometryBoxEdges, Size: n.Size}),
			Material: Material{Color: n.Color, Opacity: 1},
			Scale:    unit(),
		}},
	}
}

// GroupBody builds a group box centered on its bounds.
func (f *Factory) GroupBody(g model.Group) *Primitive {
	kind := GeometryBox
	if g.Wireframe {
		kind = GeometryBoxEdges
	}
	return &Primitive{
		Name:     g.ID,
		Kind:     PrimitiveMesh,
		Tag:      g.Ref(),
		Geometry: f.r.CreateGeometry(Geometry{Kind: kind, Size: g.Bounds.Size()}),
		Material: Material{Color: g.Color, Opacity: GroupOpacity, Wireframe: g.Wireframe},
		Position: g.Bounds.Center(),
		Scale:    unit(),
	}
}

// ConnectionLine builds the arc between two endpoint positions.
func (f *Factory) ConnectionLine(c model.Connection, start, end model.Vec3) *Primitive {
	return &Primitive{
		Name:     c.ID,
		Kind:     PrimitiveLines,
		Tag:      c.Ref(),
		Geometry: f.r.CreateGeometry(Geometry{Kind: GeometryPolyline, Points: Arc(start, end, MinArcSegments)}),
		Material: Material{Color: c.Color, Opacity: 1},
		Scale:    unit(),
	}
}

// Label builds a text sprite at anchor raised by offset.
func (f *Factory) Label(text, color string, bold bool, anchor model.Vec3, offset, scale float64) *Primitive {
	pos := anchor
	pos[1] += offset
	return &Primitive{
		Name:     "label",
		Kind:     PrimitiveSprite,
		Material: Material{Color: color, Opacity: 1, Texture: f.r.CreateTexture(Texture{Text: text, Color: color, Bold: bold})},
		Position: pos,
		Scale:    model.Vec3{scale, scale, scale},
	}
}

// NodeLabel builds the label shown above a node.
func (f *Factory) NodeLabel(n model.Node) *Primitive {
	return f.Label(n.DisplayLabel(), LabelColor, false, n.Position, LabelOffset, 1)
}

// GroupLabel builds the label shown above a group's center.
func (f *Factory) GroupLabel(g model.Group) *Primitive {
	return f.Label(g.DisplayLabel(), LabelColor, false, g.Bounds.Center(), LabelOffset, GroupLabelScale)
}

// ConnectionLabel builds the label above an arc's midpoint, drawn in the
// connection color.
func (f *Factory) ConnectionLabel(c model.Connection, start, end model.Vec3) *Primitive {
	return f.Label(c.Label, c.Color, true, ArcMidpoint(start, end), ConnectionLabelOffset, ConnectionLabelScale)
}

// Outline builds an edge outline slightly larger than size, used for
// selection and connection-start decorations.
func (f *Factory) Outline(name, color string, size model.Vec3) *Primitive {
	return &Primitive{
		Name:     name,
		Kind:     PrimitiveLines,
		Geometry: f.r.CreateGeometry(Geometry{Kind: GeometryBoxEdges, Size: size.Scale(outlinePad)}),
		Material: Material{Color: color, Opacity: 1},
		Scale:    unit(),
	}
}

// ArcOutline builds a highlight that traces the arc between two points.
func (f *Factory) ArcOutline(name, color string, start, end model.Vec3) *Primitive {
	return &Primitive{
		Name:     name,
		Kind:     PrimitiveLines,
		Geometry: f.r.CreateGeometry(Geometry{Kind: GeometryPolyline, Points: Arc(start, end, MinArcSegments)}),
		Material: Material{Color: color, Opacity: 1},
		Scale:    unit(),
	}
}

// PreviewLine builds the rubber-band arc shown while connecting.
func (f *Factory) PreviewLine(start, end model.Vec3) *Primitive {
	return &Primitive{
		Name:     "connect-preview",
		Kind:     PrimitiveLines,
		Geometry: f.r.CreateGeometry(Geometry{Kind: GeometryPolyline, Points: Arc(start, end, MinArcSegments)}),
		Material: Material{Color: PreviewColor, Opacity: 0.6},
		Scale:    unit(),
	}
}

// Reshape replaces a polyline primitive's points, releasing the old
// geometry first.
func (f *Factory) Reshape(p *Primitive, start, end model.Vec3) {
	f.release(&p.Geometry)
	p.Geometry = f.r.CreateGeometry(Geometry{Kind: GeometryPolyline, Points: Arc(start, end, MinArcSegments)})
}

// Resize regenerates the box geometry of a node body and of its edge and
// outline children, releasing the old geometry first.
func (f *Factory) Resize(p *Primitive, size model.Vec3) {
	f.release(&p.Geometry)
	p.Geometry = f.r.CreateGeometry(Geometry{Kind: GeometryBox, Size: size})
	p.Scale = unit()
	for _, c := range p.Children {
		switch c.Name {
		case ChildEdges:
			f.release(&c.Geometry)
			c.Geometry = f.r.CreateGeometry(Geometry{Kind: GeometryBoxEdges, Size: size})
		case ChildSelection, ChildConnectStart:
			f.release(&c.Geometry)
			c.Geometry = f.r.CreateGeometry(Geometry{Kind: GeometryBoxEdges, Size: size.Scale(outlinePad)})
		}
	}
}

// Relabel swaps a label sprite's texture, releasing the old texture first.
func (f *Factory) Relabel(label *Primitive, text, color string, bold bool) {
	f.release(&label.Material.Texture)
	label.Material.Color = color
	label.Material.Texture = f.r.CreateTexture(Texture{Text: text, Color: color, Bold: bold})
}

// Dispose releases every resource held by p and its descendants.
func (f *Factory) Dispose(p *Primitive) {
	if p == nil {
		return
	}
	p.Walk(func(q *Primitive) {
		f.release(&q.Geometry)
		f.release(&q.Material.Texture)
	})
}

func (f *Factory) release(h *Handle) {
	if *h != 0 {
		f.r.Release(*h)
		*h = 0
	}
}
