package scene

import (
	"math"
	"slices"

	"github.com/matzehuels/thinkingspace/pkg/model"
)

// PickTolerance is the distance in world units within which a pointer hits
// a line.
const PickTolerance = 0.25

// MemoryRenderer is a retained, headless Renderer and Picker. It draws
// nothing; it records what is attached and which resources are alive, and
// picks against a top-down orthographic view where pointer (x, y) is world
// (x, z).
type MemoryRenderer struct {
	next       Handle
	geometries map[Handle]Geometry
	textures   map[Handle]Texture
	layers     map[Layer][]*Primitive
	hidden     map[Layer]bool

	// Updates counts Update calls, for tests and redraw throttling.
	Updates int
}

// NewMemoryRenderer returns an empty renderer.
func NewMemoryRenderer() *MemoryRenderer {
	return &MemoryRenderer{
		geometries: make(map[Handle]Geometry),
		textures:   make(map[Handle]Texture),
		layers:     make(map[Layer][]*Primitive),
		hidden:     make(map[Layer]bool),
	}
}

func (m *MemoryRenderer) CreateGeometry(g Geometry) Handle {
	m.next++
	g.Points = slices.Clone(g.Points)
	m.geometries[m.next] = g
	return m.next
}

func (m *MemoryRenderer) CreateTexture(t Texture) Handle {
	m.next++
	m.textures[m.next] = t
	return m.next
}

func (m *MemoryRenderer) Release(h Handle) {
	delete(m.geometries, h)
	delete(m.textures, h)
}

func (m *MemoryRenderer) Attach(l Layer, p *Primitive) {
	m.layers[l] = append(m.layers[l], p)
}

func (m *MemoryRenderer) Detach(l Layer, p *Primitive) {
	m.layers[l] = slices.DeleteFunc(m.layers[l], func(q *Primitive) bool { return q == p })
}

func (m *MemoryRenderer) Update(Layer, *Primitive) { m.Updates++ }

func (m *MemoryRenderer) Clear(l Layer) { m.layers[l] = nil }

func (m *MemoryRenderer) SetVisible(l Layer, visible bool) { m.hidden[l] = !visible }

// Visible reports whether a layer is shown.
func (m *MemoryRenderer) Visible(l Layer) bool { return !m.hidden[l] }

// Geometry returns a live geometry.
func (m *MemoryRenderer) Geometry(h Handle) (Geometry, bool) {
	g, ok := m.geometries[h]
	return g, ok
}

// Texture returns a live texture.
func (m *MemoryRenderer) Texture(h Handle) (Texture, bool) {
	t, ok := m.textures[h]
	return t, ok
}

// Live returns the number of resources created and not yet released.
func (m *MemoryRenderer) Live() int { return len(m.geometries) + len(m.textures) }

// Primitives returns the primitives attached to a layer, in attach order.
func (m *MemoryRenderer) Primitives(l Layer) []*Primitive {
	return slices.Clone(m.layers[l])
}

// Reachable counts the resources referenced by attached primitives. When
// every resource is owned by something on screen it equals Live.
func (m *MemoryRenderer) Reachable() int {
	seen := make(map[Handle]struct{})
	for _, l := range Layers {
		for _, p := range m.layers[l] {
			p.Walk(func(q *Primitive) {
				if q.Geometry != 0 {
					seen[q.Geometry] = struct{}{}
				}
				if q.Material.Texture != 0 {
					seen[q.Material.Texture] = struct{}{}
				}
			})
		}
	}
	return len(seen)
}

// Pick returns the topmost entity under world point (x, z). Nodes win over
// connections, connections over groups; within a layer the most recently
// attached primitive wins.
func (m *MemoryRenderer) Pick(x, z float64) (model.Ref, bool) {
	for _, l := range []Layer{LayerNodes, LayerConnections, LayerGroups} {
		if m.hidden[l] {
			continue
		}
		prims := m.layers[l]
		for i := len(prims) - 1; i >= 0; i-- {
			p := prims[i]
			if p.Tag.IsZero() {
				continue
			}
			g, ok := m.geometries[p.Geometry]
			if ok && m.hit(p, g, x, z) {
				return p.Tag, true
			}
		}
	}
	return model.Ref{}, false
}

// Project maps (x, z) onto the ground plane y = 0.
func (m *MemoryRenderer) Project(x, z float64) model.Vec3 {
	return model.Vec3{x, 0, z}
}

func (m *MemoryRenderer) hit(p *Primitive, g Geometry, x, z float64) bool {
	switch g.Kind {
	case GeometryBox:
		hx, hz := g.Size[0]*p.Scale[0]/2, g.Size[2]*p.Scale[2]/2
		if p.Tag.Kind == model.KindGroup {
			return nearRect(x, z, p.Position[0]-hx, p.Position[2]-hz, p.Position[0]+hx, p.Position[2]+hz)
		}
		return math.Abs(x-p.Position[0]) <= hx && math.Abs(z-p.Position[2]) <= hz
	case GeometryBoxEdges:
		hx, hz := g.Size[0]*p.Scale[0]/2, g.Size[2]*p.Scale[2]/2
		return nearRect(x, z, p.Position[0]-hx, p.Position[2]-hz, p.Position[0]+hx, p.Position[2]+hz)
	case GeometryPolyline:
		for i := 1; i < len(g.Points); i++ {
			a, b := g.Points[i-1].Add(p.Position), g.Points[i].Add(p.Position)
			if segmentDistance(x, z, a[0], a[2], b[0], b[2]) <= PickTolerance {
				return true
			}
		}
	}
	return false
}

// nearRect reports whether (x, z) lies within PickTolerance of the
// rectangle's outline.
func nearRect(x, z, x0, z0, x1, z1 float64) bool {
	return segmentDistance(x, z, x0, z0, x1, z0) <= PickTolerance ||
		segmentDistance(x, z, x1, z0, x1, z1) <= PickTolerance ||
		segmentDistance(x, z, x1, z1, x0, z1) <= PickTolerance ||
		segmentDistance(x, z, x0, z1, x0, z0) <= PickTolerance
}

func segmentDistance(px, pz, ax, az, bx, bz float64) float64 {
	dx, dz := bx-ax, bz-az
	l2 := dx*dx + dz*dz
	if l2 == 0 {
		return math.Hypot(px-ax, pz-az)
	}
	t := ((px-ax)*dx + (pz-az)*dz) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(ax+t*dx), pz-(az+t*dz))
}

var (
	_ Renderer = (*MemoryRenderer)(nil)
	_ Picker   = (*MemoryRenderer)(nil)
)
