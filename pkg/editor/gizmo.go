package editor

import (
	"math"

	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/scene"
)

// Mode is the manipulation the gizmo performs.
type Mode string

// Gizmo modes.
const (
	ModeTranslate Mode = "translate"
	ModeRotate    Mode = "rotate"
	ModeScale     Mode = "scale"
)

// Axis is one of the three world axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string { return [...]string{"X", "Y", "Z"}[a] }

// Axes holds which axes the gizmo may act on.
type Axes [3]bool

// AllAxes enables every axis.
var AllAxes = Axes{true, true, true}

// Gizmo is the transform handle attached to the selected node. The editor
// configures it and reads its transform back after each change.
type Gizmo interface {
	Attach(p *scene.Primitive)
	Detach()
	Attached() bool
	SetMode(m Mode)
	SetAxes(a Axes)
	Position() model.Vec3
	SetPosition(v model.Vec3)
	// Scale is the relative scale applied since the last ResetScale.
	Scale() model.Vec3
	ResetScale()
}

// Snap rounds v to the nearest multiple of grid when enabled.
func Snap(v, grid float64, enabled bool) float64 {
	if !enabled || grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

// SnapVec snaps every component of v.
func SnapVec(v model.Vec3, grid float64, enabled bool) model.Vec3 {
	return model.Vec3{Snap(v[0], grid, enabled), Snap(v[1], grid, enabled), Snap(v[2], grid, enabled)}
}

// TransformGizmo is a headless Gizmo. Drags are simulated with Translate and
// ScaleBy, which honor the axis constraints the editor sets.
type TransformGizmo struct {
	target   *scene.Primitive
	mode     Mode
	axes     Axes
	position model.Vec3
	scale    model.Vec3
}

// NewTransformGizmo returns a detached gizmo in translate mode.
func NewTransformGizmo() *TransformGizmo {
	return &TransformGizmo{mode: ModeTranslate, axes: AllAxes, scale: model.Vec3{1, 1, 1}}
}

func (g *TransformGizmo) Attach(p *scene.Primitive) {
	g.target = p
	g.position = p.Position
	g.scale = model.Vec3{1, 1, 1}
}

func (g *TransformGizmo) Detach()                  { g.target = nil }
func (g *TransformGizmo) Attached() bool           { return g.target != nil }
func (g *TransformGizmo) SetMode(m Mode)           { g.mode = m }
func (g *TransformGizmo) Mode() Mode               { return g.mode }
func (g *TransformGizmo) SetAxes(a Axes)           { g.axes = a }
func (g *TransformGizmo) Axes() Axes               { return g.axes }
func (g *TransformGizmo) Position() model.Vec3     { return g.position }
func (g *TransformGizmo) Scale() model.Vec3        { return g.scale }
func (g *TransformGizmo) ResetScale()              { g.scale = model.Vec3{1, 1, 1} }
func (g *TransformGizmo) SetPosition(v model.Vec3) { g.position = v }

// Translate drags the handle by delta along the enabled axes. It reports
// whether anything moved.
func (g *TransformGizmo) Translate(delta model.Vec3) bool {
	if g.target == nil || g.mode != ModeTranslate {
		return false
	}
	moved := false
	for i := range 3 {
		if g.axes[i] && delta[i] != 0 {
			g.position[i] += delta[i]
			moved = true
		}
	}
	return moved
}

// ScaleBy multiplies the relative scale by factor along the enabled axes.
func (g *TransformGizmo) ScaleBy(factor float64) bool {
	if g.target == nil || g.mode != ModeScale || factor <= 0 {
		return false
	}
	for i := range 3 {
		if g.axes[i] {
			g.scale[i] *= factor
		}
	}
	return true
}

var _ Gizmo = (*TransformGizmo)(nil)
