package scene

import (
	"math"

	"github.com/matzehuels/thinkingspace/pkg/model"
)

const (
	// ArcLift raises the arc control point by this fraction of the
	// horizontal x distance between the endpoints.
	ArcLift = 0.3
	// MinArcSegments is the lowest tessellation used for arcs.
	MinArcSegments = 20
)

// ArcMidpoint returns the control point of the arc from start to end: the
// straight-line midpoint raised by ArcLift × |end.x − start.x|.
func ArcMidpoint(start, end model.Vec3) model.Vec3 {
	mid := start.Lerp(end, 0.5)
	mid[1] += ArcLift * math.Abs(end[0]-start[0])
	return mid
}

// Arc samples the quadratic curve start → ArcMidpoint → end. It returns
// segments+1 points, using at least MinArcSegments segments.
func Arc(start, end model.Vec3, segments int) []model.Vec3 {
	if segments < MinArcSegments {
		segments = MinArcSegments
	}
	ctrl := ArcMidpoint(start, end)
	pts := make([]model.Vec3, segments+1)
	for i := range pts {
		t := float64(i) / float64(segments)
		u := 1 - t
		pts[i] = start.Scale(u * u).Add(ctrl.Scale(2 * u * t)).Add(end.Scale(t * t))
	}
	return pts
}
