package model

import "math"

// Vec3 is an x, y, z triple in world units. Y is up.
type Vec3 [3]float64

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }

// Mul returns the component-wise product of v and o.
func (v Vec3) Mul(o Vec3) Vec3 { return Vec3{v[0] * o[0], v[1] * o[1], v[2] * o[2]} }

// Lerp interpolates between v (t=0) and o (t=1).
func (v Vec3) Lerp(o Vec3, t float64) Vec3 { return v.Add(o.Sub(v).Scale(t)) }

// Finite reports whether every component is neither NaN nor infinite.
func (v Vec3) Finite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Bounds is an axis-aligned box given by its minimum and maximum corners.
type Bounds struct {
	Min Vec3
	Max Vec3
}

// Size returns the per-axis extent of b.
func (b Bounds) Size() Vec3 { return b.Max.Sub(b.Min) }

// Center returns the midpoint of b.
func (b Bounds) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

// Valid reports whether Max >= Min on every axis.
func (b Bounds) Valid() bool {
	for i := range 3 {
		if b.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// Contains reports whether p lies inside b, boundary included.
func (b Bounds) Contains(p Vec3) bool {
	for i := range 3 {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}
