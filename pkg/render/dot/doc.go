// Package dot renders a diagram as a flat plan view using Graphviz.
//
// # Overview
//
// The 3D document is projected onto the ground plane: x runs right and z
// runs down the page. Nodes and groups keep their positions and extents,
// pinned with the neato engine, so the drawing matches the editor's
// layout instead of being re-laid out by Graphviz.
//
// # Usage
//
//	src := dot.ToDOT(doc, dot.Options{})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Connections whose endpoints are missing are left out, as they are in the
// scene.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package dot
