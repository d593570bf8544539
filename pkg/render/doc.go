// Package render groups the static renderers of a diagram.
//
// # Overview
//
// The interactive editor draws through the [scene] package; the renderers
// here produce standalone images of a document for export:
//
//   - [dot]: the plan view (x/z plane) as Graphviz DOT and SVG
//   - [raster]: the front view (x/y plane) as PNG, with connection arcs
//
// Both skip connections whose endpoints are missing, as the scene does.
//
//	src := dot.ToDOT(doc, dot.Options{})
//	svg, err := dot.Render(ctx, doc, dot.Options{})
//	png, err := raster.Render(doc, raster.Options{Width: 1200, Height: 800})
//
// [scene]: github.com/matzehuels/thinkingspace/pkg/scene
// [dot]: github.com/matzehuels/thinkingspace/pkg/render/dot
// [raster]: github.com/matzehuels/thinkingspace/pkg/render/raster
package render
