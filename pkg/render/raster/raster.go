// Package raster draws a front view of a diagram to PNG.
//
// The view looks down the z axis: x runs right and y runs up, so the
// raised connection arcs keep their shape. Groups are drawn first, then
// connections, then nodes, matching the scene's layering.
package raster

import (
	"bytes"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/scene"
)

// Defaults for Options fields left zero.
const (
	DefaultWidth    = 1200
	DefaultHeight   = 800
	DefaultPadding  = 40
	DefaultFontSize = 14
	arcSegments     = 32
)

// Options configures the image.
type Options struct {
	Width, Height int
	Padding       int
	FontSize      float64
	// Background is a hex color; empty means transparent.
	Background string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	return o
}

// view maps world x/y to pixels.
type view struct {
	scale, ox, oy float64
	height        float64
}

func (v view) at(p model.Vec3) (float64, float64) {
	return v.ox + p[0]*v.scale, v.height - (v.oy + p[1]*v.scale)
}

// extent grows to include world points.
type extent struct {
	min, max [2]float64
	empty    bool
}

func newExtent() extent { return extent{empty: true} }

func (e *extent) add(x, y float64) {
	if e.empty {
		e.min, e.max, e.empty = [2]float64{x, y}, [2]float64{x, y}, false
		return
	}
	e.min[0], e.min[1] = math.Min(e.min[0], x), math.Min(e.min[1], y)
	e.max[0], e.max[1] = math.Max(e.max[0], x), math.Max(e.max[1], y)
}

// Render draws doc and returns PNG bytes. An empty document yields a blank
// image.
func Render(doc *model.Document, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	face, err := loadFace(opts.FontSize)
	if err != nil {
		return nil, err
	}

	ends := endpoints(doc)
	v := fit(doc, ends, opts)

	dc := gg.NewContext(opts.Width, opts.Height)
	if opts.Background != "" {
		dc.SetHexColor(opts.Background)
		dc.Clear()
	}
	dc.SetFontFace(face)

	for _, g := range doc.Groups {
		drawGroup(dc, v, g)
	}
	for _, c := range doc.Connections {
		if e, ok := ends[c.ID]; ok {
			drawConnection(dc, v, c, e[0], e[1])
		}
	}
	for _, n := range doc.Nodes {
		drawNode(dc, v, n)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

func loadFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse font")
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

// endpoints resolves each drawable connection to its node positions.
func endpoints(doc *model.Document) map[string][2]model.Vec3 {
	out := make(map[string][2]model.Vec3, len(doc.Connections))
	for _, c := range doc.Connections {
		from, ok1 := doc.Node(c.From)
		to, ok2 := doc.Node(c.To)
		if ok1 && ok2 {
			out[c.ID] = [2]model.Vec3{from.Position, to.Position}
		}
	}
	return out
}

// fit scales the drawing's world extent into the padded image, keeping the
// aspect ratio and centering the result.
func fit(doc *model.Document, ends map[string][2]model.Vec3, opts Options) view {
	ext := newExtent()
	for _, n := range doc.Nodes {
		half := n.Size.Scale(0.5)
		ext.add(n.Position[0]-half[0], n.Position[1]-half[1])
		ext.add(n.Position[0]+half[0], n.Position[1]+half[1])
	}
	for _, g := range doc.Groups {
		ext.add(g.Bounds.Min[0], g.Bounds.Min[1])
		ext.add(g.Bounds.Max[0], g.Bounds.Max[1])
	}
	for _, e := range ends {
		mid := scene.ArcMidpoint(e[0], e[1])
		// The curve peaks halfway to its control point.
		ext.add(mid[0], (mid[1]+e[0].Lerp(e[1], 0.5)[1])/2)
	}

	w, h := float64(opts.Width), float64(opts.Height)
	if ext.empty {
		return view{scale: 1, ox: w / 2, oy: h / 2, height: h}
	}
	pad := float64(opts.Padding)
	spanX := math.Max(ext.max[0]-ext.min[0], 1)
	spanY := math.Max(ext.max[1]-ext.min[1], 1)
	scale := math.Min((w-2*pad)/spanX, (h-2*pad)/spanY)
	if scale <= 0 {
		scale = 1
	}
	cx, cy := (ext.min[0]+ext.max[0])/2, (ext.min[1]+ext.max[1])/2
	return view{
		scale:  scale,
		ox:     w/2 - cx*scale,
		oy:     h/2 - cy*scale,
		height: h,
	}
}

func drawGroup(dc *gg.Context, v view, g model.Group) {
	x0, y0 := v.at(model.Vec3{g.Bounds.Min[0], g.Bounds.Max[1], 0})
	x1, y1 := v.at(model.Vec3{g.Bounds.Max[0], g.Bounds.Min[1], 0})
	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	if g.Wireframe {
		dc.SetHexColor(g.Color)
		dc.SetLineWidth(1.5)
		dc.SetDash(6, 4)
		dc.Stroke()
		dc.SetDash()
	} else {
		dc.SetColor(withAlpha(g.Color, 0x40))
		dc.Fill()
	}
	dc.SetHexColor(g.Color)
	dc.DrawStringAnchored(g.DisplayLabel(), (x0+x1)/2, y0-6, 0.5, 0)
}

func drawConnection(dc *gg.Context, v view, c model.Connection, start, end model.Vec3) {
	pts := scene.Arc(start, end, arcSegments)
	dc.SetHexColor(c.Color)
	dc.SetLineWidth(2)
	for i, p := range pts {
		x, y := v.at(p)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()
	if c.Label != "" {
		mid := pts[len(pts)/2]
		x, y := v.at(mid)
		dc.DrawStringAnchored(c.Label, x, y-6, 0.5, 0)
	}
}

func drawNode(dc *gg.Context, v view, n model.Node) {
	half := n.Size.Scale(0.5)
	x0, y0 := v.at(model.Vec3{n.Position[0] - half[0], n.Position[1] + half[1], 0})
	x1, y1 := v.at(model.Vec3{n.Position[0] + half[0], n.Position[1] - half[1], 0})
	dc.DrawRoundedRectangle(x0, y0, x1-x0, y1-y0, 4)
	dc.SetHexColor(n.Color)
	dc.Fill()
	dc.SetColor(color.White)
	dc.DrawStringAnchored(n.DisplayLabel(), (x0+x1)/2, (y0+y1)/2, 0.5, 0.5)
}

// withAlpha parses a #RGB or #RRGGBB color and sets its alpha. Malformed
// colors come out grey.
func withAlpha(hex string, a uint8) color.Color {
	v, err := strconv.ParseUint(strings.TrimPrefix(errors.NormalizeColor(hex), "#"), 16, 32)
	if err != nil {
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: a}
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: a}
}
