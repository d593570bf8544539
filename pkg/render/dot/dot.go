package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
)

// DefaultScale is the drawing size of one world unit, in inches.
const DefaultScale = 0.5

// Options configures plan-view rendering.
type Options struct {
	// Scale is inches per world unit. Zero uses DefaultScale.
	Scale float64
}

// ToDOT converts doc to Graphviz DOT source with pinned positions.
// Groups are drawn first so that they sit beneath the nodes.
func ToDOT(doc *model.Document, opts Options) string {
	s := opts.Scale
	if s <= 0 {
		s = DefaultScale
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, fixedsize=true, fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10, arrowsize=0.7];\n")
	buf.WriteString("\n")

	for _, g := range doc.Groups {
		size, center := g.Bounds.Size(), g.Bounds.Center()
		attrs := []string{
			fmt.Sprintf("label=%q", g.DisplayLabel()),
			"labelloc=t",
			pos(center, s),
			dims(size[0], size[2], s),
			fmt.Sprintf("color=%q", g.Color),
			fmt.Sprintf("fontcolor=%q", g.Color),
		}
		if g.Wireframe {
			attrs = append(attrs, "style=dashed")
		} else {
			attrs = append(attrs, "style=filled", fmt.Sprintf("fillcolor=%q", g.Color+"33"))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", "group:"+g.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range doc.Nodes {
		attrs := []string{
			fmt.Sprintf("label=%q", n.DisplayLabel()),
			pos(n.Position, s),
			dims(n.Size[0], n.Size[2], s),
			"style=\"rounded,filled\"",
			fmt.Sprintf("fillcolor=%q", n.Color),
			"fontcolor=white",
			"color=white",
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", "node:"+n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range doc.Connections {
		if !doc.Has(model.NodeRef(c.From)) || !doc.Has(model.NodeRef(c.To)) {
			continue
		}
		attrs := []string{fmt.Sprintf("color=%q", c.Color)}
		if c.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", c.Label), fmt.Sprintf("fontcolor=%q", c.Color))
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", "node:"+c.From, "node:"+c.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// pos pins a point of the ground plane. Graphviz y grows upward, world z
// grows toward the viewer.
func pos(p model.Vec3, s float64) string {
	return fmt.Sprintf("pos=\"%s,%s!\"", num(p[0]*s), num(-p[2]*s))
}

func dims(w, h, s float64) string {
	return fmt.Sprintf("width=%s, height=%s", num(w*s), num(h*s))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders DOT source to SVG with the neato engine.
func RenderSVG(ctx context.Context, src string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// Render is ToDOT followed by RenderSVG.
func Render(ctx context.Context, doc *model.Document, opts Options) ([]byte, error) {
	return RenderSVG(ctx, ToDOT(doc, opts))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized root element with one
// that scales to its container.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
