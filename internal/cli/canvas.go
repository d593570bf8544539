package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/scene"
)

// Terminal cells are about twice as tall as wide, so one world unit spans
// more columns than rows.
const (
	cellsPerUnitX = 4.0
	cellsPerUnitZ = 2.0
)

// drawOrder is the back-to-front order layers are drawn in.
var drawOrder = []scene.Layer{scene.LayerGroups, scene.LayerConnections, scene.LayerNodes, scene.LayerOverlay}

// viewport maps the world's x/z ground plane onto a grid of terminal cells.
// The center is the world point drawn in the middle of the grid.
type viewport struct {
	width, height int
	cx, cz        float64
}

func (v viewport) toScreen(p model.Vec3) (col, row int) {
	col = int(math.Round((p[0]-v.cx)*cellsPerUnitX)) + v.width/2
	row = int(math.Round((p[2]-v.cz)*cellsPerUnitZ)) + v.height/2
	return col, row
}

func (v viewport) toWorld(col, row int) (x, z float64) {
	x = v.cx + float64(col-v.width/2)/cellsPerUnitX
	z = v.cz + float64(row-v.height/2)/cellsPerUnitZ
	return x, z
}

// follow pans the viewport so that (x, z) stays at least margin cells away
// from the edges.
func (v *viewport) follow(x, z float64, margin int) {
	col, row := v.toScreen(model.Vec3{x, 0, z})
	if col < margin || col >= v.width-margin {
		v.cx = x
	}
	if row < margin || row >= v.height-margin {
		v.cz = z
	}
}

// canvas is a character grid with one foreground color per cell.
type canvas struct {
	cells  [][]rune
	colors [][]string
	view   viewport
}

func newCanvas(v viewport) *canvas {
	c := &canvas{view: v}
	c.cells = make([][]rune, max(v.height, 1))
	c.colors = make([][]string, len(c.cells))
	for i := range c.cells {
		c.cells[i] = []rune(strings.Repeat(" ", max(v.width, 1)))
		c.colors[i] = make([]string, len(c.cells[i]))
	}
	return c
}

func (c *canvas) set(col, row int, r rune, color string) {
	if row < 0 || row >= len(c.cells) || col < 0 || col >= len(c.cells[row]) {
		return
	}
	c.cells[row][col] = r
	c.colors[row][col] = color
}

// drawScene draws every visible layer of m, back to front.
func (c *canvas) drawScene(m *scene.MemoryRenderer) {
	for _, l := range drawOrder {
		if !m.Visible(l) {
			continue
		}
		for _, p := range m.Primitives(l) {
			c.drawPrimitive(m, p, model.Vec3{}, model.Vec3{1, 1, 1})
		}
	}
}

func (c *canvas) drawPrimitive(m *scene.MemoryRenderer, p *scene.Primitive, origin, scale model.Vec3) {
	pos := origin.Add(p.Position)
	if p.Scale != (model.Vec3{}) {
		scale = scale.Mul(p.Scale)
	}
	color := p.Material.Color

	if p.Kind == scene.PrimitiveSprite {
		if tex, ok := m.Texture(p.Material.Texture); ok {
			c.drawText(pos, tex.Text, tex.Color)
		}
	} else if g, ok := m.Geometry(p.Geometry); ok {
		switch g.Kind {
		case scene.GeometryBox:
			solid := p.Tag.Kind == model.KindNode
			c.drawRect(pos, g.Size.Mul(scale), borderRunes(p.Name), color, solid)
		case scene.GeometryBoxEdges:
			c.drawRect(pos, g.Size.Mul(scale), borderRunes(p.Name), color, false)
		case scene.GeometryPolyline:
			r := '·'
			if p.Name == "connect-preview" {
				r = '∙'
			}
			for i := 1; i < len(g.Points); i++ {
				c.drawLine(g.Points[i-1].Add(pos), g.Points[i].Add(pos), r, color)
			}
		}
	}

	for _, child := range p.Children {
		c.drawPrimitive(m, child, pos, scale)
	}
}

// borderRunes returns corner, horizontal and vertical runes. Selection
// decorations use a heavy border.
func borderRunes(name string) [3]rune {
	switch name {
	case scene.ChildSelection, scene.ChildConnectStart:
		return [3]rune{'#', '#', '#'}
	}
	return [3]rune{'+', '-', '|'}
}

// drawRect draws the x/z footprint of a box centered on center. Solid boxes
// clear their interior so that they hide what lies beneath.
func (c *canvas) drawRect(center, size model.Vec3, border [3]rune, color string, solid bool) {
	half := model.Vec3{size[0] / 2, 0, size[2] / 2}
	x0, z0 := c.view.toScreen(center.Sub(half))
	x1, z1 := c.view.toScreen(center.Add(half))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if z1 <= z0 {
		z1 = z0 + 1
	}
	for row := z0; row <= z1; row++ {
		for col := x0; col <= x1; col++ {
			edgeX, edgeZ := col == x0 || col == x1, row == z0 || row == z1
			switch {
			case edgeX && edgeZ:
				c.set(col, row, border[0], color)
			case edgeZ:
				c.set(col, row, border[1], color)
			case edgeX:
				c.set(col, row, border[2], color)
			case solid:
				c.set(col, row, ' ', "")
			}
		}
	}
}

// drawLine draws a segment with Bresenham's algorithm.
func (c *canvas) drawLine(a, b model.Vec3, r rune, color string) {
	x0, y0 := c.view.toScreen(a)
	x1, y1 := c.view.toScreen(b)
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0, r, color)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// drawText centers text on a world point.
func (c *canvas) drawText(at model.Vec3, text, color string) {
	col, row := c.view.toScreen(at)
	runes := []rune(text)
	start := col - len(runes)/2
	for i, r := range runes {
		c.set(start+i, row, r, color)
	}
}

// render returns the grid as styled lines. Runs of cells sharing a color
// are styled together.
func (c *canvas) render() string {
	var sb strings.Builder
	for row, cells := range c.cells {
		if row > 0 {
			sb.WriteByte('\n')
		}
		start := 0
		for col := 1; col <= len(cells); col++ {
			if col < len(cells) && c.colors[row][col] == c.colors[row][start] {
				continue
			}
			run := string(cells[start:col])
			if color := c.colors[row][start]; color != "" {
				run = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(run)
			}
			sb.WriteString(run)
			start = col
		}
	}
	return sb.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
