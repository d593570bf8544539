package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/thinkingspace/pkg/inspector"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
	panelKeyStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// termPanel is the inspector panel of the terminal editor. It keeps the
// fields the binding last showed and draws them beside the canvas.
type termPanel struct {
	title  string
	fields []inspector.Field
}

func (p *termPanel) Show(title string, fields []inspector.Field) {
	p.title = title
	p.fields = fields
}

func (p *termPanel) Clear() {
	p.title = ""
	p.fields = nil
}

func (p *termPanel) value(key string) (string, bool) {
	for _, f := range p.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func (p *termPanel) view(width int) string {
	if p.title == "" {
		return panelStyle.Width(width).Render(StyleDim.Render("Nothing selected\n\nenter  select\nc      connect\nn G C  add"))
	}
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render(p.title))
	for _, f := range p.fields {
		sb.WriteByte('\n')
		val := f.Value
		switch f.Kind {
		case inspector.FieldColor:
			val = lipgloss.NewStyle().Foreground(lipgloss.Color(f.Value)).Render("■ ") + f.Value
		case inspector.FieldNumber:
			val = fmt.Sprintf("%s %s", f.Value, StyleDim.Render(fmt.Sprintf("[%g,%g]", f.Min, f.Max)))
		}
		if f.ReadOnly {
			val = StyleDim.Render(f.Value)
		}
		sb.WriteString(panelKeyStyle.Render(fmt.Sprintf("%-10s", f.Key)) + " " + val)
	}
	sb.WriteString("\n\n" + StyleDim.Render(":set <key> <value>"))
	return panelStyle.Width(width).Render(sb.String())
}
