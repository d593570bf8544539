package codec

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
)

// Title is the first comment line of every block-dialect document.
const Title = "ThinkingSpace 3D System Architecture"

var sectionComments = map[Section]string{
	SectionNodes:       "System Nodes",
	SectionConnections: "System Connections",
	SectionGroups:      "Logical Groups",
}

func splitBlock(data []byte) (map[Section]decoder, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(trimBOM(data), &root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "invalid yaml")
	}
	secs := make(map[Section]decoder)
	if root.Kind == 0 || len(root.Content) == 0 {
		return secs, nil
	}
	body := root.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, errors.New(errors.ErrCodeSchema, "top level must be a mapping of sections (line %d)", body.Line)
	}
	for i := 0; i+1 < len(body.Content); i += 2 {
		val := body.Content[i+1]
		secs[Section(body.Content[i].Value)] = val.Decode
	}
	return secs, nil
}

// marshalBlock renders doc as commented YAML. When only is non-empty just
// those sections are written. header lines follow the title comment.
func marshalBlock(doc *model.Document, only []Section, header []string) ([]byte, error) {
	if len(only) == 0 {
		only = Sections
	}
	out := toOut(doc)

	body := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range only {
		var items []*yaml.Node
		switch s {
		case SectionNodes:
			for _, n := range out.Nodes {
				items = append(items, nodeYAML(n))
			}
		case SectionConnections:
			for _, c := range out.Connections {
				items = append(items, connectionYAML(c))
			}
		case SectionGroups:
			for _, g := range out.Groups {
				items = append(items, groupYAML(g))
			}
		default:
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown section %q", s)
		}
		key := strNode(string(s))
		key.Style = 0
		key.HeadComment = "# " + sectionComments[s]
		body.Content = append(body.Content, key, seqNode(items))
	}

	lines := []string{"# " + Title}
	for _, h := range header {
		lines = append(lines, "# "+h)
	}
	root := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: strings.Join(lines, "\n"),
		Content:     []*yaml.Node{body},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	return buf.Bytes(), nil
}

func nodeYAML(n nodeOut) *yaml.Node {
	return mapNode(
		"id", strNode(n.ID),
		"label", strNode(n.Label),
		"position", vecNode(n.Position),
		"size", vecNode(n.Size),
		"color", strNode(n.Color),
		"group", strNode(n.Group),
	)
}

func connectionYAML(c connectionOut) *yaml.Node {
	return mapNode(
		"id", strNode(c.ID),
		"from", strNode(c.From),
		"to", strNode(c.To),
		"label", strNode(c.Label),
		"color", strNode(c.Color),
	)
}

func groupYAML(g groupOut) *yaml.Node {
	return mapNode(
		"id", strNode(g.ID),
		"label", strNode(g.Label),
		"bounds", mapNode("min", vecNode(g.Bounds.Min), "max", vecNode(g.Bounds.Max)),
		"color", strNode(g.Color),
		"wireframe", &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatBool(g.Wireframe)},
	)
}

// mapNode builds a mapping from alternating key strings and value nodes.
func mapNode(kv ...any) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for i := 0; i+1 < len(kv); i += 2 {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv[i].(string)},
			kv[i+1].(*yaml.Node))
	}
	return m
}

func seqNode(items []*yaml.Node) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Content: items}
	if len(items) == 0 {
		n.Style = yaml.FlowStyle
	}
	return n
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: yaml.DoubleQuotedStyle}
}

func vecNode(v model.Vec3) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, c := range v {
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: formatFloat(c)})
	}
	return n
}

// formatFloat renders f as the shortest plain YAML scalar that resolves
// back to the same float64.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
