package codec

import (
	"fmt"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
)

// Outbound records. Field order is the serialized order.

type nodeOut struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Position model.Vec3 `json:"position"`
	Size     model.Vec3 `json:"size"`
	Color    string     `json:"color"`
	Group    string     `json:"group"`
}

type connectionOut struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
	Color string `json:"color"`
}

type boundsOut struct {
	Min model.Vec3 `json:"min"`
	Max model.Vec3 `json:"max"`
}

type groupOut struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Bounds    boundsOut `json:"bounds"`
	Color     string    `json:"color"`
	Wireframe bool      `json:"wireframe"`
}

type metadataOut struct {
	Exported string `json:"exported"`
	Version  string `json:"version"`
	Tool     string `json:"tool"`
}

type documentOut struct {
	Metadata    *metadataOut    `json:"metadata,omitempty"`
	Nodes       []nodeOut       `json:"nodes"`
	Connections []connectionOut `json:"connections"`
	Groups      []groupOut      `json:"groups"`
}

func toOut(doc *model.Document) documentOut {
	out := documentOut{
		Nodes:       make([]nodeOut, len(doc.Nodes)),
		Connections: make([]connectionOut, len(doc.Connections)),
		Groups:      make([]groupOut, len(doc.Groups)),
	}
	for i, n := range doc.Nodes {
		out.Nodes[i] = nodeOut{ID: n.ID, Label: n.Label, Position: n.Position, Size: n.Size, Color: n.Color, Group: n.Group}
	}
	for i, c := range doc.Connections {
		out.Connections[i] = connectionOut{ID: c.ID, From: c.From, To: c.To, Label: c.Label, Color: c.Color}
	}
	for i, g := range doc.Groups {
		out.Groups[i] = groupOut{
			ID:        g.ID,
			Label:     g.Label,
			Bounds:    boundsOut{Min: g.Bounds.Min, Max: g.Bounds.Max},
			Color:     g.Color,
			Wireframe: g.Wireframe,
		}
	}
	return out
}

// Inbound records. Pointers distinguish a missing field from a zero value.

type nodeIn struct {
	ID       *string    `yaml:"id" json:"id"`
	Label    *string    `yaml:"label" json:"label"`
	Position *[]float64 `yaml:"position" json:"position"`
	Size     *[]float64 `yaml:"size" json:"size"`
	Color    *string    `yaml:"color" json:"color"`
	Group    *string    `yaml:"group" json:"group"`
}

type connectionIn struct {
	ID    *string `yaml:"id" json:"id"`
	From  *string `yaml:"from" json:"from"`
	To    *string `yaml:"to" json:"to"`
	Label *string `yaml:"label" json:"label"`
	Color *string `yaml:"color" json:"color"`
}

type boundsIn struct {
	Min *[]float64 `yaml:"min" json:"min"`
	Max *[]float64 `yaml:"max" json:"max"`
}

type groupIn struct {
	ID        *string   `yaml:"id" json:"id"`
	Label     *string   `yaml:"label" json:"label"`
	Bounds    *boundsIn `yaml:"bounds" json:"bounds"`
	Color     *string   `yaml:"color" json:"color"`
	Wireframe *bool     `yaml:"wireframe" json:"wireframe"`
}

func schemaErr(section Section, i int, format string, args ...any) error {
	return errors.New(errors.ErrCodeSchema, "%s[%d]: %s", section, i, fmt.Sprintf(format, args...))
}

func str(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func vec(p *[]float64, def model.Vec3, section Section, i int, field string) (model.Vec3, error) {
	if p == nil {
		return def, nil
	}
	if len(*p) != 3 {
		return model.Vec3{}, schemaErr(section, i, "%s must have 3 numbers, got %d", field, len(*p))
	}
	return model.Vec3{(*p)[0], (*p)[1], (*p)[2]}, nil
}

func requireID(p *string, section Section, i int) (string, error) {
	if p == nil || *p == "" {
		return "", schemaErr(section, i, "missing id")
	}
	return *p, nil
}

func (r nodeIn) toModel(i int) (model.Node, error) {
	id, err := requireID(r.ID, SectionNodes, i)
	if err != nil {
		return model.Node{}, err
	}
	pos, err := vec(r.Position, model.Vec3{}, SectionNodes, i, "position")
	if err != nil {
		return model.Node{}, err
	}
	size, err := vec(r.Size, model.DefaultNodeSize, SectionNodes, i, "size")
	if err != nil {
		return model.Node{}, err
	}
	for _, s := range size {
		if s <= 0 {
			return model.Node{}, schemaErr(SectionNodes, i, "size must be positive, got %v", size)
		}
	}
	group := str(r.Group, model.NoGroup)
	if group == "" {
		group = model.NoGroup
	}
	return model.Node{
		ID:       id,
		Label:    str(r.Label, id),
		Position: pos,
		Size:     size,
		Color:    str(r.Color, model.DefaultNodeColor),
		Group:    group,
	}, nil
}

func (r connectionIn) toModel(i int) (model.Connection, error) {
	id, err := requireID(r.ID, SectionConnections, i)
	if err != nil {
		return model.Connection{}, err
	}
	if r.From == nil || *r.From == "" {
		return model.Connection{}, schemaErr(SectionConnections, i, "missing from")
	}
	if r.To == nil || *r.To == "" {
		return model.Connection{}, schemaErr(SectionConnections, i, "missing to")
	}
	return model.Connection{
		ID:    id,
		From:  *r.From,
		To:    *r.To,
		Label: str(r.Label, ""),
		Color: str(r.Color, model.DefaultConnectionColor),
	}, nil
}

func (r groupIn) toModel(i int) (model.Group, error) {
	id, err := requireID(r.ID, SectionGroups, i)
	if err != nil {
		return model.Group{}, err
	}
	bounds := model.DefaultGroupBounds
	if r.Bounds != nil {
		if bounds.Min, err = vec(r.Bounds.Min, bounds.Min, SectionGroups, i, "bounds.min"); err != nil {
			return model.Group{}, err
		}
		if bounds.Max, err = vec(r.Bounds.Max, bounds.Max, SectionGroups, i, "bounds.max"); err != nil {
			return model.Group{}, err
		}
		if !bounds.Valid() {
			return model.Group{}, schemaErr(SectionGroups, i, "bounds max %v below min %v", bounds.Max, bounds.Min)
		}
	}
	wire := true
	if r.Wireframe != nil {
		wire = *r.Wireframe
	}
	return model.Group{
		ID:        id,
		Label:     str(r.Label, id),
		Bounds:    bounds,
		Color:     str(r.Color, model.DefaultGroupColor),
		Wireframe: wire,
	}, nil
}
