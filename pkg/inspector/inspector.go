// Package inspector binds a property panel to the editor's selection.
//
// The panel itself is an external capability: anything that can show a
// titled list of [Field] values and clear itself. A [Binding] keeps the panel
// in step with the selection and routes edits made in the panel back
// through the editor, so the model and the scene stay consistent.
package inspector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkingspace/pkg/editor"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
)

// Slider ranges for node fields.
const (
	PositionMin = -20.0
	PositionMax = 20.0
	SizeMin     = 0.5
	SizeMax     = 5.0
)

// FieldKind selects the control a panel uses for a field.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldColor
	FieldNumber
	FieldBool
)

func (k FieldKind) String() string {
	return [...]string{"text", "color", "number", "bool"}[k]
}

// Field is one editable property of the selected entity. Value is the
// current value formatted as text. Min and Max bound number fields.
type Field struct {
	Key      string
	Name     string
	Kind     FieldKind
	Value    string
	Min, Max float64
	ReadOnly bool
}

// Panel displays the fields of the selected entity.
type Panel interface {
	Show(title string, fields []Field)
	Clear()
}

// Fields returns the panel title and fields for ref, or false when ref is
// not in doc.
func Fields(doc *model.Document, ref model.Ref) (string, []Field, bool) {
	switch ref.Kind {
	case model.KindNode:
		n, ok := doc.Node(ref.ID)
		if !ok {
			return "", nil, false
		}
		return "Node: " + n.DisplayLabel(), []Field{
			{Key: "label", Name: "Label", Kind: FieldText, Value: n.Label},
			{Key: "color", Name: "Color", Kind: FieldColor, Value: n.Color},
			number("position.x", "X", n.Position[0], PositionMin, PositionMax),
			number("position.y", "Y", n.Position[1], PositionMin, PositionMax),
			number("position.z", "Z", n.Position[2], PositionMin, PositionMax),
			number("size.width", "Width", n.Size[0], SizeMin, SizeMax),
			number("size.height", "Height", n.Size[1], SizeMin, SizeMax),
			number("size.depth", "Depth", n.Size[2], SizeMin, SizeMax),
		}, true
	case model.KindConnection:
		c, ok := doc.Connection(ref.ID)
		if !ok {
			return "", nil, false
		}
		return "Connection: " + c.DisplayLabel(), []Field{
			{Key: "label", Name: "Label", Kind: FieldText, Value: c.Label},
			{Key: "color", Name: "Color", Kind: FieldColor, Value: c.Color},
			{Key: "from", Name: "From", Kind: FieldText, Value: c.From, ReadOnly: true},
			{Key: "to", Name: "To", Kind: FieldText, Value: c.To, ReadOnly: true},
		}, true
	case model.KindGroup:
		g, ok := doc.Group(ref.ID)
		if !ok {
			return "", nil, false
		}
		return "Group: " + g.DisplayLabel(), []Field{
			{Key: "label", Name: "Label", Kind: FieldText, Value: g.Label},
			{Key: "color", Name: "Color", Kind: FieldColor, Value: g.Color},
			{Key: "wireframe", Name: "Wireframe", Kind: FieldBool, Value: strconv.FormatBool(g.Wireframe)},
		}, true
	}
	return "", nil, false
}

func number(key, name string, v, lo, hi float64) Field {
	return Field{Key: key, Name: name, Kind: FieldNumber, Value: formatNumber(v), Min: lo, Max: hi}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Binding mirrors the editor's selection into a Panel.
type Binding struct {
	ed     *editor.Editor
	panel  Panel
	logger *log.Logger

	ref         model.Ref
	shown       bool
	unsubscribe func()
}

// Bind subscribes a panel to ed. The panel immediately reflects the current
// selection.
func Bind(ed *editor.Editor, panel Panel, logger *log.Logger) *Binding {
	if logger == nil {
		logger = log.Default()
	}
	b := &Binding{ed: ed, panel: panel, logger: logger}
	b.unsubscribe = ed.Subscribe(b.handle)
	if ref, ok := ed.Selection(); ok {
		b.show(ref)
	}
	return b
}

// Close detaches the binding from the editor and clears the panel.
func (b *Binding) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
	b.clear()
}

// Selected returns the entity the panel shows.
func (b *Binding) Selected() (model.Ref, bool) { return b.ref, b.shown }

func (b *Binding) handle(ev editor.Event) {
	switch ev.Type {
	case editor.EventSelected:
		b.show(ev.Ref)
	case editor.EventDeselected, editor.EventConnectStarted:
		b.clear()
	case editor.EventChanged:
		if b.shown && ev.Ref == b.ref {
			b.show(ev.Ref)
		}
	case editor.EventDeleted:
		if b.shown && ev.Ref == b.ref {
			b.clear()
		}
	}
}

// Refresh re-reads the shown entity from the document, for changes made
// outside the editor.
func (b *Binding) Refresh() {
	if !b.shown {
		return
	}
	b.show(b.ref)
}

func (b *Binding) show(ref model.Ref) {
	title, fields, ok := Fields(b.ed.Document(), ref)
	if !ok {
		b.clear()
		return
	}
	b.ref, b.shown = ref, true
	b.panel.Show(title, fields)
}

func (b *Binding) clear() {
	if !b.shown {
		return
	}
	b.ref, b.shown = model.Ref{}, false
	b.panel.Clear()
}

// Set applies an edit from the panel to the shown entity. Number fields are
// clamped to their range.
func (b *Binding) Set(key, value string) error {
	if !b.shown {
		return editor.ErrNothingSelected
	}
	_, fields, ok := Fields(b.ed.Document(), b.ref)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "%s no longer exists", b.ref)
	}
	f, ok := lookup(fields, key)
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "%s has no field %q", b.ref.Kind, key)
	}
	if f.ReadOnly {
		return errors.New(errors.ErrCodeInvalidInput, "field %q is read-only", key)
	}

	b.logger.Debug("inspector set", "ref", b.ref, "key", key, "value", value)
	switch f.Kind {
	case FieldText:
		return b.ed.SetLabel(b.ref, value)
	case FieldColor:
		return b.ed.SetColor(b.ref, strings.TrimSpace(value))
	case FieldBool:
		v, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "field %q", key)
		}
		return b.ed.SetWireframe(b.ref.ID, v)
	case FieldNumber:
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "field %q", key)
		}
		return b.setNumber(key, min(max(v, f.Min), f.Max))
	}
	return fmt.Errorf("unhandled field kind %v", f.Kind)
}

func (b *Binding) setNumber(key string, v float64) error {
	n, ok := b.ed.Document().Node(b.ref.ID)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "%s no longer exists", b.ref)
	}
	group, axis, _ := strings.Cut(key, ".")
	i := axisIndex(axis)
	switch group {
	case "position":
		pos := n.Position
		pos[i] = v
		return b.ed.SetPosition(n.ID, pos)
	case "size":
		size := n.Size
		size[i] = v
		return b.ed.SetSize(n.ID, size)
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown field %q", key)
}

func axisIndex(axis string) int {
	switch axis {
	case "y", "height":
		return 1
	case "z", "depth":
		return 2
	}
	return 0
}

func lookup(fields []Field, key string) (Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}
