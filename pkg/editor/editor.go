package editor

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/observability"
	"github.com/matzehuels/thinkingspace/pkg/scene"
)

var (
	// ErrNotEnoughNodes is returned by [Editor.AddConnection] when the
	// document has fewer than two nodes.
	ErrNotEnoughNodes = errors.New(errors.ErrCodeInvalidInput, "need at least 2 nodes to create a connection")

	// ErrNothingSelected is returned by operations that act on the
	// selection when there is none.
	ErrNothingSelected = errors.New(errors.ErrCodeInvalidInput, "nothing selected")
)

// MinNodeSize is the smallest size component scaling may produce.
const MinNodeSize = 0.1

// Options configures an Editor.
type Options struct {
	GridSize float64
	Snap     bool
	Mode     Mode
}

// DefaultOptions returns grid 1.0 with snapping on, in translate mode.
func DefaultOptions() Options {
	return Options{GridSize: 1, Snap: true, Mode: ModeTranslate}
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

type subscription struct {
	id int
	fn Listener
}

// Editor is the selection and manipulation state machine. It mutates the
// document first and the scene second, then notifies subscribers.
//
// Editor is driven by a single event loop and is not safe for concurrent
// use.
type Editor struct {
	doc    *model.Document
	sync   *scene.Sync
	picker scene.Picker
	gizmo  Gizmo
	logger *log.Logger

	state   State
	opts    Options
	axes    Axes
	preview *scene.Primitive

	subs   []subscription
	nextID int
}

// New creates an editor over doc and its scene. picker may be nil when
// selection is driven by [Editor.PickRef] only; a nil gizmo uses a
// [TransformGizmo].
func New(doc *model.Document, sync *scene.Sync, picker scene.Picker, gizmo Gizmo, opts Options, logger *log.Logger) *Editor {
	if gizmo == nil {
		gizmo = NewTransformGizmo()
	}
	if logger == nil {
		logger = log.Default()
	}
	if opts.Mode == "" {
		opts.Mode = ModeTranslate
	}
	if opts.GridSize <= 0 {
		opts.GridSize = 1
	}
	gizmo.SetMode(opts.Mode)
	gizmo.SetAxes(AllAxes)
	return &Editor{
		doc:    doc,
		sync:   sync,
		picker: picker,
		gizmo:  gizmo,
		logger: logger,
		opts:   opts,
		axes:   AllAxes,
	}
}

// =============================================================================
// Observers
// =============================================================================

// Subscribe registers l for every subsequent event and returns a function
// that removes it.
func (e *Editor) Subscribe(l Listener) (unsubscribe func()) {
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscription{id: id, fn: l})
	return func() {
		e.subs = slices.DeleteFunc(e.subs, func(s subscription) bool { return s.id == id })
	}
}

func (e *Editor) emit(t EventType, r model.Ref) {
	ev := Event{Type: t, Ref: r, State: e.state}
	for _, s := range slices.Clone(e.subs) {
		s.fn(ev)
	}
}

// =============================================================================
// Accessors
// =============================================================================

// State returns the current selection state.
func (e *Editor) State() State { return e.state }

// Selection returns the selected entity, if any.
func (e *Editor) Selection() (model.Ref, bool) {
	if e.state.Kind != Selected {
		return model.Ref{}, false
	}
	return e.state.Ref, true
}

// Document returns the edited document.
func (e *Editor) Document() *model.Document { return e.doc }

// Options returns the current mode, grid and snap settings.
func (e *Editor) Options() Options { return e.opts }

// Axes returns the enabled gizmo axes.
func (e *Editor) Axes() Axes { return e.axes }

// Gizmo returns the transform handle.
func (e *Editor) Gizmo() Gizmo { return e.gizmo }

// =============================================================================
// Picking
// =============================================================================

// Click resolves pointer coordinates through the picker and applies
// [Editor.PickRef].
func (e *Editor) Click(x, y float64, shift bool) {
	if e.picker == nil {
		return
	}
	ref, hit := e.picker.Pick(x, y)
	e.PickRef(ref, hit, shift)
}

// PickRef applies a pick result. hit is false for empty space.
//
//	Idle/Selected  + pick X          -> Selected(X)
//	Idle/Selected  + pick empty      -> Idle
//	Idle/Selected  + shift+pick node -> Connecting(node)
//	Connecting(a)  + pick node b≠a   -> connection a→b, Idle
//	Connecting(a)  + anything else   -> Idle
func (e *Editor) PickRef(ref model.Ref, hit bool, shift bool) {
	if hit && !e.doc.Has(ref) {
		hit = false
	}

	if e.state.Kind == Connecting {
		from := e.state.Ref
		if hit && ref.Kind == model.KindNode && ref != from {
			e.connect(from.ID, ref.ID)
			return
		}
		e.CancelConnect()
		return
	}

	switch {
	case hit && shift && ref.Kind == model.KindNode:
		e.StartConnect(ref.ID)
	case hit:
		e.Select(ref)
	default:
		e.Deselect()
	}
}

// Select makes ref the selection. Selecting a node attaches the gizmo.
func (e *Editor) Select(ref model.Ref) bool {
	if !e.doc.Has(ref) {
		return false
	}
	if e.state.Kind == Connecting {
		e.CancelConnect()
	}
	if e.state.Kind == Selected && e.state.Ref == ref {
		return true
	}
	e.clearSelection()

	e.state = State{Kind: Selected, Ref: ref}
	e.highlight(ref)
	if ref.Kind == model.KindNode {
		e.attachGizmo(ref)
	}
	observability.Editor().OnSelectionChange(string(ref.Kind), ref.ID)
	e.emit(EventSelected, ref)
	return true
}

// Deselect returns to Idle.
func (e *Editor) Deselect() {
	if e.state.Kind == Connecting {
		e.CancelConnect()
		return
	}
	if e.state.Kind != Selected {
		return
	}
	ref := e.state.Ref
	e.clearSelection()
	observability.Editor().OnSelectionChange("", "")
	e.emit(EventDeselected, ref)
}

// Escape cancels a pending connection or clears the selection.
func (e *Editor) Escape() {
	e.Deselect()
}

func (e *Editor) clearSelection() {
	if e.state.Kind != Selected {
		return
	}
	e.sync.Undecorate(e.state.Ref, scene.ChildSelection)
	e.gizmo.Detach()
	e.state = State{}
}

// highlight decorates a selected entity with an outline.
func (e *Editor) highlight(ref model.Ref) {
	f := e.sync.Factory()
	switch ref.Kind {
	case model.KindNode:
		if n, ok := e.doc.Node(ref.ID); ok {
			e.sync.Decorate(ref, f.Outline(scene.ChildSelection, scene.SelectionColor, n.Size))
		}
	case model.KindGroup:
		if g, ok := e.doc.Group(ref.ID); ok {
			e.sync.Decorate(ref, f.Outline(scene.ChildSelection, scene.SelectionColor, g.Bounds.Size()))
		}
	case model.KindConnection:
		c, ok := e.doc.Connection(ref.ID)
		if !ok {
			return
		}
		from, okFrom := e.doc.Node(c.From)
		to, okTo := e.doc.Node(c.To)
		if okFrom && okTo {
			e.sync.Decorate(ref, f.ArcOutline(scene.ChildSelection, scene.SelectionColor, from.Position, to.Position))
		}
	}
}

// rehighlight restores the selection visuals after an entity's primitives
// were rebuilt.
func (e *Editor) rehighlight(ref model.Ref) {
	if e.state.Kind == Selected && e.state.Ref == ref {
		e.highlight(ref)
		if ref.Kind == model.KindNode {
			e.attachGizmo(ref)
		}
	}
}

func (e *Editor) attachGizmo(ref model.Ref) {
	entry, ok := e.sync.Entry(ref)
	if !ok {
		return
	}
	e.gizmo.SetMode(e.opts.Mode)
	e.gizmo.SetAxes(e.axes)
	e.gizmo.Attach(entry.Body)
}

// =============================================================================
// Connecting
// =============================================================================

// StartConnect enters Connecting from the given node.
func (e *Editor) StartConnect(nodeID string) bool {
	n, ok := e.doc.Node(nodeID)
	if !ok {
		return false
	}
	if e.state.Kind == Connecting {
		e.CancelConnect()
	}
	e.Deselect()

	ref := model.NodeRef(nodeID)
	f := e.sync.Factory()
	e.state = State{Kind: Connecting, Ref: ref}
	e.sync.Decorate(ref, f.Outline(scene.ChildConnectStart, scene.ConnectStartColor, n.Size))
	e.preview = f.PreviewLine(n.Position, n.Position)
	e.sync.Renderer().Attach(scene.LayerOverlay, e.preview)
	e.emit(EventConnectStarted, ref)
	return true
}

// PointerMove redraws the connection preview toward the pointer. Hovering a
// node snaps the preview to the node's center.
func (e *Editor) PointerMove(x, y float64) {
	if e.state.Kind != Connecting || e.picker == nil {
		return
	}
	target := e.picker.Project(x, y)
	if ref, ok := e.picker.Pick(x, y); ok && ref.Kind == model.KindNode {
		if n, ok := e.doc.Node(ref.ID); ok {
			target = n.Position
		}
	}
	e.PreviewTo(target)
}

// PreviewTo redraws the connection preview from the source node to target.
func (e *Editor) PreviewTo(target model.Vec3) {
	if e.state.Kind != Connecting || e.preview == nil {
		return
	}
	from, ok := e.doc.Node(e.state.Ref.ID)
	if !ok {
		return
	}
	e.sync.Factory().Reshape(e.preview, from.Position, target)
	e.sync.Renderer().Update(scene.LayerOverlay, e.preview)
}

// CancelConnect abandons a pending connection.
func (e *Editor) CancelConnect() {
	if e.state.Kind != Connecting {
		return
	}
	from := e.state.Ref
	e.endConnect()
	e.emit(EventConnectCanceled, from)
}

func (e *Editor) endConnect() {
	e.sync.Undecorate(e.state.Ref, scene.ChildConnectStart)
	if e.preview != nil {
		e.sync.Renderer().Detach(scene.LayerOverlay, e.preview)
		e.sync.Factory().Dispose(e.preview)
		e.preview = nil
	}
	e.state = State{}
}

func (e *Editor) connect(from, to string) {
	e.endConnect()
	c := model.Connection{
		ID:    e.doc.NewID(model.KindConnection),
		From:  from,
		To:    to,
		Color: model.DefaultConnectionColor,
	}
	if err := e.doc.AddConnection(c); err != nil {
		e.logger.Error("add connection", "err", err)
		return
	}
	e.sync.AddConnection(c, e.doc)
	observability.Editor().OnMutation("connect", string(model.KindConnection), c.ID)
	e.logger.Debug("connected", "id", c.ID, "from", from, "to", to)
	e.emit(EventConnected, c.Ref())
}

// =============================================================================
// Deletion
// =============================================================================

// DeletePrompt returns the confirmation question for deleting the
// selection, e.g. "Delete node: API Gateway?".
func (e *Editor) DeletePrompt() (string, bool) {
	ref, ok := e.Selection()
	if !ok {
		return "", false
	}
	name := ref.ID
	switch ref.Kind {
	case model.KindNode:
		if n, ok := e.doc.Node(ref.ID); ok {
			name = n.DisplayLabel()
		}
	case model.KindConnection:
		if c, ok := e.doc.Connection(ref.ID); ok {
			name = c.DisplayLabel()
		}
	case model.KindGroup:
		if g, ok := e.doc.Group(ref.ID); ok {
			name = g.DisplayLabel()
		}
	}
	return fmt.Sprintf("Delete %s: %s?", ref.Kind, name), true
}

// Delete asks c to confirm and then deletes the selection. It reports
// whether anything was deleted.
func (e *Editor) Delete(c Confirmer) (bool, error) {
	prompt, ok := e.DeletePrompt()
	if !ok {
		return false, ErrNothingSelected
	}
	if c != nil && !c.Confirm(prompt) {
		return false, nil
	}
	return true, e.DeleteSelected()
}

// DeleteSelected deletes the selection without asking. Deleting a node also
// deletes every connection touching it.
func (e *Editor) DeleteSelected() error {
	ref, ok := e.Selection()
	if !ok {
		return ErrNothingSelected
	}
	e.clearSelection()

	if ref.Kind == model.KindNode {
		_, dropped, _ := e.doc.RemoveNode(ref.ID)
		for _, c := range dropped {
			e.sync.Remove(c.Ref())
			e.emit(EventDeleted, c.Ref())
		}
	} else {
		e.doc.Remove(ref)
	}
	e.sync.Remove(ref)
	observability.Editor().OnMutation("delete", string(ref.Kind), ref.ID)
	e.logger.Debug("deleted", "kind", ref.Kind, "id", ref.ID)
	e.emit(EventDeleted, ref)
	return nil
}

// =============================================================================
// Gizmo
// =============================================================================

// GizmoChanged applies the gizmo's transform to the selected node. In
// translate mode the position is snapped and written to the model and back
// to the gizmo. In scale mode the relative scale is baked into the node's
// size, the gizmo scale is reset and the geometry regenerated. Rotation is
// not part of the document.
func (e *Editor) GizmoChanged() {
	ref, ok := e.Selection()
	if !ok || ref.Kind != model.KindNode {
		return
	}
	n, ok := e.doc.Node(ref.ID)
	if !ok {
		return
	}

	switch e.opts.Mode {
	case ModeTranslate:
		pos := SnapVec(e.gizmo.Position(), e.opts.GridSize, e.opts.Snap)
		e.gizmo.SetPosition(pos)
		if pos == n.Position {
			return
		}
		n.Position = pos
		e.sync.MoveNode(*n, e.doc)
		observability.Editor().OnMutation("move", string(ref.Kind), ref.ID)
	case ModeScale:
		scale := e.gizmo.Scale()
		if scale == (model.Vec3{1, 1, 1}) {
			return
		}
		size := n.Size.Mul(scale)
		for i := range size {
			if size[i] < MinNodeSize {
				size[i] = MinNodeSize
			}
		}
		n.Size = size
		e.gizmo.ResetScale()
		e.sync.ResizeNode(*n)
		observability.Editor().OnMutation("resize", string(ref.Kind), ref.ID)
	default:
		return
	}
	e.emit(EventChanged, ref)
}

// SetMode switches the gizmo mode.
func (e *Editor) SetMode(m Mode) {
	if m == e.opts.Mode {
		return
	}
	e.opts.Mode = m
	e.gizmo.SetMode(m)
	e.emit(EventSettingsChanged, model.Ref{})
}

// ToggleAxis enables or disables one gizmo axis.
func (e *Editor) ToggleAxis(a Axis) {
	e.axes[a] = !e.axes[a]
	e.gizmo.SetAxes(e.axes)
	e.emit(EventSettingsChanged, model.Ref{})
}

// ToggleSnap flips grid snapping and returns the new setting.
func (e *Editor) ToggleSnap() bool {
	e.opts.Snap = !e.opts.Snap
	e.emit(EventSettingsChanged, model.Ref{})
	return e.opts.Snap
}

// SetGridSize changes the snap grid.
func (e *Editor) SetGridSize(g float64) error {
	if g <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "grid size must be positive, got %v", g)
	}
	e.opts.GridSize = g
	e.emit(EventSettingsChanged, model.Ref{})
	return nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Reset returns to Idle after the document was replaced wholesale. It drops
// selection and connection visuals without touching the document.
func (e *Editor) Reset() {
	switch e.state.Kind {
	case Connecting:
		e.CancelConnect()
	case Selected:
		e.Deselect()
	}
	e.gizmo.Detach()
}
