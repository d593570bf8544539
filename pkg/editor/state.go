package editor

import "github.com/matzehuels/thinkingspace/pkg/model"

// StateKind is the selection state of the editor.
type StateKind int

const (
	// Idle: nothing selected.
	Idle StateKind = iota
	// Selected: one entity is selected; nodes carry the gizmo.
	Selected
	// Connecting: a connection is being drawn from a node.
	Connecting
)

func (k StateKind) String() string {
	switch k {
	case Selected:
		return "selected"
	case Connecting:
		return "connecting"
	}
	return "idle"
}

// State is the current selection state. Ref is the selected entity in
// Selected and the source node in Connecting.
type State struct {
	Kind StateKind
	Ref  model.Ref
}

// EventType classifies editor events.
type EventType int

const (
	EventSelected EventType = iota
	EventDeselected
	// EventChanged: a property of Ref changed in the model.
	EventChanged
	EventAdded
	EventDeleted
	EventConnectStarted
	EventConnectCanceled
	EventConnected
	// EventSettingsChanged: mode, axes, snap or grid size changed.
	EventSettingsChanged
)

func (t EventType) String() string {
	return [...]string{
		"selected", "deselected", "changed", "added", "deleted",
		"connect-started", "connect-canceled", "connected", "settings-changed",
	}[t]
}

// Event is delivered to subscribers after the editor's state and the model
// have been updated.
type Event struct {
	Type  EventType
	Ref   model.Ref
	State State
}

// Listener receives editor events.
type Listener func(Event)
