// Package editor implements interactive selection and manipulation of a
// diagram document.
//
// An [Editor] owns a small state machine:
//
//	Idle ──pick──▶ Selected ──pick empty / Escape──▶ Idle
//	  │               │
//	  └──shift+pick node──▶ Connecting ──pick other node──▶ Idle (+ connection)
//	                          │
//	                          └──pick anything else / Escape──▶ Idle
//
// Every operation updates the [model.Document] first and the scene second,
// through a [scene.Sync]. Subscribers registered with [Editor.Subscribe]
// are notified after both are consistent, which is how inspectors and
// status lines stay current.
//
// The transform [Gizmo] is attached to the selected node only. After the
// host reports a drag with [Editor.GizmoChanged], the editor snaps
// translations to the grid and bakes scale into the node's size.
package editor
