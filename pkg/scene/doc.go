// Package scene keeps a visual scene in step with a diagram document.
//
// The scene is drawn by an external [Renderer], which owns geometry and
// texture resources behind opaque [Handle] values. [Sync] maintains one
// [Entry] per live entity: groups, nodes and connections each render into
// their own [Layer]. Changes are applied incrementally (AddNode, MoveNode,
// ResizeNode, Relabel, ...) or by a full [Sync.Render], which rebuilds the
// scene in the order groups, nodes, connections.
//
// # Resources
//
// Whenever a primitive's geometry or texture is replaced, the old resource is
// released before the replacement is created. [MemoryRenderer.Live] makes
// leaks observable in tests.
//
// # Arcs
//
// A connection is drawn as a quadratic curve from its source node's center to
// its target's, through a control point raised by [ArcLift] × |Δx| above the
// straight-line midpoint, sampled with at least [MinArcSegments] segments.
// The same rule draws the rubber-band preview while the editor is connecting.
//
// # Labels
//
// Node and group labels float [LabelOffset] above the entity center; group
// labels are drawn at [GroupLabelScale]. Connection labels float
// [ConnectionLabelOffset] above the arc midpoint in the connection color.
//
// # Dangling connections
//
// A connection whose endpoint is missing from the document is a referential
// gap: it is skipped and logged at debug level, never drawn partially.
package scene
