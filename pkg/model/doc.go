// Package model holds the in-memory diagram document: nodes, connections and
// groups kept in insertion order.
//
// # Entities
//
// A [Node] is a 3D box with a center position and per-axis size. A
// [Connection] links two nodes by id. A [Group] is a labeled axis-aligned
// bounding box. Node membership in a group is a plain id reference
// ([NoGroup] when unset); groups never own their members.
//
// # Invariants
//
// Ids are unique per kind. Connections may reference nodes that do not exist
// (a dangling endpoint); such connections survive in the document and are
// skipped when visualized. Removing a node cascades to every connection that
// names it as either endpoint. Removing a group touches nothing else.
//
// Ids produced by [Document.NewID] are never reused while the document is
// loaded, including ids of entities that were deleted.
//
// # Concurrency
//
// A Document is owned by one event loop. It is not safe for concurrent use.
// Pointers returned by [Document.Node], [Document.Connection] and
// [Document.Group] point into the backing sequences and become stale after
// the next add, remove or replace.
package model
