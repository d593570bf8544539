// Package codec converts diagram documents to and from structured text.
//
// # Dialects
//
// Two dialects carry the same logical document:
//
//   - [Block]: indented YAML with a title comment and one comment per section
//     (files ending in .yaml or .yml)
//   - [Record]: JSON objects and arrays (files ending in .json)
//
// Both have three required top-level sections:
//
//	nodes:
//	  - id: "api"
//	    label: "API Gateway"
//	    position: [0, 0, 0]
//	    size: [2, 1, 1]
//	    color: "#3498db"
//	    group: "backend"
//	connections:
//	  - id: "c1"
//	    from: "api"
//	    to: "db"
//	    label: "queries"
//	    color: "#2ecc71"
//	groups:
//	  - id: "backend"
//	    label: "Backend"
//	    bounds:
//	      min: [-4, -2, -2]
//	      max: [4, 2, 2]
//	    color: "#f39c12"
//	    wireframe: true
//
// A section whose value is null is empty. A missing section is a
// SCHEMA_ERROR; text that is not well-formed is a PARSE_ERROR (see
// [github.com/matzehuels/thinkingspace/pkg/errors]).
//
// # Defaults
//
// Only "id" is required on every entity, plus "from" and "to" on
// connections. Missing optional fields take these defaults:
//
//   - node: label = id, position [0,0,0], size [2,1,1], color #3498db, group "none"
//   - connection: label "", color #2ecc71
//   - group: label = id, bounds [-2,-2,-2]..[2,2,2], color #f39c12, wireframe true
//
// Fields the codec does not know are dropped on decode and therefore do not
// survive a round trip.
//
// # Round trip
//
// For every valid document d and either dialect, Unmarshal(Marshal(d))
// equals d. Output is deterministic and preserves insertion order.
//
// # Per-section documents
//
// The initial load fetches nodes, connections and groups as three separate
// documents. [UnmarshalSection] decodes one of them into an existing
// document; there a missing section key means an empty section.
//
// # Export
//
// [MarshalExport] prefixes the output with provenance: a comment header in
// the block dialect, a "metadata" object in the record dialect. Unmarshal
// ignores both.
package codec
