// Package pkg provides the core libraries of ThinkingSpace, an editor for 3D
// system architecture diagrams.
//
// # Overview
//
// A diagram is a document of nodes (boxes placed in 3D space), connections
// (arcs between two nodes) and groups (axis-aligned regions). The pkg
// directory is organized into four areas:
//
//  1. Domain - [model] holds the document, [codec] reads and writes it
//  2. Editing - [scene], [editor], [inspector] and [session]
//  3. Output - [export] with the [render/dot] and [render/raster] renderers
//  4. Infrastructure - [store], [loader], [server], [config] and friends
//
// # Architecture
//
// The data flow of an editing session:
//
//	section files / document file / URL
//	         ↓
//	    [loader] or [codec] (parse and check sections)
//	         ↓
//	    [model] document
//	         ↓
//	    [session] → [scene] (retained primitives) ← [editor] (selection, gizmo)
//	         ↓                                         ↑
//	    [store] snapshots                         [inspector] panel
//	         ↓
//	    [export] → YAML, JSON, DOT, SVG, PNG
//
// The document is always mutated first and the scene second; the scene is
// a projection of the document and can be rebuilt from it at any time.
//
// # Quick Start
//
// Load a diagram, move a node and render it:
//
//	import (
//	    "github.com/matzehuels/thinkingspace/pkg/codec"
//	    "github.com/matzehuels/thinkingspace/pkg/editor"
//	    "github.com/matzehuels/thinkingspace/pkg/scene"
//	    "github.com/matzehuels/thinkingspace/pkg/session"
//	    "github.com/matzehuels/thinkingspace/pkg/render/dot"
//	)
//
//	doc, _ := codec.ReadFile("system-architecture.yaml")
//	r := scene.NewMemoryRenderer()
//	sess := session.New(doc, r, session.Options{Picker: r, Editor: editor.DefaultOptions()}, nil)
//
//	sess.Editor().Click(0, 0, false)         // select what lies at x=0, z=0
//	svg, _ := dot.Render(ctx, sess.Document(), dot.Options{})
//
// # Main Packages
//
//   - [model]: Document, Node, Connection, Group and id generation
//   - [codec]: the block (YAML) and record (JSON) dialects, section files
//   - [scene]: the renderer capability, primitive factory and synchronizer
//   - [editor]: the selection state machine, transform gizmo and mutations
//   - [inspector]: property fields of the selection bound to a panel
//   - [session]: the composition root with text pane, snapshots and file watching
//   - [export]: concurrent multi-format export with artifact caching
//   - [store]: key/value persistence on disk, in memory, Redis or MongoDB
//   - [loader]: the initial concurrent load of the three section files
//   - [server]: the HTTP API serving section files, renders and snapshots
//
// [model]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/model
// [codec]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/codec
// [scene]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/scene
// [editor]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/editor
// [inspector]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/inspector
// [session]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/session
// [export]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/export
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/render/dot
// [render/raster]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/render/raster
// [store]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/store
// [loader]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/loader
// [server]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/thinkingspace/pkg/config
package pkg
