// Package server exposes a diagram over HTTP.
//
// It is the network side of the initial load: the editor fetches
// /data/nodes.yaml, /data/connections.yaml and /data/groups.yaml from it.
// Beyond that it serves whole-document import and export, rendered
// artifacts and a shared snapshot slot per workspace.
//
// # Routes
//
//	GET    /health
//	GET    /data/{section}.yaml
//	GET    /api/document?format=yaml|json
//	PUT    /api/document
//	GET    /api/render.{format}?width=&height=&refresh=true
//	GET    /api/snapshots/{workspace}
//	PUT    /api/snapshots/{workspace}
//	DELETE /api/snapshots/{workspace}
//
// Errors are JSON objects with "code", "title" and "message" fields. The
// HTTP status follows the error code: invalid input, syntax and schema
// errors are 400, missing things 404, anything else 500.
package server
