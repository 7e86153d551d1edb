// Package http exposes the service registry over REST.
//
// Routes:
//
//	GET  /health            liveness and registry stats
//	GET  /services          service catalogue, optionally ?category=
//	POST /services/execute  run one tool: {"tool_id": "terminal.create", "params": {...}}
//
// Failures are returned as a types.Result with success=false and the error
// kind. The HTTP status follows the kind, see StatusFor.
package http
