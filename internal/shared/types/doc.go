// Package types holds the data structures shared by the service registry,
// the providers and the HTTP surface.
//
// Core Types:
//   - Service: a provider definition with its tools
//   - Tool, Parameter: a callable operation and its inputs
//   - Result: the envelope every tool call returns
//   - ExecuteRequest: the body of POST /services/execute
package types
