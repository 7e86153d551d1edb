// Package process exposes the OpenCode supervisor as the "process" service.
//
// process.status reports either the supervised server or an external one
// found on the default port window. process.kill_port is the only way to
// stop an external server.
package process
