// Command writer-backend runs the local backend of LMMs-Lab Writer.
//
// The process hosts PTY terminal sessions, supervises a single OpenCode
// server and watches one project directory. The desktop UI drives it over
// REST and receives notifications on a WebSocket.
//
// Usage:
//
//	# Serve on the default loopback address
//	writer-backend
//
//	# Development logging on another port
//	writer-backend serve --port 9000 --dev
//
//	# Check which shell and OpenCode binary would be used
//	writer-backend doctor --json
//
// Configuration is read from WRITER_* environment variables, for example
// WRITER_SERVER_PORT, WRITER_PROCESS_DEFAULT_PORT or WRITER_WATCH_DEBOUNCE.
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown, killing every terminal session
//     and the supervised server
package main
