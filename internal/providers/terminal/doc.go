// Package terminal exposes PTY sessions as the "terminal" service.
//
// Tools:
//   - terminal.create: spawn a shell, returns its session id
//   - terminal.write: send input
//   - terminal.resize: change the window size
//   - terminal.kill: end a session
//   - terminal.list: describe every registered session
//
// Output and exit notifications are not returned by tools; they are
// published as pty-output and pty-exit events.
package terminal
