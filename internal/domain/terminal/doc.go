// Package terminal manages PTY-backed shell sessions.
//
// Each session owns a shell attached to the subordinate side of a
// pseudo-terminal. Two goroutines serve it:
//   - a reader that streams output as pty-output events and, at end of
//     stream, sends exactly one pty-exit event
//   - a waiter that reaps the shell and records its exit code
//
// Lifecycle:
//
//	Created → Active → Killed   (Kill removes the token from the registry)
//	Created → Active → Exited   (the shell ended; the token stays registered)
//
// Tokens are never reused. Once killed, every operation on a token
// fails with errdefs.ErrNotFound.
//
// Example Usage:
//
//	sid, err := manager.Create(terminal.CreateOptions{WorkingDir: dir, Cols: 120, Rows: 32})
//	manager.Write(sid, []byte("latexmk -pdf main.tex\n"))
//	manager.Resize(sid, 100, 30)
//	manager.Kill(sid)
package terminal
