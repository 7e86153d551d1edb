// Package supervisor runs at most one OpenCode server child process.
//
// The supervisor locates the executable, picks a free port, spawns
// "opencode serve --port N" in the project directory and waits until the
// port accepts connections. Output lines are forwarded to the event bus as
// opencode-log events and lifecycle transitions as opencode-status events.
//
// An OpenCode server started outside this process is detected by Status
// but never owned: Stop leaves it alone. KillPort is the way to get rid of
// such an instance.
package supervisor
