package eventbus

import "time"

// Topic names an event stream. The values are the names the UI listens for.
type Topic string

const (
	TopicTerminalOutput Topic = "pty-output"
	TopicTerminalExit   Topic = "pty-exit"
	TopicProcessLog     Topic = "opencode-log"
	TopicProcessStatus  Topic = "opencode-status"
	TopicFileChanged    Topic = "file-changed"
)

// Event is one immutable notification.
type Event struct {
	ID        string      `json:"id"`
	Type      Topic       `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TerminalOutput carries one decoded chunk of PTY output.
type TerminalOutput struct {
	SessionID string `json:"id"`
	Data      string `json:"data"`
}

// TerminalExit is sent exactly once per session when its output ends.
type TerminalExit struct {
	SessionID string `json:"id"`
	Code      int    `json:"code"`
}

// Stream tags a supervised process log line.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// ProcessLog carries one line of supervised process output.
type ProcessLog struct {
	Type    Stream `json:"type"`
	Message string `json:"message"`
}

// ProcessState is the supervised process lifecycle state reported to the UI.
type ProcessState string

const (
	StateRunning ProcessState = "running"
	StateStopped ProcessState = "stopped"
)

// ProcessStatus reports a lifecycle transition.
type ProcessStatus struct {
	State ProcessState `json:"state"`
	Port  int          `json:"port,omitempty"`
}

// ChangeKind classifies a filesystem change.
type ChangeKind string

const (
	ChangeCreate ChangeKind = "create"
	ChangeModify ChangeKind = "modify"
	ChangeRemove ChangeKind = "remove"
	ChangeRename ChangeKind = "rename"
)

// FileChanged reports a debounced filesystem change relative to the watch root.
type FileChanged struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
}
