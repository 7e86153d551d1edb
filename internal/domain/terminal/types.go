package terminal

import (
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/id"
)

// CreateOptions describes a new session. Zero Cols/Rows fall back to the
// manager defaults; an empty WorkingDir means the user's home directory.
type CreateOptions struct {
	WorkingDir string
	Cols       uint16
	Rows       uint16
	Shell      string
}

// SessionInfo is a snapshot of a registered session.
type SessionInfo struct {
	ID         id.SessionID `json:"id"`
	Shell      string       `json:"shell"`
	WorkingDir string       `json:"working_dir"`
	Cols       uint16       `json:"cols"`
	Rows       uint16       `json:"rows"`
	StartedAt  time.Time    `json:"started_at"`
	Exited     bool         `json:"exited"`
	ExitCode   *int         `json:"exit_code,omitempty"`
}

// Session is a PTY-backed shell. It is owned by the Manager; the reader and
// waiter goroutines only hold references to ptmx and cmd.
type Session struct {
	ID         id.SessionID
	Shell      string
	WorkingDir string
	StartedAt  time.Time

	cmd  *exec.Cmd
	ptmx *os.File

	mu       sync.Mutex
	cols     uint16
	rows     uint16
	exited   bool
	exitCode int

	writeMu   sync.Mutex
	closeOnce sync.Once
	// procDone is closed once cmd.Wait has returned and procCode is set.
	procDone chan struct{}
	procCode int
}

func (s *Session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SessionInfo{
		ID:         s.ID,
		Shell:      s.Shell,
		WorkingDir: s.WorkingDir,
		Cols:       s.cols,
		Rows:       s.rows,
		StartedAt:  s.StartedAt,
		Exited:     s.exited,
	}
	if s.exited {
		code := s.exitCode
		info.ExitCode = &code
	}
	return info
}

func (s *Session) closePTY() {
	s.closeOnce.Do(func() {
		_ = s.ptmx.Close()
	})
}

// waitExit returns the process exit code, or -1 if the process has not been
// reaped within grace.
func (s *Session) waitExit(grace time.Duration) int {
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-s.procDone:
		return s.procCode
	case <-timer.C:
		return -1
	}
}

func (s *Session) markExited(code int) {
	s.mu.Lock()
	s.exited = true
	s.exitCode = code
	s.mu.Unlock()
}
