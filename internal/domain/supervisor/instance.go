package supervisor

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// instance is one spawned server process.
type instance struct {
	cmd  *exec.Cmd
	path string
	dir  string
	port int

	stdout *os.File
	stderr *os.File

	tail    *logTail
	readers sync.WaitGroup

	exited   chan struct{}
	exitCode int // valid once exited is closed
}

func (i *instance) pid() int {
	if i.cmd.Process == nil {
		return 0
	}
	return i.cmd.Process.Pid
}

func (i *instance) hasExited() bool {
	select {
	case <-i.exited:
		return true
	default:
		return false
	}
}

// terminate stops the process tree and waits for it, escalating to a
// forced kill after half of timeout.
func (i *instance) terminate(timeout time.Duration) {
	if !i.hasExited() {
		signalTree(i.cmd, false)
		select {
		case <-i.exited:
		case <-time.After(timeout / 2):
			signalTree(i.cmd, true)
			select {
			case <-i.exited:
			case <-time.After(timeout / 2):
			}
		}
	}
	i.drain(timeout / 2)
}

// drain waits for the output readers and force-closes the pipes if a
// surviving grandchild keeps them open.
func (i *instance) drain(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		i.readers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		_ = i.stdout.Close()
		_ = i.stderr.Close()
		<-done
	}
}

// maxLogLine caps a forwarded line. Longer lines are cut and the rest of
// the line is discarded so the pipe keeps draining.
const maxLogLine = 1024 * 1024

// scanLines calls fn for every line read from r until end of stream. A
// closed reader counts as end of stream.
func scanLines(r io.Reader, fn func(line string)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	for {
		chunk, err := br.ReadSlice('\n')
		if room := maxLogLine - len(line); room > 0 {
			line = append(line, chunk[:min(len(chunk), room)]...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		if err == nil || len(line) > 0 {
			line = bytes.TrimSuffix(line, []byte("\n"))
			line = bytes.TrimSuffix(line, []byte("\r"))
			fn(strings.ToValidUTF8(string(line), "\uFFFD"))
		}
		line = line[:0]

		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, os.ErrClosed):
			return nil
		default:
			return err
		}
	}
}

// logTail keeps the most recent output lines for error reports.
type logTail struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newLogTail(max int) *logTail {
	return &logTail{max: max}
}

func (t *logTail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *logTail) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}
