//go:build !linux

package terminal

import "os"

// pollable leaves the master untouched. Darwin's kqueue does not report
// readiness for PTY masters reliably, so reads stay blocking there.
func pollable(ptmx *os.File) (*os.File, error) {
	return ptmx, nil
}

// sessionMembers is only implemented on Linux; elsewhere terminate reaches
// the shell's process group alone.
func sessionMembers(int) []int {
	return nil
}
