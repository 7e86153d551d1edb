//go:build !windows

package terminal

import (
	"os"

	"golang.org/x/sys/unix"
)

// hangup delivers SIGHUP to the shell's process group, the way a closing
// terminal emulator would.
func hangup(pid int) {
	if err := unix.Kill(-pid, unix.SIGHUP); err != nil {
		_ = unix.Kill(pid, unix.SIGHUP)
	}
}

// terminate kills the shell's process group and every process still
// attached to its session.
func terminate(pid int) {
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil {
		_ = unix.Kill(pid, unix.SIGKILL)
	}
	for _, member := range sessionMembers(pid) {
		_ = unix.Kill(member, unix.SIGKILL)
	}
}

// setSize updates the window size without calling Fd, which would switch the
// master back to blocking mode.
func setSize(f *os.File, cols, rows uint16) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}

	var ioErr error
	if err := rc.Control(func(fd uintptr) {
		ioErr = unix.IoctlSetWinsize(int(fd), unix.TIOCSWINSZ, &unix.Winsize{Row: rows, Col: cols})
	}); err != nil {
		return err
	}
	return ioErr
}
