package terminal

import (
	"os"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// pollable re-opens the PTY master in non-blocking mode so that it is served
// by the runtime poller and Close interrupts a pending Read. The original
// file is closed on success.
func pollable(ptmx *os.File) (*os.File, error) {
	fd, err := unix.FcntlInt(ptmx.Fd(), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return ptmx, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return ptmx, err
	}

	master := os.NewFile(uintptr(fd), ptmx.Name())
	_ = ptmx.Close()
	return master, nil
}

// sessionMembers lists the processes whose session id is sid.
func sessionMembers(sid int) []int {
	procs, err := procfs.AllProcs()
	if err != nil {
		return nil
	}

	var pids []int
	for _, p := range procs {
		stat, err := p.Stat()
		if err != nil {
			continue
		}
		if stat.Session == sid {
			pids = append(pids, p.PID)
		}
	}
	return pids
}
