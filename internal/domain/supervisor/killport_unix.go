//go:build !windows

package supervisor

import (
	"context"
	"strconv"

	"golang.org/x/sys/unix"
)

func listeners(ctx context.Context, port int) ([]int, error) {
	out, err := runLookup(ctx, "process.kill_port", "lsof", "-ti", "tcp:"+strconv.Itoa(port), "-sTCP:LISTEN")
	if err != nil {
		return nil, err
	}
	return parseLsofPIDs(out), nil
}

func killPID(_ context.Context, pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}
