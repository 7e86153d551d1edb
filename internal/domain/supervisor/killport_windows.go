//go:build windows

package supervisor

import (
	"context"
	"os/exec"
	"strconv"
)

func listeners(ctx context.Context, port int) ([]int, error) {
	out, err := runLookup(ctx, "process.kill_port", "netstat", "-ano")
	if err != nil {
		return nil, err
	}
	return parseNetstatPIDs(out, port), nil
}

func killPID(ctx context.Context, pid int) error {
	cmd := exec.CommandContext(ctx, "taskkill", "/F", "/PID", strconv.Itoa(pid))
	detach(cmd)
	return cmd.Run()
}
