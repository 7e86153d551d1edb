//go:build windows

package supervisor

import (
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

// detach keeps the child from opening a console window.
func detach(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= windows.CREATE_NO_WINDOW
	cmd.SysProcAttr.HideWindow = true
}

// signalTree has no graceful variant on windows. opencode.cmd runs the
// server under a cmd.exe wrapper, so the tree is killed with taskkill.
func signalTree(cmd *exec.Cmd, _ bool) {
	if cmd.Process == nil {
		return
	}
	kill := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(cmd.Process.Pid))
	detach(kill)
	if err := kill.Run(); err != nil {
		_ = cmd.Process.Kill()
	}
}
