package supervisor

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
)

// KillPort kills every process listening on the given TCP port and returns
// their PIDs. It reaches servers the supervisor does not own.
func (s *Supervisor) KillPort(ctx context.Context, port int) ([]int, error) {
	const op = "process.kill_port"
	if port < 1 || port > 65535 {
		return nil, errdefs.Invalid(op, "invalid port %d", port)
	}

	pids, err := listeners(ctx, port)
	if err != nil {
		return nil, err
	}

	killed := make([]int, 0, len(pids))
	for _, pid := range pids {
		if err := killPID(ctx, pid); err != nil {
			s.logger.Warn("failed to kill port owner", zap.Int("port", port), zap.Int("pid", pid), zap.Error(err))
			continue
		}
		killed = append(killed, pid)
	}

	s.logger.Info("killed port owners", zap.Int("port", port), zap.Ints("pids", killed))
	return killed, nil
}

// runLookup runs a port lookup tool. A non-zero exit with no output means
// nothing matched.
func runLookup(ctx context.Context, op, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	detach(cmd)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(out) == 0 {
			return "", nil
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", errdefs.Wrap(errdefs.KindNotInstalled, op, err, "%s is required to find port owners", name)
		}
		return "", errdefs.Wrap(errdefs.KindIO, op, err, "%s failed", name)
	}
	return string(out), nil
}

// parseLsofPIDs reads the output of "lsof -t", one PID per line.
func parseLsofPIDs(out string) []int {
	seen := map[int]bool{}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		if pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text())); err == nil && pid > 0 {
			seen[pid] = true
		}
	}
	return sortedPIDs(seen)
}

// parseNetstatPIDs reads "netstat -ano" output and returns the owners of
// TCP sockets listening on port.
func parseNetstatPIDs(out string, port int) []int {
	suffix := ":" + strconv.Itoa(port)
	seen := map[int]bool{}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 || !strings.EqualFold(fields[0], "TCP") {
			continue
		}
		if !strings.HasSuffix(fields[1], suffix) || !strings.EqualFold(fields[3], "LISTENING") {
			continue
		}
		if pid, err := strconv.Atoi(fields[4]); err == nil && pid > 0 {
			seen[pid] = true
		}
	}
	return sortedPIDs(seen)
}

func sortedPIDs(set map[int]bool) []int {
	pids := make([]int, 0, len(set))
	for pid := range set {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}
