package terminal

import (
	"strings"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/platform"
)

// childEnv derives a PTY child's environment from base: PATH gains the
// platform's common binary directories and the terminal capability
// variables are forced.
func childEnv(base []string, profile platform.Profile) []string {
	env := make([]string, 0, len(base)+3)
	pathKey, pathVal := "PATH", ""

	for _, kv := range base {
		key, val, _ := strings.Cut(kv, "=")
		switch {
		case strings.EqualFold(key, "PATH"):
			pathKey, pathVal = key, val
		case key == "TERM", key == "COLORTERM":
		default:
			env = append(env, kv)
		}
	}

	return append(env,
		pathKey+"="+profile.ChildPath(pathVal),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
	)
}
