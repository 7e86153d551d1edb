package supervisor

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/platform"
)

// LocatorFunc finds the OpenCode executable.
type LocatorFunc func() (string, bool)

// Locate searches PATH for the platform's OpenCode names, then the usual
// install directories.
func Locate(profile platform.Profile) LocatorFunc {
	return func() (string, bool) {
		for _, name := range profile.ToolNames {
			if path, err := exec.LookPath(name); err == nil {
				return path, true
			}
		}

		home, _ := os.UserHomeDir()
		for _, dir := range profile.ToolDirs {
			expanded, ok := platform.ExpandDir(dir, os.LookupEnv, home)
			if !ok {
				continue
			}
			for _, name := range profile.ToolNames {
				candidate := filepath.Join(expanded, name)
				if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
					return candidate, true
				}
			}
		}
		return "", false
	}
}
