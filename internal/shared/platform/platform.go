// Package platform holds the per-OS strategy table used for shell discovery,
// child environment setup and tool installation lookup.
//
// The table is keyed by GOOS and resolved once; callers never branch on
// runtime.GOOS themselves.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Profile describes how the backend behaves on one operating system.
type Profile struct {
	OS string

	// ShellCandidates is the ordered fallback list for the default shell.
	// Entries starting with '$' name an environment variable.
	ShellCandidates []string
	// LastResortShell is returned when no candidate validates.
	LastResortShell string

	// PathPrefix is prepended to PATH for PTY children unless PATH already
	// contains PathMarker.
	PathPrefix []string
	PathMarker string

	// UsesPathExt enables PATHEXT suffix probing during lookups.
	UsesPathExt bool

	// ToolNames are the executable names tried for the supervised tool.
	ToolNames []string
	// ToolDirs are install directories searched after PATH. Entries may start
	// with "~" or "$VAR".
	ToolDirs []string
}

const defaultPathExt = ".COM;.EXE;.BAT;.CMD"

var profiles = map[string]Profile{
	"windows": {
		OS:              "windows",
		ShellCandidates: []string{"powershell.exe", "$COMSPEC", "cmd.exe"},
		LastResortShell: "cmd.exe",
		UsesPathExt:     true,
		ToolNames:       []string{"opencode.cmd", "opencode.exe", "opencode"},
		ToolDirs:        []string{`$APPDATA\npm`},
	},
	"darwin": {
		OS:              "darwin",
		ShellCandidates: []string{"$SHELL", "/bin/zsh", "/bin/bash", "/bin/sh"},
		LastResortShell: "/bin/sh",
		PathPrefix:      []string{"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin", "/bin"},
		PathMarker:      "/opt/homebrew/bin",
		ToolNames:       []string{"opencode"},
		ToolDirs:        unixToolDirs,
	},
	"linux": {
		OS:              "linux",
		ShellCandidates: []string{"$SHELL", "/bin/bash", "/bin/sh"},
		LastResortShell: "/bin/sh",
		PathPrefix:      []string{"/usr/local/bin", "/usr/bin", "/bin"},
		PathMarker:      "/usr/local/bin",
		ToolNames:       []string{"opencode"},
		ToolDirs:        unixToolDirs,
	},
}

var unixToolDirs = []string{
	"/opt/homebrew/bin",
	"/usr/local/bin",
	"/usr/bin",
	"~/.local/bin",
	"~/.opencode/bin",
	"~/.bun/bin",
	"~/bin",
}

var (
	current     Profile
	currentOnce sync.Once
)

// Current returns the profile for the running OS.
func Current() Profile {
	currentOnce.Do(func() {
		current = For(runtime.GOOS)
	})
	return current
}

// For returns the profile for goos. Unknown unix-likes get the linux profile.
func For(goos string) Profile {
	if p, ok := profiles[goos]; ok {
		return p
	}
	p := profiles["linux"]
	p.OS = goos
	return p
}

// PathExts returns the executable suffixes to try, lowercased. It is empty
// on platforms without PATHEXT semantics.
func (p Profile) PathExts(lookupEnv func(string) (string, bool)) []string {
	if !p.UsesPathExt {
		return nil
	}
	raw, ok := lookupEnv("PATHEXT")
	if !ok || strings.TrimSpace(raw) == "" {
		raw = defaultPathExt
	}
	var exts []string
	for _, ext := range strings.Split(raw, ";") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

// ChildPath returns the PATH value a PTY child should see.
func (p Profile) ChildPath(current string) string {
	if len(p.PathPrefix) == 0 || strings.Contains(current, p.PathMarker) {
		return current
	}
	prefix := strings.Join(p.PathPrefix, string(os.PathListSeparator))
	if current == "" {
		return prefix
	}
	return prefix + string(os.PathListSeparator) + current
}

// ExpandDir resolves "~" and a leading "$VAR" in an install directory entry.
// It returns false when the referenced variable or home directory is unknown.
func ExpandDir(dir string, lookupEnv func(string) (string, bool), home string) (string, bool) {
	switch {
	case strings.HasPrefix(dir, "~"):
		if home == "" {
			return "", false
		}
		return filepath.Join(home, strings.TrimPrefix(dir, "~")), true
	case strings.HasPrefix(dir, "$"):
		name, rest, _ := strings.Cut(strings.TrimPrefix(dir, "$"), `\`)
		val, ok := lookupEnv(name)
		if !ok || val == "" {
			return "", false
		}
		if rest == "" {
			return val, true
		}
		return val + `\` + rest, true
	}
	return dir, true
}
