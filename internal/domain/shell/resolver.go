// Package shell picks the interactive shell used for terminal sessions.
package shell

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/platform"
)

// Resolver validates shell candidates against the filesystem and PATH.
type Resolver struct {
	profile   platform.Profile
	lookupEnv func(string) (string, bool)
	isFile    func(string) bool
}

// NewResolver creates a resolver for the running platform.
func NewResolver() *Resolver {
	return &Resolver{
		profile:   platform.Current(),
		lookupEnv: os.LookupEnv,
		isFile:    isRegularFile,
	}
}

// WithProfile overrides the platform profile.
func (r *Resolver) WithProfile(p platform.Profile) *Resolver {
	r.profile = p
	return r
}

// WithEnv overrides environment lookups.
func (r *Resolver) WithEnv(lookup func(string) (string, bool)) *Resolver {
	r.lookupEnv = lookup
	return r
}

// Resolve returns the preferred shell when it validates, otherwise the first
// valid platform candidate, otherwise the platform's last resort. It never
// fails; a bad result surfaces when the shell is spawned.
func (r *Resolver) Resolve(preferred string) string {
	if name := normalize(preferred); name != "" {
		if path, ok := r.validate(name); ok {
			return path
		}
	}

	for _, candidate := range r.profile.ShellCandidates {
		if strings.HasPrefix(candidate, "$") {
			val, ok := r.lookupEnv(strings.TrimPrefix(candidate, "$"))
			if !ok {
				continue
			}
			candidate = normalize(val)
		}
		if candidate == "" {
			continue
		}
		if path, ok := r.validate(candidate); ok {
			return path
		}
	}

	return r.profile.LastResortShell
}

// validate returns the usable form of name. Paths are returned as given;
// bare names are returned as given once found on PATH.
func (r *Resolver) validate(name string) (string, bool) {
	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) {
		return name, r.isFile(name)
	}
	if r.searchPath(name) {
		return name, true
	}
	return "", false
}

func (r *Resolver) searchPath(name string) bool {
	pathVar, ok := r.lookupEnv("PATH")
	if !ok || pathVar == "" {
		return false
	}

	exts := r.profile.PathExts(r.lookupEnv)
	hasExt := filepath.Ext(name) != ""

	for _, dir := range filepath.SplitList(pathVar) {
		if dir == "" {
			continue
		}
		if len(exts) == 0 || hasExt {
			if r.isFile(filepath.Join(dir, name)) {
				return true
			}
			continue
		}
		for _, ext := range exts {
			if r.isFile(filepath.Join(dir, name+ext)) {
				return true
			}
		}
	}
	return false
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
