package shell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/platform"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func newTestResolver(profile platform.Profile, vars map[string]string) *Resolver {
	return NewResolver().WithProfile(profile).WithEnv(func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
}

func TestResolvePreferredAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	fish := touch(t, filepath.Join(dir, "fish"))

	r := newTestResolver(platform.For("linux"), nil)

	assert.Equal(t, fish, r.Resolve(fish))
	assert.Equal(t, fish, r.Resolve("  \""+fish+"\"  "))
	assert.Equal(t, fish, r.Resolve("'"+fish+"'"))
}

func TestResolvePreferredRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	sh := touch(t, filepath.Join(dir, "sh"))

	profile := platform.For("linux")
	profile.ShellCandidates = []string{sh}

	r := newTestResolver(profile, nil)
	assert.Equal(t, sh, r.Resolve(dir))
}

func TestResolvePreferredBareNameOnPath(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "nu"))

	r := newTestResolver(platform.For("linux"), map[string]string{"PATH": dir})

	assert.Equal(t, "nu", r.Resolve("nu"))
}

func TestResolveFallsBackToShellEnv(t *testing.T) {
	dir := t.TempDir()
	zsh := touch(t, filepath.Join(dir, "zsh"))

	profile := platform.For("linux")
	profile.ShellCandidates = []string{"$SHELL", filepath.Join(dir, "missing")}

	r := newTestResolver(profile, map[string]string{"SHELL": zsh, "PATH": dir})

	assert.Equal(t, zsh, r.Resolve("does-not-exist"))
	assert.Equal(t, zsh, r.Resolve(""))
}

func TestResolveSkipsMissingCandidates(t *testing.T) {
	dir := t.TempDir()
	bash := touch(t, filepath.Join(dir, "bash"))

	profile := platform.For("darwin")
	profile.ShellCandidates = []string{"$SHELL", filepath.Join(dir, "zsh"), bash}

	r := newTestResolver(profile, nil)
	assert.Equal(t, bash, r.Resolve(""))
}

func TestResolveLastResort(t *testing.T) {
	profile := platform.For("linux")
	profile.ShellCandidates = []string{"$SHELL", "/definitely/not/here"}

	r := newTestResolver(profile, nil)
	assert.Equal(t, "/bin/sh", r.Resolve("nope"))
}

func TestResolveWindowsPathExt(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "pwsh.exe"))

	profile := platform.For("windows")
	profile.ShellCandidates = nil

	r := newTestResolver(profile, map[string]string{
		"PATH":    dir,
		"PATHEXT": ".COM;.EXE",
	})

	assert.Equal(t, "pwsh", r.Resolve("pwsh"))
	assert.Equal(t, "pwsh.exe", r.Resolve("pwsh.exe"))
	assert.Equal(t, "cmd.exe", r.Resolve("pwsh.bat"))
}
