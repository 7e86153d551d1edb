package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/eventbus"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
)

func newTestManager(t *testing.T, cfg Config) (*Manager, <-chan eventbus.Event) {
	t.Helper()

	bus := eventbus.NewWithBuffer(1024)
	ctx, cancel := context.WithCancel(context.Background())
	events := bus.Subscribe(ctx)

	m := NewManager(bus, nil, cfg)
	t.Cleanup(func() {
		_ = m.Close()
		cancel()
		bus.Close()
	})
	return m, events
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// collect gathers file-changed events until quiet for the given duration.
func collect(events <-chan eventbus.Event, quiet time.Duration) []eventbus.FileChanged {
	var out []eventbus.FileChanged
	for {
		select {
		case ev := <-events:
			if p, ok := ev.Payload.(eventbus.FileChanged); ok {
				out = append(out, p)
			}
		case <-time.After(quiet):
			return out
		}
	}
}

func waitFor(t *testing.T, events <-chan eventbus.Event, want eventbus.FileChanged) []eventbus.FileChanged {
	t.Helper()
	var seen []eventbus.FileChanged
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if p, ok := ev.Payload.(eventbus.FileChanged); ok {
				seen = append(seen, p)
				if p == want {
					return seen
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %+v, saw %+v", want, seen)
			return nil
		}
	}
}

func TestWatchRejectsBadPaths(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())

	err := m.Watch(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, errdefs.ErrNotFound))

	file := filepath.Join(t.TempDir(), "main.tex")
	writeFile(t, file, "x")
	err = m.Watch(file)
	assert.True(t, errors.Is(err, errdefs.ErrInvalid))

	assert.False(t, m.Status().Active)
}

func TestWatchReportsModify(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.tex"), "\\begin{document}")

	m, events := newTestManager(t, DefaultConfig())
	require.NoError(t, m.Watch(dir))

	writeFile(t, filepath.Join(dir, "main.tex"), "\\end{document}")
	waitFor(t, events, eventbus.FileChanged{Path: "main.tex", Kind: eventbus.ChangeModify})
}

func TestWatchDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.tex")
	writeFile(t, path, "a")

	cfg := DefaultConfig()
	cfg.Debounce = time.Second
	m, events := newTestManager(t, cfg)
	require.NoError(t, m.Watch(dir))

	for i := 0; i < 5; i++ {
		writeFile(t, path, "edit")
	}

	got := collect(events, 300*time.Millisecond)
	count := 0
	for _, ev := range got {
		if ev.Path == "main.tex" {
			count++
		}
	}
	assert.Equal(t, 1, count, "events: %+v", got)
}

func TestWatchIgnoresDependencyDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "pkg"), 0o755))

	cfg := DefaultConfig()
	cfg.IgnorePatterns = []string{"**/*.synctex.gz"}
	m, events := newTestManager(t, cfg)
	require.NoError(t, m.Watch(dir))

	writeFile(t, filepath.Join(dir, "node_modules", "pkg", "index.js"), "module.exports = 1")
	writeFile(t, filepath.Join(dir, "main.synctex.gz"), "gz")
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	writeFile(t, filepath.Join(dir, "main.tex"), "tex")

	seen := waitFor(t, events, eventbus.FileChanged{Path: "main.tex", Kind: eventbus.ChangeCreate})
	seen = append(seen, collect(events, 200*time.Millisecond)...)
	for _, ev := range seen {
		assert.NotContains(t, ev.Path, "node_modules")
		assert.NotContains(t, ev.Path, ".git")
		assert.NotContains(t, ev.Path, "synctex")
	}
}

func TestWatchFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	m, events := newTestManager(t, DefaultConfig())
	require.NoError(t, m.Watch(dir))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "chapters"), 0o755))
	waitFor(t, events, eventbus.FileChanged{Path: "chapters", Kind: eventbus.ChangeCreate})

	assert.Eventually(t, func() bool { return m.Status().Dirs == 2 }, 2*time.Second, 10*time.Millisecond)

	writeFile(t, filepath.Join(dir, "chapters", "intro.tex"), "intro")
	waitFor(t, events, eventbus.FileChanged{Path: "chapters/intro.tex", Kind: eventbus.ChangeCreate})
}

func TestWatchRenameIsRemoveThenCreate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "draft.tex"), "draft")

	m, events := newTestManager(t, DefaultConfig())
	require.NoError(t, m.Watch(dir))

	require.NoError(t, os.Rename(filepath.Join(dir, "draft.tex"), filepath.Join(dir, "final.tex")))

	seen := waitFor(t, events, eventbus.FileChanged{Path: "final.tex", Kind: eventbus.ChangeCreate})
	seen = append(seen, collect(events, 200*time.Millisecond)...)
	assert.Contains(t, seen, eventbus.FileChanged{Path: "draft.tex", Kind: eventbus.ChangeRemove})
}

func TestWatchReplaceAndStop(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	m, events := newTestManager(t, DefaultConfig())

	require.NoError(t, m.Watch(first))
	require.NoError(t, m.Watch(second))

	root, err := filepath.EvalSymlinks(second)
	require.NoError(t, err)
	st := m.Status()
	assert.True(t, st.Active)
	assert.Equal(t, root, st.Root)

	writeFile(t, filepath.Join(first, "old.tex"), "old")
	writeFile(t, filepath.Join(second, "new.tex"), "new")
	seen := waitFor(t, events, eventbus.FileChanged{Path: "new.tex", Kind: eventbus.ChangeCreate})
	seen = append(seen, collect(events, 200*time.Millisecond)...)
	for _, ev := range seen {
		assert.NotEqual(t, "old.tex", ev.Path)
	}

	require.NoError(t, m.StopWatch())
	require.NoError(t, m.StopWatch())
	assert.Equal(t, Status{}, m.Status())

	writeFile(t, filepath.Join(second, "after.tex"), "after")
	assert.Empty(t, collect(events, 200*time.Millisecond))
}
