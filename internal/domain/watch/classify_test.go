package watch

import (
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/eventbus"
)

func TestKindFor(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want eventbus.ChangeKind
	}{
		{fsnotify.Create, eventbus.ChangeCreate},
		{fsnotify.Write, eventbus.ChangeModify},
		{fsnotify.Chmod, eventbus.ChangeModify},
		{fsnotify.Remove, eventbus.ChangeRemove},
		{fsnotify.Rename, eventbus.ChangeRemove},
		{fsnotify.Create | fsnotify.Write, eventbus.ChangeCreate},
		{fsnotify.Write | fsnotify.Remove, eventbus.ChangeRemove},
	}
	for _, tt := range tests {
		got, ok := kindFor(tt.op)
		assert.True(t, ok, tt.op.String())
		assert.Equal(t, tt.want, got, tt.op.String())
	}

	_, ok := kindFor(0)
	assert.False(t, ok)
}

func TestMatcher(t *testing.T) {
	m, invalid := newMatcher(DefaultIgnoredDirs, []string{"**/*.synctex.gz", "[broken"})
	assert.Equal(t, []string{"[broken"}, invalid)

	tests := []struct {
		rel  string
		want bool
	}{
		{"main.tex", false},
		{"chapters/intro.tex", false},
		{"node_modules", true},
		{"node_modules/pkg/index.js", true},
		{"paper/.git/HEAD", true},
		{"build", true},
		{"builder/notes.md", false},
		{"main.synctex.gz", true},
		{"out/main.pdf", true},
		{"figures/out.png", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.match(tt.rel), tt.rel)
	}
}

func TestStripRoot(t *testing.T) {
	root := filepath.FromSlash("/work/paper")

	rel, ok := stripRoot(root, filepath.FromSlash("/work/paper/chapters/intro.tex"))
	assert.True(t, ok)
	assert.Equal(t, "chapters/intro.tex", rel)

	rel, ok = stripRoot(root, root)
	assert.True(t, ok)
	assert.Equal(t, "", rel)

	_, ok = stripRoot(root, filepath.FromSlash("/work/paper2/main.tex"))
	assert.False(t, ok)
}
