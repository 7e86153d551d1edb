package errdefs

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesSentinelOfItsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", NotFound("terminal.write", "session not found: %s", "pty_1"), ErrNotFound},
		{"invalid", Invalid("watch.start", "path is not a directory"), ErrInvalid},
		{"spawn", Wrap(KindSpawn, "terminal.create", os.ErrPermission, "failed to start shell"), ErrSpawn},
		{"port", New(KindPortExhausted, "process.start", "no port in 4096-4105"), ErrPortExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.False(t, errors.Is(tt.err, ErrStartTimeout))
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(KindIO, "terminal.write", os.ErrClosed, "write failed")
	require.Error(t, err)

	assert.True(t, errors.Is(err, os.ErrClosed))
	assert.Equal(t, "terminal.write: write failed: "+os.ErrClosed.Error(), err.Error())
	assert.Nil(t, Wrap(KindIO, "op", nil, "ignored"))
}

func TestKindOf(t *testing.T) {
	inner := NotFound("watch.start", "directory not found")
	wrapped := fmt.Errorf("outer: %w", inner)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}
