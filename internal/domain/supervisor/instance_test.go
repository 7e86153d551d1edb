package supervisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanLinesTruncatesLongLines(t *testing.T) {
	input := "first\r\n" + strings.Repeat("a", maxLogLine+100) + "\n\nlast"

	var lines []string
	require.NoError(t, scanLines(strings.NewReader(input), func(line string) {
		lines = append(lines, line)
	}))

	require.Len(t, lines, 4)
	assert.Equal(t, "first", lines[0])
	assert.Equal(t, strings.Repeat("a", maxLogLine), lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "last", lines[3])
}

func TestScanLinesReplacesInvalidUTF8(t *testing.T) {
	var lines []string
	require.NoError(t, scanLines(strings.NewReader("ok \xff\n"), func(line string) {
		lines = append(lines, line)
	}))
	assert.Equal(t, []string{"ok �"}, lines)
}
