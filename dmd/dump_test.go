package dmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticsDumpDisabledByDefault(t *testing.T) {
	var d diagnosticsDump
	assert.False(t, d.enabled())

	d.maybeDump([]byte{1, 2, 3}, log.Default())
}

func TestDiagnosticsDumpWritesEveryNthFrame(t *testing.T) {
	dir := t.TempDir()
	d := newDiagnosticsDump(dir, "frame", 2)
	require.True(t, d.enabled())

	d.maybeDump([]byte{0xAA}, log.Default())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "first of every-2 frames should not be dumped")

	d.maybeDump([]byte{0xBB}, log.Default())
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xBB}, data)
}

func TestDiagnosticsDumpBadPatternLogsAndSkipsWrite(t *testing.T) {
	dir := t.TempDir()
	d := newDiagnosticsDump(dir, "%", 1)

	d.maybeDump([]byte{1}, log.Default())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
