package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndPath(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save(7, "lista.csv", strings.NewReader("a;b\n"))
	require.NoError(t, err)

	assert.Equal(t, store.Path(7, "lista.csv"), path)
	assert.True(t, store.Exists(7, "lista.csv"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a;b\n", string(data))
}

// TestSaveStripsClientPath tests that a path-carrying filename cannot
// escape the base directory
func TestSaveStripsClientPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir)
	require.NoError(t, err)

	path, err := store.Save(1, "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "1_passwd"), path)
}

func TestRemoveMissingFile(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Remove(99, "nunca.csv"))
}

func TestSweepOlderThan(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	oldPath, err := store.Save(1, "viejo.csv", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = store.Save(2, "nuevo.csv", strings.NewReader("y"))
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, stale, stale))

	removed, err := store.SweepOlderThan(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.False(t, store.Exists(1, "viejo.csv"))
	assert.True(t, store.Exists(2, "nuevo.csv"))
}
