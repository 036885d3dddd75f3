package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewFileStorage(dir)

	_, ok, err := s.Get(StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(StorageKey, `{"a":1}`))
	v, ok, err := s.Get(StorageKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, v)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dir, StorageKey+".json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	require.NoError(t, s.Set(StorageKey, `{"a":2}`))
	v, _, _ = s.Get(StorageKey)
	assert.Equal(t, `{"a":2}`, v)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, s.Remove(StorageKey))
	require.NoError(t, s.Remove(StorageKey), "removing twice is fine")
	_, ok, _ = s.Get(StorageKey)
	assert.False(t, ok)
}

func TestFileStorage_RejectsPathKeys(t *testing.T) {
	s := NewFileStorage(t.TempDir())
	for _, k := range []string{"", "../user", "a/b", ".."} {
		assert.Error(t, s.Set(k, "x"), k)
	}
}
