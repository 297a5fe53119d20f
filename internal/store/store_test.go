package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func TestFileStore_SaveLoad(t *testing.T) {
	s := NewFileStore(t.TempDir())

	var got record
	ok, err := s.Load("state/state.json", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save("state/state.json", record{Name: "a", N: 2}))
	ok, err = s.Load("state/state.json", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, record{Name: "a", N: 2}, got)

	b, err := os.ReadFile(s.Path("state/state.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"a\",\n  \"n\": 2\n}\n", string(b))
}

func TestFileStore_CorruptRecord(t *testing.T) {
	s := NewFileStore(t.TempDir())
	path := s.Path("artifacts/cache/x.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var got record
	_, err := s.Load("artifacts/cache/x.json", &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifacts/cache/x.json")
}

func TestFileStore_SaveText(t *testing.T) {
	s := NewFileStore(t.TempDir())
	require.NoError(t, s.SaveText("artifacts/digest.md", "# Digest\n"))
	b, err := os.ReadFile(s.Path("artifacts/digest.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Digest\n", string(b))
}

func TestFileStore_Lock(t *testing.T) {
	s := NewFileStore(t.TempDir())

	unlock, err := s.Lock("state/.runner.lock")
	require.NoError(t, err)

	_, err = s.Lock("state/.runner.lock")
	assert.True(t, errors.Is(err, ErrRunInProgress))

	require.NoError(t, unlock())
	unlock, err = s.Lock("state/.runner.lock")
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func TestMemStore(t *testing.T) {
	m := NewMemStore()
	require.NoError(t, m.Save("artifacts/results/1.json", record{Name: "r"}))
	require.NoError(t, m.SaveText("artifacts/digest.md", "x"))

	var got record
	ok, err := m.Load("artifacts/results/1.json", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "r", got.Name)

	assert.Equal(t, []string{"artifacts/results/1.json"}, m.Keys("artifacts/results/"))
	assert.Equal(t, "mem://artifacts/digest.md", m.Path("artifacts/digest.md"))

	m.Put("bad.json", []byte("{"))
	_, err = m.Load("bad.json", &got)
	assert.Error(t, err)
}
