package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_RequiresPath(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "stock", "sealed-blob"))

	value, ok, err := s.Get(ctx, "stock")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sealed-blob", value)
}

func TestStorage_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	ctx := context.Background()

	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "products", "[]"))

	second, err := New(path)
	require.NoError(t, err)

	value, ok, err := second.Get(ctx, "products")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)
}

func TestStorage_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Delete(ctx, "k"))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Delete(ctx, "k"))
}

func TestStorage_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := New(path)
	assert.Error(t, err)
}
