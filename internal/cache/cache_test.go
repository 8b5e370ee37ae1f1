package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/schemalang/internal/cache"
)

func TestOpen_LocalFileRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "schemalang-cache.db")

	c, err := cache.Open(dsn)
	require.NoError(t, err)
	defer c.Close()

	const path = "/virtual/app.teo"
	const text = "model User {\n    id: Int @id\n}\n"
	digest := cache.Digest(text)

	_, ok, err := c.Get(path)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Put(path, digest, []byte(`[]`), []byte(`["app.User"]`)))

	e, ok, err := c.Get(path)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, digest, e.Digest)
	require.JSONEq(t, `["app.User"]`, string(e.ReferencesJSON))

	_, fresh, err := c.Fresh(path, text)
	require.NoError(t, err)
	require.True(t, fresh)

	_, fresh, err = c.Fresh(path, text+"\n")
	require.NoError(t, err)
	require.False(t, fresh)
}

func TestOpen_EmptyDSNErrors(t *testing.T) {
	_, err := cache.Open("")
	require.Error(t, err)
}

func TestOpen_PutOverwritesExistingEntry(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "schemalang-cache.db")
	c, err := cache.Open(dsn)
	require.NoError(t, err)
	defer c.Close()

	const path = "/virtual/app.teo"
	require.NoError(t, c.Put(path, "digest-1", []byte(`[]`), []byte(`[]`)))
	require.NoError(t, c.Put(path, "digest-2", []byte(`[{"code":"E001"}]`), []byte(`["app.User"]`)))

	e, ok, err := c.Get(path)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "digest-2", e.Digest)
	require.JSONEq(t, `[{"code":"E001"}]`, string(e.DiagnosticsJSON))
}
