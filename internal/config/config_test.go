package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/schemalang/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("SCHEMALANG_STRICT_MODE")
	os.Unsetenv("SCHEMALANG_MAX_IMPORT_DEPTH")
	os.Unsetenv("SCHEMALANG_CACHE_DSN")

	opts := config.Load()
	require.False(t, opts.StrictMode)
	require.Equal(t, 0, opts.MaxImportDepth)
	require.Empty(t, opts.CacheDSN)
}

func TestLoad_ReadsEnv(t *testing.T) {
	t.Setenv("SCHEMALANG_STRICT_MODE", "true")
	t.Setenv("SCHEMALANG_MAX_IMPORT_DEPTH", "5")
	t.Setenv("SCHEMALANG_CACHE_DSN", "./cache.db")

	opts := config.Load()
	require.True(t, opts.StrictMode)
	require.Equal(t, 5, opts.MaxImportDepth)
	require.Equal(t, "./cache.db", opts.CacheDSN)
}

func TestLoad_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("SCHEMALANG_STRICT_MODE", "not-a-bool")
	t.Setenv("SCHEMALANG_MAX_IMPORT_DEPTH", "-3")

	opts := config.Load()
	require.False(t, opts.StrictMode)
	require.Equal(t, 0, opts.MaxImportDepth)
}
