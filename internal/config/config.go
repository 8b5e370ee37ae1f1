// Package config loads the handful of environment-driven options that
// govern a parse/resolve run: strict-mode, import-depth limits, and the
// language-service cache's DSN. Env vars use the SCHEMALANG_ prefix,
// with sane defaults and defensively parsed ints; a `.env` file is
// loaded first when present.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Options controls the ambient behavior of a Parse/Resolve call that
// isn't part of the Schema DSL's own semantics.
type Options struct {
	// StrictMode promotes every warning a run produces (e.g. "redundant
	// type annotation") to an error, for CI-style enforcement.
	StrictMode bool
	// MaxImportDepth bounds the import graph traversal;
	// zero means unlimited.
	MaxImportDepth int
	// CacheDSN, when non-empty, is passed to internal/cache.Open: a
	// local sqlite file path, or a libsql://|http(s):// remote DSN.
	CacheDSN string
}

const (
	envStrictMode     = "SCHEMALANG_STRICT_MODE"
	envMaxImportDepth = "SCHEMALANG_MAX_IMPORT_DEPTH"
	envCacheDSN       = "SCHEMALANG_CACHE_DSN"
)

// Load reads Options from the process environment, after first loading
// a `.env` file from the working directory if one exists. A missing or
// unreadable `.env` is not an error: godotenv.Load's return value is
// deliberately discarded.
func Load() *Options {
	_ = godotenv.Load()

	opts := &Options{
		StrictMode:     boolEnv(envStrictMode, false),
		MaxImportDepth: intEnv(envMaxImportDepth, 0),
		CacheDSN:       os.Getenv(envCacheDSN),
	}
	return opts
}

func boolEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
