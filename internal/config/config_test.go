package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DSN", "file::memory:?cache=shared")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 1000, cfg.Optimizer.MaxIterations)
	assert.Equal(t, 1.0, cfg.Optimizer.InitialRadius)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OPT_MAX_ITERATIONS", "250")
	t.Setenv("STORE_DSN", "file::memory:?cache=shared")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 250, cfg.Optimizer.MaxIterations)
}

func TestLoadCreatesStoreDir(t *testing.T) {
	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "nested", "runs.db") + "?cache=shared"
	t.Setenv("STORE_DSN", dsn)

	_, err := Load()
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "nested"))
}

func TestStoreDir(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{dsn: "file:data/simplexd.db?cache=shared", want: "data"},
		{dsn: "file::memory:?cache=shared", want: ""},
		{dsn: ":memory:", want: ""},
		{dsn: "runs.db", want: ""},
		{dsn: "file:var/lib/simplexd/runs.db", want: "var/lib/simplexd"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, storeDir(tt.dsn), "dsn %q", tt.dsn)
	}
}
