package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "targetdiff.hcl")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.hcl")

	t.Run("default location", func(t *testing.T) {
		cfg, err := Load(missing, false)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("explicit", func(t *testing.T) {
		_, err := Load(missing, true)
		require.Error(t, err)
	})
}

func TestLoad_Overrides(t *testing.T) {
	p := writeConfig(t, `
tool             = "meld"
log_format       = "json"
keep_files       = true
snapshot_workers = 8
`)
	cfg, err := Load(p, true)
	require.NoError(t, err)

	assert.Equal(t, "meld", cfg.Tool)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.KeepFiles)
	assert.Equal(t, 8, cfg.SnapshotWorkers)
	// Untouched attributes keep their defaults.
	assert.Equal(t, "opendiff", cfg.FallbackTool)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", `tool = `, "failed to parse"},
		{"unknown attribute", `colour = "blue"`, "failed to decode"},
		{"wrong type", `snapshot_workers = "many"`, "failed to decode"},
		{"bad format", `log_format = "xml"`, "log_format"},
		{"zero workers", `snapshot_workers = 0`, "snapshot_workers"},
		{"empty tool", `tool = ""`, "tool must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", "/home/someone")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/someone/.config/targetdiff/targetdiff.hcl", p)
}
