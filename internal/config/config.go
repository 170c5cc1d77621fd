// Package config reads the optional targetdiff.hcl settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config holds the resolved settings. Zero values never reach callers:
// anything the file leaves out keeps its default.
type Config struct {
	Tool            string
	FallbackTool    string
	LogLevel        string
	LogFormat       string
	KeepFiles       bool
	SnapshotWorkers int
}

// hclConfigFile is the on-disk shape; every attribute is optional.
type hclConfigFile struct {
	Tool            *string `hcl:"tool,optional"`
	FallbackTool    *string `hcl:"fallback_tool,optional"`
	LogLevel        *string `hcl:"log_level,optional"`
	LogFormat       *string `hcl:"log_format,optional"`
	KeepFiles       *bool   `hcl:"keep_files,optional"`
	SnapshotWorkers *int    `hcl:"snapshot_workers,optional"`
}

// Default returns the settings used when no file overrides them.
func Default() Config {
	return Config{
		Tool:            "bcompare",
		FallbackTool:    "opendiff",
		LogLevel:        "warn",
		LogFormat:       "console",
		SnapshotWorkers: 4,
	}
}

// DefaultPath is $HOME/.config/targetdiff/targetdiff.hcl.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "targetdiff", "targetdiff.hcl"), nil
}

// Load reads path over the defaults. A missing file is only an error when
// the caller asked for it explicitly.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, diags)
	}
	var parsed hclConfigFile
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &parsed); diags.HasErrors() {
		return cfg, fmt.Errorf("failed to decode config %s: %w", path, diags)
	}

	if parsed.Tool != nil {
		cfg.Tool = *parsed.Tool
	}
	if parsed.FallbackTool != nil {
		cfg.FallbackTool = *parsed.FallbackTool
	}
	if parsed.LogLevel != nil {
		cfg.LogLevel = *parsed.LogLevel
	}
	if parsed.LogFormat != nil {
		cfg.LogFormat = *parsed.LogFormat
	}
	if parsed.KeepFiles != nil {
		cfg.KeepFiles = *parsed.KeepFiles
	}
	if parsed.SnapshotWorkers != nil {
		cfg.SnapshotWorkers = *parsed.SnapshotWorkers
	}
	return cfg, cfg.validate(path)
}

func (c Config) validate(path string) error {
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("config %s: log_format must be \"console\" or \"json\", got %q", path, c.LogFormat)
	}
	if c.SnapshotWorkers < 1 {
		return fmt.Errorf("config %s: snapshot_workers must be positive, got %d", path, c.SnapshotWorkers)
	}
	if c.Tool == "" {
		return fmt.Errorf("config %s: tool must not be empty", path)
	}
	return nil
}
