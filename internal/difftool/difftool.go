// Package difftool hands two descriptors to an external diff program.
package difftool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog/log"
)

var ErrNoTool = errors.New("no diff tool found on PATH")

// Named is a serialized descriptor and the name its file is given.
type Named struct {
	Name string
	Data []byte
}

// Runner launches Tool, or Fallback when Tool is not installed.
type Runner struct {
	Tool      string
	Fallback  string
	KeepFiles bool
}

// Result describes one completed run.
type Result struct {
	Tool     string
	BasePath string
	AppPath  string
	ExitCode int
	Output   []byte
}

// Choose returns the path of the program Run would start.
func (r Runner) Choose() (string, error) {
	for _, name := range []string{r.Tool, r.Fallback} {
		if name == "" {
			continue
		}
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
		log.Debug().Str("tool", name).Msg("diff tool not found")
	}
	return "", fmt.Errorf("%w: tried %q and %q", ErrNoTool, r.Tool, r.Fallback)
}

// Run writes both descriptors to a temporary directory and blocks until the
// diff program exits. Diff programs report differences through a non-zero
// exit status, so only a failure to start is returned as an error.
func (r Runner) Run(ctx context.Context, base, app Named) (Result, error) {
	tool, err := r.Choose()
	if err != nil {
		return Result{}, err
	}

	dir, err := os.MkdirTemp("", "targetdiff-*")
	if err != nil {
		return Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	if r.KeepFiles {
		log.Info().Str("dir", dir).Msg("keeping descriptor files")
	} else {
		defer func() { _ = os.RemoveAll(dir) }()
	}

	// Separate directories keep names that differ only in case apart on
	// case-insensitive filesystems.
	baseName := filepath.Join("base", base.Name+".json")
	appName := filepath.Join("app", app.Name+".json")
	fs := osfs.New(dir)
	for name, data := range map[string][]byte{baseName: base.Data, appName: app.Data} {
		if err := util.WriteFile(fs, name, data, 0o644); err != nil {
			return Result{}, fmt.Errorf("write %s: %w", name, err)
		}
	}

	res := Result{
		Tool:     tool,
		BasePath: filepath.Join(dir, baseName),
		AppPath:  filepath.Join(dir, appName),
	}
	cmd := exec.CommandContext(ctx, tool, res.BasePath, res.AppPath)
	log.Debug().Str("tool", tool).Str("base", res.BasePath).Str("app", res.AppPath).Msg("starting diff tool")

	res.Output, err = cmd.CombinedOutput()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("run %s: %w", tool, err)
	}
	return res, nil
}
