package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/agentic-research/targetdiff/internal/config"
	"github.com/agentic-research/targetdiff/internal/describe"
	"github.com/agentic-research/targetdiff/internal/graph"
	"github.com/agentic-research/targetdiff/internal/pbxproj"
	"github.com/agentic-research/targetdiff/internal/report"
	"github.com/agentic-research/targetdiff/internal/resolve"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	verbose    bool

	// cfg is loaded once before any subcommand runs.
	cfg = config.Default()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to targetdiff.hcl (default $HOME/.config/targetdiff/targetdiff.hcl)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level=debug")
}

var rootCmd = &cobra.Command{
	Use:           "targetdiff",
	Short:         "Compare the build configuration of Xcode targets",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, explicit := configPath, configPath != ""
		if !explicit {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				return fmt.Errorf("failed to get home dir: %w", err)
			}
		}
		loaded, err := config.Load(path, explicit)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		if verbose {
			level = "debug"
		}
		return setupLogging(cmd.ErrOrStderr(), level, cfg.LogFormat)
	},
}

func setupLogging(w io.Writer, level, format string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	if format == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly})
	}
	return nil
}

// loadProject reads the project at p, a .xcodeproj directory or its
// project.pbxproj file.
func loadProject(p string) (*graph.Store, *resolve.Index, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, nil, err
	}
	s, err := pbxproj.Load(osfs.New(filepath.Dir(abs)), filepath.Base(abs))
	if err != nil {
		return nil, nil, err
	}
	return s, resolve.BuildIndex(s), nil
}

// describeTarget returns the serialized descriptor of the target called name.
func describeTarget(s *graph.Store, ix *resolve.Index, name string) ([]byte, error) {
	target, err := describe.FindTarget(s, name)
	if err != nil {
		return nil, err
	}
	d, err := describe.Describe(s, ix, target)
	if err != nil {
		return nil, err
	}
	return report.Encode(d), nil
}

// userMessage turns an error into the one line printed before exiting.
func userMessage(err error) string {
	if errors.Is(err, pbxproj.ErrNotProject) {
		return "the specified path doesn't seem to contain an Xcode project"
	}
	return err.Error()
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Debug().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "! %s\n", userMessage(err))
		os.Exit(1)
	}
}
