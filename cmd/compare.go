package cmd

import (
	"fmt"

	"github.com/agentic-research/targetdiff/internal/difftool"
	"github.com/agentic-research/targetdiff/internal/snapshot"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	compareTool  string
	baseSnapshot string
)

func init() {
	compareCmd.Flags().StringVarP(&compareTool, "tool", "t", "", "The tool to use for diffing the target info (default from config, bcompare)")
	compareCmd.Flags().StringVar(&baseSnapshot, "base-snapshot", "", "Read the base target from a snapshot database instead of the project")
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare [project] [base-target] [app-target]",
	Short: "Compare the configuration of app-target to base-target",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseName, appName := args[1], args[2]

		s, ix, err := loadProject(args[0])
		if err != nil {
			return err
		}

		var base []byte
		if baseSnapshot != "" {
			base, err = readSnapshot(baseSnapshot, baseName)
		} else {
			base, err = describeTarget(s, ix, baseName)
		}
		if err != nil {
			return fmt.Errorf("base target %s: %w", baseName, err)
		}
		app, err := describeTarget(s, ix, appName)
		if err != nil {
			return fmt.Errorf("app target %s: %w", appName, err)
		}

		runner := difftool.Runner{
			Tool:      cfg.Tool,
			Fallback:  cfg.FallbackTool,
			KeepFiles: cfg.KeepFiles,
		}
		if compareTool != "" {
			runner.Tool = compareTool
		}
		res, err := runner.Run(cmd.Context(),
			difftool.Named{Name: baseName, Data: base},
			difftool.Named{Name: appName, Data: app})
		if err != nil {
			return err
		}
		log.Debug().Str("tool", res.Tool).Int("exit", res.ExitCode).Msg("diff tool finished")
		_, err = cmd.OutOrStdout().Write(res.Output)
		return err
	},
}

func readSnapshot(dbPath, name string) ([]byte, error) {
	r, err := snapshot.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return r.Get(name)
}
