package cmd

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/agentic-research/targetdiff/api"
	"github.com/agentic-research/targetdiff/internal/describe"
	"github.com/agentic-research/targetdiff/internal/snapshot"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [project] [output.db] [target...]",
	Short: "Record target descriptors in a SQLite database",
	Long: `Record the descriptors of the named targets, or of every target in the
project, so a later compare can use them through --base-snapshot.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, output := args[0], args[1]

		s, ix, err := loadProject(source)
		if err != nil {
			return err
		}

		names := args[2:]
		explicit := len(names) > 0
		if !explicit {
			names = slices.Compact(s.TargetNames())
		}

		start := time.Now()
		descriptors := make([]*api.Descriptor, len(names))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(cfg.SnapshotWorkers)
		for i, name := range names {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				target, err := describe.FindTarget(s, name)
				if err != nil {
					if explicit {
						return err
					}
					log.Warn().Err(err).Msg("skipping target")
					return nil
				}
				descriptors[i], err = describe.Describe(s, ix, target)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		_ = os.Remove(output) // Overwrite
		writer, err := snapshot.Create(output)
		if err != nil {
			return err
		}
		written := 0
		for _, d := range descriptors {
			if d == nil {
				continue
			}
			if err := writer.Put(d); err != nil {
				_ = writer.Close()
				return err
			}
			written++
		}
		if err := writer.Close(); err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d targets in %s (%v).\n",
			written, output, time.Since(start).Round(time.Millisecond))
		return err
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
