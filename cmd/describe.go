package cmd

import (
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe [project] [target]",
	Short: "Print the descriptor of a target as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ix, err := loadProject(args[0])
		if err != nil {
			return err
		}
		out, err := describeTarget(s, ix, args[1])
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
