package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagConfigDir string
	flagDBPath    string
	flagLogFile   string
	flagVerbose   bool

	// RootCmd is the root command for condanest.
	RootCmd = &cobra.Command{
		Use:   "condanest",
		Short: "Manage Conda/Mamba environments from one place",
		Long: `condanest wraps an installed conda or mamba and gives you one
place to list, clone, rename, export and delete environments, browse and
install packages, and reclaim disk space from caches.

condanest never manipulates environment directories itself: every action
shells out to the detected backend and re-reads its state afterwards, so
it always agrees with what 'conda' would tell you in a terminal.

Quick Start:
  1. condanest envs            # list environments
  2. condanest clean --dry-run # see how much disk space Conda uses
  3. condanest serve           # start the local web UI

Examples:
  # Clone an environment
  condanest clone ml-project ml-project-experiment

  # Rename an environment (clone, verify, then offer to delete the old one)
  condanest rename old-name new-name

  # Export every environment to YAML files
  condanest export-all ~/conda-backups

  # Reclaim cache space (estimate first, then confirm)
  condanest clean`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("condanest: Conda/Mamba environment manager")
			fmt.Println()
			fmt.Println("Run 'condanest envs' to list environments.")
			fmt.Println("Run 'condanest --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default: ~/.config/condanest)")
	RootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "database path (default: ~/.condanest/condanest.db)")
	RootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "command log path (default: ~/.condanest/commands.log)")
	RootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "also log to stderr")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}
