package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/terminal"
)

var (
	shellFlagDir string

	shellCmd = &cobra.Command{
		Use:   "shell <env>",
		Short: "Open a terminal with an environment activated",
		Long: `Open a new terminal window with the environment activated via
'conda run', without requiring 'conda init' shell hooks.`,
		Args: cobra.ExactArgs(1),
		RunE: runShell,
	}
)

func init() {
	shellCmd.Flags().StringVarP(&shellFlagDir, "dir", "d", "", "working directory for the shell (default: home)")
	RootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	env, err := rt.client().FindEnv(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if err := terminal.LaunchForEnv(rt.client().Backend(), env, shellFlagDir); err != nil {
		return err
	}

	fmt.Printf("Opened terminal for %s\n", env.Name)
	return nil
}
