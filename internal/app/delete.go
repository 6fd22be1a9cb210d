package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/output"
	"github.com/condanest/condanest/internal/store"
)

var (
	deleteFlagYes bool

	deleteCmd = &cobra.Command{
		Use:   "delete <env>",
		Short: "Permanently delete an environment",
		Long: `Delete an environment and all its packages. This cannot be
undone; export the environment first if you may want it back.`,
		Args: cobra.ExactArgs(1),
		RunE: runDelete,
	}
)

func init() {
	deleteCmd.Flags().BoolVar(&deleteFlagYes, "yes", false, "skip confirmation prompt")

	RootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	env, err := rt.client().FindEnv(cmd.Context(), name)
	if err != nil {
		return err
	}
	if env.Name == "base" {
		return fmt.Errorf("refusing to delete the base environment")
	}

	if !deleteFlagYes && !promptYesNo(fmt.Sprintf("Permanently delete environment %q? This cannot be undone.", name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	spinner := output.NewSpinner(fmt.Sprintf("Deleting %s...", name))
	spinner.Start()
	err = rt.journal(store.OpDelete, name, func(client *conda.Client) error {
		return client.RemoveEnv(cmd.Context(), env)
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	if err := rt.store.DeleteEnvSize(env.Path); err != nil {
		rt.log.Warn().Err(err).Str("path", env.Path).Msg("failed to drop cached size")
	}
	fmt.Printf("Deleted environment %s\n", name)
	return nil
}
