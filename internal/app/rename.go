package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/store"
)

var (
	renameFlagYes     bool
	renameFlagKeepOld bool

	renameCmd = &cobra.Command{
		Use:   "rename <env> <new-name>",
		Short: "Rename an environment (clone, verify, then delete the old one)",
		Long: `Rename an environment. The backend has no native rename, so
condanest clones the environment under the new name, re-lists
environments to verify the clone is present, and only then offers to
delete the old one.

The old environment is never deleted unless the clone verifiably
succeeded and you confirm. A failure at any step leaves at least the old
environment intact; there is no partially-renamed state.`,
		Example: `  # Rename with a confirmation prompt for the delete step
  condanest rename old-name new-name

  # Rename and delete the old environment without prompting
  condanest rename old-name new-name --yes

  # Clone under the new name but keep the old environment
  condanest rename old-name new-name --keep-old`,
		Args: cobra.ExactArgs(2),
		RunE: runRename,
	}
)

func init() {
	renameCmd.Flags().BoolVar(&renameFlagYes, "yes", false, "delete the old environment without prompting")
	renameCmd.Flags().BoolVar(&renameFlagKeepOld, "keep-old", false, "never delete the old environment")

	RootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
	oldName, newName := args[0], args[1]

	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	env, err := rt.client().FindEnv(cmd.Context(), oldName)
	if err != nil {
		return err
	}

	confirm := func(old *conda.Environment) bool {
		if renameFlagKeepOld {
			return false
		}
		if renameFlagYes {
			return true
		}
		return promptYesNo(fmt.Sprintf("Clone verified. Delete old environment %q?", old.Name))
	}
	progress := func(msg string) {
		fmt.Println(msg)
	}

	var result *conda.RenameResult
	err = rt.journal(store.OpRename, oldName, func(client *conda.Client) error {
		var flowErr error
		result, flowErr = conda.Rename(cmd.Context(), client, env, newName, confirm, progress)
		return flowErr
	})
	if err != nil {
		return err
	}

	if result.OldRemoved {
		fmt.Printf("Renamed %s to %s\n", oldName, newName)
	} else {
		fmt.Printf("Created %s; old environment %s kept\n", newName, oldName)
	}
	return nil
}
