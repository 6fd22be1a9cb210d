package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/output"
	"github.com/condanest/condanest/internal/store"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <env> <new-name>",
	Short: "Clone an environment under a new name",
	Long: `Clone an environment. The source environment is never modified;
a failed clone leaves everything exactly as it was.`,
	Args: cobra.ExactArgs(2),
	RunE: runClone,
}

func init() {
	RootCmd.AddCommand(cloneCmd)
}

func runClone(cmd *cobra.Command, args []string) error {
	oldName, newName := args[0], args[1]
	if oldName == newName {
		return fmt.Errorf("new name must differ from %q", oldName)
	}

	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	env, err := rt.client().FindEnv(cmd.Context(), oldName)
	if err != nil {
		return err
	}

	spinner := output.NewSpinner(fmt.Sprintf("Cloning %s to %s...", oldName, newName))
	spinner.Start()
	err = rt.journal(store.OpClone, oldName, func(client *conda.Client) error {
		return client.CloneEnv(cmd.Context(), env, newName)
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("Cloned %s to %s\n", oldName, newName)
	return nil
}
