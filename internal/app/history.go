package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/output"
)

var (
	historyFlagLimit int

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recent operations",
		Long: `Show the journal of recent operations: clones, renames, deletes,
package changes and cleans, with their outcome and timing.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyFlagLimit, "limit", "n", 20, "maximum entries to show")
	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	ops, err := rt.store.ListOperations(historyFlagLimit)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		fmt.Println("No operations recorded yet.")
		return nil
	}

	fmt.Println(output.RenderOperationTable(ops))
	return nil
}
