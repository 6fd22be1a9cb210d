package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/output"
	"github.com/condanest/condanest/internal/store"
)

var (
	exportFlagOut string

	exportCmd = &cobra.Command{
		Use:   "export <env>",
		Short: "Export an environment to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	exportAllCmd = &cobra.Command{
		Use:   "export-all <dir>",
		Short: "Export every environment to YAML files in a folder",
		Long: `Export each environment to <dir>/<name>.yml. Useful as a
lightweight backup before bulk changes; re-create with import-folder.`,
		Args: cobra.ExactArgs(1),
		RunE: runExportAll,
	}
)

func init() {
	exportCmd.Flags().StringVarP(&exportFlagOut, "out", "o", "", "output path (default: <env>.yml)")

	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(exportAllCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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

	dest := exportFlagOut
	if dest == "" {
		dest = name + ".yml"
	}

	err = rt.journal(store.OpExport, name, func(client *conda.Client) error {
		return client.ExportEnvYAML(cmd.Context(), env, dest)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Exported %s to %s\n", name, dest)
	return nil
}

func runExportAll(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	envs, err := rt.client().ListEnvs(cmd.Context())
	if err != nil {
		return err
	}

	// Stale environments cannot be exported; report them instead of failing.
	var exportable []*conda.Environment
	for _, env := range envs {
		if env.Stale {
			fmt.Printf("Skipping %s: path missing\n", env.Name)
			continue
		}
		exportable = append(exportable, env)
	}

	spinner := output.NewSpinner("Exporting environments...")
	spinner.Start()
	err = rt.journal(store.OpExport, "", func(client *conda.Client) error {
		return client.ExportAll(cmd.Context(), exportable, args[0], spinner.UpdateMessage)
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d environments to %s\n", len(exportable), args[0])
	return nil
}
