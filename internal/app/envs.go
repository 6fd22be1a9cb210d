package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/output"
)

var (
	envsFlagJSON  bool
	envsFlagSizes bool

	envsCmd = &cobra.Command{
		Use:   "envs",
		Short: "List Conda/Mamba environments",
		Long: `List all environments known to the detected backend.

The listing is always fresh: condanest re-queries the backend on every
call instead of caching. Environments whose directory no longer exists
are flagged stale. Use --sizes to compute on-disk sizes (slow on large
environments; results are cached until the environment changes).`,
		Example: `  # List environments
  condanest envs

  # Include on-disk sizes
  condanest envs --sizes

  # Machine-readable output
  condanest envs --json`,
		RunE: runEnvs,
	}
)

func init() {
	envsCmd.Flags().BoolVar(&envsFlagJSON, "json", false, "output as JSON")
	envsCmd.Flags().BoolVar(&envsFlagSizes, "sizes", false, "compute on-disk sizes")

	RootCmd.AddCommand(envsCmd)
}

func runEnvs(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	envs, err := rt.client().ListEnvs(cmd.Context())
	if err != nil {
		return err
	}

	if envsFlagSizes {
		spinner := output.NewSpinner("Computing environment sizes...")
		spinner.Start()
		for _, env := range envs {
			if !env.Stale {
				env.SizeBytes = rt.janitor.EnvSize(env)
			}
		}
		spinner.Stop()
	}

	if envsFlagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(envs)
	}

	backend := rt.client().Backend()
	fmt.Printf("Backend: %s %s (%s)\n\n", backend.Kind, backend.Version, backend.Executable)
	fmt.Print(output.RenderEnvTable(envs))
	return nil
}
