package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/output"
	"github.com/condanest/condanest/internal/store"
)

var (
	packagesFlagJSON bool

	packagesCmd = &cobra.Command{
		Use:   "packages <env>",
		Short: "List packages installed in an environment",
		Long: `List the packages installed in an environment, including their
version, build string and channel. Packages installed through pip are
marked with the pip source.`,
		Args: cobra.ExactArgs(1),
		RunE: runPackages,
	}

	searchCmd = &cobra.Command{
		Use:   "search <spec>",
		Short: "Search channels for available packages",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	installCmd = &cobra.Command{
		Use:   "install <env> <spec>...",
		Short: "Install packages into an environment",
		Example: `  condanest install myenv numpy
  condanest install myenv "pandas>=2.0" scipy`,
		Args: cobra.MinimumNArgs(2),
		RunE: runInstall,
	}

	uninstallCmd = &cobra.Command{
		Use:     "uninstall <env> <name>...",
		Aliases: []string{"remove-packages"},
		Short:   "Remove packages from an environment",
		Args:    cobra.MinimumNArgs(2),
		RunE:    runUninstall,
	}

	updateCmd = &cobra.Command{
		Use:   "update <env> [name]...",
		Short: "Update packages in an environment",
		Long: `Update the named packages in an environment, or every package
when no names are given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runUpdate,
	}
)

func init() {
	packagesCmd.Flags().BoolVar(&packagesFlagJSON, "json", false, "output as JSON")

	RootCmd.AddCommand(packagesCmd)
	RootCmd.AddCommand(searchCmd)
	RootCmd.AddCommand(installCmd)
	RootCmd.AddCommand(uninstallCmd)
	RootCmd.AddCommand(updateCmd)
}

func runPackages(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	env, err := rt.client().FindEnv(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	packages, err := rt.client().ListPackages(cmd.Context(), env)
	if err != nil {
		return err
	}

	if packagesFlagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(packages)
	}

	fmt.Println(output.RenderPackageTable(packages))
	fmt.Printf("%d packages in %s\n", len(packages), env.Name)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	spinner := output.NewSpinner(fmt.Sprintf("Searching for %s...", args[0]))
	spinner.Start()
	packages, err := rt.client().SearchPackages(cmd.Context(), args[0])
	spinner.Stop()
	if err != nil {
		return err
	}

	if len(packages) == 0 {
		fmt.Printf("No packages found for %q\n", args[0])
		return nil
	}

	fmt.Println(output.RenderPackageTable(packages))
	return nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	return packageOp(cmd, args[0], store.OpInstall, "Installing", func(client *conda.Client, env *conda.Environment) error {
		return client.InstallPackages(cmd.Context(), env, args[1:])
	})
}

func runUninstall(cmd *cobra.Command, args []string) error {
	return packageOp(cmd, args[0], store.OpRemove, "Removing", func(client *conda.Client, env *conda.Environment) error {
		return client.RemovePackages(cmd.Context(), env, args[1:])
	})
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return packageOp(cmd, args[0], store.OpUpdate, "Updating", func(client *conda.Client, env *conda.Environment) error {
		if len(args) == 1 {
			return client.UpdateAllPackages(cmd.Context(), env)
		}
		return client.UpdatePackages(cmd.Context(), env, args[1:])
	})
}

// packageOp runs a package mutation under the journal, invalidating the
// cached size for the environment afterwards.
func packageOp(cmd *cobra.Command, envName, opKind, verb string, fn func(*conda.Client, *conda.Environment) error) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	env, err := rt.client().FindEnv(cmd.Context(), envName)
	if err != nil {
		return err
	}

	spinner := output.NewSpinner(fmt.Sprintf("%s packages in %s...", verb, env.Name))
	spinner.Start()
	err = rt.journal(opKind, env.Name, func(client *conda.Client) error {
		return fn(client, env)
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	if err := rt.store.DeleteEnvSize(env.Path); err != nil {
		rt.log.Warn().Err(err).Str("env", env.Name).Msg("failed to invalidate size cache")
	}
	fmt.Printf("Done: %s\n", env.Name)
	return nil
}
