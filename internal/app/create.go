package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/output"
	"github.com/condanest/condanest/internal/store"
)

var (
	createFlagPython string
	createFlagFile   string

	createCmd = &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new environment",
		Long: `Create a new environment by name, optionally pinning a Python
version, or from an environment.yml file. When only --file is given the
name declared inside the file is used.`,
		Example: `  # Empty environment
  condanest create sandbox

  # Pin a Python version
  condanest create sandbox --python 3.11

  # From an environment.yml
  condanest create --file ./environment.yml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCreate,
	}

	importCmd = &cobra.Command{
		Use:   "import-folder <dir>",
		Short: "Create environments from every YAML file in a folder",
		Long: `Create one environment per *.yml / *.yaml file found in the given
folder. Each environment takes the name declared inside its file, falling
back to the file name. Files are processed in order; the first failure
stops the run.`,
		Args: cobra.ExactArgs(1),
		RunE: runImportFolder,
	}
)

func init() {
	createCmd.Flags().StringVar(&createFlagPython, "python", "", "Python version to install (e.g. 3.11)")
	createCmd.Flags().StringVar(&createFlagFile, "file", "", "environment.yml to create from")

	RootCmd.AddCommand(createCmd)
	RootCmd.AddCommand(importCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	if name == "" && createFlagFile == "" {
		return fmt.Errorf("provide an environment name or --file")
	}

	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	display := name
	if display == "" {
		declared, err := conda.EnvFileName(createFlagFile)
		if err != nil {
			return err
		}
		display = declared
	}

	spinner := output.NewSpinner(fmt.Sprintf("Creating environment %s...", display))
	spinner.Start()
	err = rt.journal(store.OpCreate, display, func(client *conda.Client) error {
		if createFlagFile != "" {
			return client.CreateEnvFromFile(cmd.Context(), createFlagFile, name)
		}
		return client.CreateEnv(cmd.Context(), name, createFlagPython)
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("Created environment %s\n", display)
	return nil
}

func runImportFolder(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	spinner := output.NewSpinner("Creating environments from folder...")
	spinner.Start()
	var created int
	err = rt.journal(store.OpImport, "", func(client *conda.Client) error {
		var importErr error
		created, importErr = client.ImportFolder(cmd.Context(), args[0], spinner.UpdateMessage)
		return importErr
	})
	spinner.Stop()
	if err != nil {
		if created > 0 {
			fmt.Printf("Created %d environments before the failure.\n", created)
		}
		return err
	}

	fmt.Printf("Created %d environments from %s\n", created, args[0])
	return nil
}
