package app

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/output"
)

var (
	cleanFlagDryRun bool
	cleanFlagYes    bool

	cleanCmd = &cobra.Command{
		Use:   "clean",
		Short: "Estimate and remove cached packages and tarballs",
		Long: `Estimate how much space the backend's package cache is holding,
then run a global clean to reclaim it. The estimate never modifies any
files; the clean only runs after the estimate and your confirmation.`,
		Example: `  condanest clean --dry-run
  condanest clean
  condanest clean --yes`,
		Args: cobra.NoArgs,
		RunE: runClean,
	}

	diskUsageCmd = &cobra.Command{
		Use:   "disk-usage",
		Short: "Report disk usage of the package cache and environments",
		Args:  cobra.NoArgs,
		RunE:  runDiskUsage,
	}
)

func init() {
	cleanCmd.Flags().BoolVar(&cleanFlagDryRun, "dry-run", false, "show the estimate without cleaning")
	cleanCmd.Flags().BoolVarP(&cleanFlagYes, "yes", "y", false, "skip confirmation prompt")

	RootCmd.AddCommand(cleanCmd)
	RootCmd.AddCommand(diskUsageCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	spinner := output.NewSpinner("Estimating reclaimable space...")
	spinner.Start()
	report, err := rt.janitor.Estimate(cmd.Context())
	spinner.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("Package cache: %s\n", humanize.IBytes(uint64(report.PkgsCache)))

	if cleanFlagDryRun {
		return nil
	}
	if report.PkgsCache == 0 {
		fmt.Println("Nothing to clean.")
		return nil
	}

	if !cleanFlagYes {
		if !promptYesNo(fmt.Sprintf("Reclaim %s?", humanize.IBytes(uint64(report.PkgsCache)))) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	spinner = output.NewSpinner("Cleaning package cache...")
	spinner.Start()
	err = rt.janitor.Clean(cmd.Context())
	spinner.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("Reclaimed up to %s\n", humanize.IBytes(uint64(report.PkgsCache)))
	return nil
}

func runDiskUsage(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	spinner := output.NewSpinner("Scanning disk usage...")
	spinner.Start()
	report, err := rt.janitor.Estimate(cmd.Context())
	spinner.Stop()
	if err != nil {
		return err
	}

	fmt.Println(output.RenderDiskUsage(report))
	return nil
}
