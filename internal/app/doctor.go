package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/config"
	"github.com/condanest/condanest/internal/logging"
	"github.com/condanest/condanest/internal/store"
	"github.com/condanest/condanest/internal/terminal"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues and check backend health",
	Long: `Runs diagnostic checks on the condanest setup.

Checks:
  • A conda or mamba backend is on this machine
  • The backend answers and reports its environments
  • The database and config are accessible
  • A terminal emulator is available for 'shell'`,
	RunE: runDoctor,
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("Running condanest diagnostics...")
	fmt.Println()

	criticalIssues := 0
	warningIssues := 0

	// Check 1: config readable
	cfgDir := flagConfigDir
	if cfgDir == "" {
		dir, err := config.Dir()
		if err != nil {
			fmt.Println("✗ Cannot resolve config directory:", err)
			criticalIssues++
		}
		cfgDir = dir
	}
	cfg, err := config.Load(cfgDir)
	if err != nil {
		fmt.Println("✗ Cannot read config:", err)
		fmt.Printf("  Action: Fix or remove the config file under %s\n", cfgDir)
		criticalIssues++
		cfg = &config.Config{}
	} else {
		fmt.Println("✓ Config readable:", cfgDir)
	}

	log, logCloser, err := logging.New(os.DevNull, false)
	if err != nil {
		fmt.Println("⚠ Cannot open log writer:", err)
		warningIssues++
	} else {
		defer logCloser.Close()
	}

	// Check 2: backend present
	backend, err := conda.Detect(cmd.Context(), cfg.CondaExecutable, log)
	if err != nil {
		if errors.Is(err, conda.ErrBackendNotFound) {
			fmt.Println("✗ No conda or mamba backend found")
			fmt.Println("  Action: Install miniforge (https://conda-forge.org/download/)")
			fmt.Println("  or point condanest at an executable in the config file")
		} else {
			fmt.Println("✗ Backend detection failed:", err)
		}
		criticalIssues++
	} else {
		fmt.Printf("✓ Backend: %s %s (%s)\n", backend.Kind, backend.Version, backend.Executable)

		// Check 3: backend answers env queries
		runner := conda.NewRunner(backend.Executable, cfg.CommandTimeout(), log)
		client := conda.NewClient(backend, runner)
		envs, err := client.ListEnvs(cmd.Context())
		if err != nil {
			var tosErr *conda.TermsOfServiceError
			if errors.As(err, &tosErr) {
				fmt.Println("✗ Backend refuses to run: channel terms of service not accepted")
				fmt.Printf("  Action: Run '%s tos accept' and retry\n", backend.Executable)
			} else {
				fmt.Println("✗ Backend cannot list environments:", err)
			}
			criticalIssues++
		} else {
			stale := 0
			for _, env := range envs {
				if env.Stale {
					stale++
				}
			}
			fmt.Printf("✓ %d environments found\n", len(envs))
			if stale > 0 {
				fmt.Printf("⚠ %d environments are registered but missing on disk\n", stale)
				fmt.Println("  Action: Run 'condanest envs' to see which, then delete them")
				warningIssues++
			}
		}
	}

	// Check 4: database accessible
	dbPath, err := getDBPath()
	if err != nil {
		fmt.Println("✗ Database path error:", err)
		criticalIssues++
	} else {
		db, err := store.New(dbPath)
		if err != nil {
			fmt.Println("✗ Cannot open database:", err)
			criticalIssues++
		} else {
			defer db.Close()
			if err := db.CreateSchema(); err != nil {
				fmt.Println("✗ Cannot initialize database schema:", err)
				criticalIssues++
			} else {
				fmt.Println("✓ Database is accessible:", dbPath)
			}
		}
	}

	// Check 5: terminal emulator — warning only, shell is optional
	if _, err := terminal.DetectCommand(); err != nil {
		fmt.Println("⚠ No terminal emulator found; 'condanest shell' will not work")
		fmt.Println("  Action: Set $TERMINAL or install a common terminal emulator")
		warningIssues++
	} else {
		fmt.Println("✓ Terminal emulator available")
	}

	fmt.Println()
	if criticalIssues == 0 && warningIssues == 0 {
		fmt.Println("✓ All checks passed!")
		return nil
	}
	if criticalIssues > 0 {
		fmt.Printf("Found %d critical issue(s) and %d warning(s).\n", criticalIssues, warningIssues)
		return fmt.Errorf("diagnostics failed")
	}
	fmt.Printf("Found %d warning(s).\n", warningIssues)
	return nil
}
