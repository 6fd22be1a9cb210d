// Package terminal launches a terminal emulator with a Conda environment
// activated, without depending on the interactive shell hooks `conda init`
// installs.
package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/condanest/condanest/internal/conda"
)

// ErrNoTerminal is returned when no terminal emulator could be found.
var ErrNoTerminal = errors.New("no suitable terminal application found (x-terminal-emulator, gnome-terminal, ...)")

// commonEmulators is the fallback list tried after $TERMINAL and the
// Debian/XDG x-terminal-emulator helper. Most accept -e.
var commonEmulators = []string{
	"gnome-terminal",
	"konsole",
	"kitty",
	"xfce4-terminal",
	"tilix",
	"xterm",
}

// DetectCommand returns a terminal command prefix (argv) suitable for
// launching a script.
func DetectCommand() ([]string, error) {
	if term := os.Getenv("TERMINAL"); term != "" {
		return []string{term}, nil
	}
	if path, err := exec.LookPath("x-terminal-emulator"); err == nil {
		return []string{path, "-e"}, nil
	}
	for _, name := range commonEmulators {
		if path, err := exec.LookPath(name); err == nil {
			return []string{path, "-e"}, nil
		}
	}
	return nil, ErrNoTerminal
}

// LaunchForEnv opens a terminal window with env activated via
// `conda run -n <env> $SHELL -i`. A small generated script keeps the shell
// open and reports failures before the window closes.
func LaunchForEnv(backend *conda.BackendInfo, env *conda.Environment, workingDir string) error {
	if workingDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		workingDir = home
	}

	termCmd, err := DetectCommand()
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "condanest-")
	if err != nil {
		return fmt.Errorf("failed to prepare launcher script: %w", err)
	}
	scriptPath := filepath.Join(tmpDir, "launch-"+env.Name+".sh")

	script := fmt.Sprintf(`#!/usr/bin/env bash
cd %q || exit 1
conda_exe=%q
echo "[condanest] Using backend executable: $conda_exe"
echo "[condanest] Environment: %s"
echo ""

"$conda_exe" run -n %q "$SHELL" -i
status=$?
echo ""
if [ $status -ne 0 ]; then
    echo "[condanest] 'conda run' exited with status $status."
    echo "Check that the environment exists and that this executable works:"
    echo "    $conda_exe"
    echo ""
fi
read -p "Press Enter to close this window..." _ignored
exit $status
`, workingDir, backend.Executable, env.Name, env.Name)

	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		return fmt.Errorf("failed to prepare launcher script: %w", err)
	}

	args := append(termCmd[1:], scriptPath)
	cmd := exec.Command(termCmd[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch terminal: %w", err)
	}
	// Detach; the terminal outlives this process.
	return cmd.Process.Release()
}
