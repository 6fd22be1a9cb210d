package conda

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCommandTimeout bounds a single backend invocation. Solver-heavy
// operations (create, clone, install) can legitimately run for minutes.
const DefaultCommandTimeout = 10 * time.Minute

// Runner executes the backend executable with the given arguments and
// returns its standard output. Implementations must surface non-zero exits
// as *CommandError (or *TermsOfServiceError) and respect ctx cancellation.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// execRunner shells out to a fixed executable path via os/exec.
type execRunner struct {
	executable string
	timeout    time.Duration
	log        zerolog.Logger
}

// NewRunner returns a Runner invoking the given executable. Every
// invocation and any captured stderr is appended to log.
func NewRunner(executable string, timeout time.Duration, log zerolog.Logger) Runner {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &execRunner{executable: executable, timeout: timeout, log: log}
}

func (r *execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.executable, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	ev := r.log.Info()
	if err != nil {
		ev = r.log.Error()
	}
	ev.Str("executable", r.executable).
		Strs("args", args).
		Dur("elapsed", elapsed)
	if stderr.Len() > 0 {
		ev = ev.Str("stderr", stderr.String())
	}
	ev.Msg("backend command")

	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return stdout.Bytes(), wrapCommandError(append([]string{r.executable}, args...), exitCode, stderr.String(), err)
	}

	return stdout.Bytes(), nil
}
