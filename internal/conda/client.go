// Package conda wraps the external conda/mamba CLI behind typed operations.
//
// The package has three layers:
//   - Detect locates a working backend executable (env vars, well-known
//     install directories, PATH) and probes it once per session.
//   - Runner executes the backend as a child process, capturing stdout,
//     stderr and exit code, and logging every invocation.
//   - Client builds argument lists for each logical operation and parses
//     the backend's JSON output into plain records.
//
// None of the records returned here are mutated in place to reflect a
// change; every mutating operation re-invokes the backend and callers
// re-query state afterwards.
package conda

import (
	"context"
	"encoding/json"
)

// Client exposes backend operations for a single detected installation.
type Client struct {
	backend *BackendInfo
	runner  Runner
}

// NewClient returns a Client using the given runner. Tests substitute a
// fake Runner; production code passes NewRunner(backend.Executable, ...).
func NewClient(backend *BackendInfo, runner Runner) *Client {
	return &Client{backend: backend, runner: runner}
}

// Backend returns the immutable backend description for this session.
func (c *Client) Backend() *BackendInfo { return c.backend }

// Run forwards raw arguments to the underlying runner. Collaborators that
// build their own argument lists (the janitor's clean calls) use this
// instead of growing the Client API per flag combination.
func (c *Client) Run(ctx context.Context, args ...string) ([]byte, error) {
	return c.runner.Run(ctx, args...)
}

// DirInfo reports where the backend keeps environments and its package
// cache, from `info --json`.
type DirInfo struct {
	EnvsDirs []string
	PkgsDirs []string
}

// Dirs queries the backend for its environment and package-cache
// directories.
func (c *Client) Dirs(ctx context.Context) (*DirInfo, error) {
	args := []string{"info", "--json"}
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var info infoOutput
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, &ParseError{Args: args, Raw: string(out), Err: err}
	}
	return &DirInfo{EnvsDirs: info.EnvsDirs, PkgsDirs: info.PkgsDirs}, nil
}
