package conda

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// probeTimeout bounds the `info --json` call used to validate a candidate
// executable. Detection should fail fast, unlike solver operations.
const probeTimeout = 30 * time.Second

// wellKnownInstallDirs are conventional install prefixes checked after env
// vars and the explicit config override, before falling back to PATH.
var wellKnownInstallDirs = []string{
	"miniforge3",
	"mambaforge",
	"miniconda3",
	"anaconda3",
}

// systemInstallPrefixes are machine-wide locations checked last.
var systemInstallPrefixes = []string{
	"/opt/conda",
	"/opt/miniconda3",
	"/opt/anaconda3",
	"/usr/local/miniforge3",
}

// infoOutput is the subset of `conda info --json` this package consumes.
type infoOutput struct {
	CondaVersion string   `json:"conda_version"`
	RootPrefix   string   `json:"root_prefix"`
	EnvsDirs     []string `json:"envs_dirs"`
	PkgsDirs     []string `json:"pkgs_dirs"`
	ActivePrefix string   `json:"active_prefix"`
}

// Detect locates a working conda or mamba executable and probes it for
// version and base prefix. Candidates are tried in order: the explicit
// override, MAMBA_EXE / CONDA_EXE, well-known install directories, and
// finally the system PATH. Mamba wins when both are present.
//
// override is the conda_executable value from the config file; pass ""
// when unset. Returns ErrBackendNotFound when no candidate responds.
func Detect(ctx context.Context, override string, log zerolog.Logger) (*BackendInfo, error) {
	for _, candidate := range candidatePaths(override) {
		info, err := probe(ctx, candidate, log)
		if err != nil {
			log.Debug().Str("candidate", candidate).Err(err).Msg("backend probe failed")
			continue
		}
		return info, nil
	}
	return nil, ErrBackendNotFound
}

// candidatePaths builds the ordered executable search list. Entries may not
// exist; probe filters those out.
func candidatePaths(override string) []string {
	var candidates []string
	if override != "" {
		candidates = append(candidates, override)
	}
	if exe := os.Getenv("MAMBA_EXE"); exe != "" {
		candidates = append(candidates, exe)
	}
	if exe := os.Getenv("CONDA_EXE"); exe != "" {
		candidates = append(candidates, exe)
	}

	home, err := os.UserHomeDir()
	if err == nil {
		for _, dir := range wellKnownInstallDirs {
			prefix := filepath.Join(home, dir)
			candidates = append(candidates,
				filepath.Join(prefix, "bin", "mamba"),
				filepath.Join(prefix, "bin", "conda"),
			)
		}
	}
	for _, prefix := range systemInstallPrefixes {
		candidates = append(candidates,
			filepath.Join(prefix, "bin", "mamba"),
			filepath.Join(prefix, "bin", "conda"),
		)
	}

	// PATH lookup last; mamba preferred over conda.
	for _, name := range []string{"mamba", "conda"} {
		if path, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, path)
		}
	}

	return candidates
}

// probe validates a candidate executable by running `info --json` and
// extracting version and base prefix.
func probe(ctx context.Context, executable string, log zerolog.Logger) (*BackendInfo, error) {
	if _, err := os.Stat(executable); err != nil {
		return nil, err
	}

	runner := NewRunner(executable, probeTimeout, log)
	out, err := runner.Run(ctx, "info", "--json")
	if err != nil {
		return nil, err
	}

	var info infoOutput
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, &ParseError{Args: []string{executable, "info", "--json"}, Raw: string(out), Err: err}
	}
	if info.CondaVersion == "" && info.RootPrefix == "" {
		return nil, &ParseError{Args: []string{executable, "info", "--json"}, Raw: string(out), Err: errEmptyInfo}
	}

	return &BackendInfo{
		Kind:       kindFromExecutable(executable),
		Executable: executable,
		Version:    info.CondaVersion,
		BasePrefix: info.RootPrefix,
	}, nil
}

var errEmptyInfo = jsonShapeError("info output missing conda_version and root_prefix")

type jsonShapeError string

func (e jsonShapeError) Error() string { return string(e) }

// kindFromExecutable classifies the executable by its base name; anything
// that is not mamba/micromamba is treated as conda.
func kindFromExecutable(executable string) BackendKind {
	base := strings.TrimSuffix(filepath.Base(executable), ".exe")
	if strings.Contains(base, "mamba") {
		return BackendMamba
	}
	return BackendConda
}
