package conda

import (
	"context"
	"testing"
)

// Test data: sample `list --prefix <path> --json` output with a mix of
// conda and pip packages.
const mockPackageListJSON = `[
  {"name": "numpy", "version": "1.26.4", "build_string": "py311h64a7726_0", "channel": "conda-forge", "platform": "linux-64"},
  {"name": "python", "version": "3.11.8", "build_string": "hab00c5b_0_cpython", "channel": "conda-forge", "platform": "linux-64"},
  {"name": "requests", "version": "2.31.0", "build_string": "pypi_0", "channel": "pypi", "platform": "pypi"}
]`

// Test data: sample `search numpy --json` output.
const mockSearchJSON = `{
  "numpy": [
    {"name": "numpy", "version": "1.26.3", "build": "py311h64a7726_0", "channel": "conda-forge"},
    {"name": "numpy", "version": "1.26.4", "build": "py311h64a7726_0", "channel": "conda-forge"}
  ],
  "numpy-base": [
    {"name": "numpy-base", "version": "1.26.4", "build": "py311h2b82a98_0", "channel": "defaults"}
  ]
}`

// TestListPackages_SourceClassification verifies that pypi-channel entries
// are classified as pip-installed and everything else as conda.
func TestListPackages_SourceClassification(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) ([]byte, error) {
		return []byte(mockPackageListJSON), nil
	}}
	client := NewClient(&BackendInfo{}, runner)
	env := &Environment{Name: "ml", Path: t.TempDir()}

	packages, err := client.ListPackages(context.Background(), env)
	if err != nil {
		t.Fatalf("ListPackages() failed: %v", err)
	}
	if len(packages) != 3 {
		t.Fatalf("ListPackages() returned %d packages, want 3", len(packages))
	}

	sources := map[string]PackageSource{}
	for _, p := range packages {
		sources[p.Name] = p.Source
	}
	if sources["numpy"] != SourceConda {
		t.Errorf("numpy source = %v, want conda", sources["numpy"])
	}
	if sources["requests"] != SourcePip {
		t.Errorf("requests source = %v, want pip", sources["requests"])
	}
}

// TestSearchPackages_FlattenedSorted verifies that per-name version lists
// are flattened into one slice sorted by name then version.
func TestSearchPackages_FlattenedSorted(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) ([]byte, error) {
		return []byte(mockSearchJSON), nil
	}}
	client := NewClient(&BackendInfo{}, runner)

	packages, err := client.SearchPackages(context.Background(), "numpy")
	if err != nil {
		t.Fatalf("SearchPackages() failed: %v", err)
	}
	if len(packages) != 3 {
		t.Fatalf("SearchPackages() returned %d results, want 3", len(packages))
	}
	want := []struct{ name, version string }{
		{"numpy", "1.26.3"},
		{"numpy", "1.26.4"},
		{"numpy-base", "1.26.4"},
	}
	for i, w := range want {
		if packages[i].Name != w.name || packages[i].Version != w.version {
			t.Errorf("result[%d] = %s %s, want %s %s", i, packages[i].Name, packages[i].Version, w.name, w.version)
		}
	}
}

// TestInstallPackages_Args checks the argument shape including spec
// passthrough.
func TestInstallPackages_Args(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) ([]byte, error) { return nil, nil }}
	client := NewClient(&BackendInfo{}, runner)
	env := &Environment{Name: "ml", Path: t.TempDir()}

	if err := client.InstallPackages(context.Background(), env, []string{"numpy", "pandas>=2.0"}); err != nil {
		t.Fatalf("InstallPackages() failed: %v", err)
	}
	if !runner.called("install", "--prefix", env.Path, "--yes", "numpy", "pandas>=2.0") {
		t.Errorf("unexpected install invocation: %v", runner.calls)
	}
}

// TestUpdateAllPackages_Args checks the --all form.
func TestUpdateAllPackages_Args(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) ([]byte, error) { return nil, nil }}
	client := NewClient(&BackendInfo{}, runner)
	env := &Environment{Name: "ml", Path: t.TempDir()}

	if err := client.UpdateAllPackages(context.Background(), env); err != nil {
		t.Fatalf("UpdateAllPackages() failed: %v", err)
	}
	if !runner.called("update", "--prefix", env.Path, "--all", "--yes") {
		t.Errorf("unexpected update invocation: %v", runner.calls)
	}
}

func TestClassifySource(t *testing.T) {
	if classifySource("pypi") != SourcePip {
		t.Error(`classifySource("pypi") should be pip`)
	}
	if classifySource("PyPI") != SourcePip {
		t.Error(`classifySource("PyPI") should be pip`)
	}
	if classifySource("conda-forge") != SourceConda {
		t.Error(`classifySource("conda-forge") should be conda`)
	}
	if classifySource("") != SourceConda {
		t.Error(`classifySource("") should be conda`)
	}
}
