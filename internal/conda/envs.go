package conda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEnvPathMissing is returned when an environment's directory vanished
// between listing and the requested action.
var ErrEnvPathMissing = errors.New("environment path no longer exists on disk")

// envListOutput is the shape of `env list --json`.
type envListOutput struct {
	Envs []string `json:"envs"`
}

// ListEnvs enumerates environments fresh from the backend. The environment
// whose path equals the base prefix is named "base"; all others take the
// last path segment as their name. Environments whose directory is missing
// are flagged stale rather than dropped.
func (c *Client) ListEnvs(ctx context.Context) ([]*Environment, error) {
	args := []string{"env", "list", "--json"}
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var listing envListOutput
	if err := json.Unmarshal(out, &listing); err != nil {
		return nil, &ParseError{Args: args, Raw: string(out), Err: err}
	}

	activePrefix := os.Getenv("CONDA_PREFIX")

	envs := make([]*Environment, 0, len(listing.Envs))
	for _, path := range listing.Envs {
		if path == "" {
			continue
		}
		env := &Environment{
			Name:     filepath.Base(path),
			Path:     path,
			IsActive: activePrefix != "" && activePrefix == path,
		}
		if c.backend != nil && path == c.backend.BasePrefix {
			env.Name = "base"
		}
		if _, err := os.Stat(path); err != nil {
			env.Stale = true
		}
		envs = append(envs, env)
	}

	sort.Slice(envs, func(i, j int) bool { return envs[i].Name < envs[j].Name })
	return envs, nil
}

// FindEnv returns the listed environment with the given name.
func (c *Client) FindEnv(ctx context.Context, name string) (*Environment, error) {
	envs, err := c.ListEnvs(ctx)
	if err != nil {
		return nil, err
	}
	for _, env := range envs {
		if env.Name == name {
			return env, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEnvNotFound, name)
}

// CreateEnv creates a new named environment, optionally pinning a Python
// version (e.g. "3.11").
func (c *Client) CreateEnv(ctx context.Context, name, pythonVersion string) error {
	args := []string{"create", "--name", name, "--yes"}
	if pythonVersion != "" {
		args = append(args, "python="+pythonVersion)
	}
	_, err := c.runner.Run(ctx, args...)
	return err
}

// envFileHeader is the subset of an environment.yml this package reads.
type envFileHeader struct {
	Name string `yaml:"name"`
}

// EnvFileName returns the environment name declared in a YAML file, or the
// file stem when the file has no name field.
func EnvFileName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var header envFileHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		return "", fmt.Errorf("not a valid environment file %s: %w", path, err)
	}
	if header.Name != "" {
		return header.Name, nil
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return stem, nil
}

// CreateEnvFromFile creates an environment from an environment.yml file.
// When name is empty the backend uses the name declared in the file.
func (c *Client) CreateEnvFromFile(ctx context.Context, file, name string) error {
	args := []string{"env", "create", "--file", file, "--yes"}
	if name != "" {
		args = append(args, "--name", name)
	}
	_, err := c.runner.Run(ctx, args...)
	return err
}

// CloneEnv creates newName as a copy of env. The source environment is
// never touched; a failed clone leaves the system exactly as it was.
func (c *Client) CloneEnv(ctx context.Context, env *Environment, newName string) error {
	if err := c.checkEnvPath(env); err != nil {
		return err
	}
	args := []string{"create", "--name", newName, "--clone", env.Path, "--yes"}
	_, err := c.runner.Run(ctx, args...)
	return err
}

// RemoveEnv permanently deletes an environment and all its packages.
func (c *Client) RemoveEnv(ctx context.Context, env *Environment) error {
	if err := c.checkEnvPath(env); err != nil {
		return err
	}
	args := []string{"remove", "--prefix", env.Path, "--all", "--yes"}
	_, err := c.runner.Run(ctx, args...)
	return err
}

// ExportEnvYAML writes the environment's specification to dest as YAML.
func (c *Client) ExportEnvYAML(ctx context.Context, env *Environment, dest string) error {
	if err := c.checkEnvPath(env); err != nil {
		return err
	}
	args := []string{"env", "export", "--prefix", env.Path}
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

// ExportAll exports every given environment to destDir as <name>.yml,
// reporting each file through progress when non-nil.
func (c *Client) ExportAll(ctx context.Context, envs []*Environment, destDir string, progress func(string)) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	for _, env := range envs {
		dest := filepath.Join(destDir, env.Name+".yml")
		if progress != nil {
			progress(fmt.Sprintf("exporting %s to %s", env.Name, dest))
		}
		if err := c.ExportEnvYAML(ctx, env, dest); err != nil {
			return fmt.Errorf("export of %s failed: %w", env.Name, err)
		}
	}
	return nil
}

// ImportFolder creates one environment per *.yml / *.yaml file found in
// dir, using the name declared inside each file. Files are processed in
// lexical order; the first failure aborts the run.
func (c *Client) ImportFolder(ctx context.Context, dir string, progress func(string)) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yml" || ext == ".yaml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return 0, fmt.Errorf("no .yml or .yaml files found in %s", dir)
	}

	created := 0
	for _, file := range files {
		name, err := EnvFileName(file)
		if err != nil {
			return created, err
		}
		if progress != nil {
			progress(fmt.Sprintf("creating environment %s from %s", name, file))
		}
		if err := c.CreateEnvFromFile(ctx, file, name); err != nil {
			return created, fmt.Errorf("create from %s failed: %w", file, err)
		}
		created++
	}
	return created, nil
}

// checkEnvPath guards actions against environments whose directory vanished
// after listing.
func (c *Client) checkEnvPath(env *Environment) error {
	if _, err := os.Stat(env.Path); err != nil {
		return fmt.Errorf("%w: %s", ErrEnvPathMissing, env.Path)
	}
	return nil
}
