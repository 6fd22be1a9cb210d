package conda

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
)

// listedPackage is one entry of `list --json` output.
type listedPackage struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	BuildString string `json:"build_string"`
	Channel     string `json:"channel"`
	Platform    string `json:"platform"`
}

// ListPackages returns the packages installed in env. Entries whose channel
// is "pypi" are classified as pip-installed; this is a heuristic based on
// the channel string, not a guarantee.
func (c *Client) ListPackages(ctx context.Context, env *Environment) ([]*Package, error) {
	if err := c.checkEnvPath(env); err != nil {
		return nil, err
	}
	args := []string{"list", "--prefix", env.Path, "--json"}
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var listed []listedPackage
	if err := json.Unmarshal(out, &listed); err != nil {
		return nil, &ParseError{Args: args, Raw: string(out), Err: err}
	}

	packages := make([]*Package, 0, len(listed))
	for _, lp := range listed {
		packages = append(packages, &Package{
			Name:        lp.Name,
			Version:     lp.Version,
			BuildString: lp.BuildString,
			Channel:     lp.Channel,
			Source:      classifySource(lp.Channel),
		})
	}
	return packages, nil
}

// searchResult is one match of `search --json`. The output maps package
// names to version lists.
type searchResult struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Build   string `json:"build"`
	Channel string `json:"channel"`
}

// SearchPackages queries the configured channels for packages matching
// spec (e.g. "numpy" or "numpy>=1.26"). Results are flattened and sorted
// by name then version.
func (c *Client) SearchPackages(ctx context.Context, spec string) ([]*Package, error) {
	args := []string{"search", spec, "--json"}
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var results map[string][]searchResult
	if err := json.Unmarshal(out, &results); err != nil {
		return nil, &ParseError{Args: args, Raw: string(out), Err: err}
	}

	var packages []*Package
	for _, versions := range results {
		for _, r := range versions {
			packages = append(packages, &Package{
				Name:        r.Name,
				Version:     r.Version,
				BuildString: r.Build,
				Channel:     r.Channel,
				Source:      SourceConda,
			})
		}
	}
	sort.Slice(packages, func(i, j int) bool {
		if packages[i].Name != packages[j].Name {
			return packages[i].Name < packages[j].Name
		}
		return packages[i].Version < packages[j].Version
	})
	return packages, nil
}

// InstallPackages installs the given package specs into env.
func (c *Client) InstallPackages(ctx context.Context, env *Environment, specs []string) error {
	if err := c.checkEnvPath(env); err != nil {
		return err
	}
	args := append([]string{"install", "--prefix", env.Path, "--yes"}, specs...)
	_, err := c.runner.Run(ctx, args...)
	return err
}

// RemovePackages removes the named packages from env.
func (c *Client) RemovePackages(ctx context.Context, env *Environment, names []string) error {
	if err := c.checkEnvPath(env); err != nil {
		return err
	}
	args := append([]string{"remove", "--prefix", env.Path, "--yes"}, names...)
	_, err := c.runner.Run(ctx, args...)
	return err
}

// UpdatePackages updates the named packages in env.
func (c *Client) UpdatePackages(ctx context.Context, env *Environment, names []string) error {
	if err := c.checkEnvPath(env); err != nil {
		return err
	}
	args := append([]string{"update", "--prefix", env.Path, "--yes"}, names...)
	_, err := c.runner.Run(ctx, args...)
	return err
}

// UpdateAllPackages updates every package in env.
func (c *Client) UpdateAllPackages(ctx context.Context, env *Environment) error {
	if err := c.checkEnvPath(env); err != nil {
		return err
	}
	args := []string{"update", "--prefix", env.Path, "--all", "--yes"}
	_, err := c.runner.Run(ctx, args...)
	return err
}

// classifySource maps a channel string to a package source.
func classifySource(channel string) PackageSource {
	if strings.EqualFold(channel, "pypi") {
		return SourcePip
	}
	return SourceConda
}
