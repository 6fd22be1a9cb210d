// Package config provides the condanest configuration file: a small JSON
// document of manual overrides for backend detection and runtime limits.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds user overrides. All fields are optional; zero values mean
// "detect automatically" or "use the default".
type Config struct {
	// CondaExecutable points at a specific conda/mamba binary, skipping
	// detection order for env vars and well-known directories.
	CondaExecutable string `json:"conda_executable,omitempty"`

	// EnvsRoot overrides the directory watched for environment changes.
	EnvsRoot string `json:"envs_root,omitempty"`

	// CommandTimeoutMinutes bounds a single backend invocation. Zero means
	// the built-in default.
	CommandTimeoutMinutes int `json:"command_timeout_minutes,omitempty"`

	// ListenAddr is the web server bind address (default 127.0.0.1:8417).
	ListenAddr string `json:"listen_addr,omitempty"`
}

// DefaultListenAddr is the web server's bind address when not configured.
// Loopback only; the server is a local presentation surface.
const DefaultListenAddr = "127.0.0.1:8417"

// Dir returns the condanest config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/condanest if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "condanest"), nil
}

// Load reads {dir}/config.json. A missing file returns an empty config
// without error; a malformed file is an error so a typo never silently
// reverts to auto-detection.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	path := filepath.Join(dir, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to {dir}/config.json, creating dir as needed.
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// CommandTimeout returns the configured timeout as a duration, or zero
// when unset.
func (c *Config) CommandTimeout() time.Duration {
	if c.CommandTimeoutMinutes <= 0 {
		return 0
	}
	return time.Duration(c.CommandTimeoutMinutes) * time.Minute
}

// Addr returns the configured listen address or the default.
func (c *Config) Addr() string {
	if c.ListenAddr != "" {
		return c.ListenAddr
	}
	return DefaultListenAddr
}
