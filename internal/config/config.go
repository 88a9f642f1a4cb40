// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Service
	ServiceURL string `json:"service_url,omitempty"` // Base URL of the CV parsing service
	RefreshURL string `json:"refresh_url,omitempty"` // Token refresh endpoint (defaults to {service_url}/api/auth/refresh)
	LogoURL    string `json:"logo_url,omitempty"`    // Optional logo asset URL

	// Credentials
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// Output
	Template  string `json:"template,omitempty"`   // Template name (e.g. "gemini")
	OutputDir string `json:"output_dir,omitempty"` // Directory for generated documents

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.ServiceURL != "" {
		u, err := url.Parse(c.ServiceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config error: 'service_url' must be an http(s) URL, got %q", c.ServiceURL)
		}
	}

	// One credential without the other cannot survive a refresh cycle.
	if (c.AccessToken == "") != (c.RefreshToken == "") {
		return fmt.Errorf("config error: 'access_token' and 'refresh_token' must be provided together")
	}

	if c.OutputDir != "" {
		info, err := os.Stat(c.OutputDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("config error: output directory not found: %s", c.OutputDir)
		}
		if err == nil && !info.IsDir() {
			return fmt.Errorf("config error: 'output_dir' is not a directory: %s", c.OutputDir)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled
// from defaults. This is used to apply config file values as defaults for
// CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.ServiceURL == "" {
		result.ServiceURL = defaults.ServiceURL
	}
	if result.RefreshURL == "" {
		result.RefreshURL = defaults.RefreshURL
	}
	if result.LogoURL == "" {
		result.LogoURL = defaults.LogoURL
	}
	if result.AccessToken == "" {
		result.AccessToken = defaults.AccessToken
	}
	if result.RefreshToken == "" {
		result.RefreshToken = defaults.RefreshToken
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
