// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for json2variant with a
// well-defined precedence order:
//
//  1. Command-line flags
//  2. Environment variables (JSON2VARIANT_*)
//  3. Configuration file
//  4. Built-in defaults
//
// Configuration files are YAML and are discovered in standard locations
// unless an explicit path is given.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// validCompressions are the accepted parquet compression codec names.
var validCompressions = map[string]bool{
	"snappy": true,
	"zstd":   true,
	"gzip":   true,
	"brotli": true,
	"none":   true,
}

// LoadConfig loads configuration from multiple sources in precedence order.
// If configPath is provided, it loads from that specific file and fails if
// it cannot. Otherwise it searches:
//   - .json2variant.yaml (current directory)
//   - .json2variant.yml (current directory)
//   - ~/.json2variant/config.yaml
//   - ~/.json2variant/config.yml
//
// and succeeds with defaults when none exists. Environment variables are
// applied after the file.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".json2variant.yaml",
			".json2variant.yml",
			filepath.Join(os.Getenv("HOME"), ".json2variant", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".json2variant", "config.yml"),
		}
		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JSON2VARIANT_BATCH_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Defaults.BatchBytes = n
		}
	}
	if v := os.Getenv("JSON2VARIANT_FORMAT"); v != "" {
		cfg.Defaults.Format = v
	}
	if v := os.Getenv("JSON2VARIANT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Defaults.Workers = n
		}
	}
	if v := os.Getenv("JSON2VARIANT_SKIP_INVALID"); v != "" {
		cfg.Defaults.SkipInvalid = parseBool(v)
	}
	if v := os.Getenv("JSON2VARIANT_COMPRESSION"); v != "" {
		cfg.Output.Compression = v
	}
}

// parseBool parses various boolean representations
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// Validate checks if the configuration contains valid values. This should
// be called after loading configuration to catch invalid settings early.
func (c *Config) Validate() error {
	if c.Defaults.BatchBytes <= 0 {
		return fmt.Errorf("batch_bytes must be positive, got: %d", c.Defaults.BatchBytes)
	}
	switch strings.ToLower(c.Defaults.Format) {
	case "auto", "ndjson", "single":
	default:
		return fmt.Errorf("format must be auto, ndjson or single, got: %q", c.Defaults.Format)
	}
	if c.Defaults.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got: %d", c.Defaults.Workers)
	}
	if !validCompressions[strings.ToLower(c.Output.Compression)] {
		return fmt.Errorf("unknown compression codec: %q", c.Output.Compression)
	}
	return nil
}
