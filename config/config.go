// Package config loads the suite's run-time options from a file, so a
// project can check a `.gobdd.yml` or `.gobdd.toml` into its repo instead of
// repeating the same flags on every `go test` invocation. Load returns the
// file's values as they are: it does not merge them with command-line
// flags, and neither package cli nor cmd/gobdd reads a config file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config mirrors the CLI surface of spec.md §6, in a form that can be
// serialized to YAML or TOML.
type Config struct {
	FeaturesPath string `yaml:"features_path" toml:"features_path"`

	Concurrency int    `yaml:"concurrency" toml:"concurrency"`
	Name        string `yaml:"name" toml:"name"`
	Tags        string `yaml:"tags" toml:"tags"`
	FailFast    bool   `yaml:"fail_fast" toml:"fail_fast"`

	RetryCount     uint32 `yaml:"retry" toml:"retry"`
	RetryAfter     string `yaml:"retry_after" toml:"retry_after"`
	RetryTagFilter string `yaml:"retry_tag_filter" toml:"retry_tag_filter"`

	Color     string `yaml:"color" toml:"color"`
	Verbosity int    `yaml:"verbosity" toml:"verbosity"`

	JSONReportPath string `yaml:"json_report_path" toml:"json_report_path"`
}

// RetryAfterDuration parses RetryAfter using the same human-readable
// duration syntax as the --retry-after CLI flag (spec.md §6: "500ms, 2s,
// 1m30s"). An empty string yields zero.
func (c Config) RetryAfterDuration() (time.Duration, error) {
	if c.RetryAfter == "" {
		return 0, nil
	}
	return time.ParseDuration(c.RetryAfter)
}

// LoadYAML reads a YAML config file, grounded on the pack's own yaml.v3
// config-loading convention (ilkoid-poncho-ai, theRebelliousNerd-codenerd).
func LoadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadTOML reads a TOML config file, grounded on emergent-company-specmcp's
// BurntSushi/toml config loader.
func LoadTOML(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse toml %s: %w", path, err)
	}
	return &cfg, nil
}

// Load picks LoadYAML or LoadTOML by file extension (.yml/.yaml vs .toml).
func Load(path string) (*Config, error) {
	switch ext(path) {
	case ".toml":
		return LoadTOML(path)
	default:
		return LoadYAML(path)
	}
}

func ext(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}
