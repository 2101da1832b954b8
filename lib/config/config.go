// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/triage/lib/evidence"
	"github.com/bureau-foundation/triage/lib/resolution"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "TRIAGE_CONFIG"

// Config is the master configuration for triage.
type Config struct {
	// Paths configures directory and file locations.
	Paths PathsConfig `yaml:"paths"`

	// LogType selects which registry row a ticket's project resolves
	// to. Default: integration
	LogType string `yaml:"log_type"`

	// Records describes how log records are delimited.
	Records RecordsConfig `yaml:"records"`

	// Classify describes the invocation record and its status field.
	Classify ClassifyConfig `yaml:"classify"`

	// Logging configures the command logger.
	Logging LoggingConfig `yaml:"logging"`
}

// PathsConfig configures directory and file locations.
type PathsConfig struct {
	// Root is the base directory for triage data.
	Root string `yaml:"root"`

	// Archives is the flat directory of hourly log archives.
	// Default: ${TRIAGE_ROOT}/archives
	Archives string `yaml:"archives"`

	// Output receives per-ticket artifacts and manifests.
	// Default: ${TRIAGE_ROOT}/bot-resolve
	Output string `yaml:"output"`

	// Registry is the log-location registry (.csv, .yaml, or .jsonc).
	// Default: ${TRIAGE_ROOT}/log-locations.csv
	Registry string `yaml:"registry"`
}

// RecordsConfig describes record delimiters. Empty fields use the
// integration-log defaults.
type RecordsConfig struct {
	StartMarker   string `yaml:"start_marker"`
	EndMarker     string `yaml:"end_marker"`
	IdentifierTag string `yaml:"identifier_tag"`
}

// ClassifyConfig describes the downstream invocation the verdict is
// read from.
type ClassifyConfig struct {
	InvocationMarker string `yaml:"invocation_marker"`
	Operation        string `yaml:"operation"`
	StatusField      string `yaml:"status_field"`

	// SuccessCode is the status value that means success. Default: 1
	SuccessCode int `yaml:"success_code"`
}

// LoggingConfig configures the command logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level"`

	// Format is auto, text, or json. auto picks text for a terminal
	// and JSON otherwise. Default: auto
	Format string `yaml:"format"`
}

// Default returns the default configuration. It is the base the config
// file is decoded over, so any field the file omits keeps its default.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Paths: PathsConfig{
			Root:     filepath.Join(homeDir, ".cache", "triage"),
			Archives: "${TRIAGE_ROOT}/archives",
			Output:   "${TRIAGE_ROOT}/bot-resolve",
			Registry: "${TRIAGE_ROOT}/log-locations.csv",
		},
		LogType: resolution.DefaultLogType,
		Records: RecordsConfig{
			StartMarker:   evidence.DefaultStartMarker,
			EndMarker:     evidence.DefaultEndMarker,
			IdentifierTag: evidence.DefaultIdentifierTag,
		},
		Classify: ClassifyConfig{
			InvocationMarker: evidence.DefaultInvocationMarker,
			Operation:        evidence.DefaultOperation,
			StatusField:      evidence.DefaultStatusField,
			SuccessCode:      evidence.DefaultSuccessCode,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the TRIAGE_CONFIG environment variable.
// There is no fallback: if the variable is not set, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your triage.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Environment
// variables do not override config values; the only expansion is
// ${VAR} substitution inside path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"TRIAGE_ROOT": c.Paths.Root,
		"HOME":        os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["TRIAGE_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Archives = expandVars(c.Paths.Archives, vars)
	c.Paths.Output = expandVars(c.Paths.Output, vars)
	c.Paths.Registry = expandVars(c.Paths.Registry, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. Every problem is
// reported, not just the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Archives == "" {
		errs = append(errs, fmt.Errorf("paths.archives is required"))
	}
	if c.Paths.Output == "" {
		errs = append(errs, fmt.Errorf("paths.output is required"))
	}
	if c.Paths.Registry == "" {
		errs = append(errs, fmt.Errorf("paths.registry is required"))
	}
	if c.LogType == "" {
		errs = append(errs, fmt.Errorf("log_type is required"))
	}
	if strings.ContainsAny(c.Records.IdentifierTag, "<>/") {
		errs = append(errs, fmt.Errorf("records.identifier_tag %q must be a bare tag name", c.Records.IdentifierTag))
	}
	if c.Classify.SuccessCode < 0 {
		errs = append(errs, fmt.Errorf("classify.success_code must not be negative"))
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	formats := []string{"auto", "text", "json"}
	if !contains(formats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel parses Level. An empty level means info.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// EnsurePaths creates the archive and output directories if they don't
// exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.Archives, c.Paths.Output} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

// ResolutionConfig compiles the record and classification settings and
// returns the resolver configuration. The clock is left nil so the
// resolver uses real time.
func (c *Config) ResolutionConfig(logger *slog.Logger) (resolution.Config, error) {
	format, err := evidence.NewRecordFormat(c.Records.StartMarker, c.Records.EndMarker, c.Records.IdentifierTag)
	if err != nil {
		return resolution.Config{}, fmt.Errorf("records: %w", err)
	}
	classifier, err := evidence.NewClassifier(format,
		c.Classify.InvocationMarker, c.Classify.Operation, c.Classify.StatusField, c.Classify.SuccessCode)
	if err != nil {
		return resolution.Config{}, fmt.Errorf("classify: %w", err)
	}
	return resolution.Config{
		ArchiveDir:   c.Paths.Archives,
		OutputDir:    c.Paths.Output,
		RegistryPath: c.Paths.Registry,
		LogType:      c.LogType,
		Classifier:   classifier,
		Logger:       logger,
	}, nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
