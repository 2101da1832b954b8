// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the triage CLI command tree. Every command
// writes its results to the writer handed to [Root] so the tree can be
// driven from tests exactly as main drives it.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/triage/cmd/triage/cli"
	"github.com/bureau-foundation/triage/lib/config"
	"github.com/bureau-foundation/triage/lib/evidence"
	"github.com/bureau-foundation/triage/lib/version"
)

// Root builds and returns the complete triage command tree. Command
// output goes to stdout; help and logs go to stderr.
func Root(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name: "triage",
		Description: `triage: resolve payment tickets to log evidence.

Given a ticket's reference number and timestamp, triage finds the hourly
log archive that covers it, extracts the records for the request, and
reports the status code of the downstream invocation. Every stage leaves
an artifact on disk and a CBOR manifest records their digests.`,
		Subcommands: []*cli.Command{
			resolveCommand(stdout),
			locateCommand(stdout),
			templatesCommand(stdout),
			inspectCommand(stdout),
			versionCommand(stdout),
		},
	}
}

// ConfigParams is embedded by every command that reads configuration.
type ConfigParams struct {
	ConfigPath string `json:"-" flag:"config,c" desc:"config file (default: $TRIAGE_CONFIG)"`
}

// load reads the config from --config, falling back to TRIAGE_CONFIG,
// and validates it.
func (p *ConfigParams) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if p.ConfigPath != "" {
		cfg, err = config.LoadFile(p.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, cli.Validation("%w", err).
			WithHint(fmt.Sprintf("Pass --config <file> or set %s.", config.EnvironmentVariable))
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("%w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger from the config's logging section.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	logger, err := cli.NewCommandLogger(level, cfg.Logging.Format)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	return logger, nil
}

// categorize maps pipeline error kinds onto CLI error categories. Errors
// that are already categorized pass through unchanged.
func categorize(err error) error {
	if err == nil {
		return nil
	}
	var toolErr *cli.ToolError
	if errors.As(err, &toolErr) {
		return err
	}
	switch evidence.KindOf(err) {
	case evidence.MalformedContext, evidence.MalformedTimestamp:
		return cli.Categorize(cli.CategoryValidation, err)
	case evidence.UnknownLogLocation, evidence.ArchiveNotFound:
		return cli.Categorize(cli.CategoryNotFound, err)
	}
	return cli.Categorize(cli.CategoryInternal, err)
}

type versionParams struct {
	cli.JSONOutput
}

func versionCommand(stdout io.Writer) *cli.Command {
	var params versionParams

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("version", &params)
		},
		Run: func(args []string) error {
			if done, err := params.EmitJSON(stdout, version.Current()); done {
				return err
			}
			_, err := fmt.Fprintf(stdout, "triage %s\n", version.Full())
			return err
		},
	}
}
