// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/triage/cmd/triage/cli"
	"github.com/bureau-foundation/triage/lib/registry"
)

func templatesCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "templates",
		Summary: "Inspect the log-location registry",
		Description: `Inspect the registry that maps (project, log type) pairs to archive
path templates. The registry is a .csv, .yaml, or .jsonc file named by
paths.registry in the config.`,
		Subcommands: []*cli.Command{
			templatesListCommand(stdout),
			templatesCheckCommand(stdout),
		},
	}
}

type templatesParams struct {
	ConfigParams
	cli.JSONOutput
}

// loadRegistry reads the config and then the registry it names.
func (p *templatesParams) loadRegistry() (*registry.Registry, error) {
	cfg, err := p.load()
	if err != nil {
		return nil, err
	}
	locations, err := registry.Load(cfg.Paths.Registry)
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return locations, nil
}

func templatesListCommand(stdout io.Writer) *cli.Command {
	var params templatesParams

	return &cli.Command{
		Name:    "list",
		Summary: "List registry entries in load order",
		Usage:   "triage templates list [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			locations, err := params.loadRegistry()
			if err != nil {
				return err
			}

			entries := locations.Entries()
			if done, err := params.EmitJSON(stdout, entries); done {
				return err
			}

			writer := tabwriter.NewWriter(stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "PROJECT\tLOG TYPE\tTEMPLATE\n")
			for _, entry := range entries {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", entry.Project, entry.LogType, entry.Template)
			}
			return writer.Flush()
		},
	}
}

func templatesCheckCommand(stdout io.Writer) *cli.Command {
	var params templatesParams

	return &cli.Command{
		Name:    "check",
		Summary: "Report duplicate registry keys",
		Description: `Load the registry and report every (project, log type) pair that
appears more than once. Lookups always use the first entry, so later
duplicates are silently ignored at resolve time.

Exits 1 when duplicates exist.`,
		Usage: "triage templates check [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("check", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			locations, err := params.loadRegistry()
			if err != nil {
				return err
			}

			duplicates := locations.Duplicates()
			if done, err := params.EmitJSON(stdout, duplicates); done {
				if err != nil {
					return err
				}
			} else if len(duplicates) == 0 {
				fmt.Fprintf(stdout, "%s: %d entries, no duplicates\n", locations.Source(), len(locations.Entries()))
			} else {
				for _, key := range duplicates {
					fmt.Fprintf(stdout, "duplicate: project %q, log type %q (first entry wins)\n", key.Project, key.LogType)
				}
			}

			if len(duplicates) > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
