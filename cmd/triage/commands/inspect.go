// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/triage/cmd/triage/cli"
	"github.com/bureau-foundation/triage/lib/codec"
	"github.com/bureau-foundation/triage/lib/resolution"
)

type inspectParams struct {
	ConfigParams
	cli.JSONOutput
	Archive  bool `json:"archive"  flag:"archive"  desc:"also re-digest the source archive"`
	Diagnose bool `json:"diagnose" flag:"diagnose" desc:"also print the manifest in CBOR diagnostic notation"`
}

// inspectResult is the JSON shape of "triage inspect".
type inspectResult struct {
	Manifest *resolution.Manifest `json:"manifest"`
	Drift    []resolution.Drift   `json:"drift"`

	// Diagnostic is the raw manifest in CBOR diagnostic notation, set
	// with --diagnose.
	Diagnostic string `json:"diagnostic,omitempty"`
}

func inspectCommand(stdout io.Writer) *cli.Command {
	var params inspectParams

	return &cli.Command{
		Name:    "inspect",
		Summary: "Show a ticket's manifest and verify its artifacts",
		Description: `Read <ticket>.manifest.cbor from the output directory, print what the
last run recorded, and re-digest every artifact it lists. With
--archive the compressed source archive is re-digested too. With
--diagnose the manifest bytes are also printed in CBOR diagnostic
notation (RFC 8949), exactly as stored.

Exits 1 when any file is missing or no longer matches its recorded
size and digest.`,
		Usage: "triage inspect <ticket> [flags]",
		Examples: []cli.Example{
			{
				Description: "Verify the evidence for a ticket",
				Command:     "triage inspect T-1042 --archive",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("inspect", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one ticket name, got %d arguments", len(args))
			}
			cfg, err := params.load()
			if err != nil {
				return err
			}

			manifest, err := resolution.ReadManifest(cfg.Paths.Output, args[0])
			if errors.Is(err, fs.ErrNotExist) {
				return cli.NotFound("no manifest for ticket %q in %s", args[0], cfg.Paths.Output).
					WithHint(fmt.Sprintf("Run 'triage resolve' for %s first.", args[0]))
			}
			if err != nil {
				return cli.Internal("%w", err)
			}

			result := inspectResult{Manifest: manifest, Drift: nonNilDrift(resolution.VerifyManifest(manifest, params.Archive))}
			if params.Diagnose {
				data, err := os.ReadFile(resolution.ManifestPath(cfg.Paths.Output, args[0]))
				if err != nil {
					return cli.Internal("reading manifest: %w", err)
				}
				result.Diagnostic, err = codec.Diagnose(data)
				if err != nil {
					return cli.Internal("diagnosing manifest: %w", err)
				}
			}

			if done, err := params.EmitJSON(stdout, result); done {
				if err != nil {
					return err
				}
			} else if err := writeManifest(stdout, result); err != nil {
				return err
			}

			if len(result.Drift) > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func nonNilDrift(drift []resolution.Drift) []resolution.Drift {
	if drift == nil {
		return []resolution.Drift{}
	}
	return drift
}

func writeManifest(w io.Writer, result inspectResult) error {
	manifest := result.Manifest
	writer := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "ticket\t%s\n", manifest.Ticket)
	fmt.Fprintf(writer, "project\t%s (%s)\n", manifest.Project, manifest.LogType)
	fmt.Fprintf(writer, "reference\t%s\n", manifest.ReferenceID)
	fmt.Fprintf(writer, "occurred at\t%s\n", manifest.OccurredAt)
	fmt.Fprintf(writer, "state\t%s\n", manifest.State)
	fmt.Fprintf(writer, "run\t%s (%s)\n", manifest.Started.Format(time.RFC3339), manifest.Finished.Sub(manifest.Started))
	if manifest.Source != nil {
		fmt.Fprintf(writer, "archive\t%s (%d bytes, %s)\n", manifest.Source.Path, manifest.Source.Size, manifest.Source.Digest)
	}
	if manifest.Result != nil {
		fmt.Fprintf(writer, "verdict\t%s\n", manifest.Result.Verdict)
	}
	if manifest.Error != nil {
		fmt.Fprintf(writer, "error\tstage %d: %s\n", manifest.Error.Stage, manifest.Error.Message)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	writer = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "STAGE\tNAME\tSIZE\tDIGEST\tPATH\n")
	for _, stage := range manifest.Stages {
		fmt.Fprintf(writer, "%d\t%s\t%d\t%s\t%s\n", stage.Number, stage.Name, stage.Size, stage.Digest, stage.Path)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if len(result.Drift) == 0 {
		fmt.Fprintln(w, "\nall artifacts verified")
	} else {
		fmt.Fprintln(w)
		for _, problem := range result.Drift {
			fmt.Fprintf(w, "drift: %s\n", problem)
		}
	}

	if result.Diagnostic != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n", result.Diagnostic); err != nil {
			return err
		}
	}
	return nil
}
