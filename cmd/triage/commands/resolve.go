// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/triage/cmd/triage/cli"
	"github.com/bureau-foundation/triage/lib/resolution"
	"github.com/bureau-foundation/triage/lib/ticket"
)

type resolveParams struct {
	ConfigParams
	cli.JSONOutput
	Ticket    string `json:"ticket"     flag:"ticket"     desc:"ticket name (default: context file base name)"`
	Project   string `json:"project"    flag:"project"    desc:"project the ticket belongs to"`
	Reference string `json:"ref"        flag:"ref"        desc:"reference number to search for"`
	At        string `json:"at"         flag:"at"         desc:"ticket timestamp (YYYY-MM-DD HH:MM:SS)"`
	RequestID string `json:"request_id" flag:"request-id" desc:"correlation identifier to classify instead of the first one found"`
	LogType   string `json:"log_type"   flag:"log-type"   desc:"registry log type (default: config log_type)"`
}

// context builds the ticket context from the optional context file and
// the flags. Flags override fields read from the file.
func (p *resolveParams) context(args []string) (ticket.Context, error) {
	var context ticket.Context
	switch len(args) {
	case 0:
	case 1:
		var err error
		context, err = ticket.ReadContextFile(args[0])
		if errors.Is(err, fs.ErrNotExist) {
			return ticket.Context{}, cli.NotFound("context file %s does not exist", args[0])
		}
		if err != nil {
			return ticket.Context{}, err
		}
	default:
		return ticket.Context{}, cli.Validation("expected at most one context file, got %d arguments", len(args))
	}

	overrides := []struct {
		value  string
		target *string
	}{
		{p.Ticket, &context.Name},
		{p.Project, &context.Project},
		{p.Reference, &context.ReferenceID},
		{p.At, &context.OccurredAt},
	}
	for _, override := range overrides {
		if override.value != "" {
			*override.target = override.value
		}
	}
	return context, nil
}

func resolveCommand(stdout io.Writer) *cli.Command {
	var params resolveParams

	return &cli.Command{
		Name:    "resolve",
		Summary: "Resolve a ticket to its log evidence and verdict",
		Description: `Run every resolution stage for one ticket: find the hour bucket, locate
and decompress the archive, extract the correlation identifiers for the
reference number, filter that identifier's records, and classify the
invocation status code.

The configured root, archive, and output directories are created if
missing. Each stage writes <ticket>_step_N.txt (or .log) to the output directory
and updates <ticket>.manifest.cbor. Artifacts from an earlier run of the
same ticket are removed first. When a stage fails, the artifacts of the
stages before it remain and the report shows how far the run got.`,
		Usage: "triage resolve [<context-file>] [flags]",
		Examples: []cli.Example{
			{
				Description: "Resolve from a context file",
				Command:     "triage resolve tickets/T-1042.txt",
			},
			{
				Description: "Resolve from flags",
				Command:     "triage resolve --ticket T-1042 --project payments --ref TXN-778812 --at '2025-05-08 17:42:10'",
			},
			{
				Description: "Classify a specific request instead of the first one found",
				Command:     "triage resolve tickets/T-1042.txt --request-id req-7f3a",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("resolve", &params)
		},
		Run: func(args []string) error {
			context, err := params.context(args)
			if err != nil {
				return categorize(err)
			}

			cfg, err := params.load()
			if err != nil {
				return err
			}
			if err := cfg.EnsurePaths(); err != nil {
				return cli.Internal("%w", err)
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			resolutionConfig, err := cfg.ResolutionConfig(logger.With("command", "resolve", "ticket", context.Name))
			if err != nil {
				return cli.Validation("%w", err)
			}
			resolver, err := resolution.New(resolutionConfig)
			if err != nil {
				return cli.Validation("%w", err)
			}

			report, resolveErr := resolver.Resolve(context, resolution.Options{
				LogType:       params.LogType,
				CorrelationID: params.RequestID,
			})

			if done, err := params.EmitJSON(stdout, report); done {
				if err != nil {
					return err
				}
				return categorize(resolveErr)
			}
			if err := writeReport(stdout, report); err != nil {
				return err
			}
			return categorize(resolveErr)
		},
	}
}

// writeReport prints the report as aligned key/value lines followed by
// the artifacts that were written.
func writeReport(w io.Writer, report *resolution.Report) error {
	writer := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "ticket\t%s\n", report.Ticket)
	fmt.Fprintf(writer, "state\t%s\n", report.State)
	if report.State.Ordinal() >= resolution.StateHourResolved.Ordinal() {
		fmt.Fprintf(writer, "bucket\t%s\n", report.Bucket)
	}
	if report.Archive.Path != "" {
		fmt.Fprintf(writer, "archive\t%s\n", report.Archive.Path)
	}
	if report.CorrelationID != "" {
		fmt.Fprintf(writer, "request id\t%s (%d records)\n", report.CorrelationID, report.RecordCount)
	}
	if report.Verdict != "" {
		fmt.Fprintf(writer, "verdict\t%s\n", report.Verdict)
	}

	artifacts := []struct {
		label string
		path  string
	}{
		{resolution.StageName(resolution.StageHour), report.Artifacts.Hour},
		{resolution.StageName(resolution.StageArchive), report.Artifacts.Archive},
		{resolution.StageName(resolution.StageText), report.Artifacts.Text},
		{resolution.StageName(resolution.StageIdentifiers), report.Artifacts.Identifiers},
		{resolution.StageName(resolution.StageRecords), report.Artifacts.Records},
		{resolution.StageName(resolution.StageVerdict), report.Artifacts.Verdict},
		{"manifest", report.Artifacts.Manifest},
	}
	for _, artifact := range artifacts {
		if artifact.path != "" {
			fmt.Fprintf(writer, "  %s\t%s\n", artifact.label, artifact.path)
		}
	}
	return writer.Flush()
}
