// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/triage/cmd/triage/cli"
	"github.com/bureau-foundation/triage/lib/evidence"
	"github.com/bureau-foundation/triage/lib/registry"
)

type locateParams struct {
	ConfigParams
	cli.JSONOutput
	Project string `json:"project"  flag:"project" desc:"project name as it appears in the registry"`
	At      string `json:"at"       flag:"at"      desc:"timestamp (YYYY-MM-DD HH:MM:SS)"`
	LogType string `json:"log_type" flag:"log-type" desc:"registry log type (default: config log_type)"`
}

// locateResult is the JSON shape of "triage locate".
type locateResult struct {
	Project  string `json:"project"`
	LogType  string `json:"log_type"`
	Bucket   string `json:"bucket"`
	Template string `json:"template"`
	Expanded string `json:"expanded"`
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
}

func locateCommand(stdout io.Writer) *cli.Command {
	var params locateParams

	return &cli.Command{
		Name:    "locate",
		Summary: "Show which archive covers a project and timestamp",
		Description: `Resolve the hour bucket for a timestamp, look up the project's path
template in the registry, and report the archive path it expands to
under the archive directory. Nothing is decompressed or written.

Exits 1 when the archive does not exist.`,
		Usage: "triage locate --project NAME --at TIMESTAMP [flags]",
		Examples: []cli.Example{
			{
				Description: "Find the integration log for a ticket's hour",
				Command:     "triage locate --project payments --at '2025-05-08 17:42:10'",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("locate", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.Project == "" {
				return cli.Validation("--project is required")
			}
			if params.At == "" {
				return cli.Validation("--at is required")
			}

			cfg, err := params.load()
			if err != nil {
				return err
			}
			logType := params.LogType
			if logType == "" {
				logType = cfg.LogType
			}

			bucket, err := evidence.ResolveHour(params.At)
			if err != nil {
				return categorize(err)
			}
			locations, err := registry.Load(cfg.Paths.Registry)
			if err != nil {
				return cli.Internal("%w", err)
			}
			template, err := locations.Lookup(params.Project, logType)
			if err != nil {
				return cli.NotFound("%w", err).
					WithHint("Run 'triage templates list' to see configured projects.")
			}

			archiveDir, err := filepath.Abs(cfg.Paths.Archives)
			if err != nil {
				return cli.Internal("resolving archive directory: %w", err)
			}
			result := locateResult{
				Project:  params.Project,
				LogType:  logType,
				Bucket:   bucket.String(),
				Template: template,
				Expanded: evidence.ExpandTemplate(template, bucket),
				Path:     filepath.Join(archiveDir, evidence.ArchiveName(template, bucket)),
			}

			_, locateErr := evidence.Locate(archiveDir, template, bucket)
			if locateErr != nil && evidence.KindOf(locateErr) != evidence.ArchiveNotFound {
				return categorize(locateErr)
			}
			result.Exists = locateErr == nil

			if done, err := params.EmitJSON(stdout, result); done {
				if err != nil {
					return err
				}
			} else if err := writeLocateResult(stdout, result); err != nil {
				return err
			}

			if !result.Exists {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func writeLocateResult(w io.Writer, result locateResult) error {
	exists := "yes"
	if !result.Exists {
		exists = "no"
	}
	writer := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "bucket\t%s\n", result.Bucket)
	fmt.Fprintf(writer, "template\t%s\n", result.Template)
	fmt.Fprintf(writer, "expanded\t%s\n", result.Expanded)
	fmt.Fprintf(writer, "archive\t%s\n", result.Path)
	fmt.Fprintf(writer, "exists\t%s\n", exists)
	return writer.Flush()
}
