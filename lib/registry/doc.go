// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry loads the log-location registry: the table that says,
// for each (project, log type) pair, how to find that log's hourly
// archive. Each entry carries a path template with {year}, {month},
// {date}, and {hour} placeholders (expanded by lib/evidence).
//
// The registry is read-only input. It can be authored as:
//
//   - CSV with a header row naming the columns "Project", "Log Type",
//     and "How to find" (the spreadsheet export the operations team
//     maintains)
//   - YAML: a list of {project, log_type, how_to_find} mappings
//   - JSONC: the same list as JSON, with comments and trailing commas
//
// The format is chosen by file extension in [Load].
//
// [Registry.Lookup] scans entries in file order and returns the first
// match. Duplicate keys are not rejected at load time, because the
// upstream registry has never promised uniqueness; [Registry.Duplicates]
// reports them so the ambiguity can be surfaced and fixed at the source.
//
// This package depends on lib/evidence only for the UnknownLogLocation
// error kind.
package registry
