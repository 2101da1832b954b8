// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the triage CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. Commands are assembled into a tree in
// cmd/triage/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// Parameter structs declare their flags with struct tags and are bound
// through [FlagsFromParams]. Embedding [JSONOutput] adds a --json flag.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3).
//
// Errors returned to main are either a [ToolError] (categorized:
// validation, not_found, internal) or an [ExitError] for commands that
// already printed their own output and only need a non-zero status.
package cli
