// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Triage resolves support tickets to the log evidence behind them.
//
// Usage:
//
//	triage resolve <context-file> [flags]
//	triage locate --project NAME --at TIMESTAMP [flags]
//	triage templates list|check [flags]
//	triage inspect <ticket> [--archive] [flags]
//	triage version
//
// Configuration is read from the file named by --config or the
// TRIAGE_CONFIG environment variable. See lib/config for the schema.
package main
