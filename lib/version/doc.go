// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports what build of triage is running.
//
// The values come from -ldflags -X at build time; development builds and
// tests see "0.1.0-dev" and "unknown". [Current] returns them as a
// [BuildInfo] for "triage version --json", and [Full] formats them with
// the Go toolchain and platform for the plain-text form.
//
//	go build -ldflags "-X github.com/bureau-foundation/triage/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/triage
package version
