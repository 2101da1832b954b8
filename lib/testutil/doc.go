// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test fixtures for triage packages.
//
// [WriteArchive] compresses log text into an archive file in any of the
// formats the decompressor understands (xz, lzma, zstd, gzip, lz4), so
// that tests exercise the real decoders instead of stubs.
//
// [LogRow] and [InvocationRow] build integration-log record blocks in
// the shape the production archives use: a <log-row> block with a
// <request-id> tag, free-form text, and for invocation rows a JSON
// payload carrying the status field.
//
// [UniqueID] generates monotonically increasing identifiers for ticket
// names and request ids so parallel tests never share artifact files.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no triage-internal dependencies.
package testutil
