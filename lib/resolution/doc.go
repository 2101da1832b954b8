// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolution sequences the evidence stages for one ticket and
// persists each stage's result as a numbered artifact file.
//
// A [Resolver] is built once from an explicit [Config] and holds no
// mutable state, so one Resolver may serve concurrent calls for
// different tickets. Two concurrent calls for the same ticket race on
// the same artifact files; callers must serialize those.
//
// [Resolver.Resolve] walks the states
//
//	Start → HourResolved → ArchiveLocated → Decompressed →
//	IdentifiersExtracted → RecordsFiltered → Classified
//
// strictly in order. Values produced by one stage (the hour bucket, the
// archive handle, the decompressed text, the filtered records) are
// passed to the next in memory and never re-read from the artifacts.
// The first failing stage aborts the run: later stages are skipped and
// the returned [Report] holds the last state reached.
//
// Artifacts for ticket T, all in Config.OutputDir:
//
//	T_step_1.txt       need log of <hour bucket>
//	T_step_2.txt       absolute archive path
//	T_step_3.log       decompressed log text
//	T_step_4.txt       sorted correlation identifiers, one per line
//	T_step_5.log       matching record blocks, one per line
//	T_step_6.txt       verdict sentence
//	T.manifest.cbor    run manifest (see [Manifest])
//
// Every file is written atomically. The ticket's previous artifacts are
// removed before stage 1, so a failed re-run never leaves stale
// later-stage files next to fresh earlier ones. Stages 1 through 5 are
// pure functions of the ticket and the bytes on disk: re-running
// produces byte-identical files.
package resolution
