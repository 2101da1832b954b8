// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package evidence implements the individual stages that turn a ticket's
// reference number and timestamp into a verdict backed by log evidence.
//
// The stages, in pipeline order:
//
//   - [ResolveHour]: timestamp → [HourBucket] (whole-hour truncation, no
//     timezone conversion)
//   - [ExpandTemplate] and [Locate]: registry path template + bucket →
//     [ArchiveHandle] under a flat archive directory
//   - [Decompress]: archive → decoded log text (xz, lzma, zstd, gzip, lz4)
//   - [RecordFormat.Extract]: log text + reference number → candidate
//     correlation identifiers
//   - [RecordFormat.Filter]: log text + one identifier → the record
//     blocks that carry it
//   - [Classifier.Classify]: record blocks → [Outcome]
//
// Every function here is pure given its inputs and the bytes on disk.
// Nothing is cached between calls; sequencing the stages and persisting
// their output is the job of lib/resolution.
//
// Stage failures are returned as *[Error] values carrying a [Kind].
// "The evidence could not be located" outcomes ([NoRecordFound],
// [NoInvocationFound]) are not errors: they are [Outcome] kinds.
//
// This package depends on no other triage packages.
package evidence
