// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes BLAKE3 keyed digests of resolution artifacts.
//
// Each use of a digest gets its own 32-byte domain key so the same
// bytes hash differently depending on what they represent. Digests are
// stored in the run manifest and recomputed by manifest verification
// to detect artifacts that were edited or truncated after a run.
package digest
