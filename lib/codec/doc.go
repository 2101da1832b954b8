// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for on-disk run
// manifests.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same manifest always produces identical bytes, so two runs over the
// same inputs leave byte-identical manifests apart from timestamps.
//
//	data, err := codec.Marshal(manifest)
//	err = codec.Unmarshal(data, &manifest)
//
// Types that are also printed as CLI --json output carry only `json`
// tags; fxamacker/cbor reads them as a fallback, so one tag controls
// field naming for both formats. Never put both `cbor` and `json` tags
// on the same field.
//
// time.Time values encode as RFC 3339 text with nanoseconds, which
// keeps [Diagnose] output readable when an operator inspects a
// manifest by hand.
package codec
