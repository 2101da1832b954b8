// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ticket holds the parsed context of a support ticket: the
// project it was filed against, the reference number the customer
// quoted, and the time the transaction happened.
//
// A context is usually read from a plain-text file with one
// "Label: value" pair per line:
//
//	Project: payments
//	Ref No.: TXN-778812
//	Date/Time: 2025-05-08 17:42:10
//
// Labels are matched case-insensitively. "ExtID" and "Reference ID" are
// accepted as aliases for "Ref No.". Unrecognized lines (free-form
// ticket description) are ignored. The ticket name used to namespace
// resolution artifacts is the file's base name without extension.
package ticket
