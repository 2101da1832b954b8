// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal stage failure. Every kind aborts the current
// resolution attempt; none is retried automatically. Re-running is safe
// because each stage is a pure function of its inputs and disk state.
type Kind string

const (
	// MalformedContext: the ticket context lacks a reference number or
	// a timestamp.
	MalformedContext Kind = "malformed_context"

	// MalformedTimestamp: the timestamp does not match the
	// "YYYY-MM-DD HH:MM:SS" layout.
	MalformedTimestamp Kind = "malformed_timestamp"

	// UnknownLogLocation: the registry has no path template for the
	// (project, log type) pair. No fallback template is substituted.
	UnknownLogLocation Kind = "unknown_log_location"

	// ArchiveNotFound: the expanded archive file does not exist under
	// the archive directory.
	ArchiveNotFound Kind = "archive_not_found"

	// CorruptArchive: the archive could not be decompressed (unknown
	// format, bad magic, truncated stream, checksum mismatch).
	CorruptArchive Kind = "corrupt_archive"

	// EncodingError: the decompressed bytes are not valid UTF-8 text.
	EncodingError Kind = "encoding_error"
)

// Error is a stage failure tagged with its [Kind]. The wrapped error
// carries the human-readable detail.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error of the given kind with a formatted message.
// Use %w in format to keep an underlying cause in the chain.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if
// err is nil or carries no kind (for example an I/O failure writing an
// artifact).
func KindOf(err error) Kind {
	var stageError *Error
	if errors.As(err, &stageError) {
		return stageError.Kind
	}
	return ""
}
