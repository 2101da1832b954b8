// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bureau-foundation/triage/lib/evidence"
)

// Context is the immutable input to one resolution attempt.
type Context struct {
	// Name namespaces the artifacts written for this ticket.
	Name string `json:"name"`

	// Project selects the registry row together with the log type.
	Project string `json:"project"`

	// ReferenceID is the customer-visible transaction reference
	// searched for inside log records.
	ReferenceID string `json:"reference_id"`

	// OccurredAt is the transaction time in "YYYY-MM-DD HH:MM:SS"
	// form. It is kept as text; lib/evidence parses it.
	OccurredAt string `json:"occurred_at"`
}

// Validate reports a MalformedContext error when the reference number
// or timestamp is missing. Both problems are reported together.
func (c Context) Validate() error {
	var problems []error
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, errors.New("ticket name is empty"))
	} else if strings.ContainsAny(c.Name, `/\`) || c.Name == "." || c.Name == ".." {
		problems = append(problems, fmt.Errorf("ticket name %q is not a plain file name", c.Name))
	}
	if strings.TrimSpace(c.ReferenceID) == "" {
		problems = append(problems, errors.New("reference number is empty"))
	}
	if strings.TrimSpace(c.OccurredAt) == "" {
		problems = append(problems, errors.New("timestamp is empty"))
	}
	if err := errors.Join(problems...); err != nil {
		return &evidence.Error{Kind: evidence.MalformedContext, Err: err}
	}
	return nil
}

var (
	referencePattern = regexp.MustCompile(`(?i)^(?:ref\.?\s*no\.?|extid|reference\s*id)(?:\s*:\s*|\s+)(\S.*)$`)
	timestampPattern = regexp.MustCompile(`(?i)^date\s*/\s*time(?:\s*:\s*|\s+)(\S.*)$`)
	projectPattern   = regexp.MustCompile(`(?i)^project(?:\s*:\s*|\s+)(\S.*)$`)
)

// ParseContext reads "Label: value" lines from r. The first occurrence
// of each label wins. Only the date and time-of-day fields of the
// timestamp are kept, so trailing zone names or comments are dropped.
// The returned context has no Name; the caller assigns one.
//
// ParseContext does not validate: a context missing fields is returned
// as-is so callers can fill gaps from flags before calling
// [Context.Validate].
func ParseContext(r io.Reader) (Context, error) {
	var context Context
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" {
			continue
		}
		if match := referencePattern.FindStringSubmatch(line); match != nil {
			if context.ReferenceID == "" {
				context.ReferenceID = strings.TrimSpace(match[1])
			}
			continue
		}
		if match := timestampPattern.FindStringSubmatch(line); match != nil {
			if context.OccurredAt == "" {
				context.OccurredAt = strings.Join(firstFields(match[1], 2), " ")
			}
			continue
		}
		if match := projectPattern.FindStringSubmatch(line); match != nil {
			if context.Project == "" {
				context.Project = strings.TrimSpace(match[1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Context{}, fmt.Errorf("reading ticket context: %w", err)
	}
	return context, nil
}

// ReadContextFile parses the context file at path and names the
// context after the file.
func ReadContextFile(path string) (Context, error) {
	file, err := os.Open(path)
	if err != nil {
		return Context{}, fmt.Errorf("opening ticket context: %w", err)
	}
	defer file.Close()

	context, err := ParseContext(file)
	if err != nil {
		return Context{}, fmt.Errorf("%s: %w", path, err)
	}
	context.Name = NameFromPath(path)
	return context, nil
}

// NameFromPath returns the base name of path with its final extension
// removed: "tickets/T-1042.txt" names ticket "T-1042".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func firstFields(text string, limit int) []string {
	fields := strings.Fields(text)
	if len(fields) > limit {
		fields = fields[:limit]
	}
	return fields
}
