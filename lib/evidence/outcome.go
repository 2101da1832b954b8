// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Defaults describing the downstream deposit call recorded in the
// integration logs.
const (
	DefaultInvocationMarker = "Service Invocation returned:"
	DefaultOperation        = "doAccountBaseDeposit"
	DefaultStatusField      = "AuthRespCode"
	DefaultSuccessCode      = 1
)

// OutcomeKind is the terminal classification of a resolution.
type OutcomeKind string

const (
	// Success: the invocation record carries the success status code.
	Success OutcomeKind = "success"

	// Failure: the invocation record carries any other status code.
	Failure OutcomeKind = "failure"

	// NoInvocationFound: records for the identifier exist, but none
	// records the downstream invocation with a status code.
	NoInvocationFound OutcomeKind = "no_invocation_found"

	// NoRecordFound: no record mentions the reference number, or none
	// of those records carries a correlation identifier.
	NoRecordFound OutcomeKind = "no_record_found"
)

// Outcome is the verdict for one ticket. It is produced once and never
// modified.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	// Code is the status code read from the invocation record. Set for
	// Success and Failure only. Zero when Status does not fit an int.
	Code int `json:"code"`

	// Status is the status code's digits without leading zeros, exactly
	// as long as the record wrote them.
	Status string `json:"status,omitempty"`

	// CorrelationID is the identifier that was classified. Empty for
	// NoRecordFound.
	CorrelationID string `json:"correlation_id,omitempty"`

	// ReferenceID is the ticket reference the evidence was searched for.
	ReferenceID string `json:"reference_id,omitempty"`

	// Record is the raw invocation record the decision was read from.
	Record string `json:"-"`
}

// Verdict renders the outcome as the sentence a reviewer reads, naming
// the status field and identifier tag the evidence was read from.
func (o Outcome) Verdict(statusField, identifierTag string) string {
	status := o.Status
	if status == "" {
		status = strconv.Itoa(o.Code)
	}
	switch o.Kind {
	case Success:
		return fmt.Sprintf("%s=%s for %s %s: success", statusField, status, identifierTag, o.CorrelationID)
	case Failure:
		return fmt.Sprintf("%s=%s for %s %s: this is the problem", statusField, status, identifierTag, o.CorrelationID)
	case NoInvocationFound:
		return fmt.Sprintf("No invocation block with %s found for %s %s", statusField, identifierTag, o.CorrelationID)
	case NoRecordFound:
		return fmt.Sprintf("No %s found for ref %s", identifierTag, o.ReferenceID)
	}
	return fmt.Sprintf("unknown outcome %q", o.Kind)
}

// Classifier decides the outcome from the records of one correlation
// identifier.
type Classifier struct {
	Format           *RecordFormat
	InvocationMarker string
	Operation        string
	StatusField      string
	SuccessCode      int

	invocation *regexp.Regexp
	status     *regexp.Regexp
}

// NewClassifier compiles a Classifier. Empty strings fall back to the
// defaults; successCode is used as given.
func NewClassifier(format *RecordFormat, invocationMarker, operation, statusField string, successCode int) (*Classifier, error) {
	if format == nil {
		format = DefaultRecordFormat()
	}
	if invocationMarker == "" {
		invocationMarker = DefaultInvocationMarker
	}
	if operation == "" {
		operation = DefaultOperation
	}
	if statusField == "" {
		statusField = DefaultStatusField
	}

	// The marker and the method line are usually on different lines of
	// the same record, with the call details in between.
	invocation, err := regexp.Compile(`(?is)` + regexp.QuoteMeta(invocationMarker) +
		`.*?Method:\s*` + regexp.QuoteMeta(operation))
	if err != nil {
		return nil, fmt.Errorf("compiling invocation signature: %w", err)
	}
	// A quoted value must be all digits up to the closing quote.
	status, err := regexp.Compile(`"` + regexp.QuoteMeta(statusField) + `"\s*:\s*(?:"(\d+)"|(\d+)\b)`)
	if err != nil {
		return nil, fmt.Errorf("compiling status field: %w", err)
	}

	return &Classifier{
		Format:           format,
		InvocationMarker: invocationMarker,
		Operation:        operation,
		StatusField:      statusField,
		SuccessCode:      successCode,
		invocation:       invocation,
		status:           status,
	}, nil
}

// DefaultClassifier returns the classifier for the deposit invocation.
func DefaultClassifier() *Classifier {
	classifier, err := NewClassifier(nil, "", "", "", DefaultSuccessCode)
	if err != nil {
		panic("evidence: default classifier: " + err.Error())
	}
	return classifier
}

// IsInvocation reports whether record describes the configured
// downstream operation call.
func (c *Classifier) IsInvocation(record Record) bool {
	return c.invocation.MatchString(record.Body)
}

// StatusCode reads the numeric status field from record and returns its
// digits with leading zeros removed ("0" for an all-zero value). The
// digits are kept as text so codes wider than an int still classify.
func (c *Classifier) StatusCode(record Record) (string, bool) {
	match := c.status.FindStringSubmatch(record.Body)
	if match == nil {
		return "", false
	}
	digits := match[1] + match[2]
	if trimmed := strings.TrimLeft(digits, "0"); trimmed != "" {
		return trimmed, true
	}
	return "0", true
}

// Classify scans records in order and decides on the first one that
// carries the exact identifier, matches the invocation signature, and
// has a status code. Later records are never considered. Records that
// match the signature but carry no status code are passed over.
func (c *Classifier) Classify(id string, records []Record) Outcome {
	for _, record := range records {
		if !c.Format.HasIdentifier(record, id) || !c.IsInvocation(record) {
			continue
		}
		status, ok := c.StatusCode(record)
		if !ok {
			continue
		}
		kind := Failure
		if status == strconv.Itoa(c.SuccessCode) {
			kind = Success
		}
		// An out-of-range code is still a failure; Status carries it.
		code, err := strconv.Atoi(status)
		if err != nil {
			code = 0
		}
		return Outcome{Kind: kind, Code: code, Status: status, CorrelationID: id, Record: record.Raw}
	}
	return Outcome{Kind: NoInvocationFound, CorrelationID: id}
}
