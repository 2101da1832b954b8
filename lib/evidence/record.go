// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Default record markers and identifier tag used by the integration
// log archives.
const (
	DefaultStartMarker   = "<log-row>"
	DefaultEndMarker     = "</log-row>"
	DefaultIdentifierTag = "request-id"
)

// RecordFormat describes how records are delimited in decompressed log
// text and which tag carries a record's correlation identifier.
//
// Extraction is delimiter-based, not a balanced parse: a record runs
// from a start marker to the nearest following end marker, and any
// start marker in between is just part of the record's text. Markers
// and the tag name match case-insensitively.
type RecordFormat struct {
	StartMarker   string
	EndMarker     string
	IdentifierTag string

	block      *regexp.Regexp
	identifier *regexp.Regexp
}

// Record is one delimited block of log text.
type Record struct {
	// Raw is the block including its start and end markers, exactly as
	// it appears in the log.
	Raw string

	// Body is the text between the markers.
	Body string

	// Offset is the byte offset of Raw within the log text.
	Offset int
}

// Extraction is the result of scanning log text for a reference number.
type Extraction struct {
	// Records are the blocks whose body contains the reference number,
	// in file order.
	Records []Record

	// Identifiers is the distinct set of correlation identifiers found
	// in Records, sorted so that rendered output is deterministic.
	Identifiers []string

	// FirstSeen lists the same identifiers in the order they first
	// appear in the log.
	FirstSeen []string
}

// NewRecordFormat compiles a RecordFormat. Empty arguments fall back to
// the defaults.
func NewRecordFormat(startMarker, endMarker, identifierTag string) (*RecordFormat, error) {
	if startMarker == "" {
		startMarker = DefaultStartMarker
	}
	if endMarker == "" {
		endMarker = DefaultEndMarker
	}
	if identifierTag == "" {
		identifierTag = DefaultIdentifierTag
	}
	if strings.ContainsAny(identifierTag, "<>/") {
		return nil, fmt.Errorf("identifier tag %q must be a bare tag name", identifierTag)
	}

	block, err := regexp.Compile(`(?is)` + regexp.QuoteMeta(startMarker) + `(.*?)` + regexp.QuoteMeta(endMarker))
	if err != nil {
		return nil, fmt.Errorf("compiling record markers: %w", err)
	}
	quotedTag := regexp.QuoteMeta(identifierTag)
	identifier, err := regexp.Compile(`(?i)<` + quotedTag + `>([^<]+)</` + quotedTag + `>`)
	if err != nil {
		return nil, fmt.Errorf("compiling identifier tag: %w", err)
	}

	return &RecordFormat{
		StartMarker:   startMarker,
		EndMarker:     endMarker,
		IdentifierTag: identifierTag,
		block:         block,
		identifier:    identifier,
	}, nil
}

// DefaultRecordFormat returns the format of the integration log
// archives.
func DefaultRecordFormat() *RecordFormat {
	format, err := NewRecordFormat("", "", "")
	if err != nil {
		panic("evidence: default record format: " + err.Error())
	}
	return format
}

// RecordName is the start marker without its angle brackets, used when
// a message has to name the kind of record ("log-row").
func (f *RecordFormat) RecordName() string {
	name := strings.Trim(f.StartMarker, "<>")
	if name == "" {
		return f.StartMarker
	}
	return name
}

// Blocks returns every record in text, in file order. Unterminated
// trailing text (a start marker with no end marker after it) is not a
// record.
func (f *RecordFormat) Blocks(text string) []Record {
	matches := f.block.FindAllStringSubmatchIndex(text, -1)
	records := make([]Record, 0, len(matches))
	for _, match := range matches {
		records = append(records, Record{
			Raw:    text[match[0]:match[1]],
			Body:   text[match[2]:match[3]],
			Offset: match[0],
		})
	}
	return records
}

// Identifier returns the first correlation identifier in record, if
// any.
func (f *RecordFormat) Identifier(record Record) (string, bool) {
	match := f.identifier.FindStringSubmatch(record.Body)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// HasIdentifier reports whether any identifier field in record has
// exactly the value id. The comparison is on the whole field value,
// not a substring.
func (f *RecordFormat) HasIdentifier(record Record, id string) bool {
	for _, match := range f.identifier.FindAllStringSubmatch(record.Body, -1) {
		if match[1] == id {
			return true
		}
	}
	return false
}

// Extract finds the records whose text contains referenceID (plain
// substring containment anywhere in the record body) and collects the
// correlation identifiers they carry. An empty result is not an error:
// it means the evidence could not be located in this archive.
func (f *RecordFormat) Extract(text, referenceID string) Extraction {
	var extraction Extraction
	if referenceID == "" {
		return extraction
	}

	seen := make(map[string]bool)
	for _, record := range f.Blocks(text) {
		if !strings.Contains(record.Body, referenceID) {
			continue
		}
		extraction.Records = append(extraction.Records, record)

		id, ok := f.Identifier(record)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		extraction.FirstSeen = append(extraction.FirstSeen, id)
	}

	extraction.Identifiers = append([]string(nil), extraction.FirstSeen...)
	sort.Strings(extraction.Identifiers)
	return extraction
}

// Filter returns the records carrying the correlation identifier id,
// in file order. Unlike [RecordFormat.Extract], the match is on the
// exact identifier field value. An empty result is valid.
func (f *RecordFormat) Filter(text, id string) []Record {
	var matched []Record
	for _, record := range f.Blocks(text) {
		if f.HasIdentifier(record, id) {
			matched = append(matched, record)
		}
	}
	return matched
}
