// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/triage/lib/evidence"
)

// Column headers of the CSV registry. Matching is case-insensitive and
// ignores surrounding whitespace.
const (
	ColumnProject   = "Project"
	ColumnLogType   = "Log Type"
	ColumnHowToFind = "How to find"
)

// PathTemplate is one registry entry.
type PathTemplate struct {
	Project  string `json:"project"     yaml:"project"`
	LogType  string `json:"log_type"    yaml:"log_type"`
	Template string `json:"how_to_find" yaml:"how_to_find"`
}

// Key identifies a registry entry.
type Key struct {
	Project string `json:"project"`
	LogType string `json:"log_type"`
}

// Registry is an ordered, immutable collection of path templates.
type Registry struct {
	source  string
	entries []PathTemplate
}

// New builds a Registry from entries in the given order. source is a
// label used in error messages (typically the file path).
func New(source string, entries []PathTemplate) *Registry {
	return &Registry{
		source:  source,
		entries: append([]PathTemplate(nil), entries...),
	}
}

// Source returns the label the registry was loaded from.
func (r *Registry) Source() string { return r.source }

// Entries returns a copy of the entries in load order.
func (r *Registry) Entries() []PathTemplate {
	return append([]PathTemplate(nil), r.entries...)
}

// Lookup returns the template for the exact (project, logType) pair.
// The first matching entry wins. A missing entry is an
// UnknownLogLocation error: there is no fallback template.
func (r *Registry) Lookup(project, logType string) (string, error) {
	for _, entry := range r.entries {
		if entry.Project == project && entry.LogType == logType {
			return entry.Template, nil
		}
	}
	return "", evidence.Errorf(evidence.UnknownLogLocation,
		"no log location for project %q, log type %q in %s", project, logType, r.source)
}

// Duplicates returns every key that appears more than once, in order of
// first appearance. Lookup silently uses the first of each.
func (r *Registry) Duplicates() []Key {
	counts := make(map[Key]int, len(r.entries))
	var order []Key
	for _, entry := range r.entries {
		key := Key{Project: entry.Project, LogType: entry.LogType}
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}

	var duplicates []Key
	for _, key := range order {
		if counts[key] > 1 {
			duplicates = append(duplicates, key)
		}
	}
	return duplicates
}

// Load reads a registry file. The format follows the extension: .csv,
// .yaml/.yml, or .json/.jsonc.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading log-location registry: %w", err)
	}

	var entries []PathTemplate
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		entries, err = ParseCSV(bytes.NewReader(data))
	case ".yaml", ".yml":
		entries, err = ParseYAML(data)
	case ".json", ".jsonc":
		entries, err = ParseJSONC(data)
	default:
		return nil, fmt.Errorf("log-location registry %s: unsupported extension (want .csv, .yaml, .yml, .json, .jsonc)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := validate(entries); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(path, entries), nil
}

// ParseCSV reads a registry table with a header row. Extra columns are
// ignored; blank rows are skipped.
func ParseCSV(reader io.Reader) ([]PathTemplate, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("registry is empty (expected a header row)")
		}
		return nil, fmt.Errorf("reading registry header: %w", err)
	}

	columns := map[string]int{}
	for index, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		columns[strings.ToLower(strings.TrimSpace(name))] = index
	}
	indexOf := func(name string) (int, error) {
		index, ok := columns[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("registry header is missing column %q", name)
		}
		return index, nil
	}
	projectColumn, err := indexOf(ColumnProject)
	if err != nil {
		return nil, err
	}
	logTypeColumn, err := indexOf(ColumnLogType)
	if err != nil {
		return nil, err
	}
	templateColumn, err := indexOf(ColumnHowToFind)
	if err != nil {
		return nil, err
	}

	var entries []PathTemplate
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading registry: %w", err)
		}
		if isBlank(row) {
			continue
		}
		line, _ := csvReader.FieldPos(0)
		field := func(index int) (string, error) {
			if index >= len(row) {
				return "", fmt.Errorf("line %d: missing column %d", line, index+1)
			}
			return strings.TrimSpace(row[index]), nil
		}

		var entry PathTemplate
		if entry.Project, err = field(projectColumn); err != nil {
			return nil, err
		}
		if entry.LogType, err = field(logTypeColumn); err != nil {
			return nil, err
		}
		if entry.Template, err = field(templateColumn); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseYAML reads a YAML list of registry entries.
func ParseYAML(data []byte) ([]PathTemplate, error) {
	var entries []PathTemplate
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing registry YAML: %w", err)
	}
	return entries, nil
}

// ParseJSONC reads a JSON list of registry entries. Comments and
// trailing commas are stripped first.
func ParseJSONC(data []byte) ([]PathTemplate, error) {
	var entries []PathTemplate
	if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
		return nil, fmt.Errorf("parsing registry JSON: %w", err)
	}
	return entries, nil
}

// validate rejects entries with empty fields. Every problem is
// reported, not just the first.
func validate(entries []PathTemplate) error {
	var problems []error
	for index, entry := range entries {
		if entry.Project == "" {
			problems = append(problems, fmt.Errorf("entry %d: project is empty", index+1))
		}
		if entry.LogType == "" {
			problems = append(problems, fmt.Errorf("entry %d: log type is empty", index+1))
		}
		if entry.Template == "" {
			problems = append(problems, fmt.Errorf("entry %d: how-to-find template is empty", index+1))
		}
	}
	return errors.Join(problems...)
}

func isBlank(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
