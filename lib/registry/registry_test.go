// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/triage/lib/evidence"
)

const integrationTemplate = "/srv/logs/payments/integration.log.{year}-{month}-{date}.{hour}.xz"

func writeRegistry(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing registry: %v", err)
	}
	return path
}

func TestLoad_Formats(t *testing.T) {
	t.Parallel()

	want := []PathTemplate{
		{Project: "payments", LogType: "integration", Template: integrationTemplate},
		{Project: "payments", LogType: "gateway", Template: "gateway.{year}{month}{date}{hour}.xz"},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "csv",
			file: "locations.csv",
			content: "Project,Log Type,How to find\n" +
				"payments,integration," + integrationTemplate + "\n" +
				"\n" +
				"payments, gateway ,gateway.{year}{month}{date}{hour}.xz\n",
		},
		{
			name: "csv with reordered columns and extras",
			file: "locations.csv",
			content: "\ufeffhow to find,Owner,PROJECT,log type\n" +
				integrationTemplate + ",team-a,payments,integration\n" +
				"gateway.{year}{month}{date}{hour}.xz,team-b,payments,gateway\n",
		},
		{
			name: "yaml",
			file: "locations.yaml",
			content: `
- project: payments
  log_type: integration
  how_to_find: ` + integrationTemplate + `
- project: payments
  log_type: gateway
  how_to_find: "gateway.{year}{month}{date}{hour}.xz"
`,
		},
		{
			name: "jsonc",
			file: "locations.jsonc",
			content: `[
  // hourly integration archives
  {"project": "payments", "log_type": "integration", "how_to_find": "` + integrationTemplate + `"},
  {"project": "payments", "log_type": "gateway", "how_to_find": "gateway.{year}{month}{date}{hour}.xz",},
]`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			registry, err := Load(writeRegistry(t, test.file, test.content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(want, registry.Entries()); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unsupported extension", "locations.txt", "x", "unsupported extension"},
		{"missing column", "locations.csv", "Project,Log Type\npayments,integration\n", `missing column "How to find"`},
		{"empty csv", "locations.csv", "", "empty"},
		{"empty template", "locations.csv", "Project,Log Type,How to find\npayments,integration,\n", "template is empty"},
		{"bad yaml", "locations.yaml", "project: [", "parsing registry YAML"},
		{"bad json", "locations.json", "{", "parsing registry JSON"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeRegistry(t, test.file, test.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error %q does not contain %q", err, test.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing registry")
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	registry := New("test", []PathTemplate{
		{Project: "payments", LogType: "gateway", Template: "g.{hour}"},
		{Project: "payments", LogType: "integration", Template: "first.{hour}"},
		{Project: "payments", LogType: "integration", Template: "second.{hour}"},
		{Project: "Payments", LogType: "integration", Template: "case.{hour}"},
	})

	template, err := registry.Lookup("payments", "integration")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if template != "first.{hour}" {
		t.Errorf("Lookup = %q, want the first matching entry", template)
	}

	template, err = registry.Lookup("Payments", "integration")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if template != "case.{hour}" {
		t.Errorf("Lookup is not exact-match: got %q", template)
	}
}

func TestLookup_Unknown(t *testing.T) {
	t.Parallel()

	registry := New("test", []PathTemplate{{Project: "payments", LogType: "gateway", Template: "g"}})
	for _, key := range []Key{{"payments", "integration"}, {"billing", "gateway"}, {"", ""}} {
		_, err := registry.Lookup(key.Project, key.LogType)
		if kind := evidence.KindOf(err); kind != evidence.UnknownLogLocation {
			t.Errorf("Lookup(%+v): kind = %q, want %q", key, kind, evidence.UnknownLogLocation)
		}
	}
}

func TestDuplicates(t *testing.T) {
	t.Parallel()

	registry := New("test", []PathTemplate{
		{Project: "b", LogType: "x", Template: "1"},
		{Project: "a", LogType: "x", Template: "2"},
		{Project: "b", LogType: "x", Template: "3"},
		{Project: "a", LogType: "y", Template: "4"},
		{Project: "a", LogType: "x", Template: "5"},
		{Project: "b", LogType: "x", Template: "6"},
	})
	want := []Key{{"b", "x"}, {"a", "x"}}
	if diff := cmp.Diff(want, registry.Duplicates()); diff != "" {
		t.Errorf("Duplicates mismatch (-want +got):\n%s", diff)
	}

	if got := New("empty", nil).Duplicates(); len(got) != 0 {
		t.Errorf("Duplicates on empty registry = %v", got)
	}
}

func TestEntries_IsACopy(t *testing.T) {
	t.Parallel()

	registry := New("test", []PathTemplate{{Project: "p", LogType: "l", Template: "t"}})
	entries := registry.Entries()
	entries[0].Template = "mutated"
	if template, _ := registry.Lookup("p", "l"); template != "t" {
		t.Errorf("registry was mutated through Entries(): %q", template)
	}
}
