// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/triage/cmd/triage/cli"
	"github.com/bureau-foundation/triage/lib/config"
	"github.com/bureau-foundation/triage/lib/evidence"
	"github.com/bureau-foundation/triage/lib/registry"
	"github.com/bureau-foundation/triage/lib/resolution"
	"github.com/bureau-foundation/triage/lib/testutil"
	"github.com/bureau-foundation/triage/lib/version"
)

const (
	testReference = "TXN-778812"
	testArchive   = "integration.log.2025-05-08.17.xz"
	testContext   = "Ref No.: " + testReference + "\nProject: payments\nDate/Time: 2025-05-08 17:42:10\n"
	testRegistry  = "Project,Log Type,How to find\n" +
		"payments,integration,/srv/logs/payments/integration.log.{year}-{month}-{date}.{hour}.xz\n"
)

// environment is a config file plus the directories it points at.
type environment struct {
	root       string
	archives   string
	output     string
	configPath string
}

func newEnvironment(t *testing.T, registryContent string) environment {
	t.Helper()

	root := t.TempDir()
	e := environment{
		root:       root,
		archives:   filepath.Join(root, "archives"),
		output:     filepath.Join(root, "bot-resolve"),
		configPath: filepath.Join(root, "triage.yaml"),
	}
	if err := os.MkdirAll(e.archives, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFile(t, root, "locations.csv", []byte(registryContent))

	configContent := fmt.Sprintf(`paths:
  root: %s
  archives: ${TRIAGE_ROOT}/archives
  output: ${TRIAGE_ROOT}/bot-resolve
  registry: ${TRIAGE_ROOT}/locations.csv
logging:
  level: error
  format: json
`, root)
	testutil.WriteFile(t, root, "triage.yaml", []byte(configContent))
	return e
}

// writeDepositLog writes the ticket's hourly archive with the given
// status code in the invocation record.
func (e environment) writeDepositLog(t *testing.T, authRespCode string) {
	t.Helper()
	text := testutil.LogRow("req-a", "balance check for TXN-000001") +
		testutil.LogRow("req-b", "deposit requested for "+testReference) +
		testutil.InvocationRow("req-b", testReference, authRespCode)
	testutil.WriteArchive(t, e.archives, testArchive, "xz", text)
}

func (e environment) writeContext(t *testing.T) string {
	t.Helper()
	return testutil.WriteFile(t, e.root, "T-1042.txt", []byte(testContext))
}

// run executes the command tree with --config appended and returns
// what the command wrote to stdout.
func (e environment) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	root := Root(&stdout)
	root.HelpOutput = io.Discard
	err := root.Execute(append(args, "--config", e.configPath))
	return stdout.String(), err
}

func assertCategory(t *testing.T, err error, want cli.ErrorCategory) {
	t.Helper()
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error = %v (%T), want *cli.ToolError", err, err)
	}
	if toolErr.Category != want {
		t.Errorf("category = %q, want %q (error: %v)", toolErr.Category, want, err)
	}
}

func assertExitCode(t *testing.T, err error, want int) {
	t.Helper()
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v (%T), want *cli.ExitError", err, err)
	}
	if exitErr.Code != want {
		t.Errorf("exit code = %d, want %d", exitErr.Code, want)
	}
}

func TestResolve_ContextFile(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t, testRegistry)
	e.writeDepositLog(t, "1")

	output, err := e.run(t, "resolve", e.writeContext(t))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	for _, want := range []string{
		"T-1042",
		"classified",
		"2025-05-08.17",
		"AuthRespCode=1 for request-id req-b: success",
		resolution.ArtifactPath(e.output, "T-1042", resolution.StageVerdict),
		resolution.ManifestPath(e.output, "T-1042"),
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	verdict, err := os.ReadFile(resolution.ArtifactPath(e.output, "T-1042", resolution.StageVerdict))
	if err != nil {
		t.Fatalf("reading verdict artifact: %v", err)
	}
	if string(verdict) != "AuthRespCode=1 for request-id req-b: success\n" {
		t.Errorf("verdict artifact = %q", verdict)
	}
}

func TestResolve_FlagsAndJSON(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t, testRegistry)
	e.writeDepositLog(t, "7")

	output, err := e.run(t, "resolve",
		"--ticket", "T-2001",
		"--project", "payments",
		"--ref", testReference,
		"--at", "2025-05-08 17:05:00",
		"--json")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var report resolution.Report
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, output)
	}
	if report.Ticket != "T-2001" || report.State != resolution.StateClassified {
		t.Errorf("report = %+v", report)
	}
	if report.Outcome.Kind != evidence.Failure || report.Outcome.Code != 7 {
		t.Errorf("Outcome = %+v, want Failure(7)", report.Outcome)
	}
	if diff := cmp.Diff([]string{"req-b"}, report.Identifiers); diff != "" {
		t.Errorf("Identifiers mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_FlagsOverrideContextFile(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t, testRegistry)
	e.writeDepositLog(t, "1")

	output, err := e.run(t, "resolve", e.writeContext(t), "--ticket", "renamed", "--request-id", "req-a", "--json")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var report resolution.Report
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Ticket != "renamed" {
		t.Errorf("Ticket = %q, want %q", report.Ticket, "renamed")
	}
	if report.CorrelationID != "req-a" {
		t.Errorf("CorrelationID = %q, want req-a", report.CorrelationID)
	}
	if report.Outcome.Kind != evidence.NoInvocationFound {
		t.Errorf("Outcome = %+v, want NoInvocationFound", report.Outcome)
	}
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      []string
		want      cli.ErrorCategory
		wantState string
	}{
		{
			name: "missing archive",
			args: []string{"--ticket", "T-1", "--project", "payments", "--ref", testReference, "--at", "2025-05-08 18:00:00"},
			want: cli.CategoryNotFound, wantState: "hour_resolved",
		},
		{
			name: "malformed timestamp",
			args: []string{"--ticket", "T-1", "--project", "payments", "--ref", testReference, "--at", "08/05/2025 17:00"},
			want: cli.CategoryValidation, wantState: "start",
		},
		{
			name: "unknown project",
			args: []string{"--ticket", "T-1", "--project", "lending", "--ref", testReference, "--at", "2025-05-08 17:00:00"},
			want: cli.CategoryNotFound, wantState: "hour_resolved",
		},
		{
			name: "missing reference",
			args: []string{"--ticket", "T-1", "--project", "payments", "--at", "2025-05-08 17:00:00"},
			want: cli.CategoryValidation, wantState: "start",
		},
		{
			name: "missing context file",
			args: []string{"does-not-exist.txt"},
			want: cli.CategoryNotFound,
		},
		{
			name: "too many arguments",
			args: []string{"a.txt", "b.txt"},
			want: cli.CategoryValidation,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			e := newEnvironment(t, testRegistry)
			e.writeDepositLog(t, "1")

			output, err := e.run(t, append([]string{"resolve"}, test.args...)...)
			if err == nil {
				t.Fatalf("expected error, output:\n%s", output)
			}
			assertCategory(t, err, test.want)
			if test.wantState != "" && !strings.Contains(output, test.wantState) {
				t.Errorf("output missing state %q:\n%s", test.wantState, output)
			}
		})
	}
}

func TestResolve_CreatesConfiguredDirectories(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t, testRegistry)
	if err := os.Remove(e.archives); err != nil {
		t.Fatal(err)
	}

	_, err := e.run(t, "resolve", e.writeContext(t))
	assertCategory(t, err, cli.CategoryNotFound)

	for _, directory := range []string{e.archives, e.output} {
		info, statErr := os.Stat(directory)
		if statErr != nil || !info.IsDir() {
			t.Errorf("%s was not created (stat err: %v)", directory, statErr)
		}
	}
}

func TestResolve_RequiresConfig(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")

	var stdout bytes.Buffer
	root := Root(&stdout)
	root.HelpOutput = io.Discard
	err := root.Execute([]string{"resolve", "--ticket", "T-1", "--project", "payments",
		"--ref", testReference, "--at", "2025-05-08 17:00:00"})
	assertCategory(t, err, cli.CategoryValidation)
	if !strings.Contains(err.Error(), "--config") {
		t.Errorf("error = %q, want a hint naming --config", err.Error())
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t, testRegistry)
	e.writeDepositLog(t, "1")

	output, err := e.run(t, "locate", "--project", "payments", "--at", "2025-05-08 17:59:59", "--json")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}

	var result locateResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	want := locateResult{
		Project:  "payments",
		LogType:  "integration",
		Bucket:   "2025-05-08.17",
		Template: "/srv/logs/payments/integration.log.{year}-{month}-{date}.{hour}.xz",
		Expanded: "/srv/logs/payments/integration.log.2025-05-08.17.xz",
		Path:     filepath.Join(e.archives, testArchive),
		Exists:   true,
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("locate result mismatch (-want +got):\n%s", diff)
	}
}

func TestLocate_MissingArchiveExitsOne(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t, testRegistry)

	output, err := e.run(t, "locate", "--project", "payments", "--at", "2025-05-08 17:00:00")
	assertExitCode(t, err, 1)
	if !strings.Contains(output, "exists") || !strings.Contains(output, "no") {
		t.Errorf("output = %q, want exists: no", output)
	}
	if !strings.Contains(output, filepath.Join(e.archives, testArchive)) {
		t.Errorf("output = %q, want the expected archive path", output)
	}
}

func TestLocate_Errors(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t, testRegistry)

	_, err := e.run(t, "locate", "--project", "lending", "--at", "2025-05-08 17:00:00")
	assertCategory(t, err, cli.CategoryNotFound)
	if !strings.Contains(err.Error(), "triage templates list") {
		t.Errorf("error = %q, want hint", err.Error())
	}

	_, err = e.run(t, "locate", "--project", "payments", "--at", "yesterday")
	assertCategory(t, err, cli.CategoryValidation)

	_, err = e.run(t, "locate", "--at", "2025-05-08 17:00:00")
	assertCategory(t, err, cli.CategoryValidation)
}

func TestTemplatesList(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t, testRegistry+"payments,gateway,gateway.{year}{month}{date}{hour}.zst\n")

	output, err := e.run(t, "templates", "list")
	if err != nil {
		t.Fatalf("templates list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2:\n%s", len(lines), output)
	}
	if !strings.HasPrefix(lines[0], "PROJECT") || !strings.Contains(lines[2], "gateway") {
		t.Errorf("unexpected table:\n%s", output)
	}

	output, err = e.run(t, "templates", "list", "--json")
	if err != nil {
		t.Fatalf("templates list --json: %v", err)
	}
	var entries []registry.PathTemplate
	if err := json.Unmarshal([]byte(output), &entries); err != nil {
		t.Fatalf("decoding entries: %v", err)
	}
	if len(entries) != 2 || entries[1].LogType != "gateway" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestTemplatesCheck(t *testing.T) {
	t.Parallel()

	clean := newEnvironment(t, testRegistry)
	output, err := clean.run(t, "templates", "check")
	if err != nil {
		t.Fatalf("templates check: %v", err)
	}
	if !strings.Contains(output, "no duplicates") {
		t.Errorf("output = %q", output)
	}

	duplicated := newEnvironment(t, testRegistry+"payments,integration,other.{hour}.xz\n")
	output, err = duplicated.run(t, "templates", "check", "--json")
	assertExitCode(t, err, 1)
	var keys []registry.Key
	if err := json.Unmarshal([]byte(output), &keys); err != nil {
		t.Fatalf("decoding keys: %v", err)
	}
	if diff := cmp.Diff([]registry.Key{{Project: "payments", LogType: "integration"}}, keys); diff != "" {
		t.Errorf("duplicates mismatch (-want +got):\n%s", diff)
	}
}

func TestInspect(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t, testRegistry)
	e.writeDepositLog(t, "1")
	if _, err := e.run(t, "resolve", e.writeContext(t)); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	output, err := e.run(t, "inspect", "T-1042", "--archive")
	if err != nil {
		t.Fatalf("inspect: %v\n%s", err, output)
	}
	for _, want := range []string{"classified", "all artifacts verified", "filter-records", testArchive} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	output, err = e.run(t, "inspect", "T-1042", "--diagnose", "--json")
	if err != nil {
		t.Fatalf("inspect --diagnose: %v", err)
	}
	var diagnosed inspectResult
	if err := json.Unmarshal([]byte(output), &diagnosed); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	for _, want := range []string{`"ticket"`, `"T-1042"`, `"stages"`, `"classified"`} {
		if !strings.Contains(diagnosed.Diagnostic, want) {
			t.Errorf("diagnostic notation missing %s:\n%s", want, diagnosed.Diagnostic)
		}
	}

	recordsPath := resolution.ArtifactPath(e.output, "T-1042", resolution.StageRecords)
	if err := os.WriteFile(recordsPath, []byte("edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err = e.run(t, "inspect", "T-1042", "--json")
	assertExitCode(t, err, 1)
	var result inspectResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if len(result.Drift) != 1 || result.Drift[0].Stage != resolution.StageRecords {
		t.Errorf("Drift = %+v, want one entry for stage %d", result.Drift, resolution.StageRecords)
	}
	if result.Manifest == nil || result.Manifest.Ticket != "T-1042" {
		t.Errorf("Manifest = %+v", result.Manifest)
	}
}

func TestInspect_Errors(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t, testRegistry)

	_, err := e.run(t, "inspect", "T-404")
	assertCategory(t, err, cli.CategoryNotFound)

	_, err = e.run(t, "inspect")
	assertCategory(t, err, cli.CategoryValidation)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	if err := Root(&stdout).Execute([]string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "triage ") {
		t.Errorf("output = %q, want triage prefix", stdout.String())
	}

	stdout.Reset()
	if err := Root(&stdout).Execute([]string{"version", "--json"}); err != nil {
		t.Fatalf("version --json: %v", err)
	}
	var info version.BuildInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		t.Fatalf("decoding build info: %v", err)
	}
	if info.Version != version.Current().Version {
		t.Errorf("Version = %q, want %q", info.Version, version.Current().Version)
	}
}

func TestCategorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind evidence.Kind
		want cli.ErrorCategory
	}{
		{evidence.MalformedContext, cli.CategoryValidation},
		{evidence.MalformedTimestamp, cli.CategoryValidation},
		{evidence.UnknownLogLocation, cli.CategoryNotFound},
		{evidence.ArchiveNotFound, cli.CategoryNotFound},
		{evidence.CorruptArchive, cli.CategoryInternal},
		{evidence.EncodingError, cli.CategoryInternal},
		{"", cli.CategoryInternal},
	}

	for _, test := range tests {
		t.Run(string(test.kind), func(t *testing.T) {
			var err error = evidence.Errorf(test.kind, "boom")
			if test.kind == "" {
				err = errors.New("disk full")
			}
			assertCategory(t, categorize(fmt.Errorf("wrapped: %w", err)), test.want)
		})
	}

	if categorize(nil) != nil {
		t.Error("categorize(nil) should be nil")
	}
	original := cli.NotFound("already categorized")
	if got := categorize(original); got != error(original) {
		t.Errorf("categorize changed an existing ToolError: %v", got)
	}
}
