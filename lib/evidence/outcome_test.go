// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/triage/lib/testutil"
)

func classify(t *testing.T, id, text string) Outcome {
	t.Helper()
	classifier := DefaultClassifier()
	return classifier.Classify(id, classifier.Format.Filter(text, id))
}

func TestClassify_StatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		code     string
		wantKind OutcomeKind
		wantCode int
	}{
		{"success sentinel", "1", Success, 1},
		{"failure code", "7", Failure, 7},
		{"zero is a failure", "0", Failure, 0},
		{"leading zero still one", "01", Success, 1},
		{"all zeros", "000", Failure, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			text := testutil.LogRow("r-1", "request received") + testutil.InvocationRow("r-1", "REF-1", test.code)
			outcome := classify(t, "r-1", text)
			if outcome.Kind != test.wantKind || outcome.Code != test.wantCode {
				t.Errorf("outcome = %s(%d), want %s(%d)", outcome.Kind, outcome.Code, test.wantKind, test.wantCode)
			}
			if outcome.CorrelationID != "r-1" {
				t.Errorf("CorrelationID = %q", outcome.CorrelationID)
			}
			if !strings.Contains(outcome.Record, "doAccountBaseDeposit") {
				t.Errorf("Record does not hold the invocation block: %q", outcome.Record)
			}
		})
	}
}

func TestClassify_NoInvocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{"no records", ""},
		{"records without signature", testutil.LogRow("r-1", `{"AuthRespCode":"1"}`)},
		{"other operation", testutil.LogRow("r-1", "Service Invocation returned:\nMethod: doAccountWithdraw\n"+`{"AuthRespCode":"1"}`)},
		{"method before marker", testutil.LogRow("r-1", "Method: doAccountBaseDeposit\nService Invocation returned:\n"+`{"AuthRespCode":"1"}`)},
		{"signature without status", testutil.LogRow("r-1", "Service Invocation returned:\nMethod: doAccountBaseDeposit\n{}")},
		{"non-numeric status", testutil.InvocationRow("r-1", "REF-1", "OK")},
		{"digits followed by letters", testutil.InvocationRow("r-1", "REF-1", "1x")},
		{"unquoted digits followed by letters", testutil.LogRow("r-1", "Service Invocation returned:\nMethod: doAccountBaseDeposit\n"+`{"AuthRespCode": 1x}`)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			outcome := classify(t, "r-1", test.text)
			if outcome.Kind != NoInvocationFound {
				t.Errorf("Kind = %s, want %s", outcome.Kind, NoInvocationFound)
			}
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	t.Parallel()

	text := testutil.InvocationRow("r-1", "REF-1", "5") + testutil.InvocationRow("r-1", "REF-1", "1")
	outcome := classify(t, "r-1", text)
	if outcome.Kind != Failure || outcome.Code != 5 {
		t.Errorf("outcome = %s(%d), want failure(5)", outcome.Kind, outcome.Code)
	}
}

func TestClassify_SkipsRecordsWithoutStatus(t *testing.T) {
	t.Parallel()

	text := testutil.LogRow("r-1", "Service Invocation returned:\nMethod: doAccountBaseDeposit\nResponse: timeout") +
		testutil.InvocationRow("r-1", "REF-1", "1")
	outcome := classify(t, "r-1", text)
	if outcome.Kind != Success {
		t.Errorf("Kind = %s, want %s", outcome.Kind, Success)
	}
}

func TestClassify_RequiresExactIdentifier(t *testing.T) {
	t.Parallel()

	classifier := DefaultClassifier()
	records := classifier.Format.Blocks(testutil.InvocationRow("r-10", "REF-1", "1"))
	outcome := classifier.Classify("r-1", records)
	if outcome.Kind != NoInvocationFound {
		t.Errorf("Kind = %s, want %s (identifier r-10 must not match r-1)", outcome.Kind, NoInvocationFound)
	}
}

func TestClassify_StatusWiderThanInt(t *testing.T) {
	t.Parallel()

	outcome := classify(t, "r-1", testutil.InvocationRow("r-1", "REF-1", "0099999999999999999999"))
	if outcome.Kind != Failure {
		t.Fatalf("Kind = %s, want %s", outcome.Kind, Failure)
	}
	if outcome.Status != "99999999999999999999" || outcome.Code != 0 {
		t.Errorf("Status = %q, Code = %d, want the exact digits and code 0", outcome.Status, outcome.Code)
	}
	want := "AuthRespCode=99999999999999999999 for request-id r-1: this is the problem"
	if got := outcome.Verdict(DefaultStatusField, DefaultIdentifierTag); got != want {
		t.Errorf("Verdict = %q, want %q", got, want)
	}
}

func TestClassify_UnquotedStatus(t *testing.T) {
	t.Parallel()

	text := testutil.LogRow("r-1", "Service Invocation returned:\nMethod: doAccountBaseDeposit\n"+`{"AuthRespCode": 3}`)
	outcome := classify(t, "r-1", text)
	if outcome.Kind != Failure || outcome.Code != 3 {
		t.Errorf("outcome = %s(%d), want failure(3)", outcome.Kind, outcome.Code)
	}
}

func TestNewClassifier_Custom(t *testing.T) {
	t.Parallel()

	classifier, err := NewClassifier(nil, "RPC done:", "transfer", "status", 200)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	text := testutil.LogRow("r-1", "RPC done: Method: transfer "+`"status": "200"`)
	outcome := classifier.Classify("r-1", classifier.Format.Filter(text, "r-1"))
	if outcome.Kind != Success || outcome.Code != 200 {
		t.Errorf("outcome = %s(%d), want success(200)", outcome.Kind, outcome.Code)
	}
}

func TestOutcome_Verdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		outcome Outcome
		want    string
	}{
		{Outcome{Kind: Success, Code: 1, CorrelationID: "r-1"}, "AuthRespCode=1 for request-id r-1: success"},
		{Outcome{Kind: Failure, Code: 7, CorrelationID: "r-1"}, "AuthRespCode=7 for request-id r-1: this is the problem"},
		{Outcome{Kind: NoInvocationFound, CorrelationID: "r-1"}, "No invocation block with AuthRespCode found for request-id r-1"},
		{Outcome{Kind: NoRecordFound, ReferenceID: "REF-1"}, "No request-id found for ref REF-1"},
	}
	for _, test := range tests {
		if got := test.outcome.Verdict(DefaultStatusField, DefaultIdentifierTag); got != test.want {
			t.Errorf("Verdict(%s) = %q, want %q", test.outcome.Kind, got, test.want)
		}
	}
}
