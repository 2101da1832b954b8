// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "fmt"

// LogRow returns one integration-log record block with the given
// request id and free-form body. An empty requestID omits the tag.
func LogRow(requestID, body string) string {
	if requestID == "" {
		return fmt.Sprintf("<log-row>\n%s\n</log-row>\n", body)
	}
	return fmt.Sprintf("<log-row>\n<request-id>%s</request-id>\n%s\n</log-row>\n", requestID, body)
}

// InvocationRow returns a record block describing a completed
// doAccountBaseDeposit call for requestID with the given AuthRespCode.
// reference is embedded in the payload so the row can also be found by
// the ticket's reference number.
func InvocationRow(requestID, reference, authRespCode string) string {
	body := fmt.Sprintf(`<log-message>Service Invocation returned:
Service: AccountService
Method: doAccountBaseDeposit
Response: {"ExtId":"%s","AuthRespCode":"%s","Message":"processed"}</log-message>`,
		reference, authRespCode)
	return LogRow(requestID, body)
}
