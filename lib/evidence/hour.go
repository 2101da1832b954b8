// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"fmt"
	"time"
)

// TimestampLayout is the only accepted form of a ticket timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// HourBucket identifies the hourly archive that must contain the
// evidence for a timestamp. The fields are taken verbatim from the
// ticket timestamp: it is treated as already being in the archive's
// local calendar, so no timezone conversion happens.
type HourBucket struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
	Hour  int `json:"hour"`
}

// String renders the bucket as "2025-05-08.17".
func (b HourBucket) String() string {
	return fmt.Sprintf("%04d-%02d-%02d.%02d", b.Year, b.Month, b.Day, b.Hour)
}

// ResolveHour parses occurredAt under [TimestampLayout] and truncates it
// to the hour. Minutes and seconds never influence the result.
func ResolveHour(occurredAt string) (HourBucket, error) {
	// time.Parse accepts fractional seconds the layout does not name.
	parsed, err := time.Parse(TimestampLayout, occurredAt)
	if err != nil || len(occurredAt) != len(TimestampLayout) {
		return HourBucket{}, Errorf(MalformedTimestamp,
			"timestamp %q does not match layout %q", occurredAt, "YYYY-MM-DD HH:MM:SS")
	}
	return HourBucket{
		Year:  parsed.Year(),
		Month: int(parsed.Month()),
		Day:   parsed.Day(),
		Hour:  parsed.Hour(),
	}, nil
}
