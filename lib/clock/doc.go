// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Resolution stamps manifests with stage start and finish times. Code
// that needs the current time accepts a Clock instead of calling
// time.Now directly. In production, Real() provides the standard
// library behavior. In tests, Fake() returns a clock that moves only
// when Set or Advance is called, so manifests are reproducible:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	c.StepEachRead(time.Second)
//	resolver, err := resolution.New(resolution.Config{Clock: c, ...})
package clock
