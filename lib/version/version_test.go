// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, Version+" (") {
		t.Errorf("Info() = %q, want it to start with the version", info)
	}
	if !strings.Contains(info, GitCommit) {
		t.Errorf("Info() = %q, want it to contain the commit", info)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	for _, want := range []string{Info(), runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH} {
		if !strings.Contains(full, want) {
			t.Errorf("Full() = %q, missing %q", full, want)
		}
	}
}

func TestCurrent(t *testing.T) {
	current := Current()
	if current.Version != Version || current.Commit != GitCommit || current.BuildTime != BuildTime {
		t.Errorf("Current() = %+v does not reflect the build variables", current)
	}
	if current.Dirty != (GitDirty == "true") {
		t.Errorf("Current().Dirty = %v with GitDirty=%q", current.Dirty, GitDirty)
	}
}
