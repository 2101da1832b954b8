// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for triage.
//
// Configuration is loaded from a single file specified by either the
// TRIAGE_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${TRIAGE_ROOT}, and ${VAR:-default} patterns are expanded.
// The default archive, output, and registry paths are written in terms
// of ${TRIAGE_ROOT}, so setting paths.root alone relocates all of them.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Records, Classify, Logging
//   - [Default] -- returns a Config with the integration-log defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.ResolutionConfig] -- converts to the resolver's config
package config
