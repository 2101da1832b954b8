// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArchiveHandle is a located, existing archive file. Archives are
// append-only from this package's point of view: they are opened for
// reading and never modified.
type ArchiveHandle struct {
	// Path is the absolute path of the archive under the archive root.
	Path string `json:"path"`

	// Expanded is the registry template after placeholder substitution,
	// before its directory portion was discarded. Kept for diagnostics.
	Expanded string `json:"expanded"`
}

// ExpandTemplate substitutes the time placeholders in a registry path
// template: {year} becomes four digits, {month}, {date}, and {hour}
// become two zero-padded digits. Any other braced text is left as-is.
func ExpandTemplate(template string, bucket HourBucket) string {
	replacer := strings.NewReplacer(
		"{year}", fmt.Sprintf("%04d", bucket.Year),
		"{month}", fmt.Sprintf("%02d", bucket.Month),
		"{date}", fmt.Sprintf("%02d", bucket.Day),
		"{hour}", fmt.Sprintf("%02d", bucket.Hour),
	)
	return replacer.Replace(template)
}

// ArchiveName expands template and returns only its file-name
// component. Both '/' and '\' count as separators because registry
// templates describe the logical location on the producing host, which
// may be either kind of system.
func ArchiveName(template string, bucket HourBucket) string {
	expanded := ExpandTemplate(template, bucket)
	if index := strings.LastIndexAny(expanded, `/\`); index >= 0 {
		return expanded[index+1:]
	}
	return expanded
}

// Locate resolves the archive for bucket under root. The template's
// directory portion is discarded: all archives live in one flat
// directory regardless of where the template says they came from.
//
// Returns an ArchiveNotFound error when the file is missing or is not a
// regular file.
func Locate(root, template string, bucket HourBucket) (ArchiveHandle, error) {
	expanded := ExpandTemplate(template, bucket)
	name := ArchiveName(template, bucket)
	if name == "" || name == "." || name == ".." {
		return ArchiveHandle{}, Errorf(ArchiveNotFound,
			"template %q has no file name component", template)
	}

	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return ArchiveHandle{}, fmt.Errorf("resolving archive root %s: %w", root, err)
	}
	path := filepath.Join(absoluteRoot, name)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ArchiveHandle{}, Errorf(ArchiveNotFound, "archive %s does not exist", path)
		}
		return ArchiveHandle{}, Errorf(ArchiveNotFound, "checking archive %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return ArchiveHandle{}, Errorf(ArchiveNotFound, "archive %s is not a regular file", path)
	}

	return ArchiveHandle{Path: path, Expanded: expanded}, nil
}
