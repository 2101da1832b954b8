// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolution

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// manifestSuffix is appended to the ticket name for the manifest file.
const manifestSuffix = ".manifest.cbor"

// temporarySuffix marks in-progress atomic writes.
const temporarySuffix = ".tmp"

// ArtifactPath returns the path of a stage artifact for ticket in dir.
// It panics on a stage number outside 1 through 6.
func ArtifactPath(dir, ticket string, stage int) string {
	if StageName(stage) == "" {
		panic(fmt.Sprintf("resolution: stage %d out of range", stage))
	}
	return filepath.Join(dir, fmt.Sprintf("%s_step_%d%s", ticket, stage, stages[stage].extension))
}

// ManifestPath returns the path of the run manifest for ticket in dir.
func ManifestPath(dir, ticket string) string {
	return filepath.Join(dir, ticket+manifestSuffix)
}

// clearArtifacts removes every file a previous run for ticket may have
// left in dir, including interrupted temporary files. Missing files are
// not an error.
func clearArtifacts(dir, ticket string) error {
	paths := []string{ManifestPath(dir, ticket)}
	for stage := 1; stage <= stageCount; stage++ {
		paths = append(paths, ArtifactPath(dir, ticket, stage))
	}

	var problems []error
	for _, path := range paths {
		for _, candidate := range []string{path, path + temporarySuffix} {
			if err := os.Remove(candidate); err != nil && !errors.Is(err, os.ErrNotExist) {
				problems = append(problems, fmt.Errorf("removing stale artifact: %w", err))
			}
		}
	}
	return errors.Join(problems...)
}

// writeFileAtomic replaces path with data. The bytes go to a temporary
// file that is synced and renamed into place, so readers see either the
// old file or the complete new one.
func writeFileAtomic(path string, data []byte) error {
	temporaryPath := path + temporarySuffix

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating temporary file for %s: %w", filepath.Base(path), err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming %s into place: %w", filepath.Base(path), err)
	}

	// The rename is only durable once the directory entry is flushed.
	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}
