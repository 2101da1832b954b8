// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolution

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bureau-foundation/triage/lib/codec"
	"github.com/bureau-foundation/triage/lib/digest"
	"github.com/bureau-foundation/triage/lib/evidence"
)

// ManifestVersion is the manifest layout written by this package.
const ManifestVersion = 1

// Manifest records what one resolution run did. It is rewritten after
// every stage, so after a crash or a stage failure it still describes
// the artifacts that exist.
type Manifest struct {
	Version     int    `json:"version"`
	Ticket      string `json:"ticket"`
	Project     string `json:"project"`
	ReferenceID string `json:"reference_id"`
	OccurredAt  string `json:"occurred_at"`
	LogType     string `json:"log_type"`

	// CorrelationOverride is the operator-supplied identifier, if any.
	CorrelationOverride string `json:"correlation_override,omitempty"`

	State  State           `json:"state"`
	Stages []StageRecord   `json:"stages"`
	Source *ArchiveRecord  `json:"archive,omitempty"`
	Result *ManifestResult `json:"result,omitempty"`
	Error  *ErrorRecord    `json:"error,omitempty"`

	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// StageRecord describes one written artifact.
type StageRecord struct {
	Number   int           `json:"number"`
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Size     int64         `json:"size"`
	Digest   digest.Digest `json:"digest"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
}

// ArchiveRecord identifies the compressed archive the run read.
type ArchiveRecord struct {
	Path   string        `json:"path"`
	Size   int64         `json:"size"`
	Digest digest.Digest `json:"digest"`
}

// ManifestResult is the classification, present once the run reaches
// StateClassified.
type ManifestResult struct {
	Outcome evidence.OutcomeKind `json:"outcome"`
	Code    int                  `json:"code"`
	Status  string               `json:"status,omitempty"`
	Verdict string               `json:"verdict"`

	CorrelationID string `json:"correlation_id,omitempty"`
}

// ErrorRecord is the failure that stopped the run. Kind is empty for
// infrastructure failures that carry no pipeline kind.
type ErrorRecord struct {
	Stage   int           `json:"stage"`
	Kind    evidence.Kind `json:"kind,omitempty"`
	Message string        `json:"message"`
}

// ReadManifest loads the manifest for ticket from dir.
func ReadManifest(dir, ticket string) (*Manifest, error) {
	path := ManifestPath(dir, ticket)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var manifest Manifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	if manifest.Version != ManifestVersion {
		return nil, fmt.Errorf("manifest %s has version %d, want %d", path, manifest.Version, ManifestVersion)
	}
	return &manifest, nil
}

func writeManifest(dir string, manifest *Manifest) error {
	data, err := codec.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return writeFileAtomic(ManifestPath(dir, manifest.Ticket), data)
}

// Drift is a difference between a manifest and the files on disk.
type Drift struct {
	// Stage is the artifact's stage number, or 0 for the source
	// archive.
	Stage   int    `json:"stage"`
	Path    string `json:"path"`
	Problem string `json:"problem"`
}

func (d Drift) String() string {
	if d.Stage == 0 {
		return fmt.Sprintf("archive %s: %s", d.Path, d.Problem)
	}
	return fmt.Sprintf("stage %d %s: %s", d.Stage, d.Path, d.Problem)
}

// VerifyManifest re-digests every artifact the manifest lists, plus the
// source archive when checkArchive is set, and reports each file that
// is missing or no longer matches. An empty result means the run's
// evidence is intact.
func VerifyManifest(manifest *Manifest, checkArchive bool) []Drift {
	var drifts []Drift
	for _, stage := range manifest.Stages {
		if problem := checkFile(digest.ArtifactDomain, stage.Path, stage.Size, stage.Digest); problem != "" {
			drifts = append(drifts, Drift{Stage: stage.Number, Path: stage.Path, Problem: problem})
		}
	}
	if checkArchive && manifest.Source != nil {
		source := manifest.Source
		if problem := checkFile(digest.ArchiveDomain, source.Path, source.Size, source.Digest); problem != "" {
			drifts = append(drifts, Drift{Path: source.Path, Problem: problem})
		}
	}
	return drifts
}

func checkFile(domain digest.Domain, path string, wantSize int64, wantDigest digest.Digest) string {
	got, size, err := digest.SumFile(domain, path)
	if errors.Is(err, os.ErrNotExist) {
		return "missing"
	}
	if err != nil {
		return err.Error()
	}
	if size != wantSize {
		return fmt.Sprintf("size %d, manifest records %d", size, wantSize)
	}
	if got != wantDigest {
		return fmt.Sprintf("digest %s, manifest records %s", got, wantDigest)
	}
	return ""
}
