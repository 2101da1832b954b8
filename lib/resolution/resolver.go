// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolution

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bureau-foundation/triage/lib/clock"
	"github.com/bureau-foundation/triage/lib/digest"
	"github.com/bureau-foundation/triage/lib/evidence"
	"github.com/bureau-foundation/triage/lib/registry"
	"github.com/bureau-foundation/triage/lib/ticket"
)

// DefaultLogType is the registry log type used when neither Config nor
// Options names one.
const DefaultLogType = "integration"

// Config is the explicit configuration of a Resolver.
type Config struct {
	// ArchiveDir is the flat directory holding hourly log archives.
	ArchiveDir string

	// OutputDir receives the artifacts. Created if missing.
	OutputDir string

	// RegistryPath is the log-location registry file. It is re-read on
	// every Resolve call so edits take effect without a restart.
	RegistryPath string

	// LogType selects the registry row together with the ticket's
	// project. Empty means DefaultLogType.
	LogType string

	// Classifier decides the outcome. Its Format also drives record
	// extraction and filtering. Nil means evidence.DefaultClassifier().
	Classifier *evidence.Classifier

	// Logger receives stage transitions. Nil discards.
	Logger *slog.Logger

	// Clock stamps the manifest. Nil means clock.Real().
	Clock clock.Clock
}

// Resolver runs resolutions with a fixed configuration.
type Resolver struct {
	archiveDir   string
	outputDir    string
	registryPath string
	logType      string
	classifier   *evidence.Classifier
	logger       *slog.Logger
	clock        clock.Clock
}

// New validates config and returns a Resolver.
func New(config Config) (*Resolver, error) {
	var problems []error
	if config.ArchiveDir == "" {
		problems = append(problems, errors.New("archive directory is required"))
	}
	if config.OutputDir == "" {
		problems = append(problems, errors.New("output directory is required"))
	}
	if config.RegistryPath == "" {
		problems = append(problems, errors.New("registry path is required"))
	}
	if err := errors.Join(problems...); err != nil {
		return nil, fmt.Errorf("resolution config: %w", err)
	}

	outputDir, err := filepath.Abs(config.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	resolver := &Resolver{
		archiveDir:   config.ArchiveDir,
		outputDir:    outputDir,
		registryPath: config.RegistryPath,
		logType:      config.LogType,
		classifier:   config.Classifier,
		logger:       config.Logger,
		clock:        config.Clock,
	}
	if resolver.logType == "" {
		resolver.logType = DefaultLogType
	}
	if resolver.classifier == nil {
		resolver.classifier = evidence.DefaultClassifier()
	}
	if resolver.logger == nil {
		resolver.logger = slog.New(slog.DiscardHandler)
	}
	if resolver.clock == nil {
		resolver.clock = clock.Real()
	}
	return resolver, nil
}

// OutputDir returns the absolute artifact directory.
func (r *Resolver) OutputDir() string { return r.outputDir }

// Options adjust a single Resolve call.
type Options struct {
	// LogType overrides Config.LogType for this call.
	LogType string

	// CorrelationID pins the identifier used for filtering and
	// classification instead of the first one found in file order.
	CorrelationID string
}

// Artifacts lists the files a run wrote. Fields for stages that did not
// run are empty.
type Artifacts struct {
	Hour        string `json:"hour,omitempty"`
	Archive     string `json:"archive,omitempty"`
	Text        string `json:"text,omitempty"`
	Identifiers string `json:"identifiers,omitempty"`
	Records     string `json:"records,omitempty"`
	Verdict     string `json:"verdict,omitempty"`
	Manifest    string `json:"manifest,omitempty"`
}

func (a *Artifacts) set(stage int, path string) {
	switch stage {
	case StageHour:
		a.Hour = path
	case StageArchive:
		a.Archive = path
	case StageText:
		a.Text = path
	case StageIdentifiers:
		a.Identifiers = path
	case StageRecords:
		a.Records = path
	case StageVerdict:
		a.Verdict = path
	}
}

// Report is the result handed to downstream consumers. On failure it
// still describes how far the run got.
type Report struct {
	Ticket string `json:"ticket"`
	State  State  `json:"state"`

	Bucket  evidence.HourBucket    `json:"bucket"`
	Archive evidence.ArchiveHandle `json:"archive"`

	// Identifiers are the distinct correlation identifiers found for
	// the reference number, sorted.
	Identifiers []string `json:"identifiers"`

	// CorrelationID is the identifier that was filtered and classified.
	CorrelationID string `json:"correlation_id,omitempty"`

	// RecordCount is the number of blocks carrying CorrelationID.
	RecordCount int `json:"record_count"`

	Outcome evidence.Outcome `json:"outcome"`
	Verdict string           `json:"verdict,omitempty"`

	Artifacts Artifacts `json:"artifacts"`
}

// Resolve runs every stage for context and returns the report. A stage
// failure is returned as an *evidence.Error alongside the partial
// report. Failures to write artifacts are plain wrapped errors.
func (r *Resolver) Resolve(context ticket.Context, options Options) (*Report, error) {
	report := &Report{Ticket: context.Name, State: StateStart}
	if err := context.Validate(); err != nil {
		return report, err
	}

	logType := options.LogType
	if logType == "" {
		logType = r.logType
	}

	run := &run{
		resolver: r,
		report:   report,
		logger: r.logger.With(
			"ticket", context.Name,
			"project", context.Project,
			"reference_id", context.ReferenceID,
		),
		manifest: &Manifest{
			Version:             ManifestVersion,
			Ticket:              context.Name,
			Project:             context.Project,
			ReferenceID:         context.ReferenceID,
			OccurredAt:          context.OccurredAt,
			LogType:             logType,
			CorrelationOverride: options.CorrelationID,
			State:               StateStart,
			Stages:              []StageRecord{},
			Started:             r.clock.Now(),
		},
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return report, fmt.Errorf("creating output directory: %w", err)
	}
	if err := clearArtifacts(r.outputDir, context.Name); err != nil {
		return report, err
	}

	err := run.execute(context, logType, options.CorrelationID)
	return report, err
}

// run carries the mutable state of one Resolve call.
type run struct {
	resolver *Resolver
	report   *Report
	manifest *Manifest
	logger   *slog.Logger
}

func (run *run) execute(context ticket.Context, logType, override string) error {
	resolver := run.resolver
	format := resolver.classifier.Format

	// Stage 1: timestamp to hour bucket.
	started := resolver.clock.Now()
	bucket, err := evidence.ResolveHour(context.OccurredAt)
	if err != nil {
		return run.fail(StageHour, err)
	}
	run.report.Bucket = bucket
	if err := run.complete(StageHour, started, []byte("need log of "+bucket.String())); err != nil {
		return err
	}

	// Stage 2: registry lookup and archive location.
	started = resolver.clock.Now()
	locations, err := registry.Load(resolver.registryPath)
	if err != nil {
		return run.fail(StageArchive, err)
	}
	template, err := locations.Lookup(context.Project, logType)
	if err != nil {
		return run.fail(StageArchive, err)
	}
	handle, err := evidence.Locate(resolver.archiveDir, template, bucket)
	if err != nil {
		return run.fail(StageArchive, err)
	}
	run.report.Archive = handle
	archiveDigest, archiveSize, err := digest.SumFile(digest.ArchiveDomain, handle.Path)
	if err != nil {
		return run.fail(StageArchive, evidence.Errorf(evidence.ArchiveNotFound, "reading archive: %w", err))
	}
	run.manifest.Source = &ArchiveRecord{Path: handle.Path, Size: archiveSize, Digest: archiveDigest}
	if err := run.complete(StageArchive, started, []byte(handle.Path)); err != nil {
		return err
	}

	// Stage 3: decompression.
	started = resolver.clock.Now()
	text, err := evidence.Decompress(handle)
	if err != nil {
		return run.fail(StageText, err)
	}
	run.logger.Debug("archive decompressed",
		"archive", handle.Path,
		"compressed_bytes", archiveSize,
		"text_bytes", len(text),
	)
	if err := run.complete(StageText, started, []byte(text)); err != nil {
		return err
	}

	// Stage 4: identifiers of the records mentioning the reference.
	started = resolver.clock.Now()
	extraction := format.Extract(text, context.ReferenceID)
	run.report.Identifiers = extraction.Identifiers
	if err := run.complete(StageIdentifiers, started, renderIdentifiers(format, extraction, context.ReferenceID)); err != nil {
		return err
	}

	// Stage 5: every record carrying the chosen identifier.
	started = resolver.clock.Now()
	correlationID := override
	if correlationID == "" && len(extraction.FirstSeen) > 0 {
		correlationID = extraction.FirstSeen[0]
	}
	run.report.CorrelationID = correlationID
	var records []evidence.Record
	if correlationID != "" {
		records = format.Filter(text, correlationID)
	}
	run.report.RecordCount = len(records)
	if err := run.complete(StageRecords, started, renderRecords(format, records, correlationID, context.ReferenceID)); err != nil {
		return err
	}

	// Stage 6: classification.
	started = resolver.clock.Now()
	var outcome evidence.Outcome
	if correlationID == "" {
		outcome = evidence.Outcome{Kind: evidence.NoRecordFound}
	} else {
		outcome = resolver.classifier.Classify(correlationID, records)
	}
	outcome.ReferenceID = context.ReferenceID
	verdict := outcome.Verdict(resolver.classifier.StatusField, format.IdentifierTag)
	run.report.Outcome = outcome
	run.report.Verdict = verdict
	run.manifest.Result = &ManifestResult{
		Outcome:       outcome.Kind,
		Code:          outcome.Code,
		Status:        outcome.Status,
		Verdict:       verdict,
		CorrelationID: outcome.CorrelationID,
	}
	return run.complete(StageVerdict, started, []byte(verdict+"\n"))
}

// complete writes a stage artifact, records it in the manifest, and
// advances the state.
func (run *run) complete(stage int, started time.Time, content []byte) error {
	resolver := run.resolver
	path := ArtifactPath(resolver.outputDir, run.manifest.Ticket, stage)
	if err := writeFileAtomic(path, content); err != nil {
		return run.fail(stage, err)
	}

	info := stages[stage]
	run.report.State = info.reaches
	run.report.Artifacts.set(stage, path)
	run.manifest.State = info.reaches
	run.manifest.Stages = append(run.manifest.Stages, StageRecord{
		Number:   stage,
		Name:     info.name,
		Path:     path,
		Size:     int64(len(content)),
		Digest:   digest.Sum(digest.ArtifactDomain, content),
		Started:  started,
		Finished: resolver.clock.Now(),
	})
	if stage == StageVerdict {
		run.manifest.Finished = run.manifest.Stages[len(run.manifest.Stages)-1].Finished
	}
	if err := writeManifest(resolver.outputDir, run.manifest); err != nil {
		return fmt.Errorf("stage %d (%s): %w", stage, info.name, err)
	}
	run.report.Artifacts.Manifest = ManifestPath(resolver.outputDir, run.manifest.Ticket)

	run.logger.Info("stage complete",
		"stage", stage,
		"name", info.name,
		"state", info.reaches,
		"artifact", path,
		"bytes", len(content),
	)
	return nil
}

// fail records err against stage in the manifest and returns it. The
// original error is returned even when the manifest cannot be written,
// because it is the more useful of the two.
func (run *run) fail(stage int, err error) error {
	resolver := run.resolver
	run.manifest.Error = &ErrorRecord{
		Stage:   stage,
		Kind:    evidence.KindOf(err),
		Message: err.Error(),
	}
	run.manifest.Finished = resolver.clock.Now()
	if manifestErr := writeManifest(resolver.outputDir, run.manifest); manifestErr != nil {
		run.logger.Error("recording failure in manifest", "error", manifestErr)
	} else {
		run.report.Artifacts.Manifest = ManifestPath(resolver.outputDir, run.manifest.Ticket)
	}

	run.logger.Warn("stage failed",
		"stage", stage,
		"name", stages[stage].name,
		"state", run.report.State,
		"kind", evidence.KindOf(err),
		"error", err,
	)
	return err
}

// renderIdentifiers produces the stage 4 artifact: one identifier per
// line in sorted order, or a sentence saying none was found.
func renderIdentifiers(format *evidence.RecordFormat, extraction evidence.Extraction, referenceID string) []byte {
	var builder strings.Builder
	if len(extraction.Identifiers) == 0 {
		fmt.Fprintf(&builder, "No %s found for ref %s\n", format.IdentifierTag, referenceID)
		return []byte(builder.String())
	}
	for _, id := range extraction.Identifiers {
		builder.WriteString(id)
		builder.WriteByte('\n')
	}
	return []byte(builder.String())
}

// renderRecords produces the stage 5 artifact: each matching block as
// it appears in the log followed by a newline, or a sentence saying
// none was found.
func renderRecords(format *evidence.RecordFormat, records []evidence.Record, correlationID, referenceID string) []byte {
	var builder strings.Builder
	if len(records) == 0 {
		if correlationID == "" {
			fmt.Fprintf(&builder, "No %s found for ref %s\n", format.RecordName(), referenceID)
		} else {
			fmt.Fprintf(&builder, "No %s found for %s %s\n", format.RecordName(), format.IdentifierTag, correlationID)
		}
		return []byte(builder.String())
	}
	for _, record := range records {
		builder.WriteString(record.Raw)
		builder.WriteByte('\n')
	}
	return []byte(builder.String())
}
