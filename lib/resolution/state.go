// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolution

// State is the last pipeline state a resolution reached.
type State string

const (
	StateStart                State = "start"
	StateHourResolved         State = "hour_resolved"
	StateArchiveLocated       State = "archive_located"
	StateDecompressed         State = "decompressed"
	StateIdentifiersExtracted State = "identifiers_extracted"
	StateRecordsFiltered      State = "records_filtered"
	StateClassified           State = "classified"
)

// Stage numbers, as used in artifact file names.
const (
	StageHour        = 1
	StageArchive     = 2
	StageText        = 3
	StageIdentifiers = 4
	StageRecords     = 5
	StageVerdict     = 6

	stageCount = 6
)

// stageInfo describes one stage: the artifact extension, the short name
// used in logs and manifests, and the state reached once it succeeds.
type stageInfo struct {
	name      string
	extension string
	reaches   State
}

var stages = [stageCount + 1]stageInfo{
	StageHour:        {name: "resolve-hour", extension: ".txt", reaches: StateHourResolved},
	StageArchive:     {name: "locate-archive", extension: ".txt", reaches: StateArchiveLocated},
	StageText:        {name: "decompress", extension: ".log", reaches: StateDecompressed},
	StageIdentifiers: {name: "extract-identifiers", extension: ".txt", reaches: StateIdentifiersExtracted},
	StageRecords:     {name: "filter-records", extension: ".log", reaches: StateRecordsFiltered},
	StageVerdict:     {name: "classify", extension: ".txt", reaches: StateClassified},
}

// StageName returns the short name of a stage number, or "" when the
// number is out of range.
func StageName(stage int) string {
	if stage < 1 || stage > stageCount {
		return ""
	}
	return stages[stage].name
}

// Ordinal returns the position of s in the pipeline (0 for
// StateStart), or -1 for an unknown state.
func (s State) Ordinal() int {
	if s == StateStart {
		return 0
	}
	for number := 1; number <= stageCount; number++ {
		if stages[number].reaches == s {
			return number
		}
	}
	return -1
}
