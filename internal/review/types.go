package review

import (
	"fmt"
	"time"

	"github.com/dshills/codecheck/internal/diff"
)

// Severity represents the severity level of a suggestion.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Chunk is a size-bounded review unit: a contiguous run of hunks from one
// file, serialized as unified-diff text. Consumed once by the requester.
type Chunk struct {
	File      string      `json:"file"`
	Hunks     []diff.Hunk `json:"hunks"`
	Text      string      `json:"text"`
	Index     int         `json:"index"`
	Total     int         `json:"total"`
	Oversized bool        `json:"oversized,omitempty"`
}

// Suggestion is one review remark decoded from a model response. Hunk is the
// 1-based hunk number within the originating chunk; Line is a 1-based offset
// over that hunk's new-side (context and added) lines, exactly as the model
// returned them. Suggestions are never mutated after decode.
type Suggestion struct {
	Path     string   `json:"path"`
	Hunk     int      `json:"hunk"`
	Line     int      `json:"line"`
	Severity Severity `json:"severity,omitempty"`
	Body     string   `json:"body"`
}

// Comment is a resolved review comment targeting an absolute new-file line
// that exists in the diff.
type Comment struct {
	Path     string   `json:"path"`
	Line     int      `json:"line"`
	Side     string   `json:"side"`
	Severity Severity `json:"severity,omitempty"`
	Body     string   `json:"body"`
}

// ChunkResult is the decoded outcome of one successful chunk request.
type ChunkResult struct {
	Chunk       Chunk
	Suggestions []Suggestion
	Dropped     int // malformed entries discarded during decode
	TokensUsed  int
	FromCache   bool
}

// ChunkFailure records a chunk whose model request failed after retries.
// The run continues without it.
type ChunkFailure struct {
	File  string `json:"file"`
	Index int    `json:"index"`
	Err   error  `json:"-"`
	Cause string `json:"cause"`
}

func (e *ChunkFailure) Error() string {
	return fmt.Sprintf("chunk %d of %s: %v", e.Index+1, e.File, e.Err)
}

func (e *ChunkFailure) Unwrap() error { return e.Err }

// MappingError records a suggestion whose target could not be resolved to a
// line present in the diff. The suggestion is dropped.
type MappingError struct {
	Path   string `json:"path"`
	Hunk   int    `json:"hunk"`
	Offset int    `json:"offset"`
	Reason string `json:"reason"`
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("suggestion at %s hunk %d offset %d: %s", e.Path, e.Hunk, e.Offset, e.Reason)
}

// SkippedFile records a file left out of the review and why.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// SeverityCounts holds comment counts by severity level.
type SeverityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Summary provides an overview of a run.
type Summary struct {
	FilesReviewed   int            `json:"filesReviewed"`
	ChunksRequested int            `json:"chunksRequested"`
	ChunksFailed    int            `json:"chunksFailed"`
	Counts          SeverityCounts `json:"counts"`
	HighestSeverity Severity       `json:"highestSeverity,omitempty"`
	Dropped         int            `json:"dropped"`
}

// Timing contains performance metrics.
type Timing struct {
	LLMMs   int64 `json:"llmMs"`
	TotalMs int64 `json:"totalMs"`
}

// Report is the top-level output of a pipeline run. Comments are ordered by
// path, then line.
type Report struct {
	Tool       string         `json:"tool"`
	Version    string         `json:"version"`
	RunID      string         `json:"runId"`
	Repo       string         `json:"repo,omitempty"`
	Target     string         `json:"target,omitempty"`
	Provider   string         `json:"provider"`
	Model      string         `json:"model"`
	Summary    Summary        `json:"summary"`
	Comments   []Comment      `json:"comments"`
	Skipped    []SkippedFile  `json:"skipped,omitempty"`
	Failures   []ChunkFailure `json:"failures,omitempty"`
	Unmapped   []MappingError `json:"unmapped,omitempty"`
	TokensUsed int            `json:"tokensUsed"`
	Timing     Timing         `json:"timing"`
	StartedAt  time.Time      `json:"startedAt"`
}

// ComputeSummary tallies comment counts by severity.
func ComputeSummary(comments []Comment) Summary {
	var s Summary
	for _, c := range comments {
		switch c.Severity {
		case SeverityLow:
			s.Counts.Low++
		case SeverityMedium:
			s.Counts.Medium++
		case SeverityHigh:
			s.Counts.High++
		}
		if SeverityRank(c.Severity) > SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = c.Severity
		}
	}
	return s
}
