package github

import (
	"strings"
	"testing"

	"github.com/dshills/codecheck/internal/review"
)

func sampleReport() *review.Report {
	rep := &review.Report{
		Tool:     "codecheck",
		Version:  "1.0.0",
		RunID:    "run-1234",
		Provider: "openai",
		Model:    "gpt-4o",
		Comments: []review.Comment{
			{Path: "main.go", Line: 10, Side: "RIGHT", Severity: review.SeverityHigh, Body: "Possible nil dereference"},
			{Path: "main.go", Line: 25, Side: "RIGHT", Severity: review.SeverityLow, Body: "Use camelCase"},
			{Path: "util.go", Line: 3, Side: "RIGHT", Severity: review.SeverityMedium, Body: "Unchecked error"},
		},
		TokensUsed: 1500,
	}
	rep.Summary = review.ComputeSummary(rep.Comments)
	rep.Summary.FilesReviewed = 2
	rep.Summary.ChunksRequested = 3
	return rep
}

func TestBuildReview(t *testing.T) {
	rev := BuildReview(sampleReport())

	if len(rev.Comments) != 3 {
		t.Fatalf("Comments count = %d, want 3", len(rev.Comments))
	}
	if rev.Comments[0].Path != "main.go" || rev.Comments[0].Line != 10 {
		t.Errorf("comment[0] = %s:%d", rev.Comments[0].Path, rev.Comments[0].Line)
	}
	if !strings.HasPrefix(rev.Comments[0].Body, "**[HIGH]**") {
		t.Errorf("comment body should carry severity marker, got %q", rev.Comments[0].Body)
	}
	if rev.Body == "" {
		t.Error("review body is empty")
	}
}

func TestBuildReviewBody(t *testing.T) {
	body := BuildReviewBody(sampleReport())

	for _, want := range []string{
		"## CodeCheck Review",
		"Reviewed 2 file(s) in 3 chunk(s) with openai/gpt-4o.",
		"| High | 1 |",
		"| Medium | 1 |",
		"| Low | 1 |",
		"1500 tokens",
		"run-1234",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "No issues found") {
		t.Error("body should not claim no issues when comments exist")
	}
}

func TestBuildReviewBody_NoComments(t *testing.T) {
	rep := sampleReport()
	rep.Comments = nil
	rep.Summary = review.ComputeSummary(nil)
	rep.TokensUsed = 0

	body := BuildReviewBody(rep)
	if !strings.Contains(body, "No issues found in the changes.") {
		t.Errorf("body should state no issues:\n%s", body)
	}
	if strings.Contains(body, "<sub>") {
		t.Error("footer should be omitted when no tokens were used")
	}
}

func TestBuildReviewBody_SkipNotices(t *testing.T) {
	rep := sampleReport()
	rep.Skipped = []review.SkippedFile{
		{Path: "vendor/lib.go", Reason: "excluded by pattern"},
		{Path: "logo.png", Reason: "binary file"},
	}
	rep.Failures = []review.ChunkFailure{
		{File: "big.go", Index: 1, Cause: "server error"},
	}

	body := BuildReviewBody(rep)
	for _, want := range []string{
		"### Not reviewed",
		"`vendor/lib.go`: excluded by pattern",
		"`logo.png`: binary file",
		"`big.go` (chunk 2): model request failed",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestFormatComment(t *testing.T) {
	got := FormatComment(review.Comment{Severity: review.SeverityMedium, Body: "Unchecked error"})
	if got != "**[MEDIUM]** Unchecked error" {
		t.Errorf("FormatComment = %q", got)
	}
}

func TestBuildCommitComment(t *testing.T) {
	body := BuildCommitComment(sampleReport())

	if !strings.HasPrefix(body, "## ✅ CodeCheck Summary\n") {
		t.Errorf("missing summary header:\n%s", body)
	}
	for _, want := range []string{
		"### `main.go`",
		"### `util.go`",
		"- **Line 10** (high): Possible nil dereference",
		"- **Line 25** (low): Use camelCase",
		"- **Line 3** (medium): Unchecked error",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if n := strings.Count(body, "### `main.go`"); n != 1 {
		t.Errorf("main.go section appears %d times, want 1", n)
	}
}

func TestBuildCommitComment_NoComments(t *testing.T) {
	rep := sampleReport()
	rep.Comments = nil

	body := BuildCommitComment(rep)
	if !strings.Contains(body, "No issues found in the changes.") {
		t.Errorf("body should state no issues:\n%s", body)
	}
}

func TestFoldComments(t *testing.T) {
	got := foldComments([]InlineComment{
		{Path: "main.go", Line: 10, Body: "**[HIGH]** Possible nil dereference"},
		{Path: "util.go", Line: 3, Body: "**[MEDIUM]** Unchecked error"},
	})
	for _, want := range []string{
		"### Inline comments",
		"`main.go:10`",
		"`util.go:3`",
		"Possible nil dereference",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("folded comments missing %q:\n%s", want, got)
		}
	}
}
