package github

import (
	"fmt"
	"strings"

	"github.com/dshills/codecheck/internal/review"
)

// BuildReview converts a pipeline report into one batch review submission.
func BuildReview(rep *review.Report) Review {
	var comments []InlineComment
	for _, c := range rep.Comments {
		comments = append(comments, InlineComment{
			Path: c.Path,
			Line: c.Line,
			Side: c.Side,
			Body: FormatComment(c),
		})
	}
	return Review{
		Body:     BuildReviewBody(rep),
		Comments: comments,
	}
}

// FormatComment renders one inline comment body with a severity marker.
func FormatComment(c review.Comment) string {
	return fmt.Sprintf("**[%s]** %s", strings.ToUpper(string(c.Severity)), c.Body)
}

// BuildReviewBody renders the summary body for a PR review: a severity-count
// table, skip notices for anything left out, and a token-usage footer.
func BuildReviewBody(rep *review.Report) string {
	var sb strings.Builder
	sb.WriteString("## CodeCheck Review\n\n")
	fmt.Fprintf(&sb, "Reviewed %d file(s) in %d chunk(s) with %s/%s.\n\n",
		rep.Summary.FilesReviewed, rep.Summary.ChunksRequested, rep.Provider, rep.Model)

	sb.WriteString("| Severity | Count |\n|----------|-------|\n")
	fmt.Fprintf(&sb, "| High | %d |\n", rep.Summary.Counts.High)
	fmt.Fprintf(&sb, "| Medium | %d |\n", rep.Summary.Counts.Medium)
	fmt.Fprintf(&sb, "| Low | %d |\n\n", rep.Summary.Counts.Low)

	if len(rep.Comments) == 0 {
		sb.WriteString("No issues found in the changes.\n")
	}

	writeSkipNotices(&sb, rep)

	if rep.TokensUsed > 0 {
		fmt.Fprintf(&sb, "\n<sub>%d tokens · run %s</sub>\n", rep.TokensUsed, rep.RunID)
	}
	return sb.String()
}

// BuildCommitComment renders the single summary comment posted on a commit,
// one section per file in comment order.
func BuildCommitComment(rep *review.Report) string {
	var sections []string
	var current []string
	lastPath := ""
	flush := func() {
		if len(current) > 0 {
			sections = append(sections, fmt.Sprintf("### `%s`\n%s", lastPath, strings.Join(current, "\n")))
			current = nil
		}
	}
	for _, c := range rep.Comments {
		if c.Path != lastPath {
			flush()
			lastPath = c.Path
		}
		current = append(current, fmt.Sprintf("- **Line %d** (%s): %s", c.Line, c.Severity, c.Body))
	}
	flush()

	if len(sections) == 0 {
		sections = append(sections, "No issues found in the changes.")
	}

	var sb strings.Builder
	sb.WriteString("## ✅ CodeCheck Summary\n")
	sb.WriteString(strings.Join(sections, "\n\n"))
	sb.WriteString("\n")
	writeSkipNotices(&sb, rep)
	return sb.String()
}

// writeSkipNotices appends a section listing everything the run could not
// review, so a clean-looking summary never hides dropped files.
func writeSkipNotices(sb *strings.Builder, rep *review.Report) {
	if len(rep.Skipped) == 0 && len(rep.Failures) == 0 {
		return
	}
	sb.WriteString("\n### Not reviewed\n\n")
	for _, s := range rep.Skipped {
		fmt.Fprintf(sb, "- `%s`: %s\n", s.Path, s.Reason)
	}
	for _, f := range rep.Failures {
		fmt.Fprintf(sb, "- `%s` (chunk %d): model request failed\n", f.File, f.Index+1)
	}
}

// foldComments renders inline comments as a list for the body-only fallback
// after GitHub rejects their anchored positions.
func foldComments(comments []InlineComment) string {
	var sb strings.Builder
	sb.WriteString("### Inline comments\n\n")
	sb.WriteString("The comment positions were rejected by GitHub, so they are listed here instead.\n\n")
	for _, c := range comments {
		fmt.Fprintf(&sb, "- `%s:%d` — %s\n", c.Path, c.Line, c.Body)
	}
	return sb.String()
}
