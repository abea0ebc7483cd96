package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/codecheck/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	counts := report.Summary.Counts
	total := counts.High + counts.Medium + counts.Low

	fmt.Fprintf(w, "## CodeCheck Review\n\n")

	fmt.Fprintf(w, "| Severity | Count |\n")
	fmt.Fprintf(w, "|----------|-------|\n")
	fmt.Fprintf(w, "| High     | %d    |\n", counts.High)
	fmt.Fprintf(w, "| Medium   | %d    |\n", counts.Medium)
	fmt.Fprintf(w, "| Low      | %d    |\n", counts.Low)
	fmt.Fprintf(w, "| **Total** | **%d** |\n\n", total)

	if total == 0 {
		fmt.Fprintln(w, "No issues found. :white_check_mark:")
	}

	grouped := groupBySeverity(report.Comments)
	for _, sev := range []review.Severity{review.SeverityHigh, review.SeverityMedium, review.SeverityLow} {
		comments := grouped[sev]
		if len(comments) == 0 {
			continue
		}

		icon := mdSeverityIcon(sev)
		label := strings.ToUpper(string(sev))

		fmt.Fprintf(w, "<details>\n<summary>%s %s (%d)</summary>\n\n", icon, label, len(comments))

		for _, c := range comments {
			fmt.Fprintf(w, "**`%s:%d`**\n\n", c.Path, c.Line)
			fmt.Fprintf(w, "%s\n\n", c.Body)
			fmt.Fprintf(w, "---\n\n")
		}

		fmt.Fprintf(w, "</details>\n\n")
	}

	writeMarkdownSkips(w, report)

	fmt.Fprintf(w, "*Reviewed %d file(s) in %dms (LLM: %dms) with %s/%s — %d tokens*\n",
		report.Summary.FilesReviewed, report.Timing.TotalMs, report.Timing.LLMMs,
		report.Provider, report.Model, report.TokensUsed)

	return nil
}

func writeMarkdownSkips(w io.Writer, report *review.Report) {
	if len(report.Skipped) == 0 && len(report.Failures) == 0 {
		return
	}
	fmt.Fprintf(w, "### Not reviewed\n\n")
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "- `%s`: %s\n", s.Path, s.Reason)
	}
	for i := range report.Failures {
		f := &report.Failures[i]
		fmt.Fprintf(w, "- `%s` (chunk %d): request failed: %s\n", f.File, f.Index+1, f.Cause)
	}
	fmt.Fprintln(w)
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityHigh:
		return ":red_circle:"
	case review.SeverityMedium:
		return ":orange_circle:"
	case review.SeverityLow:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}
