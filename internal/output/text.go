package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/codecheck/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}

	counts := report.Summary.Counts
	total := counts.High + counts.Medium + counts.Low

	ew.printf("CodeCheck Review — %s\n", describeTarget(report))
	ew.printf("Provider: %s/%s\n", report.Provider, report.Model)
	ew.println(strings.Repeat("─", 60))
	ew.printf("Comments: %d total", total)
	if total > 0 {
		ew.printf(" (%d high, %d medium, %d low)", counts.High, counts.Medium, counts.Low)
	}
	ew.println("")
	ew.printf("Files reviewed: %d | Chunks: %d", report.Summary.FilesReviewed, report.Summary.ChunksRequested)
	if report.Summary.ChunksFailed > 0 {
		ew.printf(" (%d failed)", report.Summary.ChunksFailed)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if total == 0 {
		ew.println("\nNo issues found. Looks good!")
	}

	// Comments arrive sorted by (path, line); grouping preserves that order
	// within each severity.
	grouped := groupBySeverity(report.Comments)
	for _, sev := range []review.Severity{review.SeverityHigh, review.SeverityMedium, review.SeverityLow} {
		comments := grouped[sev]
		if len(comments) == 0 {
			continue
		}

		label := strings.ToUpper(string(sev))
		ew.printf("\n%s\n", severityColor(sev).Sprintf("%s %s", severityIcon(sev), label))
		ew.println(strings.Repeat("─", 40))

		for _, c := range comments {
			ew.printf("\n  %s:%d\n", c.Path, c.Line)
			for _, line := range wrapText(c.Body, 70) {
				ew.printf("    %s\n", line)
			}
		}
	}

	writeTextSkips(ew, report)

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (LLM: %dms), %d tokens\n",
		report.Timing.TotalMs, report.Timing.LLMMs, report.TokensUsed)

	return ew.err
}

func describeTarget(report *review.Report) string {
	switch {
	case report.Repo != "" && report.Target != "":
		return report.Repo + " " + report.Target
	case report.Target != "":
		return report.Target
	default:
		return "local changes"
	}
}

func writeTextSkips(ew *errWriter, report *review.Report) {
	if len(report.Skipped) == 0 && len(report.Failures) == 0 {
		return
	}
	ew.println("\nNot reviewed:")
	for _, s := range report.Skipped {
		ew.printf("  %s: %s\n", s.Path, s.Reason)
	}
	for i := range report.Failures {
		f := &report.Failures[i]
		ew.printf("  %s (chunk %d): request failed: %s\n", f.File, f.Index+1, f.Cause)
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func groupBySeverity(comments []review.Comment) map[review.Severity][]review.Comment {
	m := make(map[review.Severity][]review.Comment)
	for _, c := range comments {
		m[c.Severity] = append(m[c.Severity], c)
	}
	return m
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityHigh:
		return "[!!]"
	case review.SeverityMedium:
		return "[!]"
	case review.SeverityLow:
		return "[-]"
	default:
		return "[?]"
	}
}

func severityColor(s review.Severity) *color.Color {
	switch s {
	case review.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case review.SeverityMedium:
		return color.New(color.FgYellow)
	case review.SeverityLow:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
