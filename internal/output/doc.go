// Package output formats review reports for display or machine consumption.
//
// Four formats are supported:
//   - text     — human-readable terminal output with severity coloring (default)
//   - json     — full structured JSON report
//   - markdown — collapsible severity sections, suitable for pasting into a PR
//   - sarif    — SARIF v2.1.0 for upload to GitHub code scanning and other CI tools
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*review.Report]. [WriteReport]
// handles destination selection (file path or stdout).
package output
