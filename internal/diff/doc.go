// Package diff parses unified diffs into structured per-file hunks with
// absolute line coordinates, and filters files against exclusion globs.
//
// Parsing is tolerant at the file level: a malformed file section is
// reported and skipped without aborting the rest of the diff.
package diff
