// Package review contains the core pipeline for LLM-based diff review.
//
// It defines the Chunk, Suggestion, Comment, and Report types, splits parsed
// diff files into size-bounded chunks, assembles prompts, parses and
// schema-validates JSON responses from model providers, and maps each
// suggestion's hunk-relative offset back to an absolute new-file line.
//
// Chunks are reviewed in parallel with bounded concurrency and a shared rate
// limit; a failed chunk is recorded in the report and never aborts the run.
// Resolved comments are deduplicated per line, ordered by path and line, and
// capped at a configurable maximum.
//
// Guideline packs (guidelines.go) let callers steer the prompt with focus
// areas and required checks, and force severities for matching file paths.
package review
