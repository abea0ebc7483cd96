package diff

import (
	"fmt"
	"strings"
)

// LineKind classifies a hunk body line.
type LineKind string

const (
	LineContext LineKind = "context"
	LineAdded   LineKind = "added"
	LineRemoved LineKind = "removed"
)

// File status values.
const (
	StatusAdded    = "added"
	StatusDeleted  = "deleted"
	StatusModified = "modified"
	StatusRenamed  = "renamed"
)

// Line is a single body line of a hunk. OldNum is zero when the line was
// added; NewNum is zero when the line was removed. They are never both zero.
type Line struct {
	Kind    LineKind `json:"kind"`
	Content string   `json:"content"`
	OldNum  int      `json:"old_num,omitempty"`
	NewNum  int      `json:"new_num,omitempty"`
}

// String renders the line with its unified-diff prefix.
func (l Line) String() string {
	switch l.Kind {
	case LineAdded:
		return "+" + l.Content
	case LineRemoved:
		return "-" + l.Content
	default:
		return " " + l.Content
	}
}

// Hunk is a contiguous block of changes at one location in a file.
// OldLines counts context+removed lines; NewLines counts context+added.
type Hunk struct {
	OldStart int    `json:"old_start"`
	OldLines int    `json:"old_lines"`
	NewStart int    `json:"new_start"`
	NewLines int    `json:"new_lines"`
	Header   string `json:"header,omitempty"`
	Lines    []Line `json:"lines"`
}

// String renders the hunk in unified-diff syntax, header line included.
func (h Hunk) String() string {
	var b strings.Builder
	b.WriteString(h.HeaderLine())
	b.WriteByte('\n')
	for _, l := range h.Lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// HeaderLine regenerates the @@ header for the hunk.
func (h Hunk) HeaderLine() string {
	s := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
	if h.Header != "" {
		s += " " + h.Header
	}
	return s
}

// NewEnd returns the last new-file line number covered by the hunk.
func (h Hunk) NewEnd() int {
	if h.NewLines == 0 {
		return h.NewStart
	}
	return h.NewStart + h.NewLines - 1
}

// File is one file's worth of a unified diff. Path is the new-side path,
// except for deleted files where it is the old path. Hunks are ordered by
// starting line and never overlap.
type File struct {
	Path    string `json:"path"`
	OldPath string `json:"old_path,omitempty"`
	Status  string `json:"status"`
	Binary  bool   `json:"binary,omitempty"`
	Hunks   []Hunk `json:"hunks,omitempty"`
}

// ContainsNewLine reports whether n is a context or added line in some hunk.
func (f File) ContainsNewLine(n int) bool {
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			if l.NewNum == n && l.Kind != LineRemoved {
				return true
			}
		}
	}
	return false
}

// ParseError records a file section that could not be parsed. The rest of
// the diff is unaffected.
type ParseError struct {
	Path   string
	Header string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Header != "" {
		return fmt.Sprintf("parsing %s at %q: %v", e.Path, e.Header, e.Err)
	}
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
