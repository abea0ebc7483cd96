package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/codecheck/internal/diff"
)

// commentSide is the diff side inline comments target. Suggestions address
// new-side lines only, so this is always the right-hand side.
const commentSide = "RIGHT"

// mergeSeparator joins the bodies of suggestions that resolved to the same
// file and line.
const mergeSeparator = "\n\n---\n\n"

// MapSuggestions resolves every suggestion to an absolute new-file line,
// drops the ones that fall outside their hunk (with a MappingError each),
// merges duplicates targeting the same position, and returns comments in
// deterministic (path, line) order.
func MapSuggestions(results []ChunkResult) ([]Comment, []MappingError) {
	var comments []Comment
	var errs []MappingError
	byPos := make(map[string]int) // "path:line" -> index into comments

	for _, res := range results {
		for _, s := range res.Suggestions {
			c, merr := resolve(s, res.Chunk)
			if merr != nil {
				errs = append(errs, *merr)
				continue
			}
			key := fmt.Sprintf("%s:%d", c.Path, c.Line)
			if i, ok := byPos[key]; ok {
				merge(&comments[i], c)
				continue
			}
			byPos[key] = len(comments)
			comments = append(comments, c)
		}
	}

	SortComments(comments)
	return comments, errs
}

// resolve maps a suggestion's hunk-relative offset onto the absolute
// new-file line it addresses. Offsets count the hunk's context and added
// lines; removed lines do not advance the counter and can never be targets.
func resolve(s Suggestion, c Chunk) (Comment, *MappingError) {
	fail := func(reason string) (Comment, *MappingError) {
		return Comment{}, &MappingError{Path: s.Path, Hunk: s.Hunk, Offset: s.Line, Reason: reason}
	}

	if s.Hunk < 1 || s.Hunk > len(c.Hunks) {
		return fail(fmt.Sprintf("hunk %d does not exist (chunk has %d)", s.Hunk, len(c.Hunks)))
	}
	if s.Line < 1 {
		return fail("offset must be positive")
	}

	h := c.Hunks[s.Hunk-1]
	offset := 0
	for _, l := range h.Lines {
		if l.Kind == diff.LineRemoved {
			continue
		}
		offset++
		if offset == s.Line {
			return Comment{
				Path:     s.Path,
				Line:     l.NewNum,
				Side:     commentSide,
				Severity: s.Severity,
				Body:     strings.TrimSpace(s.Body),
			}, nil
		}
	}
	return fail(fmt.Sprintf("offset %d beyond hunk's %d new-side lines", s.Line, offset))
}

// merge folds a duplicate-position comment into an existing one. Bodies are
// concatenated; the higher severity wins.
func merge(dst *Comment, src Comment) {
	if !strings.Contains(dst.Body, src.Body) {
		dst.Body += mergeSeparator + src.Body
	}
	if SeverityRank(src.Severity) > SeverityRank(dst.Severity) {
		dst.Severity = src.Severity
	}
}

// SortComments orders comments by path, then line. Publishing order is
// independent of the order concurrent chunk requests completed in.
func SortComments(comments []Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].Path != comments[j].Path {
			return comments[i].Path < comments[j].Path
		}
		return comments[i].Line < comments[j].Line
	})
}

// ApplySeverityOverrides re-levels comments whose path matches a guideline
// pattern. Patterns are applied in sorted order so the result is stable when
// several match. Returns the number of comments changed.
func ApplySeverityOverrides(comments []Comment, g *Guidelines) int {
	if g == nil || len(g.Severity) == 0 {
		return 0
	}
	patterns := make([]string, 0, len(g.Severity))
	for p := range g.Severity {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	changed := 0
	for i := range comments {
		for _, pattern := range patterns {
			if diff.MatchesAny(comments[i].Path, []string{pattern}) {
				if sev := Severity(g.Severity[pattern]); comments[i].Severity != sev {
					comments[i].Severity = sev
					changed++
				}
				break
			}
		}
	}
	return changed
}
