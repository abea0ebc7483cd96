package diff

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

// Parse converts a multi-file unified diff into structured files. Malformed
// file sections are reported as ParseErrors and skipped; the remaining files
// are still returned in diff order.
func Parse(text string) ([]File, []ParseError) {
	var files []File
	var errs []ParseError
	for _, section := range splitSections(text) {
		f, perr := parseSection(section)
		if perr != nil {
			errs = append(errs, *perr)
			continue
		}
		files = append(files, f)
	}
	return files, errs
}

// splitSections divides a diff into per-file sections on "diff --git"
// boundaries. Preamble before the first boundary (commit headers from
// git show, for example) is dropped. A headerless diff is one section.
func splitSections(text string) []string {
	lines := strings.Split(text, "\n")
	var sections []string
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "diff --git ") {
			if start >= 0 {
				sections = append(sections, strings.Join(lines[start:i], "\n"))
			}
			start = i
		}
	}
	if start >= 0 {
		sections = append(sections, strings.Join(lines[start:], "\n"))
	} else if strings.TrimSpace(text) != "" {
		sections = append(sections, text)
	}
	return sections
}

func parseSection(section string) (File, *ParseError) {
	lines := strings.Split(section, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	f := File{Status: StatusModified}
	var oldPath, newPath string
	if len(lines) > 0 {
		oldPath, newPath = parseGitLine(lines[0])
	}

	var hunks []Hunk
	var cur *Hunk
	var oldLine, newLine int
	var oldRemaining, newRemaining int
	inHunk := false

	fail := func(header string, err error) (File, *ParseError) {
		return File{}, &ParseError{Path: pickPath(f.Status, oldPath, newPath), Header: header, Err: err}
	}

	for _, line := range lines {
		if inHunk {
			// Body lines are classified strictly by prefix until the
			// declared counts are consumed, so content like "--- x" inside
			// a hunk is never mistaken for a file header.
			switch {
			case strings.HasPrefix(line, "+"):
				cur.Lines = append(cur.Lines, Line{Kind: LineAdded, Content: line[1:], NewNum: newLine})
				newLine++
				newRemaining--
			case strings.HasPrefix(line, "-"):
				cur.Lines = append(cur.Lines, Line{Kind: LineRemoved, Content: line[1:], OldNum: oldLine})
				oldLine++
				oldRemaining--
			case strings.HasPrefix(line, " "):
				cur.Lines = append(cur.Lines, Line{Kind: LineContext, Content: line[1:], OldNum: oldLine, NewNum: newLine})
				oldLine++
				newLine++
				oldRemaining--
				newRemaining--
			case strings.HasPrefix(line, `\`):
				// "\ No newline at end of file": no line-counter effect.
			case line == "" && oldRemaining > 0 && newRemaining > 0:
				// Some producers strip the space prefix from blank context.
				cur.Lines = append(cur.Lines, Line{Kind: LineContext, OldNum: oldLine, NewNum: newLine})
				oldLine++
				newLine++
				oldRemaining--
				newRemaining--
			default:
				return fail(cur.HeaderLine(), fmt.Errorf("unexpected line %q in hunk body", line))
			}
			if oldRemaining < 0 || newRemaining < 0 {
				return fail(cur.HeaderLine(), errors.New("hunk longer than declared length"))
			}
			if oldRemaining == 0 && newRemaining == 0 {
				inHunk = false
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "@@"):
			m := hunkHeaderRE.FindStringSubmatch(line)
			if m == nil {
				return fail(line, errors.New("malformed hunk header"))
			}
			h := Hunk{
				OldStart: atoi(m[1]),
				OldLines: atoiDefault(m[2], 1),
				NewStart: atoi(m[3]),
				NewLines: atoiDefault(m[4], 1),
				Header:   strings.TrimSpace(m[5]),
			}
			if n := len(hunks); n > 0 && h.OldStart < hunks[n-1].OldStart {
				return fail(line, errors.New("hunks out of order"))
			}
			hunks = append(hunks, h)
			cur = &hunks[len(hunks)-1]
			oldLine, newLine = h.OldStart, h.NewStart
			oldRemaining, newRemaining = h.OldLines, h.NewLines
			inHunk = oldRemaining > 0 || newRemaining > 0
		case strings.HasPrefix(line, "--- "):
			p := headerPath(strings.TrimPrefix(line, "--- "))
			if p == "/dev/null" {
				f.Status = StatusAdded
			} else {
				oldPath = strings.TrimPrefix(p, "a/")
			}
		case strings.HasPrefix(line, "+++ "):
			p := headerPath(strings.TrimPrefix(line, "+++ "))
			if p == "/dev/null" {
				f.Status = StatusDeleted
			} else {
				newPath = strings.TrimPrefix(p, "b/")
			}
		case strings.HasPrefix(line, "new file mode"):
			f.Status = StatusAdded
		case strings.HasPrefix(line, "deleted file mode"):
			f.Status = StatusDeleted
		case strings.HasPrefix(line, "rename from "):
			oldPath = strings.TrimPrefix(line, "rename from ")
			f.Status = StatusRenamed
		case strings.HasPrefix(line, "rename to "):
			newPath = strings.TrimPrefix(line, "rename to ")
		case strings.HasPrefix(line, "Binary files "), strings.HasPrefix(line, "GIT binary patch"):
			f.Binary = true
		default:
			// index lines, mode lines, copy from/to and anything else
			// between file headers carry no line content.
		}
	}

	if inHunk && (oldRemaining > 0 || newRemaining > 0) {
		return fail(cur.HeaderLine(), errors.New("hunk shorter than declared length"))
	}

	f.Path = pickPath(f.Status, oldPath, newPath)
	if oldPath != "" && oldPath != f.Path {
		f.OldPath = oldPath
	}
	f.Hunks = hunks
	return f, nil
}

// pickPath chooses the path a file is reported under: the new-side path,
// except for deletions where only the old side exists.
func pickPath(status, oldPath, newPath string) string {
	if status == StatusDeleted || newPath == "" {
		return oldPath
	}
	return newPath
}

// parseGitLine extracts candidate paths from a "diff --git a/x b/y" line.
// The ---/+++ headers override these when present.
func parseGitLine(line string) (oldPath, newPath string) {
	rest, ok := strings.CutPrefix(line, "diff --git ")
	if !ok {
		return "", ""
	}
	if i := strings.Index(rest, " b/"); i >= 0 {
		return strings.TrimPrefix(rest[:i], "a/"), rest[i+len(" b/"):]
	}
	return "", ""
}

// headerPath strips quoting and trailing tab-separated annotations from a
// ---/+++ header path.
func headerPath(p string) string {
	if i := strings.IndexByte(p, '\t'); i >= 0 {
		p = p[:i]
	}
	if strings.HasPrefix(p, `"`) && strings.HasSuffix(p, `"`) {
		if u, err := strconv.Unquote(p); err == nil {
			return u
		}
	}
	return p
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	return atoi(s)
}
