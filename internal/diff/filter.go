package diff

import (
	"path/filepath"
	"strings"
)

// Filter returns the files whose path matches none of the glob patterns.
// Order-preserving and pure; an empty pattern set keeps everything.
func Filter(files []File, patterns []string) []File {
	if len(patterns) == 0 {
		return files
	}
	var kept []File
	for _, f := range files {
		if !MatchesAny(f.Path, patterns) {
			kept = append(kept, f)
		}
	}
	return kept
}

// MatchesAny reports whether path matches at least one glob pattern.
// Patterns use filepath.Match semantics, case-sensitively. A "**/" prefix
// matches any directory depth including none, so "**/*.json" excludes JSON
// files at the repository root as well as in subdirectories; a "/**" suffix
// matches everything under a directory.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
			if strings.HasPrefix(path, prefix+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}
