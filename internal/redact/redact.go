package redact

import (
	"regexp"

	"github.com/dshills/codecheck/internal/diff"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Generic API keys (long hex/base64 strings after common key patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// AWS secret access keys
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	// Generic secrets/tokens/passwords in assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	// Bearer tokens
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs (three base64 segments separated by dots)
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----`),
	// GitHub classic tokens (ghp_, gho_, ghu_, ghs_, ghr_)
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	// GitHub fine-grained personal access tokens
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`),
	// Slack tokens
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// Anthropic API keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	// OpenAI API keys
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	// Generic long hex strings that look like secrets (32+ chars in an assignment)
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Apply replaces detected secrets in text with [REDACTED] and reports how
// many replacements were made.
func Apply(text string) (string, int) {
	result := text
	count := 0
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllStringFunc(result, func(string) string {
			count++
			return placeholder
		})
	}
	return result, count
}

// ShouldRedactPath checks if a file path matches any of the redaction path
// patterns. Patterns use the same glob semantics as exclude_patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	return diff.MatchesAny(path, patterns)
}

// Content redacts secrets from content, returning the redacted text and the
// number of redactions. If the file path matches a redaction pattern the
// entire content is replaced.
func Content(content, path string, redactPaths []string) (string, int) {
	if ShouldRedactPath(path, redactPaths) {
		return placeholder + " (file content redacted by path policy)\n", 1
	}
	return Apply(content)
}
