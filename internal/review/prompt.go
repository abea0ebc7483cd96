package review

import (
	"fmt"
	"path/filepath"
	"strings"
)

const systemPrompt = `You are a strict, expert code reviewer. Your job is to review a pull-request diff chunk and produce inline review suggestions in JSON format.

Rules:
1. Only review the changes shown in the diff. Do not comment on unchanged code except where a change breaks it.
2. Focus on bugs, security issues, performance problems, and correctness. Skip style nitpicks a formatter or linter would catch.
3. Be concise and actionable. Say what is wrong and how to fix it.
4. Hunks are numbered in reading order: the Nth "@@" block in the diff is hunk N.
5. "line" is the 1-based position among that hunk's context and added lines. Removed lines (starting with "-") do not count.
6. Rate severity as "low", "medium", or "high".

You MUST respond with ONLY a JSON array of suggestions. No markdown, no explanation, no preamble. Just the JSON array.

Each suggestion must have this exact structure:
{
  "hunk": 1,
  "line": 1,
  "severity": "low|medium|high",
  "comment": "What is wrong and how to fix it, in GitHub-flavored Markdown"
}

If there are no issues, respond with an empty array: []`

// SystemPrompt returns the system prompt for the LLM.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt constructs the user prompt for one chunk. The text
// argument is the chunk's serialized diff, possibly truncated by the caller
// for oversized chunks.
func BuildUserPrompt(c Chunk, text string, g *Guidelines) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Review this diff of %s.\n", c.File)
	if c.Total > 1 {
		fmt.Fprintf(&b, "This is chunk %d of %d for the file; other chunks are reviewed separately.\n", c.Index+1, c.Total)
	}
	if lang := detectLanguage(c.File); lang != "" {
		fmt.Fprintf(&b, "Language: %s\n", lang)
	}

	if section := g.PromptSection(); section != "" {
		b.WriteString(section)
	}

	b.WriteString("\n--- BEGIN DIFF ---\n")
	b.WriteString(text)
	b.WriteString("\n--- END DIFF ---\n")

	return b.String()
}

var langByExt = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript/React",
	".jsx":   "JavaScript/React",
	".rs":    "Rust",
	".java":  "Java",
	".rb":    "Ruby",
	".cpp":   "C++",
	".c":     "C",
	".h":     "C/C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".sql":   "SQL",
	".sh":    "Shell",
	".yaml":  "YAML",
	".yml":   "YAML",
	".tf":    "Terraform",
}

func detectLanguage(file string) string {
	return langByExt[strings.ToLower(filepath.Ext(file))]
}
