package review

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// suggestionSchemaJSON constrains a single suggestion object. Validation
// runs per entry, so one malformed entry is dropped without discarding the
// rest of the response.
const suggestionSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["line", "comment"],
  "properties": {
    "hunk": {"type": "integer", "minimum": 1},
    "line": {"type": "integer", "minimum": 1},
    "severity": {"type": "string"},
    "comment": {"type": "string", "minLength": 1}
  }
}`

var suggestionSchema = jsonschema.MustCompileString("suggestion.json", suggestionSchemaJSON)

// rawSuggestion is the JSON structure returned by the LLM.
type rawSuggestion struct {
	Hunk     int    `json:"hunk"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Comment  string `json:"comment"`
}

// ParseSuggestions decodes a model response into suggestions for a chunk.
// Entries failing schema validation are dropped individually; the returned
// count says how many. An empty array is a successful review with nothing
// to flag. A response that is not a JSON array at all returns an error so
// the caller can attempt a repair pass.
func ParseSuggestions(content string, c Chunk) ([]Suggestion, int, error) {
	cleaned := extractJSONArray(content)

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, 0, fmt.Errorf("invalid JSON array: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(raw))
	dropped := 0
	for _, entry := range raw {
		var v any
		if err := json.Unmarshal(entry, &v); err != nil {
			dropped++
			continue
		}
		if err := suggestionSchema.Validate(v); err != nil {
			dropped++
			continue
		}
		var rs rawSuggestion
		if err := json.Unmarshal(entry, &rs); err != nil {
			dropped++
			continue
		}
		if rs.Hunk == 0 {
			// Single-hunk chunks may omit the hunk number.
			rs.Hunk = 1
		}
		suggestions = append(suggestions, Suggestion{
			Path:     c.File,
			Hunk:     rs.Hunk,
			Line:     rs.Line,
			Severity: normalizeSeverity(rs.Severity),
			Body:     strings.TrimSpace(rs.Comment),
		})
	}
	return suggestions, dropped, nil
}

// normalizeSeverity maps model output onto the known levels. A suggestion
// with a strange severity label is still a suggestion, so unknown labels
// fall back to low rather than dropping the entry.
func normalizeSeverity(s string) Severity {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return sev
	default:
		return SeverityLow
	}
}

// extractJSONArray strips markdown code fences and surrounding prose from a
// model response, leaving the JSON array payload.
func extractJSONArray(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) >= 2 {
			start := 1
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			content = strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		}
	}

	if !strings.HasPrefix(content, "[") {
		if i := strings.IndexByte(content, '['); i >= 0 {
			if j := strings.LastIndexByte(content, ']'); j > i {
				content = content[i : j+1]
			}
		}
	}
	return content
}
