package review

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Guidelines tune the review per repository, loaded from a YAML file
// (--guidelines or the guidelines config key).
type Guidelines struct {
	Focus    []string          `yaml:"focus,omitempty"`
	Severity map[string]string `yaml:"severity,omitempty"` // path glob -> forced severity
	Required []RequiredCheck   `yaml:"required,omitempty"`
}

// RequiredCheck is a policy check the model should always evaluate.
type RequiredCheck struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// LoadGuidelines loads a guidelines file from disk. Returns nil Guidelines
// and nil error if path is empty.
func LoadGuidelines(path string) (*Guidelines, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading guidelines file: %w", err)
	}
	var g Guidelines
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing guidelines file: %w", err)
	}
	if err := g.validate(); err != nil {
		return nil, fmt.Errorf("guidelines file %s: %w", path, err)
	}
	return &g, nil
}

func (g *Guidelines) validate() error {
	for pattern, sev := range g.Severity {
		switch Severity(sev) {
		case SeverityLow, SeverityMedium, SeverityHigh:
		default:
			return fmt.Errorf("severity for %q must be low, medium, or high, got %q", pattern, sev)
		}
	}
	return nil
}

// PromptSection returns additional prompt instructions derived from the
// guidelines. Safe to call on a nil receiver.
func (g *Guidelines) PromptSection() string {
	if g == nil {
		return ""
	}

	var b strings.Builder

	if len(g.Focus) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s. Prioritize suggestions in these areas.\n",
			strings.Join(g.Focus, ", "))
	}

	if len(g.Required) > 0 {
		b.WriteString("\nRequired checks (always evaluate these):\n")
		for _, req := range g.Required {
			fmt.Fprintf(&b, "- [%s] %s\n", req.ID, req.Text)
		}
	}

	return b.String()
}
