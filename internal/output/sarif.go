package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/codecheck/internal/review"
)

// SARIFWriter outputs review comments in SARIF v2.1.0 format for
// code-scanning upload.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *review.Report) error {
	sarif := buildSARIF(report)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

// Comments carry no rule taxonomy, so rules are keyed by SARIF level: one
// rule per severity tier that actually occurs in the report.
func buildSARIF(report *review.Report) sarifLog {
	var results []sarifResult
	usedLevels := make(map[string]bool)

	for _, c := range report.Comments {
		level := severityToLevel(c.Severity)
		usedLevels[level] = true
		results = append(results, sarifResult{
			RuleID:  "codecheck/" + level,
			Level:   level,
			Message: sarifMessage{Text: c.Body},
			Locations: []sarifLocation{
				{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: c.Path},
						Region:           sarifRegion{StartLine: c.Line, EndLine: c.Line},
					},
				},
			},
		})
	}

	var rules []sarifRule
	for _, tier := range []struct {
		level string
		desc  string
	}{
		{"error", "High severity review comment"},
		{"warning", "Medium severity review comment"},
		{"note", "Low severity review comment"},
	} {
		if !usedLevels[tier.level] {
			continue
		}
		rules = append(rules, sarifRule{
			ID:               "codecheck/" + tier.level,
			Name:             tier.level,
			ShortDescription: sarifMessage{Text: tier.desc},
			DefaultConfig:    sarifDefaultConfig{Level: tier.level},
		})
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "codecheck",
						Version:        report.Version,
						InformationURI: "https://github.com/dshills/codecheck",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
}

// severityToLevel maps comment severity to SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityHigh:
		return "error"
	case review.SeverityMedium:
		return "warning"
	case review.SeverityLow:
		return "note"
	default:
		return "note"
	}
}
