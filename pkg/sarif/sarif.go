// Package sarif renders alerts as a SARIF 2.1.0 log.
package sarif

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "sdscan"
)

// ToolVersion is reported in the driver section. The CLI overrides it at startup.
var ToolVersion = "dev"

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule represents a detection rule
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
	HelpURI          string           `json:"helpUri,omitempty"`
	Properties       RuleProperties   `json:"properties"`
}

// RuleProperties carries the rule option and its classification.
type RuleProperties struct {
	Pattern   string   `json:"pattern"`
	Threshold int      `json:"threshold"`
	Tags      []string `json:"tags,omitempty"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// Result represents a single alert
type Result struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             Message           `json:"message"`
	Locations           []Location        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
	Properties          ResultProperties  `json:"properties"`
}

// ResultProperties carries the counted occurrences behind an alert.
type ResultProperties struct {
	Count        int    `json:"count"`
	Threshold    int    `json:"threshold"`
	StructuralID string `json:"structuralId"`
	BlobID       string `json:"blobId"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location. Alerts are raised per buffer,
// so no region is reported.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport() *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: ToolVersion,
						Rules:   []Rule{},
					},
				},
				Results: []Result{},
			},
		},
	}
}

// AddRule adds a detection rule to the report. Adding the same rule ID twice
// is a no-op.
func (r *Report) AddRule(rule *types.Rule) {
	if r.ruleIndex(rule.ID) >= 0 {
		return
	}

	sarifRule := Rule{
		ID:   rule.ID,
		Name: rule.Name,
		ShortDescription: ShortDescription{
			Text: rule.Description,
		},
		Properties: RuleProperties{
			Pattern:   rule.Pattern,
			Threshold: rule.Threshold,
			Tags:      rule.Categories,
		},
	}
	if sarifRule.ShortDescription.Text == "" {
		sarifRule.ShortDescription.Text = rule.Name
	}

	// Add first reference as helpUri if available
	if len(rule.References) > 0 {
		sarifRule.HelpURI = rule.References[0]
	}

	r.Runs[0].Tool.Driver.Rules = append(r.Runs[0].Tool.Driver.Rules, sarifRule)
}

// AddResult adds an alert to the report. Rules not added beforehand get a
// ruleIndex of -1.
func (r *Report) AddResult(alert *types.Alert) {
	result := Result{
		RuleID:    alert.RuleID,
		RuleIndex: r.ruleIndex(alert.RuleID),
		Level:     "warning",
		Message: Message{
			Text: alert.RuleName,
		},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{
						URI: formatFileURI(alert.Path),
					},
				},
			},
		},
		PartialFingerprints: map[string]string{
			"alertId/v1": alert.ID,
		},
		Properties: ResultProperties{
			Count:        alert.Count,
			Threshold:    alert.Threshold,
			StructuralID: alert.StructuralID,
			BlobID:       alert.BlobID.Hex(),
		},
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

func (r *Report) ruleIndex(id string) int {
	for i, rule := range r.Runs[0].Tool.Driver.Rules {
		if rule.ID == id {
			return i
		}
	}
	return -1
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		// Normalize path separators for URI format
		path = filepath.ToSlash(path)
		// Ensure path starts with /
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	// Relative paths stay as-is
	return filepath.ToSlash(path)
}
