package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"protoscan/internal/analyzer"
	"protoscan/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDDuplicate = "SPI001"
	ruleIDConflict  = "SPI002"
	ruleIDWarning   = "SPI003"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
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
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
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
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from an analysis. File URIs
// are made relative to projectRoot; absolute paths are never included so
// that reports are safe to share.
func GenerateSARIF(projectRoot string, analysis *analyzer.Analysis) ([]byte, error) {
	rules := buildSARIFRules(analysis)
	results := make([]sarifResult, 0)

	// --- Duplicate groups → SPI001 ---
	for _, group := range analysis.Duplicates {
		names := make([]string, 0, len(group.Records))
		for _, rec := range group.Records {
			names = append(names, rec.Name)
		}
		msg := fmt.Sprintf("Duplicate protocol signatures in domain %q: %s (hash %s)",
			group.Domain, strings.Join(names, ", "), group.Hash)
		result := sarifResult{
			RuleID:  ruleIDDuplicate,
			Level:   "error",
			Message: sarifMessage{Text: msg},
		}
		for _, rec := range group.Records {
			result.Locations = append(result.Locations, fileLocation(projectRoot, rec.FilePath, rec.Location.Line, rec.Location.Column))
		}
		results = append(results, result)
	}

	// --- Name conflicts → SPI002 ---
	for _, conflict := range analysis.Conflicts {
		msg := fmt.Sprintf("Protocol name %q defined with %d distinct signatures",
			conflict.Name, len(conflict.Hashes))
		result := sarifResult{
			RuleID:  ruleIDConflict,
			Level:   "error",
			Message: sarifMessage{Text: msg},
		}
		for _, rec := range conflict.Records {
			result.Locations = append(result.Locations, fileLocation(projectRoot, rec.FilePath, rec.Location.Line, rec.Location.Column))
		}
		results = append(results, result)
	}

	// --- Quality warnings → SPI003 ---
	for _, w := range analysis.Warnings {
		result := sarifResult{
			RuleID:  ruleIDWarning,
			Level:   "warning",
			Message: sarifMessage{Text: fmt.Sprintf("%s: %s", w.Protocol, w.Message)},
		}
		if w.File != "" {
			result.Locations = []sarifLocation{fileLocation(projectRoot, w.File, w.Line, 0)}
		}
		results = append(results, result)
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "protoscan",
						Version: version.Version,
						Rules:   rules,
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules that are relevant for the given findings.
func buildSARIFRules(analysis *analyzer.Analysis) []sarifRule {
	rules := make([]sarifRule, 0, 3)
	if len(analysis.Duplicates) > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDDuplicate,
			Name:             "DuplicateProtocol",
			ShortDescription: sarifMessage{Text: "Two or more protocols share an identical canonical signature."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		})
	}
	if len(analysis.Conflicts) > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDConflict,
			Name:             "ProtocolNameConflict",
			ShortDescription: sarifMessage{Text: "The same protocol name is defined with divergent signatures."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		})
	}
	if len(analysis.Warnings) > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDWarning,
			Name:             "ProtocolQualityWarning",
			ShortDescription: sarifMessage{Text: "A protocol definition falls short of hygiene guidelines."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		})
	}
	return rules
}

func fileLocation(projectRoot, filePath string, line, column int) sarifLocation {
	loc := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{
				URI:       relativeURI(projectRoot, filePath),
				URIBaseID: "%SRCROOT%",
			},
		},
	}
	if line > 0 {
		loc.PhysicalLocation.Region = &sarifRegion{
			StartLine:   line,
			StartColumn: column,
		}
	}
	return loc
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. If the path is already relative or projectRoot is
// empty, the original path (with forward slashes) is returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	// SARIF URIs use forward slashes.
	return filepath.ToSlash(filePath)
}
