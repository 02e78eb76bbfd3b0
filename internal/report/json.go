package report

import (
	"encoding/json"
	"time"

	"protoscan/internal/analyzer"
	"protoscan/internal/classify"
	"protoscan/internal/shared/util"
)

// Artifact is the machine-readable analysis document written on
// --generate-report.
type Artifact struct {
	Analysis  ArtifactAnalysis `json:"analysis"`
	Protocols []ArtifactRecord `json:"protocols"`
}

type ArtifactAnalysis struct {
	RunID           string                    `json:"run_id"`
	Root            string                    `json:"root"`
	GeneratedAt     time.Time                 `json:"generated_at"`
	DuplicateGroups []ArtifactGroup           `json:"duplicate_groups"`
	NameConflicts   []ArtifactConflict        `json:"name_conflicts"`
	Domains         map[string]ArtifactDomain `json:"domain_distribution"`
	Quality         ArtifactQuality           `json:"quality_metrics"`
	Errors          []ArtifactIssue           `json:"errors"`
}

type ArtifactGroup struct {
	Hash      string   `json:"signature_hash"`
	Domain    string   `json:"domain"`
	Shape     string   `json:"shape"`
	Protocols []string `json:"protocols"`
	Files     []string `json:"files"`
}

type ArtifactConflict struct {
	Name   string   `json:"name"`
	Hashes []string `json:"hashes"`
	Files  []string `json:"files"`
}

type ArtifactDomain struct {
	Count            int            `json:"count"`
	RuntimeCheckable int            `json:"runtime_checkable"`
	Shapes           map[string]int `json:"shapes"`
	AvgMethods       float64        `json:"avg_methods"`
	AvgProperties    float64        `json:"avg_properties"`
}

type ArtifactQuality struct {
	TotalProtocols    int     `json:"total_protocols"`
	EmptyProtocols    int     `json:"empty_protocols"`
	DataOnlyProtocols int     `json:"data_only_protocols"`
	FunctionalCount   int     `json:"functional_protocols"`
	MissingDocstrings int     `json:"missing_docstrings"`
	DocstringCoverage float64 `json:"docstring_coverage"`
	AvgMethods        float64 `json:"avg_methods"`
	AvgProperties     float64 `json:"avg_properties"`
}

type ArtifactIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type ArtifactRecord struct {
	Name               string `json:"name"`
	FilePath           string `json:"file_path"`
	ModulePath         string `json:"module_path"`
	SignatureHash      string `json:"signature_hash"`
	Domain             string `json:"domain"`
	MethodCount        int    `json:"method_count"`
	IsRuntimeCheckable bool   `json:"is_runtime_checkable"`
}

func BuildArtifact(analysis *analyzer.Analysis) Artifact {
	artifact := Artifact{
		Analysis: ArtifactAnalysis{
			RunID:       analysis.RunID,
			Root:        analysis.Root,
			GeneratedAt: analysis.GeneratedAt,
			Domains:     make(map[string]ArtifactDomain, len(analysis.Domains)),
			Quality: ArtifactQuality{
				TotalProtocols:    analysis.Quality.TotalProtocols,
				EmptyProtocols:    analysis.Quality.EmptyProtocols,
				DataOnlyProtocols: analysis.Quality.DataOnlyProtocols,
				FunctionalCount:   analysis.Quality.FunctionalCount,
				MissingDocstrings: analysis.Quality.MissingDocstrings,
				DocstringCoverage: analysis.Quality.DocstringCoverage,
				AvgMethods:        analysis.Quality.AvgMethods,
				AvgProperties:     analysis.Quality.AvgProperties,
			},
		},
	}

	for _, group := range analysis.Duplicates {
		ag := ArtifactGroup{
			Hash:   group.Hash,
			Domain: group.Domain,
			Shape:  string(group.Shape),
		}
		for _, rec := range group.Records {
			ag.Protocols = append(ag.Protocols, rec.Name)
			ag.Files = append(ag.Files, rec.FilePath)
		}
		artifact.Analysis.DuplicateGroups = append(artifact.Analysis.DuplicateGroups, ag)
	}

	for _, conflict := range analysis.Conflicts {
		ac := ArtifactConflict{Name: conflict.Name, Hashes: conflict.Hashes}
		for _, rec := range conflict.Records {
			ac.Files = append(ac.Files, rec.FilePath)
		}
		artifact.Analysis.NameConflicts = append(artifact.Analysis.NameConflicts, ac)
	}

	for domain, stats := range analysis.Domains {
		shapes := make(map[string]int, len(stats.Shapes))
		for shape, n := range stats.Shapes {
			shapes[string(shape)] = n
		}
		artifact.Analysis.Domains[domain] = ArtifactDomain{
			Count:            stats.Count,
			RuntimeCheckable: stats.RuntimeCheckable,
			Shapes:           shapes,
			AvgMethods:       stats.AvgMethods,
			AvgProperties:    stats.AvgProperties,
		}
	}

	for _, issue := range analysis.Errors {
		artifact.Analysis.Errors = append(artifact.Analysis.Errors, ArtifactIssue{
			Path:    issue.Path,
			Message: issue.Message,
		})
	}

	for _, rec := range analysis.Records {
		artifact.Protocols = append(artifact.Protocols, artifactRecord(rec))
	}

	return artifact
}

func artifactRecord(rec classify.Record) ArtifactRecord {
	return ArtifactRecord{
		Name:               rec.Name,
		FilePath:           rec.FilePath,
		ModulePath:         rec.ModulePath,
		SignatureHash:      rec.SignatureHash,
		Domain:             rec.Domain,
		MethodCount:        len(rec.Methods),
		IsRuntimeCheckable: rec.RuntimeCheckable,
	}
}

func WriteArtifact(path string, analysis *analyzer.Analysis) error {
	return writeJSON(path, BuildArtifact(analysis))
}

func WritePlan(path string, plan *analyzer.MigrationPlan) error {
	return writeJSON(path, plan)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return util.WriteFileWithDirs(path, append(data, '\n'), 0o644)
}
