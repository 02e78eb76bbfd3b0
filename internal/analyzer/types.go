package analyzer

import (
	"time"

	"protoscan/internal/classify"
)

// Analysis is the complete result of one run. It lives only until the report
// is emitted; nothing here is persisted.
type Analysis struct {
	RunID       string
	Root        string
	GeneratedAt time.Time
	Duration    time.Duration

	Records    []classify.Record
	Duplicates []DuplicateGroup
	Conflicts  []NameConflict
	Domains    map[string]DomainStats
	Quality    QualityMetrics
	Errors     []FileIssue
	Warnings   []Warning

	FilesScanned int
	FilesSkipped int
}

// DuplicateGroup is an accepted set of structurally identical declarations
// that survived the semantic-difference veto.
type DuplicateGroup struct {
	Hash    string
	Domain  string
	Shape   classify.Shape
	Records []classify.Record
}

// NameConflict is an accepted group of declarations sharing a name but not a
// signature hash.
type NameConflict struct {
	Name    string
	Hashes  []string
	Records []classify.Record
}

type DomainStats struct {
	Count            int
	RuntimeCheckable int
	Shapes           map[classify.Shape]int
	AvgMethods       float64
	AvgProperties    float64
}

type QualityMetrics struct {
	TotalProtocols    int
	EmptyProtocols    int
	DataOnlyProtocols int
	FunctionalCount   int
	MissingDocstrings int
	DocstringCoverage float64
	AvgMethods        float64
	AvgProperties     float64
}

type FileIssue struct {
	Path    string
	Message string
}

type Warning struct {
	Protocol string
	File     string
	Line     int
	Message  string
}

// Clean reports whether the run found nothing actionable. Exit status 0
// requires both accepted duplicate and conflict counts to be zero.
func (a *Analysis) Clean() bool {
	return len(a.Duplicates) == 0 && len(a.Conflicts) == 0
}
