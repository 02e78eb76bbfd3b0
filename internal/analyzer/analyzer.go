// Package analyzer turns the full set of classified records from one run
// into an Analysis: accepted duplicate groups, accepted name conflicts,
// per-domain distribution, and quality metrics. It is a pure aggregation;
// all I/O happens upstream.
package analyzer

import (
	"time"

	"github.com/google/uuid"

	"protoscan/internal/classify"
	"protoscan/internal/config"
)

type Analyzer struct {
	detector *Detector
}

func New(detect config.Detect) *Analyzer {
	return &Analyzer{detector: NewDetector(detect)}
}

func (a *Analyzer) Analyze(root string, records []classify.Record, issues []FileIssue) *Analysis {
	start := time.Now()

	duplicates, conflicts := a.detector.Detect(records)

	analysis := &Analysis{
		RunID:       uuid.NewString(),
		Root:        root,
		GeneratedAt: start.UTC(),
		Records:     records,
		Duplicates:  duplicates,
		Conflicts:   conflicts,
		Domains:     computeDomainStats(records),
		Quality:     computeQuality(records),
		Warnings:    computeWarnings(records),
		Errors:      issues,
	}
	analysis.Duration = time.Since(start)
	return analysis
}

// Detector exposes the configured detector for callers that need the
// pairwise veto directly (the migration planner does).
func (a *Analyzer) Detector() *Detector {
	return a.detector
}
