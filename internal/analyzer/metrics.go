package analyzer

import (
	"fmt"

	"protoscan/internal/classify"
)

func computeDomainStats(records []classify.Record) map[string]DomainStats {
	stats := make(map[string]DomainStats)
	methodTotals := make(map[string]int)
	propTotals := make(map[string]int)

	for _, rec := range records {
		s := stats[rec.Domain]
		if s.Shapes == nil {
			s.Shapes = make(map[classify.Shape]int)
		}
		s.Count++
		if rec.RuntimeCheckable {
			s.RuntimeCheckable++
		}
		s.Shapes[rec.Shape]++
		methodTotals[rec.Domain] += len(rec.Methods)
		propTotals[rec.Domain] += len(rec.Properties)
		stats[rec.Domain] = s
	}

	for domain, s := range stats {
		s.AvgMethods = float64(methodTotals[domain]) / float64(s.Count)
		s.AvgProperties = float64(propTotals[domain]) / float64(s.Count)
		stats[domain] = s
	}
	return stats
}

func computeQuality(records []classify.Record) QualityMetrics {
	q := QualityMetrics{TotalProtocols: len(records)}
	if len(records) == 0 {
		return q
	}

	methods, props := 0, 0
	for _, rec := range records {
		switch rec.Shape {
		case classify.ShapeMarker:
			q.EmptyProtocols++
		case classify.ShapeDataOnly:
			q.DataOnlyProtocols++
		case classify.ShapeFunctional, classify.ShapeMixin:
			q.FunctionalCount++
		}
		if rec.Docstring == "" {
			q.MissingDocstrings++
		}
		methods += len(rec.Methods)
		props += len(rec.Properties)
	}

	total := float64(len(records))
	q.DocstringCoverage = (total - float64(q.MissingDocstrings)) / total
	q.AvgMethods = float64(methods) / total
	q.AvgProperties = float64(props) / total
	return q
}

// computeWarnings flags quality issues that are advisory by default and
// failing under --fail-on-warnings.
func computeWarnings(records []classify.Record) []Warning {
	var warnings []Warning
	for _, rec := range records {
		if rec.Docstring == "" {
			warnings = append(warnings, Warning{
				Protocol: rec.Name,
				File:     rec.FilePath,
				Line:     rec.Location.Line,
				Message:  "missing docstring",
			})
		}
		if !rec.RuntimeCheckable && (rec.Shape == classify.ShapeFunctional || rec.Shape == classify.ShapeMixin) {
			warnings = append(warnings, Warning{
				Protocol: rec.Name,
				File:     rec.FilePath,
				Line:     rec.Location.Line,
				Message:  "functional protocol is not runtime checkable",
			})
		}
		if rec.Shape == classify.ShapeMarker {
			warnings = append(warnings, Warning{
				Protocol: rec.Name,
				File:     rec.FilePath,
				Line:     rec.Location.Line,
				Message:  fmt.Sprintf("empty protocol %s declares no contract", rec.Name),
			})
		}
	}
	return warnings
}
