package parser

import (
	"regexp"
	"strings"

	"protoscan/internal/config"
)

// PythonFallback salvages interface declarations from files the grammar
// rejects. It is line-oriented and substring based: class names and bases
// are reliable, method signatures are approximate (names only, no parameter
// canonicalization), properties and docstrings are not recovered.
type PythonFallback struct {
	MarkerType string
	NamePrefix string

	classRe  *regexp.Regexp
	methodRe *regexp.Regexp
}

func NewPythonFallback(extract config.Extract) *PythonFallback {
	return &PythonFallback{
		MarkerType: extract.MarkerType,
		NamePrefix: extract.NamePrefix,
		classRe:    regexp.MustCompile(`^class\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)\s*:`),
		methodRe:   regexp.MustCompile(`^\s+(async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
	}
}

func (f *PythonFallback) ExtractDegraded(source []byte, result *FileResult) {
	lines := strings.Split(string(source), "\n")
	var current *Interface

	flush := func() {
		if current != nil {
			result.Interfaces = append(result.Interfaces, *current)
			current = nil
		}
	}

	for lineNo, line := range lines {
		if m := f.classRe.FindStringSubmatch(line); m != nil {
			flush()

			name := m[1]
			bases, inheritsMarker := f.splitBases(m[2])
			if !inheritsMarker || !strings.HasPrefix(name, f.NamePrefix) {
				continue
			}

			current = &Interface{
				Name:  name,
				Bases: bases,
				Location: Location{
					Line:   lineNo + 1,
					Column: 1,
				},
			}
			continue
		}

		if current == nil {
			continue
		}
		if m := f.methodRe.FindStringSubmatch(line); m != nil {
			sig := m[2] + "(...) -> None"
			if strings.TrimSpace(m[1]) == "async" {
				sig = "async " + sig
			}
			current.Methods = append(current.Methods, sig)
		}
	}
	flush()
}

func (f *PythonFallback) splitBases(raw string) ([]string, bool) {
	var bases []string
	inheritsMarker := false
	for _, part := range strings.Split(raw, ",") {
		base := strings.TrimSpace(part)
		if base == "" || strings.Contains(base, "=") {
			continue
		}
		trimmed := base
		if idx := strings.IndexByte(trimmed, '['); idx > 0 {
			trimmed = trimmed[:idx]
		}
		if trimmed == f.MarkerType || strings.HasSuffix(trimmed, "."+f.MarkerType) {
			inheritsMarker = true
			continue
		}
		bases = append(bases, base)
	}
	return bases, inheritsMarker
}
