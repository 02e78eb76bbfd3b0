package analyzer

import (
	"sort"
	"strings"

	"protoscan/internal/classify"
)

// MigrationPlan suggests a remediation per accepted group: which declaration
// to keep for each duplicate group, and domain-qualified renames for each
// name conflict.
type MigrationPlan struct {
	RunID         string          `json:"run_id"`
	Consolidation []Consolidation `json:"consolidations"`
	Renames       []Rename        `json:"renames"`
}

type Consolidation struct {
	Hash   string       `json:"signature_hash"`
	Keep   PlanTarget   `json:"keep"`
	Remove []PlanTarget `json:"remove"`
	Reason string       `json:"reason"`
}

type Rename struct {
	Name        string             `json:"name"`
	Suggestions []RenameSuggestion `json:"suggestions"`
}

type RenameSuggestion struct {
	Target  PlanTarget `json:"target"`
	NewName string     `json:"new_name"`
}

type PlanTarget struct {
	Name       string `json:"name"`
	FilePath   string `json:"file_path"`
	ModulePath string `json:"module_path"`
}

func BuildPlan(analysis *Analysis) *MigrationPlan {
	plan := &MigrationPlan{RunID: analysis.RunID}

	for _, group := range analysis.Duplicates {
		keep := chooseCanonical(group.Records)
		c := Consolidation{
			Hash:   group.Hash,
			Keep:   target(keep),
			Reason: "shortest module path kept; remaining declarations should re-export it",
		}
		for _, rec := range group.Records {
			if rec.FilePath == keep.FilePath && rec.Name == keep.Name {
				continue
			}
			c.Remove = append(c.Remove, target(rec))
		}
		plan.Consolidation = append(plan.Consolidation, c)
	}

	for _, conflict := range analysis.Conflicts {
		rename := Rename{Name: conflict.Name}
		for _, rec := range conflict.Records {
			rename.Suggestions = append(rename.Suggestions, RenameSuggestion{
				Target:  target(rec),
				NewName: domainQualifiedName(rec),
			})
		}
		plan.Renames = append(plan.Renames, rename)
	}

	return plan
}

// chooseCanonical prefers the declaration with the shortest module path,
// breaking ties lexicographically by file path, so plan output is
// deterministic for a fixed tree.
func chooseCanonical(group []classify.Record) classify.Record {
	sorted := append([]classify.Record(nil), group...)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i].ModulePath) != len(sorted[j].ModulePath) {
			return len(sorted[i].ModulePath) < len(sorted[j].ModulePath)
		}
		return sorted[i].FilePath < sorted[j].FilePath
	})
	return sorted[0]
}

// domainQualifiedName injects the domain after the naming prefix:
// ProtocolStore in "memory" becomes ProtocolMemoryStore.
func domainQualifiedName(rec classify.Record) string {
	if rec.Domain == classify.DomainUnknown {
		return rec.Name
	}
	var b strings.Builder
	for _, part := range strings.Split(rec.Domain, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	domain := b.String()

	const prefix = "Protocol"
	if strings.HasPrefix(rec.Name, prefix) && !strings.HasPrefix(rec.Name, prefix+domain) {
		return prefix + domain + rec.Name[len(prefix):]
	}
	return rec.Name
}

func target(rec classify.Record) PlanTarget {
	return PlanTarget{
		Name:       rec.Name,
		FilePath:   rec.FilePath,
		ModulePath: rec.ModulePath,
	}
}
