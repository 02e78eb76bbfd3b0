package analyzer

import (
	"sort"
	"strings"

	"protoscan/internal/classify"
	"protoscan/internal/config"
)

// Detector groups classified records into accepted duplicate groups and
// accepted name conflicts. The heuristic filters favor precision: a false
// "duplicate" alarm erodes trust in the tool faster than an occasional
// missed one.
type Detector struct {
	batchMarkers  []string
	layerKeywords []string
	propThreshold int
	allowed       map[string]bool
}

func NewDetector(detect config.Detect) *Detector {
	allowed := make(map[string]bool, len(detect.AllowedConflicts))
	for _, name := range detect.AllowedConflicts {
		allowed[name] = true
	}
	return &Detector{
		batchMarkers:  detect.BatchMarkers,
		layerKeywords: detect.LayerKeywords,
		propThreshold: detect.PropertyDiffThreshold,
		allowed:       allowed,
	}
}

func (d *Detector) Detect(records []classify.Record) ([]DuplicateGroup, []NameConflict) {
	return d.detectDuplicates(records), d.detectConflicts(records)
}

func (d *Detector) detectDuplicates(records []classify.Record) []DuplicateGroup {
	byHash := make(map[string][]classify.Record)
	for _, rec := range records {
		byHash[rec.SignatureHash] = append(byHash[rec.SignatureHash], rec)
	}

	hashes := make([]string, 0, len(byHash))
	for hash, group := range byHash {
		if len(group) > 1 {
			hashes = append(hashes, hash)
		}
	}
	sort.Strings(hashes)

	var groups []DuplicateGroup
	for _, hash := range hashes {
		group := byHash[hash]
		if d.vetoGroup(group) {
			continue
		}
		for _, refined := range d.refine(group) {
			sort.Slice(refined, func(i, j int) bool {
				return refined[i].FilePath < refined[j].FilePath
			})
			groups = append(groups, DuplicateGroup{
				Hash:    hash,
				Domain:  refined[0].Domain,
				Shape:   refined[0].Shape,
				Records: refined,
			})
		}
	}
	return groups
}

// vetoGroup rejects a candidate hash bucket when any pair shows a semantic
// difference: hash equality is a candidacy signal, never a guarantee.
func (d *Detector) vetoGroup(group []classify.Record) bool {
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			if d.SemanticallyDifferent(group[i], group[j]) {
				return true
			}
		}
	}
	return false
}

// SemanticallyDifferent reports whether two records serve different
// architectural purposes despite a structural-hash coincidence.
func (d *Detector) SemanticallyDifferent(a, b classify.Record) bool {
	if !equalStringSets(methodNames(a.Methods), methodNames(b.Methods)) {
		return true
	}
	if d.batchAsymmetry(a.Name, b.Name) {
		return true
	}
	if symmetricDifference(a.Properties, b.Properties) >= d.propThreshold {
		return true
	}
	if !equalStringSets(d.layerHits(a.Name), d.layerHits(b.Name)) {
		return true
	}
	if a.Domain != b.Domain && a.Domain != classify.DomainUnknown && b.Domain != classify.DomainUnknown {
		return true
	}
	if a.Shape != b.Shape {
		return true
	}
	return false
}

// batchAsymmetry fires when exactly one of the two names carries a batch
// marker: a batched variant of an interface is not a duplicate of it.
func (d *Detector) batchAsymmetry(a, b string) bool {
	for _, marker := range d.batchMarkers {
		if strings.Contains(a, marker) != strings.Contains(b, marker) {
			return true
		}
	}
	return false
}

func (d *Detector) layerHits(name string) map[string]bool {
	hits := make(map[string]bool)
	for _, kw := range d.layerKeywords {
		if strings.Contains(name, kw) {
			hits[kw] = true
		}
	}
	return hits
}

// refine sub-groups an accepted bucket by (domain, shape), plus exact
// property set for data-only shapes. Falls back to the whole group when no
// finer bucket has multiple members.
func (d *Detector) refine(group []classify.Record) [][]classify.Record {
	buckets := make(map[string][]classify.Record)
	var keys []string
	for _, rec := range group {
		key := rec.Domain + "|" + string(rec.Shape)
		if rec.Shape == classify.ShapeDataOnly {
			props := append([]string(nil), rec.Properties...)
			sort.Strings(props)
			key += "|" + strings.Join(props, ",")
		}
		if _, seen := buckets[key]; !seen {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], rec)
	}

	sort.Strings(keys)
	var refined [][]classify.Record
	for _, key := range keys {
		if len(buckets[key]) > 1 {
			refined = append(refined, buckets[key])
		}
	}
	if len(refined) == 0 {
		return [][]classify.Record{group}
	}
	return refined
}

func (d *Detector) detectConflicts(records []classify.Record) []NameConflict {
	byName := make(map[string][]classify.Record)
	for _, rec := range records {
		byName[rec.Name] = append(byName[rec.Name], rec)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var conflicts []NameConflict
	for _, name := range names {
		group := byName[name]
		hashes := distinctHashes(group)
		if len(hashes) < 2 {
			continue
		}
		if d.conflictAcceptable(name, group) {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return group[i].FilePath < group[j].FilePath
		})
		conflicts = append(conflicts, NameConflict{
			Name:    name,
			Hashes:  hashes,
			Records: group,
		})
	}
	return conflicts
}

// conflictAcceptable drops a candidate conflict when it is a known accepted
// name, a pure domain-specific variation, or a family of inheritance-related
// types sharing a name root.
func (d *Detector) conflictAcceptable(name string, group []classify.Record) bool {
	if d.allowed[name] {
		return true
	}

	domains := make(map[string]bool)
	for _, rec := range group {
		domains[rec.Domain] = true
	}
	if len(domains) == len(group) {
		return true
	}

	shapes := make(map[classify.Shape]bool)
	for _, rec := range group {
		shapes[rec.Shape] = true
	}
	if len(shapes) > 1 && anyPairRelated(group) {
		return true
	}

	return false
}

// anyPairRelated reports whether some pair is related by direct or shared
// inheritance: one names the other as a base, or both declare a common base.
func anyPairRelated(group []classify.Record) bool {
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			if related(group[i], group[j]) {
				return true
			}
		}
	}
	return false
}

func related(a, b classify.Record) bool {
	for _, base := range a.Bases {
		if baseName(base) == b.Name {
			return true
		}
	}
	for _, base := range b.Bases {
		if baseName(base) == a.Name {
			return true
		}
	}
	for _, ab := range a.Bases {
		for _, bb := range b.Bases {
			if baseName(ab) == baseName(bb) {
				return true
			}
		}
	}
	return false
}

// baseName strips type parameters and qualifiers: "pkg.ProtocolBase[T]" and
// "ProtocolBase" name the same parent.
func baseName(base string) string {
	if idx := strings.IndexByte(base, '['); idx > 0 {
		base = base[:idx]
	}
	if idx := strings.LastIndexByte(base, '.'); idx >= 0 {
		base = base[idx+1:]
	}
	return base
}

func methodNames(methods []string) map[string]bool {
	names := make(map[string]bool, len(methods))
	for _, m := range methods {
		m = strings.TrimPrefix(m, "async ")
		if idx := strings.IndexByte(m, '('); idx > 0 {
			m = m[:idx]
		}
		names[m] = true
	}
	return names
}

func distinctHashes(group []classify.Record) []string {
	seen := make(map[string]bool)
	var hashes []string
	for _, rec := range group {
		if !seen[rec.SignatureHash] {
			seen[rec.SignatureHash] = true
			hashes = append(hashes, rec.SignatureHash)
		}
	}
	sort.Strings(hashes)
	return hashes
}

func equalStringSets(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func symmetricDifference(a, b []string) int {
	setA := make(map[string]bool, len(a))
	for _, s := range a {
		setA[s] = true
	}
	setB := make(map[string]bool, len(b))
	for _, s := range b {
		setB[s] = true
	}

	diff := 0
	for s := range setA {
		if !setB[s] {
			diff++
		}
	}
	for s := range setB {
		if !setA[s] {
			diff++
		}
	}
	return diff
}
