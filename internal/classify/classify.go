// Package classify derives the domain tag, structural shape, and signature
// hash for extracted interface declarations. It is a pure function of
// (record, vocabularies): no global state, so two runs over the same source
// tree always produce identical hashes.
package classify

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"protoscan/internal/config"
	"protoscan/internal/parser"
)

type Shape string

const (
	ShapeMarker     Shape = "marker"
	ShapeDataOnly   Shape = "data_only"
	ShapeFunctional Shape = "functional"
	ShapeMixin      Shape = "mixin"
	ShapeUnknown    Shape = "unknown"
)

const DomainUnknown = "unknown"

// Record is a classified interface declaration: the extraction output plus
// the derived fields duplicate detection keys on.
type Record struct {
	parser.Interface

	Domain        string
	Shape         Shape
	SignatureHash string
}

type Classifier struct {
	pathVocab      []config.VocabEntry
	nameVocab      []config.VocabEntry
	docstringVocab []config.VocabEntry
	boilerplate    []string
}

func NewClassifier(classify config.Classify, extract config.Extract) *Classifier {
	return &Classifier{
		pathVocab:      classify.PathDomains,
		nameVocab:      classify.NameDomains,
		docstringVocab: classify.DocstringDomains,
		boilerplate:    extract.DocstringBoilerplate,
	}
}

func (c *Classifier) Classify(iface parser.Interface) Record {
	rec := Record{Interface: iface}
	rec.Domain = c.inferDomain(iface)
	rec.Shape = InferShape(len(iface.Methods) > 0, len(iface.Properties) > 0, len(iface.Bases) > 0)
	rec.SignatureHash = c.signatureHash(rec)
	return rec
}

func (c *Classifier) ClassifyAll(ifaces []parser.Interface) []Record {
	records := make([]Record, 0, len(ifaces))
	for _, iface := range ifaces {
		records = append(records, c.Classify(iface))
	}
	return records
}

// inferDomain resolves the domain tag with path > name > docstring priority.
// Path is the most deliberate signal, names beat free-text docstrings.
func (c *Classifier) inferDomain(iface parser.Interface) string {
	path := strings.ToLower(iface.FilePath)
	for _, entry := range c.pathVocab {
		if containsPathSegment(path, entry.Token) {
			return entry.Domain
		}
	}

	name := strings.ToLower(iface.Name)
	for _, entry := range c.nameVocab {
		if strings.Contains(name, entry.Token) {
			return entry.Domain
		}
	}

	doc := strings.ToLower(iface.Docstring)
	if doc != "" {
		for _, entry := range c.docstringVocab {
			if strings.Contains(doc, entry.Token) {
				return entry.Domain
			}
		}
	}

	return DomainUnknown
}

// containsPathSegment matches whole path segments so "core" does not fire on
// "scoreboard/".
func containsPathSegment(path, token string) bool {
	for _, segment := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		segment = strings.TrimSuffix(segment, ".py")
		segment = strings.TrimSuffix(segment, ".go")
		if segment == token {
			return true
		}
	}
	return false
}

// InferShape is total over its three inputs: every combination maps to
// exactly one shape.
func InferShape(hasMethods, hasProperties, hasBases bool) Shape {
	switch {
	case !hasMethods && !hasProperties:
		return ShapeMarker
	case !hasMethods:
		return ShapeDataOnly
	case hasBases && !hasProperties:
		return ShapeMixin
	default:
		return ShapeFunctional
	}
}

// signatureHash digests the record's observable shape: SHA-256 over the
// ordered concatenation of name, domain, shape, sorted methods, sorted
// properties, sorted bases, and the normalized docstring hash, truncated to
// 16 hex characters. Method and property order in the source never affects
// the hash.
func (c *Classifier) signatureHash(rec Record) string {
	methods := sortedCopy(rec.Methods)
	properties := sortedCopy(rec.Properties)
	bases := sortedCopy(rec.Bases)

	parts := []string{rec.Name, rec.Domain, string(rec.Shape)}
	parts = append(parts, methods...)
	parts = append(parts, properties...)
	parts = append(parts, bases...)
	parts = append(parts, c.docstringHash(rec.Docstring))

	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])[:16]
}

// docstringHash normalizes before digesting so cosmetic rewording of
// boilerplate does not split otherwise identical declarations.
func (c *Classifier) docstringHash(doc string) string {
	normalized := strings.ToLower(doc)
	for _, phrase := range c.boilerplate {
		normalized = strings.ReplaceAll(normalized, phrase, "")
	}
	normalized = strings.Join(strings.Fields(normalized), "")

	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])[:8]
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
