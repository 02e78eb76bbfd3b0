package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"protoscan/internal/config"
)

// Extractor turns a parsed syntax tree into interface declarations. Each
// language front-end implements this; the downstream classifier never sees
// anything language specific.
type Extractor interface {
	Extract(root *sitter.Node, source []byte, result *FileResult)
}

// Fallback is the degraded-mode path used when the primary parse reports
// syntax errors. It is keyword/substring based and lower fidelity than the
// tree walk; results are flagged so reports can say so.
type Fallback interface {
	ExtractDegraded(source []byte, result *FileResult)
}

type Parser struct {
	loader     *GrammarLoader
	extractors map[string]Extractor
	fallbacks  map[string]Fallback
	extract    config.Extract
	root       string
}

func NewParser(loader *GrammarLoader, extract config.Extract, root string) *Parser {
	return &Parser{
		loader:     loader,
		extractors: make(map[string]Extractor),
		fallbacks:  make(map[string]Fallback),
		extract:    extract,
		root:       root,
	}
}

func (p *Parser) RegisterExtractor(lang string, e Extractor) {
	p.extractors[lang] = e
}

func (p *Parser) RegisterFallback(lang string, f Fallback) {
	p.fallbacks[lang] = f
}

// QuickSkip reports whether a file can be discarded without a parse because
// its raw text never mentions the marker type. Misses marker types imported
// under an alias; that gap is inherited from the tool this replaces.
func (p *Parser) QuickSkip(path string, content []byte) bool {
	if !p.extract.QuickSkipEnabled() {
		return false
	}
	switch p.detectLanguage(path) {
	case "python":
		return !bytes.Contains(content, []byte(p.extract.MarkerType))
	case "go":
		return !bytes.Contains(content, []byte("interface"))
	}
	return true
}

func (p *Parser) ParseFile(path string, content []byte) (*FileResult, error) {
	lang := p.detectLanguage(path)
	if lang == "" {
		return nil, errors.New("unsupported language")
	}

	result := &FileResult{
		Path:     path,
		Language: lang,
		ParsedAt: time.Now(),
	}

	if p.QuickSkip(path, content) {
		result.Skipped = true
		return result, nil
	}

	grammar := p.loader.Language(lang)
	if grammar == nil {
		return nil, fmt.Errorf("grammar not loaded: %s", lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.New("parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()

	if root.HasError() {
		result.Errors = append(result.Errors, fmt.Sprintf("syntax error in %s", path))
		if fb := p.fallbacks[lang]; fb != nil {
			result.Degraded = true
			fb.ExtractDegraded(content, result)
			p.stampInterfaces(result)
		}
		return result, nil
	}

	extractor := p.extractors[lang]
	if extractor == nil {
		return nil, fmt.Errorf("no extractor for: %s", lang)
	}

	extractor.Extract(root, content, result)
	p.stampInterfaces(result)
	return result, nil
}

func (p *Parser) stampInterfaces(result *FileResult) {
	module := p.modulePath(result.Path, result.Language)
	for i := range result.Interfaces {
		result.Interfaces[i].FilePath = result.Path
		result.Interfaces[i].ModulePath = module
		result.Interfaces[i].Language = result.Language
		if result.Interfaces[i].Location.File == "" {
			result.Interfaces[i].Location.File = result.Path
		}
	}
}

// modulePath derives a dotted (python) or slash (go) module path from the
// file's position relative to the scan root.
func (p *Parser) modulePath(path, lang string) string {
	rel := path
	if p.root != "" {
		if r, err := filepath.Rel(p.root, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))

	if lang == "python" {
		rel = strings.TrimSuffix(rel, "/__init__")
		return strings.ReplaceAll(rel, "/", ".")
	}
	return filepath.ToSlash(filepath.Dir(rel))
}

func (p *Parser) detectLanguage(path string) string {
	switch filepath.Ext(path) {
	case ".py":
		return "python"
	case ".go":
		return "go"
	default:
		return ""
	}
}
