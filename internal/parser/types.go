package parser

import (
	"time"
)

// Interface is one parsed interface declaration: the language-independent
// intermediate form the classifier and detector operate on. Methods and
// properties are ordered sequences of canonical signature strings; ordering
// is preserved from the source so hashing can sort deterministically.
type Interface struct {
	Name             string
	FilePath         string
	ModulePath       string
	Methods          []string // "name(arg: Type, ...) -> Return", async-prefixed
	Properties       []string // "name: Type"
	Bases            []string // parent structural types, marker type excluded
	RuntimeCheckable bool
	Docstring        string
	Language         string
	Location         Location
}

// FileResult is the extraction outcome for a single file. A file that fails
// to parse contributes an (otherwise empty) result whose Errors list records
// what went wrong; it never aborts the run.
type FileResult struct {
	Path       string
	Language   string
	Interfaces []Interface
	Errors     []string
	Skipped    bool // quick-skip heuristic fired, no parse attempted
	Degraded   bool // fallback text extraction used
	ParsedAt   time.Time
}

type Location struct {
	File   string
	Line   int
	Column int
}
