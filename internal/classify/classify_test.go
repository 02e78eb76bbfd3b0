package classify

import (
	"testing"

	"protoscan/internal/config"
	"protoscan/internal/parser"
)

func newTestClassifier() *Classifier {
	cfg := config.Default()
	return NewClassifier(cfg.Classify, cfg.Extract)
}

func TestShapeTotality(t *testing.T) {
	// Every (methods, properties, bases) combination maps to exactly one
	// shape; unknown is never produced here.
	cases := []struct {
		methods, properties, bases bool
		want                       Shape
	}{
		{false, false, false, ShapeMarker},
		{false, false, true, ShapeMarker},
		{false, true, false, ShapeDataOnly},
		{false, true, true, ShapeDataOnly},
		{true, false, false, ShapeFunctional},
		{true, false, true, ShapeMixin},
		{true, true, false, ShapeFunctional},
		{true, true, true, ShapeFunctional},
	}

	for _, tc := range cases {
		got := InferShape(tc.methods, tc.properties, tc.bases)
		if got != tc.want {
			t.Errorf("InferShape(%v, %v, %v) = %s, want %s",
				tc.methods, tc.properties, tc.bases, got, tc.want)
		}
		if got == ShapeUnknown {
			t.Errorf("shape classifier must never return unknown")
		}
	}
}

func TestDomainPriorityChain(t *testing.T) {
	c := newTestClassifier()

	t.Run("path wins over name and docstring", func(t *testing.T) {
		rec := c.Classify(parser.Interface{
			Name:      "ProtocolMemoryStore",
			FilePath:  "src/workflow_orchestration/store.py",
			Docstring: "Handles memory records.",
		})
		if rec.Domain != "workflow" {
			t.Errorf("expected workflow from path, got %s", rec.Domain)
		}
	})

	t.Run("name wins over docstring", func(t *testing.T) {
		rec := c.Classify(parser.Interface{
			Name:      "ProtocolEventEmitter",
			FilePath:  "src/misc/emitter.py",
			Docstring: "Writes to memory.",
		})
		if rec.Domain != "events" {
			t.Errorf("expected events from name, got %s", rec.Domain)
		}
	})

	t.Run("docstring as last resort", func(t *testing.T) {
		rec := c.Classify(parser.Interface{
			Name:      "ProtocolThing",
			FilePath:  "src/misc/thing.py",
			Docstring: "Persists entries into memory buffers.",
		})
		if rec.Domain != "memory" {
			t.Errorf("expected memory from docstring, got %s", rec.Domain)
		}
	})

	t.Run("unknown fallback", func(t *testing.T) {
		rec := c.Classify(parser.Interface{
			Name:     "ProtocolThing",
			FilePath: "src/misc/thing.py",
		})
		if rec.Domain != DomainUnknown {
			t.Errorf("expected unknown, got %s", rec.Domain)
		}
	})

	t.Run("path matches whole segments only", func(t *testing.T) {
		rec := c.Classify(parser.Interface{
			Name:     "ProtocolThing",
			FilePath: "src/scoreboard/thing.py",
		})
		if rec.Domain == "core" {
			t.Error("\"core\" must not match inside \"scoreboard\"")
		}
	})
}

func TestSignatureHashDeterminism(t *testing.T) {
	c := newTestClassifier()

	iface := parser.Interface{
		Name:       "ProtocolWidget",
		FilePath:   "src/memory/widget.py",
		Methods:    []string{"async get(id: str) -> Widget", "put(w: Widget) -> None"},
		Properties: []string{"name: str", "size: int"},
		Bases:      []string{"ProtocolBase"},
		Docstring:  "Protocol for widget access.",
	}

	first := c.Classify(iface)
	second := c.Classify(iface)
	if first.SignatureHash != second.SignatureHash {
		t.Errorf("hash not deterministic: %s vs %s", first.SignatureHash, second.SignatureHash)
	}
	if len(first.SignatureHash) != 16 {
		t.Errorf("expected 16 hex chars, got %q", first.SignatureHash)
	}
}

func TestSignatureHashIgnoresMemberOrder(t *testing.T) {
	c := newTestClassifier()

	a := parser.Interface{
		Name:       "ProtocolWidget",
		FilePath:   "src/memory/widget.py",
		Methods:    []string{"get(id: str) -> Widget", "put(w: Widget) -> None"},
		Properties: []string{"name: str", "size: int"},
	}
	b := a
	b.Methods = []string{"put(w: Widget) -> None", "get(id: str) -> Widget"}
	b.Properties = []string{"size: int", "name: str"}

	if c.Classify(a).SignatureHash != c.Classify(b).SignatureHash {
		t.Error("reordering methods or properties must not change the hash")
	}
}

func TestSignatureHashSensitivity(t *testing.T) {
	c := newTestClassifier()

	base := parser.Interface{
		Name:     "ProtocolWidget",
		FilePath: "src/memory/widget.py",
		Methods:  []string{"get(id: str) -> Widget"},
	}
	baseHash := c.Classify(base).SignatureHash

	t.Run("method change", func(t *testing.T) {
		changed := base
		changed.Methods = []string{"get(id: int) -> Widget"}
		if c.Classify(changed).SignatureHash == baseHash {
			t.Error("changing a signature must change the hash")
		}
	})

	t.Run("domain change", func(t *testing.T) {
		changed := base
		changed.FilePath = "src/event_bus/widget.py"
		if c.Classify(changed).SignatureHash == baseHash {
			t.Error("domain participates in the hash")
		}
	})
}

func TestDocstringBoilerplateStripping(t *testing.T) {
	c := newTestClassifier()

	a := parser.Interface{
		Name:      "ProtocolWidget",
		FilePath:  "src/memory/widget.py",
		Methods:   []string{"get(id: str) -> Widget"},
		Docstring: "Protocol for widget   access.",
	}
	b := a
	b.Docstring = "widget access."

	if c.Classify(a).SignatureHash != c.Classify(b).SignatureHash {
		t.Error("boilerplate and whitespace must not affect the docstring hash")
	}
}

func TestClassifyAlwaysPopulates(t *testing.T) {
	c := newTestClassifier()
	rec := c.Classify(parser.Interface{Name: "ProtocolX"})
	if rec.Domain == "" {
		t.Error("domain must never be empty")
	}
	if rec.Shape == "" {
		t.Error("shape must never be empty")
	}
}
