package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"protoscan/internal/config"
)

// PythonExtractor locates structural-typing class declarations: a class
// qualifies when it inherits from the marker type and its name matches the
// configured prefix convention. Both conditions are required.
type PythonExtractor struct {
	MarkerType     string
	NamePrefix     string
	CheckDecorator string
}

func NewPythonExtractor(extract config.Extract) *PythonExtractor {
	return &PythonExtractor{
		MarkerType:     extract.MarkerType,
		NamePrefix:     extract.NamePrefix,
		CheckDecorator: extract.RuntimeCheckableDecorator,
	}
}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, result *FileResult) {
	// Only module-level declarations are interface candidates.
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)

		switch child.Kind() {
		case "class_definition":
			e.extractClass(child, nil, source, result)
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def != nil && def.Kind() == "class_definition" {
				e.extractClass(def, child, source, result)
			}
		}
	}
}

func (e *PythonExtractor) extractClass(node, decorated *sitter.Node, source []byte, result *FileResult) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode, source)
	if !strings.HasPrefix(name, e.NamePrefix) {
		return
	}

	bases, inheritsMarker := e.extractBases(node, source)
	if !inheritsMarker {
		return
	}

	iface := Interface{
		Name:             name,
		Bases:            bases,
		RuntimeCheckable: e.hasCheckDecorator(decorated, source),
		Location: Location{
			Line:   int(node.StartPosition().Row) + 1,
			Column: int(node.StartPosition().Column) + 1,
		},
	}

	body := node.ChildByFieldName("body")
	if body != nil {
		iface.Docstring = e.extractDocstring(body, source)
		e.extractMembers(body, source, &iface)
	}

	result.Interfaces = append(result.Interfaces, iface)
}

// extractBases returns the base list with the marker type itself removed,
// plus whether the marker was present at all.
func (e *PythonExtractor) extractBases(node *sitter.Node, source []byte) ([]string, bool) {
	super := node.ChildByFieldName("superclasses")
	if super == nil {
		return nil, false
	}

	var bases []string
	inheritsMarker := false
	for i := uint(0); i < super.ChildCount(); i++ {
		arg := super.Child(i)
		switch arg.Kind() {
		case "identifier", "attribute", "subscript":
			text := e.text(arg, source)
			if e.isMarker(text) {
				inheritsMarker = true
				continue
			}
			bases = append(bases, text)
		case "keyword_argument":
			// metaclass=... and friends are not structural parents
		}
	}
	return bases, inheritsMarker
}

func (e *PythonExtractor) isMarker(base string) bool {
	if base == e.MarkerType {
		return true
	}
	if strings.HasSuffix(base, "."+e.MarkerType) {
		return true
	}
	// Parameterized marker, e.g. Protocol[T].
	if idx := strings.IndexByte(base, '['); idx > 0 {
		return e.isMarker(base[:idx])
	}
	return false
}

func (e *PythonExtractor) hasCheckDecorator(decorated *sitter.Node, source []byte) bool {
	if decorated == nil {
		return false
	}
	for i := uint(0); i < decorated.ChildCount(); i++ {
		child := decorated.Child(i)
		if child.Kind() != "decorator" {
			continue
		}
		if strings.Contains(e.text(child, source), e.CheckDecorator) {
			return true
		}
	}
	return false
}

func (e *PythonExtractor) extractDocstring(body *sitter.Node, source []byte) string {
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != "string" {
		return ""
	}
	return stripStringQuotes(e.text(str, source))
}

func (e *PythonExtractor) extractMembers(body *sitter.Node, source []byte, iface *Interface) {
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)

		switch child.Kind() {
		case "function_definition":
			e.extractMethod(child, source, iface)
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def != nil && def.Kind() == "function_definition" {
				e.extractMethod(def, source, iface)
			}
		case "expression_statement":
			e.extractProperty(child, source, iface)
		}
	}
}

func (e *PythonExtractor) extractMethod(node *sitter.Node, source []byte, iface *Interface) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode, source)

	isAsync := false
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "async" {
			isAsync = true
			break
		}
	}

	args := e.canonicalParams(node.ChildByFieldName("parameters"), source)

	returnType := "None"
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		returnType = e.text(ret, source)
	}

	sig := name + "(" + strings.Join(args, ", ") + ") -> " + returnType
	if isAsync {
		sig = "async " + sig
	}
	iface.Methods = append(iface.Methods, sig)
}

// canonicalParams renders each parameter as "name: Type" ("Any" when no
// annotation is present) with the receiver parameter dropped.
func (e *PythonExtractor) canonicalParams(params *sitter.Node, source []byte) []string {
	if params == nil {
		return nil
	}

	var args []string
	first := true
	for i := uint(0); i < params.ChildCount(); i++ {
		param := params.Child(i)

		var name, typ string
		switch param.Kind() {
		case "identifier":
			name = e.text(param, source)
			typ = "Any"
		case "typed_parameter":
			inner := param.NamedChild(0)
			if inner != nil {
				name = e.text(inner, source)
			}
			if t := param.ChildByFieldName("type"); t != nil {
				typ = e.text(t, source)
			}
		case "default_parameter":
			if n := param.ChildByFieldName("name"); n != nil {
				name = e.text(n, source)
			}
			typ = "Any"
		case "typed_default_parameter":
			if n := param.ChildByFieldName("name"); n != nil {
				name = e.text(n, source)
			}
			if t := param.ChildByFieldName("type"); t != nil {
				typ = e.text(t, source)
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			name = e.text(param, source)
			typ = "Any"
		default:
			continue
		}

		if name == "" {
			continue
		}
		if first {
			first = false
			if name == "self" || name == "cls" {
				continue
			}
		}
		if typ == "" {
			typ = "Any"
		}
		args = append(args, name+": "+typ)
	}
	return args
}

func (e *PythonExtractor) extractProperty(node *sitter.Node, source []byte, iface *Interface) {
	assign := node.NamedChild(0)
	if assign == nil || assign.Kind() != "assignment" {
		return
	}
	typ := assign.ChildByFieldName("type")
	if typ == nil {
		// Unannotated class attributes are not data-contract members.
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	iface.Properties = append(iface.Properties, e.text(left, source)+": "+e.text(typ, source))
}

func (e *PythonExtractor) text(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func stripStringQuotes(s string) string {
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return strings.TrimSpace(s)
}
