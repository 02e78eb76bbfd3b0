package parser

import (
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// GoExtractor maps Go interface type declarations into the same intermediate
// form the Python front-end produces, proving the classifier is
// parser-agnostic. Go interfaces are structurally checked by the language,
// so RuntimeCheckable is always true; embedded interfaces become bases.
type GoExtractor struct{}

func (e *GoExtractor) Extract(root *sitter.Node, source []byte, result *FileResult) {
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child.Kind() != "type_declaration" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			spec := child.Child(j)
			if spec.Kind() == "type_spec" {
				e.extractTypeSpec(spec, source, result)
			}
		}
	}
}

func (e *GoExtractor) extractTypeSpec(node *sitter.Node, source []byte, result *FileResult) {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil || typeNode.Kind() != "interface_type" {
		return
	}

	name := e.text(nameNode, source)
	if name == "" || !unicode.IsUpper(rune(name[0])) {
		return
	}

	iface := Interface{
		Name:             name,
		RuntimeCheckable: true,
		Docstring:        e.precedingComment(node, source),
		Location: Location{
			Line:   int(node.StartPosition().Row) + 1,
			Column: int(node.StartPosition().Column) + 1,
		},
	}

	for i := uint(0); i < typeNode.ChildCount(); i++ {
		elem := typeNode.Child(i)
		switch elem.Kind() {
		case "method_elem":
			e.extractMethodElem(elem, source, &iface)
		case "type_elem", "type_identifier", "qualified_type":
			// Embedded interfaces are structural parents.
			base := strings.TrimSpace(e.text(elem, source))
			if base != "" {
				iface.Bases = append(iface.Bases, base)
			}
		}
	}

	result.Interfaces = append(result.Interfaces, iface)
}

// extractMethodElem canonicalizes "Name(a T, b U) (R, error)" into the shared
// "name(arg: Type, ...) -> Return" form so cross-language records hash the
// same way.
func (e *GoExtractor) extractMethodElem(node *sitter.Node, source []byte, iface *Interface) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode, source)

	var args []string
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.ChildCount(); i++ {
			decl := params.Child(i)
			if decl.Kind() != "parameter_declaration" && decl.Kind() != "variadic_parameter_declaration" {
				continue
			}
			args = append(args, e.canonicalParam(decl, source)...)
		}
	}

	returnType := "None"
	if res := node.ChildByFieldName("result"); res != nil {
		returnType = strings.TrimSpace(e.text(res, source))
	}

	iface.Methods = append(iface.Methods, name+"("+strings.Join(args, ", ")+") -> "+returnType)
}

func (e *GoExtractor) canonicalParam(decl *sitter.Node, source []byte) []string {
	typeNode := decl.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}
	typ := e.text(typeNode, source)
	if decl.Kind() == "variadic_parameter_declaration" {
		typ = "..." + typ
	}

	var names []string
	for i := uint(0); i < decl.ChildCount(); i++ {
		child := decl.Child(i)
		if child.Kind() == "identifier" {
			names = append(names, e.text(child, source))
		}
	}
	if len(names) == 0 {
		// Unnamed parameter: the type alone is the contract.
		return []string{"_: " + typ}
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, n+": "+typ)
	}
	return out
}

// precedingComment collects the contiguous comment block directly above a
// declaration, serving as its docstring.
func (e *GoExtractor) precedingComment(node *sitter.Node, source []byte) string {
	decl := node.Parent() // type_spec -> type_declaration
	if decl == nil {
		return ""
	}

	var lines []string
	prev := decl.PrevSibling()
	expected := decl.StartPosition().Row
	for prev != nil && prev.Kind() == "comment" {
		if prev.EndPosition().Row+1 != expected {
			break
		}
		text := strings.TrimSpace(strings.TrimPrefix(e.text(prev, source), "//"))
		lines = append([]string{text}, lines...)
		expected = prev.StartPosition().Row
		prev = prev.PrevSibling()
	}
	return strings.Join(lines, " ")
}

func (e *GoExtractor) text(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
