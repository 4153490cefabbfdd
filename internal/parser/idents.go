package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// IdentifiersInSpan collects the identifiers referenced inside the byte span,
// excluding binding positions (declared names, parameters, destructuring
// patterns) and anything that only names an object property. Member-access
// property names and object-literal keys parse as property_identifier nodes
// and are excluded by construction.
func (p *Parser) IdentifiersInSpan(path string, content []byte, span Span) (map[string]bool, error) {
	idents := make(map[string]bool)
	err := p.WithTree(path, content, func(root *sitter.Node) error {
		walkNodes(root, func(n *sitter.Node) {
			ns := Span{Start: int(n.StartByte()), End: int(n.EndByte())}
			if !span.Contains(ns) {
				return
			}
			switch n.Kind() {
			case "identifier", "shorthand_property_identifier":
				if isBindingPosition(n) {
					return
				}
				idents[string(content[ns.Start:ns.End])] = true
			case "type_identifier":
				if isNameField(n) {
					return
				}
				idents[string(content[ns.Start:ns.End])] = true
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idents, nil
}

// TypeRefsInSpan collects identifiers occurring in type positions (type
// annotations, extends clauses, type arguments) inside the byte span.
func (p *Parser) TypeRefsInSpan(path string, content []byte, span Span) ([]string, error) {
	seen := make(map[string]bool)
	var refs []string
	err := p.WithTree(path, content, func(root *sitter.Node) error {
		walkNodes(root, func(n *sitter.Node) {
			if n.Kind() != "type_identifier" {
				return
			}
			ns := Span{Start: int(n.StartByte()), End: int(n.EndByte())}
			if !span.Contains(ns) || isNameField(n) {
				return
			}
			name := string(content[ns.Start:ns.End])
			if !seen[name] {
				seen[name] = true
				refs = append(refs, name)
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// isNameField reports whether the node is the declared name of its parent.
func isNameField(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	name := parent.ChildByFieldName("name")
	return name != nil && name.StartByte() == n.StartByte() && name.EndByte() == n.EndByte()
}

// isBindingPosition reports whether an identifier introduces a binding rather
// than referencing one.
func isBindingPosition(n *sitter.Node) bool {
	if isNameField(n) {
		return true
	}
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "formal_parameters", "required_parameter", "optional_parameter",
		"rest_pattern", "array_pattern", "object_pattern", "pair_pattern",
		"import_specifier", "namespace_import", "import_clause":
		return true
	}
	if pattern := parent.ChildByFieldName("pattern"); pattern != nil {
		if pattern.StartByte() == n.StartByte() && pattern.EndByte() == n.EndByte() {
			return true
		}
	}
	return false
}
