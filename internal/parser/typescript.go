package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// tsExtractor extracts the module-level surface of a TypeScript/TSX/JavaScript
// file: import statements, export statements and top-level declarations, each
// with its byte span. Nested declarations are deliberately ignored; only
// top-level constructs are candidates for relocation.
type tsExtractor struct {
	language string
}

func (e *tsExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:     filePath,
		Language: e.language,
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	for i := uint(0); i < root.ChildCount(); i++ {
		node := root.Child(i)
		switch node.Kind() {
		case "import_statement":
			e.extractImport(ctx, node)
		case "export_statement":
			e.extractExport(ctx, node)
		default:
			e.extractDeclaration(ctx, node, node, false, false)
		}
	}

	return file, nil
}

func (e *tsExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) {
	src := node.ChildByFieldName("source")
	if src == nil {
		src = ctx.ChildOfKind(node, "string")
	}
	if src == nil {
		return
	}
	raw := ctx.Text(src)

	imp := ImportDecl{
		Specifier: trimQuoted(raw),
		Quote:     quoteOf(raw),
		Span:      ctx.Span(node),
		Location:  ctx.Location(node),
	}

	clause := ctx.ChildOfKind(node, "import_clause")

	// Statement-level `import type ...`. The keyword sits either directly on
	// the statement or as the first token of the clause, depending on grammar
	// version.
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "import_clause" {
			break
		}
		if child.Kind() == "type" {
			imp.TypeOnly = true
		}
	}
	if !imp.TypeOnly && clause != nil && clause.ChildCount() > 0 && clause.Child(0).Kind() == "type" {
		imp.TypeOnly = true
	}

	if clause != nil {
		for i := uint(0); i < clause.ChildCount(); i++ {
			child := clause.Child(i)
			switch child.Kind() {
			case "identifier":
				imp.DefaultName = ctx.Text(child)
			case "namespace_import":
				if id := lastIdentifier(ctx, child); id != "" {
					imp.NamespaceAlias = id
				}
			case "named_imports":
				imp.Names = append(imp.Names, e.extractSpecifiers(ctx, child, "import_specifier")...)
			}
		}
	}

	ctx.File.Imports = append(ctx.File.Imports, imp)
}

func (e *tsExtractor) extractExport(ctx *ExtractionContext, node *sitter.Node) {
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		isDefault := ctx.HasChildOfKind(node, "default")
		e.extractDeclaration(ctx, node, decl, true, isDefault)
		return
	}
	// `export default <expression>;` declares nothing movable.
	if node.ChildByFieldName("value") != nil {
		return
	}

	exp := ExportDecl{
		Span:     ctx.Span(node),
		Location: ctx.Location(node),
		Quote:    '\'',
	}

	if src := node.ChildByFieldName("source"); src != nil {
		raw := ctx.Text(src)
		exp.Specifier = trimQuoted(raw)
		exp.Quote = quoteOf(raw)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "type" {
			exp.TypeOnly = true
		}
	}

	clause := ctx.ChildOfKind(node, "export_clause")
	if ns := ctx.ChildOfKind(node, "namespace_export"); ns != nil {
		exp.NamespaceAlias = lastIdentifier(ctx, ns)
	} else if ctx.HasChildOfKind(node, "*") {
		exp.Wildcard = true
	}
	if clause != nil {
		exp.Names = e.extractSpecifiers(ctx, clause, "export_specifier")
	}

	if clause == nil && exp.Specifier == "" && !exp.Wildcard && exp.NamespaceAlias == "" {
		return
	}

	ctx.File.Exports = append(ctx.File.Exports, exp)
}

func (e *tsExtractor) extractSpecifiers(ctx *ExtractionContext, list *sitter.Node, kind string) []BoundName {
	var names []BoundName
	for i := uint(0); i < list.ChildCount(); i++ {
		spec := list.Child(i)
		if spec.Kind() != kind {
			continue
		}
		name := strings.TrimSpace(ctx.Text(spec.ChildByFieldName("name")))
		if name == "" {
			continue
		}
		bound := BoundName{
			Name:  name,
			Alias: strings.TrimSpace(ctx.Text(spec.ChildByFieldName("alias"))),
		}
		for j := uint(0); j < spec.ChildCount(); j++ {
			if spec.Child(j).Kind() == "type" {
				bound.TypeOnly = true
			}
		}
		names = append(names, bound)
	}
	return names
}

// extractDeclaration records a top-level declaration. stmt is the enclosing
// statement (the export_statement for exported declarations) and node the
// declaration proper.
func (e *tsExtractor) extractDeclaration(ctx *ExtractionContext, stmt, node *sitter.Node, exported, isDefault bool) {
	add := func(name string, kind DeclKind, declSpan Span, count int) {
		if name == "" {
			return
		}
		ctx.File.Decls = append(ctx.File.Decls, Declaration{
			Name:            name,
			Kind:            kind,
			Exported:        exported,
			Default:         isDefault,
			Span:            ctx.Span(stmt),
			DeclSpan:        declSpan,
			DeclaratorCount: count,
			Location:        ctx.Location(node),
		})
	}

	named := func() string {
		return strings.TrimSpace(ctx.Text(node.ChildByFieldName("name")))
	}

	switch node.Kind() {
	case "function_declaration", "generator_function_declaration", "function_signature":
		add(named(), KindFunction, ctx.Span(node), 1)
	case "class_declaration", "abstract_class_declaration":
		add(named(), KindClass, ctx.Span(node), 1)
	case "interface_declaration":
		add(named(), KindInterface, ctx.Span(node), 1)
	case "type_alias_declaration":
		add(named(), KindTypeAlias, ctx.Span(node), 1)
	case "enum_declaration":
		add(named(), KindEnum, ctx.Span(node), 1)
	case "lexical_declaration", "variable_declaration":
		var declarators []*sitter.Node
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child.Kind() == "variable_declarator" {
				declarators = append(declarators, child)
			}
		}
		for _, d := range declarators {
			nameNode := d.ChildByFieldName("name")
			if nameNode == nil || nameNode.Kind() != "identifier" {
				continue // destructuring patterns are not movable by name
			}
			add(ctx.Text(nameNode), KindVariable, ctx.Span(d), len(declarators))
		}
	}
}

func lastIdentifier(ctx *ExtractionContext, node *sitter.Node) string {
	name := ""
	walkNodes(node, func(n *sitter.Node) {
		if n.Kind() == "identifier" || n.Kind() == "module_export_name" {
			name = ctx.Text(n)
		}
	})
	return name
}

func trimQuoted(s string) string {
	if len(s) >= 2 {
		first := s[0]
		if (first == '\'' || first == '"' || first == '`') && s[len(s)-1] == first {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func quoteOf(s string) byte {
	if len(s) > 0 && (s[0] == '\'' || s[0] == '"') {
		return s[0]
	}
	return '\''
}
