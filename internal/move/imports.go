package move

import (
	"sort"
	"strings"

	"relo/internal/parser"
	"relo/internal/workspace"
)

// importEditor is a file-scoped batch editor for import/export statements.
// Decisions are recorded against one parse snapshot and serialized in a single
// pass, bottom-up, so statement spans never shift under later edits. This
// replaces interleaving live mutations with re-reads of "current" declarations
// mid-pass.
type importEditor struct {
	file      *workspace.SourceFile
	snapshot  *parser.File
	edits     []pendingEdit
	additions []string
}

type pendingEdit struct {
	span parser.Span
	text string
}

func newImportEditor(f *workspace.SourceFile) *importEditor {
	return &importEditor{file: f, snapshot: f.Parsed()}
}

func (ed *importEditor) Dirty() bool {
	return len(ed.edits) > 0 || len(ed.additions) > 0
}

// RetargetImport rewrites import i against a new module specifier, keeping
// the clause shape intact.
func (ed *importEditor) RetargetImport(i int, newSpec string) {
	d := ed.snapshot.Imports[i]
	d.Specifier = newSpec
	ed.replace(ed.snapshot.Imports[i].Span, renderImport(d))
}

// DetachNamed moves one named binding of import i to a new specifier. When the
// binding is the sole one the whole declaration is retargeted; otherwise the
// binding is removed and a fresh import statement added.
func (ed *importEditor) DetachNamed(i int, symbol, newSpec string) {
	d := ed.snapshot.Imports[i]

	var kept []parser.BoundName
	var moved *parser.BoundName
	for _, n := range d.Names {
		if moved == nil && (n.Name == symbol || n.Local() == symbol) {
			bound := n
			moved = &bound
			continue
		}
		kept = append(kept, n)
	}
	if moved == nil {
		return
	}

	if len(kept) == 0 && d.DefaultName == "" && d.NamespaceAlias == "" {
		ed.RetargetImport(i, newSpec)
		return
	}

	remainder := d
	remainder.Names = kept
	ed.replace(d.Span, renderImport(remainder))

	typeOnly := d.TypeOnly || moved.TypeOnly
	moved.TypeOnly = false
	fresh := parser.ImportDecl{
		Specifier: newSpec,
		Names:     []parser.BoundName{*moved},
		TypeOnly:  typeOnly,
		Quote:     d.Quote,
	}
	ed.additions = append(ed.additions, renderImport(fresh))
}

// ReplaceModuleImport replaces a default or namespace import wholesale with an
// equivalent declaration against the new path, preserving the local alias.
func (ed *importEditor) ReplaceModuleImport(i int, newSpec string) {
	ed.RetargetImport(i, newSpec)
}

// RetargetExport rewrites re-export i against a new module specifier.
func (ed *importEditor) RetargetExport(i int, newSpec string) {
	d := ed.snapshot.Exports[i]
	d.Specifier = newSpec
	ed.replace(ed.snapshot.Exports[i].Span, renderExport(d))
}

// DetachExportedName mirrors DetachNamed for export-from declarations.
func (ed *importEditor) DetachExportedName(i int, symbol, newSpec string) {
	d := ed.snapshot.Exports[i]

	var kept []parser.BoundName
	var moved *parser.BoundName
	for _, n := range d.Names {
		if moved == nil && (n.Name == symbol || n.Local() == symbol) {
			bound := n
			moved = &bound
			continue
		}
		kept = append(kept, n)
	}
	if moved == nil {
		return
	}

	if len(kept) == 0 {
		ed.RetargetExport(i, newSpec)
		return
	}

	remainder := d
	remainder.Names = kept
	ed.replace(d.Span, renderExport(remainder))

	typeOnly := d.TypeOnly || moved.TypeOnly
	moved.TypeOnly = false
	fresh := parser.ExportDecl{
		Specifier: newSpec,
		Names:     []parser.BoundName{*moved},
		TypeOnly:  typeOnly,
		Quote:     d.Quote,
	}
	ed.additions = append(ed.additions, renderExport(fresh))
}

// RemoveExportedName drops one binding from an export list, removing the
// statement when it was the last binding.
func (ed *importEditor) RemoveExportedName(i int, symbol string) {
	d := ed.snapshot.Exports[i]
	var kept []parser.BoundName
	for _, n := range d.Names {
		if n.Name == symbol || n.Local() == symbol {
			continue
		}
		kept = append(kept, n)
	}
	if len(kept) == len(d.Names) {
		return
	}
	if len(kept) == 0 {
		ed.remove(d.Span)
		return
	}
	remainder := d
	remainder.Names = kept
	ed.replace(d.Span, renderExport(remainder))
}

func (ed *importEditor) AddImport(d parser.ImportDecl) {
	ed.additions = append(ed.additions, renderImport(d))
}

func (ed *importEditor) AddNamedImport(spec, name string, typeOnly bool, quote byte) {
	ed.AddImport(parser.ImportDecl{
		Specifier: spec,
		Names:     []parser.BoundName{{Name: name}},
		TypeOnly:  typeOnly,
		Quote:     quote,
	})
}

func (ed *importEditor) AddReExport(spec, name string, typeOnly bool, quote byte) {
	ed.additions = append(ed.additions, renderExport(parser.ExportDecl{
		Specifier: spec,
		Names:     []parser.BoundName{{Name: name}},
		TypeOnly:  typeOnly,
		Quote:     quote,
	}))
}

func (ed *importEditor) replace(span parser.Span, text string) {
	ed.edits = append(ed.edits, pendingEdit{span: span, text: text})
}

func (ed *importEditor) remove(span parser.Span) {
	ed.edits = append(ed.edits, pendingEdit{span: span, text: ""})
}

// Apply serializes all recorded decisions into the file: span replacements
// bottom-up first, then additions inserted after the last surviving import.
func (ed *importEditor) Apply() error {
	sort.Slice(ed.edits, func(i, j int) bool { return ed.edits[i].span.Start > ed.edits[j].span.Start })

	for _, e := range ed.edits {
		span := e.span
		if e.text == "" {
			span = expandToLine(ed.file.Text(), span)
		}
		if err := ed.file.ReplaceRange(span, e.text); err != nil {
			return err
		}
	}

	if len(ed.additions) == 0 {
		return nil
	}

	offset := 0
	current := ed.file.Parsed()
	for _, imp := range current.Imports {
		if imp.Span.End > offset {
			offset = imp.Span.End
		}
	}
	block := strings.Join(ed.additions, "\n")
	if offset == 0 {
		block += "\n"
	} else {
		block = "\n" + block
	}
	return ed.file.InsertAt(offset, block)
}

// expandToLine widens a removal span through the trailing newline so deleted
// statements do not leave blank lines behind.
func expandToLine(text string, span parser.Span) parser.Span {
	end := span.End
	for end < len(text) && (text[end] == ' ' || text[end] == '\t' || text[end] == ';') {
		end++
	}
	if end < len(text) && text[end] == '\r' {
		end++
	}
	if end < len(text) && text[end] == '\n' {
		end++
	}
	span.End = end
	return span
}

func renderImport(d parser.ImportDecl) string {
	q := quoteString(d.Quote)
	var clause []string
	if d.DefaultName != "" {
		clause = append(clause, d.DefaultName)
	}
	if d.NamespaceAlias != "" {
		clause = append(clause, "* as "+d.NamespaceAlias)
	}
	if len(d.Names) > 0 {
		clause = append(clause, "{ "+joinBound(d.Names, d.TypeOnly)+" }")
	}
	if len(clause) == 0 {
		return "import " + q + d.Specifier + q + ";"
	}
	kw := "import "
	if d.TypeOnly {
		kw = "import type "
	}
	return kw + strings.Join(clause, ", ") + " from " + q + d.Specifier + q + ";"
}

func renderExport(d parser.ExportDecl) string {
	q := quoteString(d.Quote)
	kw := "export "
	if d.TypeOnly {
		kw = "export type "
	}
	switch {
	case d.Wildcard:
		return kw + "* from " + q + d.Specifier + q + ";"
	case d.NamespaceAlias != "":
		return kw + "* as " + d.NamespaceAlias + " from " + q + d.Specifier + q + ";"
	case d.Specifier != "":
		return kw + "{ " + joinBound(d.Names, d.TypeOnly) + " } from " + q + d.Specifier + q + ";"
	default:
		return kw + "{ " + joinBound(d.Names, d.TypeOnly) + " };"
	}
}

func joinBound(names []parser.BoundName, stmtTypeOnly bool) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		s := n.Name
		if n.TypeOnly && !stmtTypeOnly {
			s = "type " + s
		}
		if n.Alias != "" {
			s += " as " + n.Alias
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func quoteString(q byte) string {
	if q == '"' {
		return `"`
	}
	return "'"
}
