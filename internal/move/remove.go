package move

import (
	"fmt"
	"log/slog"
	"regexp"

	"relo/internal/parser"
	"relo/internal/shared/observability"
	"relo/internal/workspace"
)

// SourceRemover deletes a declaration from its origin file through a tiered
// fallback chain. The workspace's structural view is not guaranteed to model
// every syntactic shape a file may contain, so removal degrades from
// kind-aware structural deletion to plain statement deletion, to deleting the
// recorded text span, to regex templates, at ever-higher risk, and always
// re-verifies the outcome instead of assuming it.
type SourceRemover struct{}

func NewSourceRemover() *SourceRemover {
	return &SourceRemover{}
}

type removalStrategy struct {
	name  string
	apply func(sym workspace.ResolvedSymbol, origin *workspace.SourceFile) (bool, error)
}

// Remove deletes the declaration, returning which strategy tier finally
// applied. Success requires the final verification scan to come up clean.
func (r *SourceRemover) Remove(sym workspace.ResolvedSymbol, origin *workspace.SourceFile) RemovalResult {
	strategies := []removalStrategy{
		{name: "structured", apply: removeStructured},
		{name: "statement", apply: removeStatement},
		{name: "text-range", apply: removeTextRange},
		{name: "pattern", apply: removePattern},
	}

	tier := ""
	for _, s := range strategies {
		applied, err := s.apply(sym, origin)
		if err != nil {
			slog.Debug("removal strategy failed", "strategy", s.name, "symbol", sym.Name, "error", err)
			continue
		}
		if !applied {
			continue
		}
		tier = s.name
		if !declarationStillPresent(origin, sym.Name) {
			break
		}
	}

	// The moved name must also leave any local export list behind.
	r.stripExportLists(origin, sym.Name)

	if tier == "" || declarationStillPresent(origin, sym.Name) {
		return RemovalResult{
			Success: false,
			Error:   fmt.Sprintf("declaration %q still present in %s after all removal strategies", sym.Name, origin.Path()),
			Tier:    tier,
		}
	}

	observability.RemovalTierTotal.WithLabelValues(tier).Inc()
	return RemovalResult{Success: true, Tier: tier}
}

func (r *SourceRemover) stripExportLists(origin *workspace.SourceFile, name string) {
	ed := newImportEditor(origin)
	for i, exp := range origin.Parsed().Exports {
		if exp.Specifier != "" {
			continue
		}
		if exp.BindsName(name) {
			ed.RemoveExportedName(i, name)
		}
	}
	if ed.Dirty() {
		if err := ed.Apply(); err != nil {
			slog.Debug("failed to strip export list", "symbol", name, "error", err)
		}
	}
}

// removeStructured locates the declaration by name and kind. A variable that
// shares its statement with other declarators loses only its declarator.
func removeStructured(sym workspace.ResolvedSymbol, origin *workspace.SourceFile) (bool, error) {
	d := origin.Parsed().Decl(sym.Name, sym.Kind)
	if d == nil {
		return false, nil
	}
	if d.Kind == parser.KindVariable && d.DeclaratorCount > 1 {
		return true, origin.RemoveRange(widenDeclarator(origin.Text(), d.DeclSpan))
	}
	return true, origin.RemoveRange(expandStatement(origin.Text(), d.Span))
}

// removeStatement drops kind matching and excises whatever statement declares
// the name.
func removeStatement(sym workspace.ResolvedSymbol, origin *workspace.SourceFile) (bool, error) {
	d := origin.Parsed().DeclByName(sym.Name)
	if d == nil {
		return false, nil
	}
	return true, origin.RemoveRange(expandStatement(origin.Text(), d.Span))
}

// removeTextRange deletes the source-text span recorded when the symbol was
// resolved, provided the buffer still looks like it holds the declaration
// there.
func removeTextRange(sym workspace.ResolvedSymbol, origin *workspace.SourceFile) (bool, error) {
	span := sym.Decl.Span
	text := origin.Text()
	if span.Start < 0 || span.End > len(text) || span.Start >= span.End {
		return false, nil
	}
	if !wholeWord(text[span.Start:span.End], sym.Name) {
		return false, nil
	}
	return true, origin.RemoveRange(expandStatement(text, span))
}

// removePattern matches a kind-specific declaration template anchored on the
// name and deletes the first match.
func removePattern(sym workspace.ResolvedSymbol, origin *workspace.SourceFile) (bool, error) {
	text := origin.Text()
	re := declarationPattern(sym.Kind, sym.Name)
	loc := re.FindStringIndex(text)
	if loc == nil {
		return false, nil
	}

	end := loc[1]
	switch sym.Kind {
	case parser.KindFunction, parser.KindClass, parser.KindInterface, parser.KindEnum:
		end = matchBraces(text, loc[1])
	default:
		end = scanToStatementEnd(text, loc[1])
	}
	if end <= loc[0] {
		return false, nil
	}
	return true, origin.RemoveRange(expandStatement(text, parser.Span{Start: loc[0], End: end}))
}

func declarationPattern(kind parser.DeclKind, name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	var body string
	switch kind {
	case parser.KindFunction:
		body = `(export\s+)?(default\s+)?(async\s+)?function\s*\*?\s*` + q + `\b`
	case parser.KindClass:
		body = `(export\s+)?(default\s+)?(abstract\s+)?class\s+` + q + `\b`
	case parser.KindInterface:
		body = `(export\s+)?interface\s+` + q + `\b`
	case parser.KindTypeAlias:
		body = `(export\s+)?type\s+` + q + `\b`
	case parser.KindEnum:
		body = `(export\s+)?(const\s+)?enum\s+` + q + `\b`
	default:
		body = `(export\s+)?(const|let|var)\s+` + q + `\b`
	}
	return regexp.MustCompile(`(?m)^[ \t]*` + body)
}

// matchBraces returns the offset just past the brace block opening at or
// after from.
func matchBraces(text string, from int) int {
	depth := 0
	opened := false
	for i := from; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
			opened = true
		case '}':
			depth--
			if opened && depth == 0 {
				return i + 1
			}
		}
	}
	return from
}

func scanToStatementEnd(text string, from int) int {
	depth := 0
	for i := from; i < len(text); i++ {
		switch text[i] {
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		case ';':
			if depth <= 0 {
				return i + 1
			}
		case '\n':
			if depth <= 0 {
				return i
			}
		}
	}
	return len(text)
}

// expandStatement widens a span to absorb leading line indentation and
// trailing punctuation plus the line break.
func expandStatement(text string, span parser.Span) parser.Span {
	start := span.Start
	for start > 0 && (text[start-1] == ' ' || text[start-1] == '\t') {
		start--
	}
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
	return parser.Span{Start: start, End: end}
}

// widenDeclarator removes a declarator together with the comma separating it
// from its neighbours.
func widenDeclarator(text string, span parser.Span) parser.Span {
	end := span.End
	i := end
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if i < len(text) && text[i] == ',' {
		end = i + 1
		for end < len(text) && text[end] == ' ' {
			end++
		}
		return parser.Span{Start: span.Start, End: end}
	}
	start := span.Start
	j := start
	for j > 0 && (text[j-1] == ' ' || text[j-1] == '\t') {
		j--
	}
	if j > 0 && text[j-1] == ',' {
		start = j - 1
	}
	return parser.Span{Start: start, End: span.End}
}

// declarationStillPresent re-scans the final text for any declaration-shaped
// occurrence of the name, structurally first and then by shape templates.
func declarationStillPresent(f *workspace.SourceFile, name string) bool {
	if f.Parsed().DeclByName(name) != nil {
		return true
	}
	text := f.Text()
	q := regexp.QuoteMeta(name)
	shapes := []string{
		`\bfunction\s*\*?\s*` + q + `\b`,
		`\bclass\s+` + q + `\b`,
		`\binterface\s+` + q + `\b`,
		`\btype\s+` + q + `\s*[=<]`,
		`\benum\s+` + q + `\b`,
		`\b(?:const|let|var)\s+` + q + `\s*[=:;,]`,
	}
	for _, shape := range shapes {
		if regexp.MustCompile(shape).MatchString(text) {
			return true
		}
	}
	return false
}

// stillExportsName reports whether a local export list still names the symbol.
func stillExportsName(f *workspace.SourceFile, name string) bool {
	for _, exp := range f.Parsed().Exports {
		if exp.Specifier == "" && exp.BindsName(name) {
			return true
		}
	}
	return false
}
