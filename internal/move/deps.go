package move

import (
	"regexp"
	"unicode"

	"relo/internal/core/errors"
	"relo/internal/parser"
	"relo/internal/resolver"
	"relo/internal/workspace"
)

// propertyStoplist suppresses false positives for likely object fields when
// dependency scanning has to fall back to whole-word text matching. Capitalized
// identifiers bypass the stoplist since they are heuristically type names.
var propertyStoplist = map[string]bool{
	"name": true, "id": true, "key": true, "type": true, "value": true,
	"data": true, "label": true, "title": true, "kind": true, "index": true,
	"length": true, "size": true, "count": true, "parent": true, "children": true,
	"options": true, "config": true, "message": true, "status": true,
	"path": true, "url": true, "text": true, "body": true, "error": true,
	"result": true, "start": true, "end": true, "default": true,
}

// DependencyExtractor computes the imports and same-file type declarations a
// declaration needs to stay valid in a new location.
type DependencyExtractor struct {
	parser   *parser.Parser
	resolver *resolver.PathResolver
	stoplist map[string]bool
}

func NewDependencyExtractor(p *parser.Parser, r *resolver.PathResolver, extraStoplist []string) *DependencyExtractor {
	stop := make(map[string]bool, len(propertyStoplist)+len(extraStoplist))
	for k := range propertyStoplist {
		stop[k] = true
	}
	for _, s := range extraStoplist {
		stop[s] = true
	}
	return &DependencyExtractor{parser: p, resolver: r, stoplist: stop}
}

// Extract computes the dependency closure for one declaration.
func (e *DependencyExtractor) Extract(sym workspace.ResolvedSymbol, origin *workspace.SourceFile) (DependencyClosure, error) {
	decl := origin.Parsed().Decl(sym.Name, sym.Kind)
	if decl == nil {
		decl = origin.Parsed().DeclByName(sym.Name)
	}
	if decl == nil {
		err := errors.New(errors.CodeSymbolExtraction, "declaration vanished from origin")
		return DependencyClosure{}, errors.AddContext(err, errors.CtxSymbol, sym.Name)
	}

	content := origin.Bytes()
	declText := string(content[decl.Span.Start:decl.Span.End])

	idents, identErr := e.parser.IdentifiersInSpan(origin.Path(), content, decl.Span)
	textual := identErr != nil || len(idents) == 0
	uses := func(name string) bool {
		if !textual {
			return idents[name]
		}
		if e.stoplist[name] && !capitalized(name) {
			return false
		}
		return wholeWord(declText, name)
	}

	// Top-level names declared in the origin file itself. A lexical match
	// beats an import of the same name, so these shadow import bindings.
	local := make(map[string]*parser.Declaration)
	for i := range origin.Parsed().Decls {
		d := &origin.Parsed().Decls[i]
		if d.Name != sym.Name {
			local[d.Name] = d
		}
	}

	var closure DependencyClosure

	for _, imp := range origin.Parsed().Imports {
		req := RequiredImport{ImportDecl: imp}
		req.Names = nil
		used := false
		for _, n := range imp.Names {
			if local[n.Local()] == nil && uses(n.Local()) {
				req.Names = append(req.Names, n)
				used = true
			}
		}
		if imp.DefaultName != "" && local[imp.DefaultName] == nil && uses(imp.DefaultName) {
			used = true
		} else {
			req.DefaultName = ""
		}
		if imp.NamespaceAlias != "" && local[imp.NamespaceAlias] == nil && uses(imp.NamespaceAlias) {
			used = true
		} else {
			req.NamespaceAlias = ""
		}
		if !used {
			continue
		}
		if resolver.IsRelative(imp.Specifier) {
			req.ResolvedPath = e.resolver.Resolve(origin.Path(), imp.Specifier)
		}
		closure.RequiredImports = append(closure.RequiredImports, req)
	}

	// Local value dependencies become an import-like record pointing back at
	// the origin file. Local type dependencies are copied by text instead.
	copied := make(map[string]bool)
	for name, d := range local {
		if !uses(name) {
			continue
		}
		if d.Kind.IsType() || d.Kind == parser.KindEnum {
			// Enums surface in value position too, so catch them here as
			// well as through the type walk below.
			if !copied[name] {
				copied[name] = true
				closure.RelatedLocalTypeTexts = append(closure.RelatedLocalTypeTexts, string(content[d.Span.Start:d.Span.End]))
				closure.RelatedLocalTypeNames = append(closure.RelatedLocalTypeNames, name)
			}
			continue
		}
		closure.RequiredImports = append(closure.RequiredImports, RequiredImport{
			ImportDecl: parser.ImportDecl{
				Names: []parser.BoundName{{Name: name}},
				Quote: '\'',
			},
			ResolvedPath: origin.Path(),
			Synthesized:  true,
		})
	}

	visited := map[string]bool{sym.Name: true}
	for name := range copied {
		visited[name] = true
	}
	e.collectTypeClosure(origin, content, decl.Span, local, sym.Name, &closure, visited)
	for name := range copied {
		e.collectTypeClosure(origin, content, local[name].Span, local, sym.Name, &closure, visited)
	}

	return closure, nil
}

// collectTypeClosure walks type-position references inside span and copies the
// full text of every same-file interface/type-alias/enum they reach,
// transitively. The visited set guards against circular type references.
func (e *DependencyExtractor) collectTypeClosure(origin *workspace.SourceFile, content []byte, span parser.Span,
	local map[string]*parser.Declaration, symbol string, closure *DependencyClosure, visited map[string]bool) {

	refs, err := e.parser.TypeRefsInSpan(origin.Path(), content, span)
	if err != nil {
		return
	}
	for _, ref := range refs {
		if visited[ref] {
			continue
		}
		visited[ref] = true
		d := local[ref]
		if d == nil {
			continue
		}
		if !d.Kind.IsType() && d.Kind != parser.KindEnum {
			continue
		}
		closure.RelatedLocalTypeTexts = append(closure.RelatedLocalTypeTexts, string(content[d.Span.Start:d.Span.End]))
		closure.RelatedLocalTypeNames = append(closure.RelatedLocalTypeNames, d.Name)
		e.collectTypeClosure(origin, content, d.Span, local, symbol, closure, visited)
	}
}

func capitalized(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

func wholeWord(text, name string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}
