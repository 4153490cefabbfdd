package move

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"

	"relo/internal/graph"
	"relo/internal/parser"
	"relo/internal/resolver"
	"relo/internal/shared/observability"
	"relo/internal/workspace"
)

var defaultBarrelNames = []string{"index.ts", "index.tsx", "index.js", "index.jsx", "mod.ts"}

// ImportRewriter re-points every consumer of a moved symbol at its new
// location and completes the destination file's own imports.
type ImportRewriter struct {
	project     *workspace.Project
	resolver    *resolver.PathResolver
	index       *graph.Index
	barrelNames []string
}

func NewImportRewriter(project *workspace.Project, r *resolver.PathResolver, ix *graph.Index, barrelNames []string) *ImportRewriter {
	if len(barrelNames) == 0 {
		barrelNames = defaultBarrelNames
	}
	return &ImportRewriter{project: project, resolver: r, index: ix, barrelNames: barrelNames}
}

// UpdateImportsAfterMove rewrites import and export-from declarations across
// the project so symbol binds from newPath instead of oldPath. Each file is
// attempted independently; failures surface as warnings, never aborts.
func (rw *ImportRewriter) UpdateImportsAfterMove(symbol, oldPath, newPath string) (updated []string, warnings []string) {
	oldPath = workspace.Normalize(oldPath)
	newPath = workspace.Normalize(newPath)

	consumers := make(map[string]bool)
	for _, p := range rw.index.Importers(oldPath) {
		consumers[p] = true
	}
	for _, p := range rw.index.ReExporters(oldPath) {
		consumers[p] = true
	}

	// Structural discovery can come up empty when the moved file was never
	// registered as referenced; fall back to a scoped textual scan near the
	// two ends of the move.
	if len(consumers) == 0 {
		near := []string{dirOf(oldPath), dirOf(newPath)}
		for _, p := range rw.index.FallbackScan(symbol, near) {
			consumers[p] = true
		}
	}

	paths := make([]string, 0, len(consumers))
	for p := range consumers {
		if rw.resolver.Equal(p, oldPath) || rw.resolver.Equal(p, newPath) {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		changed, err := rw.rewriteFile(path, symbol, oldPath, newPath)
		if err != nil {
			observability.RewriteFailuresTotal.Inc()
			warnings = append(warnings, fmt.Sprintf("update references in %s: %v", path, err))
			continue
		}
		if changed {
			updated = append(updated, path)
		}
	}
	return updated, warnings
}

func (rw *ImportRewriter) rewriteFile(path, symbol, oldPath, newPath string) (bool, error) {
	f := rw.project.GetFile(path)
	if f == nil {
		loaded, err := rw.project.LoadFile(path)
		if err != nil {
			return false, err
		}
		f = loaded
	}

	newSpec := rw.resolver.Specifier(path, newPath)
	ed := newImportEditor(f)
	parsed := f.Parsed()

	for i, imp := range parsed.Imports {
		if !resolver.IsRelative(imp.Specifier) {
			continue
		}
		if !rw.resolver.Equal(rw.resolver.Resolve(path, imp.Specifier), oldPath) {
			continue
		}
		switch {
		case imp.NamespaceAlias != "":
			// A namespace import is implicated only when the body actually
			// reaches the moved symbol through the alias.
			if usesNamespaceMember(f.Text(), imp.NamespaceAlias, symbol) {
				ed.ReplaceModuleImport(i, newSpec)
			}
		case namedBinding(imp, symbol):
			ed.DetachNamed(i, symbol, newSpec)
		case imp.DefaultName == symbol:
			ed.ReplaceModuleImport(i, newSpec)
		}
	}

	for i, exp := range parsed.Exports {
		if exp.Specifier == "" || !resolver.IsRelative(exp.Specifier) {
			continue
		}
		if !rw.resolver.Equal(rw.resolver.Resolve(path, exp.Specifier), oldPath) {
			continue
		}
		switch {
		case exp.BindsName(symbol):
			ed.DetachExportedName(i, symbol, newSpec)
		case exp.Wildcard:
			// The wildcard keeps re-exporting whatever is left at the old
			// location; the moved symbol needs its own re-export now.
			ed.AddReExport(newSpec, symbol, exp.TypeOnly, exp.Quote)
		case exp.NamespaceAlias != "":
			slog.Debug("namespace re-export left untouched", "path", path, "symbol", symbol)
		}
	}

	if !ed.Dirty() {
		return false, nil
	}
	return true, ed.Apply()
}

// CompleteDestination adds the imports the moved declaration needs into the
// target file, filtering self-imports through the path resolver and names the
// destination already binds.
func (rw *ImportRewriter) CompleteDestination(target *workspace.SourceFile, closure DependencyClosure) error {
	bound := boundNames(target.Parsed())

	ed := newImportEditor(target)
	for _, req := range closure.RequiredImports {
		spec := req.Specifier
		if req.Synthesized || (req.ResolvedPath != "" && resolver.IsRelative(req.Specifier)) || spec == "" {
			if rw.resolver.Equal(req.ResolvedPath, target.Path()) {
				continue // never import the destination from itself
			}
			spec = rw.resolver.Specifier(target.Path(), req.ResolvedPath)
		}

		add := req.ImportDecl
		add.Specifier = spec
		add.Span = parser.Span{}
		if add.Quote == 0 {
			add.Quote = '\''
		}

		var names []parser.BoundName
		for _, n := range add.Names {
			if !bound[n.Local()] {
				names = append(names, n)
				bound[n.Local()] = true
			}
		}
		add.Names = names
		if add.DefaultName != "" && bound[add.DefaultName] {
			add.DefaultName = ""
		} else if add.DefaultName != "" {
			bound[add.DefaultName] = true
		}
		if add.NamespaceAlias != "" && bound[add.NamespaceAlias] {
			add.NamespaceAlias = ""
		} else if add.NamespaceAlias != "" {
			bound[add.NamespaceAlias] = true
		}

		if len(add.Names) == 0 && add.DefaultName == "" && add.NamespaceAlias == "" {
			continue
		}
		ed.AddImport(add)
	}

	if !ed.Dirty() {
		return nil
	}
	return ed.Apply()
}

// RestoreOriginBinding keeps the origin file consistent after a non-copy
// removal. A barrel origin gets a re-export so its public API path survives; a
// non-barrel origin that still textually references the symbol gets an
// ordinary import.
func (rw *ImportRewriter) RestoreOriginBinding(origin *workspace.SourceFile, symbol, newPath string) (bool, error) {
	newSpec := rw.resolver.Specifier(origin.Path(), newPath)
	ed := newImportEditor(origin)

	if rw.IsBarrel(origin) {
		ed.AddReExport(newSpec, symbol, false, '\'')
		return true, ed.Apply()
	}
	if wholeWord(origin.Text(), symbol) {
		ed.AddNamedImport(newSpec, symbol, false, '\'')
		return true, ed.Apply()
	}
	return false, nil
}

// IsBarrel reports whether a file is a pure re-export aggregator: named like a
// barrel entry point, or dominated by re-export declarations.
func (rw *ImportRewriter) IsBarrel(f *workspace.SourceFile) bool {
	base := filepath.Base(filepath.FromSlash(f.Path()))
	for _, name := range rw.barrelNames {
		if base == name {
			return true
		}
	}

	parsed := f.Parsed()
	reExports := 0
	for _, exp := range parsed.Exports {
		if exp.Specifier != "" {
			reExports++
		}
	}
	localExported := 0
	for _, d := range parsed.Decls {
		if d.Exported {
			localExported++
		}
	}
	return reExports > 0 && reExports >= 3*localExported
}

func namedBinding(imp parser.ImportDecl, symbol string) bool {
	for _, n := range imp.Names {
		if n.Name == symbol || n.Local() == symbol {
			return true
		}
	}
	return false
}

func usesNamespaceMember(text, alias, symbol string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(alias) + `\s*\.\s*` + regexp.QuoteMeta(symbol) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

func boundNames(f *parser.File) map[string]bool {
	bound := make(map[string]bool)
	for _, imp := range f.Imports {
		for _, n := range imp.Names {
			bound[n.Local()] = true
		}
		if imp.DefaultName != "" {
			bound[imp.DefaultName] = true
		}
		if imp.NamespaceAlias != "" {
			bound[imp.NamespaceAlias] = true
		}
	}
	for _, d := range f.Decls {
		bound[d.Name] = true
	}
	return bound
}

func dirOf(p string) string {
	return filepath.ToSlash(filepath.Dir(filepath.FromSlash(p)))
}
