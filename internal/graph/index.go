package graph

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"relo/internal/resolver"
	"relo/internal/shared/observability"
	"relo/internal/workspace"
)

// Index answers "who imports this file" and "who re-exports from this file".
// Edges are derived on demand from each file's import/export records through
// the path resolver and cached by absolute-path string keys; no live file-to-
// file object graph is ever built, so cyclic module references cost nothing.
type Index struct {
	project  *workspace.Project
	resolver *resolver.PathResolver

	mu          sync.RWMutex
	importers   map[string][]string
	reExporters map[string][]string
}

func NewIndex(project *workspace.Project, r *resolver.PathResolver) *Index {
	return &Index{
		project:     project,
		resolver:    r,
		importers:   make(map[string][]string),
		reExporters: make(map[string][]string),
	}
}

// Importers returns the paths of files holding an import declaration whose
// resolved specifier equals target.
func (ix *Index) Importers(target string) []string {
	target = workspace.Normalize(target)

	ix.mu.RLock()
	cached, ok := ix.importers[target]
	ix.mu.RUnlock()
	if ok {
		return append([]string(nil), cached...)
	}

	found := ix.collect(target, false)
	ix.mu.Lock()
	ix.importers[target] = found
	ix.mu.Unlock()
	return append([]string(nil), found...)
}

// ReExporters returns the paths of files holding an export-from declaration
// whose resolved specifier equals target.
func (ix *Index) ReExporters(target string) []string {
	target = workspace.Normalize(target)

	ix.mu.RLock()
	cached, ok := ix.reExporters[target]
	ix.mu.RUnlock()
	if ok {
		return append([]string(nil), cached...)
	}

	found := ix.collect(target, true)
	ix.mu.Lock()
	ix.reExporters[target] = found
	ix.mu.Unlock()
	return append([]string(nil), found...)
}

func (ix *Index) collect(target string, exports bool) []string {
	var found []string
	for _, f := range ix.project.Files() {
		if ix.resolver.Equal(f.Path(), target) {
			continue
		}
		parsed := f.Parsed()
		if exports {
			for _, exp := range parsed.Exports {
				if exp.Specifier == "" || !resolver.IsRelative(exp.Specifier) {
					continue
				}
				if ix.resolver.Equal(ix.resolver.Resolve(f.Path(), exp.Specifier), target) {
					found = append(found, f.Path())
					break
				}
			}
		} else {
			for _, imp := range parsed.Imports {
				if !resolver.IsRelative(imp.Specifier) {
					continue
				}
				if ix.resolver.Equal(ix.resolver.Resolve(f.Path(), imp.Specifier), target) {
					found = append(found, f.Path())
					break
				}
			}
		}
	}
	sort.Strings(found)
	return found
}

// Invalidate drops cached consumer sets for a path. Must be called once per
// move for the old location (and any created file) before the next lookup.
func (ix *Index) Invalidate(path string) {
	path = workspace.Normalize(path)
	ix.mu.Lock()
	delete(ix.importers, path)
	delete(ix.reExporters, path)
	ix.mu.Unlock()
	observability.GraphCacheInvalidations.Inc()
}

// InvalidateAll clears both caches; used after bulk external changes.
func (ix *Index) InvalidateAll() {
	ix.mu.Lock()
	ix.importers = make(map[string][]string)
	ix.reExporters = make(map[string][]string)
	ix.mu.Unlock()
	observability.GraphCacheInvalidations.Inc()
}

// FallbackScan is the textual discovery tier: when structural discovery finds
// no consumers, scan files under the given directories for a whole-word
// occurrence of symbol. Scope is limited deliberately to bound cost.
func (ix *Index) FallbackScan(symbol string, near []string) []string {
	if len(near) == 0 {
		return nil
	}
	dirs := make([]string, 0, len(near))
	for _, d := range near {
		dirs = append(dirs, workspace.Normalize(d))
	}

	word, err := regexp.Compile(`\b` + regexp.QuoteMeta(symbol) + `\b`)
	if err != nil {
		return nil
	}

	var found []string
	for _, f := range ix.project.Files() {
		if !ix.underAny(f.Path(), dirs) {
			continue
		}
		if word.MatchString(f.Text()) {
			found = append(found, f.Path())
		}
	}
	sort.Strings(found)
	return found
}

func (ix *Index) underAny(path string, dirs []string) bool {
	for _, d := range dirs {
		if path == d || strings.HasPrefix(path, d+"/") {
			return true
		}
	}
	return false
}
