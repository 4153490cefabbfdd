package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultExtensions is the ordered probe list for relative specifiers.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs"}

const DefaultExtension = ".ts"

// PathResolver turns module specifiers into absolute file paths and back.
// Resolution never fails: callers get a best-effort path and treat a
// non-existent result as "no match". Results are cached per (directory,
// specifier) pair; Invalidate must be called after each move so follow-up
// resolutions see created and deleted files.
type PathResolver struct {
	root       string
	exts       []string
	defaultExt string
	exists     func(string) bool

	mu    sync.RWMutex
	cache map[string]string
}

func New(root string, exts []string, defaultExt string) *PathResolver {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	if defaultExt == "" {
		defaultExt = DefaultExtension
	}
	return &PathResolver{
		root:       normalize(root),
		exts:       exts,
		defaultExt: defaultExt,
		exists:     fileExists,
		cache:      make(map[string]string),
	}
}

// IsRelative reports whether a specifier refers to a project file rather than
// a package.
func IsRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") ||
		specifier == "." || specifier == ".."
}

// Resolve resolves a module specifier relative to the importing file. Package
// specifiers are returned unchanged.
func (r *PathResolver) Resolve(fromFile, specifier string) string {
	if !IsRelative(specifier) {
		return specifier
	}

	fromDir := dirOf(normalize(fromFile))
	key := fromDir + "\x00" + specifier

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	resolved := r.resolve(fromDir, specifier)

	r.mu.Lock()
	r.cache[key] = resolved
	r.mu.Unlock()
	return resolved
}

func (r *PathResolver) resolve(fromDir, specifier string) string {
	candidate := normalize(filepath.Join(filepath.FromSlash(fromDir), filepath.FromSlash(specifier)))

	// Specifiers escaping the project root are re-anchored at the root so
	// sandboxed trees resolve inside themselves.
	if !r.within(candidate) {
		trimmed := strings.TrimLeft(specifier, "./")
		candidate = normalize(filepath.Join(filepath.FromSlash(r.root), filepath.FromSlash(trimmed)))
	}

	if r.hasKnownExt(candidate) {
		return candidate
	}
	for _, ext := range r.exts {
		if r.exists(candidate + ext) {
			return candidate + ext
		}
	}
	for _, ext := range r.exts {
		if r.exists(candidate + "/index" + ext) {
			return candidate + "/index" + ext
		}
	}
	return candidate + r.defaultExt
}

// Equal compares two paths ignoring slash style, case and source extension.
func (r *PathResolver) Equal(a, b string) bool {
	return r.comparable(a) == r.comparable(b)
}

func (r *PathResolver) comparable(p string) string {
	p = strings.ToLower(normalize(p))
	for _, ext := range r.exts {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

// Specifier builds the relative module specifier that imports toFile from
// fromFile: slash-separated, extension-free, always dot-prefixed.
func (r *PathResolver) Specifier(fromFile, toFile string) string {
	fromDir := dirOf(normalize(fromFile))
	to := normalize(toFile)

	rel, err := filepath.Rel(filepath.FromSlash(fromDir), filepath.FromSlash(to))
	if err != nil {
		rel = to
	}
	rel = filepath.ToSlash(rel)
	for _, ext := range r.exts {
		if strings.HasSuffix(rel, ext) {
			rel = strings.TrimSuffix(rel, ext)
			break
		}
	}
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

// Invalidate drops cache entries affected by a change to path: entries that
// resolved to it and stale best-effort entries pointing at files that no
// longer exist.
func (r *PathResolver) Invalidate(path string) {
	target := r.comparable(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, resolved := range r.cache {
		if r.comparable(resolved) == target || !r.exists(resolved) {
			delete(r.cache, key)
		}
	}
}

func (r *PathResolver) within(p string) bool {
	return p == r.root || strings.HasPrefix(p, r.root+"/")
}

func (r *PathResolver) hasKnownExt(p string) bool {
	for _, ext := range r.exts {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

func dirOf(p string) string {
	return filepath.ToSlash(filepath.Dir(filepath.FromSlash(p)))
}

func normalize(p string) string {
	if !filepath.IsAbs(filepath.FromSlash(p)) {
		if abs, err := filepath.Abs(filepath.FromSlash(p)); err == nil {
			p = abs
		}
	}
	return filepath.ToSlash(filepath.Clean(filepath.FromSlash(p)))
}

func fileExists(p string) bool {
	info, err := os.Stat(filepath.FromSlash(p))
	return err == nil && !info.IsDir()
}
