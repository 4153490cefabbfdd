package workspace

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"relo/internal/parser"
)

var defaultExcludedDirs = []string{"node_modules", ".git", "dist", "build", "coverage"}

// Project is the in-memory view of one source tree. All mutation happens
// file-by-file through SourceFile; Project owns lookup, loading, creation and
// persistence.
type Project struct {
	root   string
	parser *parser.Parser

	mu    sync.RWMutex
	files map[string]*SourceFile

	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func Open(root string, p *parser.Parser, excludeDirs, excludeFiles []string) (*Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	proj := &Project{
		root:   Normalize(absRoot),
		parser: p,
		files:  make(map[string]*SourceFile),
	}
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		proj.excludeDirs = append(proj.excludeDirs, g)
	}
	for _, pattern := range excludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		proj.excludeFiles = append(proj.excludeFiles, g)
	}

	if err := proj.scan(); err != nil {
		return nil, err
	}
	return proj, nil
}

func (p *Project) Root() string {
	return p.root
}

func (p *Project) scan() error {
	return filepath.WalkDir(filepath.FromSlash(p.root), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != filepath.FromSlash(p.root) && p.excludedDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if p.excludedFile(name) || !p.parser.SupportedFile(path) {
			return nil
		}
		if _, err := p.LoadFile(path); err != nil {
			slog.Warn("skipping unparseable file", "path", path, "error", err)
		}
		return nil
	})
}

func (p *Project) excludedDir(name string) bool {
	for _, d := range defaultExcludedDirs {
		if name == d {
			return true
		}
	}
	for _, g := range p.excludeDirs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (p *Project) excludedFile(name string) bool {
	for _, g := range p.excludeFiles {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// GetFile returns the loaded file or nil.
func (p *Project) GetFile(path string) *SourceFile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.files[Normalize(path)]
}

// LoadFile returns the already-loaded file, or reads it from disk.
func (p *Project) LoadFile(path string) (*SourceFile, error) {
	key := Normalize(path)

	p.mu.RLock()
	existing := p.files[key]
	p.mu.RUnlock()
	if existing != nil {
		return existing, nil
	}

	content, err := os.ReadFile(filepath.FromSlash(key))
	if err != nil {
		return nil, err
	}

	f := &SourceFile{path: key, text: content, parser: p.parser}
	if err := f.reparse(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.files[key] = f
	p.mu.Unlock()
	return f, nil
}

// CreateFile creates the file on disk (with parent directories) and registers
// it in the workspace. The initial text may be empty.
func (p *Project) CreateFile(path, initialText string) (*SourceFile, error) {
	key := Normalize(path)
	osPath := filepath.FromSlash(key)

	if err := os.MkdirAll(filepath.Dir(osPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(osPath, []byte(initialText), 0o644); err != nil {
		return nil, err
	}

	f := &SourceFile{path: key, text: []byte(initialText), parser: p.parser}
	if err := f.reparse(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.files[key] = f
	p.mu.Unlock()
	return f, nil
}

// Save persists one file's current buffer.
func (p *Project) Save(f *SourceFile) error {
	if f == nil {
		return os.ErrInvalid
	}
	if err := os.WriteFile(filepath.FromSlash(f.path), []byte(f.Text()), 0o644); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// SaveDirty persists every file whose buffer differs from disk, one file at a
// time, and returns the saved paths.
func (p *Project) SaveDirty() ([]string, error) {
	var saved []string
	for _, f := range p.Files() {
		if !f.Dirty() {
			continue
		}
		if err := p.Save(f); err != nil {
			return saved, err
		}
		saved = append(saved, f.path)
	}
	sort.Strings(saved)
	return saved, nil
}

// Files returns all loaded files sorted by path.
func (p *Project) Files() []*SourceFile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*SourceFile, 0, len(p.files))
	for _, f := range p.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

func (p *Project) Paths() []string {
	files := p.Files()
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths
}

// Exists reports whether a path is present either in the workspace or on disk.
func (p *Project) Exists(path string) bool {
	if p.GetFile(path) != nil {
		return true
	}
	info, err := os.Stat(filepath.FromSlash(Normalize(path)))
	return err == nil && !info.IsDir()
}

// Invalidate drops the in-memory state for a path after an external change.
// The file is reloaded on next access.
func (p *Project) Invalidate(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.files, Normalize(path))
}

// Normalize converts a path to the canonical workspace key: absolute,
// cleaned, forward slashes.
func Normalize(path string) string {
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// Contains reports whether path lies under the project root.
func (p *Project) Contains(path string) bool {
	key := Normalize(path)
	return key == p.root || strings.HasPrefix(key, p.root+"/")
}
