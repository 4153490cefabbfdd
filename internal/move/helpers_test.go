package move

import (
	"os"
	"path/filepath"
	"testing"

	"relo/internal/graph"
	"relo/internal/parser"
	"relo/internal/resolver"
	"relo/internal/workspace"
)

type testEnv struct {
	root     string
	parser   *parser.Parser
	project  *workspace.Project
	resolver *resolver.PathResolver
	index    *graph.Index
}

func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}

	p := parser.NewParser(parser.NewGrammarLoader())
	proj, err := workspace.Open(root, p, nil, nil)
	if err != nil {
		t.Fatalf("open project: %v", err)
	}
	r := resolver.New(root, resolver.DefaultExtensions, resolver.DefaultExtension)
	return &testEnv{
		root:     root,
		parser:   p,
		project:  proj,
		resolver: r,
		index:    graph.NewIndex(proj, r),
	}
}

func (e *testEnv) path(rel string) string {
	return workspace.Normalize(filepath.Join(e.root, filepath.FromSlash(rel)))
}

func (e *testEnv) file(t *testing.T, rel string) *workspace.SourceFile {
	t.Helper()
	f := e.project.GetFile(e.path(rel))
	if f == nil {
		t.Fatalf("file %s not loaded", rel)
	}
	return f
}

func (e *testEnv) symbol(t *testing.T, name, rel string) workspace.ResolvedSymbol {
	t.Helper()
	sym, err := workspace.FindDeclaration(e.project, name, e.path(rel))
	if err != nil {
		t.Fatalf("find %s in %s: %v", name, rel, err)
	}
	return sym
}

func (e *testEnv) disk(t *testing.T, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(b)
}
