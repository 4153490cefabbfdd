package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relo/internal/graph"
	"relo/internal/parser"
	"relo/internal/resolver"
	"relo/internal/workspace"
)

func setup(t *testing.T) (*workspace.Project, *resolver.PathResolver, *graph.Index, string) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"lib.ts":    "export function thing(): number { return 1; }\n",
		"app.ts":    "import { thing } from './lib';\n\nexport const v = thing();\n",
		"barrel.ts": "export * from './lib';\n",
	}
	for rel, content := range files {
		if err := os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	p := parser.NewParser(parser.NewGrammarLoader())
	proj, err := workspace.Open(root, p, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	r := resolver.New(root, resolver.DefaultExtensions, resolver.DefaultExtension)
	return proj, r, graph.NewIndex(proj, r), root
}

func TestDOTGenerator(t *testing.T) {
	proj, _, ix, root := setup(t)

	gen := NewDOTGenerator(proj, ix)
	out, err := gen.Generate(filepath.Join(root, "lib.ts"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !strings.Contains(out, "digraph consumers") {
		t.Errorf("missing digraph header:\n%s", out)
	}
	if !strings.Contains(out, `"app.ts" -> "lib.ts";`) {
		t.Errorf("importer edge missing:\n%s", out)
	}
	if !strings.Contains(out, `"barrel.ts" -> "lib.ts"`) || !strings.Contains(out, "re-export") {
		t.Errorf("re-export edge missing:\n%s", out)
	}
}

func TestDOTGeneratorRejectsOutsidePath(t *testing.T) {
	proj, _, ix, _ := setup(t)

	gen := NewDOTGenerator(proj, ix)
	if _, err := gen.Generate("/elsewhere/x.ts"); err == nil {
		t.Fatal("expected error for path outside the project")
	}
}

func TestTSVGenerator(t *testing.T) {
	proj, r, _, root := setup(t)

	gen := NewTSVGenerator(proj, r)
	out, err := gen.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "From\tTo\tSpecifier\tKind\tLine" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("expected 2 edge rows, got %d:\n%s", len(lines)-1, out)
	}

	libPath := workspace.Normalize(filepath.Join(root, "lib.ts"))
	var sawImport, sawReExport bool
	for _, line := range lines[1:] {
		cols := strings.Split(line, "\t")
		if cols[1] != libPath {
			t.Errorf("edge does not resolve to lib.ts: %q", line)
		}
		switch cols[3] {
		case "import":
			sawImport = true
		case "re-export":
			sawReExport = true
		}
	}
	if !sawImport || !sawReExport {
		t.Errorf("edge kinds missing:\n%s", out)
	}
}
