package graph

import (
	"os"
	"path/filepath"
	"testing"

	"relo/internal/parser"
	"relo/internal/resolver"
	"relo/internal/workspace"
)

func newIndex(t *testing.T, files map[string]string) (*Index, *workspace.Project, string) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	p := parser.NewParser(parser.NewGrammarLoader())
	proj, err := workspace.Open(root, p, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	r := resolver.New(root, resolver.DefaultExtensions, resolver.DefaultExtension)
	return NewIndex(proj, r), proj, root
}

func TestImportersAndReExporters(t *testing.T) {
	ix, _, root := newIndex(t, map[string]string{
		"lib.ts":     "export function thing(): number { return 1; }\n",
		"app.ts":     "import { thing } from './lib';\nexport const v = thing();\n",
		"deep/b.ts":  "import { thing } from '../lib';\nexport const w = thing();\n",
		"barrel.ts":  "export * from './lib';\n",
		"nothing.ts": "export const unrelated = 1;\n",
	})

	target := filepath.Join(root, "lib.ts")
	importers := ix.Importers(target)
	if len(importers) != 2 {
		t.Fatalf("importers = %v", importers)
	}

	reExporters := ix.ReExporters(target)
	if len(reExporters) != 1 || filepath.Base(reExporters[0]) != "barrel.ts" {
		t.Fatalf("reExporters = %v", reExporters)
	}
}

func TestImportersExtensionlessAndIndexSpecifiers(t *testing.T) {
	ix, _, root := newIndex(t, map[string]string{
		"pkg/index.ts": "export function thing(): number { return 1; }\n",
		"a.ts":         "import { thing } from './pkg';\nexport const v = thing();\n",
		"b.ts":         "import { thing } from './pkg/index';\nexport const w = thing();\n",
	})

	importers := ix.Importers(filepath.Join(root, "pkg/index.ts"))
	if len(importers) != 2 {
		t.Fatalf("directory and explicit specifiers should both resolve, got %v", importers)
	}
}

func TestInvalidateDropsCachedConsumers(t *testing.T) {
	ix, proj, root := newIndex(t, map[string]string{
		"lib.ts": "export function thing(): number { return 1; }\n",
		"app.ts": "import { thing } from './lib';\nexport const v = thing();\n",
	})

	target := filepath.Join(root, "lib.ts")
	if got := ix.Importers(target); len(got) != 1 {
		t.Fatalf("importers = %v", got)
	}

	// Retarget the only importer in memory, then invalidate and recompute.
	app := proj.GetFile(filepath.Join(root, "app.ts"))
	if err := app.SetText("export const v = 1;\n"); err != nil {
		t.Fatal(err)
	}

	if got := ix.Importers(target); len(got) != 1 {
		t.Fatalf("cache should still hold stale entry, got %v", got)
	}

	ix.Invalidate(target)
	if got := ix.Importers(target); len(got) != 0 {
		t.Fatalf("expected no importers after invalidation, got %v", got)
	}
}

func TestFallbackScanScopedToDirs(t *testing.T) {
	ix, _, root := newIndex(t, map[string]string{
		"near/user.ts": "export const v = widget();\n",
		"far/user.ts":  "export const w = widget();\n",
		"near/none.ts": "export const x = 1;\n",
	})

	found := ix.FallbackScan("widget", []string{filepath.Join(root, "near")})
	if len(found) != 1 || filepath.Base(found[0]) != "user.ts" {
		t.Fatalf("fallback scan = %v", found)
	}
	if len(ix.FallbackScan("widget", nil)) != 0 {
		t.Fatal("unscoped fallback scan should return nothing")
	}
}
