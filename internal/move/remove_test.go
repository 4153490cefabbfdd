package move

import (
	"strings"
	"testing"

	"relo/internal/parser"
	"relo/internal/workspace"
)

func TestRemoveFunctionStructured(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"lib.ts": "export function keep(): number { return 1; }\n" +
			"\n" +
			"export function gone(): number { return 2; }\n",
	})

	remover := NewSourceRemover()
	res := remover.Remove(env.symbol(t, "gone", "lib.ts"), env.file(t, "lib.ts"))
	if !res.Success {
		t.Fatalf("remove failed: %s", res.Error)
	}
	if res.Tier != "structured" {
		t.Errorf("tier = %q, want structured", res.Tier)
	}

	text := env.file(t, "lib.ts").Text()
	if strings.Contains(text, "gone") {
		t.Errorf("symbol still present:\n%s", text)
	}
	if !strings.Contains(text, "function keep") {
		t.Errorf("sibling declaration damaged:\n%s", text)
	}
}

func TestRemoveMultiDeclaratorVariable(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"lib.ts": "const a = 1, b = 2;\n" +
			"export const c = a;\n",
	})

	remover := NewSourceRemover()
	res := remover.Remove(env.symbol(t, "b", "lib.ts"), env.file(t, "lib.ts"))
	if !res.Success {
		t.Fatalf("remove failed: %s", res.Error)
	}

	text := env.file(t, "lib.ts").Text()
	if !strings.Contains(text, "const a = 1;") {
		t.Errorf("sibling declarator damaged:\n%s", text)
	}
	if strings.Contains(text, "b = 2") {
		t.Errorf("declarator still present:\n%s", text)
	}
}

func TestRemoveStripsExportList(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"lib.ts": "function f(): void {}\n" +
			"function g(): void {}\n" +
			"\n" +
			"export { f, g };\n",
	})

	remover := NewSourceRemover()
	res := remover.Remove(env.symbol(t, "f", "lib.ts"), env.file(t, "lib.ts"))
	if !res.Success {
		t.Fatalf("remove failed: %s", res.Error)
	}

	f := env.file(t, "lib.ts")
	if stillExportsName(f, "f") {
		t.Errorf("export list still names f:\n%s", f.Text())
	}
	if !stillExportsName(f, "g") {
		t.Errorf("export of g lost:\n%s", f.Text())
	}
}

func TestRemoveLastExportedNameDropsStatement(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"lib.ts": "function f(): void {}\n" +
			"\n" +
			"export { f };\n" +
			"export const keep = 1;\n",
	})

	remover := NewSourceRemover()
	res := remover.Remove(env.symbol(t, "f", "lib.ts"), env.file(t, "lib.ts"))
	if !res.Success {
		t.Fatalf("remove failed: %s", res.Error)
	}

	text := env.file(t, "lib.ts").Text()
	if strings.Contains(text, "export {") {
		t.Errorf("empty export list left behind:\n%s", text)
	}
	if !strings.Contains(text, "export const keep = 1;") {
		t.Errorf("unrelated export damaged:\n%s", text)
	}
}

func TestRemoveTextRangeFallback(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"lib.ts": "export interface Shape { area(): number }\n" +
			"export const other = 1;\n",
	})

	sym := env.symbol(t, "Shape", "lib.ts")
	// Force the structural tiers to miss by lying about the kind while
	// keeping the recorded span intact.
	forged := workspace.ResolvedSymbol{
		Name:              "Shape",
		Kind:              parser.KindClass,
		DeclaringFilePath: sym.DeclaringFilePath,
		Decl:              sym.Decl,
	}
	forged.Decl.Kind = parser.KindClass

	f := env.file(t, "lib.ts")
	applied, err := removeTextRange(forged, f)
	if err != nil {
		t.Fatalf("text-range removal errored: %v", err)
	}
	if !applied {
		t.Fatal("text-range removal did not apply")
	}
	text := f.Text()
	if strings.Contains(text, "Shape") {
		t.Errorf("span not removed:\n%s", text)
	}
	if !strings.Contains(text, "export const other = 1;") {
		t.Errorf("neighbour damaged:\n%s", text)
	}
}

func TestRemovePatternTier(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"lib.ts": "export function target(): void {\n  const x = { a: 1 };\n}\n" +
			"export function keep(): void {}\n",
	})

	f := env.file(t, "lib.ts")
	sym := env.symbol(t, "target", "lib.ts")
	applied, err := removePattern(sym, f)
	if err != nil {
		t.Fatalf("pattern removal errored: %v", err)
	}
	if !applied {
		t.Fatal("pattern removal did not apply")
	}
	text := f.Text()
	if strings.Contains(text, "target") {
		t.Errorf("declaration still present:\n%s", text)
	}
	if !strings.Contains(text, "function keep") {
		t.Errorf("sibling damaged:\n%s", text)
	}
}

func TestRemoveReportsFailure(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"lib.ts": "export const real = 1;\n",
	})

	remover := NewSourceRemover()
	bogus := workspace.ResolvedSymbol{
		Name: "phantom",
		Kind: parser.KindFunction,
		Decl: parser.Declaration{Name: "phantom", Span: parser.Span{Start: 0, End: 0}},
	}
	res := remover.Remove(bogus, env.file(t, "lib.ts"))
	if res.Success {
		t.Fatal("removing a missing symbol reported success")
	}
	if env.file(t, "lib.ts").Text() != "export const real = 1;\n" {
		t.Errorf("file mutated while failing:\n%s", env.file(t, "lib.ts").Text())
	}
}
