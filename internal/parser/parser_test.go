package parser

import (
	"strings"
	"testing"
)

func parseTS(t *testing.T, src string) *File {
	t.Helper()
	p := NewParser(NewGrammarLoader())
	file, err := p.ParseFile("/proj/sample.ts", []byte(src))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	return file
}

func TestExtract_Imports(t *testing.T) {
	src := `import React from 'react';
import * as path from 'path';
import { add, sub as minus } from './math';
import type { Config } from './config';
`
	file := parseTS(t, src)

	if len(file.Imports) != 4 {
		t.Fatalf("expected 4 imports, got %d", len(file.Imports))
	}

	def := file.Imports[0]
	if def.DefaultName != "React" || def.Specifier != "react" {
		t.Errorf("default import not extracted: %+v", def)
	}

	ns := file.Imports[1]
	if ns.NamespaceAlias != "path" {
		t.Errorf("namespace import not extracted: %+v", ns)
	}

	named := file.Imports[2]
	if len(named.Names) != 2 {
		t.Fatalf("expected 2 named bindings, got %+v", named.Names)
	}
	if named.Names[0].Name != "add" {
		t.Errorf("expected add, got %q", named.Names[0].Name)
	}
	if named.Names[1].Name != "sub" || named.Names[1].Alias != "minus" {
		t.Errorf("alias not extracted: %+v", named.Names[1])
	}
	if named.Quote != '\'' {
		t.Errorf("expected single quote, got %q", named.Quote)
	}

	typed := file.Imports[3]
	if !typed.TypeOnly {
		t.Errorf("expected type-only import: %+v", typed)
	}
}

func TestExtract_ImportSpans(t *testing.T) {
	src := "import { add } from './math';\nconst x = add(1, 2);\n"
	file := parseTS(t, src)
	if len(file.Imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(file.Imports))
	}
	span := file.Imports[0].Span
	text := src[span.Start:span.End]
	if !strings.HasPrefix(text, "import") || !strings.Contains(text, "./math") {
		t.Errorf("span does not cover the statement: %q", text)
	}
}

func TestExtract_Exports(t *testing.T) {
	src := `export { Widget } from './widget';
export * from './helpers';
export * as utils from './utils';
export { local };
export type { Shape } from './shape';
const local = 1;
`
	file := parseTS(t, src)

	if len(file.Exports) != 5 {
		t.Fatalf("expected 5 exports, got %d", len(file.Exports))
	}

	re := file.Exports[0]
	if re.Specifier != "./widget" || !re.BindsName("Widget") {
		t.Errorf("re-export not extracted: %+v", re)
	}
	if !file.Exports[1].Wildcard {
		t.Errorf("wildcard export not detected: %+v", file.Exports[1])
	}
	if file.Exports[2].NamespaceAlias != "utils" {
		t.Errorf("namespace export not detected: %+v", file.Exports[2])
	}
	if file.Exports[3].Specifier != "" || !file.Exports[3].BindsName("local") {
		t.Errorf("local export list not extracted: %+v", file.Exports[3])
	}
	if !file.Exports[4].TypeOnly {
		t.Errorf("type-only re-export not detected: %+v", file.Exports[4])
	}
}

func TestExtract_Declarations(t *testing.T) {
	src := `export function add(a: number, b: number): number { return a + b; }
class Calculator {}
export interface Options { verbose: boolean; }
type Pair = [number, number];
enum Color { Red, Green }
export const one = 1, two = 2;
`
	file := parseTS(t, src)

	want := []struct {
		name     string
		kind     DeclKind
		exported bool
	}{
		{"add", KindFunction, true},
		{"Calculator", KindClass, false},
		{"Options", KindInterface, true},
		{"Pair", KindTypeAlias, false},
		{"Color", KindEnum, false},
		{"one", KindVariable, true},
		{"two", KindVariable, true},
	}

	if len(file.Decls) != len(want) {
		t.Fatalf("expected %d declarations, got %d: %+v", len(want), len(file.Decls), file.Decls)
	}
	for i, w := range want {
		d := file.Decls[i]
		if d.Name != w.name || d.Kind != w.kind || d.Exported != w.exported {
			t.Errorf("decl %d: got {%s %s exported=%v}, want {%s %s exported=%v}",
				i, d.Name, d.Kind, d.Exported, w.name, w.kind, w.exported)
		}
	}

	one := file.Decl("one", KindVariable)
	if one == nil {
		t.Fatal("expected declaration one")
	}
	if one.DeclaratorCount != 2 {
		t.Errorf("expected 2 declarators, got %d", one.DeclaratorCount)
	}
	stmt := src[one.Span.Start:one.Span.End]
	if !strings.Contains(stmt, "two") {
		t.Errorf("variable statement span should cover all declarators: %q", stmt)
	}
	decl := src[one.DeclSpan.Start:one.DeclSpan.End]
	if strings.Contains(decl, "two") {
		t.Errorf("declarator span should cover only one declarator: %q", decl)
	}
}

func TestExtract_ExportedFunctionSpanIncludesExportKeyword(t *testing.T) {
	src := "export function load(): void {}\n"
	file := parseTS(t, src)
	d := file.Decl("load", KindFunction)
	if d == nil {
		t.Fatal("expected declaration load")
	}
	if got := src[d.Span.Start:d.Span.End]; !strings.HasPrefix(got, "export") {
		t.Errorf("statement span should include export keyword: %q", got)
	}
	if got := src[d.DeclSpan.Start:d.DeclSpan.End]; strings.HasPrefix(got, "export") {
		t.Errorf("declaration span should not include export keyword: %q", got)
	}
}

func TestIdentifiersInSpan_ExcludesBindingsAndProperties(t *testing.T) {
	src := `const config = { name: 'x', retries: limit };
function load(path: string) { return read(path).data; }
`
	p := NewParser(NewGrammarLoader())
	file, err := p.ParseFile("/proj/sample.ts", []byte(src))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	d := file.Decl("load", KindFunction)
	if d == nil {
		t.Fatal("expected declaration load")
	}
	idents, err := p.IdentifiersInSpan("/proj/sample.ts", []byte(src), d.Span)
	if err != nil {
		t.Fatalf("IdentifiersInSpan failed: %v", err)
	}

	if !idents["read"] {
		t.Error("expected read to be a reference")
	}
	if !idents["path"] {
		// path is both a parameter binding and a later reference; the
		// reference occurrence must win.
		t.Error("expected path reference inside body")
	}
	if idents["data"] {
		t.Error("member-access property data must be excluded")
	}
	if idents["load"] {
		t.Error("declared name must be excluded")
	}
}

func TestTypeRefsInSpan(t *testing.T) {
	src := `interface Config { mode: Mode; }
type Mode = 'a' | 'b';
function load(c: Config): Result<Config> { return make(c); }
`
	p := NewParser(NewGrammarLoader())
	file, err := p.ParseFile("/proj/sample.ts", []byte(src))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	d := file.Decl("load", KindFunction)
	if d == nil {
		t.Fatal("expected declaration load")
	}
	refs, err := p.TypeRefsInSpan("/proj/sample.ts", []byte(src), d.Span)
	if err != nil {
		t.Fatalf("TypeRefsInSpan failed: %v", err)
	}

	got := make(map[string]bool)
	for _, r := range refs {
		got[r] = true
	}
	if !got["Config"] || !got["Result"] {
		t.Errorf("expected Config and Result in type refs, got %v", refs)
	}
}

func TestDetectLanguage(t *testing.T) {
	p := NewParser(NewGrammarLoader())
	cases := map[string]bool{
		"a.ts":  true,
		"a.tsx": true,
		"a.js":  true,
		"a.mjs": true,
		"a.go":  false,
		"a.css": false,
	}
	for path, want := range cases {
		if got := p.SupportedFile(path); got != want {
			t.Errorf("SupportedFile(%q) = %v, want %v", path, got, want)
		}
	}
}
