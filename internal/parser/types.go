package parser

import (
	"time"
)

// Span is a half-open byte range [Start, End) into a file's text buffer.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) Contains(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

type Location struct {
	File   string
	Line   int
	Column int
}

type DeclKind int

const (
	KindFunction DeclKind = iota
	KindClass
	KindInterface
	KindTypeAlias
	KindEnum
	KindVariable
)

var declKindNames = map[DeclKind]string{
	KindFunction:  "function",
	KindClass:     "class",
	KindInterface: "interface",
	KindTypeAlias: "typeAlias",
	KindEnum:      "enum",
	KindVariable:  "variable",
}

func (k DeclKind) String() string {
	if name, ok := declKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsType reports whether the kind is a pure type declaration with no runtime
// value (enums have one, so they are not included).
func (k DeclKind) IsType() bool {
	return k == KindInterface || k == KindTypeAlias
}

// BoundName is one name bound by an import or export clause, with an optional
// local alias (`import { a as b }` binds a under local name b).
type BoundName struct {
	Name     string
	Alias    string
	TypeOnly bool // inline `type` modifier on the specifier
}

// Local returns the name the binding is visible under in the binding file.
func (b BoundName) Local() string {
	if b.Alias != "" {
		return b.Alias
	}
	return b.Name
}

// ImportDecl is one import statement. A single statement may carry a default
// binding, a namespace binding and named bindings at once.
type ImportDecl struct {
	Specifier      string
	DefaultName    string
	NamespaceAlias string
	Names          []BoundName
	TypeOnly       bool // statement-level `import type`
	Quote          byte // quote character used around the specifier
	Span           Span
	Location       Location
}

// BindsName reports whether the statement binds symbol under any flavor, and
// which flavor it is.
func (d *ImportDecl) BindsName(symbol string) (ImportFlavor, bool) {
	for _, n := range d.Names {
		if n.Name == symbol || n.Local() == symbol {
			return FlavorNamed, true
		}
	}
	if d.DefaultName == symbol {
		return FlavorDefault, true
	}
	if d.NamespaceAlias != "" {
		return FlavorNamespace, true
	}
	return FlavorNamed, false
}

type ImportFlavor int

const (
	FlavorNamed ImportFlavor = iota
	FlavorDefault
	FlavorNamespace
)

// ExportDecl is an export statement that does not itself declare anything:
// either a re-export (`export ... from 'spec'`, Specifier != "") or a local
// export list (`export { a, b }`, Specifier == "").
type ExportDecl struct {
	Specifier      string
	Names          []BoundName
	NamespaceAlias string // export * as ns from '...'
	Wildcard       bool   // export * from '...'
	TypeOnly       bool
	Quote          byte
	Span           Span
	Location       Location
}

func (d *ExportDecl) BindsName(symbol string) bool {
	for _, n := range d.Names {
		if n.Name == symbol || n.Local() == symbol {
			return true
		}
	}
	return false
}

// Declaration is one named top-level construct. For variable statements one
// Declaration is produced per declarator; Span covers the whole statement and
// DeclSpan the single declarator.
type Declaration struct {
	Name            string
	Kind            DeclKind
	Exported        bool
	Default         bool
	Span            Span
	DeclSpan        Span
	DeclaratorCount int
	Location        Location
}

type File struct {
	Path     string
	Language string
	Imports  []ImportDecl
	Exports  []ExportDecl
	Decls    []Declaration
	ParsedAt time.Time
}

// Decl returns the first top-level declaration matching name and kind.
func (f *File) Decl(name string, kind DeclKind) *Declaration {
	for i := range f.Decls {
		if f.Decls[i].Name == name && f.Decls[i].Kind == kind {
			return &f.Decls[i]
		}
	}
	return nil
}

// DeclByName returns the first top-level declaration with the given name,
// regardless of kind.
func (f *File) DeclByName(name string) *Declaration {
	for i := range f.Decls {
		if f.Decls[i].Name == name {
			return &f.Decls[i]
		}
	}
	return nil
}

func (f *File) HasDecl(name string) bool {
	return f.DeclByName(name) != nil
}
