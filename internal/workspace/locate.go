package workspace

import (
	"relo/internal/core/errors"
	"relo/internal/parser"
)

// ResolvedSymbol identifies one concrete top-level declaration inside a
// specific file. Decl is a snapshot of the declaration record at resolution
// time; its spans are only valid against the file text they were taken from.
type ResolvedSymbol struct {
	Name              string
	Kind              parser.DeclKind
	DeclaringFilePath string
	Decl              parser.Declaration
	IsExported        bool
}

// FindDeclaration resolves a {name, filePath} selector to a declaration. When
// several same-name declarations of different kinds exist the first in source
// order wins.
func FindDeclaration(p *Project, name, path string) (ResolvedSymbol, error) {
	f := p.GetFile(path)
	if f == nil {
		loaded, err := p.LoadFile(path)
		if err != nil {
			wrapped := errors.Wrap(err, errors.CodeNotFound, "file not in project")
			return ResolvedSymbol{}, errors.AddContext(wrapped, errors.CtxPath, path)
		}
		f = loaded
	}

	decl := f.Parsed().DeclByName(name)
	if decl == nil {
		err := errors.New(errors.CodeNotFound, "declaration not found")
		err = errors.AddContext(err, errors.CtxSymbol, name)
		return ResolvedSymbol{}, errors.AddContext(err, errors.CtxPath, path)
	}

	return ResolvedSymbol{
		Name:              name,
		Kind:              decl.Kind,
		DeclaringFilePath: f.Path(),
		Decl:              *decl,
		IsExported:        decl.Exported,
	}, nil
}
