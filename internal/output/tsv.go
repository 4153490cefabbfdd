package output

import (
	"fmt"
	"sort"
	"strings"

	"relo/internal/resolver"
	"relo/internal/workspace"
)

// TSVGenerator dumps every resolved project-internal import edge, one row per
// binding statement, for spreadsheet or grep consumption.
type TSVGenerator struct {
	project  *workspace.Project
	resolver *resolver.PathResolver
}

func NewTSVGenerator(project *workspace.Project, r *resolver.PathResolver) *TSVGenerator {
	return &TSVGenerator{project: project, resolver: r}
}

func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tSpecifier\tKind\tLine\n")

	paths := t.project.Paths()
	sort.Strings(paths)
	for _, path := range paths {
		f := t.project.GetFile(path)
		if f == nil {
			continue
		}
		parsed := f.Parsed()
		for _, imp := range parsed.Imports {
			if !resolver.IsRelative(imp.Specifier) {
				continue
			}
			to := t.resolver.Resolve(path, imp.Specifier)
			buf.WriteString(fmt.Sprintf("%s\t%s\t%s\timport\t%d\n",
				path, to, imp.Specifier, imp.Location.Line))
		}
		for _, exp := range parsed.Exports {
			if exp.Specifier == "" || !resolver.IsRelative(exp.Specifier) {
				continue
			}
			to := t.resolver.Resolve(path, exp.Specifier)
			buf.WriteString(fmt.Sprintf("%s\t%s\t%s\tre-export\t%d\n",
				path, to, exp.Specifier, exp.Location.Line))
		}
	}

	return buf.String(), nil
}
