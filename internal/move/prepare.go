package move

import (
	"relo/internal/core/errors"
	"relo/internal/workspace"
)

// PrepareTarget ensures the destination file exists in the project: returns it
// when loaded, loads it when present on disk, otherwise creates parent
// directories and a truly empty file. An empty scaffold must stay empty so the
// duplicate check cannot mistake a placeholder for existing content.
func PrepareTarget(project *workspace.Project, path string) (*workspace.SourceFile, error) {
	if f := project.GetFile(path); f != nil {
		return f, nil
	}

	if project.Exists(path) {
		f, err := project.LoadFile(path)
		if err != nil {
			wrapped := errors.Wrap(err, errors.CodeTargetPrepare, "cannot load target file")
			return nil, errors.AddContext(wrapped, errors.CtxPath, path)
		}
		return f, nil
	}

	f, err := project.CreateFile(path, "")
	if err != nil {
		wrapped := errors.Wrap(err, errors.CodeTargetPrepare, "cannot create target file")
		return nil, errors.AddContext(wrapped, errors.CtxPath, path)
	}
	return f, nil
}
