package move

import (
	"relo/internal/parser"
)

// Selector names a declaration by name and declaring file.
type Selector struct {
	Name     string `json:"name"`
	FilePath string `json:"filePath"`
}

// MoveOperation is the immutable input to one orchestration run.
type MoveOperation struct {
	Selector       Selector `json:"selector"`
	TargetFilePath string   `json:"targetFilePath"`
	CopyOnly       bool     `json:"copyOnly"`
}

// RequiredImport is one import the moved declaration needs at its destination.
// Local (non-type) dependencies of the declaration are synthesized into the
// same shape, pointing back at the origin file, so the destination can reach
// them without duplicating code.
type RequiredImport struct {
	parser.ImportDecl
	ResolvedPath string // absolute path the specifier resolves to; empty for package imports
	Synthesized  bool   // built for a local dependency rather than copied from an import
}

// DependencyClosure is computed once per move and discarded after use.
type DependencyClosure struct {
	RequiredImports       []RequiredImport
	RelatedLocalTypeTexts []string
	RelatedLocalTypeNames []string
}

// ExecutionDetails describes a completed move.
type ExecutionDetails struct {
	SourceFilePath        string   `json:"sourceFilePath"`
	TargetFilePath        string   `json:"targetFilePath"`
	SymbolName            string   `json:"symbolName"`
	UpdatedReferenceFiles []string `json:"updatedReferenceFiles"`
	CopyOnly              bool     `json:"copyOnly"`
}

// ExecutionResult is the only object surviving an orchestration run.
type ExecutionResult struct {
	OperationID   string            `json:"operationId"`
	Success       bool              `json:"success"`
	Error         string            `json:"error,omitempty"`
	AffectedFiles []string          `json:"affectedFiles"`
	Warnings      []string          `json:"warnings"`
	Details       *ExecutionDetails `json:"details,omitempty"`
}

// RemovalResult reports one source-removal attempt.
type RemovalResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Tier    string `json:"tier,omitempty"` // strategy tier that finally applied
}
