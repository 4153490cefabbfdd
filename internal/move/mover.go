package move

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"relo/internal/core/errors"
	"relo/internal/graph"
	"relo/internal/parser"
	"relo/internal/resolver"
	"relo/internal/shared/observability"
	"relo/internal/workspace"
)

// Recorder persists finished operations. The history store implements it;
// the mover works fine without one.
type Recorder interface {
	RecordMove(ctx context.Context, op MoveOperation, res ExecutionResult) error
}

// Mover drives one relocation end to end: resolve, prepare, extract, insert,
// remove, rewrite, persist. Runs are serialized; concurrent callers queue on
// the internal mutex rather than interleaving workspace mutations.
type Mover struct {
	mu       sync.Mutex
	project  *workspace.Project
	resolver *resolver.PathResolver
	index    *graph.Index

	extractor *DependencyExtractor
	rewriter  *ImportRewriter
	remover   *SourceRemover

	recorder Recorder
	dryRun   bool

	barrelNames []string
	stoplist    []string
}

type Option func(*Mover)

func WithRecorder(rec Recorder) Option {
	return func(m *Mover) { m.recorder = rec }
}

// WithDryRun keeps all mutations in memory and skips the final write-back.
func WithDryRun(dry bool) Option {
	return func(m *Mover) { m.dryRun = dry }
}

func WithBarrelNames(names []string) Option {
	return func(m *Mover) { m.barrelNames = names }
}

// WithStoplist extends the built-in set of identifiers ignored during
// dependency extraction.
func WithStoplist(words []string) Option {
	return func(m *Mover) { m.stoplist = words }
}

func NewMover(p *parser.Parser, project *workspace.Project, r *resolver.PathResolver, ix *graph.Index, opts ...Option) *Mover {
	m := &Mover{
		project:  project,
		resolver: r,
		index:    ix,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.extractor = NewDependencyExtractor(p, r, m.stoplist)
	m.rewriter = NewImportRewriter(project, r, ix, m.barrelNames)
	m.remover = NewSourceRemover()
	return m
}

// Execute runs one move. It never panics out; any internal failure is folded
// into a failed ExecutionResult so a batch of moves survives a bad one.
func (m *Mover) Execute(ctx context.Context, op MoveOperation) (res ExecutionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, span := observability.Tracer.Start(ctx, "move.execute")
	defer span.End()

	start := time.Now()
	res = ExecutionResult{OperationID: uuid.NewString()}

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Error = fmt.Sprintf("internal failure: %v", r)
			slog.Error("move panicked", "symbol", op.Selector.Name, "panic", r)
		}
		outcome := "success"
		if !res.Success {
			outcome = "failure"
		}
		observability.MovesTotal.WithLabelValues(outcome).Inc()
		observability.MoveDuration.Observe(time.Since(start).Seconds())
		if m.recorder != nil {
			if err := m.recorder.RecordMove(ctx, op, res); err != nil {
				slog.Warn("failed to record move", "error", err)
			}
		}
	}()

	src := workspace.Normalize(op.Selector.FilePath)
	dst := workspace.Normalize(op.TargetFilePath)
	res.AffectedFiles = []string{src, dst}

	if m.resolver.Equal(src, dst) {
		res.Success = true
		res.Warnings = append(res.Warnings, "source and target are the same file; nothing to do")
		res.AffectedFiles = []string{src}
		return res
	}

	sym, err := workspace.FindDeclaration(m.project, op.Selector.Name, src)
	if err != nil {
		return m.fail(res, err)
	}
	origin := m.project.GetFile(src)

	target, err := PrepareTarget(m.project, dst)
	if err != nil {
		return m.fail(res, err)
	}

	closure, err := m.extractor.Extract(sym, origin)
	if err != nil {
		return m.fail(res, errors.AddContext(err, errors.CtxSymbol, sym.Name))
	}

	inserted := true
	if target.Parsed().DeclByName(sym.Name) != nil {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%s already declares %q; kept the existing declaration", dst, sym.Name))
		inserted = false
	} else {
		if err := m.insertIntoTarget(sym, origin, target, closure); err != nil {
			return m.fail(res, err)
		}
		if err := m.rewriter.CompleteDestination(target, closure); err != nil {
			return m.fail(res, errors.Wrap(err, errors.CodeTargetWrite, "failed to complete destination imports"))
		}
		if err := m.exportBackReferences(origin, closure); err != nil {
			return m.fail(res, errors.Wrap(err, errors.CodeReferenceUpdate, "failed to export origin dependency"))
		}
	}

	// A skipped insertion leaves consumers bound to the origin declaration.
	if !op.CopyOnly && inserted {
		rr := m.remover.Remove(sym, origin)
		if !rr.Success {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("could not remove %q from %s: %s", sym.Name, src, rr.Error))
		} else {
			slog.Debug("removed source declaration", "symbol", sym.Name, "tier", rr.Tier)
			if _, err := m.rewriter.RestoreOriginBinding(origin, sym.Name, dst); err != nil {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("could not restore origin binding for %q: %v", sym.Name, err))
			}
		}

		updated, warns := m.rewriter.UpdateImportsAfterMove(sym.Name, src, dst)
		res.AffectedFiles = append(res.AffectedFiles, updated...)
		res.Warnings = append(res.Warnings, warns...)
	}

	if m.dryRun {
		slog.Info("dry run, skipping write-back", "symbol", sym.Name, "dirty", len(res.AffectedFiles))
	} else {
		written, err := m.project.SaveDirty()
		if err != nil {
			return m.fail(res, errors.Wrap(err, errors.CodeTargetWrite, "failed to persist workspace"))
		}
		observability.FilesRewritten.Observe(float64(len(written)))
	}

	m.index.Invalidate(src)
	m.index.Invalidate(dst)
	m.resolver.Invalidate(src)
	m.resolver.Invalidate(dst)

	res.Success = true
	res.Details = &ExecutionDetails{
		SourceFilePath:        src,
		TargetFilePath:        dst,
		SymbolName:            sym.Name,
		UpdatedReferenceFiles: res.AffectedFiles[2:],
		CopyOnly:              op.CopyOnly,
	}
	return res
}

// RemoveSymbol deletes a declaration without relocating it. Consumers are not
// rewritten; the result carries a warning per remaining importer instead.
func (m *Mover) RemoveSymbol(ctx context.Context, sel Selector) (res ExecutionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, span := observability.Tracer.Start(ctx, "move.remove_symbol")
	defer span.End()

	res = ExecutionResult{OperationID: uuid.NewString()}
	src := workspace.Normalize(sel.FilePath)
	res.AffectedFiles = []string{src}

	sym, err := workspace.FindDeclaration(m.project, sel.Name, src)
	if err != nil {
		return m.fail(res, err)
	}
	origin := m.project.GetFile(src)

	rr := m.remover.Remove(sym, origin)
	if !rr.Success {
		return m.fail(res, errors.New(errors.CodeSourceRemoval, rr.Error))
	}

	for _, importer := range m.index.Importers(src) {
		f := m.project.GetFile(importer)
		if f == nil {
			continue
		}
		for _, imp := range f.Parsed().Imports {
			if _, ok := imp.BindsName(sym.Name); ok {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("%s still imports removed symbol %q", importer, sym.Name))
			}
		}
	}

	if !m.dryRun {
		if _, err := m.project.SaveDirty(); err != nil {
			return m.fail(res, errors.Wrap(err, errors.CodeTargetWrite, "failed to persist workspace"))
		}
	}
	m.index.Invalidate(src)

	res.Success = true
	return res
}

func (m *Mover) fail(res ExecutionResult, err error) ExecutionResult {
	res.Success = false
	res.Error = err.Error()
	slog.Error("move failed", "error", err, "fatal", errors.Fatal(err))
	return res
}

// exportBackReferences exports every local value dependency the destination
// reaches through a synthesized import. Without the export the destination
// would bind a name the origin module does not expose.
func (m *Mover) exportBackReferences(origin *workspace.SourceFile, closure DependencyClosure) error {
	for _, req := range closure.RequiredImports {
		if !req.Synthesized || req.ResolvedPath != origin.Path() {
			continue
		}
		for _, n := range req.Names {
			d := origin.Parsed().DeclByName(n.Name)
			if d == nil || d.Exported || stillExportsName(origin, n.Name) {
				continue
			}
			if d.Kind == parser.KindVariable && d.DeclaratorCount > 1 {
				// Exporting the whole statement would export siblings too.
				if err := origin.Append("\nexport { " + n.Name + " };\n"); err != nil {
					return err
				}
				continue
			}
			if err := origin.InsertAt(d.Span.Start, "export "); err != nil {
				return err
			}
		}
	}
	return nil
}

// insertIntoTarget appends the related type texts and the declaration itself,
// skipping any related type the target already declares.
func (m *Mover) insertIntoTarget(sym workspace.ResolvedSymbol, origin, target *workspace.SourceFile, closure DependencyClosure) error {
	var b strings.Builder
	for i, text := range closure.RelatedLocalTypeTexts {
		if i < len(closure.RelatedLocalTypeNames) && target.Parsed().DeclByName(closure.RelatedLocalTypeNames[i]) != nil {
			continue
		}
		b.WriteString(ensureExported(text))
		b.WriteString("\n\n")
	}
	b.WriteString(renderDeclaration(sym, origin))
	b.WriteString("\n")

	text := target.Text()
	prefix := ""
	if len(text) > 0 {
		if !strings.HasSuffix(text, "\n") {
			prefix = "\n\n"
		} else if !strings.HasSuffix(text, "\n\n") {
			prefix = "\n"
		}
	}
	if err := target.Append(prefix + b.String()); err != nil {
		return errors.Wrap(err, errors.CodeTargetWrite, "failed to write declaration into target")
	}
	return nil
}

var declKeywordRe = regexp.MustCompile(`\b(const|let|var)\b`)

// renderDeclaration returns the moved declaration's text, exported. A
// declarator plucked out of a multi-declarator statement gets its own
// statement with the original keyword.
func renderDeclaration(sym workspace.ResolvedSymbol, origin *workspace.SourceFile) string {
	text := origin.Text()
	d := sym.Decl
	if d.Kind == parser.KindVariable && d.DeclaratorCount > 1 {
		keyword := "const"
		if kw := declKeywordRe.FindString(text[d.Span.Start:d.Span.End]); kw != "" {
			keyword = kw
		}
		return "export " + keyword + " " + strings.TrimSpace(text[d.DeclSpan.Start:d.DeclSpan.End]) + ";"
	}
	return ensureExported(strings.TrimSpace(text[d.Span.Start:d.Span.End]))
}

func ensureExported(decl string) string {
	if strings.HasPrefix(decl, "export ") || strings.HasPrefix(decl, "export\t") {
		return decl
	}
	return "export " + decl
}
