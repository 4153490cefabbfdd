package cliapp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"relo/internal/config"
	"relo/internal/graph"
	"relo/internal/history"
	"relo/internal/move"
	"relo/internal/output"
	"relo/internal/parser"
	"relo/internal/resolver"
	"relo/internal/shared/observability"
	"relo/internal/watcher"
	"relo/internal/workspace"
)

func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("relo v%s\n", versionString)
		return 0
	}

	configureLogging(opts.jsonOut, opts.verbose)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	if err := validateOptions(&opts); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	ctx := context.Background()
	if cfg.Telemetry.OTLPEndpoint != "" {
		shutdown, err := observability.SetupTracing(ctx, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown(ctx)
		}
	}

	if addr := firstNonEmpty(opts.metricsAddr, cfg.Telemetry.MetricsAddr); addr != "" {
		startMetricsListener(addr)
	}

	rt, err := newRuntime(cfg, opts)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return 1
	}
	defer rt.close()

	switch {
	case opts.recent > 0:
		return rt.runRecent(ctx, opts)
	case opts.graphPath != "":
		return rt.runGraph(opts)
	case opts.planPath != "":
		return rt.runPlan(ctx, opts)
	case opts.remove:
		return rt.runRemove(ctx, opts)
	default:
		return rt.runMove(ctx, opts)
	}
}

type runtime struct {
	cfg      *config.Config
	project  *workspace.Project
	resolver *resolver.PathResolver
	index    *graph.Index
	mover    *move.Mover
	store    *history.Store
}

func newRuntime(cfg *config.Config, opts cliOptions) (*runtime, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}

	var store *history.Store
	if opts.history || opts.recent > 0 || cfg.History.Enabled {
		path := cfg.History.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		store, err = history.Open(path)
		if err != nil {
			return nil, err
		}
	}

	// Listing history does not need the source tree.
	if opts.recent > 0 {
		return &runtime{cfg: cfg, store: store}, nil
	}

	p := parser.NewParser(parser.NewGrammarLoader())
	project, err := workspace.Open(root, p, cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	r := resolver.New(root, cfg.Extensions, cfg.DefaultExt)
	ix := graph.NewIndex(project, r)

	moverOpts := []move.Option{
		move.WithDryRun(opts.dryRun),
		move.WithBarrelNames(cfg.Barrels),
		move.WithStoplist(cfg.Stoplist),
	}
	if store != nil {
		moverOpts = append(moverOpts, move.WithRecorder(store))
	}

	return &runtime{
		cfg:      cfg,
		project:  project,
		resolver: r,
		index:    ix,
		mover:    move.NewMover(p, project, r, ix, moverOpts...),
		store:    store,
	}, nil
}

func (rt *runtime) close() {
	if rt.store != nil {
		_ = rt.store.Close()
	}
}

func (rt *runtime) runMove(ctx context.Context, opts cliOptions) int {
	op := move.MoveOperation{
		Selector: move.Selector{
			Name:     opts.args[0],
			FilePath: rt.absolute(opts.args[1]),
		},
		TargetFilePath: rt.absolute(opts.target),
		CopyOnly:       opts.copyOnly,
	}

	res := rt.mover.Execute(ctx, op)
	printResult(res, opts.jsonOut)
	if !res.Success {
		return 1
	}
	return 0
}

func (rt *runtime) runRemove(ctx context.Context, opts cliOptions) int {
	sel := move.Selector{
		Name:     opts.args[0],
		FilePath: rt.absolute(opts.args[1]),
	}

	res := rt.mover.RemoveSymbol(ctx, sel)
	printResult(res, opts.jsonOut)
	if !res.Success {
		return 1
	}
	return 0
}

func (rt *runtime) runPlan(ctx context.Context, opts cliOptions) int {
	plan, err := config.LoadPlan(opts.planPath)
	if err != nil {
		slog.Error("failed to load plan", "path", opts.planPath, "error", err)
		return 1
	}

	if opts.watch {
		w, err := rt.startWatcher()
		if err != nil {
			slog.Error("failed to start watcher", "error", err)
			return 1
		}
		defer w.Close()
	}

	failures := 0
	for _, pm := range plan.Moves {
		var res move.ExecutionResult
		if pm.To == "" {
			res = rt.mover.RemoveSymbol(ctx, move.Selector{Name: pm.Symbol, FilePath: rt.absolute(pm.From)})
		} else {
			res = rt.mover.Execute(ctx, move.MoveOperation{
				Selector:       move.Selector{Name: pm.Symbol, FilePath: rt.absolute(pm.From)},
				TargetFilePath: rt.absolute(pm.To),
				CopyOnly:       pm.CopyOnly,
			})
		}
		printResult(res, opts.jsonOut)
		if !res.Success {
			failures++
		}
	}

	if failures > 0 {
		slog.Error("plan finished with failures", "failed", failures, "total", len(plan.Moves))
		return 1
	}
	return 0
}

func (rt *runtime) runGraph(opts cliOptions) int {
	var out string
	var err error
	switch opts.graphFormat {
	case "dot":
		out, err = output.NewDOTGenerator(rt.project, rt.index).Generate(rt.absolute(opts.graphPath))
	case "tsv":
		out, err = output.NewTSVGenerator(rt.project, rt.resolver).Generate()
	default:
		err = fmt.Errorf("unknown graph format %q, expected dot or tsv", opts.graphFormat)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	fmt.Print(out)
	return 0
}

func (rt *runtime) runRecent(ctx context.Context, opts cliOptions) int {
	records, err := rt.store.Recent(ctx, opts.recent)
	if err != nil {
		slog.Error("failed to load history", "error", err)
		return 1
	}

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			slog.Error("failed to encode history", "error", err)
			return 1
		}
		return 0
	}

	for _, rec := range records {
		status := "ok"
		if !rec.Success {
			status = "failed"
		}
		verb := "->"
		if rec.CopyOnly {
			verb = "=>"
		}
		fmt.Printf("%s  %-6s %s  %s %s %s\n",
			rec.Timestamp.Format(time.RFC3339), status, rec.Symbol, rec.SourcePath, verb, rec.TargetPath)
	}
	return 0
}

func (rt *runtime) startWatcher() (*watcher.Watcher, error) {
	w, err := watcher.NewWatcher(rt.cfg.Watch.Debounce, rt.cfg.Exclude.Dirs, rt.cfg.Exclude.Files, func(paths []string) {
		for _, p := range paths {
			rt.project.Invalidate(p)
			rt.resolver.Invalidate(p)
		}
		rt.index.InvalidateAll()
		slog.Debug("invalidated caches after file events", "count", len(paths))
	})
	if err != nil {
		return nil, err
	}
	if err := w.Watch([]string{rt.project.Root()}); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (rt *runtime) absolute(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rt.project.Root(), path)
}

func printResult(res move.ExecutionResult, jsonOut bool) {
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
		return
	}

	if res.Success {
		fmt.Printf("ok (%s)\n", res.OperationID)
		if res.Details != nil {
			fmt.Printf("  %s %s -> %s\n", res.Details.SymbolName, res.Details.SourceFilePath, res.Details.TargetFilePath)
			for _, f := range res.Details.UpdatedReferenceFiles {
				fmt.Printf("  updated %s\n", f)
			}
		}
	} else {
		fmt.Printf("failed (%s): %s\n", res.OperationID, res.Error)
	}
	for _, w := range res.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func validateOptions(opts *cliOptions) error {
	if opts.recent > 0 || opts.planPath != "" || opts.graphPath != "" {
		return nil
	}
	if opts.remove && opts.target != "" {
		return fmt.Errorf("-remove and -to cannot be used together")
	}
	if len(opts.args) != 2 {
		return fmt.Errorf("usage: relo [flags] <symbol> <source-file>")
	}
	if !opts.remove && opts.target == "" {
		return fmt.Errorf("-to <target-file> is required unless -remove or -plan is given")
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path != defaultConfigPath {
		return nil, err
	}

	if cfg, fallbackErr := config.Load("./relo.example.toml"); fallbackErr == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) {
		return config.Default(), nil
	}
	return nil, err
}

func configureLogging(jsonOut, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	// Keep stdout machine-readable when results are printed as JSON.
	output := os.Stdout
	if jsonOut {
		output = os.Stderr
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

func startMetricsListener(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics listener stopped", "addr", addr, "error", err)
		}
	}()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
