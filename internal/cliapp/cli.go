package cliapp

import "flag"

const versionString = "1.0.0"
const defaultConfigPath = "./relo.toml"

type cliOptions struct {
	configPath  string
	target      string
	copyOnly    bool
	remove      bool
	dryRun      bool
	jsonOut     bool
	planPath    string
	graphPath   string
	graphFormat string
	history     bool
	recent      int
	watch       bool
	metricsAddr string
	verbose     bool
	version     bool
	args        []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("relo", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.StringVar(&opts.target, "to", "", "Target file to move the symbol into")
	fs.BoolVar(&opts.copyOnly, "copy", false, "Copy the symbol instead of moving it")
	fs.BoolVar(&opts.remove, "remove", false, "Remove the symbol without relocating it")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Run the full pipeline but skip writing files")
	fs.BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")
	fs.StringVar(&opts.planPath, "plan", "", "Execute a TOML plan of ordered moves")
	fs.StringVar(&opts.graphPath, "graph", "", "Print the consumer graph of a file and exit")
	fs.StringVar(&opts.graphFormat, "graph-format", "dot", "Graph output format: dot or tsv")
	fs.BoolVar(&opts.history, "history", false, "Journal operations to the history database")
	fs.IntVar(&opts.recent, "recent", 0, "Print the last n journaled operations and exit")
	fs.BoolVar(&opts.watch, "watch", false, "Keep caches fresh from file events while a plan runs")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics and /health on this address")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
