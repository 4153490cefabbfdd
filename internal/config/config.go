package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Root       string   `toml:"root"`
	Extensions []string `toml:"extensions"`
	DefaultExt string   `toml:"default_extension"`
	Barrels    []string `toml:"barrel_names"`
	Stoplist   []string `toml:"stoplist"`
	Exclude    Exclude  `toml:"exclude"`
	Watch      Watch    `toml:"watch"`
	History    History  `toml:"history"`
	Telemetry  Telemetry `toml:"telemetry"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Telemetry struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Plan is a batch of moves loaded from a TOML plan file, executed in order.
type Plan struct {
	Moves []PlanMove `toml:"moves"`
}

type PlanMove struct {
	Symbol   string `toml:"symbol"`
	From     string `toml:"from"`
	To       string `toml:"to"`
	CopyOnly bool   `toml:"copy_only"`
}

func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs"}
	}
	if cfg.DefaultExt == "" {
		cfg.DefaultExt = ".ts"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.History.Path == "" {
		cfg.History.Path = ".relo/history.db"
	}
}

func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan Plan
	if _, err := toml.Decode(string(data), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
