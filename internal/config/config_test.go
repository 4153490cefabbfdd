package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `
root = "./web"
extensions = [".ts", ".tsx"]
default_extension = ".tsx"
barrel_names = ["index.ts", "public-api.ts"]
stoplist = ["payload"]

[exclude]
dirs = [".next"]
files = ["*.generated.ts"]

[watch]
debounce = "1s"

[history]
enabled = true
path = "./state/moves.db"

[telemetry]
metrics_addr = ":9090"
otlp_endpoint = "localhost:4317"
`
	tmpfile, err := os.CreateTemp("", "config*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Root != "./web" {
		t.Errorf("Expected root ./web, got %s", cfg.Root)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[1] != ".tsx" {
		t.Errorf("Unexpected extensions: %v", cfg.Extensions)
	}
	if cfg.DefaultExt != ".tsx" {
		t.Errorf("Expected default extension .tsx, got %s", cfg.DefaultExt)
	}
	if len(cfg.Barrels) != 2 || cfg.Barrels[1] != "public-api.ts" {
		t.Errorf("Unexpected barrel names: %v", cfg.Barrels)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if !cfg.History.Enabled || cfg.History.Path != "./state/moves.db" {
		t.Errorf("Unexpected history config: %+v", cfg.History)
	}
	if cfg.Telemetry.MetricsAddr != ":9090" {
		t.Errorf("Expected metrics addr :9090, got %s", cfg.Telemetry.MetricsAddr)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())
	tmpfile.Write([]byte(`root = "."`))
	tmpfile.Close()

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Expected default debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.DefaultExt != ".ts" {
		t.Errorf("Expected default extension .ts, got %s", cfg.DefaultExt)
	}
	if len(cfg.Extensions) == 0 {
		t.Error("Expected default extension list")
	}
	if cfg.History.Path == "" {
		t.Error("Expected default history path")
	}
}

func TestLoadError(t *testing.T) {
	_, err := Load("nonexistent.toml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}

	tmpfile, _ := os.CreateTemp("", "badconfig*.toml")
	defer os.Remove(tmpfile.Name())
	tmpfile.Write([]byte("bad = toml = format"))
	tmpfile.Close()

	_, err = Load(tmpfile.Name())
	if err == nil {
		t.Error("Expected error for malformed TOML")
	}
}

func TestLoadPlan(t *testing.T) {
	content := `
[[moves]]
symbol = "add"
from = "./src/math.ts"
to = "./src/ops.ts"

[[moves]]
symbol = "Config"
from = "./src/types.ts"
to = "./src/config.ts"
copy_only = true
`
	path := filepath.Join(t.TempDir(), "plan.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan failed: %v", err)
	}
	if len(plan.Moves) != 2 {
		t.Fatalf("Expected 2 moves, got %d", len(plan.Moves))
	}
	if plan.Moves[0].Symbol != "add" || plan.Moves[0].To != "./src/ops.ts" {
		t.Errorf("Unexpected first move: %+v", plan.Moves[0])
	}
	if !plan.Moves[1].CopyOnly {
		t.Error("copy_only not decoded")
	}
}
