package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/evacflow/internal/config"
)

const minimal = `{
  "version": "1",
  "bimFiles": ["b.json"],
  "distribution": {"type": "%s", "density": 0.2},
  "transitionParameters": {"type": "%s", "doorwayIn": 1, "doorwayOut": 1.5},
  "modelingParameters": {"step": 0.01}
}`

func parse(t *testing.T, doc string) *config.ScenarioConfig {
	t.Helper()
	cfg, err := config.Parse([]byte(doc), ".json")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return cfg
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "scenario.json")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if cfg.Distribution.Type != config.DistributionUniform {
		t.Errorf("distribution type = %v, want uniform", cfg.Distribution.Type)
	}
	if cfg.TransitionParameters.Type != config.TransitionFromBim {
		t.Errorf("transition type = %v, want fromBim", cfg.TransitionParameters.Type)
	}
	if len(cfg.Distribution.Special) != 1 || cfg.Distribution.Special[0].Density != 1 {
		t.Errorf("unexpected distribution specials: %+v", cfg.Distribution.Special)
	}
	if cfg.Engine.MaxSteps != 1_000_000 {
		t.Errorf("default max steps not applied: %d", cfg.Engine.MaxSteps)
	}
	paths := cfg.BimPaths()
	want := filepath.Join("..", "..", "configs", "buildings", "two_rooms_one_exit.json")
	if paths[0] != want {
		t.Errorf("BimPaths()[0] = %q, want %q", paths[0], want)
	}
	if !cfg.HasSink("jsonl") || cfg.HasSink("kafka") {
		t.Errorf("unexpected sinks: %v", cfg.Outputs.Sinks)
	}
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "configs", "scenario.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if cfg.TransitionParameters.Type != config.TransitionUsers {
		t.Errorf("transition type = %v, want users", cfg.TransitionParameters.Type)
	}
	if cfg.TransitionParameters.DoorwayOut != 1.2 {
		t.Errorf("doorwayOut = %v, want 1.2", cfg.TransitionParameters.DoorwayOut)
	}
	if cfg.ModelingParameters.Step != 0 {
		t.Errorf("step = %v, want 0 (automatic)", cfg.ModelingParameters.Step)
	}
	if !cfg.HasSink("sqlite") {
		t.Errorf("sqlite sink not enabled: %v", cfg.Outputs.Sinks)
	}
}

func TestParse_TypesAreCaseInsensitive(t *testing.T) {
	cfg := parse(t, strings.Replace(strings.Replace(minimal, "%s", "Uniform", 1), "%s", "USERS", 1))
	if cfg.Distribution.Type != config.DistributionUniform || cfg.TransitionParameters.Type != config.TransitionUsers {
		t.Errorf("got %v/%v", cfg.Distribution.Type, cfg.TransitionParameters.Type)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg := parse(t, strings.Replace(strings.Replace(minimal, "%s", "fromBim", 1), "%s", "fromBim", 1))
	if cfg.ModelingParameters.MaxSpeed != 100 || cfg.ModelingParameters.MaxDensity != 5 {
		t.Errorf("modeling defaults not applied: %+v", cfg.ModelingParameters)
	}
	if cfg.Outputs.Dir != "result" || len(cfg.Outputs.Sinks) != 1 || cfg.Outputs.Sinks[0] != "csv" {
		t.Errorf("output defaults not applied: %+v", cfg.Outputs)
	}
	if cfg.Engine.Workers != 4 || cfg.Engine.QueueDepth != 64 {
		t.Errorf("engine defaults not applied: %+v", cfg.Engine)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown distribution": strings.Replace(strings.Replace(minimal, "%s", "random", 1), "%s", "users", 1),
		"missing bimFiles":     `{"version":"1","distribution":{"type":"uniform"},"transitionParameters":{"type":"users"},"modelingParameters":{}}`,
		"wrong type":           `{"version":"1","bimFiles":"a.json","distribution":{"type":"uniform"},"transitionParameters":{"type":"users"},"modelingParameters":{}}`,
		"not json":             `{`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := config.Parse([]byte(doc), ".json"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := parse(t, strings.Replace(strings.Replace(minimal, "%s", "uniform", 1), "%s", "users", 1))
	cfg.BimFiles = nil
	cfg.TransitionParameters.DoorwayIn = 0
	cfg.Distribution.Special = []config.DistributionSpecial{{UUID: []string{"nope"}, Density: -1}}
	cfg.ModelingParameters.Step = -1
	cfg.Outputs.Sinks = []string{"csv", "ftp", "kafka"}

	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"bimFiles", "doorwayIn", `invalid uuid "nope"`, "density -1", "step -1", `unknown sink "ftp"`, "kafka sink"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidate_VersionRequired(t *testing.T) {
	cfg := parse(t, strings.Replace(strings.Replace(minimal, "%s", "uniform", 1), "%s", "users", 1))
	cfg.Version = ""
	if err := config.Validate(cfg); err == nil {
		t.Fatal("expected error for empty version")
	}
}

func TestLoader_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.json")
	write := func(version string) {
		t.Helper()
		doc := strings.Replace(strings.Replace(minimal, "%s", "uniform", 1), "%s", "users", 1)
		doc = strings.Replace(doc, `"version": "1"`, `"version": "`+version+`"`, 1)
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("1")

	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader error: %v", err)
	}
	if l.Config().Version != "1" {
		t.Fatalf("initial version = %q", l.Config().Version)
	}
	if got := l.Config().BimPaths()[0]; got != filepath.Join(dir, "b.json") {
		t.Errorf("bim path not resolved against scenario dir: %q", got)
	}

	var seen string
	l.OnChange(func(c *config.ScenarioConfig) { seen = c.Version })

	write("2")
	cfg, err := l.Reload()
	if err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if cfg.Version != "2" || l.Config().Version != "2" || seen != "2" {
		t.Errorf("reload not propagated: cfg=%q current=%q callback=%q", cfg.Version, l.Config().Version, seen)
	}

	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := l.Reload(); err == nil {
		t.Fatal("expected reload error for broken file")
	}
	if l.Config().Version != "2" {
		t.Errorf("broken reload replaced config: %q", l.Config().Version)
	}
}
