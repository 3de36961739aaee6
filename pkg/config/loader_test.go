package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("../../config/simopt.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Oracle.Kind != "plant" {
		t.Errorf("Expected oracle kind 'plant', got '%s'", cfg.Oracle.Kind)
	}
	if len(cfg.Space) != 3 {
		t.Fatalf("Expected 3 dimensions, got %d", len(cfg.Space))
	}
	if cfg.Space[0].Name != "dec1_flow_allocation" || cfg.Space[0].Upper != 0.99 {
		t.Errorf("Unexpected first dimension: %+v", cfg.Space[0])
	}
	if cfg.Strategy.Seed != 1234 || cfg.Strategy.InitPoints != 5 || cfg.Strategy.Trials != 100 {
		t.Errorf("Unexpected strategy: %+v", cfg.Strategy)
	}
	if cfg.Static["liquid_price"] != 10 {
		t.Errorf("Expected liquid_price 10, got %v", cfg.Static["liquid_price"])
	}
}

func TestLoadRemoteConfig(t *testing.T) {
	cfg, err := LoadConfig("../../config/remote.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	d, err := cfg.Oracle.GetDialTimeout()
	if err != nil {
		t.Fatalf("GetDialTimeout failed: %v", err)
	}
	if d.Seconds() != 10 {
		t.Errorf("Expected 10s dial timeout, got %v", d)
	}
	if cfg.Status.Addr != ":8080" {
		t.Errorf("Expected status addr ':8080', got %q", cfg.Status.Addr)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigFromTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.yaml")
	content := `
log_level: debug
oracle: {kind: plant, objective: y}
space:
  - {name: x, lower: 0, upper: 10}
strategy: {name: random, trials: 50, seed: 9}
journal: {driver: none}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Strategy.Name != "random" || cfg.Oracle.Objective != "y" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestFuncOracleOnlyFromCode(t *testing.T) {
	_, err := ParseConfigYAMLString(`
oracle: {kind: func, objective: y}
space:
  - {name: x, lower: 0, upper: 10}
strategy: {name: random, trials: 5}
`)
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for a func oracle in YAML, got %v", err)
	}

	cfg := Default()
	cfg.Oracle.Kind = KindFunc
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate rejected a func oracle built in code: %v", err)
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Default() is invalid: %v", err)
	}
	space, err := BuildSpace(cfg.Space)
	if err != nil {
		t.Fatalf("BuildSpace failed: %v", err)
	}
	if space.Len() != 3 {
		t.Errorf("expected 3 dimensions, got %d", space.Len())
	}
}
