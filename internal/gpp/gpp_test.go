package gpp

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/improvement"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

func lookup(env map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestConfigEvaluations(t *testing.T) {
	tests := []struct {
		strategy string
		want     int
	}{
		{"bayesian", 105},
		{"tpe", 500},
		{"random", 500},
	}
	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			cfg, err := Config(tt.strategy)
			if err != nil {
				t.Fatalf("Config() error = %v", err)
			}
			if err := config.Validate(cfg); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			s, err := improvement.NewStrategy(cfg.Strategy.Name)
			if err != nil {
				t.Fatalf("NewStrategy() error = %v", err)
			}
			budget := models.Budget{InitPoints: cfg.Strategy.InitPoints, Trials: cfg.Strategy.Trials}
			if got := budget.Evaluations(s.BudgetKind()); got != tt.want {
				t.Errorf("evaluations = %d, want %d", got, tt.want)
			}
			if cfg.Static["gas_price"] != 30 || cfg.Static["liquid_price"] != 10 {
				t.Errorf("unexpected prices %v", cfg.Static)
			}
			if len(cfg.Space) != 3 || cfg.Space[0].Name != "dec1_flow_allocation" {
				t.Errorf("unexpected space %v", cfg.Space)
			}
		})
	}
}

func TestConfigUnknownStrategy(t *testing.T) {
	if _, err := Config("anneal"); !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestMainPrintsSolution(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Main(context.Background(), "random", &stdout, &stderr, lookup(map[string]string{
		config.EnvTrials:   "15",
		config.EnvLogLevel: "error",
	}))
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "Solution is {dec1_flow_allocation: ") || !strings.Contains(out, "for a value of ") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMainFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Main(context.Background(), "tpe", &stdout, &stderr, lookup(map[string]string{config.EnvTrials: "lots"}))
	if code == 0 {
		t.Fatal("expected a non-zero exit code")
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should be printed on failure, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "error:") {
		t.Errorf("stderr should carry the cause, got %q", stderr.String())
	}
}
