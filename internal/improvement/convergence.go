package improvement

import (
	"fmt"
	"math"
)

// ConvergenceStrategy defines how to detect convergence of a local search.
// Scores are minimized.
type ConvergenceStrategy interface {
	// CheckConvergence checks if the search has converged based on history
	CheckConvergence(history []OptimizationStep) (bool, string)
	// Name returns the name of the convergence strategy
	Name() string
}

// ConvergenceConfig holds configuration for convergence detection
type ConvergenceConfig struct {
	// NoImprovementIterations is the number of steps without improvement before stopping
	NoImprovementIterations int
	// ScoreTolerance is the absolute tolerance for score changes to be considered equal
	ScoreTolerance float64
	// MinIterations is the minimum number of steps before convergence can be detected
	MinIterations int
	// PlateauIterations is the number of steps with similar scores before stopping
	PlateauIterations int
}

// DefaultConvergenceConfig returns a default convergence configuration
func DefaultConvergenceConfig() *ConvergenceConfig {
	return &ConvergenceConfig{
		NoImprovementIterations: 8,
		ScoreTolerance:          1e-6,
		MinIterations:           4,
		PlateauIterations:       6,
	}
}

// NoImprovementStrategy detects convergence when there's no improvement for N steps
type NoImprovementStrategy struct {
	config *ConvergenceConfig
}

// NewNoImprovementStrategy creates a new no-improvement convergence strategy
func NewNoImprovementStrategy(config *ConvergenceConfig) *NoImprovementStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &NoImprovementStrategy{config: config}
}

func (s *NoImprovementStrategy) Name() string {
	return "no_improvement"
}

func (s *NoImprovementStrategy) CheckConvergence(history []OptimizationStep) (converged bool, reason string) {
	if len(history) < s.config.MinIterations {
		return false, ""
	}

	bestScore := math.Inf(1)
	bestIndex := -1
	for i, step := range history {
		if step.Score < bestScore-s.config.ScoreTolerance {
			bestScore = step.Score
			bestIndex = i
		}
	}
	if bestIndex < 0 {
		return false, ""
	}

	since := len(history) - 1 - bestIndex
	if since >= s.config.NoImprovementIterations {
		return true, fmt.Sprintf("no improvement for %d steps (best at step %d)", since, history[bestIndex].Iteration)
	}
	return false, ""
}

// PlateauStrategy detects convergence when recent scores are all within tolerance
type PlateauStrategy struct {
	config *ConvergenceConfig
}

// NewPlateauStrategy creates a new plateau convergence strategy
func NewPlateauStrategy(config *ConvergenceConfig) *PlateauStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &PlateauStrategy{config: config}
}

func (s *PlateauStrategy) Name() string {
	return "plateau"
}

func (s *PlateauStrategy) CheckConvergence(history []OptimizationStep) (converged bool, reason string) {
	if len(history) < s.config.MinIterations || len(history) < s.config.PlateauIterations || s.config.PlateauIterations < 2 {
		return false, ""
	}

	recent := history[len(history)-s.config.PlateauIterations:]
	lo, hi := recent[0].Score, recent[0].Score
	for _, step := range recent[1:] {
		lo = math.Min(lo, step.Score)
		hi = math.Max(hi, step.Score)
	}

	if hi-lo <= s.config.ScoreTolerance {
		return true, fmt.Sprintf("score plateaued for %d steps (range: %.6g)", s.config.PlateauIterations, hi-lo)
	}
	return false, ""
}

// CombinedStrategy converges if any of its strategies detects convergence
type CombinedStrategy struct {
	strategies []ConvergenceStrategy
}

// NewCombinedStrategy creates a combined no-improvement and plateau strategy
func NewCombinedStrategy(config *ConvergenceConfig) *CombinedStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &CombinedStrategy{
		strategies: []ConvergenceStrategy{
			NewNoImprovementStrategy(config),
			NewPlateauStrategy(config),
		},
	}
}

func (s *CombinedStrategy) Name() string {
	return "combined"
}

func (s *CombinedStrategy) CheckConvergence(history []OptimizationStep) (converged bool, reason string) {
	for _, strategy := range s.strategies {
		if ok, why := strategy.CheckConvergence(history); ok {
			return true, fmt.Sprintf("%s: %s", strategy.Name(), why)
		}
	}
	return false, ""
}

// AddStrategy adds a custom strategy to the combined strategy
func (s *CombinedStrategy) AddStrategy(strategy ConvergenceStrategy) {
	s.strategies = append(s.strategies, strategy)
}
