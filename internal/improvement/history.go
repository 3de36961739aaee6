package improvement

import (
	"fmt"
	"sync"

	"github.com/montanaflynn/stats"
)

// OptimizationStep is one evaluation recorded by a strategy.
// Score is in the strategy's own sense: lower is better.
type OptimizationStep struct {
	Iteration int
	Point     []float64
	Score     float64
}

// History records the steps of one search
type History struct {
	mu    sync.RWMutex
	steps []OptimizationStep
}

// Add appends a step
func (h *History) Add(step OptimizationStep) {
	h.mu.Lock()
	defer h.mu.Unlock()
	step.Point = append([]float64(nil), step.Point...)
	h.steps = append(h.steps, step)
}

// Steps returns a copy of the recorded steps
func (h *History) Steps() []OptimizationStep {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]OptimizationStep, len(h.steps))
	copy(out, h.steps)
	return out
}

// Len returns the number of steps
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.steps)
}

// Best returns the lowest-score step
func (h *History) Best() (OptimizationStep, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.steps) == 0 {
		return OptimizationStep{}, false
	}
	best := h.steps[0]
	for _, s := range h.steps[1:] {
		if s.Score < best.Score {
			best = s
		}
	}
	return best, true
}

// Summary describes a sample of objective values
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d min=%.4f max=%.4f mean=%.4f sd=%.4f median=%.4f p90=%.4f",
		s.Count, s.Min, s.Max, s.Mean, s.StdDev, s.Median, s.P90)
}

// Summarize computes descriptive statistics of values
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, nil
	}
	data := stats.Float64Data(values)
	var s Summary
	var err error
	s.Count = len(values)
	if s.Min, err = data.Min(); err != nil {
		return Summary{}, fmt.Errorf("failed to summarize: %w", err)
	}
	if s.Max, err = data.Max(); err != nil {
		return Summary{}, fmt.Errorf("failed to summarize: %w", err)
	}
	if s.Mean, err = data.Mean(); err != nil {
		return Summary{}, fmt.Errorf("failed to summarize: %w", err)
	}
	if len(values) > 1 {
		if s.StdDev, err = data.StandardDeviationSample(); err != nil {
			return Summary{}, fmt.Errorf("failed to summarize: %w", err)
		}
	}
	if s.Median, err = data.Median(); err != nil {
		return Summary{}, fmt.Errorf("failed to summarize: %w", err)
	}
	if s.P90, err = data.Percentile(90); err != nil {
		return Summary{}, fmt.Errorf("failed to summarize: %w", err)
	}
	return s, nil
}
