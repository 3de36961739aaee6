// Package objective presents the oracle to search backends in the two calling
// conventions they expect: a minimizer over named arguments and a maximizer over
// positional arguments. Both share one evaluation path, so every trial is
// numbered, recorded and observed the same way.
package objective

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// ErrMixedShells is returned when one search uses both calling conventions
var ErrMixedShells = errors.New("objective already used with the other sign convention")

// Evaluator is the oracle as seen by the normalizer
type Evaluator interface {
	Evaluate(ctx context.Context, point []float64, reset bool) (float64, error)
}

// EvaluatorFunc adapts a function to Evaluator
type EvaluatorFunc func(ctx context.Context, point []float64, reset bool) (float64, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, point []float64, reset bool) (float64, error) {
	return f(ctx, point, reset)
}

// Trial is one evaluation as seen by observers
type Trial struct {
	Number    int
	Point     models.Point
	Result    models.EvaluationResult
	Direction models.Direction
	Duration  time.Duration
	Err       error
}

// Observer is notified after every trial, failed ones included
type Observer interface {
	ObserveTrial(ctx context.Context, t Trial)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, t Trial)

func (f ObserverFunc) ObserveTrial(ctx context.Context, t Trial) { f(ctx, t) }

// Normalizer wraps an Evaluator for one search
type Normalizer struct {
	eval      Evaluator
	space     *models.SearchSpace
	observers []Observer
	log       *slog.Logger

	mu        sync.Mutex
	direction models.Direction
	locked    bool
	trials    int
	raws      []float64
	best      *models.BestSolution
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithObserver adds a trial observer
func WithObserver(o Observer) Option {
	return func(n *Normalizer) {
		n.observers = append(n.observers, o)
	}
}

// WithLogger sets the logger used for per-trial debug lines
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) {
		n.log = l
	}
}

// New creates a normalizer over eval for space
func New(eval Evaluator, space *models.SearchSpace, opts ...Option) *Normalizer {
	n := &Normalizer{
		eval:  eval,
		space: space,
		log:   logger.Default,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Space returns the search space
func (n *Normalizer) Space() *models.SearchSpace { return n.space }

// AsNamedMinimizer evaluates named arguments and returns -raw
func (n *Normalizer) AsNamedMinimizer(ctx context.Context, named map[string]float64) (float64, error) {
	x, err := n.space.ToPositional(named)
	if err != nil {
		return 0, err
	}
	res, err := n.evaluate(ctx, x, models.Minimize)
	if err != nil {
		return 0, err
	}
	return res.SignAdjusted, nil
}

// AsPositionalMaximizer evaluates positional arguments and returns raw
func (n *Normalizer) AsPositionalMaximizer(ctx context.Context, x []float64) (float64, error) {
	res, err := n.evaluate(ctx, x, models.Maximize)
	if err != nil {
		return 0, err
	}
	return res.SignAdjusted, nil
}

// NamedMinimizer returns AsNamedMinimizer as a function value
func (n *Normalizer) NamedMinimizer() func(context.Context, map[string]float64) (float64, error) {
	return n.AsNamedMinimizer
}

// PositionalMaximizer returns AsPositionalMaximizer as a function value
func (n *Normalizer) PositionalMaximizer() func(context.Context, []float64) (float64, error) {
	return n.AsPositionalMaximizer
}

func (n *Normalizer) evaluate(ctx context.Context, x []float64, dir models.Direction) (models.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return models.EvaluationResult{}, fmt.Errorf("search cancelled: %w", err)
	}
	point, err := n.space.ToNamed(x)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	n.mu.Lock()
	if n.locked && n.direction != dir {
		n.mu.Unlock()
		return models.EvaluationResult{}, fmt.Errorf("%w: locked to %s", ErrMixedShells, n.direction)
	}
	n.locked = true
	n.direction = dir
	n.trials++
	number := n.trials
	n.mu.Unlock()

	start := time.Now()
	raw, err := n.eval.Evaluate(ctx, point.Values(), true)
	trial := Trial{
		Number:    number,
		Point:     point,
		Direction: dir,
		Duration:  time.Since(start),
		Err:       err,
	}
	if err != nil {
		n.notify(ctx, trial)
		return models.EvaluationResult{}, err
	}
	trial.Result = models.EvaluationResult{Raw: raw, SignAdjusted: dir.Adjust(raw)}

	n.mu.Lock()
	n.raws = append(n.raws, raw)
	if n.best == nil || raw > n.best.Objective {
		n.best = &models.BestSolution{Point: point, Objective: raw}
	}
	best := n.best.Objective
	n.mu.Unlock()

	n.log.Debug("trial evaluated",
		"trial", number,
		"raw", raw,
		"adjusted", trial.Result.SignAdjusted,
		"best", best)
	n.notify(ctx, trial)
	return trial.Result, nil
}

func (n *Normalizer) notify(ctx context.Context, t Trial) {
	for _, o := range n.observers {
		o.ObserveTrial(ctx, t)
	}
}

// Trials returns the number of trials started, failed ones included
func (n *Normalizer) Trials() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.trials
}

// Direction returns the sign convention in use and whether one was fixed yet
func (n *Normalizer) Direction() (models.Direction, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.direction, n.locked
}

// Raw returns the raw objective of every successful trial in order
func (n *Normalizer) Raw() []float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]float64, len(n.raws))
	copy(out, n.raws)
	return out
}

// Best returns the best raw observation so far
func (n *Normalizer) Best() (models.BestSolution, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.best == nil {
		return models.BestSolution{}, false
	}
	return *n.best, true
}
