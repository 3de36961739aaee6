// Package improvement holds the search backends. Every backend consumes the
// oracle only through an objective.Normalizer, spends exactly the number of
// evaluations its budget kind prescribes and aborts on the first oracle fault.
package improvement

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/objective"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// Strategy is a black-box search backend
type Strategy interface {
	Name() string
	BudgetKind() models.BudgetKind
	Run(ctx context.Context, obj *objective.Normalizer, space *models.SearchSpace, budget models.Budget) (*models.BestSolution, error)
}

// Acquisition functions of the Bayesian strategy
const (
	AcquisitionEI  = "ei"
	AcquisitionUCB = "ucb"
	AcquisitionPI  = "pi"
)

// Options tunes a strategy. Zero values select each strategy's defaults.
type Options struct {
	Seed        int64
	Acquisition string
	Xi          float64
	Kappa       float64
	Gamma       float64
	Candidates  int
	StepSize    float64
	Convergence *ConvergenceConfig
	Logger      *slog.Logger
}

// Option configures Options
type Option func(*Options)

// WithSeed fixes the random seed; zero draws one from the clock
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithAcquisition selects the Bayesian acquisition function and its exploration parameters
func WithAcquisition(kind string, xi, kappa float64) Option {
	return func(o *Options) {
		o.Acquisition = kind
		o.Xi = xi
		o.Kappa = kappa
	}
}

// WithGamma sets the TPE good/bad split quantile
func WithGamma(gamma float64) Option {
	return func(o *Options) { o.Gamma = gamma }
}

// WithCandidates sets how many candidates a model-based strategy scores per trial
func WithCandidates(n int) Option {
	return func(o *Options) { o.Candidates = n }
}

// WithStepSize sets the initial hill-climbing step as a fraction of each dimension
func WithStepSize(step float64) Option {
	return func(o *Options) { o.StepSize = step }
}

// WithConvergence sets the hill-climbing restart rule
func WithConvergence(cfg *ConvergenceConfig) Option {
	return func(o *Options) { o.Convergence = cfg }
}

// WithLogger sets the strategy logger
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

type constructor func(Options) (Strategy, error)

var registry = map[string]constructor{
	"bayesian":  func(o Options) (Strategy, error) { return NewBayesian(o) },
	"tpe":       func(o Options) (Strategy, error) { return NewTPE(o) },
	"random":    func(o Options) (Strategy, error) { return NewRandom(o), nil },
	"anneal":    func(o Options) (Strategy, error) { return NewAnneal(o), nil },
	"hillclimb": func(o Options) (Strategy, error) { return NewHillClimb(o), nil },
}

// NewStrategy builds the named strategy
func NewStrategy(name string, opts ...Option) (Strategy, error) {
	build, ok := registry[name]
	if !ok {
		return nil, models.ConfigErrorf("strategy.name", "unknown strategy %q (available: %v)", name, Names())
	}
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logger.Default
	}
	s, err := build(o)
	if err != nil {
		return nil, fmt.Errorf("failed to create strategy %s: %w", name, err)
	}
	return s, nil
}

// Names lists the registered strategies in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// prepare validates a run's inputs the same way for every strategy
func prepare(ctx context.Context, s Strategy, obj *objective.Normalizer, space *models.SearchSpace, budget models.Budget) (int, error) {
	if obj == nil {
		return 0, models.ConfigErrorf("objective", "normalizer is required")
	}
	if space == nil || space.Len() == 0 {
		return 0, models.ConfigErrorf("space", "search space is required")
	}
	if err := budget.Validate(s.BudgetKind()); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return budget.Evaluations(s.BudgetKind()), nil
}

// solution converts a positional point and its raw objective into a BestSolution
func solution(space *models.SearchSpace, x []float64, raw float64) (*models.BestSolution, error) {
	p, err := space.ToNamed(x)
	if err != nil {
		return nil, err
	}
	return &models.BestSolution{Point: p, Objective: raw}, nil
}

// namedCall evaluates x through the named minimizer and returns the minimized value
func namedCall(ctx context.Context, f func(context.Context, map[string]float64) (float64, error), space *models.SearchSpace, x []float64) (float64, error) {
	p, err := space.ToNamed(x)
	if err != nil {
		return 0, err
	}
	return f(ctx, p.Map())
}
