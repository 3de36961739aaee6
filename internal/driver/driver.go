// Package driver runs one optimization end to end: it starts the oracle, builds
// the search space, runs the configured strategy, replays the best point
// without a reset for inspection and releases the oracle exactly once.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/improvement"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/journal"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/metrics"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/objective"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/oracle"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/plant"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/utils"
)

// ErrReplayMismatch is returned in strict mode when the inspecting run does not
// reproduce the best objective
var ErrReplayMismatch = errors.New("replay does not reproduce the best objective")

// Report is the outcome of a successful run
type Report struct {
	StudyID         string              `json:"study_id"`
	Strategy        string              `json:"strategy"`
	Seed            int64               `json:"seed"`
	Best            models.BestSolution `json:"best"`
	BestPoint       map[string]float64  `json:"best_point"`
	ReplayObjective float64             `json:"replay_objective"`
	ReplayMatches   bool                `json:"replay_matches"`
	Trials          int                 `json:"trials"`
	Evaluations     oracle.Counts       `json:"evaluations"`
	Summary         improvement.Summary `json:"summary"`
	Curve           []float64           `json:"curve"`
	Duration        time.Duration       `json:"duration"`
}

// String renders the best point the way the command line prints it
func (r *Report) String() string {
	return fmt.Sprintf("Solution is %s for a value of %s",
		r.Best.Point, strconv.FormatFloat(r.Best.Objective, 'g', -1, 64))
}

// Driver owns one run of the configured study
type Driver struct {
	cfg      *config.Config
	space    *models.SearchSpace
	strategy improvement.Strategy
	budget   models.Budget

	registry  *oracle.Registry
	factory   oracle.Factory
	store     journal.Store
	metrics   *metrics.Collector
	observers []objective.Observer
	log       *slog.Logger

	mu      sync.RWMutex
	state   State
	history []State
	ran     bool
}

// Option configures a Driver
type Option func(*Driver)

// WithRegistry sets the oracle kinds available to the driver
func WithRegistry(r *oracle.Registry) Option {
	return func(d *Driver) { d.registry = r }
}

// WithFactory bypasses the registry and builds the runtime with f
func WithFactory(f oracle.Factory) Option {
	return func(d *Driver) { d.factory = f }
}

// WithJournal records the study and its trials in s
func WithJournal(s journal.Store) Option {
	return func(d *Driver) { d.store = s }
}

// WithMetrics feeds trial outcomes into c
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Driver) { d.metrics = c }
}

// WithObserver adds a trial observer
func WithObserver(o objective.Observer) Option {
	return func(d *Driver) { d.observers = append(d.observers, o) }
}

// WithStrategy replaces the configured strategy
func WithStrategy(s improvement.Strategy) Option {
	return func(d *Driver) { d.strategy = s }
}

// WithLogger sets the driver logger
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// DefaultRegistry returns the registry of built-in oracle kinds: plant and remote
func DefaultRegistry() *oracle.Registry {
	r := oracle.NewRegistry()
	plant.Register(r)
	return r
}

// New validates cfg and prepares the search space and strategy.
// Configuration problems are reported here, before any oracle exists.
func New(cfg *config.Config, opts ...Option) (*Driver, error) {
	if cfg == nil {
		return nil, models.ConfigErrorf("config", "is required")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	d := &Driver{
		cfg:   cfg,
		log:   logger.Default,
		state: Uninitialized,
		budget: models.Budget{
			InitPoints: cfg.Strategy.InitPoints,
			Trials:     cfg.Strategy.Trials,
		},
	}
	d.history = []State{Uninitialized}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = DefaultRegistry()
	}
	if d.store == nil {
		d.store = journal.Nop()
	}
	if d.factory == nil {
		f, err := d.registry.Lookup(cfg.Oracle.Kind)
		if err != nil {
			return nil, err
		}
		d.factory = f
	}

	space, err := config.BuildSpace(cfg.Space)
	if err != nil {
		return nil, err
	}
	d.space = space

	if d.strategy == nil {
		s, err := improvement.NewStrategy(cfg.Strategy.Name,
			improvement.WithSeed(cfg.Strategy.Seed),
			improvement.WithAcquisition(cfg.Strategy.Acquisition, cfg.Strategy.Xi, cfg.Strategy.Kappa),
			improvement.WithGamma(cfg.Strategy.Gamma),
			improvement.WithCandidates(cfg.Strategy.Candidates),
			improvement.WithLogger(d.log))
		if err != nil {
			return nil, err
		}
		d.strategy = s
	}
	if err := d.budget.Validate(d.strategy.BudgetKind()); err != nil {
		return nil, err
	}
	return d, nil
}

// State returns the current state
func (d *Driver) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Transitions returns every state the driver has been in, in order
func (d *Driver) Transitions() []State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]State(nil), d.history...)
}

// Space returns the search space
func (d *Driver) Space() *models.SearchSpace { return d.space }

// Strategy returns the strategy the driver runs
func (d *Driver) Strategy() improvement.Strategy { return d.strategy }

func (d *Driver) setState(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == s {
		return
	}
	d.state = s
	d.history = append(d.history, s)
}

// Run executes the study once. On any failure the oracle is still closed and no
// report is returned.
func (d *Driver) Run(ctx context.Context) (rep *Report, err error) {
	d.mu.Lock()
	if d.ran {
		d.mu.Unlock()
		return nil, errors.New("driver already ran")
	}
	d.ran = true
	d.mu.Unlock()

	start := time.Now()
	studyID := uuid.NewString()
	log := d.log.With("study_id", studyID, "strategy", d.strategy.Name())

	adapter, err := oracle.Initialize(ctx, d.cfg.Oracle, d.factory, oracle.WithLogger(log))
	if err != nil {
		d.setState(Closed)
		log.Error("oracle initialization failed", "error", err)
		return nil, err
	}
	defer func() {
		if cerr := adapter.Close(); cerr != nil {
			log.Error("failed to close oracle", "error", cerr)
			if err == nil {
				rep, err = nil, cerr
			}
		}
		d.setState(Closed)
		log.Info("driver closed", "state", Closed, "duration", time.Since(start))
	}()

	if len(d.cfg.Static) > 0 {
		if err := adapter.ConfigureStatic(ctx, d.cfg.Static); err != nil {
			return nil, fmt.Errorf("failed to configure static parameters: %w", err)
		}
	}
	d.setState(OracleReady)
	log.Info("state changed", "state", OracleReady, "oracle", adapter.Kind())

	if arity := adapter.Arity(); arity > 0 && arity != d.space.Len() {
		return nil, models.ConfigErrorf("space", "oracle expects %d inputs, search space has %d dimensions", arity, d.space.Len())
	}
	d.setState(SpaceDefined)
	log.Info("state changed", "state", SpaceDefined, "dimensions", d.space.Names())

	seed := d.cfg.Strategy.Seed
	if err := d.store.CreateStudy(ctx, models.Study{
		ID:        studyID,
		Strategy:  d.strategy.Name(),
		Status:    models.StudyStatusRunning,
		Seed:      seed,
		StartTime: start.UTC(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record study: %w", err)
	}
	fail := func(cause error) error {
		if jerr := d.store.FinishStudy(context.WithoutCancel(ctx), studyID, models.StudyStatusFailed, nil, cause.Error()); jerr != nil {
			log.Warn("failed to record study failure", "error", jerr)
		}
		return cause
	}

	nopts := []objective.Option{
		objective.WithLogger(log),
		objective.WithObserver(journal.NewRecorder(d.store, studyID, log)),
	}
	labels := metrics.StudyLabels(studyID, d.strategy.Name())
	if d.metrics != nil {
		nopts = append(nopts, objective.WithObserver(metrics.Observer(d.metrics, labels)))
	}
	for _, o := range d.observers {
		nopts = append(nopts, objective.WithObserver(o))
	}
	obj := objective.New(adapter, d.space, nopts...)

	d.setState(Searching)
	log.Info("state changed", "state", Searching,
		"budget_kind", d.strategy.BudgetKind(),
		"evaluations", d.budget.Evaluations(d.strategy.BudgetKind()))
	best, err := d.strategy.Run(ctx, obj, d.space, d.budget)
	if err != nil {
		log.Error("search failed", "trials", obj.Trials(), "error", err)
		return nil, fail(fmt.Errorf("search failed: %w", err))
	}
	if best == nil {
		return nil, fail(errors.New("search returned no solution"))
	}
	d.setState(BestFound)
	log.Info("state changed", "state", BestFound, "best", best.Objective, "point", best.Point.String())

	d.setState(Inspecting)
	replay, err := adapter.Evaluate(ctx, best.Point.Values(), false)
	if err != nil {
		log.Error("replay failed", "error", err)
		return nil, fail(fmt.Errorf("replay failed: %w", err))
	}
	matches := utils.AlmostEqual(replay, best.Objective, d.cfg.Replay.Tolerance)
	if d.metrics != nil {
		d.metrics.RecordReplay(replay, labels)
	}
	if !matches {
		log.Warn("replay differs from best objective", "replay", replay, "best", best.Objective, "tolerance", d.cfg.Replay.Tolerance)
		if d.cfg.Replay.Strict {
			return nil, fail(fmt.Errorf("%w: replay %g, best %g", ErrReplayMismatch, replay, best.Objective))
		}
	}
	log.Info("state changed", "state", Inspecting, "replay", replay, "matches", matches)

	raws := obj.Raw()
	summary, err := improvement.Summarize(raws)
	if err != nil {
		log.Warn("failed to summarize trials", "error", err)
	}
	if err := d.store.FinishStudy(ctx, studyID, models.StudyStatusCompleted, best, ""); err != nil {
		log.Warn("failed to record study result", "error", err)
	}

	return &Report{
		StudyID:         studyID,
		Strategy:        d.strategy.Name(),
		Seed:            seed,
		Best:            *best,
		BestPoint:       best.Point.Map(),
		ReplayObjective: replay,
		ReplayMatches:   matches,
		Trials:          obj.Trials(),
		Evaluations:     adapter.Evaluations(),
		Summary:         summary,
		Curve:           utils.RunningMax(raws),
		Duration:        time.Since(start),
	}, nil
}
