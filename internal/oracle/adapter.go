package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// Counts reports how many evaluations an adapter performed
type Counts struct {
	Resetting  int `json:"resetting"`
	Inspecting int `json:"inspecting"`
}

// Total returns all evaluations
func (c Counts) Total() int { return c.Resetting + c.Inspecting }

// Adapter is the owned evaluation handle over one Runtime.
// It is created by Initialize and must be closed exactly once; Close is idempotent.
type Adapter struct {
	kind      string
	objective string
	runtime   Runtime
	log       *slog.Logger

	// evalMu is held for the whole of one Evaluate
	evalMu sync.Mutex
	trial  int
	static bool

	resetting  atomic.Int64
	inspecting atomic.Int64

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Option configures an Adapter
type Option func(*Adapter)

// WithLogger sets the adapter logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.log = l
	}
}

// Initialize starts or connects the runtime described by cfg.
// Any failure is an *InitError and is not retried.
func Initialize(ctx context.Context, cfg config.Oracle, factory Factory, opts ...Option) (*Adapter, error) {
	if factory == nil {
		return nil, &InitError{Kind: cfg.Kind, Err: errors.New("no runtime factory")}
	}
	objective := cfg.Objective
	if objective == "" {
		objective = config.DefaultObjective
	}

	rt, err := factory(ctx, cfg)
	if err != nil {
		var initErr *InitError
		if errors.As(err, &initErr) {
			return nil, err
		}
		return nil, &InitError{Kind: cfg.Kind, Err: err}
	}
	if rt == nil {
		return nil, &InitError{Kind: cfg.Kind, Err: errors.New("factory returned no runtime")}
	}

	a := &Adapter{
		kind:      cfg.Kind,
		objective: objective,
		runtime:   rt,
		log:       logger.Default,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With("oracle", cfg.Kind)
	a.log.Info("oracle initialized", "objective", objective, "arity", rt.Arity())
	return a, nil
}

// Kind returns the configured oracle kind
func (a *Adapter) Kind() string { return a.kind }

// Objective returns the output field read after each run
func (a *Adapter) Objective() string { return a.objective }

// Arity returns the number of inputs the runtime expects, zero when unchecked
func (a *Adapter) Arity() int { return a.runtime.Arity() }

// ConfigureStatic passes fixed model parameters. Allowed once, before any trial.
func (a *Adapter) ConfigureStatic(ctx context.Context, params map[string]float64) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if !a.evalMu.TryLock() {
		return ErrConcurrentEvaluate
	}
	defer a.evalMu.Unlock()

	if a.static {
		return ErrStaticConfigured
	}
	if a.trial > 0 {
		return ErrStaticAfterTrial
	}
	if err := a.runtime.ConfigureStatic(ctx, params); err != nil {
		return &RunError{Trial: 0, Stage: StageStatic, Err: err}
	}
	a.static = true
	a.log.Debug("static parameters configured", "params", params)
	return nil
}

// Evaluate writes point in search space order, runs the model to completion,
// reads the objective field and resets the model iff reset is true.
// Coordinates are passed through unchanged; out-of-bounds values are not clipped.
func (a *Adapter) Evaluate(ctx context.Context, point []float64, reset bool) (float64, error) {
	if a.closed.Load() {
		return 0, ErrClosed
	}
	if !a.evalMu.TryLock() {
		return 0, ErrConcurrentEvaluate
	}
	defer a.evalMu.Unlock()
	if a.closed.Load() {
		return 0, ErrClosed
	}

	if arity := a.runtime.Arity(); arity > 0 && len(point) != arity {
		return 0, models.ConfigErrorf("point", "oracle expects %d inputs, got %d", arity, len(point))
	}

	a.trial++
	trial := a.trial
	start := time.Now()

	inputs := make([]float64, len(point))
	copy(inputs, point)

	if err := a.runtime.Setup(ctx, inputs); err != nil {
		return 0, &RunError{Trial: trial, Stage: StageSetup, Err: err}
	}
	if err := a.runtime.Run(ctx); err != nil {
		return 0, &RunError{Trial: trial, Stage: StageRun, Err: err}
	}
	out, err := a.runtime.Output(ctx)
	if err != nil {
		return 0, &RunError{Trial: trial, Stage: StageOutput, Err: err}
	}
	raw, err := out.Value(a.objective)
	if err != nil {
		return 0, &RunError{Trial: trial, Stage: StageOutput, Err: err}
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, &RunError{Trial: trial, Stage: StageOutput, Err: fmt.Errorf("%s is not finite: %v", a.objective, raw)}
	}

	if reset {
		if err := a.runtime.Reset(ctx); err != nil {
			return 0, &RunError{Trial: trial, Stage: StageReset, Err: err}
		}
		a.resetting.Add(1)
	} else {
		a.inspecting.Add(1)
	}

	a.log.Debug("oracle evaluated",
		"trial", trial,
		"reset", reset,
		"raw", raw,
		"duration", time.Since(start))
	return raw, nil
}

// Evaluations returns the evaluation counters
func (a *Adapter) Evaluations() Counts {
	return Counts{
		Resetting:  int(a.resetting.Load()),
		Inspecting: int(a.inspecting.Load()),
	}
}

// Closed reports whether Close has been called
func (a *Adapter) Closed() bool { return a.closed.Load() }

// Close releases the runtime. Subsequent calls return the first result.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		a.closed.Store(true)
		a.evalMu.Lock()
		defer a.evalMu.Unlock()
		if err := a.runtime.Close(); err != nil {
			a.closeErr = fmt.Errorf("failed to close oracle: %w", err)
		}
		a.log.Info("oracle closed", "evaluations", a.Evaluations().Total())
	})
	return a.closeErr
}
