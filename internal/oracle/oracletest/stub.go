// Package oracletest provides a recording Runtime for tests.
package oracletest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/oracle"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
)

// Field is the output name the stub publishes its objective under
const Field = "y"

// ErrInjected is returned by the stub at the configured failure points
var ErrInjected = errors.New("injected failure")

// Call is one recorded Setup and the reset that followed it, if any
type Call struct {
	Inputs []float64
	Reset  bool
}

// Stub is a deterministic Runtime over Fn. It records every call and can fail
// the k-th run. It is safe for concurrent inspection while a search runs.
type Stub struct {
	Fn func(x []float64) float64
	N  int

	// FailRunAt fails the n-th Run (1-based); zero never fails
	FailRunAt int
	// FailResetAt fails the n-th Reset (1-based); zero never fails
	FailResetAt int
	// Block, when set, is received from at the start of every Run
	Block chan struct{}

	mu       sync.Mutex
	static   map[string]float64
	calls    []Call
	pending  []float64
	out      oracle.Values
	runs     int
	resets   int
	closes   int
	dirty    bool
	accrued  float64
	started  chan struct{}
	startOne sync.Once
}

// New returns a stub over fn with n inputs
func New(n int, fn func(x []float64) float64) *Stub {
	return &Stub{Fn: fn, N: n, started: make(chan struct{})}
}

// Factory returns an oracle.Factory handing out s
func (s *Stub) Factory() oracle.Factory {
	return func(ctx context.Context, cfg config.Oracle) (oracle.Runtime, error) {
		return s, nil
	}
}

// FailingFactory returns a factory that always fails with err
func FailingFactory(err error) oracle.Factory {
	return func(ctx context.Context, cfg config.Oracle) (oracle.Runtime, error) {
		return nil, err
	}
}

// Started is closed when the first Run begins
func (s *Stub) Started() <-chan struct{} { return s.started }

func (s *Stub) Arity() int { return s.N }

func (s *Stub) ConfigureStatic(ctx context.Context, params map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.static = make(map[string]float64, len(params))
	for k, v := range params {
		s.static[k] = v
	}
	return nil
}

func (s *Stub) Setup(ctx context.Context, inputs []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append([]float64(nil), inputs...)
	s.calls = append(s.calls, Call{Inputs: s.pending})
	return nil
}

// Run evaluates Fn. Without a reset in between, runs accumulate like a stateful model.
func (s *Stub) Run(ctx context.Context) error {
	if s.started != nil {
		s.startOne.Do(func() { close(s.started) })
	}
	if s.Block != nil {
		<-s.Block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	if s.FailRunAt > 0 && s.runs == s.FailRunAt {
		return fmt.Errorf("run %d: %w", s.runs, ErrInjected)
	}
	if s.pending == nil {
		return errors.New("run called before setup")
	}
	v := s.Fn(s.pending)
	if s.dirty {
		v += s.accrued
	}
	s.accrued = v
	s.dirty = true
	s.out = oracle.Values{Field: v}
	return nil
}

func (s *Stub) Output(ctx context.Context) (oracle.Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return nil, errors.New("no completed run")
	}
	return s.out, nil
}

func (s *Stub) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	if s.FailResetAt > 0 && s.resets == s.FailResetAt {
		return fmt.Errorf("reset %d: %w", s.resets, ErrInjected)
	}
	if n := len(s.calls); n > 0 {
		s.calls[n-1].Reset = true
	}
	s.pending = nil
	s.out = nil
	s.dirty = false
	s.accrued = 0
	return nil
}

func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Calls returns a copy of the recorded setups
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Static returns the configured static parameters
func (s *Stub) Static() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.static
}

// Counts returns how many runs, resets and closes were observed
func (s *Stub) Counts() (runs, resets, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.resets, s.closes
}

// Parabola is 10-(x0-7)^2, maximized at x0=7 with value 10
func Parabola(x []float64) float64 {
	d := x[0] - 7
	return 10 - d*d
}
