package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
)

// Func computes the outputs for one positional input vector
type Func func(ctx context.Context, inputs []float64) (Values, error)

// FuncRuntime adapts a plain function to the Runtime lifecycle.
// It keeps the same setup/run/output/reset discipline as a real model.
type FuncRuntime struct {
	arity  int
	fn     Func
	static map[string]float64
	inputs []float64
	out    Values
}

// NewFuncRuntime creates a runtime over fn expecting arity inputs
func NewFuncRuntime(arity int, fn Func) *FuncRuntime {
	return &FuncRuntime{arity: arity, fn: fn}
}

// FuncFactory returns a Factory that always hands out rt
func FuncFactory(rt Runtime) Factory {
	return func(ctx context.Context, cfg config.Oracle) (Runtime, error) {
		return rt, nil
	}
}

func (r *FuncRuntime) Arity() int { return r.arity }

// Static returns the parameters passed to ConfigureStatic
func (r *FuncRuntime) Static() map[string]float64 { return r.static }

func (r *FuncRuntime) ConfigureStatic(ctx context.Context, params map[string]float64) error {
	r.static = make(map[string]float64, len(params))
	for k, v := range params {
		r.static[k] = v
	}
	return nil
}

func (r *FuncRuntime) Setup(ctx context.Context, inputs []float64) error {
	if r.arity > 0 && len(inputs) != r.arity {
		return fmt.Errorf("expected %d inputs, got %d", r.arity, len(inputs))
	}
	r.inputs = append(r.inputs[:0], inputs...)
	return nil
}

func (r *FuncRuntime) Run(ctx context.Context) error {
	if r.inputs == nil {
		return errors.New("run called before setup")
	}
	out, err := r.fn(ctx, r.inputs)
	if err != nil {
		return err
	}
	r.out = out
	return nil
}

func (r *FuncRuntime) Output(ctx context.Context) (Output, error) {
	if r.out == nil {
		return nil, errors.New("no completed run")
	}
	return r.out, nil
}

func (r *FuncRuntime) Reset(ctx context.Context) error {
	r.inputs = nil
	r.out = nil
	return nil
}

func (r *FuncRuntime) Close() error { return nil }
