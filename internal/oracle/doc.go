// Package oracle owns the boundary to the simulation runtime.
//
// An Adapter wraps one Runtime handle and turns a point into a scalar objective by
// writing the inputs, running the model to completion, reading one output field and
// optionally resetting the model. The handle is not reentrant: at most one Evaluate is
// in flight, and a concurrent call fails with ErrConcurrentEvaluate instead of queueing.
//
// Runs are never cancelled once started. The context is handed to the runtime, but a
// runtime that ignores it and hangs will hang the caller.
//
// Main Types:
//   - Runtime: the simulation handle (in-process plant, remote gRPC service, plain function)
//   - Adapter: the owned, close-once evaluation handle
//   - Registry: oracle kind to Factory lookup
//
// Usage:
//
//	adapter, err := oracle.Initialize(ctx, cfg.Oracle, factory)
//	if err != nil {
//	    return err
//	}
//	defer adapter.Close()
//
//	if err := adapter.ConfigureStatic(ctx, cfg.Static); err != nil {
//	    return err
//	}
//	revenue, err := adapter.Evaluate(ctx, []float64{0.5, 60, 60}, true)
package oracle
