// Package progctx adapts the engine's run-level cancellation context: a
// single run owns one ProgCtx for its wall-clock/simulated-time limit
// (spec.md §5) and for deferred cleanup hooks run exactly once, on the
// first Cancel. Ported from the teacher's progctx.ProgCtx, trimmed to
// what a single-threaded discrete-event loop needs -- this engine's loop
// never spawns goroutines of its own, so the teacher's WaitGroup/routine
// bookkeeping (used there to join OpenThread node subprocesses) has no
// SPEC_FULL.md component to serve and is dropped; see DESIGN.md.
package progctx

import (
	"context"

	"github.com/pkg/errors"

	"github.com/loraflexsim/core/internal/logger"
)

// ProgCtx is the cancellable context one simulation run executes under.
type ProgCtx struct {
	context.Context
	cancel   context.CancelFunc
	deferred []func()
}

// New returns a ProgCtx derived from parent (context.Background() if nil).
func New(parent context.Context) *ProgCtx {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &ProgCtx{Context: ctx, cancel: cancel}
}

// Cancel cancels the run context with reason, running every deferred hook
// exactly once. Calling Cancel again after the first call is a no-op.
func (c *ProgCtx) Cancel(reason interface{}) {
	if c.Err() != nil {
		return
	}
	c.cancel()
	if err, ok := reason.(error); ok {
		logger.Warnf("simulation run stopping: %v", err)
	} else {
		logger.Infof("simulation run stopping: %v", reason)
	}
	deferred := c.deferred
	c.deferred = nil
	for _, f := range deferred {
		f()
	}
}

// Defer registers f to run when Cancel is first called. Calling Defer
// after the context is already done panics, since the hook would never
// run -- the same contract the teacher's progctx enforces.
func (c *ProgCtx) Defer(f func()) {
	if c.Err() != nil {
		panic(errors.Errorf("progctx: cannot Defer after context is done"))
	}
	c.deferred = append(c.deferred, f)
}
