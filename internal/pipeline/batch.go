package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/lance13c/lpqa/internal/logging"
	"github.com/lance13c/lpqa/internal/types"
)

// BatchResult is the outcome of one target in a batch
type BatchResult struct {
	Target   Target
	Report   *types.QAReport
	Err      error
	Duration time.Duration
}

// RunBatch runs each target in turn. Every run gets its own browser session
// and a failure or panic in one run never stops the next. onResult, when not
// nil, is called after each target. Cancelling ctx stops before the next target.
func (r *Runner) RunBatch(ctx context.Context, targets []Target, onResult func(BatchResult)) []BatchResult {
	var out []BatchResult
	for i, t := range targets {
		if ctx.Err() != nil {
			logging.Warn("Batch cancelled after %d of %d target(s)", i, len(targets))
			break
		}
		logging.Info("Batch %d/%d: %s", i+1, len(targets), t.URL)

		start := time.Now()
		rep, err := r.runIsolated(ctx, t)
		res := BatchResult{Target: t, Report: rep, Err: err, Duration: time.Since(start)}
		if err != nil {
			logging.Error("Batch target %s failed: %v", t.URL, err)
		}
		out = append(out, res)
		if onResult != nil {
			onResult(res)
		}
	}
	return out
}

func (r *Runner) runIsolated(ctx context.Context, t Target) (rep *types.QAReport, err error) {
	defer func() {
		if p := recover(); p != nil {
			rep, err = nil, fmt.Errorf("run panicked: %v", p)
		}
	}()
	return r.Run(ctx, t)
}
