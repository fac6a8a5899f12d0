package checks

import (
	"context"
	"fmt"
	"runtime"

	"github.com/lance13c/lpqa/internal/logging"
	"github.com/lance13c/lpqa/internal/types"
	"golang.org/x/sync/errgroup"
)

// Options tune how the catalogue is evaluated
type Options struct {
	// Workers bounds concurrent evaluations; zero means GOMAXPROCS
	Workers int
}

// Run evaluates every check in reg against in and returns one result per
// check in registry order. A check whose snapshot is missing is skipped with a
// capture-specific message; a check that panics becomes a FAIL. The only error
// returned is ctx's.
func Run(ctx context.Context, reg *Registry, in Input, opts Options) ([]types.CheckResult, error) {
	in.Context = in.Context.WithDefaults()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	checks := reg.checks
	results := make([]types.CheckResult, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range checks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Evaluate(checks[i], &in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("check evaluation interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("check evaluation interrupted: %w", err)
	}

	logging.Debug("Evaluated %d checks (registry %s)", len(results), reg.version)
	return results, nil
}

// Evaluate runs a single check against in. It never panics.
func Evaluate(c Check, in *Input) (res types.CheckResult) {
	res = types.CheckResult{
		CheckID:       c.ID,
		Name:          c.Name,
		ChecklistItem: c.ChecklistItem(),
		Labels:        c.Labels(),
	}

	for _, vp := range c.Needs.Viewports() {
		if in.snapshot(vp) == nil {
			v := unavailable(vp, in.Failures[vp])
			res.Status, res.Message, res.SkipReason = v.Status, v.Message, v.SkipReason
			return res
		}
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Check %s panicked: %v", c.ID, r)
			res.Status = types.StatusFail
			res.Message = fmt.Sprintf("check raised an error: %v", r)
			res.Evidence = ""
			res.SkipReason = ""
		}
	}()

	v := c.eval(in)
	res.Status = v.Status
	res.Message = v.Message
	res.Evidence = v.Evidence
	res.SkipReason = v.SkipReason
	if res.Status != types.StatusSkip {
		res.SkipReason = ""
	}

	// single-viewport flags point a reviewer at the matching screenshot
	if res.Evidence == "" && (res.Status == types.StatusFail || res.Status == types.StatusWarn) {
		if vps := c.Needs.Viewports(); len(vps) == 1 {
			res.Evidence = in.snapshot(vps[0]).Screenshot
		}
	}
	return res
}

// unavailable is the verdict for a check whose snapshot was never produced.
// Timeouts and other capture failures carry distinct reasons and wording.
func unavailable(vp types.ViewportName, f *types.CaptureFailure) Verdict {
	if f == nil {
		return skip(types.SkipSnapshotUnavailable, "%s snapshot unavailable", vp)
	}
	if f.Kind == types.FailureTimeout {
		return skip(types.SkipCaptureTimeout, "%s snapshot unavailable: capture timed out after %s", vp, f.Timeout)
	}
	return skip(types.SkipSnapshotUnavailable, "%s snapshot unavailable: %v", vp, f)
}
