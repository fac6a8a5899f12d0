// Package pipeline runs one landing page through capture, checks and
// aggregation, and loops that run over batches of pages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lance13c/lpqa/internal/browser"
	"github.com/lance13c/lpqa/internal/checks"
	"github.com/lance13c/lpqa/internal/config"
	"github.com/lance13c/lpqa/internal/logging"
	"github.com/lance13c/lpqa/internal/report"
	"github.com/lance13c/lpqa/internal/types"
	"golang.org/x/sync/errgroup"
)

// ErrNoURL is returned before any capture when the target has no URL
var ErrNoURL = errors.New("no target URL to check")

// Capturer renders pages. *browser.Session satisfies it.
type Capturer interface {
	Capture(ctx context.Context, rawURL string, vp types.Viewport) (*types.PageSnapshot, error)
	Close() error
}

// LaunchFunc starts a browser session whose screenshots go to screenshotDir
type LaunchFunc func(ctx context.Context, screenshotDir string) (Capturer, error)

// HistoryStore persists finished reports
type HistoryStore interface {
	SaveReport(r *types.QAReport) error
}

// Config wires a Runner
type Config struct {
	Launch    LaunchFunc
	Desktop   types.Viewport
	Mobile    types.Viewport
	Parallel  bool
	Workers   int
	OutputDir string
	Registry  *checks.Registry
	History   HistoryStore
}

// Target is one page to check
type Target struct {
	URL     string
	Context types.QAContext
	Roles   []types.Role
}

// Runner executes QA runs. A Runner holds no per-run state and can be reused.
type Runner struct {
	cfg Config
}

// New creates a runner. A nil registry uses checks.Default().
func New(cfg Config) *Runner {
	if cfg.Registry == nil {
		cfg.Registry = checks.Default()
	}
	return &Runner{cfg: cfg}
}

// FromConfig builds a runner that captures with Chrome
func FromConfig(cfg *config.Config, history HistoryStore) *Runner {
	launcher := browser.NewLauncher(browser.OptionsFromConfig(cfg))
	return New(Config{
		Launch: func(ctx context.Context, dir string) (Capturer, error) {
			s, err := launcher.Launch(ctx, dir)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		Desktop:   cfg.Browser.Desktop,
		Mobile:    cfg.Browser.Mobile,
		Parallel:  cfg.Browser.ParallelCaptures,
		Workers:   cfg.Checks.Workers,
		OutputDir: cfg.Output.Dir,
		History:   history,
	})
}

// Run captures t at both viewports, evaluates the selected checks and
// aggregates them. A failed capture degrades the report rather than failing
// the run; only an empty target, cancellation or aggregation errors do.
func (r *Runner) Run(ctx context.Context, t Target) (*types.QAReport, error) {
	target := strings.TrimSpace(t.URL)
	if target == "" {
		return nil, ErrNoURL
	}

	runID := uuid.NewString()
	started := time.Now().UTC()
	qctx := t.Context.WithDefaults()
	logging.Info("Run %s: %s", runID, target)

	in := checks.Input{
		Failures: make(map[types.ViewportName]*types.CaptureFailure),
		Context:  qctx,
	}

	shots := ""
	if r.cfg.OutputDir != "" {
		shots = filepath.Join(r.cfg.OutputDir, "screenshots", runID)
	}
	session, err := r.cfg.Launch(ctx, shots)
	if err != nil {
		logging.Error("Failed to launch browser: %v", err)
		for _, vp := range []types.Viewport{r.cfg.Desktop, r.cfg.Mobile} {
			in.Failures[vp.Name] = &types.CaptureFailure{Viewport: vp.Name, Kind: types.FailureBrowser, Err: err}
		}
	} else {
		in.Desktop, in.Mobile = r.capture(ctx, session, target, in.Failures)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run %s cancelled: %w", runID, err)
	}

	results, err := checks.Run(ctx, r.cfg.Registry.Select(t.Roles...), in, checks.Options{Workers: r.cfg.Workers})
	if err != nil {
		return nil, err
	}

	rep, err := report.Aggregate(report.Meta{
		RunID:           runID,
		TargetURL:       target,
		Timestamp:       started,
		Client:          qctx.ClientName,
		Campaign:        qctx.CampaignName,
		TaskID:          qctx.TaskID,
		RegistryVersion: r.cfg.Registry.Version(),
		Captures:        captureInfo(in, r.cfg.Desktop, r.cfg.Mobile),
	}, results)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate run %s: %w", runID, err)
	}

	if r.cfg.History != nil {
		if err := r.cfg.History.SaveReport(rep); err != nil {
			logging.Warn("Failed to save run %s to history: %v", runID, err)
		}
	}
	logging.Info("Run %s finished: %d pass, %d fail, %d warn, %d skip (degraded=%v)",
		runID, rep.Summary.Pass, rep.Summary.Fail, rep.Summary.Warn, rep.Summary.Skip, rep.Degraded)
	return rep, nil
}

// capture takes both snapshots and closes c. The captures share no state, so
// they may run concurrently; failures are recorded per viewport.
func (r *Runner) capture(ctx context.Context, c Capturer, target string, failures map[types.ViewportName]*types.CaptureFailure) (desktop, mobile *types.PageSnapshot) {
	defer func() {
		if err := c.Close(); err != nil {
			logging.Warn("Failed to close browser session: %v", err)
		}
	}()

	var derr, merr error
	if r.cfg.Parallel {
		var g errgroup.Group
		g.Go(func() error {
			desktop, derr = c.Capture(ctx, target, r.cfg.Desktop)
			return nil
		})
		g.Go(func() error {
			mobile, merr = c.Capture(ctx, target, r.cfg.Mobile)
			return nil
		})
		g.Wait()
	} else {
		desktop, derr = c.Capture(ctx, target, r.cfg.Desktop)
		mobile, merr = c.Capture(ctx, target, r.cfg.Mobile)
	}

	if derr != nil {
		desktop = nil
		failures[r.cfg.Desktop.Name] = asFailure(r.cfg.Desktop, derr)
		logging.Warn("Desktop capture failed: %v", derr)
	}
	if merr != nil {
		mobile = nil
		failures[r.cfg.Mobile.Name] = asFailure(r.cfg.Mobile, merr)
		logging.Warn("Mobile capture failed: %v", merr)
	}
	return desktop, mobile
}

func asFailure(vp types.Viewport, err error) *types.CaptureFailure {
	var cf *types.CaptureFailure
	if errors.As(err, &cf) {
		return cf
	}
	return &types.CaptureFailure{Viewport: vp.Name, Kind: types.FailureBrowser, Err: err}
}

func captureInfo(in checks.Input, desktop, mobile types.Viewport) []types.CaptureInfo {
	info := func(vp types.Viewport, snap *types.PageSnapshot) types.CaptureInfo {
		ci := types.CaptureInfo{Viewport: vp.Name, OK: snap != nil}
		if snap != nil {
			ci.Screenshot = snap.Screenshot
		} else if f := in.Failures[vp.Name]; f != nil {
			ci.Failure = f.Error()
		}
		return ci
	}
	return []types.CaptureInfo{info(desktop, in.Desktop), info(mobile, in.Mobile)}
}
