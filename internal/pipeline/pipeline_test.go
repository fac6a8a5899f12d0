package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lance13c/lpqa/internal/checks"
	"github.com/lance13c/lpqa/internal/types"
)

var (
	desktopVP = types.Viewport{Name: types.Desktop, Width: 1440, Height: 900}
	mobileVP  = types.Viewport{Name: types.Mobile, Width: 375, Height: 812, Mobile: true}
)

// fakeSession returns canned snapshots or errors per viewport
type fakeSession struct {
	mu       sync.Mutex
	results  map[types.ViewportName]error
	panicOn  string
	captured []types.ViewportName
	closed   bool
}

func (f *fakeSession) Capture(ctx context.Context, rawURL string, vp types.Viewport) (*types.PageSnapshot, error) {
	if f.panicOn != "" && strings.Contains(rawURL, f.panicOn) {
		panic("renderer crashed")
	}
	f.mu.Lock()
	f.captured = append(f.captured, vp.Name)
	f.mu.Unlock()
	if err := f.results[vp.Name]; err != nil {
		return nil, err
	}
	snap := &types.PageSnapshot{
		Viewport:     vp,
		RequestedURL: rawURL,
		URL:          rawURL,
		FinalURL:     rawURL,
		StatusCode:   200,
		Title:        "Acme Solar | Get a free quote",
		Forms:        []types.Form{{ID: "lp-pom-form-42"}},
		FirstPaintMs: func() *int64 { v := int64(1200); return &v }(),
		Screenshot:   "shots/" + string(vp.Name) + ".jpg",
	}
	if vp.Mobile {
		sticky, text := true, "Get my quote"
		snap.HasStickyCTA, snap.StickyCTAText = &sticky, &text
	}
	return snap, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type harness struct {
	sessions  []*fakeSession
	launches  int
	template  fakeSession
	launchErr error
}

func (h *harness) launch(ctx context.Context, dir string) (Capturer, error) {
	h.launches++
	if h.launchErr != nil {
		return nil, h.launchErr
	}
	s := &fakeSession{results: h.template.results, panicOn: h.template.panicOn}
	h.sessions = append(h.sessions, s)
	return s, nil
}

type memoryHistory struct {
	saved []*types.QAReport
}

func (m *memoryHistory) SaveReport(r *types.QAReport) error {
	m.saved = append(m.saved, r)
	return nil
}

func newRunner(h *harness, parallel bool, history HistoryStore) *Runner {
	return New(Config{
		Launch:   h.launch,
		Desktop:  desktopVP,
		Mobile:   mobileVP,
		Parallel: parallel,
		Workers:  4,
		History:  history,
	})
}

func TestRunRejectsEmptyURLBeforeCapture(t *testing.T) {
	h := &harness{}
	_, err := newRunner(h, false, nil).Run(context.Background(), Target{URL: "  "})
	if !errors.Is(err, ErrNoURL) {
		t.Fatalf("Run() error = %v, want ErrNoURL", err)
	}
	if h.launches != 0 {
		t.Error("no browser should be launched without a URL")
	}
}

func TestRunProducesCompleteReport(t *testing.T) {
	h := &harness{}
	history := &memoryHistory{}
	rep, err := newRunner(h, false, history).Run(context.Background(), Target{
		URL:     "https://go.acme.com/quote",
		Context: types.QAContext{ClientName: "Acme", TaskID: "1201"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Summary.Total != checks.Default().Len() {
		t.Errorf("Total = %d, want %d", rep.Summary.Total, checks.Default().Len())
	}
	if rep.Degraded || rep.Client != "Acme" || rep.TaskID != "1201" || rep.RegistryVersion != checks.RegistryVersion {
		t.Errorf("report meta = %+v", rep)
	}
	if len(rep.Captures) != 2 || rep.Captures[1].Screenshot != "shots/mobile.jpg" {
		t.Errorf("Captures = %+v", rep.Captures)
	}
	if s := h.sessions[0]; !s.closed || len(s.captured) != 2 || s.captured[0] != types.Desktop {
		t.Errorf("session = %+v", s)
	}
	if len(history.saved) != 1 || history.saved[0].RunID != rep.RunID {
		t.Error("report should be saved to history")
	}
	if res, _ := rep.Result("DEV-016"); res.Status != types.StatusPass {
		t.Errorf("DEV-016 = %s %s", res.Status, res.Message)
	}
}

func TestRunDegradesOnMobileTimeout(t *testing.T) {
	h := &harness{template: fakeSession{results: map[types.ViewportName]error{
		types.Mobile: &types.CaptureFailure{Viewport: types.Mobile, Kind: types.FailureTimeout, Timeout: 30 * time.Second},
	}}}
	rep, err := newRunner(h, false, nil).Run(context.Background(), Target{URL: "https://go.acme.com/quote"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !rep.Degraded || rep.Captures[1].OK || !strings.Contains(rep.Captures[1].Failure, "timed out") {
		t.Errorf("captures = %+v", rep.Captures)
	}
	if res, _ := rep.Result("DEV-006"); res.SkipReason != types.SkipCaptureTimeout {
		t.Errorf("DEV-006 = %s/%s", res.Status, res.SkipReason)
	}
	if res, _ := rep.Result("DEV-016"); res.Status != types.StatusPass {
		t.Errorf("desktop check should still run, got %s", res.Status)
	}
}

func TestRunSurvivesLaunchFailure(t *testing.T) {
	h := &harness{launchErr: errors.New("chrome not found")}
	rep, err := newRunner(h, false, nil).Run(context.Background(), Target{URL: "https://go.acme.com/quote"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !rep.Degraded {
		t.Error("report should be degraded")
	}
	res, _ := rep.Result("DEV-031")
	if res.SkipReason != types.SkipSnapshotUnavailable || !strings.Contains(res.Message, "chrome not found") {
		t.Errorf("DEV-031 = %s %q", res.SkipReason, res.Message)
	}
	if res, _ := rep.Result("DES-001"); res.SkipReason != types.SkipUnautomatable {
		t.Errorf("snapshot-free checks should still run, DES-001 = %s", res.SkipReason)
	}
}

func TestRunFiltersRoles(t *testing.T) {
	h := &harness{}
	rep, err := newRunner(h, false, nil).Run(context.Background(), Target{
		URL:   "https://go.acme.com/quote",
		Roles: []types.Role{types.RoleCopywriter},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Roles) != 1 || rep.Roles[0].Role != types.RoleCopywriter {
		t.Errorf("Roles = %+v", rep.Roles)
	}
	if _, ok := rep.Result("DEV-016"); ok {
		t.Error("developer-only checks should not run")
	}
	if _, ok := rep.Result("DEV-031"); !ok {
		t.Error("the shared page speed check carries a copywriter label and should run")
	}
}

func TestParallelCapturesMatchSequential(t *testing.T) {
	statuses := func(parallel bool) map[string]types.Status {
		rep, err := newRunner(&harness{}, parallel, nil).Run(context.Background(), Target{URL: "https://go.acme.com/quote"})
		if err != nil {
			t.Fatal(err)
		}
		m := make(map[string]types.Status)
		for _, r := range rep.Results {
			m[r.CheckID] = r.Status
		}
		return m
	}
	seq, par := statuses(false), statuses(true)
	for id, s := range seq {
		if par[id] != s {
			t.Errorf("%s: sequential %s, parallel %s", id, s, par[id])
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := &harness{}
	if _, err := newRunner(h, false, nil).Run(ctx, Target{URL: "https://go.acme.com/quote"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v", err)
	}
	if len(h.sessions) == 1 && !h.sessions[0].closed {
		t.Error("session left open after cancellation")
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	h := &harness{template: fakeSession{panicOn: "broken"}}
	targets := []Target{
		{URL: "https://go.acme.com/a"},
		{URL: "https://go.acme.com/broken"},
		{URL: ""},
		{URL: "https://go.acme.com/c"},
	}

	var seen []string
	results := newRunner(h, false, nil).RunBatch(context.Background(), targets, func(r BatchResult) {
		seen = append(seen, r.Target.URL)
	})

	if len(results) != 4 || len(seen) != 4 {
		t.Fatalf("got %d results, %d callbacks", len(results), len(seen))
	}
	if results[0].Err != nil || results[0].Report == nil {
		t.Errorf("first target: %v", results[0].Err)
	}
	if results[1].Err == nil || !strings.Contains(results[1].Err.Error(), "panicked") {
		t.Errorf("panicking target: %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, ErrNoURL) {
		t.Errorf("empty target: %v", results[2].Err)
	}
	if results[3].Err != nil || results[3].Report == nil {
		t.Errorf("target after failures: %v", results[3].Err)
	}
	for i, s := range h.sessions {
		if !s.closed {
			t.Errorf("session %d left open", i)
		}
	}
	if results[0].Report.RunID == results[3].Report.RunID {
		t.Error("runs in a batch must have distinct ids")
	}
}

func TestRunBatchStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	targets := []Target{{URL: "https://go.acme.com/a"}, {URL: "https://go.acme.com/b"}}
	results := newRunner(&harness{}, false, nil).RunBatch(ctx, targets, func(BatchResult) { cancel() })
	if len(results) != 1 {
		t.Errorf("got %d results after cancellation, want 1", len(results))
	}
}
