package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/lance13c/lpqa/internal/logging"
	"github.com/lance13c/lpqa/internal/types"
)

// Capture renders rawURL at vp in a fresh tab and returns its snapshot. Any
// failure, including the deadline expiring before extraction completes, is a
// *types.CaptureFailure and no snapshot is returned.
func (s *Session) Capture(ctx context.Context, rawURL string, vp types.Viewport) (*types.PageSnapshot, error) {
	fail := func(kind types.FailureKind, err error) error {
		return &types.CaptureFailure{Viewport: vp.Name, Kind: kind, Timeout: s.opts.Timeout, Err: err}
	}

	navURL, probe, err := withProbe(rawURL, vp, s.opts.Probe)
	if err != nil {
		return nil, fail(types.FailureNavigation, err)
	}

	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tracker := newEventTracker()
	chromedp.ListenTarget(tabCtx, tracker.handle)

	// create the tab before the deadline starts so the target is not bound to it
	if err := chromedp.Run(tabCtx); err != nil {
		return nil, fail(types.FailureBrowser, fmt.Errorf("failed to open tab: %w", err))
	}

	runCtx, cancel := context.WithTimeout(tabCtx, s.opts.Timeout)
	defer cancel()

	classify := func(step string, err error) error {
		switch {
		case ctx.Err() != nil:
			return fail(types.FailureBrowser, ctx.Err())
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return fail(types.FailureTimeout, fmt.Errorf("%s: %w", step, err))
		case step == "navigate":
			return fail(types.FailureNavigation, err)
		default:
			return fail(types.FailureExtraction, fmt.Errorf("%s: %w", step, err))
		}
	}

	logging.Info("Capturing %s at %s (%dx%d)", navURL, vp.Name, vp.Width, vp.Height)
	start := time.Now()

	if err := chromedp.Run(runCtx, emulate(vp)...); err != nil {
		return nil, classify("emulate", err)
	}

	if err := chromedp.Run(runCtx, chromedp.Navigate(navURL)); err != nil {
		return nil, classify("navigate", err)
	}
	if st := tracker.state(); st.docErr != "" {
		return nil, fail(types.FailureNavigation, errors.New(st.docErr))
	}

	if err := tracker.waitIdle(runCtx, s.opts.QuietWindow); err != nil {
		return nil, classify("wait for network quiescence", err)
	}
	logging.Debug("%s network idle after %v", vp.Name, time.Since(start))

	var rawFacts, html, finalURL string
	err = chromedp.Run(runCtx,
		chromedp.Evaluate(buildScript(factsJS, s.opts.CTALexicon, vp.Mobile), &rawFacts),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, classify("extract", err)
	}

	var facts pageFacts
	if err := json.Unmarshal([]byte(rawFacts), &facts); err != nil {
		return nil, fail(types.FailureExtraction, fmt.Errorf("failed to decode page facts: %w", err))
	}

	base, err := pageBase(finalURL, navURL)
	if err != nil {
		return nil, fail(types.FailureExtraction, err)
	}
	dom, err := ParseDOM(html, base)
	if err != nil {
		return nil, fail(types.FailureExtraction, err)
	}

	var hover *types.HoverProbe
	if !vp.Mobile {
		if hover, err = s.probeHover(runCtx); err != nil {
			return nil, classify("hover probe", err)
		}
	}

	st := tracker.state()
	bodies, err := s.probeBodies(runCtx, st, facts, dom)
	if err != nil {
		return nil, classify("read response bodies", err)
	}

	// evidence only; a failed screenshot never fails the capture
	shot := s.screenshot(runCtx, vp)

	snap := assemble(captureData{
		viewport:     vp,
		requestedURL: rawURL,
		navURL:       navURL,
		finalURL:     finalURL,
		probe:        probe,
		facts:        facts,
		dom:          dom,
		state:        tracker.state(),
		bodies:       bodies,
		hover:        hover,
		screenshot:   shot,
		capturedAt:   start,
	})

	logging.Info("Captured %s at %s in %v: %d requests, %d console errors, %d page errors",
		snap.FinalURL, vp.Name, time.Since(start), len(snap.NetworkRequests), len(snap.ConsoleErrors), len(snap.PageErrors))
	return snap, nil
}

// emulate returns the device emulation actions for vp
func emulate(vp types.Viewport) []chromedp.Action {
	scale := vp.Scale
	if scale <= 0 {
		scale = 1
	}
	viewportOpts := []chromedp.EmulateViewportOption{chromedp.EmulateScale(scale)}
	if vp.Mobile {
		viewportOpts = append(viewportOpts, chromedp.EmulateMobile, chromedp.EmulateTouch, chromedp.EmulatePortrait)
	}

	actions := []chromedp.Action{
		network.Enable(),
		network.SetCacheDisabled(true),
		chromedp.EmulateViewport(vp.Width, vp.Height, viewportOpts...),
	}
	if vp.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(vp.UserAgent))
	}
	return actions
}

// withProbe appends the synthetic tracking parameter on desktop captures. A
// key already present on the URL is reused as the probe.
func withProbe(rawURL string, vp types.Viewport, probe *types.ParamProbe) (string, *types.ParamProbe, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if vp.Mobile || probe == nil || probe.Key == "" {
		return rawURL, nil, nil
	}

	q := u.Query()
	if existing := q.Get(probe.Key); existing != "" {
		return rawURL, &types.ParamProbe{Key: probe.Key, Value: existing}, nil
	}
	q.Set(probe.Key, probe.Value)
	u.RawQuery = q.Encode()
	return u.String(), &types.ParamProbe{Key: probe.Key, Value: probe.Value}, nil
}

// probeHover moves the pointer over the primary CTA and reads its colours again
func (s *Session) probeHover(ctx context.Context) (*types.HoverProbe, error) {
	var raw string
	if err := chromedp.Run(ctx, chromedp.Evaluate(buildScript(hoverLocateJS, s.opts.CTALexicon, false), &raw)); err != nil {
		return nil, err
	}
	var target hoverTarget
	if err := json.Unmarshal([]byte(raw), &target); err != nil || !target.Found {
		return nil, nil
	}

	var after string
	err := chromedp.Run(ctx,
		chromedp.MouseEvent(input.MouseMoved, target.X, target.Y),
		chromedp.Sleep(s.opts.HoverSettle),
		chromedp.Evaluate(buildScript(hoverReadJS, s.opts.CTALexicon, false), &after),
	)
	if err != nil {
		return nil, err
	}

	var style *types.HoverStyle
	if err := json.Unmarshal([]byte(after), &style); err != nil || style == nil {
		return nil, nil
	}
	return &types.HoverProbe{Text: target.Text, Before: target.Before, After: *style}, nil
}

// probeBodies fetches response bodies for images, scripts and stylesheets so
// formats can be sniffed and minification measured without a second request
func (s *Session) probeBodies(ctx context.Context, st trackerState, facts pageFacts, dom *DOMFacts) (map[string][]byte, error) {
	wanted := make(map[string]bool)
	for _, img := range facts.Images {
		wanted[img.Src] = true
	}
	for _, r := range dom.Scripts {
		wanted[r.Src] = true
	}
	for _, r := range dom.Styles {
		wanted[r.Src] = true
	}
	delete(wanted, "")

	bodies := make(map[string][]byte)
	for i, req := range st.requests {
		if len(bodies) >= s.opts.MaxBodyProbes {
			break
		}
		if !req.Completed || !wanted[req.URL] || bodies[req.URL] != nil {
			continue
		}
		var body []byte
		err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			body, err = network.GetResponseBody(st.ids[i]).Do(ctx)
			return err
		}))
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			logging.Debug("No body for %s: %v", req.URL, err)
			continue
		}
		bodies[req.URL] = body
	}
	return bodies, nil
}

func (s *Session) screenshot(ctx context.Context, vp types.Viewport) string {
	if !s.opts.Screenshots || s.screenshotDir == "" {
		return ""
	}
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		logging.Warn("Screenshot failed for %s: %v", vp.Name, err)
		return ""
	}
	if err := os.MkdirAll(s.screenshotDir, 0755); err != nil {
		logging.Warn("Failed to create screenshot directory: %v", err)
		return ""
	}
	path := filepath.Join(s.screenshotDir, fmt.Sprintf("screenshot_%s.jpg", vp.Name))
	if err := os.WriteFile(path, buf, 0644); err != nil {
		logging.Warn("Failed to write screenshot: %v", err)
		return ""
	}
	return path
}
