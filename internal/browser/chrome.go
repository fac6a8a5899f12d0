package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/lance13c/lpqa/internal/config"
	"github.com/lance13c/lpqa/internal/logging"
	"github.com/lance13c/lpqa/internal/types"
)

// Options configure a Launcher
type Options struct {
	ExecPath      string
	Headless      bool
	Timeout       time.Duration
	QuietWindow   time.Duration
	HoverSettle   time.Duration
	CTALexicon    []string
	Probe         *types.ParamProbe
	MaxBodyProbes int
	Screenshots   bool
}

// OptionsFromConfig maps the browser section of the config onto Options
func OptionsFromConfig(cfg *config.Config) Options {
	b := cfg.Browser
	opts := Options{
		ExecPath:      b.ExecPath,
		Headless:      b.Headless,
		Timeout:       time.Duration(b.TimeoutMs) * time.Millisecond,
		QuietWindow:   time.Duration(b.QuietWindowMs) * time.Millisecond,
		HoverSettle:   time.Duration(b.HoverSettleMs) * time.Millisecond,
		CTALexicon:    b.CTALexicon,
		MaxBodyProbes: b.MaxBodyProbes,
		Screenshots:   cfg.Output.Screenshots,
	}
	if b.ProbeParam.Enabled {
		opts.Probe = &types.ParamProbe{Key: b.ProbeParam.Key, Value: b.ProbeParam.Value}
	}
	return opts
}

// Launcher starts one Chrome process per run
type Launcher struct {
	opts Options
}

// NewLauncher creates a launcher
func NewLauncher(opts Options) *Launcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Launcher{opts: opts}
}

// Session owns a running browser. Captures within a session run in their own tabs.
type Session struct {
	opts          Options
	screenshotDir string
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// findChrome attempts to find a Chrome executable
func findChrome() (string, error) {
	var paths []string

	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
			"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
		}
	case "linux":
		paths = []string{
			"google-chrome",
			"google-chrome-stable",
			"chromium",
			"chromium-browser",
			"headless-shell",
		}
	case "windows":
		paths = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files\Chromium\Application\chrome.exe`,
		}
	}

	for _, path := range paths {
		if runtime.GOOS == "darwin" {
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
			continue
		}
		if found, err := exec.LookPath(path); err == nil {
			return found, nil
		}
	}

	if path, err := exec.LookPath("chrome"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("Chrome browser not found. Install Chrome or Chromium, or set browser.exec_path")
}

// Launch starts Chrome. Screenshots, when enabled, are written to screenshotDir.
// The returned session must be closed on every exit path.
func (l *Launcher) Launch(ctx context.Context, screenshotDir string) (*Session, error) {
	chromePath := l.opts.ExecPath
	if chromePath == "" {
		var err error
		if chromePath, err = findChrome(); err != nil {
			return nil, err
		}
	}
	logging.Info("Using Chrome from: %s (headless=%t)", chromePath, l.opts.Headless)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(chromePath),
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.WindowSize(1440, 900),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, v ...interface{}) {
			logging.Debug("[Chrome] "+format, v...)
		}),
		chromedp.WithErrorf(func(format string, v ...interface{}) {
			logging.Debug("[Chrome error] "+format, v...)
		}),
	)

	// Start the browser without a deadline; a timeout here would bind the
	// whole process lifetime to it.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start Chrome: %w", err)
	}

	return &Session{
		opts:          l.opts,
		screenshotDir: screenshotDir,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close shuts the browser down and releases the allocator
func (s *Session) Close() error {
	err := chromedp.Cancel(s.browserCtx)
	s.browserCancel()
	s.allocCancel()
	if err != nil && err != context.Canceled {
		return fmt.Errorf("failed to close Chrome: %w", err)
	}
	return nil
}
