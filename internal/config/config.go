package config

import (
	"fmt"
	"strings"

	"github.com/lance13c/lpqa/internal/types"
)

// Config represents the complete lpqa configuration
type Config struct {
	Browser    BrowserConfig    `yaml:"browser"`
	Output     OutputConfig     `yaml:"output"`
	Defaults   DefaultsConfig   `yaml:"defaults"`
	Thresholds types.Thresholds `yaml:"thresholds"`
	Checks     ChecksConfig     `yaml:"checks"`
	Asana      AsanaConfig      `yaml:"asana"`
	Database   DatabaseConfig   `yaml:"database"`
}

// BrowserConfig holds Chrome and capture settings
type BrowserConfig struct {
	ExecPath         string         `yaml:"exec_path,omitempty"`
	Headless         bool           `yaml:"headless"`
	TimeoutMs        int64          `yaml:"timeout_ms"`
	QuietWindowMs    int64          `yaml:"quiet_window_ms"`
	HoverSettleMs    int64          `yaml:"hover_settle_ms"`
	ParallelCaptures bool           `yaml:"parallel_captures"`
	Desktop          types.Viewport `yaml:"desktop"`
	Mobile           types.Viewport `yaml:"mobile"`
	MaxBodyProbes    int            `yaml:"max_body_probes"`
	CTALexicon       []string       `yaml:"cta_lexicon"`
	ProbeParam       ProbeConfig    `yaml:"probe_param"`
}

// ProbeConfig is the synthetic tracking parameter appended on desktop capture
type ProbeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Key     string `yaml:"key"`
	Value   string `yaml:"value"`
}

// OutputConfig controls artifacts written per run
type OutputConfig struct {
	Dir         string   `yaml:"dir"`
	Screenshots bool     `yaml:"screenshots"`
	Formats     []string `yaml:"formats"`
}

// DefaultsConfig supplies QAContext hints when the caller gives none
type DefaultsConfig struct {
	FormID             string   `yaml:"form_id"`
	StandardFieldNames []string `yaml:"standard_field_names,omitempty"`
	TransparencyHints  []string `yaml:"transparency_hints,omitempty"`
	ExpectedRedirect   []string `yaml:"expected_redirect,omitempty"`
}

// ChecksConfig controls check evaluation
type ChecksConfig struct {
	Workers int `yaml:"workers"`
}

// AsanaConfig holds task tracker credentials
type AsanaConfig struct {
	Token   string `yaml:"token,omitempty"`
	BaseURL string `yaml:"base_url"`
	Section string `yaml:"section,omitempty"`
}

// DatabaseConfig points at the run history store
type DatabaseConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// DefaultMobileUserAgent is an iPhone Safari UA string
const DefaultMobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

// DefaultCTALexicon is the keyword set used to recognise call-to-action copy
var DefaultCTALexicon = []string{
	"get started", "apply", "enquire", "enquiry", "contact", "call", "book",
	"submit", "learn more", "sign up", "register", "get a quote", "download",
	"claim", "request",
}

// DefaultConfig returns a new config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:      true,
			TimeoutMs:     30000,
			QuietWindowMs: 500,
			HoverSettleMs: 400,
			Desktop: types.Viewport{
				Name:   types.Desktop,
				Width:  1440,
				Height: 900,
				Scale:  1,
			},
			Mobile: types.Viewport{
				Name:      types.Mobile,
				Width:     375,
				Height:    812,
				Mobile:    true,
				Scale:     3,
				UserAgent: DefaultMobileUserAgent,
			},
			MaxBodyProbes: 40,
			CTALexicon:    append([]string(nil), DefaultCTALexicon...),
			ProbeParam: ProbeConfig{
				Enabled: true,
				Key:     "utm_source",
				Value:   "lpqa_probe",
			},
		},
		Output: OutputConfig{
			Dir:         "qa_output",
			Screenshots: true,
			Formats:     []string{"terminal", "markdown", "json"},
		},
		Defaults: DefaultsConfig{
			FormID: types.DefaultFormID,
		},
		Thresholds: types.DefaultThresholds(),
		Checks: ChecksConfig{
			Workers: 8,
		},
		Asana: AsanaConfig{
			BaseURL: "https://app.asana.com/api/1.0",
		},
		Database: DatabaseConfig{
			Path:    ".lpqa/history.db",
			Enabled: true,
		},
	}
}

var validFormats = map[string]bool{
	"terminal": true,
	"markdown": true,
	"json":     true,
	"comment":  true,
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Browser.TimeoutMs <= 0 {
		return NewValidationError("browser.timeout_ms must be positive")
	}
	if c.Browser.QuietWindowMs < 0 || c.Browser.QuietWindowMs >= c.Browser.TimeoutMs {
		return NewValidationError("browser.quiet_window_ms must be between 0 and browser.timeout_ms")
	}
	for _, vp := range []types.Viewport{c.Browser.Desktop, c.Browser.Mobile} {
		if vp.Width <= 0 || vp.Height <= 0 {
			return NewValidationError(fmt.Sprintf("browser.%s viewport needs a positive width and height", vp.Name))
		}
	}
	if !c.Browser.Mobile.Mobile {
		return NewValidationError("browser.mobile.mobile must be true")
	}
	if len(c.Browser.CTALexicon) == 0 {
		return NewValidationError("browser.cta_lexicon must not be empty")
	}
	if c.Browser.ProbeParam.Enabled && c.Browser.ProbeParam.Key == "" {
		return NewValidationError("browser.probe_param.key is required when the probe is enabled")
	}
	for _, f := range c.Output.Formats {
		if !validFormats[strings.ToLower(f)] {
			return NewValidationError("unknown output format: " + f)
		}
	}
	if c.Checks.Workers < 1 {
		return NewValidationError("checks.workers must be at least 1")
	}
	t := c.Thresholds
	if t.MaxFcpMs <= 0 {
		return NewValidationError("thresholds.max_fcp_ms must be positive")
	}
	if t.MinContrastRatio < 1 || t.MinContrastRatio > 21 {
		return NewValidationError("thresholds.min_contrast_ratio must be between 1 and 21")
	}
	if t.MinifyWhitespaceRatio < 0 || t.MinifyWhitespaceRatio > 1 {
		return NewValidationError("thresholds.minify_whitespace_ratio must be between 0 and 1")
	}
	return nil
}

// QAContext builds the run context from configured defaults
func (c *Config) QAContext() types.QAContext {
	return types.QAContext{
		ExpectedFormID:     c.Defaults.FormID,
		ExpectedRedirect:   c.Defaults.ExpectedRedirect,
		StandardFieldNames: c.Defaults.StandardFieldNames,
		TransparencyHints:  c.Defaults.TransparencyHints,
		Thresholds:         c.Thresholds,
	}.WithDefaults()
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "config validation error: " + e.Message
}

// NewValidationError creates a new validation error
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}
