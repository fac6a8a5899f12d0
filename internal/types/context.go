package types

// DefaultFormID is the form id Unbounce assigns to the primary lead form
const DefaultFormID = "lp-pom-form-42"

// DefaultStandardFieldNames are the field names downstream CRMs map automatically
var DefaultStandardFieldNames = []string{
	"first_name", "last_name", "full_name", "name", "email", "phone",
	"phone_number", "mobile", "postcode", "zip", "state", "suburb",
	"company", "message", "comments", "consent", "privacy",
}

// DefaultTransparencyHints mark images that must keep a transparent background
var DefaultTransparencyHints = []string{"transparent", "cutout", "-alpha", "_alpha"}

// Thresholds are the numeric limits checks compare snapshot facts against
type Thresholds struct {
	MaxFcpMs              int64   `json:"max_fcp_ms" yaml:"max_fcp_ms"`
	MinContrastRatio      float64 `json:"min_contrast_ratio" yaml:"min_contrast_ratio"`
	MinLargeContrastRatio float64 `json:"min_large_contrast_ratio" yaml:"min_large_contrast_ratio"`
	MinMobileFontPx       float64 `json:"min_mobile_font_px" yaml:"min_mobile_font_px"`
	MinCarouselIntervalMs int64   `json:"min_carousel_interval_ms" yaml:"min_carousel_interval_ms"`
	MaxImageBytes         int64   `json:"max_image_bytes" yaml:"max_image_bytes"`
	MaxImageWidthPx       int     `json:"max_image_width_px" yaml:"max_image_width_px"`
	MaxPageBytes          int64   `json:"max_page_bytes" yaml:"max_page_bytes"`
	MaxInlineScriptBytes  int64   `json:"max_inline_script_bytes" yaml:"max_inline_script_bytes"`
	MinifyWhitespaceRatio float64 `json:"minify_whitespace_ratio" yaml:"minify_whitespace_ratio"`
	MinifyMinBytes        int64   `json:"minify_min_bytes" yaml:"minify_min_bytes"`
	MaxTitleLength        int     `json:"max_title_length" yaml:"max_title_length"`
	MinTitleLength        int     `json:"min_title_length" yaml:"min_title_length"`
	MaxDistinctCTAs       int     `json:"max_distinct_ctas" yaml:"max_distinct_ctas"`
	MaxParityImageDelta   int     `json:"max_parity_image_delta" yaml:"max_parity_image_delta"`
}

// DefaultThresholds returns the stock limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxFcpMs:              4000,
		MinContrastRatio:      4.5,
		MinLargeContrastRatio: 3.0,
		MinMobileFontPx:       14,
		MinCarouselIntervalMs: 3000,
		MaxImageBytes:         500 * 1024,
		MaxImageWidthPx:       2000,
		MaxPageBytes:          3 * 1024 * 1024,
		MaxInlineScriptBytes:  50 * 1024,
		MinifyWhitespaceRatio: 0.15,
		MinifyMinBytes:        1024,
		MaxTitleLength:        60,
		MinTitleLength:        10,
		MaxDistinctCTAs:       5,
		MaxParityImageDelta:   3,
	}
}

// withDefaults fills zero-valued limits from DefaultThresholds
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.MaxFcpMs == 0 {
		t.MaxFcpMs = d.MaxFcpMs
	}
	if t.MinContrastRatio == 0 {
		t.MinContrastRatio = d.MinContrastRatio
	}
	if t.MinLargeContrastRatio == 0 {
		t.MinLargeContrastRatio = d.MinLargeContrastRatio
	}
	if t.MinMobileFontPx == 0 {
		t.MinMobileFontPx = d.MinMobileFontPx
	}
	if t.MinCarouselIntervalMs == 0 {
		t.MinCarouselIntervalMs = d.MinCarouselIntervalMs
	}
	if t.MaxImageBytes == 0 {
		t.MaxImageBytes = d.MaxImageBytes
	}
	if t.MaxImageWidthPx == 0 {
		t.MaxImageWidthPx = d.MaxImageWidthPx
	}
	if t.MaxPageBytes == 0 {
		t.MaxPageBytes = d.MaxPageBytes
	}
	if t.MaxInlineScriptBytes == 0 {
		t.MaxInlineScriptBytes = d.MaxInlineScriptBytes
	}
	if t.MinifyWhitespaceRatio == 0 {
		t.MinifyWhitespaceRatio = d.MinifyWhitespaceRatio
	}
	if t.MinifyMinBytes == 0 {
		t.MinifyMinBytes = d.MinifyMinBytes
	}
	if t.MaxTitleLength == 0 {
		t.MaxTitleLength = d.MaxTitleLength
	}
	if t.MinTitleLength == 0 {
		t.MinTitleLength = d.MinTitleLength
	}
	if t.MaxDistinctCTAs == 0 {
		t.MaxDistinctCTAs = d.MaxDistinctCTAs
	}
	if t.MaxParityImageDelta == 0 {
		t.MaxParityImageDelta = d.MaxParityImageDelta
	}
	return t
}

// QAContext carries the hints supplied alongside a target URL. A context is
// treated as read-only for the whole run.
type QAContext struct {
	ClientName         string     `json:"client_name,omitempty"`
	CampaignName       string     `json:"campaign_name,omitempty"`
	TaskID             string     `json:"task_id,omitempty"`
	FigmaURL           string     `json:"figma_url,omitempty"`
	CopyDocURL         string     `json:"copy_doc_url,omitempty"`
	ExpectedFormID     string     `json:"expected_form_id"`
	ExpectedCTAText    string     `json:"expected_cta_text,omitempty"`
	ExpectedRedirect   []string   `json:"expected_redirect,omitempty"`
	StandardFieldNames []string   `json:"standard_field_names,omitempty"`
	TransparencyHints  []string   `json:"transparency_hints,omitempty"`
	Thresholds         Thresholds `json:"thresholds"`
}

// WithDefaults returns a copy with every absent hint replaced by its default
func (c QAContext) WithDefaults() QAContext {
	out := c
	if out.ExpectedFormID == "" {
		out.ExpectedFormID = DefaultFormID
	}
	if len(out.StandardFieldNames) == 0 {
		out.StandardFieldNames = append([]string(nil), DefaultStandardFieldNames...)
	} else {
		out.StandardFieldNames = append([]string(nil), c.StandardFieldNames...)
	}
	if len(out.TransparencyHints) == 0 {
		out.TransparencyHints = append([]string(nil), DefaultTransparencyHints...)
	} else {
		out.TransparencyHints = append([]string(nil), c.TransparencyHints...)
	}
	out.ExpectedRedirect = append([]string(nil), c.ExpectedRedirect...)
	out.Thresholds = c.Thresholds.withDefaults()
	return out
}
