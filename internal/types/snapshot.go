package types

import (
	"time"
)

// ViewportName identifies one of the two capture viewports
type ViewportName string

const (
	Desktop ViewportName = "desktop"
	Mobile  ViewportName = "mobile"
)

// Viewport describes the emulated device used for a capture
type Viewport struct {
	Name      ViewportName `json:"name" yaml:"name"`
	Width     int64        `json:"width" yaml:"width"`
	Height    int64        `json:"height" yaml:"height"`
	Mobile    bool         `json:"mobile" yaml:"mobile"`
	Scale     float64      `json:"scale,omitempty" yaml:"scale,omitempty"`
	UserAgent string       `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// PageSnapshot is the complete set of facts extracted from one rendered page
// at one viewport. Snapshots are built once by the extractor and never mutated.
type PageSnapshot struct {
	Viewport      Viewport  `json:"viewport"`
	RequestedURL  string    `json:"requested_url"`
	URL           string    `json:"url"`
	FinalURL      string    `json:"final_url"`
	RedirectChain []string  `json:"redirect_chain,omitempty"`
	StatusCode    int       `json:"status_code"`
	CapturedAt    time.Time `json:"captured_at"`

	Title     string            `json:"title"`
	MetaTags  map[string]string `json:"meta_tags"`
	Headings  []Heading         `json:"headings"`
	Images    []Image           `json:"images"`
	Links     []Link            `json:"links"`
	CTAs      []CTA             `json:"ctas"`
	Forms     []Form            `json:"forms"`
	Scripts   []Resource        `json:"scripts"`
	Styles    []Resource        `json:"stylesheets"`
	Carousels []Carousel        `json:"carousels,omitempty"`

	// FontsUsed is the sorted set of families the browser actually rendered
	FontsUsed         []string           `json:"fonts_used"`
	ColorsUsed        map[string]string  `json:"colors_used"`
	TextStyles        []TextStyle        `json:"text_styles"`
	PlaceholderStyles []PlaceholderStyle `json:"placeholder_styles"`
	AnimationMarkers  []string           `json:"animation_markers,omitempty"`
	LogoLink          *string            `json:"logo_link,omitempty"`
	VisibleText       string             `json:"visible_text"`
	TagManagerIDs     []string           `json:"tag_manager_ids,omitempty"`
	Unbounce          bool               `json:"unbounce"`

	ConsoleErrors   []string         `json:"console_errors"`
	ConsoleWarnings []string         `json:"console_warnings"`
	PageErrors      []string         `json:"page_errors"`
	NetworkRequests []NetworkRequest `json:"network_requests"`

	// Timing facts in milliseconds; nil means the metric was not captured
	LoadTimeMs    *int64 `json:"load_time_ms"`
	FirstPaintMs  *int64 `json:"first_paint_ms"`
	PageSizeBytes int64  `json:"page_size_bytes"`

	Screenshot string `json:"screenshot,omitempty"`

	// Mobile only. Nil on desktop snapshots.
	HasStickyCTA  *bool   `json:"has_sticky_cta"`
	StickyCTAText *string `json:"sticky_cta_text"`
	ViewportMeta  *string `json:"viewport_meta"`

	// Desktop only.
	CTAHover *HoverProbe `json:"cta_hover,omitempty"`
	Probe    *ParamProbe `json:"probe,omitempty"`
}

// Heading is an h1-h6 element in DOM order
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Image is a rendered <img> element with its decoded facts
type Image struct {
	Src            string `json:"src"`
	Alt            string `json:"alt"`
	DeclaredWidth  int    `json:"declared_width"`
	DeclaredHeight int    `json:"declared_height"`
	NaturalWidth   int    `json:"natural_width"`
	NaturalHeight  int    `json:"natural_height"`
	Format         string `json:"format"`
	HasAlpha       bool   `json:"has_alpha"`
	ByteSize       int64  `json:"byte_size"`
	Srcset         string `json:"srcset,omitempty"`
	InPicture      bool   `json:"in_picture"`
	InCarousel     bool   `json:"in_carousel,omitempty"`
	Broken         bool   `json:"broken,omitempty"`
}

// Link is an anchor element
type Link struct {
	Href   string `json:"href"`
	Text   string `json:"text"`
	Target string `json:"target,omitempty"`
	Tag    string `json:"tag"`
}

// CTA is a button-like element whose copy asks the visitor to act
type CTA struct {
	Text string `json:"text"`
	Tag  string `json:"tag"`
	Href string `json:"href,omitempty"`
}

// Form is a <form> element and its visible inputs
type Form struct {
	ID     string      `json:"id"`
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []FormField `json:"fields"`
}

// FormField is an input, select or textarea inside a form
type FormField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	ID          string `json:"id,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Label       string `json:"label,omitempty"`
	Required    bool   `json:"required"`
	Value       string `json:"value,omitempty"`
}

// Resource is a script or stylesheet. Inline bodies are kept only as a hash.
type Resource struct {
	Src             string  `json:"src,omitempty"`
	Hash            string  `json:"hash,omitempty"`
	Bytes           int64   `json:"bytes"`
	Async           bool    `json:"async,omitempty"`
	Defer           bool    `json:"defer,omitempty"`
	InHead          bool    `json:"in_head,omitempty"`
	WhitespaceRatio float64 `json:"whitespace_ratio"`
}

// Inline reports whether the resource body lives in the document
func (r Resource) Inline() bool {
	return r.Src == ""
}

// Carousel is a slider-like widget found in the markup
type Carousel struct {
	Classes    string `json:"classes"`
	Slides     int    `json:"slides"`
	IntervalMs *int64 `json:"interval_ms,omitempty"`
	Autoplay   bool   `json:"autoplay"`
}

// TextStyle is the resolved style of one text-bearing element
type TextStyle struct {
	Selector   string  `json:"selector"`
	Color      string  `json:"color"`
	Background string  `json:"background"`
	FontSizePx float64 `json:"font_size_px"`
	Bold       bool    `json:"bold"`
	OverImage  bool    `json:"over_image,omitempty"`
}

// PlaceholderStyle pairs a field's placeholder colour with its typed-text colour
type PlaceholderStyle struct {
	Field            string `json:"field"`
	PlaceholderColor string `json:"placeholder_color"`
	TextColor        string `json:"text_color"`
	Background       string `json:"background"`
}

// NetworkRequest is one request observed during the load lifecycle
type NetworkRequest struct {
	URL          string            `json:"url"`
	Status       int               `json:"status"`
	SizeBytes    int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type"`
	ResourceType string            `json:"resource_type"`
	Headers      map[string]string `json:"headers,omitempty"`
	Completed    bool              `json:"completed"`
	Document     bool              `json:"document,omitempty"`
}

// Header returns a response header by lower-case name
func (r NetworkRequest) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[name]
}

// HoverProbe records the first CTA's colours before and after pointer hover
type HoverProbe struct {
	Text   string     `json:"text"`
	Before HoverStyle `json:"before"`
	After  HoverStyle `json:"after"`
}

// HoverStyle is the subset of computed style a hover state usually changes
type HoverStyle struct {
	Color      string `json:"color"`
	Background string `json:"background"`
	Border     string `json:"border"`
}

// ParamProbe is the synthetic tracking parameter appended to the navigation URL
type ParamProbe struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DocumentRequest returns the primary document response, if one completed
func (s *PageSnapshot) DocumentRequest() *NetworkRequest {
	for i := range s.NetworkRequests {
		if s.NetworkRequests[i].Document {
			return &s.NetworkRequests[i]
		}
	}
	return nil
}

// Redirected reports whether navigation ended somewhere other than the requested URL
func (s *PageSnapshot) Redirected() bool {
	return len(s.RedirectChain) > 0
}
