package checks

import (
	"github.com/lance13c/lpqa/internal/types"
)

func i64(v int64) *int64 { return &v }

func str(v string) *string { return &v }

func boolp(v bool) *bool { return &v }

// healthyDesktop is a desktop snapshot on which every automatable check passes
func healthyDesktop() *types.PageSnapshot {
	return &types.PageSnapshot{
		Viewport:     types.Viewport{Name: types.Desktop, Width: 1440, Height: 900},
		RequestedURL: "https://go.acme.com/quote",
		URL:          "https://go.acme.com/quote?utm_source=lpqa_probe",
		FinalURL:     "https://go.acme.com/quote?utm_source=lpqa_probe",
		StatusCode:   200,
		Title:        "Acme Solar | Get a free quote",
		MetaTags:     map[string]string{"og:title": "Acme Solar"},
		Headings: []types.Heading{
			{Level: 1, Text: "Get a free solar quote"},
			{Level: 2, Text: "Why homeowners choose us"},
			{Level: 2, Text: "How the rebate works"},
		},
		Images: []types.Image{
			{Src: "https://go.acme.com/hero.webp", DeclaredWidth: 1200, DeclaredHeight: 600, NaturalWidth: 1200, NaturalHeight: 600, Format: "webp", ByteSize: 120000, Srcset: "hero-800.webp 800w"},
			{Src: "https://go.acme.com/logo-transparent.png", Alt: "Acme", DeclaredWidth: 200, DeclaredHeight: 80, NaturalWidth: 400, NaturalHeight: 160, Format: "png", HasAlpha: true, ByteSize: 9000},
		},
		Links: []types.Link{
			{Href: "#lp-pom-form-42", Text: "Get my quote", Tag: "a"},
			{Href: "https://go.acme.com/terms", Text: "Terms & Conditions", Tag: "a"},
			{Href: "https://go.acme.com/privacy", Text: "Privacy Policy", Tag: "a"},
			{Href: "https://go.acme.com/disclaimer", Text: "Disclaimer", Tag: "a"},
		},
		CTAs: []types.CTA{
			{Text: "Get my quote", Tag: "a", Href: "#lp-pom-form-42"},
			{Text: "Check my eligibility", Tag: "button"},
		},
		Forms: []types.Form{{
			ID: "lp-pom-form-42", Action: "https://go.acme.com/thank-you", Method: "post",
			Fields: []types.FormField{
				{Name: "first_name", Type: "text", Label: "First name", Placeholder: "Jane", Required: true},
				{Name: "email", Type: "email", Label: "Email", Placeholder: "jane@example.com", Required: true},
				{Name: "utm_source", Type: "hidden"},
			},
		}},
		Scripts: []types.Resource{
			{Src: "https://www.googletagmanager.com/gtm.js?id=GTM-ABCD12", Bytes: 90000, Async: true, InHead: true, WhitespaceRatio: 0.02},
			{Hash: "sha256:0123456789abcdef", Bytes: 800, WhitespaceRatio: 0.3},
		},
		Styles: []types.Resource{
			{Src: "https://go.acme.com/app.css", Bytes: 20000, InHead: true, WhitespaceRatio: 0.05},
		},
		FontsUsed:  []string{"Arial", "Inter"},
		ColorsUsed: map[string]string{"body": "rgb(17, 17, 17)", "body:background": "rgb(255, 255, 255)"},
		PlaceholderStyles: []types.PlaceholderStyle{
			{Field: "email", PlaceholderColor: "rgb(117, 117, 117)", TextColor: "rgb(17, 17, 17)", Background: "rgb(255, 255, 255)"},
		},
		AnimationMarkers: []string{"aos"},
		VisibleText:      "Get a free solar quote. Plans from $49 per month. Only $49 to start.",
		TagManagerIDs:    []string{"GTM-ABCD12"},
		NetworkRequests: []types.NetworkRequest{
			{URL: "https://go.acme.com/quote?utm_source=lpqa_probe", Status: 200, SizeBytes: 40000, ContentType: "text/html", ResourceType: "Document", Document: true, Completed: true,
				Headers: map[string]string{"content-encoding": "br", "cache-control": "no-cache"}},
			{URL: "https://go.acme.com/app.css", Status: 200, SizeBytes: 20000, ContentType: "text/css", ResourceType: "Stylesheet", Completed: true,
				Headers: map[string]string{"content-encoding": "gzip", "cache-control": "public, max-age=31536000"}},
			{URL: "https://go.acme.com/hero.webp", Status: 200, SizeBytes: 120000, ContentType: "image/webp", ResourceType: "Image", Completed: true,
				Headers: map[string]string{"cache-control": "max-age=86400"}},
		},
		LoadTimeMs:    i64(2400),
		FirstPaintMs:  i64(1200),
		PageSizeBytes: 180000,
		Screenshot:    "qa_output/shots/desktop.jpg",
		CTAHover: &types.HoverProbe{
			Text:   "Get my quote",
			Before: types.HoverStyle{Color: "rgb(255, 255, 255)", Background: "rgb(0, 102, 204)"},
			After:  types.HoverStyle{Color: "rgb(255, 255, 255)", Background: "rgb(0, 82, 163)"},
		},
		Probe: &types.ParamProbe{Key: "utm_source", Value: "lpqa_probe"},
	}
}

// healthyMobile is the mobile counterpart of healthyDesktop
func healthyMobile() *types.PageSnapshot {
	d := healthyDesktop()
	return &types.PageSnapshot{
		Viewport:     types.Viewport{Name: types.Mobile, Width: 375, Height: 812, Mobile: true},
		RequestedURL: d.RequestedURL,
		URL:          "https://go.acme.com/quote",
		FinalURL:     "https://go.acme.com/quote",
		StatusCode:   200,
		Title:        d.Title,
		Headings:     d.Headings,
		Images:       d.Images,
		Forms:        d.Forms,
		CTAs:         d.CTAs,
		TextStyles: []types.TextStyle{
			{Selector: "p", Color: "rgb(17, 17, 17)", Background: "rgb(255, 255, 255)", FontSizePx: 16},
			{Selector: "h1", Color: "rgb(118, 118, 118)", Background: "rgb(255, 255, 255)", FontSizePx: 28, Bold: true},
		},
		FirstPaintMs:  i64(1500),
		Screenshot:    "qa_output/shots/mobile.jpg",
		HasStickyCTA:  boolp(true),
		StickyCTAText: str("Get my quote"),
		ViewportMeta:  str("width=device-width, initial-scale=1"),
	}
}

func healthyInput() *Input {
	return &Input{
		Desktop: healthyDesktop(),
		Mobile:  healthyMobile(),
		Context: types.QAContext{ClientName: "Acme", ExpectedCTAText: "get my quote"}.WithDefaults(),
	}
}
