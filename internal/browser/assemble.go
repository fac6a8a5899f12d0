package browser

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/lance13c/lpqa/internal/types"
)

var gtmRequest = regexp.MustCompile(`googletagmanager\.com/gtm\.js\?id=(GTM-[A-Z0-9]{4,})`)

// captureData is everything one capture collected before it becomes a snapshot
type captureData struct {
	viewport     types.Viewport
	requestedURL string
	navURL       string
	finalURL     string
	probe        *types.ParamProbe
	facts        pageFacts
	dom          *DOMFacts
	state        trackerState
	bodies       map[string][]byte
	hover        *types.HoverProbe
	screenshot   string
	capturedAt   time.Time
}

// assemble builds the immutable snapshot from collected capture data
func assemble(d captureData) *types.PageSnapshot {
	dom := d.dom
	if dom == nil {
		dom = &DOMFacts{MetaTags: map[string]string{}}
	}

	snap := &types.PageSnapshot{
		Viewport:         d.viewport,
		RequestedURL:     d.requestedURL,
		URL:              d.navURL,
		FinalURL:         d.navURL,
		CapturedAt:       d.capturedAt,
		Title:            d.facts.Title,
		MetaTags:         dom.MetaTags,
		Headings:         dom.Headings,
		Links:            dom.Links,
		CTAs:             d.facts.CTAs,
		Forms:            dom.Forms,
		Carousels:        dom.Carousels,
		ColorsUsed:       d.facts.Colors,
		TextStyles:       d.facts.TextStyles,
		LogoLink:         dom.LogoLink,
		VisibleText:      d.facts.VisibleText,
		Unbounce:         dom.Unbounce,
		ConsoleErrors:    d.state.consoleErrors,
		ConsoleWarnings:  d.state.consoleWarnings,
		PageErrors:       d.state.pageErrors,
		NetworkRequests:  d.state.requests,
		Screenshot:       d.screenshot,
	}
	snap.PlaceholderStyles = d.facts.Placeholders
	if snap.Title == "" {
		snap.Title = dom.Title
	}

	// FinalURL equals URL unless the page actually went somewhere else: an
	// HTTP redirect seen by the tracker, or a script navigation to a different
	// normalized URL. Chrome's trailing-slash rewrite of a bare host is neither.
	snap.RedirectChain = append([]string(nil), d.state.redirects...)
	moved := d.finalURL != "" && normalizeURL(d.finalURL) != normalizeURL(d.navURL)
	if len(snap.RedirectChain) > 0 || moved {
		if len(snap.RedirectChain) == 0 {
			snap.RedirectChain = []string{d.navURL}
		}
		if d.finalURL != "" {
			snap.FinalURL = d.finalURL
		}
	}

	sizes := make(map[string]int64)
	for _, req := range d.state.requests {
		if req.Document {
			snap.StatusCode = req.Status
		}
		if req.Completed {
			snap.PageSizeBytes += req.SizeBytes
			sizes[req.URL] = req.SizeBytes
		}
	}

	for _, img := range d.facts.Images {
		out := types.Image{
			Src:            img.Src,
			Alt:            img.Alt,
			DeclaredWidth:  img.Width,
			DeclaredHeight: img.Height,
			NaturalWidth:   img.NaturalWidth,
			NaturalHeight:  img.NaturalHeight,
			Srcset:         img.Srcset,
			InPicture:      img.InPicture,
			InCarousel:     img.InCarousel,
			Broken:         img.Broken,
			ByteSize:       sizes[img.Src],
		}
		body := decodeDataURI(img.Src)
		if body == nil {
			body = d.bodies[img.Src]
		}
		if body != nil {
			out.Format, out.HasAlpha = sniffImage(body)
			if out.ByteSize == 0 {
				out.ByteSize = int64(len(body))
			}
		}
		snap.Images = append(snap.Images, out)
	}

	snap.Scripts = withBodies(dom.Scripts, d.bodies, sizes)
	snap.Styles = withBodies(dom.Styles, d.bodies, sizes)

	snap.FontsUsed = uniqueSorted(d.facts.Fonts)

	markers := append([]string(nil), dom.AnimationMarkers...)
	for _, name := range d.facts.Animations {
		markers = append(markers, "css:"+name)
	}
	snap.AnimationMarkers = uniqueSorted(markers)

	ids := append([]string(nil), dom.TagManagerIDs...)
	for _, req := range d.state.requests {
		if m := gtmRequest.FindStringSubmatch(req.URL); m != nil {
			ids = append(ids, m[1])
		}
	}
	snap.TagManagerIDs = uniqueSorted(ids)

	snap.LoadTimeMs = roundMs(d.facts.LoadMs)
	snap.FirstPaintMs = roundMs(d.facts.FcpMs)
	if snap.FirstPaintMs != nil && snap.LoadTimeMs != nil && *snap.FirstPaintMs > *snap.LoadTimeMs {
		// instrumentation failure, not negative time
		snap.FirstPaintMs = nil
	}

	if d.viewport.Mobile {
		has := d.facts.Sticky != nil
		snap.HasStickyCTA = &has
		if has {
			text := d.facts.Sticky.Text
			snap.StickyCTAText = &text
		}
		vm := dom.MetaTags["viewport"]
		snap.ViewportMeta = &vm
	} else {
		snap.CTAHover = d.hover
		snap.Probe = d.probe
	}

	return snap
}

func withBodies(in []types.Resource, bodies map[string][]byte, sizes map[string]int64) []types.Resource {
	out := make([]types.Resource, 0, len(in))
	for _, r := range in {
		if r.Src != "" {
			if body, ok := bodies[r.Src]; ok {
				r.Bytes = int64(len(body))
				r.WhitespaceRatio = whitespaceRatio(body)
			} else if n, ok := sizes[r.Src]; ok {
				r.Bytes = n
			}
		}
		out = append(out, r)
	}
	return out
}

func roundMs(v *float64) *int64 {
	if v == nil || *v < 0 || math.IsNaN(*v) {
		return nil
	}
	ms := int64(math.Round(*v))
	return &ms
}

func uniqueSorted(in []string) []string {
	set := make(map[string]bool, len(in))
	for _, s := range in {
		if s != "" {
			set[s] = true
		}
	}
	return sortedKeys(set)
}

// normalizeURL canonicalises the parts of a URL Chrome rewrites on its own:
// scheme and host case, an empty path, and the fragment.
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// pageBase is the URL relative links resolve against: the location Chrome
// reports, or the navigated URL when that location is empty or unparseable.
func pageBase(finalURL, navURL string) (*url.URL, error) {
	if u, err := url.Parse(finalURL); err == nil && u.Host != "" {
		return u, nil
	}
	u, err := url.Parse(navURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", navURL, err)
	}
	return u, nil
}
