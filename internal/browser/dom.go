package browser

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/lance13c/lpqa/internal/types"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DOMFacts are the structural facts read from the rendered document markup
type DOMFacts struct {
	Title            string
	MetaTags         map[string]string
	Headings         []types.Heading
	Links            []types.Link
	Forms            []types.Form
	Scripts          []types.Resource
	Styles           []types.Resource
	Carousels        []types.Carousel
	AnimationMarkers []string
	LogoLink         *string
	TagManagerIDs    []string
	Unbounce         bool
}

// carouselSelector matches the slider widgets of the common libraries
const carouselSelector = `[class*="carousel"], [class*="slider"], [class*="swiper"], [class*="slick"], [class*="splide"], [class*="glide"], [class*="owl-carousel"], [class*="flickity"], [data-ride="carousel"], [data-bs-ride="carousel"]`

const slideSelector = `.swiper-slide, .slick-slide:not(.slick-cloned), .splide__slide, .glide__slide, .carousel-item, .owl-item:not(.cloned), .flickity-cell`

var (
	gtmPattern      = regexp.MustCompile(`GTM-[A-Z0-9]{4,}`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	animationClass  = regexp.MustCompile(`(?i)^(aos|animate__\w+|animated|wow|fade-?in\w*|slide-?in\w*|reveal\w*|parallax\w*)$`)
	animationScript = regexp.MustCompile(`(?i)(aos|gsap|scrollreveal|wow(\.min)?\.js|lottie|animate)`)
)

var intervalAttrs = []string{
	"data-interval", "data-bs-interval", "data-autoplay-speed", "data-autoplay",
	"data-speed", "data-delay", "data-swiper-autoplay",
}

// ParseDOM extracts structural facts from rendered HTML. Relative URLs are
// resolved against base; fragment, javascript: and empty hrefs are kept as written.
func ParseDOM(rawHTML string, base *url.URL) (*DOMFacts, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML with goquery: %w", err)
	}

	facts := &DOMFacts{
		Title:    collapse(doc.Find("title").First().Text()),
		MetaTags: make(map[string]string),
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key := firstAttr(s, "name", "property", "http-equiv")
		if key == "" {
			return
		}
		content, _ := s.Attr("content")
		// later duplicates overwrite earlier ones
		facts.MetaTags[strings.ToLower(key)] = strings.TrimSpace(content)
	})

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))
		facts.Headings = append(facts.Headings, types.Heading{Level: level, Text: collapse(s.Text())})
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		target, _ := s.Attr("target")
		text := collapse(s.Text())
		if text == "" {
			text = firstAttr(s, "aria-label", "title")
		}
		facts.Links = append(facts.Links, types.Link{
			Href:   resolveHref(base, href),
			Text:   text,
			Target: target,
			Tag:    "a",
		})
	})

	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		facts.Forms = append(facts.Forms, parseForm(doc, s, base))
	})

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if !isJavaScript(s.AttrOr("type", "")) {
			return
		}
		res := types.Resource{
			Async:  hasAttr(s, "async"),
			Defer:  hasAttr(s, "defer"),
			InHead: inHead(s),
		}
		if src, ok := s.Attr("src"); ok && strings.TrimSpace(src) != "" {
			res.Src = resolveHref(base, src)
		} else {
			fingerprint(&res, s.Text())
			if res.Bytes == 0 {
				return
			}
		}
		facts.Scripts = append(facts.Scripts, res)
	})

	doc.Find(`link[rel~="stylesheet"], style`).Each(func(_ int, s *goquery.Selection) {
		res := types.Resource{InHead: inHead(s)}
		if goquery.NodeName(s) == "link" {
			href, _ := s.Attr("href")
			if strings.TrimSpace(href) == "" {
				return
			}
			res.Src = resolveHref(base, href)
		} else {
			fingerprint(&res, s.Text())
			if res.Bytes == 0 {
				return
			}
		}
		facts.Styles = append(facts.Styles, res)
	})

	facts.Carousels = parseCarousels(doc)
	facts.AnimationMarkers = animationMarkers(doc, facts.Scripts)
	facts.LogoLink = logoLink(doc, base)

	seen := map[string]bool{}
	for _, id := range gtmPattern.FindAllString(rawHTML, -1) {
		if !seen[id] {
			seen[id] = true
			facts.TagManagerIDs = append(facts.TagManagerIDs, id)
		}
	}
	sort.Strings(facts.TagManagerIDs)

	lower := strings.ToLower(rawHTML)
	facts.Unbounce = strings.Contains(lower, "unbounce") || doc.Find(`[id^="lp-pom-"]`).Length() > 0

	return facts, nil
}

func parseForm(doc *goquery.Document, s *goquery.Selection, base *url.URL) types.Form {
	form := types.Form{
		ID:     s.AttrOr("id", ""),
		Action: resolveHref(base, s.AttrOr("action", "")),
		Method: strings.ToLower(s.AttrOr("method", "get")),
	}

	s.Find("input, select, textarea").Each(func(_ int, f *goquery.Selection) {
		typ := strings.ToLower(f.AttrOr("type", goquery.NodeName(f)))
		switch typ {
		case "hidden", "submit", "button", "image", "reset":
			return
		}
		field := types.FormField{
			Name:        f.AttrOr("name", ""),
			Type:        typ,
			ID:          f.AttrOr("id", ""),
			Placeholder: f.AttrOr("placeholder", ""),
			Required:    hasAttr(f, "required") || f.AttrOr("aria-required", "") == "true",
			Value:       f.AttrOr("value", ""),
		}
		if goquery.NodeName(f) == "textarea" {
			field.Value = f.Text()
		}
		field.Label = fieldLabel(doc, f, field.ID)
		form.Fields = append(form.Fields, field)
	})

	return form
}

func fieldLabel(doc *goquery.Document, f *goquery.Selection, id string) string {
	if id != "" {
		label := doc.Find("label").FilterFunction(func(_ int, l *goquery.Selection) bool {
			return l.AttrOr("for", "") == id
		}).First()
		if text := collapse(label.Text()); text != "" {
			return text
		}
	}
	if text := collapse(f.Closest("label").Text()); text != "" {
		return text
	}
	return firstAttr(f, "aria-label", "title")
}

func parseCarousels(doc *goquery.Document) []types.Carousel {
	var out []types.Carousel
	doc.Find(carouselSelector).Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "input", "img", "script", "style":
			return
		}
		// only the outermost widget counts
		if s.ParentsFiltered(carouselSelector).Length() > 0 {
			return
		}

		c := types.Carousel{Classes: s.AttrOr("class", "")}
		c.Slides = s.Find(slideSelector).Length()
		if c.Slides == 0 {
			c.Slides = s.Find("img").Length()
		}

		candidates := s.AddSelection(s.Find("[data-swiper-autoplay], [data-interval], [data-bs-interval]").First())
		candidates.EachWithBreak(func(_ int, el *goquery.Selection) bool {
			for _, attr := range intervalAttrs {
				v, ok := el.Attr(attr)
				if !ok {
					continue
				}
				if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n > 0 {
					ms := n
					c.IntervalMs = &ms
					c.Autoplay = true
					return false
				}
				if b, err := strconv.ParseBool(v); err == nil && b {
					c.Autoplay = true
				}
			}
			return true
		})

		if cfg, ok := s.Attr("data-slick"); ok {
			var opts struct {
				Autoplay      bool  `json:"autoplay"`
				AutoplaySpeed int64 `json:"autoplaySpeed"`
			}
			if json.Unmarshal([]byte(cfg), &opts) == nil {
				if opts.Autoplay {
					c.Autoplay = true
				}
				if opts.AutoplaySpeed > 0 && c.IntervalMs == nil {
					ms := opts.AutoplaySpeed
					c.IntervalMs = &ms
				}
			}
		}
		if ride := firstAttr(s, "data-ride", "data-bs-ride"); ride == "carousel" {
			c.Autoplay = true
		}

		out = append(out, c)
	})
	return out
}

func animationMarkers(doc *goquery.Document, scripts []types.Resource) []string {
	set := map[string]bool{}
	doc.Find("[data-aos], [data-animate], [data-sal], [data-scroll], [class]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"data-aos", "data-animate", "data-sal", "data-scroll"} {
			if hasAttr(s, attr) {
				set["attr:"+attr] = true
			}
		}
		for _, cls := range strings.Fields(s.AttrOr("class", "")) {
			if animationClass.MatchString(cls) {
				set["class:"+cls] = true
			}
		}
	})
	for _, sc := range scripts {
		if sc.Src == "" {
			continue
		}
		u, err := url.Parse(sc.Src)
		if err != nil {
			continue
		}
		if m := animationScript.FindString(u.Path); m != "" {
			set["script:"+strings.ToLower(m)] = true
		}
	}
	return sortedKeys(set)
}

func logoLink(doc *goquery.Document, base *url.URL) *string {
	var href *string
	doc.Find(`img, svg, [class*="logo"], [id*="logo"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		hint := strings.ToLower(s.AttrOr("class", "") + " " + s.AttrOr("id", "") + " " + s.AttrOr("alt", "") + " " + s.AttrOr("src", ""))
		if !strings.Contains(hint, "logo") {
			return true
		}
		a := s.Closest("a[href]")
		if a.Length() == 0 {
			a = s.Find("a[href]").First()
		}
		if a.Length() == 0 {
			return true
		}
		h := resolveHref(base, a.AttrOr("href", ""))
		href = &h
		return false
	})
	return href
}

// fingerprint records the size, hash and whitespace ratio of an inline body
func fingerprint(res *types.Resource, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	sum := sha256.Sum256([]byte(body))
	res.Hash = "sha256:" + hex.EncodeToString(sum[:])
	res.Bytes = int64(len(body))
	res.WhitespaceRatio = whitespaceRatio([]byte(body))
}

// whitespaceRatio is the share of whitespace runes in a code body. Minified
// bundles sit well under 0.1; hand-formatted code is usually above 0.2.
func whitespaceRatio(body []byte) float64 {
	if len(body) == 0 {
		return 0
	}
	total, ws := 0, 0
	for _, r := range string(body) {
		total++
		if unicode.IsSpace(r) {
			ws++
		}
	}
	return float64(ws) / float64(total)
}

func isJavaScript(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text/javascript", "application/javascript", "module", "text/ecmascript", "application/ecmascript":
		return true
	}
	return false
}

func inHead(s *goquery.Selection) bool {
	for n := s.Get(0).Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.DataAtom == atom.Head {
			return true
		}
	}
	return false
}

func hasAttr(s *goquery.Selection, name string) bool {
	_, ok := s.Attr(name)
	return ok
}

func firstAttr(s *goquery.Selection, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(s.AttrOr(n, "")); v != "" {
			return v
		}
	}
	return ""
}

func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "sms:") {
		return href
	}
	if base == nil {
		return href
	}
	u, err := base.Parse(href)
	if err != nil {
		return href
	}
	return u.String()
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
