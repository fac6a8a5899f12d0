package browser

import (
	"net/url"
	"strings"
	"testing"
)

const fixtureHTML = `<!doctype html>
<html>
<head>
  <title>  Acme Solar | Free Quote </title>
  <meta name="description" content="first">
  <meta name="description" content="second">
  <meta property="og:title" content="Acme">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <script src="/js/app.js"></script>
  <script async src="https://www.googletagmanager.com/gtm.js?id=GTM-ABC123"></script>
  <script type="application/ld+json">{"@type":"Organization"}</script>
  <script>
    window.dataLayer = window.dataLayer || [];
    function gtag() { dataLayer.push(arguments); }
  </script>
  <link rel="stylesheet" href="styles.css">
  <style>body{margin:0}</style>
</head>
<body>
  <header><a href="https://other.example.com/"><img src="/img/logo.png" alt="Acme logo"></a></header>
  <h1>Go   solar today</h1>
  <section><h2>Why us</h2><h3>Savings</h3></section>
  <a href="#lp-pom-form-42" class="btn">Get a quote</a>
  <a href="javascript:void(0)">Dead</a>
  <a href="/terms" target="_blank">Terms</a>
  <div class="swiper" data-swiper-autoplay="2500">
    <div class="swiper-wrapper">
      <div class="swiper-slide"><img src="a.jpg"></div>
      <div class="swiper-slide"><img src="b.jpg"></div>
      <div class="swiper-slide"><img src="c.jpg"></div>
    </div>
  </div>
  <div class="slick-carousel" data-slick='{"autoplay": true, "autoplaySpeed": 5000}'><div class="slick-slide">1</div><div class="slick-slide slick-cloned">x</div></div>
  <p data-aos="fade-up" class="animate__fadeIn">Hello</p>
  <form id="lp-pom-form-42" action="/submit" method="POST">
    <label for="fn">First name</label><input id="fn" name="first_name" type="text" placeholder="Jane" required>
    <label>Email <input name="email" type="email"></label>
    <input name="field_3" type="text" aria-label="Postcode">
    <input type="hidden" name="utm_source">
    <textarea name="message">{{msg}}</textarea>
    <button type="submit">Submit</button>
  </form>
</body>
</html>`

func parseFixture(t *testing.T) *DOMFacts {
	t.Helper()
	base, _ := url.Parse("https://lp.example.com/offer/")
	facts, err := ParseDOM(fixtureHTML, base)
	if err != nil {
		t.Fatalf("ParseDOM() error = %v", err)
	}
	return facts
}

func TestParseDOMMetaLastWins(t *testing.T) {
	facts := parseFixture(t)
	if got := facts.MetaTags["description"]; got != "second" {
		t.Errorf("MetaTags[description] = %q, want second", got)
	}
	if got := facts.MetaTags["og:title"]; got != "Acme" {
		t.Errorf("MetaTags[og:title] = %q, want Acme", got)
	}
	if facts.Title != "Acme Solar | Free Quote" {
		t.Errorf("Title = %q", facts.Title)
	}
}

func TestParseDOMHeadingsInDocumentOrder(t *testing.T) {
	facts := parseFixture(t)
	want := []struct {
		level int
		text  string
	}{{1, "Go solar today"}, {2, "Why us"}, {3, "Savings"}}
	if len(facts.Headings) != len(want) {
		t.Fatalf("len(Headings) = %d, want %d", len(facts.Headings), len(want))
	}
	for i, w := range want {
		if facts.Headings[i].Level != w.level || facts.Headings[i].Text != w.text {
			t.Errorf("Headings[%d] = %+v, want %d %q", i, facts.Headings[i], w.level, w.text)
		}
	}
}

func TestParseDOMLinks(t *testing.T) {
	facts := parseFixture(t)
	byText := map[string]string{}
	for _, l := range facts.Links {
		byText[l.Text] = l.Href
	}
	tests := []struct {
		text string
		want string
	}{
		{"Get a quote", "#lp-pom-form-42"},
		{"Dead", "javascript:void(0)"},
		{"Terms", "https://lp.example.com/terms"},
	}
	for _, tt := range tests {
		if got := byText[tt.text]; got != tt.want {
			t.Errorf("href for %q = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParseDOMForms(t *testing.T) {
	facts := parseFixture(t)
	if len(facts.Forms) != 1 {
		t.Fatalf("len(Forms) = %d, want 1", len(facts.Forms))
	}
	f := facts.Forms[0]
	if f.ID != "lp-pom-form-42" || f.Method != "post" || f.Action != "https://lp.example.com/submit" {
		t.Errorf("form = %+v", f)
	}
	if len(f.Fields) != 4 {
		t.Fatalf("len(Fields) = %d, want 4 (hidden and submit excluded)", len(f.Fields))
	}
	if f.Fields[0].Label != "First name" || !f.Fields[0].Required || f.Fields[0].Placeholder != "Jane" {
		t.Errorf("Fields[0] = %+v", f.Fields[0])
	}
	if !strings.HasPrefix(f.Fields[1].Label, "Email") {
		t.Errorf("Fields[1].Label = %q, want wrapping label text", f.Fields[1].Label)
	}
	if f.Fields[2].Label != "Postcode" {
		t.Errorf("Fields[2].Label = %q, want aria-label", f.Fields[2].Label)
	}
	if f.Fields[3].Type != "textarea" || f.Fields[3].Value != "{{msg}}" {
		t.Errorf("Fields[3] = %+v", f.Fields[3])
	}
}

func TestParseDOMScriptsAndStyles(t *testing.T) {
	facts := parseFixture(t)
	if len(facts.Scripts) != 3 {
		t.Fatalf("len(Scripts) = %d, want 3 (ld+json excluded)", len(facts.Scripts))
	}
	if facts.Scripts[0].Src != "https://lp.example.com/js/app.js" || !facts.Scripts[0].InHead {
		t.Errorf("Scripts[0] = %+v", facts.Scripts[0])
	}
	if !facts.Scripts[1].Async {
		t.Errorf("Scripts[1].Async = false, want true")
	}
	inline := facts.Scripts[2]
	if !inline.Inline() || !strings.HasPrefix(inline.Hash, "sha256:") || inline.Bytes == 0 {
		t.Errorf("inline script = %+v", inline)
	}
	if len(facts.Styles) != 2 || facts.Styles[0].Src != "https://lp.example.com/offer/styles.css" {
		t.Errorf("Styles = %+v", facts.Styles)
	}
}

func TestParseDOMCarousels(t *testing.T) {
	facts := parseFixture(t)
	if len(facts.Carousels) != 2 {
		t.Fatalf("len(Carousels) = %d, want 2", len(facts.Carousels))
	}
	sw := facts.Carousels[0]
	if sw.Slides != 3 || sw.IntervalMs == nil || *sw.IntervalMs != 2500 || !sw.Autoplay {
		t.Errorf("swiper = %+v", sw)
	}
	sl := facts.Carousels[1]
	if sl.Slides != 1 || sl.IntervalMs == nil || *sl.IntervalMs != 5000 || !sl.Autoplay {
		t.Errorf("slick = %+v", sl)
	}
}

func TestParseDOMMarkers(t *testing.T) {
	facts := parseFixture(t)
	if facts.LogoLink == nil || *facts.LogoLink != "https://other.example.com/" {
		t.Errorf("LogoLink = %v", facts.LogoLink)
	}
	if len(facts.TagManagerIDs) != 1 || facts.TagManagerIDs[0] != "GTM-ABC123" {
		t.Errorf("TagManagerIDs = %v", facts.TagManagerIDs)
	}
	if !facts.Unbounce {
		t.Errorf("Unbounce = false, want true (lp-pom id present)")
	}
	joined := strings.Join(facts.AnimationMarkers, ",")
	if !strings.Contains(joined, "attr:data-aos") || !strings.Contains(joined, "class:animate__fadeIn") {
		t.Errorf("AnimationMarkers = %v", facts.AnimationMarkers)
	}
}

func TestWhitespaceRatio(t *testing.T) {
	minified := []byte("function a(b){return b+1}var c=a(2);")
	pretty := []byte("function a(b) {\n    return b + 1;\n}\n\nvar c = a(2);\n")
	if r := whitespaceRatio(minified); r > 0.1 {
		t.Errorf("whitespaceRatio(minified) = %.2f, want < 0.1", r)
	}
	if r := whitespaceRatio(pretty); r < 0.15 {
		t.Errorf("whitespaceRatio(pretty) = %.2f, want >= 0.15", r)
	}
}
