package checks

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	pricePattern       = regexp.MustCompile(`(?:[$€£]\s?\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?|\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?\s?(?:USD|AUD|NZD|GBP|EUR))`)
	genericFieldName   = regexp.MustCompile(`^(field|input|text|q|question|untitled)[_-]?\d*$`)
	codePattern        = regexp.MustCompile(`[{}<>]|%7[Bb]|%7[Dd]|\{\{|\[\[`)
	variantSuffix      = regexp.MustCompile(`/([a-c])/?$`)
	misspellingPattern = regexp.MustCompile(`(?i)\b(teh|recieve|recieved|occured|seperate|definately|accomodate|untill|wich|thier|goverment|garantee|guarentee|enviroment|sucess|succesful|adress|tommorow|begining|beleive|calender|concious|embarass|existance|independant|neccessary|occassion|persue|reccomend|refered|relevent|seige|supercede|truely|wierd)\b`)
)

// systemFonts are families every OS ships; a page rendering only these has
// lost its brand typeface
var systemFonts = map[string]bool{
	"serif": true, "sans-serif": true, "monospace": true, "cursive": true, "fantasy": true,
	"system-ui": true, "ui-sans-serif": true, "ui-serif": true, "ui-monospace": true, "ui-rounded": true,
	"-apple-system": true, "blinkmacsystemfont": true, "segoe ui": true, "arial": true,
	"helvetica": true, "helvetica neue": true, "times": true, "times new roman": true,
	"georgia": true, "verdana": true, "tahoma": true, "trebuchet ms": true,
	"courier": true, "courier new": true, "emoji": true, "apple color emoji": true,
	"segoe ui emoji": true, "noto color emoji": true,
}

var vagueCTAs = map[string]bool{
	"click here": true, "submit": true, "click": true, "go": true, "ok": true,
	"send": true, "here": true, "more": true, "enter": true,
}

var placeholderTitles = []string{"untitled", "landing page", "new page", "page title", "lorem ipsum"}

// legalLinks maps each footer requirement to the words that identify it
var legalLinks = []struct {
	name     string
	patterns []string
}{
	{"terms", []string{"terms", "t&c", "t&amp;c", "conditions"}},
	{"privacy", []string{"privacy"}},
	{"disclaimer", []string{"disclaimer"}},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// preview joins the first n items and notes how many were left out
func preview(items []string, n int) string {
	if len(items) <= n {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(items[:n], ", "), len(items)-n)
}

// firstLines returns at most n items, one per line
func firstLines(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func containsFold(haystack, needle string) bool {
	return needle != "" && strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// distinct returns the unique values of items in first-seen order
func distinct(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

// prices returns the distinct price strings in text, normalised and sorted
func prices(text string) []string {
	set := make(map[string]bool)
	for _, m := range pricePattern.FindAllString(text, -1) {
		set[strings.Join(strings.Fields(m), "")] = true
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// hasSMSVerification looks for one-time-code markup in the page copy
func hasSMSVerification(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "sms") && (strings.Contains(t, "verif") || strings.Contains(t, "otp") || strings.Contains(t, "one-time"))
}

type headingCase int

const (
	caseOther headingCase = iota
	caseTitle
	caseSentence
	caseUpper
)

// smallWords stay lower-case in title case
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "but": true, "by": true,
	"for": true, "in": true, "of": true, "on": true, "or": true, "the": true, "to": true,
	"with": true, "vs": true, "via": true, "from": true, "into": true,
}

// classifyCase decides whether a heading is written in title, sentence or upper case
func classifyCase(s string) headingCase {
	var words []string
	for _, w := range strings.Fields(s) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w != "" {
			words = append(words, w)
		}
	}
	if len(words) < 2 {
		return caseOther
	}
	if strings.ToUpper(s) == s && strings.ToLower(s) != s {
		return caseUpper
	}

	capped, lowered := 0, 0
	for i, w := range words {
		r := []rune(w)[0]
		if !unicode.IsLetter(r) {
			continue
		}
		if i > 0 && smallWords[strings.ToLower(w)] {
			continue
		}
		if i == 0 {
			if !unicode.IsUpper(r) {
				return caseOther
			}
			continue
		}
		if unicode.IsUpper(r) {
			capped++
		} else {
			lowered++
		}
	}
	switch {
	case capped > 0 && lowered == 0:
		return caseTitle
	case lowered > 0 && capped <= 1:
		// a single capital is usually a proper noun
		return caseSentence
	}
	return caseOther
}

func (c headingCase) String() string {
	switch c {
	case caseTitle:
		return "Title Case"
	case caseSentence:
		return "Sentence case"
	case caseUpper:
		return "UPPER CASE"
	}
	return "other"
}

// sameHost reports whether two absolute URLs point at the same host,
// ignoring a leading www.
func sameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.TrimPrefix(strings.ToLower(ua.Hostname()), "www.") ==
		strings.TrimPrefix(strings.ToLower(ub.Hostname()), "www.")
}

// deadHref reports hrefs that go nowhere when clicked
func deadHref(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	switch h {
	case "", "#", "#!", "javascript:void(0)", "javascript:void(0);", "javascript:;", "javascript:":
		return true
	}
	return false
}
