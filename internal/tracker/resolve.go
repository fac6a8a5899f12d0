package tracker

import (
	"errors"
	"regexp"
	"strings"

	"github.com/lance13c/lpqa/internal/types"
)

// ErrNoURL is returned when no landing page URL can be found for a task
var ErrNoURL = errors.New("no landing page URL could be resolved")

// Source names where a resolved URL came from
type Source string

const (
	SourceOverride Source = "override"
	SourceField    Source = "custom_field"
	SourceNotes    Source = "notes"
	SourceParent   Source = "parent_notes"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// builderHosts are landing page builders; their URLs win over any other link
var builderHosts = []string{"unbounce", "instapage", "leadpages", "landingi"}

// internalHosts are tools whose links are never the page under test
var internalHosts = []string{
	"asana.com", "figma.com", "docs.google", "drive.google",
	"slack.com", "whimsical.com", "canva.com",
}

// Resolution is everything a task tells us about the page to check
type Resolution struct {
	URL        string
	Source     Source
	TaskID     string
	FigmaURL   string
	CopyDocURL string
	Client     string
	Campaign   string
}

// Apply copies the resolved hints into ctx without overwriting values the
// caller already set
func (r Resolution) Apply(ctx types.QAContext) types.QAContext {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&ctx.TaskID, r.TaskID)
	fill(&ctx.FigmaURL, r.FigmaURL)
	fill(&ctx.CopyDocURL, r.CopyDocURL)
	fill(&ctx.ClientName, r.Client)
	fill(&ctx.CampaignName, r.Campaign)
	return ctx
}

// Resolve finds the landing page URL for t. Precedence: an explicit
// override, then a custom field naming a landing page or URL, then the first
// page link in the task's own notes, then the parent task's notes.
func Resolve(t *Task, override string) (Resolution, error) {
	res := Resolution{TaskID: t.GID}

	text := t.Name + "\n" + t.Notes
	urls := extractURLs(text)
	res.FigmaURL = matchHost(urls, []string{"figma.com"})
	res.CopyDocURL = matchHost(urls, []string{"docs.google.com"})

	for _, f := range t.CustomFields {
		name := strings.ToLower(f.Name)
		switch {
		case strings.Contains(name, "client"):
			res.Client = f.Value()
		case strings.Contains(name, "campaign") || strings.Contains(name, "project"):
			res.Campaign = f.Value()
		}
	}
	if res.Campaign == "" {
		if t.Parent != nil && t.Parent.Name != "" {
			res.Campaign = t.Parent.Name
		} else {
			res.Campaign = t.Name
		}
	}

	switch {
	case strings.TrimSpace(override) != "":
		res.URL, res.Source = strings.TrimSpace(override), SourceOverride
	case fieldURL(t.CustomFields) != "":
		res.URL, res.Source = fieldURL(t.CustomFields), SourceField
	case pageURL(urls) != "":
		res.URL, res.Source = pageURL(urls), SourceNotes
	case t.Parent != nil && pageURL(extractURLs(t.Parent.Notes)) != "":
		res.URL, res.Source = pageURL(extractURLs(t.Parent.Notes)), SourceParent
	default:
		return res, ErrNoURL
	}
	return res, nil
}

func extractURLs(text string) []string {
	var out []string
	for _, u := range urlPattern.FindAllString(text, -1) {
		out = append(out, strings.TrimRight(u, ".,;:!?"))
	}
	return out
}

func matchHost(urls []string, patterns []string) string {
	for _, u := range urls {
		lower := strings.ToLower(u)
		for _, p := range patterns {
			if strings.Contains(lower, p) {
				return u
			}
		}
	}
	return ""
}

// pageURL picks the landing page among urls: a builder URL first, otherwise
// the first link that is not an internal tool
func pageURL(urls []string) string {
	if u := matchHost(urls, builderHosts); u != "" {
		return u
	}
	for _, u := range urls {
		if matchHost([]string{u}, internalHosts) == "" {
			return u
		}
	}
	return ""
}

// fieldURL returns the URL held by a custom field whose name mentions a
// landing page or URL
func fieldURL(fields []CustomField) string {
	for _, f := range fields {
		name := strings.ToLower(f.Name)
		if !strings.Contains(name, "landing page") && !strings.Contains(name, "url") {
			continue
		}
		if urls := extractURLs(f.Value()); len(urls) > 0 {
			return urls[0]
		}
	}
	return ""
}
