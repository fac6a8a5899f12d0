package checks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lance13c/lpqa/internal/types"
)

func cpy(ref, text string) Item {
	return Item{Role: types.RoleCopywriter, Ref: ref, Text: text}
}

// copywriterChecks holds the copywriter-owned entries. CPY-004, CPY-006 and
// CPY-010 are labels on shared checks.
func copywriterChecks() []Check {
	return []Check{
		check("Desktop/mobile copy parity", NeedsBoth, checkCopyParity,
			cpy("CPY-001", "Check all the below for both Desktop and Mobile."),
		),
		check("Spelling and grammar", NeedsDesktop, checkSpelling,
			cpy("CPY-002", "Consistent spelling and grammar including capitalisation."),
		),
		check("Capitalisation", NeedsDesktop, checkCapitalisation,
			cpy("CPY-003", "Consistent capitalisation across headings and CTAs."),
		),
		check("Meta title", NeedsDesktop, checkMetaTitle,
			cpy("CPY-005", "Meta page title is set and meaningful."),
		),
		check("CRO vault entry", NeedsNone, unautomatable("the CRO vault tracker is updated by hand"),
			cpy("CPY-007", "Add page name and full unbounce URL to the CRO vault landing page tracker."),
		),
		check("CTA copy clarity", NeedsMobile, checkCTAClarity,
			cpy("CPY-008", "General UX looking at spacing, sticky CTA buttons and information hierarchy."),
		),
		check("Form labels", NeedsDesktop, checkFormLabels,
			cpy("CPY-009", "Form field labels are clear and user-friendly."),
		),
		check("CTA copy variety", NeedsDesktop, checkCTAVariety,
			cpy("CPY-011", "CTA buttons use clear, benefit-driven copy."),
		),
	}
}

func checkCopyParity(in *Input) Verdict {
	d, m := in.Desktop, in.Mobile
	if len(d.Headings) == 0 && len(m.Headings) == 0 {
		return skip(types.SkipMissingSignal, "no headings on either viewport")
	}
	onMobile := make(map[string]bool, len(m.Headings))
	for _, h := range m.Headings {
		onMobile[normalize(h.Text)] = true
	}
	var missing []string
	for _, h := range d.Headings {
		if h.Text != "" && !onMobile[normalize(h.Text)] {
			missing = append(missing, truncate(h.Text, 60))
		}
	}
	missing = distinct(missing)
	if len(missing) > 0 {
		return warn("%d desktop heading(s) missing on mobile", len(missing)).with(firstLines(missing, 5)...)
	}
	return pass("all %d desktop heading(s) appear on mobile", len(d.Headings))
}

func checkSpelling(in *Input) Verdict {
	set := make(map[string]bool)
	for _, w := range misspellingPattern.FindAllString(in.Desktop.VisibleText, -1) {
		set[strings.ToLower(w)] = true
	}
	if len(set) == 0 {
		return skip(types.SkipUnautomatable, "no common misspellings found; a full proofread needs a human")
	}
	words := make([]string, 0, len(set))
	for w := range set {
		words = append(words, w)
	}
	sort.Strings(words)
	return warn("common misspelling(s) found: %s", preview(words, 5))
}

func checkCapitalisation(in *Input) Verdict {
	var texts []string
	for _, h := range in.Desktop.Headings {
		if h.Text != "" {
			texts = append(texts, h.Text)
		}
	}
	if len(texts) < 2 {
		return skip(types.SkipNotApplicable, "fewer than two headings to compare")
	}
	byCase := make(map[headingCase][]string)
	for _, t := range texts {
		c := classifyCase(t)
		byCase[c] = append(byCase[c], t)
	}
	title, sentence := byCase[caseTitle], byCase[caseSentence]
	if len(title) > 0 && len(sentence) > 0 {
		return warn("headings mix %d Title Case and %d Sentence case", len(title), len(sentence)).
			with(fmt.Sprintf("%s: %s", caseTitle, truncate(title[0], 60)),
				fmt.Sprintf("%s: %s", caseSentence, truncate(sentence[0], 60)))
	}
	return pass("capitalisation consistent across %d heading(s)", len(texts))
}

func checkMetaTitle(in *Input) Verdict {
	d := in.Desktop
	t := in.Context.Thresholds
	title := d.Title
	if title == "" {
		return fail("no <title>; the page needs a descriptive title for search and browser tabs")
	}
	n := len([]rune(title))
	var issues []string
	if n > t.MaxTitleLength {
		issues = append(issues, fmt.Sprintf("%d characters (keep to %d)", n, t.MaxTitleLength))
	}
	if n < t.MinTitleLength {
		issues = append(issues, fmt.Sprintf("only %d characters", n))
	}
	for _, p := range placeholderTitles {
		if containsFold(title, p) {
			issues = append(issues, "looks like a placeholder")
			break
		}
	}
	if len(issues) > 0 {
		return warn("title %q: %s", truncate(title, 60), strings.Join(issues, "; "))
	}
	if og := d.MetaTags["og:title"]; og != "" {
		return pass("title %q (%d chars), og:title %q", title, n, truncate(og, 60))
	}
	return pass("title %q (%d chars)", title, n)
}

func checkCTAClarity(in *Input) Verdict {
	ctas := in.Mobile.CTAs
	if len(ctas) == 0 {
		return warn("no CTA buttons detected on mobile; the page may lack a clear call to action")
	}
	var texts, vague []string
	for _, c := range ctas {
		texts = append(texts, c.Text)
		if vagueCTAs[normalize(c.Text)] {
			vague = append(vague, c.Text)
		}
	}
	vague = distinct(vague)
	if len(vague) > 0 {
		return warn("vague CTA copy: %s; use action-specific language", preview(vague, 3))
	}
	return pass("CTA copy is specific: %s", preview(distinct(texts), 3))
}

func checkFormLabels(in *Input) Verdict {
	forms := in.Desktop.Forms
	if len(forms) == 0 {
		return skip(types.SkipNotApplicable, "page has no form")
	}
	var fields int
	var unlabelled []string
	for _, f := range forms {
		for _, fld := range f.Fields {
			switch fld.Type {
			case "hidden", "submit", "button", "image", "reset":
				continue
			}
			fields++
			if strings.TrimSpace(fld.Label) != "" {
				continue
			}
			name := firstNonEmpty(fld.Name, fld.ID, fld.Type)
			if fld.Placeholder != "" {
				name += fmt.Sprintf(" (placeholder only: %q)", truncate(fld.Placeholder, 30))
			}
			unlabelled = append(unlabelled, name)
		}
	}
	if fields == 0 {
		return skip(types.SkipNotApplicable, "forms have no visible fields")
	}
	if len(unlabelled) > 0 {
		return warn("%d of %d field(s) have no label", len(unlabelled), fields).with(firstLines(unlabelled, 5)...)
	}
	return pass("all %d field(s) are labelled", fields)
}

func checkCTAVariety(in *Input) Verdict {
	var texts []string
	for _, c := range in.Desktop.CTAs {
		if t := normalize(c.Text); len(t) > 2 && len(t) < 50 {
			texts = append(texts, t)
		}
	}
	texts = distinct(texts)
	if len(texts) == 0 {
		return skip(types.SkipMissingSignal, "no CTA copy found")
	}
	limit := in.Context.Thresholds.MaxDistinctCTAs
	if len(texts) > limit {
		return warn("%d distinct CTA texts compete for attention (more than %d)", len(texts), limit).
			with(firstLines(texts, 8)...)
	}
	return pass("%d distinct CTA text(s)", len(texts))
}
