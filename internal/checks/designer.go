package checks

import (
	"fmt"
	"math"
	"strings"

	"github.com/lance13c/lpqa/internal/types"
)

func des(ref, text string) Item {
	return Item{Role: types.RoleDesigner, Ref: ref, Text: text}
}

// designerChecks holds the designer-owned entries. DES-002, DES-005 and
// DES-012 are labels on developer checks.
func designerChecks() []Check {
	return []Check{
		check("Padding and spacing", NeedsNone, checkSpacing,
			des("DES-001", "Check padding and spacing."),
		),
		check("Button links", NeedsDesktop, checkButtonLinks,
			des("DES-003", "Click all buttons to check links."),
		),
		check("Animations", NeedsDesktop, checkAnimations,
			des("DES-004", "Check all scroll animations, transitions and hover effects."),
		),
		check("Logo does not link out", NeedsDesktop, checkLogoLink,
			des("DES-006", "Check logo for link (Should not link out)."),
		),
		check("Desktop/mobile parity", NeedsBoth, checkParity,
			des("DES-007", "Check visual parity between desktop and mobile."),
		),
		check("Image quality", NeedsDesktop, checkImageQuality,
			des("DES-008", "Check images are high quality and not stretched."),
		),
		check("Accessibility contrast", NeedsMobile, checkContrast,
			des("DES-009", "Accessibility: font size on mobile and colour contrast."),
			cpy("CPY-004", "Accessibility such as font size on mobile and colour contrast."),
		),
		check("Responsive images", NeedsDesktop, checkResponsiveImages,
			des("DES-010", "Check responsive image handling."),
		),
		check("Information hierarchy", NeedsDesktop, checkHierarchy,
			des("DES-011", "General UX: spacing, sticky CTA buttons and information hierarchy."),
			cpy("CPY-006", "Information hierarchy reads clearly from the headline down."),
		),
	}
}

func checkSpacing(in *Input) Verdict {
	if in.Context.FigmaURL != "" {
		return skip(types.SkipUnautomatable, "requires external design source; compare against %s", in.Context.FigmaURL)
	}
	return skip(types.SkipUnautomatable, "requires external design source")
}

func checkButtonLinks(in *Input) Verdict {
	ctas := in.Desktop.CTAs
	if len(ctas) == 0 {
		return skip(types.SkipMissingSignal, "no buttons found")
	}
	var dead []string
	for _, c := range ctas {
		if c.Tag == "a" && deadHref(c.Href) {
			dead = append(dead, fmt.Sprintf("%q -> %q", truncate(c.Text, 40), c.Href))
		}
	}
	if len(dead) > 0 {
		return warn("%d button(s) have empty or placeholder links", len(dead)).with(firstLines(dead, 5)...)
	}
	return pass("%d button(s) link somewhere", len(ctas))
}

func checkAnimations(in *Input) Verdict {
	markers := in.Desktop.AnimationMarkers
	if len(markers) == 0 {
		return warn("no scroll animations or transitions detected; confirm against the design")
	}
	return pass("animation markers found: %s", preview(markers, 5))
}

func checkLogoLink(in *Input) Verdict {
	d := in.Desktop
	if d.LogoLink == nil {
		return pass("logo is not a link")
	}
	href := *d.LogoLink
	if strings.HasPrefix(href, "#") || href == "/" || deadHref(href) || sameHost(href, d.FinalURL) {
		return pass("logo links within the page (%s)", truncate(href, 60))
	}
	return fail("logo links out to %s", truncate(href, 100))
}

func checkParity(in *Input) Verdict {
	d, m := in.Desktop, in.Mobile
	var issues []string
	if len(d.Forms) != len(m.Forms) {
		issues = append(issues, fmt.Sprintf("form count: desktop %d, mobile %d", len(d.Forms), len(m.Forms)))
	}
	delta := len(d.Images) - len(m.Images)
	if delta < 0 {
		delta = -delta
	}
	if delta > in.Context.Thresholds.MaxParityImageDelta {
		issues = append(issues, fmt.Sprintf("image count: desktop %d, mobile %d", len(d.Images), len(m.Images)))
	}
	if len(issues) > 0 {
		return warn("desktop and mobile differ structurally").with(issues...)
	}
	return pass("desktop and mobile match (images %d/%d, forms %d/%d)", len(d.Images), len(m.Images), len(d.Forms), len(m.Forms))
}

func checkImageQuality(in *Input) Verdict {
	var judged int
	var flagged []string
	for _, img := range in.Desktop.Images {
		if img.NaturalWidth <= 50 || img.NaturalHeight == 0 || img.DeclaredWidth == 0 || img.DeclaredHeight == 0 {
			continue
		}
		judged++
		natural := float64(img.NaturalWidth) / float64(img.NaturalHeight)
		shown := float64(img.DeclaredWidth) / float64(img.DeclaredHeight)
		switch {
		case math.Abs(shown/natural-1) > 0.1:
			flagged = append(flagged, fmt.Sprintf("%s stretched: natural %dx%d, shown %dx%d",
				truncate(img.Src, 60), img.NaturalWidth, img.NaturalHeight, img.DeclaredWidth, img.DeclaredHeight))
		case float64(img.DeclaredWidth) > float64(img.NaturalWidth)*1.5:
			flagged = append(flagged, fmt.Sprintf("%s upscaled: natural %dpx, shown %dpx",
				truncate(img.Src, 60), img.NaturalWidth, img.DeclaredWidth))
		}
	}
	if judged == 0 {
		return skip(types.SkipNotApplicable, "no rendered images to judge")
	}
	if len(flagged) > 0 {
		return warn("%d image(s) look stretched or blurry", len(flagged)).with(firstLines(flagged, 5)...)
	}
	return pass("%d image(s) display at their natural proportions", judged)
}

// largeText follows the WCAG definition: 24px, or 18.66px when bold
func largeText(ts types.TextStyle) bool {
	return ts.FontSizePx >= 24 || (ts.Bold && ts.FontSizePx >= 18.66)
}

func checkContrast(in *Input) Verdict {
	m := in.Mobile
	t := in.Context.Thresholds

	styles := m.TextStyles
	if len(styles) == 0 && m.ColorsUsed["body"] != "" {
		styles = []types.TextStyle{{Selector: "body", Color: m.ColorsUsed["body"], Background: m.ColorsUsed["body:background"]}}
	}

	var judged int
	var low, small []string
	for _, ts := range styles {
		// size is judged even where the colours cannot be
		if ts.FontSizePx > 0 && ts.FontSizePx < t.MinMobileFontPx {
			small = append(small, fmt.Sprintf("%s: %.0fpx", ts.Selector, ts.FontSizePx))
		}
		if ts.OverImage {
			continue
		}
		ratio, ok := textContrast(ts.Color, ts.Background)
		if !ok {
			continue
		}
		judged++
		limit := t.MinContrastRatio
		if largeText(ts) {
			limit = t.MinLargeContrastRatio
		}
		if ratio < limit {
			low = append(low, fmt.Sprintf("%s: %.2f:1 (needs %.1f:1)", ts.Selector, ratio, limit))
		}
	}

	small = distinct(small)
	switch {
	case judged == 0 && len(small) == 0:
		return skip(types.SkipMissingSignal, "no text colours could be resolved at the mobile viewport")
	case len(low) > 0:
		ev := firstLines(distinct(low), 5)
		if len(small) > 0 {
			ev = append(ev, fmt.Sprintf("%d element(s) below %.0fpx", len(small), t.MinMobileFontPx))
		}
		return fail("%d text element(s) fall below the WCAG contrast minimum", len(low)).with(ev...)
	case len(small) > 0:
		return warn("%d text element(s) smaller than %.0fpx on mobile", len(small), t.MinMobileFontPx).
			with(firstLines(small, 5)...)
	}
	return pass("%d text element(s) meet contrast and size minimums on mobile", judged)
}

func checkResponsiveImages(in *Input) Verdict {
	images := in.Desktop.Images
	if len(images) == 0 {
		return skip(types.SkipNotApplicable, "no images on the page")
	}
	responsive := 0
	for _, img := range images {
		if img.Srcset != "" || img.InPicture {
			responsive++
		}
	}
	if responsive == 0 {
		return warn("no srcset or <picture> on %d image(s); mobile downloads desktop-sized files", len(images))
	}
	return pass("%d of %d image(s) use srcset or <picture>", responsive, len(images))
}

func checkHierarchy(in *Input) Verdict {
	headings := in.Desktop.Headings
	if len(headings) == 0 {
		return warn("page has no headings")
	}
	var issues []string
	h1 := 0
	for i, h := range headings {
		if h.Level == 1 {
			h1++
		}
		if i > 0 && h.Level > headings[i-1].Level+1 {
			issues = append(issues, fmt.Sprintf("h%d %q follows h%d", h.Level, truncate(h.Text, 40), headings[i-1].Level))
		}
	}
	if h1 != 1 {
		issues = append([]string{fmt.Sprintf("%d h1 element(s)", h1)}, issues...)
	}
	if len(issues) > 0 {
		return warn("heading structure needs review").with(firstLines(issues, 6)...)
	}
	return pass("one h1 and %d heading(s) without skipped levels", len(headings))
}
