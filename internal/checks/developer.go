package checks

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/lance13c/lpqa/internal/types"
)

func dev(ref, text string) Item {
	return Item{Role: types.RoleDeveloper, Ref: ref, Text: text}
}

// developerChecks is the developer checklist in ordinal order. Several
// entries also carry designer and copywriter labels.
func developerChecks() []Check {
	return []Check{
		check("Unbounce group", NeedsDesktop, checkUnbounceGroup,
			dev("DEV-001", "Ensure landing page is added to the correct group in Unbounce."),
		),
		check("New variant for updates", NeedsNone, unautomatable("requires the page's variant history in the builder"),
			dev("DEV-002", "For updates, ensure done on a new variant unless instructed otherwise."),
		),
		check("Fonts rendered", NeedsDesktop, checkFonts,
			dev("DEV-003", "Font family, colour, alignment and size match the design."),
			des("DES-002", "Double check fonts are correct."),
		),
		check("Images load", NeedsDesktop, checkImagesLoad,
			dev("DEV-004", "Images exactly the same as the ones in the design."),
		),
		check("Image format", NeedsDesktop, checkImageFormat,
			dev("DEV-005", "Use PNG only for transparent images; otherwise use modern formats (WebP)."),
		),
		check("Sticky CTA on mobile", NeedsMobile, checkStickyCTA,
			dev("DEV-006", "Sticky CTA bar has been added on mobile and is working accordingly."),
			des("DES-005", "Sticky CTA on mobile."),
		),
		check("Sticky CTA text", NeedsMobile, checkStickyCTAText,
			dev("DEV-007", "Ensure sticky CTA bar has the correct CTA text (should reference form)."),
		),
		check("Price consistency", NeedsDesktop, checkPrices,
			dev("DEV-008", "For price updates, ensure updated on all necessary sections."),
		),
		check("Copy matches copy doc", NeedsNone, checkCopyDoc,
			dev("DEV-009", "Copy exactly the same as the copy in copy doc."),
		),
		check("CTA scrolls to form", NeedsDesktop, checkCTAScroll,
			dev("DEV-010", "Call to action button scrolls to the right place on the form."),
		),
		check("CTA hover colour", NeedsDesktop, checkCTAHover,
			dev("DEV-011", "Call to action buttons change to the correct colour on hover."),
		),
		check("Carousel functioning", NeedsDesktop, checkCarousel,
			dev("DEV-012", "Check carousel is functioning correctly and has the correct images loaded."),
		),
		check("Carousel transition speed", NeedsDesktop, checkCarouselSpeed,
			dev("DEV-013", "For carousels on automatic transition, ensure transition speed is correct."),
		),
		check("Form fields present", NeedsDesktop, checkFormFields,
			dev("DEV-014", "Form fields match the design and brief."),
		),
		check("Standard field names", NeedsDesktop, checkFieldNames,
			dev("DEV-015", "When doing updates, ensure field names stay the same or use standard naming."),
		),
		check("Form identity", NeedsDesktop, checkFormID,
			dev("DEV-016", "Ensure the form uses this id: #lp-pom-form-42."),
		),
		check("Placeholder contrast", NeedsDesktop, checkPlaceholderContrast,
			dev("DEV-017", "Make sure form field placeholder text is lighter than typed text."),
		),
		check("Form validation", NeedsBoth, checkFormValidation,
			dev("DEV-018", "Form field validation working on both mobile and desktop."),
		),
		check("Form values free of codes", NeedsDesktop, checkFormValues,
			dev("DEV-019", "Ensure form field values do not contain any codes."),
		),
		check("Lead submission", NeedsNone, unautomatable("live lead submission needs known-good test data and a CRM sandbox"),
			dev("DEV-020", "You are able to submit a lead and check download is working."),
		),
		check("SMS client name", NeedsDesktop, checkSMSClientName,
			dev("DEV-021", "For SMS Verification, ensure that the client name is updated."),
		),
		check("SMS verification", NeedsDesktop, checkSMSVerification,
			dev("DEV-022", "Make sure SMS verification is showing and functioning."),
		),
		check("Redirect to thank-you", NeedsDesktop, checkRedirectTarget,
			dev("DEV-023", "Landing page redirects to the thank you / profile page after submission."),
		),
		check("Thank-you to confirmation", NeedsNone, unautomatable("multi-page redirect chains need a live form submission"),
			dev("DEV-024", "Thank you / profile page redirects to a confirmation page."),
		),
		check("URL parameter propagation", NeedsDesktop, checkParamPropagation,
			dev("DEV-025", "Ensure links carry over ULI/UTM parameters."),
		),
		check("Interactive elements", NeedsDesktop, checkDeadLinks,
			dev("DEV-026", "UX testing across all pages (click on anything that can be clicked)."),
		),
		check("Page title", NeedsDesktop, checkPageTitle,
			dev("DEV-027", "Page titles (LCP, thank-you and confirmation) correspond correctly."),
		),
		check("Console cleanliness", NeedsDesktop, checkConsole,
			dev("DEV-028", "Check console any time code is edited to ensure there are no errors."),
		),
		check("Script cleanup", NeedsDesktop, checkScriptCleanup,
			dev("DEV-029", "Cleanup unused scripts."),
		),
		check("URL free of variant letter", NeedsDesktop, checkVariantURL,
			dev("DEV-030", "Make sure URLs do not contain the variant letter when copied."),
		),
		check("Page speed", NeedsDesktop, checkPageSpeed,
			dev("DEV-031", "Page loading speed < 4 seconds first paint on Google Speed Test."),
			des("DES-012", "Page loads quickly with no layout delay on first paint."),
			cpy("CPY-010", "Copy is visible within 4 seconds of first paint."),
		),
		check("GTM present", NeedsDesktop, checkGTM,
			dev("DEV-032", "GTM implemented and set up correctly."),
		),
		check("Image compression", NeedsDesktop, checkImageCompression,
			dev("DEV-033", "Compress images, use modern formats (e.g., WebP), and optimise sizes."),
		),
		check("Code minification", NeedsDesktop, checkMinification,
			dev("DEV-034", "Minify, compress, remove unused code, and load critical CSS first."),
		),
		check("Server compression", NeedsDesktop, checkCompression,
			dev("DEV-035", "Ensure Gzip or Brotli compression is enabled for text-based resources."),
		),
		check("Footer legal links", NeedsDesktop, checkLegalLinks,
			dev("DEV-036", "Terms & Conditions, Privacy Policy, Disclaimer links verified in footer."),
		),
		check("Caching", NeedsDesktop, checkCaching,
			dev("DEV-037", "Caching policies verified, CDN for static assets."),
		),
		check("Viewport meta", NeedsMobile, checkViewportMeta,
			dev("DEV-038", "Responsive viewport meta tag is set for mobile."),
		),
		check("HTTP status", NeedsDesktop, checkHTTPStatus,
			dev("DEV-039", "Published URL responds successfully."),
		),
		check("Page weight", NeedsDesktop, checkPageWeight,
			dev("DEV-040", "Total page weight kept within budget."),
		),
		check("Render-blocking scripts", NeedsDesktop, checkRenderBlocking,
			dev("DEV-041", "Scripts in the head load async or deferred."),
		),
	}
}

func checkUnbounceGroup(in *Input) Verdict {
	if !in.Desktop.Unbounce {
		return skip(types.SkipNotApplicable, "page is not built on Unbounce")
	}
	if in.Context.ClientName != "" {
		return warn("page is built on Unbounce; confirm it sits in the %q group in the dashboard", in.Context.ClientName)
	}
	return warn("page is built on Unbounce; confirm it sits in the client's group in the dashboard")
}

func checkCopyDoc(in *Input) Verdict {
	if in.Context.CopyDocURL != "" {
		return skip(types.SkipUnautomatable, "requires external copy source; compare against %s", in.Context.CopyDocURL)
	}
	return skip(types.SkipUnautomatable, "requires external copy source")
}

func checkFonts(in *Input) Verdict {
	fonts := in.Desktop.FontsUsed
	if len(fonts) == 0 {
		return skip(types.SkipMissingSignal, "no rendered fonts were reported")
	}
	var web []string
	for _, f := range fonts {
		if !systemFonts[strings.ToLower(f)] {
			web = append(web, f)
		}
	}
	if len(web) == 0 {
		return warn("only system fonts rendered (%s); the brand typeface may have failed to load", preview(fonts, 5)).
			with(fonts...)
	}
	return pass("web fonts rendered: %s", preview(web, 5)).with(fonts...)
}

func checkImagesLoad(in *Input) Verdict {
	images := in.Desktop.Images
	if len(images) == 0 {
		return warn("no images found on the page")
	}
	var broken []string
	for _, img := range images {
		if img.Broken {
			broken = append(broken, truncate(img.Src, 100))
		}
	}
	if len(broken) > 0 {
		return fail("%d of %d image(s) failed to load", len(broken), len(images)).with(firstLines(broken, 5)...)
	}
	return pass("all %d image(s) loaded", len(images))
}

// needsTransparency reports whether an image's src or alt names a transparency hint
func needsTransparency(img types.Image, hints []string) bool {
	for _, h := range hints {
		if containsFold(img.Src, h) || containsFold(img.Alt, h) {
			return true
		}
	}
	return false
}

func checkImageFormat(in *Input) Verdict {
	var judged int
	var failed, flagged []string
	for _, img := range in.Desktop.Images {
		if img.Format == "" {
			continue
		}
		judged++
		switch {
		case img.Format == "jpeg" && needsTransparency(img, in.Context.TransparencyHints):
			failed = append(failed, fmt.Sprintf("%s (JPEG cannot be transparent)", truncate(img.Src, 80)))
		case img.Format == "png" && !img.HasAlpha:
			flagged = append(flagged, fmt.Sprintf("%s (PNG without alpha)", truncate(img.Src, 80)))
		}
	}
	switch {
	case judged == 0:
		return skip(types.SkipMissingSignal, "no images with a detectable format")
	case len(failed) > 0:
		return fail("%d image(s) need transparency but are served as JPEG", len(failed)).
			with(firstLines(append(failed, flagged...), 5)...)
	case len(flagged) > 0:
		return warn("%d opaque PNG(s) should likely be JPEG or WebP", len(flagged)).with(firstLines(flagged, 5)...)
	}
	return pass("%d image(s) use appropriate formats", judged)
}

func checkStickyCTA(in *Input) Verdict {
	m := in.Mobile
	if m.HasStickyCTA == nil {
		return skip(types.SkipMissingSignal, "sticky CTA detection did not run")
	}
	if !*m.HasStickyCTA {
		return fail("no fixed or sticky call-to-action found at the mobile viewport")
	}
	text := ""
	if m.StickyCTAText != nil {
		text = *m.StickyCTAText
	}
	return pass("sticky CTA present: %q", truncate(text, 60))
}

func checkStickyCTAText(in *Input) Verdict {
	m := in.Mobile
	want := strings.TrimSpace(in.Context.ExpectedCTAText)
	if want == "" {
		return skip(types.SkipMissingSignal, "no expected CTA text supplied")
	}
	if m.HasStickyCTA == nil || !*m.HasStickyCTA || m.StickyCTAText == nil {
		return skip(types.SkipMissingSignal, "no sticky CTA to compare against")
	}
	got := *m.StickyCTAText
	if normalize(got) != normalize(want) {
		return warn("sticky CTA reads %q, expected %q", got, want)
	}
	return pass("sticky CTA text matches %q", want)
}

func checkPrices(in *Input) Verdict {
	ps := prices(in.Desktop.VisibleText)
	switch len(ps) {
	case 0:
		return skip(types.SkipNotApplicable, "no prices found in page copy")
	case 1:
		return pass("one price used throughout: %s", ps[0])
	}
	return warn("%d different prices appear on the page; confirm every section was updated", len(ps)).
		with(strings.Join(ps, ", "))
}

// fragmentOf returns the anchor an href points at when it targets the page itself
func fragmentOf(href, page string) (string, bool) {
	idx := strings.IndexByte(href, '#')
	if idx < 0 || idx == len(href)-1 {
		return "", false
	}
	if idx > 0 {
		hu, err := url.Parse(href)
		if err != nil {
			return "", false
		}
		pu, err := url.Parse(page)
		if err != nil || !sameHost(href, page) || strings.TrimSuffix(hu.Path, "/") != strings.TrimSuffix(pu.Path, "/") {
			return "", false
		}
	}
	return href[idx+1:], true
}

func checkCTAScroll(in *Input) Verdict {
	d := in.Desktop
	if len(d.Forms) == 0 {
		return skip(types.SkipNotApplicable, "page has no form")
	}
	if len(d.CTAs) == 0 {
		return skip(types.SkipMissingSignal, "no CTAs found")
	}
	targets := map[string]bool{in.Context.ExpectedFormID: true}
	for _, f := range d.Forms {
		if f.ID != "" {
			targets[f.ID] = true
		}
	}

	var anchors []string
	for _, c := range d.CTAs {
		frag, ok := fragmentOf(c.Href, d.FinalURL)
		if !ok {
			continue
		}
		if targets[frag] {
			return pass("CTA %q scrolls to #%s", truncate(c.Text, 40), frag)
		}
		anchors = append(anchors, fmt.Sprintf("%q -> #%s", truncate(c.Text, 40), frag))
	}
	if len(anchors) > 0 {
		return warn("CTA anchors do not point at a form id; verify they land on the form").with(firstLines(anchors, 5)...)
	}
	return warn("no CTA links to a form anchor; verify the buttons scroll to the form")
}

func checkCTAHover(in *Input) Verdict {
	h := in.Desktop.CTAHover
	if h == nil {
		return skip(types.SkipMissingSignal, "no CTA available for a hover probe")
	}
	var changed []string
	if h.Before.Color != h.After.Color {
		changed = append(changed, "text colour")
	}
	if h.Before.Background != h.After.Background {
		changed = append(changed, "background")
	}
	if h.Before.Border != h.After.Border {
		changed = append(changed, "border")
	}
	if len(changed) == 0 {
		return warn("hovering %q changes nothing; confirm the hover state in the design", truncate(h.Text, 40)).
			with("color: "+h.Before.Color, "background: "+h.Before.Background)
	}
	return pass("hovering %q changes the %s", truncate(h.Text, 40), strings.Join(changed, " and ")).
		with(fmt.Sprintf("background: %s -> %s", h.Before.Background, h.After.Background),
			fmt.Sprintf("color: %s -> %s", h.Before.Color, h.After.Color))
}

func checkCarousel(in *Input) Verdict {
	d := in.Desktop
	if len(d.Carousels) == 0 {
		return skip(types.SkipNotApplicable, "no carousel on the page")
	}
	var broken []string
	for _, img := range d.Images {
		if img.InCarousel && img.Broken {
			broken = append(broken, truncate(img.Src, 100))
		}
	}
	if len(broken) > 0 {
		return fail("%d carousel image(s) failed to load", len(broken)).with(firstLines(broken, 5)...)
	}
	for _, c := range d.Carousels {
		if c.Slides < 2 {
			return warn("carousel %q has %d slide(s)", truncate(c.Classes, 60), c.Slides)
		}
	}
	return warn("%d carousel(s) found with images loaded; verify slide order and controls by hand", len(d.Carousels))
}

func checkCarouselSpeed(in *Input) Verdict {
	d := in.Desktop
	if len(d.Carousels) == 0 {
		return skip(types.SkipNotApplicable, "no carousel on the page")
	}
	limit := in.Context.Thresholds.MinCarouselIntervalMs
	var fast, unknown []string
	for _, c := range d.Carousels {
		name := truncate(c.Classes, 40)
		switch {
		case c.IntervalMs == nil:
			unknown = append(unknown, name)
		case *c.IntervalMs < limit:
			fast = append(fast, fmt.Sprintf("%s: %dms", name, *c.IntervalMs))
		}
	}
	if len(fast) > 0 {
		return warn("carousel advances faster than %dms", limit).with(fast...)
	}
	if len(unknown) > 0 {
		return warn("no explicit autoplay interval on %d carousel(s); time the transition by hand", len(unknown)).
			with(unknown...)
	}
	return pass("carousel intervals are at least %dms", limit)
}

func checkFormFields(in *Input) Verdict {
	forms := in.Desktop.Forms
	if len(forms) == 0 {
		return fail("no forms found on the page")
	}
	var lines []string
	for _, f := range forms {
		var names []string
		for _, fld := range f.Fields {
			if fld.Type == "hidden" || fld.Type == "submit" {
				continue
			}
			names = append(names, firstNonEmpty(fld.Name, fld.ID, fld.Type))
		}
		if len(names) == 0 {
			return fail("form %q has no visible fields", firstNonEmpty(f.ID, "(no id)"))
		}
		lines = append(lines, fmt.Sprintf("#%s: %s", firstNonEmpty(f.ID, "(no id)"), strings.Join(names, ", ")))
	}
	return pass("%d form(s) with fields present; compare against the brief", len(forms)).with(lines...)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func checkFieldNames(in *Input) Verdict {
	standard := make(map[string]bool, len(in.Context.StandardFieldNames))
	for _, n := range in.Context.StandardFieldNames {
		standard[canonicalField(n)] = true
	}

	var names, generic, custom []string
	for _, f := range in.Desktop.Forms {
		for _, fld := range f.Fields {
			if fld.Name == "" || fld.Type == "hidden" || fld.Type == "submit" || fld.Type == "button" {
				continue
			}
			names = append(names, fld.Name)
			c := canonicalField(fld.Name)
			switch {
			case genericFieldName.MatchString(c):
				generic = append(generic, fld.Name)
			case !standard[c]:
				custom = append(custom, fld.Name)
			}
		}
	}
	if len(names) == 0 {
		return skip(types.SkipMissingSignal, "no named form fields")
	}
	if len(generic) > 0 || len(custom) > 0 {
		var ev []string
		if len(generic) > 0 {
			ev = append(ev, "generic: "+strings.Join(generic, ", "))
		}
		if len(custom) > 0 {
			ev = append(ev, "non-standard: "+strings.Join(custom, ", "))
		}
		return warn("%d of %d field name(s) are generic or outside the standard list", len(generic)+len(custom), len(names)).
			with(ev...)
	}
	return pass("all %d field names are standard", len(names))
}

func canonicalField(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

func checkFormID(in *Input) Verdict {
	want := in.Context.ExpectedFormID
	var ids []string
	for _, f := range in.Desktop.Forms {
		if f.ID == want {
			return pass("form #%s present", want)
		}
		ids = append(ids, firstNonEmpty(f.ID, "(no id)"))
	}
	if len(ids) == 0 {
		return fail("no form found; expected id %q", want)
	}
	return fail("form id %q does not match expected %q", strings.Join(ids, ", "), want)
}

func checkPlaceholderContrast(in *Input) Verdict {
	styles := in.Desktop.PlaceholderStyles
	if len(styles) == 0 {
		return skip(types.SkipNotApplicable, "no visible fields with placeholder text")
	}
	var judged int
	var bad []string
	for _, ps := range styles {
		pc, ok1 := textContrast(ps.PlaceholderColor, ps.Background)
		tc, ok2 := textContrast(ps.TextColor, ps.Background)
		if !ok1 || !ok2 {
			continue
		}
		judged++
		// the placeholder must sit strictly closer to the background
		if pc >= tc {
			bad = append(bad, fmt.Sprintf("%s: placeholder %s (%.2f:1) vs text %s (%.2f:1)",
				ps.Field, ps.PlaceholderColor, pc, ps.TextColor, tc))
		}
	}
	if judged == 0 {
		return skip(types.SkipMissingSignal, "placeholder colours could not be resolved")
	}
	if len(bad) > 0 {
		return fail("%d placeholder(s) are as prominent as typed text", len(bad)).with(firstLines(bad, 5)...)
	}
	return pass("placeholders on %d field(s) are lighter than typed text", judged)
}

func requiredFields(forms []types.Form) int {
	n := 0
	for _, f := range forms {
		for _, fld := range f.Fields {
			if fld.Required {
				n++
			}
		}
	}
	return n
}

func checkFormValidation(in *Input) Verdict {
	df, mf := len(in.Desktop.Forms), len(in.Mobile.Forms)
	switch {
	case df == 0 && mf == 0:
		return skip(types.SkipNotApplicable, "no forms on either viewport")
	case df == 0:
		return fail("form present on mobile but missing on desktop")
	case mf == 0:
		return fail("form present on desktop but missing on mobile")
	}
	dr, mr := requiredFields(in.Desktop.Forms), requiredFields(in.Mobile.Forms)
	if dr == 0 || mr == 0 {
		return warn("no required fields marked (desktop %d, mobile %d); validation depends on page scripts", dr, mr)
	}
	return pass("%d required field(s) on desktop and %d on mobile", dr, mr)
}

func checkFormValues(in *Input) Verdict {
	forms := in.Desktop.Forms
	if len(forms) == 0 {
		return skip(types.SkipNotApplicable, "page has no form")
	}
	var bad []string
	for _, f := range forms {
		for _, fld := range f.Fields {
			if fld.Value != "" && codePattern.MatchString(fld.Value) {
				bad = append(bad, fmt.Sprintf("%s=%s", firstNonEmpty(fld.Name, fld.ID), truncate(fld.Value, 50)))
			}
		}
	}
	if len(bad) > 0 {
		return fail("%d field(s) carry code-like default values", len(bad)).with(firstLines(bad, 5)...)
	}
	return pass("no code-like values in form field defaults")
}

func checkSMSClientName(in *Input) Verdict {
	text := in.Desktop.VisibleText
	if !hasSMSVerification(text) {
		return skip(types.SkipNotApplicable, "no SMS verification detected on the page")
	}
	client := in.Context.ClientName
	if client == "" {
		return skip(types.SkipMissingSignal, "no client name supplied")
	}
	if containsFold(text, client) {
		return pass("SMS verification copy names %q", client)
	}
	return warn("SMS verification copy does not mention %q", client)
}

func checkSMSVerification(in *Input) Verdict {
	if !hasSMSVerification(in.Desktop.VisibleText) {
		return skip(types.SkipNotApplicable, "no SMS verification detected on the page")
	}
	return warn("SMS verification markup detected; run the end-to-end flow by hand")
}

func checkRedirectTarget(in *Input) Verdict {
	want := in.Context.ExpectedRedirect
	if len(want) == 0 {
		return skip(types.SkipMissingSignal, "no expected redirect supplied")
	}
	for _, f := range in.Desktop.Forms {
		for _, sub := range want {
			if containsFold(f.Action, sub) {
				return pass("form action %s targets %q", truncate(f.Action, 80), sub)
			}
			for _, fld := range f.Fields {
				if containsFold(fld.Value, sub) {
					return pass("form field %s targets %q", firstNonEmpty(fld.Name, fld.ID), sub)
				}
			}
		}
	}
	return warn("no form action or field points at %s; confirm after a test submission", strings.Join(want, " or "))
}

func checkParamPropagation(in *Input) Verdict {
	d := in.Desktop
	if d.Probe == nil {
		return skip(types.SkipMissingSignal, "no tracking parameter was probed")
	}
	u, err := url.Parse(d.FinalURL)
	if err != nil {
		return fail("final URL %q is not parseable", d.FinalURL)
	}
	if u.Query().Get(d.Probe.Key) == d.Probe.Value {
		return pass("%s=%s survived to %s", d.Probe.Key, d.Probe.Value, truncate(d.FinalURL, 100))
	}
	return fail("tracking parameter %s=%s was lost on the way to %s", d.Probe.Key, d.Probe.Value, truncate(d.FinalURL, 100)).
		with(append([]string{d.URL}, d.RedirectChain...)...)
}

func checkDeadLinks(in *Input) Verdict {
	d := in.Desktop
	var dead []string
	for _, l := range d.Links {
		if deadHref(l.Href) {
			dead = append(dead, fmt.Sprintf("%q -> %q", truncate(l.Text, 40), l.Href))
		}
	}
	if len(dead) > 0 {
		return warn("%d dead or placeholder link(s) out of %d", len(dead), len(d.Links)).with(firstLines(dead, 5)...)
	}
	return pass("%d link(s) and %d form(s); no dead links", len(d.Links), len(d.Forms))
}

func checkPageTitle(in *Input) Verdict {
	title := in.Desktop.Title
	if title == "" {
		return fail("page has no <title>")
	}
	if c := in.Context.ClientName; c != "" && !containsFold(title, c) {
		return warn("title %q does not contain client name %q", truncate(title, 60), c)
	}
	return pass("title: %q", truncate(title, 80))
}

func checkConsole(in *Input) Verdict {
	d := in.Desktop
	if len(d.PageErrors) > 0 {
		return fail("%d uncaught page error(s)", len(d.PageErrors)).with(firstLines(d.PageErrors, 5)...)
	}
	if len(d.ConsoleErrors) > 0 {
		return warn("%d console error(s) logged", len(d.ConsoleErrors)).with(firstLines(d.ConsoleErrors, 5)...)
	}
	return pass("no console or page errors")
}

func checkScriptCleanup(in *Input) Verdict {
	seen := make(map[string]int)
	var external, inline int
	var inlineBytes int64
	for _, s := range in.Desktop.Scripts {
		if s.Inline() {
			inline++
			inlineBytes += s.Bytes
			continue
		}
		external++
		seen[s.Src]++
	}
	var dups []string
	for src, n := range seen {
		if n > 1 {
			dups = append(dups, fmt.Sprintf("%s (x%d)", truncate(src, 80), n))
		}
	}
	sort.Strings(dups)

	limit := in.Context.Thresholds.MaxInlineScriptBytes
	var issues []string
	if len(dups) > 0 {
		issues = append(issues, fmt.Sprintf("%d script(s) included more than once", len(dups)))
	}
	if inlineBytes > limit {
		issues = append(issues, fmt.Sprintf("%d bytes of inline JS exceeds %d", inlineBytes, limit))
	}
	if len(issues) > 0 {
		return warn("%s; look for unused code", strings.Join(issues, "; ")).with(firstLines(dups, 5)...)
	}
	return pass("%d external and %d inline script(s), %d bytes inline", external, inline, inlineBytes)
}

func checkVariantURL(in *Input) Verdict {
	u, err := url.Parse(in.Desktop.FinalURL)
	if err != nil {
		return fail("final URL %q is not parseable", in.Desktop.FinalURL)
	}
	if m := variantSuffix.FindStringSubmatch(u.Path); m != nil {
		return fail("URL ends in variant letter /%s; the published URL should not expose the variant", m[1]).
			with(in.Desktop.FinalURL)
	}
	return pass("URL has no variant letter suffix")
}

func checkPageSpeed(in *Input) Verdict {
	fcp := in.Desktop.FirstPaintMs
	if fcp == nil {
		return skip(types.SkipMissingSignal, "timing unavailable")
	}
	limit := in.Context.Thresholds.MaxFcpMs
	ev := "first_paint_ms=" + strconv.FormatInt(*fcp, 10)
	if *fcp > limit {
		return fail("first contentful paint %dms exceeds %dms", *fcp, limit).with(ev)
	}
	return pass("first contentful paint %dms (limit %dms)", *fcp, limit).with(ev)
}

func checkGTM(in *Input) Verdict {
	d := in.Desktop
	var found []string
	if len(d.TagManagerIDs) > 0 {
		found = append(found, "container "+strings.Join(d.TagManagerIDs, ", "))
	}
	for _, s := range d.Scripts {
		if containsFold(s.Src, "googletagmanager.com") {
			found = append(found, "script tag")
			break
		}
	}
	for _, r := range d.NetworkRequests {
		if containsFold(r.URL, "googletagmanager.com") {
			found = append(found, "network request")
			break
		}
	}
	if len(found) == 0 {
		return fail("no Google Tag Manager in scripts, network requests or markup")
	}
	return pass("Google Tag Manager detected: %s", strings.Join(found, "; "))
}

func checkImageCompression(in *Input) Verdict {
	images := in.Desktop.Images
	if len(images) == 0 {
		return skip(types.SkipNotApplicable, "no images on the page")
	}
	t := in.Context.Thresholds
	var heavy []string
	for _, img := range images {
		switch {
		case img.NaturalWidth > t.MaxImageWidthPx:
			heavy = append(heavy, fmt.Sprintf("%s (%dx%dpx)", truncate(img.Src, 80), img.NaturalWidth, img.NaturalHeight))
		case img.ByteSize > t.MaxImageBytes:
			heavy = append(heavy, fmt.Sprintf("%s (%d KB)", truncate(img.Src, 80), img.ByteSize/1024))
		}
	}
	if len(heavy) > 0 {
		return warn("%d image(s) wider than %dpx or larger than %d KB", len(heavy), t.MaxImageWidthPx, t.MaxImageBytes/1024).
			with(firstLines(heavy, 5)...)
	}
	return pass("all %d image(s) within size limits", len(images))
}

func checkMinification(in *Input) Verdict {
	t := in.Context.Thresholds
	var judged int
	var loose []string
	judge := func(kind string, rs []types.Resource) {
		for _, r := range rs {
			if r.Bytes < t.MinifyMinBytes {
				continue
			}
			judged++
			if r.WhitespaceRatio > t.MinifyWhitespaceRatio {
				name := truncate(r.Src, 80)
				if r.Inline() {
					name = "inline " + kind + " " + shortHash(r.Hash)
				}
				loose = append(loose, fmt.Sprintf("%s (%.0f%% whitespace)", name, r.WhitespaceRatio*100))
			}
		}
	}
	judge("script", in.Desktop.Scripts)
	judge("style", in.Desktop.Styles)

	if len(loose) > 0 {
		return warn("%d resource(s) look unminified", len(loose)).with(firstLines(loose, 5)...)
	}
	if judged == 0 {
		return pass("no script or stylesheet large enough to judge")
	}
	return pass("%d script(s) and stylesheet(s) look minified", judged)
}

func shortHash(h string) string {
	h = strings.TrimPrefix(h, "sha256:")
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

// isCompressed reports whether a content-encoding list applies gzip or brotli
func isCompressed(enc string) bool {
	for _, token := range strings.Split(enc, ",") {
		switch strings.ToLower(strings.TrimSpace(token)) {
		case "br", "gzip", "x-gzip":
			return true
		}
	}
	return false
}

func checkCompression(in *Input) Verdict {
	doc := in.Desktop.DocumentRequest()
	if doc == nil || !doc.Completed {
		return skip(types.SkipMissingSignal, "the document response was not captured")
	}

	var plain []string
	for _, r := range in.Desktop.NetworkRequests {
		if !r.Completed || r.Document || r.SizeBytes < 1024 {
			continue
		}
		if textual(r.ContentType) && !isCompressed(r.Header("content-encoding")) {
			plain = append(plain, truncate(r.URL, 100))
		}
	}

	enc := doc.Header("content-encoding")
	if !isCompressed(enc) {
		v := fail("document served without gzip or brotli (content-encoding: %q)", enc)
		return v.with(firstLines(plain, 5)...)
	}
	if len(plain) > 0 {
		return pass("document served with %s; %d text asset(s) are uncompressed", enc, len(plain)).with(firstLines(plain, 5)...)
	}
	return pass("document served with %s", enc)
}

func textual(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, t := range []string{"text/", "javascript", "json", "xml", "svg"} {
		if strings.Contains(ct, t) {
			return true
		}
	}
	return false
}

func checkLegalLinks(in *Input) Verdict {
	var found, missing []string
	for _, req := range legalLinks {
		hit := ""
		for _, l := range in.Desktop.Links {
			if deadHref(l.Href) {
				continue
			}
			for _, p := range req.patterns {
				if containsFold(l.Text, p) || containsFold(l.Href, p) {
					hit = l.Href
					break
				}
			}
			if hit != "" {
				break
			}
		}
		if hit == "" {
			missing = append(missing, req.name)
		} else {
			found = append(found, req.name+": "+truncate(hit, 80))
		}
	}
	if len(missing) == 0 {
		return pass("terms, privacy and disclaimer links present").with(found...)
	}
	for _, m := range missing {
		if m == "privacy" {
			return fail("missing legal link(s): %s", strings.Join(missing, ", ")).with(found...)
		}
	}
	return warn("missing legal link(s): %s", strings.Join(missing, ", ")).with(found...)
}

var staticTypes = map[string]bool{"Script": true, "Stylesheet": true, "Image": true, "Font": true}

// cacheable reports whether a Cache-Control value lets shared caches keep the asset
func cacheable(cc string) bool {
	cc = strings.ToLower(cc)
	if cc == "" || strings.Contains(cc, "no-store") || strings.Contains(cc, "no-cache") {
		return false
	}
	if strings.Contains(cc, "immutable") {
		return true
	}
	for _, directive := range strings.Split(cc, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || (k != "max-age" && k != "s-maxage") {
			continue
		}
		if n, err := strconv.Atoi(strings.Trim(v, `"`)); err == nil && n > 0 {
			return true
		}
	}
	return false
}

func checkCaching(in *Input) Verdict {
	var assets int
	var uncached []string
	for _, r := range in.Desktop.NetworkRequests {
		if !r.Completed || !staticTypes[r.ResourceType] || r.Status < 200 || r.Status >= 400 {
			continue
		}
		assets++
		if !cacheable(r.Header("cache-control")) {
			uncached = append(uncached, truncate(r.URL, 100))
		}
	}
	if assets == 0 {
		return skip(types.SkipMissingSignal, "no static assets completed")
	}
	if len(uncached) > 0 {
		return warn("%d of %d static asset(s) lack a Cache-Control max-age", len(uncached), assets).
			with(firstLines(uncached, 5)...)
	}
	return pass("all %d static asset(s) are cacheable", assets)
}

func checkViewportMeta(in *Input) Verdict {
	vm := in.Mobile.ViewportMeta
	if vm == nil || *vm == "" {
		return fail("no viewport meta tag")
	}
	if !strings.Contains(strings.ReplaceAll(strings.ToLower(*vm), " ", ""), "width=device-width") {
		return fail("viewport meta %q does not set width=device-width", *vm)
	}
	return pass("viewport meta: %q", *vm)
}

func checkHTTPStatus(in *Input) Verdict {
	code := in.Desktop.StatusCode
	if code >= 200 && code < 300 {
		return pass("document responded %d", code)
	}
	if code == 0 {
		return fail("no HTTP status was captured for the document")
	}
	return fail("document responded %d", code)
}

func checkPageWeight(in *Input) Verdict {
	size := in.Desktop.PageSizeBytes
	if size == 0 {
		return skip(types.SkipMissingSignal, "no transfer sizes were captured")
	}
	limit := in.Context.Thresholds.MaxPageBytes
	if size > limit {
		return warn("page weighs %d KB, over the %d KB budget", size/1024, limit/1024)
	}
	return pass("page weighs %d KB", size/1024)
}

func checkRenderBlocking(in *Input) Verdict {
	var blocking []string
	for _, s := range in.Desktop.Scripts {
		if !s.Inline() && s.InHead && !s.Async && !s.Defer {
			blocking = append(blocking, truncate(s.Src, 100))
		}
	}
	if len(blocking) > 0 {
		return warn("%d script(s) in the head block rendering", len(blocking)).with(firstLines(blocking, 5)...)
	}
	return pass("no render-blocking scripts in the head")
}
