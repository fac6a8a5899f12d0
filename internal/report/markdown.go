package report

import (
	"fmt"
	"strings"

	"github.com/lance13c/lpqa/internal/types"
)

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Markdown renders the full report as a markdown document
func Markdown(r *types.QAReport) string {
	s := r.Summary
	results := index(r)

	var b strings.Builder
	b.WriteString("# QA Report\n\n")
	fmt.Fprintf(&b, "**URL:** %s\n", r.TargetURL)
	fmt.Fprintf(&b, "**Date:** %s\n", r.Timestamp.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "**Client:** %s\n", orNA(r.Client))
	fmt.Fprintf(&b, "**Campaign:** %s\n", orNA(r.Campaign))
	if r.TaskID != "" {
		fmt.Fprintf(&b, "**Task:** %s\n", r.TaskID)
	}
	fmt.Fprintf(&b, "**Run:** `%s` (checks %s)\n\n", r.RunID, r.RegistryVersion)

	if r.Degraded {
		b.WriteString("> **Degraded run.** ")
		var failed []string
		for _, c := range r.Captures {
			if !c.OK {
				failed = append(failed, c.Failure)
			}
		}
		b.WriteString(strings.Join(failed, "; "))
		b.WriteString(". Checks that needed the missing snapshot are listed under *Skipped: capture failed*.\n\n")
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Count |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Total checks | %d |\n", s.Total)
	fmt.Fprintf(&b, "| %s Passed | %d |\n", types.StatusPass.Glyph(), s.Pass)
	fmt.Fprintf(&b, "| %s Failed | %d |\n", types.StatusFail.Glyph(), s.Fail)
	fmt.Fprintf(&b, "| %s Warnings | %d |\n", types.StatusWarn.Glyph(), s.Warn)
	fmt.Fprintf(&b, "| %s Skipped | %d |\n", types.StatusSkip.Glyph(), s.Skip)
	fmt.Fprintf(&b, "| **Pass rate** | **%.0f%%** |\n\n", s.PassRate)

	if failed := filter(r, types.StatusFail); len(failed) > 0 {
		fmt.Fprintf(&b, "## %s Failures (Action Required)\n\n", types.StatusFail.Glyph())
		for _, res := range failed {
			fmt.Fprintf(&b, "### %s\n", res.Name)
			fmt.Fprintf(&b, "**Checklist:** %s | **Check ID:** `%s`\n\n", refs(res), res.CheckID)
			b.WriteString(res.Message + "\n")
			if res.Evidence != "" {
				fmt.Fprintf(&b, "```\n%s\n```\n", clip(res.Evidence, 500))
			}
			b.WriteString("\n")
		}
	}

	if warned := filter(r, types.StatusWarn); len(warned) > 0 {
		fmt.Fprintf(&b, "## %s Warnings (Review Recommended)\n\n", types.StatusWarn.Glyph())
		for _, res := range warned {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", res.Name, refs(res), clip(res.Message, 150))
		}
		b.WriteString("\n")
	}

	for _, g := range r.Roles {
		fmt.Fprintf(&b, "## %s checklist\n\n", g.Role.Title())
		b.WriteString("| | Ref | Item | Result |\n|---|---|---|---|\n")
		for _, e := range g.Entries {
			res := results[e.CheckID]
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", res.Status.Glyph(), e.Ref, cell(e.ChecklistItem), cell(clip(res.Message, 120)))
		}
		b.WriteString("\n")
	}

	capture, other := splitSkips(r)
	if len(capture) > 0 {
		fmt.Fprintf(&b, "## %s Skipped: capture failed\n\n", types.StatusSkip.Glyph())
		for _, res := range capture {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", res.Name, refs(res), res.Message)
		}
		b.WriteString("\n")
	}
	if len(other) > 0 {
		fmt.Fprintf(&b, "## %s Skipped: manual review or not applicable\n\n", types.StatusSkip.Glyph())
		for _, res := range other {
			fmt.Fprintf(&b, "- **%s** (%s, %s): %s\n", res.Name, refs(res), res.SkipReason, clip(res.Message, 120))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// cell makes s safe inside a markdown table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
