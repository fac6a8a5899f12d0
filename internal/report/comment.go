package report

import (
	"fmt"
	"strings"

	"github.com/lance13c/lpqa/internal/types"
)

// maxCommentWarnings caps the warnings listed in a tracker comment
const maxCommentWarnings = 10

// Comment renders the condensed form posted to a task: failures and warnings
// in full, skips collapsed to one line per kind.
func Comment(r *types.QAReport) string {
	s := r.Summary
	var b strings.Builder

	fmt.Fprintf(&b, "QA Report %s\n", r.Timestamp.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "URL: %s\n\n", r.TargetURL)
	fmt.Fprintf(&b, "Results: %s %d | %s %d | %s %d | %s %d\n",
		types.StatusPass.Glyph(), s.Pass, types.StatusFail.Glyph(), s.Fail,
		types.StatusWarn.Glyph(), s.Warn, types.StatusSkip.Glyph(), s.Skip)
	fmt.Fprintf(&b, "Pass rate: %.0f%%\n", s.PassRate)
	if r.Degraded {
		for _, c := range r.Captures {
			if !c.OK {
				fmt.Fprintf(&b, "Degraded: %s\n", c.Failure)
			}
		}
	}

	if failed := filter(r, types.StatusFail); len(failed) > 0 {
		b.WriteString("\n── FAILURES ──\n")
		for _, res := range failed {
			fmt.Fprintf(&b, "%s [%s] %s\n", res.Status.Glyph(), refs(res), res.Name)
			fmt.Fprintf(&b, "   %s\n", clip(res.Message, 150))
		}
	}

	if warned := filter(r, types.StatusWarn); len(warned) > 0 {
		fmt.Fprintf(&b, "\n── WARNINGS (%d) ──\n", len(warned))
		for _, res := range firstResults(warned, maxCommentWarnings) {
			fmt.Fprintf(&b, "%s [%s] %s: %s\n", res.Status.Glyph(), refs(res), res.Name, clip(res.Message, 100))
		}
		if len(warned) > maxCommentWarnings {
			fmt.Fprintf(&b, "   ... and %d more warnings\n", len(warned)-maxCommentWarnings)
		}
	}

	capture, other := splitSkips(r)
	if len(capture)+len(other) > 0 {
		b.WriteString("\n")
	}
	if len(capture) > 0 {
		fmt.Fprintf(&b, "%s Skipped, capture failed (%d): %s\n", types.StatusSkip.Glyph(), len(capture), idList(capture))
	}
	if len(other) > 0 {
		fmt.Fprintf(&b, "%s Skipped, manual review or not applicable (%d): %s\n", types.StatusSkip.Glyph(), len(other), idList(other))
	}

	b.WriteString("\nFull report: qa_report_" + r.RunID + ".md")
	return b.String()
}

func firstResults(rs []types.CheckResult, n int) []types.CheckResult {
	if len(rs) > n {
		return rs[:n]
	}
	return rs
}

func idList(rs []types.CheckResult) string {
	ids := make([]string, len(rs))
	for i, res := range rs {
		ids[i] = res.CheckID
	}
	return strings.Join(ids, ", ")
}
