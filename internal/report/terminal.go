package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lance13c/lpqa/internal/types"
	"golang.org/x/term"
)

type terminalStyles struct {
	title    lipgloss.Style
	heading  lipgloss.Style
	dim      lipgloss.Style
	evidence lipgloss.Style
	status   map[types.Status]lipgloss.Style
}

func newTerminalStyles(color bool) terminalStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return terminalStyles{
			title:    plain,
			heading:  plain,
			dim:      plain,
			evidence: plain,
			status: map[types.Status]lipgloss.Style{
				types.StatusPass: plain,
				types.StatusFail: plain,
				types.StatusWarn: plain,
				types.StatusSkip: plain,
			},
		}
	}
	return terminalStyles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")),
		heading: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4A9EFF")),
		dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		evidence: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4A4A4A")).
			Italic(true),
		status: map[types.Status]lipgloss.Style{
			types.StatusPass: lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
			types.StatusFail: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
			types.StatusWarn: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")),
			types.StatusSkip: lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		},
	}
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Terminal writes the grouped, human-readable listing. Colour is used only
// when w is a terminal.
func Terminal(w io.Writer, r *types.QAReport) error {
	st := newTerminalStyles(isTerminal(w))
	results := index(r)
	s := r.Summary

	var b strings.Builder
	rule := strings.Repeat("=", 70)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, st.dim.Render(rule))
	fmt.Fprintf(&b, "  %s\n", st.title.Render("QA REPORT: "+r.TargetURL))
	fmt.Fprintf(&b, "  %s  run %s  registry %s\n", r.Timestamp.Local().Format("2006-01-02 15:04"), shortID(r.RunID), r.RegistryVersion)
	fmt.Fprintln(&b, st.dim.Render(rule))
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "  TOTAL: %d  |  %s %d  %s %d  %s %d  %s %d\n", s.Total,
		types.StatusPass.Glyph(), s.Pass, types.StatusFail.Glyph(), s.Fail,
		types.StatusWarn.Glyph(), s.Warn, types.StatusSkip.Glyph(), s.Skip)
	fmt.Fprintf(&b, "  Pass rate: %.0f%%\n", s.PassRate)
	if r.Degraded {
		for _, c := range r.Captures {
			if !c.OK {
				fmt.Fprintf(&b, "  %s\n", st.status[types.StatusFail].Render("Degraded: "+c.Failure))
			}
		}
	}
	fmt.Fprintln(&b)

	for _, g := range r.Roles {
		c := s.ByRole[g.Role]
		fmt.Fprintf(&b, "  %s %s\n", st.heading.Render("── "+strings.ToUpper(g.Role.Title())),
			st.dim.Render(fmt.Sprintf("(%d items: %d pass, %d fail, %d warn, %d skip)", len(g.Entries), c.Pass, c.Fail, c.Warn, c.Skip)))
		for _, e := range g.Entries {
			res := results[e.CheckID]
			fmt.Fprintf(&b, "    %s %s %s\n", res.Status.Glyph(), st.dim.Render(e.Ref), st.status[res.Status].Render(res.Name))
			fmt.Fprintf(&b, "       %s\n", clip(res.Message, 120))
			if res.Evidence != "" && res.Status != types.StatusPass {
				for _, line := range firstN(strings.Split(res.Evidence, "\n"), 3) {
					fmt.Fprintf(&b, "       %s\n", st.evidence.Render("→ "+clip(line, 100)))
				}
			}
		}
		fmt.Fprintln(&b)
	}

	if failed := filter(r, types.StatusFail); len(failed) > 0 {
		fmt.Fprintf(&b, "  %s\n", st.status[types.StatusFail].Render("FAILURES REQUIRING ACTION:"))
		for _, res := range failed {
			fmt.Fprintf(&b, "    %s [%s] %s: %s\n", res.Status.Glyph(), refs(res), res.Name, clip(res.Message, 100))
		}
		fmt.Fprintln(&b)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func firstN(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
