package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lance13c/lpqa/internal/types"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [url]",
	Short: "Show stored QA runs",
	Long: `History lists recent runs from the local run history, newest first.
With a URL only that page's runs are listed; add --check to see how one
check's verdict changed over those runs.

Example:
  lpqa history
  lpqa history https://go.acme.com/quote --check DEV-031`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var (
	historyLimit int
	historyCheck string
	historyStats bool
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().StringVar(&historyCheck, "check", "", "show one check's status across runs (needs a URL)")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show history totals")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return fmt.Errorf("run history is disabled (database.enabled: false)")
	}
	db := openHistory(cmd, cfg)
	if db == nil {
		return fmt.Errorf("run history unavailable at %s", cfg.Database.Path)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	url := ""
	if len(args) == 1 {
		url = args[0]
	}

	if historyStats {
		stats, err := db.GetStatistics()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Runs: %d across %d page(s), %d with failures\n", stats.TotalRuns, stats.DistinctURLs, stats.FailedRuns)
		if stats.LastRun != nil {
			fmt.Fprintf(out, "Last run: %s\n", stats.LastRun.Local().Format("2006-01-02 15:04"))
		}
		return nil
	}

	if historyCheck != "" {
		if url == "" {
			return fmt.Errorf("--check needs a URL")
		}
		statuses, err := db.CheckHistory(url, strings.ToUpper(historyCheck), historyLimit)
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			fmt.Fprintf(out, "No results for %s on %s\n", historyCheck, url)
			return nil
		}
		glyphs := make([]string, len(statuses))
		for i, s := range statuses {
			glyphs[i] = s.Glyph()
		}
		fmt.Fprintf(out, "%s (newest first): %s\n", strings.ToUpper(historyCheck), strings.Join(glyphs, " "))
		return nil
	}

	runs, err := db.RecentRuns(url, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))).
		Headers("RUN", "STARTED", "URL", string(types.StatusPass), string(types.StatusFail), string(types.StatusWarn), string(types.StatusSkip), "TASK")
	for _, r := range runs {
		page := r.URL
		if r.Degraded {
			page += " (degraded)"
		}
		t.Row(
			shortRunID(r.RunID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			page,
			fmt.Sprint(r.Pass),
			fmt.Sprint(r.Fail),
			fmt.Sprint(r.Warn),
			fmt.Sprint(r.Skip),
			r.TaskID,
		)
	}
	fmt.Fprintln(out, t.Render())
	return nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
