package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lance13c/lpqa/internal/config"
	"github.com/lance13c/lpqa/internal/logging"
	"github.com/lance13c/lpqa/internal/pipeline"
	"github.com/lance13c/lpqa/internal/report"
	"github.com/lance13c/lpqa/internal/tracker"
	"github.com/lance13c/lpqa/internal/types"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [project-gid]",
	Short: "Run QA for every task in an Asana section, or every URL in a file",
	Long: `Batch runs one independent QA run per page. Each page gets its own
browser; a page that fails to load or crashes the run is reported and the
batch moves on to the next one.

Pages come either from the incomplete tasks in one section of an Asana
project, or from a file with one URL per line.

Example:
  lpqa batch 1208456789000001 --section "Ready for QA" --post
  lpqa batch --file pages.txt --format markdown`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

var (
	batchOutput  outputOptions
	batchSection string
	batchFile    string
)

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchSection, "section", "", "Asana section to take tasks from (default asana.section, then \"QA\")")
	batchCmd.Flags().StringVar(&batchFile, "file", "", "read URLs from this file instead of Asana")
	batchOutput.register(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	roles, err := batchOutput.apply(cfg)
	if err != nil {
		return err
	}
	if batchFile == "" && len(args) == 0 {
		return fmt.Errorf("give an Asana project id or --file")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var targets []pipeline.Target
	var client *tracker.Client
	if batchFile != "" {
		targets, err = fileTargets(batchFile, cfg.QAContext())
	} else {
		client, err = tracker.NewClient(ctx, cfg.Asana.Token, cfg.Asana.BaseURL)
		if err == nil {
			targets, err = sectionTargets(ctx, out, client, args[0], cfg)
		}
	}
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Fprintln(out, "Nothing to check.")
		return nil
	}
	for i := range targets {
		targets[i].Roles = roles
	}

	db := openHistory(cmd, cfg)
	if db != nil {
		defer db.Close()
	}

	var failed, errored int
	newRunner(cfg, db).RunBatch(ctx, targets, func(r pipeline.BatchResult) {
		if r.Err != nil {
			errored++
			fmt.Fprintf(out, "💥 %s: %v\n", r.Target.URL, r.Err)
			return
		}
		rep := r.Report
		if rep.HasFailures() {
			failed++
		}
		fmt.Fprintf(out, "%s %s  %d pass, %d fail, %d warn, %d skip (%s)\n",
			batchGlyph(rep), rep.TargetURL, rep.Summary.Pass, rep.Summary.Fail,
			rep.Summary.Warn, rep.Summary.Skip, r.Duration.Round(100*time.Millisecond))

		if _, err := writeBatchArtifacts(cfg, rep); err != nil {
			logging.Error("Failed to write report for %s: %v", rep.TargetURL, err)
		}
		if batchOutput.post && client != nil && rep.TaskID != "" {
			if err := postComment(ctx, out, cfg, rep.TaskID, rep); err != nil {
				logging.Error("%v", err)
				fmt.Fprintf(out, "   ⚠️  %v\n", err)
			}
		}
	})

	fmt.Fprintf(out, "\n%d page(s): %d with failures, %d could not be checked\n", len(targets), failed, errored)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	if failed > 0 || errored > 0 {
		return errChecksFailed
	}
	return nil
}

func batchGlyph(rep *types.QAReport) string {
	switch {
	case rep.HasFailures():
		return types.StatusFail.Glyph()
	case rep.Degraded:
		return types.StatusWarn.Glyph()
	}
	return types.StatusPass.Glyph()
}

func writeBatchArtifacts(cfg *config.Config, rep *types.QAReport) ([]string, error) {
	var files []string
	for _, f := range cfg.Output.Formats {
		if strings.EqualFold(f, "markdown") || strings.EqualFold(f, "json") {
			files = append(files, f)
		}
	}
	// batch output is one line per page, so the full report always goes to a file
	if len(files) == 0 {
		files = []string{"markdown"}
	}
	return report.WriteArtifacts(cfg.Output.Dir, rep, files)
}

// sectionTargets resolves every open task in the section to a target. Tasks
// with no landing page URL are listed and left out.
func sectionTargets(ctx context.Context, out io.Writer, client *tracker.Client, projectGID string, cfg *config.Config) ([]pipeline.Target, error) {
	section := batchSection
	if section == "" {
		section = cfg.Asana.Section
	}
	if section == "" {
		section = "QA"
	}

	tasks, err := client.SectionTasks(ctx, projectGID, section)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "📋 %d open task(s) in %q\n", len(tasks), section)

	var targets []pipeline.Target
	for i := range tasks {
		t := &tasks[i]
		res, err := tracker.Resolve(t, "")
		if err != nil {
			fmt.Fprintf(out, "⏭️  %s: %v\n", t.Name, err)
			continue
		}
		targets = append(targets, pipeline.Target{URL: res.URL, Context: res.Apply(cfg.QAContext())})
	}
	return targets, nil
}

// fileTargets reads one URL per line; blank lines and # comments are ignored
func fileTargets(path string, qctx types.QAContext) ([]pipeline.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var targets []pipeline.Target
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, pipeline.Target{URL: line, Context: qctx})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return targets, nil
}
