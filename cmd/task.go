package cmd

import (
	"fmt"

	"github.com/lance13c/lpqa/internal/logging"
	"github.com/lance13c/lpqa/internal/pipeline"
	"github.com/lance13c/lpqa/internal/tracker"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task <task-gid>",
	Short: "Run QA for the landing page linked from an Asana task",
	Long: `Task fetches an Asana task, finds the landing page URL in its custom
fields, notes or parent task, and runs the QA checklists against it. Client,
campaign, Figma and copy doc links found on the task are carried into the
report.

Requires ASANA_ACCESS_TOKEN (or asana.token in the config).

Example:
  lpqa task 1208456789012345 --post`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskCmd,
}

var (
	taskOutput outputOptions
	taskURL    string
	taskCTA    string
)

func init() {
	rootCmd.AddCommand(taskCmd)

	taskCmd.Flags().StringVar(&taskURL, "url", "", "check this URL instead of the one on the task")
	taskCmd.Flags().StringVar(&taskCTA, "cta-text", "", "expected sticky CTA text on mobile")
	taskOutput.register(taskCmd)
}

func runTaskCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	roles, err := taskOutput.apply(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := tracker.NewClient(ctx, cfg.Asana.Token, cfg.Asana.BaseURL)
	if err != nil {
		return err
	}
	task, err := client.Task(ctx, args[0])
	if err != nil {
		return err
	}
	res, err := tracker.Resolve(task, taskURL)
	if err != nil {
		return fmt.Errorf("task %s (%s): %w", task.GID, task.Name, err)
	}
	logging.Info("Task %s resolved to %s (from %s)", task.GID, res.URL, res.Source)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🔗 %s: %s\n", task.Name, res.URL)

	qctx := cfg.QAContext()
	qctx.ExpectedCTAText = taskCTA
	qctx = res.Apply(qctx)

	db := openHistory(cmd, cfg)
	if db != nil {
		defer db.Close()
	}

	rep, err := newRunner(cfg, db).Run(ctx, pipeline.Target{URL: res.URL, Context: qctx, Roles: roles})
	if err != nil {
		return err
	}
	if err := deliver(out, cfg, rep); err != nil {
		return err
	}
	if taskOutput.post {
		if err := postComment(ctx, out, cfg, task.GID, rep); err != nil {
			return err
		}
	}

	if rep.HasFailures() {
		return errChecksFailed
	}
	return nil
}
