package cmd

import (
	"github.com/lance13c/lpqa/internal/config"
	"github.com/lance13c/lpqa/internal/pipeline"
	"github.com/lance13c/lpqa/internal/types"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <url>",
	Short: "Run the QA checklists against one landing page",
	Long: `Run renders the page at desktop and mobile viewports, evaluates every
check in the catalogue and prints the report.

The process exits with status 1 when any check fails.

Example:
  lpqa run https://go.acme.com/quote --client "Acme Solar" --cta-text "Get my quote"
  lpqa run https://go.acme.com/quote --checks copywriter --format markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var (
	runOutput   outputOptions
	runClient   string
	runCampaign string
	runCTAText  string
	runFormID   string
	runRedirect []string
	runFigma    string
	runCopyDoc  string
	runTask     string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runClient, "client", "", "client name expected in the title and SMS copy")
	runCmd.Flags().StringVar(&runCampaign, "campaign", "", "campaign name for the report header")
	runCmd.Flags().StringVar(&runCTAText, "cta-text", "", "expected sticky CTA text on mobile")
	runCmd.Flags().StringVar(&runFormID, "form-id", "", "expected form id (default from config)")
	runCmd.Flags().StringSliceVar(&runRedirect, "redirect-contains", nil, "substrings the form's thank-you redirect should contain")
	runCmd.Flags().StringVar(&runFigma, "figma", "", "Figma design URL for reviewers")
	runCmd.Flags().StringVar(&runCopyDoc, "copy-doc", "", "copy document URL for reviewers")
	runCmd.Flags().StringVar(&runTask, "task", "", "Asana task id the run belongs to")
	runOutput.register(runCmd)
}

// runContext overlays the command line hints on the configured defaults
func runContext(cfg *config.Config) types.QAContext {
	qctx := cfg.QAContext()
	qctx.ClientName = runClient
	qctx.CampaignName = runCampaign
	qctx.ExpectedCTAText = runCTAText
	qctx.FigmaURL = runFigma
	qctx.CopyDocURL = runCopyDoc
	qctx.TaskID = runTask
	if runFormID != "" {
		qctx.ExpectedFormID = runFormID
	}
	if len(runRedirect) > 0 {
		qctx.ExpectedRedirect = runRedirect
	}
	return qctx
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	roles, err := runOutput.apply(cfg)
	if err != nil {
		return err
	}

	db := openHistory(cmd, cfg)
	if db != nil {
		defer db.Close()
	}

	rep, err := newRunner(cfg, db).Run(cmd.Context(), pipeline.Target{
		URL:     args[0],
		Context: runContext(cfg),
		Roles:   roles,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := deliver(out, cfg, rep); err != nil {
		return err
	}
	if runOutput.post {
		if err := postComment(cmd.Context(), out, cfg, runTask, rep); err != nil {
			return err
		}
	}

	if rep.HasFailures() {
		return errChecksFailed
	}
	return nil
}
