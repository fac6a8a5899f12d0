package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lance13c/lpqa/internal/config"
	"github.com/lance13c/lpqa/internal/logging"
	"github.com/lance13c/lpqa/internal/report"
	"github.com/lance13c/lpqa/internal/tracker"
	"github.com/lance13c/lpqa/internal/types"
	"github.com/spf13/cobra"
)

// outputOptions are the flags shared by every command that runs checks
type outputOptions struct {
	checks        []string
	formats       []string
	noScreenshots bool
	post          bool
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.checks, "checks", nil, "roles to check: developer,designer,copywriter (default all)")
	cmd.Flags().StringSliceVar(&o.formats, "format", nil, "output formats: terminal,markdown,json,comment (default from config)")
	cmd.Flags().BoolVar(&o.noScreenshots, "no-screenshots", false, "skip full-page screenshots")
	cmd.Flags().BoolVar(&o.post, "post", false, "post the result summary as a comment on the Asana task")
}

// apply folds the flags into cfg and returns the selected roles
func (o *outputOptions) apply(cfg *config.Config) ([]types.Role, error) {
	if o.noScreenshots {
		cfg.Output.Screenshots = false
	}
	if len(o.formats) > 0 {
		cfg.Output.Formats = o.formats
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return parseRoles(o.checks)
}

func parseRoles(names []string) ([]types.Role, error) {
	var roles []types.Role
	for _, name := range names {
		role, ok := types.ParseRole(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return nil, fmt.Errorf("unknown role %q (want developer, designer or copywriter)", name)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func hasFormat(formats []string, want string) bool {
	for _, f := range formats {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}

// deliver renders rep in every configured format. Terminal and comment
// output go to w; markdown and JSON are written under the output directory.
func deliver(w io.Writer, cfg *config.Config, rep *types.QAReport) error {
	formats := cfg.Output.Formats
	if hasFormat(formats, "terminal") {
		if err := report.Terminal(w, rep); err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
	}
	if hasFormat(formats, "comment") {
		fmt.Fprintln(w, report.Comment(rep))
	}

	paths, err := report.WriteArtifacts(cfg.Output.Dir, rep, formats)
	for _, p := range paths {
		fmt.Fprintf(w, "📄 %s\n", p)
	}
	return err
}

// postComment sends the comment rendering of rep to an Asana task
func postComment(ctx context.Context, w io.Writer, cfg *config.Config, taskID string, rep *types.QAReport) error {
	if taskID == "" {
		return fmt.Errorf("--post needs an Asana task (use --task or 'lpqa task')")
	}
	client, err := tracker.NewClient(ctx, cfg.Asana.Token, cfg.Asana.BaseURL)
	if err != nil {
		return err
	}
	storyID, err := client.PostComment(ctx, taskID, report.Comment(rep))
	if err != nil {
		return fmt.Errorf("failed to post results to task %s: %w", taskID, err)
	}
	logging.Info("Posted run %s to task %s (story %s)", rep.RunID, taskID, storyID)
	fmt.Fprintf(w, "💬 Posted results to Asana task %s\n", taskID)
	return nil
}
