package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lance13c/lpqa/internal/checks"
	"github.com/spf13/cobra"
)

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List the check catalogue",
	Long: `Checks prints every check with the viewport it needs and the checklist
items it satisfies. A check shared between roles is listed once with all of
its items.`,
	RunE: runChecks,
}

var checksRoles []string

func init() {
	rootCmd.AddCommand(checksCmd)

	checksCmd.Flags().StringSliceVar(&checksRoles, "role", nil, "only list checks for these roles")
}

func runChecks(cmd *cobra.Command, args []string) error {
	roles, err := parseRoles(checksRoles)
	if err != nil {
		return err
	}
	reg := checks.Default().Select(roles...)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))).
		Headers("ID", "NAME", "NEEDS", "ALSO", "CHECKLIST ITEM")
	for _, c := range reg.Checks() {
		var also []string
		for _, it := range c.Items[1:] {
			also = append(also, it.Ref)
		}
		t.Row(c.ID, c.Name, c.Needs.String(), strings.Join(also, " "), c.ChecklistItem())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "%d checks, registry %s\n", reg.Len(), reg.Version())
	return nil
}
