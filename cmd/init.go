package cmd

import (
	"fmt"
	"os"

	"github.com/lance13c/lpqa/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .lpqa/config.yaml",
	Long: `Init writes the default configuration to .lpqa/config.yaml in the
project directory so thresholds, viewports and output formats can be tuned.

The Asana token is never written; set ASANA_ACCESS_TOKEN instead.`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")
}

func runInit(cmd *cobra.Command, args []string) error {
	projectDir, _ := cmd.Root().PersistentFlags().GetString("project")
	loader := config.NewLoader(projectDir)
	path := loader.GetConfigPath()

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := loader.Save(config.DefaultConfig(), path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s\n", path)
	return nil
}
