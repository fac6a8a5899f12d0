package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lance13c/lpqa/internal/config"
	"github.com/lance13c/lpqa/internal/database"
	"github.com/lance13c/lpqa/internal/logging"
	"github.com/lance13c/lpqa/internal/pipeline"
	"github.com/spf13/cobra"
)

var cfgFile string
var lpqaConfig *config.Config
var configErr error

// errChecksFailed makes the process exit 1 without printing a usage error
var errChecksFailed = errors.New("one or more checks failed")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lpqa",
	Short: "lpqa - landing page QA",
	Long: `lpqa renders a landing page at desktop and mobile sizes, runs the
developer, designer and copywriter QA checklists against it and reports
PASS/FAIL/WARN/SKIP per item.

Pages can be given directly ('lpqa run <url>'), taken from an Asana task
('lpqa task <gid>') or processed a section at a time ('lpqa batch <project>').`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command, runs it under ctx and
// returns the process exit code. The caller exits so its deferred cleanup runs.
func Execute(ctx context.Context) int {
	return exitCode(os.Stderr, rootCmd.ExecuteContext(ctx))
}

// exitCode reports err on w unless it only signals failed checks
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if !errors.Is(err, errChecksFailed) {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return 1
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .lpqa/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().StringP("project", "p", ".", "project directory")
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	startTime := time.Now()
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	projectDir, _ := rootCmd.PersistentFlags().GetString("project")

	// Initialize logging first
	if err := logging.Initialize(projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to initialize logging: %v\n", err)
	} else {
		logging.RedirectStandardLog()
	}

	if verbose {
		logging.GetLogger().SetLevel(logging.DEBUG)
	}

	loader := config.NewLoader(projectDir)
	if cfgFile != "" {
		lpqaConfig, configErr = loader.LoadFile(cfgFile)
	} else {
		lpqaConfig, configErr = loader.Load()
	}
	if configErr != nil {
		logging.Warn("Failed to load config: %v", configErr)
		return
	}

	logging.Debug("Config loaded in %v", time.Since(startTime))
}

// loadedConfig returns the config or the reason it could not be loaded
func loadedConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	if lpqaConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return lpqaConfig, nil
}

// openHistory opens the run history store. A disabled or unavailable store is
// not fatal; runs simply are not recorded.
func openHistory(cmd *cobra.Command, cfg *config.Config) *database.DB {
	if !cfg.Database.Enabled {
		return nil
	}
	path := cfg.Database.Path
	if !filepath.IsAbs(path) {
		projectDir, _ := cmd.Root().PersistentFlags().GetString("project")
		path = filepath.Join(projectDir, path)
	}
	db, err := database.New(path)
	if err != nil {
		logging.Warn("Run history disabled: %v", err)
		return nil
	}
	return db
}

// newRunner builds a pipeline runner; db may be nil
func newRunner(cfg *config.Config, db *database.DB) *pipeline.Runner {
	var history pipeline.HistoryStore
	if db != nil {
		history = db
	}
	return pipeline.FromConfig(cfg, history)
}
