package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindfullens/internal/config"
	"mindfullens/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mindfullens",
	Short: "MindfulLens - emotional language-pattern analysis on the PHQ-9 scale",
	Long: `MindfulLens reads free-form writing and estimates PHQ-9 style emotional
patterns. It is a supportive tool, not a diagnosis.

Configuration comes from defaults, an optional YAML file (--config) and
MINDFUL_* environment variables, e.g. MINDFUL_API_URL or
MINDFUL_ANALYSIS_PROVIDER.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "override log.level")
}

// loadRuntime reads config and builds the logger for a command
func loadRuntime(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}
