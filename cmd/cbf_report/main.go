package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/cbf_explorer_go/internal/config"
	"github.com/user/cbf_explorer_go/internal/explorer"
)

// cli holds state shared by the subcommands of one invocation.
type cli struct {
	configPath string
	logLevel   string
	csvPath    string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "cbf_report",
		Short: "Summaries and PDF reports for cerebral blood flow recordings",
		Long: `cbf_report reads a combined sit-to-stand export and prints per-subject
summaries or writes PDF reports with phase-shaded charts.

Settings come from cbf_explorer.yaml (or --config) and CBF_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.LogLevel = c.logLevel
			}
			if c.csvPath != "" {
				cfg.CSVPath = c.csvPath
			}
			logger, err := config.NewLogger(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.cfg, c.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+config.DefaultFile+" when present)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&c.csvPath, "csv", "", "combined data CSV (overrides csv_path / CBF_CSV_PATH)")

	root.AddCommand(newSubjectsCmd(c), newSummaryCmd(c), newGenerateCmd(c))
	return root
}

// open loads the configured CSV into an Explorer.
func (c *cli) open() (*explorer.Explorer, error) {
	if c.cfg.CSVPath == "" {
		return nil, fmt.Errorf("no CSV given: use --csv, csv_path or CBF_CSV_PATH")
	}
	ex, err := explorer.Open(c.cfg.CSVPath, c.cfg.ExplorerOptions())
	if err != nil {
		return nil, err
	}
	for _, w := range ex.Dataset().Warnings() {
		c.logger.Debug("dataset warning", zap.String("detail", w))
	}
	c.logger.Info("dataset loaded",
		zap.String("path", c.cfg.CSVPath),
		zap.Int("samples", ex.Dataset().Len()),
		zap.Int("subjects", len(ex.Subjects())))
	return ex, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
