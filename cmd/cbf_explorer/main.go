package main

import (
	"embed"
	"log"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"go.uber.org/zap"

	"github.com/user/cbf_explorer_go/internal/config"
)

//go:embed all:frontend/public
var assets embed.FS

func main() {
	if err := newRootCmd(runApp).Execute(); err != nil {
		log.Fatal(err)
	}
}

// newRootCmd loads config and logger, then hands them to run.
func newRootCmd(run func(cfg *config.Config, logger *zap.Logger) error) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "cbf_explorer",
		Short:         "Desktop explorer for cerebral blood flow sit-to-stand recordings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return run(cfg, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (default ./"+config.DefaultFile+" when present)")
	return cmd
}

func runApp(cfg *config.Config, logger *zap.Logger) error {
	app := NewApp(cfg, logger) // Defined in app.go

	err := wails.Run(&options.App{
		Title:  "CBF Explorer",
		Width:  1100,
		Height: 760,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 46, G: 46, B: 46, A: 255}, // #2e2e2e
		OnStartup:        app.Startup,
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		logger.Error("Error running Wails app", zap.Error(err))
	}
	return err
}
