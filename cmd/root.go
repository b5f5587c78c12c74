package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/vpp/app"
	"github.com/kilianp07/vpp/config"
	"github.com/kilianp07/vpp/core/datagen"
	"github.com/kilianp07/vpp/infra/logger"
)

var (
	cfgPath   string
	dataPath  string
	exportDir string
)

var rootCmd = &cobra.Command{
	Use:           "vpp",
	Short:         "Virtual power plant scheduling under configurable modes and objectives",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json); built-in defaults when empty")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// addDataFlags registers the input and export flags shared by run and compare.
func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dataPath, "data", "", "CSV dataset to schedule instead of generated data")
	cmd.Flags().StringVar(&exportDir, "export", "", "directory receiving JSON, CSV and YAML exports")
}

func loadApp(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := a.Close(); err != nil {
			logger.New("main").Errorf("app close: %v", err)
		}
	}
	return a, closeFn, nil
}

func loadDataset(a *app.App) (datagen.Dataset, error) {
	if dataPath != "" {
		return datagen.LoadCSV(dataPath)
	}
	return a.Generator().Generate()
}
