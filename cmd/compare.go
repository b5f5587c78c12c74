package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/scheduler"
)

var (
	compareObjective string
	compareAll       bool
	compareJobs      string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare every mode under one objective, the full matrix, or a job file",
	RunE:  compare,
}

func init() {
	compareCmd.Flags().StringVarP(&compareObjective, "objective", "o", model.ObjectiveCostMinimization.String(), "optimization objective")
	compareCmd.Flags().BoolVar(&compareAll, "all-objectives", false, "compare every mode under every objective")
	compareCmd.Flags().StringVar(&compareJobs, "jobs", "", "yaml or json job file listing the runs to compare")
	addDataFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}

func compare(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obj, err := model.ParseObjective(compareObjective)
	if err != nil {
		return err
	}
	a, closeFn, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	data, err := loadDataset(a)
	if err != nil {
		return fmt.Errorf("dataset: %w", err)
	}

	var rep scheduler.Report
	switch {
	case compareJobs != "":
		jf, err := scheduler.LoadJobs(compareJobs)
		if err != nil {
			return err
		}
		jobs, err := jf.Resolve(a.Scheduler.Catalogue(), data.Grid, data.Series)
		if err != nil {
			return err
		}
		rep = a.Scheduler.Batch(ctx, jobs)
	case compareAll:
		rep = a.Scheduler.CompareAll(ctx, data.Grid, data.Series)
	default:
		rep = a.Scheduler.CompareModes(ctx, obj, data.Grid, data.Series)
	}
	return finishBatch(cmd.OutOrStdout(), rep)
}
