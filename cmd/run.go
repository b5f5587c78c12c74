package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/vpp/core/analysis"
	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/policy"
	"github.com/kilianp07/vpp/core/scheduler"
	"github.com/kilianp07/vpp/pkg/export"
)

var (
	runMode      string
	runObjective string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Schedule one mode, or every mode with --mode all",
	RunE:  runSchedule,
}

func init() {
	runCmd.Flags().StringVarP(&runMode, "mode", "m", "", "scheduling mode, or all; prompts when empty")
	runCmd.Flags().StringVarP(&runObjective, "objective", "o", model.ObjectiveCostMinimization.String(), "optimization objective")
	addDataFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

// promptMode asks for a mode on in, by number or name.
func promptMode(in io.Reader, out io.Writer) (string, error) {
	modes := model.AllModes()
	fmt.Fprintln(out, "Available scheduling modes:")
	for i, m := range modes {
		fmt.Fprintf(out, "  %d. %-20s %s\n", i+1, m, policy.Describe(m))
	}
	fmt.Fprintf(out, "  %d. %-20s %s\n", len(modes)+1, "all", "compare every mode")
	fmt.Fprint(out, "Select a mode: ")

	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no mode selected")
	}
	answer := strings.TrimSpace(sc.Text())
	if n, err := strconv.Atoi(answer); err == nil {
		switch {
		case n >= 1 && n <= len(modes):
			return modes[n-1].String(), nil
		case n == len(modes)+1:
			return "all", nil
		default:
			return "", fmt.Errorf("no mode numbered %d", n)
		}
	}
	return answer, nil
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode := runMode
	if mode == "" {
		var err error
		if mode, err = promptMode(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	obj, err := model.ParseObjective(runObjective)
	if err != nil {
		return err
	}
	var m model.SchedulingMode
	if !strings.EqualFold(mode, "all") {
		if m, err = model.ParseMode(mode); err != nil {
			return err
		}
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

	if strings.EqualFold(mode, "all") {
		rep := a.Scheduler.CompareModes(ctx, obj, data.Grid, data.Series)
		return finishBatch(cmd.OutOrStdout(), rep)
	}
	out := a.Scheduler.Run(ctx, scheduler.Job{Name: m.String(), Mode: m, Objective: obj, Grid: data.Grid, Series: data.Series})
	if !out.OK() {
		return fmt.Errorf("run %s: %w", out.RunID, out.Err)
	}
	if err := out.Report.WriteText(cmd.OutOrStdout()); err != nil {
		return err
	}
	return writeExports(cmd.OutOrStdout(), []scheduler.Outcome{out}, analysis.Compare([]analysis.Entry{out.Entry()}))
}

// finishBatch prints the comparison and exports it. It fails only when no
// job produced a schedule.
func finishBatch(w io.Writer, rep scheduler.Report) error {
	if err := rep.Comparison.WriteText(w); err != nil {
		return err
	}
	if best, ok := rep.Comparison.Best(); ok {
		fmt.Fprintf(w, "\nbest: %s / %s, net cost %s yuan\n", best.Mode, best.Objective, best.NetCost.StringFixed(2))
	}
	if err := writeExports(w, rep.Outcomes, rep.Comparison); err != nil {
		return err
	}
	if rep.Succeeded() == 0 {
		return fmt.Errorf("all %d runs failed", len(rep.Outcomes))
	}
	return nil
}

func writeExports(w io.Writer, outs []scheduler.Outcome, c analysis.Comparison) error {
	if exportDir == "" {
		return nil
	}
	runs := make([]export.Run, 0, len(outs))
	for _, o := range outs {
		name := o.Mode.String() + "_" + o.Objective.String()
		runs = append(runs, export.Run{Name: name, Report: o.Report})
	}
	paths, err := export.WriteDir(exportDir, runs, c)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for _, p := range paths {
		fmt.Fprintf(w, "wrote %s\n", p)
	}
	return nil
}
