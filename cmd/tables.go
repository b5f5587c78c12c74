package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/policy"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List the scheduling modes and the resources they dispatch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		for _, m := range model.AllModes() {
			var kinds []string
			for _, k := range policy.ResourcesFor(m).Kinds() {
				kinds = append(kinds, k.String())
			}
			fmt.Fprintf(w, "%-20s %s\n%-20s resources: %s\n", m, policy.Describe(m), "", strings.Join(kinds, ", "))
		}
		return nil
	},
}

var objectivesCmd = &cobra.Command{
	Use:   "objectives",
	Short: "List the optimization objectives and their coefficients",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		for _, o := range model.AllObjectives() {
			c := policy.CoefficientsFor(o)
			fmt.Fprintf(w, "%-24s %s\n%-24s cost x%g, revenue x%g", o, policy.DescribeObjective(o), "", c.CostSign, c.RevenueSign)
			if c.AncillaryWeight != 1 {
				fmt.Fprintf(w, ", ancillary weight %g", c.AncillaryWeight)
			}
			if c.HasMinProfit() {
				fmt.Fprintf(w, ", min profit ratio %g", *c.MinProfitRatio)
			}
			fmt.Fprintln(w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modesCmd, objectivesCmd)
}
