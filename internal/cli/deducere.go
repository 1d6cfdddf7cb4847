package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"salarizare/internal/domain/payroll"
)

var deducereCmd = &cobra.Command{
	Use:   "deducere",
	Short: "Print the personal deduction table",
	Example: `  # Whole table
  salarizare deducere

  # Percentage for a gross income of 4350 lei and two dependents
  salarizare deducere --income 4350 --dependents 2`,
	RunE: runDeducere,
}

func init() {
	rootCmd.AddCommand(deducereCmd)
	deducereCmd.Flags().Float64("income", 0, "look up a single gross income instead of printing the table")
	deducereCmd.Flags().Int("dependents", 0, "number of dependents for --income")
}

func runDeducere(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if cmd.Flags().Changed("income") {
		income, _ := cmd.Flags().GetFloat64("income")
		dependents, _ := cmd.Flags().GetInt("dependents")
		pct, ok := payroll.LookupDeduction(income, dependents)
		if !ok {
			fmt.Fprintf(out, "no deduction for %.2f lei with %d dependents\n", income, dependents)
			return nil
		}
		fmt.Fprintf(out, "%.2f lei, %d dependents: %g%%\n", income, dependents, pct)
		return nil
	}
	return printDeductionTable(out, payroll.Deductions())
}

func printDeductionTable(w io.Writer, table payroll.DeductionTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "row\tfrom\tto\t0\t1\t2\t3\t4+\t")
	for _, r := range table {
		fmt.Fprintf(tw, "%d\t%.0f\t%.0f\t%g\t%g\t%g\t%g\t%g\t\n",
			r.Row, r.From, r.To, r.Dependents0, r.Dependents1, r.Dependents2, r.Dependents3, r.Dependents4Plus)
	}
	return tw.Flush()
}
