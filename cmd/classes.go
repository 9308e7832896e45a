package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/vegetation"
)

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List land-cover classes and their biomass coefficients",
	RunE: func(cmd *cobra.Command, _ []string) error {
		formatClasses(os.Stdout, vegetation.All())
		return nil
	},
}

func formatClasses(out io.Writer, classes []vegetation.Class) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tA\tB\tSEQ_RATE\tCOLOR")
	for _, c := range classes {
		a, b := "-", "-"
		if c.HasBiomassModel() {
			a = fmt.Sprintf("%.4f", c.A)
			b = fmt.Sprintf("%.2f", c.B)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.3f\t#%s\n",
			c.ID, c.Name, a, b, carbon.SequestrationRate(c.ID), c.Color)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(classesCmd)
}
