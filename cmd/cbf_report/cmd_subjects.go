package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSubjectsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List subjects with sample counts and phase segmentation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := c.open()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SUBJECT\tSAMPLES\tSTART (s)\tEND (s)\tPHASES")
			for _, id := range ex.Subjects() {
				samples := ex.Series(id, "")
				intervals, policy := ex.PhaseIntervals(id)
				fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%d (%s)\n",
					id, len(samples), samples[0].Time, samples[len(samples)-1].Time, len(intervals), policy)
			}
			return w.Flush()
		},
	}
}
