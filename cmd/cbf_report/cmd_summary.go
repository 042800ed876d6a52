package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSummaryCmd(c *cli) *cobra.Command {
	var (
		subject  string
		phase    string
		channels []string
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print phase intervals and channel statistics for one subject",
		Example: `  cbf_report summary --csv combined_data.csv --subject S01
  cbf_report summary --csv combined_data.csv --subject S01 --phase Standing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := c.open()
			if err != nil {
				return err
			}
			if len(ex.Series(subject, "")) == 0 {
				return fmt.Errorf("unknown subject %q", subject)
			}
			if len(channels) == 0 {
				channels = c.cfg.Channels.Series
			}

			out := cmd.OutOrStdout()
			intervals, policy := ex.PhaseIntervals(subject)
			fmt.Fprintf(out, "Subject %s: phases derived from %s\n", subject, policy)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PHASE\tSTART (s)\tEND (s)")
			for _, iv := range intervals {
				fmt.Fprintf(w, "%s\t%.1f\t%.1f\n", iv.Label, iv.Start, iv.End)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			scope := "all samples"
			if phase != "" {
				scope = "phase " + phase
			}
			fmt.Fprintf(out, "\nChannel statistics (%s)\n", scope)
			w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CHANNEL\tN\tMEAN\tMEDIAN\tSTD DEV\tMIN\tMAX")
			for _, s := range ex.PhaseSummary(subject, phase, channels) {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n", s.Channel, s.Count,
					num(s.Mean), num(s.Median), num(s.StdDev), num(s.Min), num(s.Max))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "subject id")
	cmd.Flags().StringVar(&phase, "phase", "", "limit statistics to one phase label")
	cmd.Flags().StringSliceVar(&channels, "channels", nil, "channels to summarize (default from config)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}
