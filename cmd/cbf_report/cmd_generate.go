package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/cbf_explorer_go/internal/report"
)

func newGenerateCmd(c *cli) *cobra.Command {
	var (
		subject string
		all     bool
		pdfPath string
		profile map[string]string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a PDF report for one subject or for every subject",
		Example: `  cbf_report generate --csv combined_data.csv --subject S01 --pdf S01.pdf
  cbf_report generate --csv combined_data.csv --all
  cbf_report generate --csv combined_data.csv --subject S01 --profile Blood_pressure=92`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (subject != "") {
				return fmt.Errorf("give exactly one of --subject or --all")
			}
			if all && pdfPath != "" {
				return fmt.Errorf("--pdf names a single report; use output_dir with --all")
			}
			userValues, err := parseProfile(profile)
			if err != nil {
				return err
			}
			ex, err := c.open()
			if err != nil {
				return err
			}

			opts := report.DefaultOptions()
			opts.SourceFile = filepath.Base(c.cfg.CSVPath)
			opts.Channels = c.cfg.Channels.Series
			opts.UserProfile = userValues
			opts.Size = report.Size{Width: c.cfg.Charts.Width, Height: c.cfg.Charts.Height}
			gen := report.NewGenerator(ex, opts, c.logger)

			subjects := []string{subject}
			if all {
				subjects = ex.Subjects()
			}
			for _, id := range subjects {
				out := pdfPath
				if out == "" {
					if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
						return fmt.Errorf("error creating output dir: %w", err)
					}
					out = filepath.Join(c.cfg.OutputDir, fmt.Sprintf("%s_report.pdf", id))
				}
				if err := gen.Generate(id, out); err != nil {
					c.logger.Error("report failed", zap.String("subject", id), zap.Error(err))
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "PDF report successfully generated: %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "subject id")
	cmd.Flags().BoolVar(&all, "all", false, "write one report per subject into output_dir")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "output PDF path (default <output_dir>/<subject>_report.pdf)")
	cmd.Flags().StringToStringVar(&profile, "profile", nil, "your own values as channel=value, compared with resting means")
	return cmd
}

func parseProfile(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for ch, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("profile value for %s: %w", ch, err)
		}
		out[ch] = v
	}
	return out, nil
}
