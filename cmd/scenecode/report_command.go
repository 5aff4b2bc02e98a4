package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scenecode/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a screenshot contact sheet for visual review",
		Long: `Report walks the results tree and writes an XLSX contact sheet with one
row per scene screenshot: the institution folder, an embedded thumbnail,
the scene number, its measured luminance, and a flag on near-blank stills.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			target := strings.TrimSpace(outPath)
			if target == "" {
				name := "contact_sheet_" + time.Now().Format("20060102_150405") + ".xlsx"
				target = filepath.Join(cfg.Paths.ResultsDir, name)
			}

			builder := report.NewBuilder(cfg, logger)
			sum, err := builder.Build(target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Contact sheet written to %s\n", target)
			fmt.Fprintf(out, "%d institutions, %d screenshots, %d flagged near-blank, %d skipped\n",
				sum.Institutions, sum.Screenshots, sum.Flagged, sum.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Contact sheet destination (default: results tree)")
	return cmd
}
