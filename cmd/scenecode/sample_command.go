package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scenecode/internal/ipeds"
	"scenecode/internal/store"
)

func newSampleCommand(ctx *commandContext) *cobra.Command {
	var rate float64
	var seed int64
	var outPath string

	cmd := &cobra.Command{
		Use:   "sample <hd-csv>",
		Short: "Draw a stratified sample of coded institutions",
		Long: `Sample joins the institutions in the ledger against an IPEDS HD
institutional-characteristics file, stratifies them on the configured
columns, and draws a seeded proportional sample with at least one row per
non-empty stratum. Institutions absent from the directory fall into the
UNKNOWN stratum. The draw is written as a CSV and the population-vs-sample
prevalence printed per stratum.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("rate") {
				rate = cfg.Sample.Rate
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Sample.Seed
			}

			dir, err := ipeds.LoadDirectory(args[0], cfg.Sample.Strata)
			if err != nil {
				return err
			}

			ledger, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer ledger.Close()

			summaries, err := ledger.InstitutionSummaries(cmd.Context())
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				return fmt.Errorf("ledger holds no labeled institutions; run code first")
			}
			domains := make([]string, len(summaries))
			for i, summary := range summaries {
				domains[i] = summary.Institution
			}

			result := ipeds.Sample(domains, dir, rate, seed)

			target := strings.TrimSpace(outPath)
			if target == "" {
				name := "sample_" + time.Now().Format("20060102_150405") + ".csv"
				target = filepath.Join(cfg.Paths.ResultsDir, name)
			}
			if err := writeSampleCSV(target, result.Selected); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var rows [][]string
			for _, stat := range result.Prevalence {
				rows = append(rows, []string{
					stat.Stratum,
					strconv.Itoa(stat.Population),
					strconv.Itoa(stat.Sampled),
				})
			}
			printTable(out,
				[]string{"Stratum", "Population", "Sampled"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight})
			fmt.Fprintf(out, "Sampled %d of %d institutions (rate %.2f, seed %d); written to %s\n",
				len(result.Selected), len(domains), rate, seed, target)
			return nil
		},
	}

	cmd.Flags().Float64Var(&rate, "rate", 0, "Sampling rate (default: config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Shuffle seed (default: config)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Sample CSV destination (default: results tree)")
	return cmd
}

func writeSampleCSV(path string, selected []ipeds.SampledRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sample directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sample file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"domain", "institution_name", "stratum"}); err != nil {
		return fmt.Errorf("write sample header: %w", err)
	}
	for _, row := range selected {
		if err := w.Write([]string{row.Domain, row.Name, row.Stratum}); err != nil {
			return fmt.Errorf("write sample row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
