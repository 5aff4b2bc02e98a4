package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scenecode/internal/fetch"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <scan-sheet>",
		Short: "Download institution videos listed in a scan sheet",
		Long: `Fetch reads the site-scan spreadsheet (CSV or XLSX), keeps the rows for
primary .edu sites with a recorded video source, and downloads each video
into its institution directory under the results tree. Videos already on
disk are left alone, and a failed download never stops the batch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			fetcher := fetch.NewFetcher(cfg, logger)
			sum, err := fetcher.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printTable(cmd.OutOrStdout(),
				[]string{"Rows", "Downloaded", "Existing", "Skipped", "Failed"},
				[][]string{{
					strconv.Itoa(sum.Rows),
					strconv.Itoa(sum.Downloaded),
					strconv.Itoa(sum.Existing),
					strconv.Itoa(sum.SkippedRows),
					strconv.Itoa(sum.Failed),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight})
			return nil
		},
	}
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discover <page-url> [page-url ...]",
		Short: "Scrape candidate video URLs from institution pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			fetcher := fetch.NewFetcher(cfg, logger)
			var rows [][]string
			for _, page := range args {
				candidates, err := fetcher.Discover(cmd.Context(), page)
				if err != nil {
					return fmt.Errorf("discover %s: %w", page, err)
				}
				if len(candidates) == 0 {
					rows = append(rows, []string{page, "(no candidates)"})
					continue
				}
				for _, candidate := range candidates {
					rows = append(rows, []string{page, candidate})
				}
			}

			printTable(cmd.OutOrStdout(),
				[]string{"Page", "Candidate"},
				rows,
				[]columnAlignment{alignLeft, alignLeft})
			return nil
		},
	}
}
