package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scenecode/internal/preflight"
	"scenecode/internal/store"
	"scenecode/internal/textutil"
)

const statusTimeFormat = "2006-01-02 15:04:05"

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipLedger bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Run preflight checks and show ledger coverage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			results := preflight.RunAll(cmd.Context(), cfg)
			var checkRows [][]string
			failed := 0
			for _, res := range results {
				if !res.Passed {
					failed++
				}
				status := textutil.Ternary(res.Passed, "ok", "FAIL")
				checkRows = append(checkRows, []string{res.Name, status, res.Detail})
			}
			printTable(out,
				[]string{"Check", "Status", "Detail"},
				checkRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft})
			if failed > 0 {
				fmt.Fprintf(out, "%d preflight check(s) failed\n", failed)
			}

			if skipLedger {
				return nil
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
			if len(summaries) > 0 {
				var rows [][]string
				for _, s := range summaries {
					rows = append(rows, []string{
						s.Institution,
						strconv.Itoa(s.Labeled),
						strconv.Itoa(s.Failed),
						s.LastLabeled.Format(statusTimeFormat),
					})
				}
				fmt.Fprintln(out)
				printTable(out,
					[]string{"Institution", "Labeled", "Failed", "Last Labeled"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft})
			}

			runs, err := ledger.ListRuns(cmd.Context(), 10)
			if err != nil {
				return err
			}
			if len(runs) > 0 {
				var rows [][]string
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						string(run.Kind),
						run.Model,
						run.StartedAt.Format(statusTimeFormat),
						formatFinished(run),
						strconv.Itoa(run.RowsLabeled),
						strconv.Itoa(run.RowsFailed),
					})
				}
				fmt.Fprintln(out)
				printTable(out,
					[]string{"Run", "Kind", "Model", "Started", "Finished", "Labeled", "Failed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight})
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipLedger, "checks-only", false, "Run preflight checks without opening the ledger")
	return cmd
}

func formatFinished(run store.Run) string {
	if !run.Finished() {
		return "running"
	}
	return run.FinishedAt.Format(statusTimeFormat)
}
