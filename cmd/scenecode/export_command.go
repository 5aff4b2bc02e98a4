package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scenecode/internal/export"
	"scenecode/internal/store"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Regenerate consolidated exports from the ledger",
		Long: `Export rebuilds the consolidated clip and scene spreadsheets from the
ledger, in both CSV and XLSX form. It can be run at any time: the ledger
is the source of truth, so interrupted batches still export whatever they
recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ledger, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer ledger.Close()

			labels, err := ledger.ListClipLabels(cmd.Context(), "")
			if err != nil {
				return err
			}
			notes, err := ledger.ListSceneNotes(cmd.Context(), "")
			if err != nil {
				return err
			}

			dir := strings.TrimSpace(outDir)
			if dir == "" {
				dir = cfg.Paths.ResultsDir
			}
			now := time.Now()
			out := cmd.OutOrStdout()

			if len(labels) > 0 {
				workbook := filepath.Join(dir, export.ClipsWorkbookName(now))
				if err := export.WriteClipsWorkbook(workbook, labels); err != nil {
					return err
				}
				clipsCSV := strings.TrimSuffix(workbook, ".xlsx") + ".csv"
				if err := export.WriteClipsCSV(clipsCSV, labels); err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported %d clip labels to %s\n", len(labels), workbook)
			} else {
				fmt.Fprintln(out, "No clip labels in the ledger")
			}

			if len(notes) > 0 {
				workbook := filepath.Join(dir, export.ScenesWorkbookName(now))
				if err := export.WriteScenesWorkbook(workbook, notes); err != nil {
					return err
				}
				scenesCSV := strings.TrimSuffix(workbook, ".xlsx") + ".csv"
				if err := export.WriteScenesCSV(scenesCSV, notes); err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported %d scene notes to %s\n", len(notes), workbook)
			} else {
				fmt.Fprintln(out, "No scene notes in the ledger")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "dir", "d", "", "Export directory (default: results tree)")
	return cmd
}
