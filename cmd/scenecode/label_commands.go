package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scenecode/internal/annotator"
	"scenecode/internal/coder"
	"scenecode/internal/labeling"
	"scenecode/internal/media"
	"scenecode/internal/store"
)

func newCodeCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var recode bool

	cmd := &cobra.Command{
		Use:   "code <coder-sheet> [institution ...]",
		Short: "Label coder clips with the vision model",
		Long: `Code sends each coder row's representative screenshot to the vision
endpoint with the codebook prompt and records the model's reply verbatim
in the ledger and per-institution clips_analysis.csv. Rows already labeled
in the ledger are skipped unless --recode is passed; failed rows are
always retried. A consolidated workbook is exported when the batch ends.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			if !all && len(args) < 2 {
				return fmt.Errorf("name at least one institution or pass --all")
			}
			if all && len(args) > 1 {
				return fmt.Errorf("pass institution names or --all, not both")
			}

			ledger, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer ledger.Close()

			client := labeling.NewClient(cfg.GetLLM())
			batch := coder.NewCoder(cfg, client, ledger, logger)
			sum, err := batch.Run(cmd.Context(), args[0], coder.Options{
				Institutions: args[1:],
				Recode:       recode,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTable(out,
				[]string{"Institutions", "Labeled", "Failed", "Skipped", "Dropped"},
				[][]string{{
					strconv.Itoa(sum.Institutions),
					strconv.Itoa(sum.Labeled),
					strconv.Itoa(sum.Failed),
					strconv.Itoa(sum.Skipped),
					strconv.Itoa(sum.DroppedRows),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight})
			fmt.Fprintf(out, "Run %s; workbook written to %s\n", sum.RunID, sum.WorkbookPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Label every institution in the sheet")
	cmd.Flags().BoolVar(&recode, "recode", false, "Re-label rows that already carry a label")
	return cmd
}

func newDescribeCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "describe [institution ...]",
		Short: "Describe and categorize every scene screenshot",
		Long: `Describe walks each institution's scenes directory and asks the vision
endpoint for a free-text description and a category per screenshot,
recording both in the ledger along with the probed clip length. The
collected notes are exported as a timestamped workbook.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			if !all && len(args) == 0 {
				return fmt.Errorf("name at least one institution or pass --all")
			}
			if all && len(args) > 0 {
				return fmt.Errorf("pass institution names or --all, not both")
			}

			ledger, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer ledger.Close()

			client := labeling.NewClient(cfg.GetLLM())
			tools := media.NewFFmpeg(cfg.FFmpegBinary(), cfg.FFprobeBinary())
			batch := annotator.NewAnnotator(cfg, client, tools, ledger, logger)
			sum, err := batch.Run(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTable(out,
				[]string{"Institutions", "Scenes", "Failed"},
				[][]string{{
					strconv.Itoa(sum.Institutions),
					strconv.Itoa(sum.Scenes),
					strconv.Itoa(sum.Failed),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight})
			fmt.Fprintf(out, "Run %s; workbook written to %s\n", sum.RunID, sum.WorkbookPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Describe every institution under the results tree")
	return cmd
}
