package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scenecode/internal/logging"
	"scenecode/internal/media"
	"scenecode/internal/services"
	"scenecode/internal/splitter"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "split [institution ...]",
		Short: "Split institution videos into scene clips",
		Long: `Split runs shot-boundary detection on each institution's source video,
cuts one clip per detected scene, drops clips that are corrupt or mostly
blank, and captures a midpoint screenshot for every surviving clip. The
scenes directory is rebuilt from scratch on every run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			domains, err := selectInstitutions(cfg, args, all)
			if err != nil {
				return err
			}

			tools := media.NewFFmpeg(cfg.FFmpegBinary(), cfg.FFprobeBinary())
			split := splitter.NewSplitter(cfg, tools, logger)

			var rows [][]string
			failed := 0
			for _, domain := range domains {
				res, err := split.SplitInstitution(cmd.Context(), domain)
				if err != nil {
					// One institution's bad video must not abandon the rest
					// of the batch.
					if !services.Recoverable(err) {
						return fmt.Errorf("split %s: %w", domain, err)
					}
					logger.Error("split institution failed",
						logging.String(logging.FieldInstitution, domain),
						logging.Error(err))
					failed++
					continue
				}
				rows = append(rows, []string{
					domain,
					strconv.Itoa(res.Boundaries),
					strconv.Itoa(res.Clips),
					strconv.Itoa(res.Corrupt),
					strconv.Itoa(res.Blank),
					strconv.Itoa(res.Screenshots),
				})
			}

			out := cmd.OutOrStdout()
			printTable(out,
				[]string{"Institution", "Boundaries", "Clips", "Corrupt", "Blank", "Screenshots"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight})
			if failed > 0 {
				fmt.Fprintf(out, "%d institution(s) failed; see log for details\n", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Split every institution under the results tree")
	return cmd
}

func newSubsplitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "subsplit <institution> <scene> [scene ...]",
		Short: "Re-split existing scene clips with per-site detection parameters",
		Long: `Subsplit re-runs shot-boundary detection on individual scene clips using
the per-site parameters from the detect lookup table, writing numbered
fragments alongside the original clip for operator review. The original
clip is never replaced.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			domain := args[0]
			nums := make([]int, 0, len(args)-1)
			for _, arg := range args[1:] {
				num, err := strconv.Atoi(arg)
				if err != nil || num < 1 {
					return fmt.Errorf("scene number %q is not a positive integer", arg)
				}
				nums = append(nums, num)
			}

			tools := media.NewFFmpeg(cfg.FFmpegBinary(), cfg.FFprobeBinary())
			split := splitter.NewSplitter(cfg, tools, logger)

			var rows [][]string
			for _, num := range nums {
				res, err := split.SubsplitScene(cmd.Context(), domain, num)
				if err != nil {
					return fmt.Errorf("subsplit %s scene %d: %w", domain, num, err)
				}
				rows = append(rows, []string{
					strconv.Itoa(num),
					strconv.Itoa(res.Params.FrameStep),
					strconv.FormatFloat(res.Params.Threshold, 'f', 2, 64),
					strconv.Itoa(res.Boundaries),
					strconv.Itoa(res.Fragments),
					strconv.Itoa(res.Screenshots),
				})
			}

			printTable(cmd.OutOrStdout(),
				[]string{"Scene", "Step", "Threshold", "Boundaries", "Fragments", "Screenshots"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight})
			return nil
		},
	}
}
