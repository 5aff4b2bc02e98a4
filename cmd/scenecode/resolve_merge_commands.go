package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"scenecode/internal/glue"
	"scenecode/internal/logging"
	"scenecode/internal/media"
	"scenecode/internal/scenes"
	"scenecode/internal/services"
	"scenecode/internal/sheet"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var write bool

	cmd := &cobra.Command{
		Use:   "resolve <coder-sheet> [institution ...]",
		Short: "Show scene continuations for coder rows",
		Long: `Resolve matches each coder row's clip number against the scene files on
disk, computing the continuation window between consecutive clips and the
representative screenshot the labeler would use. With --write the
continuations are also saved as each institution's glue file, ready for
merge.`,
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

			table, err := sheet.ReadTable(args[0])
			if err != nil {
				return err
			}
			mapping, err := sheet.NewSchema(cfg.Sheet.Aliases).Detect(table.Headers, sheet.FieldDomain, sheet.FieldClip)
			if err != nil {
				return err
			}
			clipRows, dropped := sheet.ParseClips(table, mapping)
			if len(dropped) > 0 {
				logger.Warn("dropped unparseable sheet rows", logging.Int("rows", len(dropped)))
			}
			groups := sheet.GroupByDomain(clipRows)

			selected := make(map[string]struct{})
			for _, arg := range args[1:] {
				if domain := sheet.ParseDomain(arg); domain != "" {
					selected[domain] = struct{}{}
				}
			}

			naming := scenes.Naming{VideoExt: cfg.Scenes.VideoExt, ImageExt: cfg.Scenes.ImageExt}
			var rows [][]string
			for _, group := range groups {
				if !all {
					if _, ok := selected[group.Domain]; !ok {
						continue
					}
				}
				scenesDir := cfg.ScenesDir(group.Domain)
				inv, skipped, err := scenes.ListInventory(scenesDir, naming)
				if err != nil {
					return fmt.Errorf("list scenes for %s: %w", group.Domain, err)
				}
				for _, name := range skipped {
					logger.Warn("ignoring unparseable scene file",
						logging.String(logging.FieldInstitution, group.Domain),
						logging.String("file", name))
				}

				bases := make([]int, len(group.Rows))
				for i, row := range group.Rows {
					bases[i] = row.Clip
				}
				resolutions := scenes.Resolve(scenesDir, inv, bases, naming)

				var records []glue.Record
				for _, res := range resolutions {
					image := "(none)"
					if res.ImagePath != "" {
						image = filepath.Base(res.ImagePath)
					}
					rng := res.Range
					if rng == "" {
						rng = "-"
					}
					rows = append(rows, []string{group.Domain, strconv.Itoa(res.Base), rng, image})
					if len(res.Continuations) > 0 {
						records = append(records, glue.Record{Base: res.Base, Continuations: res.Continuations})
					}
				}

				if write {
					if err := glue.WriteRecords(glue.PathFor(cfg.InstitutionDir(group.Domain)), records); err != nil {
						return err
					}
				}
			}

			printTable(cmd.OutOrStdout(),
				[]string{"Institution", "Clip", "Continuations", "Image"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft})
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Resolve every institution in the sheet")
	cmd.Flags().BoolVar(&write, "write", false, "Write each institution's glue file")
	return cmd
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "merge [institution ...]",
		Short: "Merge continuation scenes into their base clips",
		Long: `Merge applies each institution's glue file: every record's continuation
clips are concatenated into the base clip and the spent sources removed.
Merging is destructive and runs at most once; a second pass finds nothing
left to do. Screenshots are regenerated for every surviving clip.`,
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
			merger := glue.NewMerger(cfg, tools, logger)

			var rows [][]string
			failed := 0
			for _, domain := range domains {
				res, err := merger.MergeInstitution(cmd.Context(), domain)
				if err != nil {
					// Concat failures leave that institution's sources
					// intact; the rest of the batch still merges.
					if !services.Recoverable(err) {
						return fmt.Errorf("merge %s: %w", domain, err)
					}
					logger.Error("merge institution failed",
						logging.String(logging.FieldInstitution, domain),
						logging.Error(err))
					failed++
					continue
				}
				rows = append(rows, []string{
					domain,
					strconv.Itoa(res.Merged),
					strconv.Itoa(res.Skipped),
					strconv.Itoa(res.SourcesRemoved),
					strconv.Itoa(res.Screenshots),
				})
			}

			out := cmd.OutOrStdout()
			printTable(out,
				[]string{"Institution", "Merged", "Skipped", "Removed", "Screenshots"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight})
			if failed > 0 {
				fmt.Fprintf(out, "%d institution(s) failed; see log for details\n", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Merge every institution under the results tree")
	return cmd
}
