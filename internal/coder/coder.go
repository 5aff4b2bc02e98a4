// Package coder runs the per-clip labeling batch: for every institution in
// the coder sheet it resolves continuation scenes, writes the glue file,
// sends each clip's representative still to the vision endpoint, and
// records the verbatim reply in the ledger and the delivery exports.
package coder

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"scenecode/internal/config"
	"scenecode/internal/export"
	"scenecode/internal/glue"
	"scenecode/internal/labeling"
	"scenecode/internal/logging"
	"scenecode/internal/scenes"
	"scenecode/internal/services"
	"scenecode/internal/sheet"
	"scenecode/internal/store"
)

// VisionClient is the slice of the labeling client the coder uses, split
// out so tests can substitute a canned model.
type VisionClient interface {
	CodeClip(ctx context.Context, req labeling.ClipRequest) (string, error)
	Model() string
}

// Coder drives one labeling batch over a coder sheet.
type Coder struct {
	cfg    *config.Config
	client VisionClient
	ledger *store.Store
	naming scenes.Naming
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewCoder wires a coder against the vision client and ledger.
func NewCoder(cfg *config.Config, client VisionClient, ledger *store.Store, logger *slog.Logger) *Coder {
	return &Coder{
		cfg:    cfg,
		client: client,
		ledger: ledger,
		naming: scenes.Naming{VideoExt: cfg.Scenes.VideoExt, ImageExt: cfg.Scenes.ImageExt},
		logger: logging.NewComponentLogger(logger, "coder"),
		sleep:  sleepContext,
	}
}

// Options select which sheet rows a batch processes.
type Options struct {
	// Institutions restricts the batch to the named domains; empty means
	// every institution in the sheet.
	Institutions []string
	// Recode forces re-labeling of rows that already carry a non-ERROR
	// output in the ledger.
	Recode bool
}

// Summary reports what one batch did.
type Summary struct {
	RunID        string
	Institutions int
	Labeled      int
	Failed       int
	Skipped      int
	DroppedRows  int
	WorkbookPath string
}

// Run labels every selected clip row in the sheet. Per-row failures are
// captured as ERROR outputs and the batch continues; only context
// cancellation and ledger failures abort.
func (c *Coder) Run(ctx context.Context, sheetPath string, opts Options) (Summary, error) {
	var sum Summary

	table, err := sheet.ReadTable(sheetPath)
	if err != nil {
		return sum, err
	}
	schema := sheet.NewSchema(c.cfg.Sheet.Aliases)
	mapping, err := schema.Detect(table.Headers, sheet.FieldDomain, sheet.FieldClip)
	if err != nil {
		return sum, err
	}
	rows, dropped := sheet.ParseClips(table, mapping)
	sum.DroppedRows = len(dropped)
	for _, rowNum := range dropped {
		c.logger.Warn("dropping unusable sheet row", logging.Int("row", rowNum))
	}

	groups := sheet.GroupByDomain(rows)
	if selected := institutionSet(opts.Institutions); selected != nil {
		filtered := groups[:0]
		for _, group := range groups {
			if _, ok := selected[group.Domain]; ok {
				filtered = append(filtered, group)
			}
		}
		groups = filtered
	}

	run, err := c.ledger.BeginRun(ctx, store.RunCode, sheetPath, c.client.Model())
	if err != nil {
		return sum, err
	}
	sum.RunID = run.ID
	ctx = services.WithStage(services.WithRunID(ctx, run.ID), "code")

	for _, group := range groups {
		if err := c.codeInstitution(ctx, run.ID, group, opts.Recode, &sum); err != nil {
			return sum, err
		}
		sum.Institutions++
	}

	if err := c.ledger.FinishRun(ctx, run.ID, sum.Institutions, sum.Labeled, sum.Failed); err != nil {
		return sum, err
	}

	labels, err := c.ledger.ListClipLabels(ctx, "")
	if err != nil {
		return sum, err
	}
	workbook := filepath.Join(c.cfg.Paths.ResultsDir, export.ClipsWorkbookName(time.Now()))
	if err := export.WriteClipsWorkbook(workbook, labels); err != nil {
		return sum, err
	}
	sum.WorkbookPath = workbook

	c.logger.Info("labeling batch finished",
		logging.String(logging.FieldRunID, run.ID),
		logging.Int("institutions", sum.Institutions),
		logging.Group("rows",
			logging.Int("labeled", sum.Labeled),
			logging.Int("failed", sum.Failed),
			logging.Int("skipped", sum.Skipped)))
	return sum, nil
}

// codeInstitution resolves one institution's scenes, writes glue.csv, and
// labels each sheet row in clip order. The analysis CSV is regenerated
// from the ledger afterward so resumed and skipped rows appear too.
func (c *Coder) codeInstitution(ctx context.Context, runID string, group sheet.InstitutionClips, recode bool, sum *Summary) error {
	instDir := c.cfg.InstitutionDir(group.Domain)
	scenesDir := c.cfg.ScenesDir(group.Domain)
	ctx = services.WithInstitution(ctx, group.Domain)
	logger := logging.WithContext(ctx, c.logger)

	inv, skippedNames, err := scenes.ListInventory(scenesDir, c.naming)
	if err != nil {
		return err
	}
	for _, name := range skippedNames {
		logger.Warn("ignoring unparseable scene file", logging.String("file", name))
	}
	logger.Debug("listed scene inventory", logging.Int("scenes", inv.Len()))

	bases := make([]int, len(group.Rows))
	for i, row := range group.Rows {
		bases[i] = row.Clip
	}
	resolutions := scenes.Resolve(scenesDir, inv, bases, c.naming)

	var records []glue.Record
	for _, res := range resolutions {
		if len(res.Continuations) == 0 {
			continue
		}
		records = append(records, glue.Record{Base: res.Base, Continuations: res.Continuations})
	}
	if err := glue.WriteRecords(glue.PathFor(instDir), records); err != nil {
		return err
	}

	throttle := c.cfg.GetLLM().Throttle
	for i, row := range group.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := resolutions[i]

		if !recode {
			existing, err := c.ledger.GetClipLabel(ctx, group.Domain, row.Clip)
			if err != nil {
				return err
			}
			if existing != nil && existing.Labeled() {
				sum.Skipped++
				continue
			}
		}

		label := &store.ClipLabel{
			RunID:       runID,
			Institution: group.Domain,
			Clip:        row.Clip,
			Length:      row.Length,
			Category:    row.Category,
			Subcategory: row.Subcategory,
			Description: row.Description,
			Revision:    row.Revision,
			ScenesGuess: res.Range,
			ImagePath:   res.ImagePath,
		}
		if i+1 < len(group.Rows) {
			label.NextClip = group.Rows[i+1].Clip
			label.HasNext = true
		}

		switch {
		case res.ImagePath == "":
			logger.Warn("no representative image, recording empty output",
				logging.Int(logging.FieldClip, row.Clip))
			sum.Labeled++
		default:
			output, err := c.client.CodeClip(ctx, labeling.ClipRequest{
				Domain:    group.Domain,
				Clip:      row.Clip,
				Range:     res.Range,
				ImagePath: res.ImagePath,
			})
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				label.Output = labeling.ErrorString(err)
				sum.Failed++
				logger.Warn("labeling failed, captured in output",
					logging.Int(logging.FieldClip, row.Clip),
					logging.Error(err))
			} else {
				label.Output = output
				sum.Labeled++
			}
			if throttle > 0 {
				if err := c.sleep(ctx, throttle); err != nil {
					return err
				}
			}
		}

		if err := c.ledger.UpsertClipLabel(ctx, label); err != nil {
			return err
		}
	}

	labels, err := c.ledger.ListClipLabels(ctx, group.Domain)
	if err != nil {
		return err
	}
	return export.WriteClipsCSV(filepath.Join(instDir, export.ClipsFileName), labels)
}

func institutionSet(institutions []string) map[string]struct{} {
	if len(institutions) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(institutions))
	for _, inst := range institutions {
		if domain := sheet.ParseDomain(inst); domain != "" {
			set[domain] = struct{}{}
		}
	}
	return set
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
