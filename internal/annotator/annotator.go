// Package annotator runs the per-scene description pass: every scene
// screenshot in an institution's directory is sent to the vision endpoint
// twice, once for a free-text description and once for a category, and the
// replies land in the ledger and a timestamped workbook.
package annotator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"scenecode/internal/config"
	"scenecode/internal/export"
	"scenecode/internal/labeling"
	"scenecode/internal/logging"
	"scenecode/internal/media"
	"scenecode/internal/scenes"
	"scenecode/internal/services"
	"scenecode/internal/store"
)

// Describer is the slice of the labeling client the annotator uses.
type Describer interface {
	Describe(ctx context.Context, imagePath string) (string, error)
	Categorize(ctx context.Context, imagePath string) (string, error)
	Model() string
}

// Annotator drives one description batch over institutions' scene
// screenshots.
type Annotator struct {
	cfg    *config.Config
	client Describer
	tools  media.Toolchain
	ledger *store.Store
	naming scenes.Naming
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewAnnotator wires an annotator against the vision client, toolchain,
// and ledger.
func NewAnnotator(cfg *config.Config, client Describer, tools media.Toolchain, ledger *store.Store, logger *slog.Logger) *Annotator {
	return &Annotator{
		cfg:    cfg,
		client: client,
		tools:  tools,
		ledger: ledger,
		naming: scenes.Naming{VideoExt: cfg.Scenes.VideoExt, ImageExt: cfg.Scenes.ImageExt},
		logger: logging.NewComponentLogger(logger, "annotator"),
		sleep:  sleepContext,
	}
}

// Summary reports what one description batch did.
type Summary struct {
	RunID        string
	Institutions int
	Scenes       int
	Failed       int
	WorkbookPath string
}

// Run annotates every scene screenshot for the named institutions. An
// empty list walks the whole results tree. Per-scene failures are captured
// as ERROR text and the batch continues.
func (a *Annotator) Run(ctx context.Context, institutions []string) (Summary, error) {
	var sum Summary

	if len(institutions) == 0 {
		discovered, err := a.discoverInstitutions()
		if err != nil {
			return sum, err
		}
		institutions = discovered
	}

	run, err := a.ledger.BeginRun(ctx, store.RunDescribe, "", a.client.Model())
	if err != nil {
		return sum, err
	}
	sum.RunID = run.ID
	ctx = services.WithStage(services.WithRunID(ctx, run.ID), "describe")

	for _, domain := range institutions {
		annotated, failed, err := a.annotateInstitution(ctx, run.ID, domain)
		if err != nil {
			return sum, err
		}
		sum.Scenes += annotated
		sum.Failed += failed
		sum.Institutions++
	}

	if err := a.ledger.FinishRun(ctx, run.ID, sum.Institutions, sum.Scenes, sum.Failed); err != nil {
		return sum, err
	}

	notes, err := a.ledger.ListSceneNotes(ctx, "")
	if err != nil {
		return sum, err
	}
	workbook := filepath.Join(a.cfg.Paths.ResultsDir, export.ScenesWorkbookName(time.Now()))
	if err := export.WriteScenesWorkbook(workbook, notes); err != nil {
		return sum, err
	}
	sum.WorkbookPath = workbook

	a.logger.Info("description batch finished",
		logging.String(logging.FieldRunID, run.ID),
		logging.Int("institutions", sum.Institutions),
		logging.Int("scenes", sum.Scenes),
		logging.Int("failed", sum.Failed))
	return sum, nil
}

// discoverInstitutions lists results subdirectories that contain a scenes
// directory, in name order.
func (a *Annotator) discoverInstitutions() ([]string, error) {
	entries, err := os.ReadDir(a.cfg.Paths.ResultsDir)
	if err != nil {
		return nil, err
	}
	var domains []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		scenesDir := filepath.Join(a.cfg.Paths.ResultsDir, entry.Name(), "scenes")
		if info, err := os.Stat(scenesDir); err == nil && info.IsDir() {
			domains = append(domains, entry.Name())
		}
	}
	sort.Strings(domains)
	return domains, nil
}

// annotateInstitution describes every screenshot under one institution's
// scenes directory in scene order. A missing directory annotates nothing.
func (a *Annotator) annotateInstitution(ctx context.Context, runID, domain string) (int, int, error) {
	scenesDir := a.cfg.ScenesDir(domain)
	ctx = services.WithInstitution(ctx, domain)
	logger := logging.WithContext(ctx, a.logger)

	nums, err := a.listScreenshots(scenesDir)
	if err != nil {
		logger.Warn("list scenes directory failed", logging.Error(err))
		return 0, 0, nil
	}

	throttle := a.cfg.GetLLM().Throttle
	annotated, failed := 0, 0
	for _, num := range nums {
		if err := ctx.Err(); err != nil {
			return annotated, failed, err
		}
		shotPath := a.naming.ScreenshotPath(scenesDir, num)

		length := 0.0
		clipPath := a.naming.ClipPath(scenesDir, num)
		if probe, err := a.tools.Probe(ctx, clipPath); err != nil {
			logger.Warn("probe scene clip failed",
				logging.Int(logging.FieldScene, num),
				logging.Error(err))
		} else {
			length = probe.DurationSeconds()
		}

		description := a.ask(ctx, a.client.Describe, shotPath)
		category := a.ask(ctx, a.client.Categorize, shotPath)
		if throttle > 0 {
			if err := a.sleep(ctx, throttle); err != nil {
				return annotated, failed, err
			}
		}

		note := &store.SceneNote{
			RunID:         runID,
			Institution:   domain,
			Scene:         num,
			LengthSeconds: length,
			ImagePath:     shotPath,
			Description:   description,
			Category:      category,
		}
		if err := a.ledger.UpsertSceneNote(ctx, note); err != nil {
			return annotated, failed, err
		}
		if note.Failed() {
			failed++
			logger.Warn("annotation failure captured",
				logging.Int(logging.FieldScene, num))
		} else {
			annotated++
		}
	}
	return annotated, failed, nil
}

// ask sends one vision request and folds any error into the recorded text.
func (a *Annotator) ask(ctx context.Context, call func(context.Context, string) (string, error), imagePath string) string {
	output, err := call(ctx, imagePath)
	if err != nil {
		return labeling.ErrorString(err)
	}
	return output
}

// listScreenshots returns the scene numbers that have a screenshot on
// disk, ascending. Fragment screenshots (scene_<n>_<k>_screenshot) do not
// parse as a bare number and are ignored.
func (a *Annotator) listScreenshots(scenesDir string) ([]int, error) {
	entries, err := os.ReadDir(scenesDir)
	if err != nil {
		return nil, err
	}
	suffix := "_screenshot." + strings.ToLower(a.naming.ImageExt)
	var nums []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasPrefix(name, scenes.Prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		stem := name[len(scenes.Prefix) : len(name)-len(suffix)]
		num, err := strconv.Atoi(stem)
		if err != nil || num < 1 {
			continue
		}
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums, nil
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
