// Package report builds the screenshot contact sheet: an XLSX workbook
// with an embedded thumbnail per scene screenshot, used for quick visual
// review of an entire results tree.
package report

import (
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"github.com/xuri/excelize/v2"

	"scenecode/internal/config"
	"scenecode/internal/logging"
	"scenecode/internal/scenes"
	"scenecode/internal/services"
)

const (
	// thumbEdge bounds both thumbnail dimensions.
	thumbEdge = 125
	// thumbPrefix names cached thumbnails next to their screenshots.
	thumbPrefix = "thumb_"
	sheetName   = "report"

	// Luminance bounds beyond which a still is flagged as near-blank.
	blankDarkMax   = 0.05
	blankBrightMin = 0.95
)

// Builder renders contact sheets from a results tree.
type Builder struct {
	cfg    *config.Config
	naming scenes.Naming
	logger *slog.Logger
}

// NewBuilder wires a contact sheet builder.
func NewBuilder(cfg *config.Config, logger *slog.Logger) *Builder {
	return &Builder{
		cfg:    cfg,
		naming: scenes.Naming{VideoExt: cfg.Scenes.VideoExt, ImageExt: cfg.Scenes.ImageExt},
		logger: logging.NewComponentLogger(logger, "report"),
	}
}

// Summary reports what one contact sheet build did.
type Summary struct {
	Institutions int
	Screenshots  int
	Flagged      int
	Skipped      int
}

// entry is one contact sheet row.
type entry struct {
	folder    string
	scene     string
	thumbPath string
	luminance float64
	flagged   bool
}

// Build walks the results tree, thumbnails every screenshot, and writes
// the workbook at outPath. Screenshots that fail to decode are logged and
// skipped.
func (b *Builder) Build(outPath string) (Summary, error) {
	var sum Summary

	dirs, err := os.ReadDir(b.cfg.Paths.ResultsDir)
	if err != nil {
		return sum, services.Wrap(services.ErrMissingArtifact, "report", "build", "list results tree", err)
	}

	var entries []entry
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		folder := dir.Name()
		scenesDir := filepath.Join(b.cfg.Paths.ResultsDir, folder, "scenes")
		shots, err := b.listScreenshots(scenesDir)
		if err != nil || len(shots) == 0 {
			continue
		}
		sum.Institutions++
		for _, shot := range shots {
			row, err := b.thumbnail(scenesDir, shot)
			if err != nil {
				b.logger.Warn("thumbnail failed",
					logging.String("path", filepath.Join(scenesDir, shot)),
					logging.Error(err))
				sum.Skipped++
				continue
			}
			row.folder = folder
			entries = append(entries, row)
			sum.Screenshots++
			if row.flagged {
				sum.Flagged++
			}
		}
	}

	if err := b.writeWorkbook(outPath, entries); err != nil {
		return sum, err
	}
	b.logger.Info("contact sheet written",
		logging.String("path", outPath),
		logging.Int("screenshots", sum.Screenshots),
		logging.Int("flagged", sum.Flagged))
	return sum, nil
}

// listScreenshots returns screenshot file names in scene order, fragments
// after their parent scene.
func (b *Builder) listScreenshots(scenesDir string) ([]string, error) {
	dirEntries, err := os.ReadDir(scenesDir)
	if err != nil {
		return nil, err
	}
	suffix := "_screenshot." + strings.ToLower(b.naming.ImageExt)
	var names []string
	for _, e := range dirEntries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, thumbPrefix) {
			continue
		}
		if strings.HasPrefix(lower, scenes.Prefix) && strings.HasSuffix(lower, suffix) {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return screenshotSortKey(names[i]) < screenshotSortKey(names[j])
	})
	return names, nil
}

// screenshotSortKey orders scene_10 after scene_2 by zero-padding the
// numeric stem segments.
func screenshotSortKey(name string) string {
	stem := strings.TrimPrefix(strings.ToLower(name), scenes.Prefix)
	if i := strings.Index(stem, "_screenshot"); i >= 0 {
		stem = stem[:i]
	}
	parts := strings.Split(stem, "_")
	for i, part := range parts {
		if n, err := strconv.Atoi(part); err == nil {
			parts[i] = strconv.Itoa(n + 1000000)
		}
	}
	return strings.Join(parts, "_")
}

// sceneLabel extracts the scene (or fragment) identifier from a screenshot
// name, e.g. "7" or "7_2".
func sceneLabel(name string) string {
	stem := strings.TrimPrefix(strings.ToLower(name), scenes.Prefix)
	if i := strings.Index(stem, "_screenshot"); i >= 0 {
		stem = stem[:i]
	}
	return stem
}

// thumbnail produces (or reuses) the cached thumbnail for one screenshot
// and measures its mean luminance.
func (b *Builder) thumbnail(scenesDir, name string) (entry, error) {
	shotPath := filepath.Join(scenesDir, name)
	thumbPath := filepath.Join(scenesDir, thumbPrefix+name)

	img, err := loadJPEG(shotPath)
	if err != nil {
		return entry{}, err
	}
	thumb := resize.Thumbnail(thumbEdge, thumbEdge, img, resize.Lanczos3)

	if _, err := os.Stat(thumbPath); err != nil {
		out, err := os.Create(thumbPath)
		if err != nil {
			return entry{}, err
		}
		if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85}); err != nil {
			out.Close()
			_ = os.Remove(thumbPath)
			return entry{}, err
		}
		if err := out.Close(); err != nil {
			return entry{}, err
		}
	}

	lum := meanLuminance(thumb)
	return entry{
		scene:     sceneLabel(name),
		thumbPath: thumbPath,
		luminance: lum,
		flagged:   lum <= blankDarkMax || lum >= blankBrightMin,
	}, nil
}

func loadJPEG(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	return img, err
}

// meanLuminance averages perceptual lightness over the image, scaled to
// [0, 1]. Near-black and near-white stills land at the extremes.
func meanLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}
	var total float64
	var count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			l, _, _ := c.Lab()
			total += l
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// writeWorkbook lays out one row per screenshot: folder, embedded
// thumbnail, scene identifier, measured luminance, and the blank flag.
func (b *Builder) writeWorkbook(path string, entries []entry) error {
	book := excelize.NewFile()
	defer book.Close()

	defaultSheet := book.GetSheetName(0)
	if err := book.SetSheetName(defaultSheet, sheetName); err != nil {
		return services.Wrap(services.ErrConfiguration, "report", "write workbook", "name sheet", err)
	}
	header := []any{"Folder Name", "Screenshot", "Scene Number", "Luminance", "Flag"}
	if err := book.SetSheetRow(sheetName, "A1", &header); err != nil {
		return services.Wrap(services.ErrConfiguration, "report", "write workbook", "write header", err)
	}
	_ = book.SetColWidth(sheetName, "B", "B", 18)

	for i, e := range entries {
		rowNum := i + 2
		flag := ""
		if e.flagged {
			flag = "near-blank"
		}
		cells := []any{e.folder, "", e.scene, strconv.FormatFloat(e.luminance, 'f', 3, 64), flag}
		anchor, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "report", "write workbook", "row "+strconv.Itoa(rowNum), err)
		}
		if err := book.SetSheetRow(sheetName, anchor, &cells); err != nil {
			return services.Wrap(services.ErrConfiguration, "report", "write workbook", "row "+strconv.Itoa(rowNum), err)
		}
		_ = book.SetRowHeight(sheetName, rowNum, 96)

		pictureCell, err := excelize.CoordinatesToCellName(2, rowNum)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "report", "write workbook", "picture cell", err)
		}
		if err := book.AddPicture(sheetName, pictureCell, e.thumbPath, nil); err != nil {
			b.logger.Warn("embed thumbnail failed",
				logging.String("path", e.thumbPath),
				logging.Error(err))
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrConfiguration, "report", "write workbook", "create directory for "+path, err)
		}
	}
	if err := book.SaveAs(path); err != nil {
		return services.Wrap(services.ErrConfiguration, "report", "write workbook", "save "+path, err)
	}
	return nil
}
