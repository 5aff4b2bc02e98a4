package glue

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"scenecode/internal/config"
	"scenecode/internal/logging"
	"scenecode/internal/media"
	"scenecode/internal/scenes"
	"scenecode/internal/services"
)

// Merger applies an institution's glue records to its scenes directory:
// each record's sources are concatenated into the base clip and the spent
// continuation files removed. Merging is destructive and at most once; a
// second run over merged state finds nothing left to do.
type Merger struct {
	cfg    *config.Config
	tools  media.Toolchain
	naming scenes.Naming
	logger *slog.Logger
}

// NewMerger wires a merger against the configured toolchain.
func NewMerger(cfg *config.Config, tools media.Toolchain, logger *slog.Logger) *Merger {
	return &Merger{
		cfg:    cfg,
		tools:  tools,
		naming: scenes.Naming{VideoExt: cfg.Scenes.VideoExt, ImageExt: cfg.Scenes.ImageExt},
		logger: logging.NewComponentLogger(logger, "glue"),
	}
}

// Result summarizes one institution's merge pass.
type Result struct {
	Merged         int
	Skipped        int
	SourcesRemoved int
	Screenshots    int
}

// MergeInstitution merges every glue record for one institution. A concat
// failure abandons the remaining records with all source files preserved;
// screenshots are still reconciled so every surviving clip has a fresh
// midpoint frame. The institution directory is flock-guarded so two merge
// runs cannot interleave their deletes.
func (m *Merger) MergeInstitution(ctx context.Context, domain string) (Result, error) {
	var res Result
	instDir := m.cfg.InstitutionDir(domain)
	scenesDir := m.cfg.ScenesDir(domain)
	if _, err := os.Stat(scenesDir); err != nil {
		return res, services.Wrap(services.ErrMissingArtifact, "glue", "merge", "no scenes directory for "+domain, err)
	}

	lock := flock.New(filepath.Join(instDir, ".glue.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return res, services.Wrap(services.ErrTransient, "glue", "merge", "acquire merge lock", err)
	}
	if !ok {
		return res, services.Wrap(services.ErrTransient, "glue", "merge", "another merge holds the lock for "+domain, nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("release merge lock failed", logging.Error(err))
		}
	}()

	records, skippedLines, err := ReadRecords(PathFor(instDir))
	if err != nil {
		return res, err
	}
	for _, line := range skippedLines {
		m.logger.Warn("skipping malformed glue line",
			logging.String(logging.FieldInstitution, domain),
			logging.Int("line", line))
	}

	var mergeErr error
	for _, record := range records {
		merged, removed, err := m.mergeRecord(ctx, scenesDir, record)
		if err != nil {
			mergeErr = err
			break
		}
		if merged {
			res.Merged++
			res.SourcesRemoved += removed
		} else {
			res.Skipped++
		}
	}

	res.Screenshots = m.reconcileScreenshots(ctx, scenesDir)
	return res, mergeErr
}

// mergeRecord concatenates one record's surviving sources into the base
// clip. Concat writes to a temp file that replaces the base only on
// success, so the base is never truncated while it is being read.
func (m *Merger) mergeRecord(ctx context.Context, dir string, record Record) (bool, int, error) {
	destPath := m.naming.ClipPath(dir, record.Base)
	var existing []string
	for _, num := range record.Sources() {
		path := m.naming.ClipPath(dir, num)
		if _, err := os.Stat(path); err != nil {
			m.logger.Warn("glue source missing, skipping", logging.String("path", path))
			continue
		}
		existing = append(existing, path)
	}
	if len(existing) == 0 {
		return false, 0, nil
	}
	if len(existing) == 1 && existing[0] == destPath {
		return false, 0, nil
	}

	tmp := filepath.Join(dir, fmt.Sprintf("glue_tmp_%d.%s", record.Base, m.naming.VideoExt))
	if err := m.tools.Concat(ctx, existing, tmp); err != nil {
		_ = os.Remove(tmp)
		detail := fmt.Sprintf("concat into scene %d failed, sources preserved", record.Base)
		return false, 0, services.Wrap(services.ErrExternalTool, "glue", "merge", detail, err)
	}
	if err := os.Rename(tmp, destPath); err != nil {
		_ = os.Remove(tmp)
		return false, 0, services.Wrap(services.ErrConfiguration, "glue", "merge", "replace "+destPath, err)
	}

	removed := 0
	for _, path := range existing {
		if path == destPath {
			continue
		}
		if err := os.Remove(path); err != nil {
			m.logger.Warn("remove merged source failed", logging.String("path", path), logging.Error(err))
			continue
		}
		removed++
	}
	m.logger.Info("merged continuation scenes",
		logging.Int(logging.FieldScene, record.Base),
		logging.Int("sources", len(existing)))
	return true, removed, nil
}

// reconcileScreenshots removes screenshots whose clip was merged away and
// recaptures a midpoint frame for every clip still on disk. Failures are
// logged and skipped; a clip without a screenshot later labels as an
// empty row rather than stopping the batch.
func (m *Merger) reconcileScreenshots(ctx context.Context, dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		m.logger.Warn("list scenes directory failed", logging.Error(err))
		return 0
	}
	videoSuffix := "." + m.naming.VideoExt
	shotSuffix := "_screenshot." + m.naming.ImageExt

	clipSet := make(map[string]struct{})
	var clips, shots []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, shotSuffix):
			shots = append(shots, name)
		case strings.HasPrefix(name, scenes.Prefix) && strings.HasSuffix(name, videoSuffix):
			clips = append(clips, name)
			clipSet[name] = struct{}{}
		}
	}

	for _, shot := range shots {
		clip := strings.TrimSuffix(shot, shotSuffix) + videoSuffix
		if _, ok := clipSet[clip]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, shot)); err != nil {
			m.logger.Warn("remove orphan screenshot failed", logging.String("path", shot), logging.Error(err))
		}
	}

	captured := 0
	for _, clip := range clips {
		clipPath := filepath.Join(dir, clip)
		probe, err := m.tools.Probe(ctx, clipPath)
		if err != nil {
			m.logger.Warn("probe clip for screenshot failed", logging.String("path", clipPath), logging.Error(err))
			continue
		}
		shotPath := filepath.Join(dir, strings.TrimSuffix(clip, videoSuffix)+shotSuffix)
		if err := m.tools.CaptureFrame(ctx, clipPath, shotPath, probe.DurationSeconds()/2); err != nil {
			m.logger.Warn("capture screenshot failed", logging.String("path", clipPath), logging.Error(err))
			continue
		}
		captured++
	}
	return captured
}
