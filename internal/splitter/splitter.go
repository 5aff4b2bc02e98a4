package splitter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scenecode/internal/config"
	"scenecode/internal/fileutil"
	"scenecode/internal/logging"
	"scenecode/internal/media"
	"scenecode/internal/scenes"
	"scenecode/internal/services"
)

// sceneLogFile holds the raw detector output for the last split, kept next
// to the video so operators can audit boundary decisions.
const sceneLogFile = "scene_log.txt"

// videoExtensions lists container extensions the stage accepts as a source
// video, lowercased without the dot.
var videoExtensions = map[string]struct{}{
	"mp4":  {},
	"m4v":  {},
	"mov":  {},
	"webm": {},
	"mkv":  {},
	"avi":  {},
}

// Splitter drives the shot-boundary splitting stage for one institution at
// a time.
type Splitter struct {
	cfg    *config.Config
	tools  media.Toolchain
	naming scenes.Naming
	logger *slog.Logger
}

// NewSplitter wires a splitter against the configured toolchain.
func NewSplitter(cfg *config.Config, tools media.Toolchain, logger *slog.Logger) *Splitter {
	return &Splitter{
		cfg:    cfg,
		tools:  tools,
		naming: scenes.Naming{VideoExt: cfg.Scenes.VideoExt, ImageExt: cfg.Scenes.ImageExt},
		logger: logging.NewComponentLogger(logger, "splitter"),
	}
}

// Result summarizes one institution's split pass.
type Result struct {
	Source      string
	Boundaries  int
	Clips       int
	Corrupt     int
	Blank       int
	Screenshots int
}

// SplitInstitution locates the institution's source video, recreates the
// scenes directory, cuts a clip per detected shot, and post-processes the
// clips. A missing institution directory aborts; everything downstream of a
// successful cut degrades per clip.
func (s *Splitter) SplitInstitution(ctx context.Context, domain string) (Result, error) {
	var res Result
	instDir := s.cfg.InstitutionDir(domain)
	if _, err := os.Stat(instDir); err != nil {
		return res, services.Wrap(services.ErrMissingArtifact, "splitter", "split", "no institution directory for "+domain, err)
	}

	source, err := findSourceVideo(instDir)
	if err != nil {
		return res, err
	}
	res.Source = source

	scenesDir := s.cfg.ScenesDir(domain)
	if err := os.RemoveAll(scenesDir); err != nil {
		return res, services.Wrap(services.ErrConfiguration, "splitter", "split", "reset scenes directory", err)
	}
	if err := os.MkdirAll(scenesDir, 0o755); err != nil {
		return res, services.Wrap(services.ErrConfiguration, "splitter", "split", "create scenes directory", err)
	}

	detected, err := s.tools.DetectScenes(ctx, source, media.DetectParams{
		FrameStep: s.cfg.Detect.FrameStep,
		Threshold: s.cfg.Detect.Threshold,
	})
	if err != nil {
		return res, services.Wrap(services.ErrExternalTool, "splitter", "split", "detect shot boundaries", err)
	}
	res.Boundaries = len(detected.Timestamps)
	if err := os.WriteFile(filepath.Join(instDir, sceneLogFile), detected.RawLog, 0o644); err != nil {
		s.logger.Warn("write scene log failed",
			logging.String(logging.FieldInstitution, domain),
			logging.Error(err))
	}

	if len(detected.Timestamps) == 0 {
		// No cuts: the whole video is scene 1.
		dest := s.naming.ClipPath(scenesDir, 1)
		if err := fileutil.CopyFileVerified(source, dest); err != nil {
			return res, services.Wrap(services.ErrConfiguration, "splitter", "split", "copy whole video as scene 1", err)
		}
		res.Clips = 1
	} else {
		count, err := s.cutSegments(ctx, source, scenesDir, detected.Timestamps)
		if err != nil {
			return res, err
		}
		res.Clips = count
	}

	s.postProcess(ctx, domain, scenesDir, res.Clips, &res)
	s.logger.Info("split institution",
		logging.String(logging.FieldInstitution, domain),
		logging.Int("boundaries", res.Boundaries),
		logging.Int("clips", res.Clips-res.Corrupt-res.Blank))
	return res, nil
}

// findSourceVideo picks the first regular file in the institution directory
// carrying a known video extension. Scene clips live under scenes/ and are
// never candidates.
func findSourceVideo(instDir string) (string, error) {
	entries, err := os.ReadDir(instDir)
	if err != nil {
		return "", services.Wrap(services.ErrMissingArtifact, "splitter", "split", "list institution directory", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
		if _, ok := videoExtensions[ext]; ok {
			return filepath.Join(instDir, entry.Name()), nil
		}
	}
	return "", services.Wrap(services.ErrMissingArtifact, "splitter", "split", "no source video in "+instDir, nil)
}

// cutSegments re-encodes one clip per boundary interval and stream-copies
// the tail, so scene k+1 always reaches the end of file.
func (s *Splitter) cutSegments(ctx context.Context, source, scenesDir string, boundaries []float64) (int, error) {
	prev := 0.0
	for i, ts := range boundaries {
		dest := s.naming.ClipPath(scenesDir, i+1)
		if err := s.tools.ExtractSegment(ctx, source, dest, prev, ts); err != nil {
			detail := fmt.Sprintf("extract scene %d [%g,%g)", i+1, prev, ts)
			return 0, services.Wrap(services.ErrExternalTool, "splitter", "split", detail, err)
		}
		prev = ts
	}
	tail := s.naming.ClipPath(scenesDir, len(boundaries)+1)
	if err := s.tools.ExtractTail(ctx, source, tail, prev); err != nil {
		detail := fmt.Sprintf("extract tail scene %d", len(boundaries)+1)
		return 0, services.Wrap(services.ErrExternalTool, "splitter", "split", detail, err)
	}
	return len(boundaries) + 1, nil
}

// postProcess deletes corrupt and blank clips and captures a midpoint
// screenshot for each survivor. Per-clip failures are logged and the pass
// continues; a clip left without a screenshot later labels as an empty row.
func (s *Splitter) postProcess(ctx context.Context, domain, scenesDir string, clips int, res *Result) {
	for num := 1; num <= clips; num++ {
		clipPath := s.naming.ClipPath(scenesDir, num)
		info, err := os.Stat(clipPath)
		if err != nil {
			s.logger.Warn("stat clip failed", logging.String("path", clipPath), logging.Error(err))
			continue
		}
		if info.Size() < s.cfg.Scenes.MinClipBytes {
			if err := os.Remove(clipPath); err != nil {
				s.logger.Warn("remove corrupt clip failed", logging.String("path", clipPath), logging.Error(err))
				continue
			}
			res.Corrupt++
			s.logger.Info("removed corrupt clip",
				logging.String(logging.FieldInstitution, domain),
				logging.Int(logging.FieldScene, num),
				logging.Int64("bytes", info.Size()))
			continue
		}

		blank, duration := s.blankFraction(ctx, clipPath)
		if duration > 0 && blank >= s.cfg.Scenes.BlankThreshold {
			if err := os.Remove(clipPath); err != nil {
				s.logger.Warn("remove blank clip failed", logging.String("path", clipPath), logging.Error(err))
				continue
			}
			res.Blank++
			s.logger.Info("removed blank clip",
				logging.String(logging.FieldInstitution, domain),
				logging.Int(logging.FieldScene, num),
				logging.Float64("blank_fraction", blank))
			continue
		}

		shotPath := s.naming.ScreenshotPath(scenesDir, num)
		if err := s.tools.CaptureFrame(ctx, clipPath, shotPath, duration/2); err != nil {
			s.logger.Warn("capture screenshot failed", logging.String("path", clipPath), logging.Error(err))
			continue
		}
		res.Screenshots++
	}
}

// blankFraction returns the larger of the clip's black and white fractions
// plus its probed duration. Detection failures report the clip as not
// blank; dropping data needs positive evidence.
func (s *Splitter) blankFraction(ctx context.Context, clipPath string) (float64, float64) {
	probe, err := s.tools.Probe(ctx, clipPath)
	if err != nil {
		s.logger.Warn("probe clip failed", logging.String("path", clipPath), logging.Error(err))
		return 0, 0
	}
	duration := probe.DurationSeconds()
	if duration <= 0 {
		return 0, 0
	}

	fraction := 0.0
	for _, invert := range []bool{false, true} {
		seconds, err := s.tools.BlankSeconds(ctx, clipPath, invert,
			s.cfg.Detect.BlackMinSeconds, s.cfg.Detect.BlackPictureMax)
		if err != nil {
			s.logger.Warn("blank detection failed",
				logging.String("path", clipPath),
				logging.Bool("invert", invert),
				logging.Error(err))
			continue
		}
		if f := seconds / duration; f > fraction {
			fraction = f
		}
	}
	return fraction, duration
}
