package splitter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"scenecode/internal/fileutil"
	"scenecode/internal/logging"
	"scenecode/internal/media"
	"scenecode/internal/services"
)

// SubsplitResult summarizes one scene's subsplit pass.
type SubsplitResult struct {
	Boundaries  int
	Fragments   int
	Screenshots int
	Params      media.DetectParams
}

// SubsplitScene re-runs detection on a single existing scene clip with
// per-site tuned parameters and writes scene_<n>_<i> fragments alongside
// the original. The original clip stays in place: fragments exist for
// operator triage and never replace it.
func (s *Splitter) SubsplitScene(ctx context.Context, domain string, num int) (SubsplitResult, error) {
	var res SubsplitResult
	scenesDir := s.cfg.ScenesDir(domain)
	clipPath := s.naming.ClipPath(scenesDir, num)
	if _, err := os.Stat(clipPath); err != nil {
		return res, services.Wrap(services.ErrMissingArtifact, "splitter", "subsplit", "scene clip "+clipPath, err)
	}

	params, err := s.lookupParams(domain)
	if err != nil {
		return res, err
	}
	res.Params = params

	detected, err := s.tools.DetectScenes(ctx, clipPath, params)
	if err != nil {
		return res, services.Wrap(services.ErrExternalTool, "splitter", "subsplit", "detect shot boundaries", err)
	}
	res.Boundaries = len(detected.Timestamps)

	if len(detected.Timestamps) == 0 {
		// Nothing to cut; duplicate the scene so the operator still gets a
		// fragment to inspect.
		dest := s.naming.FragmentPath(scenesDir, num, 1)
		if err := fileutil.CopyFile(clipPath, dest); err != nil {
			return res, services.Wrap(services.ErrConfiguration, "splitter", "subsplit", "duplicate scene as fragment", err)
		}
		res.Fragments = 1
	} else {
		prev := 0.0
		for i, ts := range detected.Timestamps {
			dest := s.naming.FragmentPath(scenesDir, num, i+1)
			if err := s.tools.ExtractSegment(ctx, clipPath, dest, prev, ts); err != nil {
				detail := fmt.Sprintf("extract fragment %d_%d [%g,%g)", num, i+1, prev, ts)
				return res, services.Wrap(services.ErrExternalTool, "splitter", "subsplit", detail, err)
			}
			prev = ts
		}
		tail := s.naming.FragmentPath(scenesDir, num, len(detected.Timestamps)+1)
		if err := s.tools.ExtractTail(ctx, clipPath, tail, prev); err != nil {
			detail := fmt.Sprintf("extract tail fragment %d_%d", num, len(detected.Timestamps)+1)
			return res, services.Wrap(services.ErrExternalTool, "splitter", "subsplit", detail, err)
		}
		res.Fragments = len(detected.Timestamps) + 1
	}

	for part := 1; part <= res.Fragments; part++ {
		fragPath := s.naming.FragmentPath(scenesDir, num, part)
		probe, err := s.tools.Probe(ctx, fragPath)
		if err != nil {
			s.logger.Warn("probe fragment failed", logging.String("path", fragPath), logging.Error(err))
			continue
		}
		shotPath := s.naming.FragmentScreenshotPath(scenesDir, num, part)
		if err := s.tools.CaptureFrame(ctx, fragPath, shotPath, probe.DurationSeconds()/2); err != nil {
			s.logger.Warn("capture fragment screenshot failed", logging.String("path", fragPath), logging.Error(err))
			continue
		}
		res.Screenshots++
	}
	return res, nil
}

// lookupParams resolves detection parameters for a site from the subsplit
// table, falling back to the configured defaults when no table is set or
// the site has no row. Table values are applied exactly as stored.
func (s *Splitter) lookupParams(domain string) (media.DetectParams, error) {
	defaults := media.DetectParams{
		FrameStep: s.cfg.Detect.FrameStep,
		Threshold: s.cfg.Detect.Threshold,
	}
	table := strings.TrimSpace(s.cfg.Detect.SubsplitTable)
	if table == "" {
		return defaults, nil
	}
	entries, skipped, err := ReadLookup(table)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults, nil
		}
		return defaults, err
	}
	for _, line := range skipped {
		s.logger.Warn("skipping malformed subsplit lookup line",
			logging.String("table", table),
			logging.Int("line", line))
	}
	if params, ok := entries[strings.ToLower(strings.TrimSpace(domain))]; ok {
		return params, nil
	}
	return defaults, nil
}

// ReadLookup parses a subsplit lookup CSV with columns site,crawl,diff.
// Rows whose crawl or diff fail to parse are reported by line number and
// skipped. A header row is tolerated by the same rule.
func ReadLookup(path string) (map[string]media.DetectParams, []int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open subsplit lookup: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	entries := make(map[string]media.DetectParams)
	var skipped []int
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, services.Wrap(services.ErrMalformedInput, "splitter", "read lookup", path, err)
		}
		line++
		if len(record) < 3 {
			skipped = append(skipped, line)
			continue
		}
		site := strings.ToLower(strings.TrimSpace(record[0]))
		crawl, crawlErr := strconv.Atoi(strings.TrimSpace(record[1]))
		diff, diffErr := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if site == "" || crawlErr != nil || diffErr != nil || crawl < 1 {
			skipped = append(skipped, line)
			continue
		}
		if _, ok := entries[site]; ok {
			continue
		}
		entries[site] = media.DetectParams{FrameStep: crawl, Threshold: diff}
	}
	return entries, skipped, nil
}
