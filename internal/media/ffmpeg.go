package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// CommandRunner executes an external command and returns its combined
// stdout/stderr. Tests inject one to script tool behaviour.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// FFmpeg implements Toolchain on top of the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	ffmpegBin  string
	ffprobeBin string
	runner     CommandRunner
}

// NewFFmpeg builds a toolchain around the given binaries. Empty names fall
// back to the binaries on PATH.
func NewFFmpeg(ffmpegBin, ffprobeBin string) *FFmpeg {
	if ffmpegBin = strings.TrimSpace(ffmpegBin); ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin = strings.TrimSpace(ffprobeBin); ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	return &FFmpeg{ffmpegBin: ffmpegBin, ffprobeBin: ffprobeBin}
}

// WithCommandRunner sets a custom command runner (for testing).
func (f *FFmpeg) WithCommandRunner(runner CommandRunner) {
	f.runner = runner
}

func (f *FFmpeg) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if f.runner != nil {
		return f.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Probe inspects a media file via ffprobe and decodes the JSON response.
// A probe failure also covers the corrupt-file check: unreadable clips do
// not probe.
func (f *FFmpeg) Probe(ctx context.Context, path string) (ProbeResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ProbeResult{}, errors.New("ffprobe inspect: empty path")
	}
	output, err := f.run(ctx, f.ffprobeBin,
		"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// DetectScenes runs the decimate/score/showinfo filter chain and parses the
// pts_time values of frames that crossed the scene-change threshold.
func (f *FFmpeg) DetectScenes(ctx context.Context, path string, params DetectParams) (DetectResult, error) {
	if params.FrameStep < 1 {
		return DetectResult{}, fmt.Errorf("detect scenes: frame step %d", params.FrameStep)
	}
	filter := fmt.Sprintf("select='not(mod(n,%d))',select='gt(scene,%s)',showinfo",
		params.FrameStep, formatSeconds(params.Threshold))
	output, err := f.run(ctx, f.ffmpegBin,
		"-hide_banner", "-i", path, "-filter_complex", filter, "-f", "null", "-")
	result := DetectResult{RawLog: output}
	if err != nil {
		return result, fmt.Errorf("ffmpeg detect: %w: %s", err, tailOf(output))
	}
	result.Timestamps = parseShowinfoTimestamps(output)
	return result, nil
}

// ExtractSegment re-encodes the [start, end) window of source into dest.
func (f *FFmpeg) ExtractSegment(ctx context.Context, source, dest string, start, end float64) error {
	if end <= start {
		return fmt.Errorf("extract segment: empty window %s..%s", formatSeconds(start), formatSeconds(end))
	}
	output, err := f.run(ctx, f.ffmpegBin,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", source,
		"-ss", formatSeconds(start), "-to", formatSeconds(end),
		"-c:v", "libx264", "-c:a", "aac",
		dest)
	if err != nil {
		return fmt.Errorf("ffmpeg segment: %w: %s", err, tailOf(output))
	}
	return nil
}

// ExtractTail stream-copies source from start to the end of the file.
func (f *FFmpeg) ExtractTail(ctx context.Context, source, dest string, start float64) error {
	output, err := f.run(ctx, f.ffmpegBin,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", source,
		"-ss", formatSeconds(start),
		"-c", "copy",
		dest)
	if err != nil {
		return fmt.Errorf("ffmpeg tail: %w: %s", err, tailOf(output))
	}
	return nil
}

// CaptureFrame writes a single frame at offset as a high-quality JPEG.
func (f *FFmpeg) CaptureFrame(ctx context.Context, source, dest string, offset float64) error {
	if offset < 0 {
		offset = 0
	}
	output, err := f.run(ctx, f.ffmpegBin,
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(offset),
		"-i", source,
		"-frames:v", "1", "-q:v", "2",
		dest)
	if err != nil {
		return fmt.Errorf("ffmpeg frame: %w: %s", err, tailOf(output))
	}
	return nil
}

// Concat joins sources into dest with the concat demuxer. The list file is
// written next to nothing in particular and removed afterwards.
func (f *FFmpeg) Concat(ctx context.Context, sources []string, dest string) error {
	if len(sources) == 0 {
		return errors.New("ffmpeg concat: no sources")
	}
	listFile, err := os.CreateTemp("", "scenecode-concat-*.txt")
	if err != nil {
		return fmt.Errorf("ffmpeg concat: list file: %w", err)
	}
	listPath := listFile.Name()
	defer os.Remove(listPath)

	var list strings.Builder
	for _, source := range sources {
		abs, err := filepath.Abs(source)
		if err != nil {
			listFile.Close()
			return fmt.Errorf("ffmpeg concat: resolve %s: %w", source, err)
		}
		list.WriteString("file '")
		list.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		list.WriteString("'\n")
	}
	if _, err := listFile.WriteString(list.String()); err != nil {
		listFile.Close()
		return fmt.Errorf("ffmpeg concat: write list: %w", err)
	}
	if err := listFile.Close(); err != nil {
		return fmt.Errorf("ffmpeg concat: close list: %w", err)
	}

	output, err := f.run(ctx, f.ffmpegBin,
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		dest)
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w: %s", err, tailOf(output))
	}
	return nil
}

// BlankSeconds totals the black (or, inverted, white) detection windows
// reported by the blackdetect filter.
func (f *FFmpeg) BlankSeconds(ctx context.Context, path string, invert bool, minSeconds, pictureMax float64) (float64, error) {
	filter := fmt.Sprintf("blackdetect=d=%s:pic_th=%s", formatSeconds(minSeconds), formatSeconds(pictureMax))
	if invert {
		filter = "negate," + filter
	}
	output, err := f.run(ctx, f.ffmpegBin,
		"-hide_banner", "-i", path, "-vf", filter, "-an", "-f", "null", "-")
	if err != nil {
		return 0, fmt.Errorf("ffmpeg blackdetect: %w: %s", err, tailOf(output))
	}
	return sumBlackDurations(output), nil
}

// parseShowinfoTimestamps extracts pts_time values from showinfo output in
// order of appearance. Unparsable values are skipped.
func parseShowinfoTimestamps(output []byte) []float64 {
	var stamps []float64
	for _, line := range strings.Split(string(output), "\n") {
		_, rest, found := strings.Cut(line, "pts_time:")
		if !found {
			continue
		}
		value := rest
		if idx := strings.IndexByte(value, ' '); idx >= 0 {
			value = value[:idx]
		}
		ts, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			continue
		}
		stamps = append(stamps, ts)
	}
	return stamps
}

// sumBlackDurations totals black_duration fields from blackdetect lines.
func sumBlackDurations(output []byte) float64 {
	var total float64
	for _, line := range strings.Split(string(output), "\n") {
		if !strings.Contains(line, "black_start:") {
			continue
		}
		for _, field := range strings.Fields(line) {
			value, found := strings.CutPrefix(field, "black_duration:")
			if !found {
				continue
			}
			if d, err := strconv.ParseFloat(value, 64); err == nil {
				total += d
			}
		}
	}
	return total
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func tailOf(output []byte) string {
	trimmed := strings.TrimSpace(string(output))
	const limit = 400
	if len(trimmed) <= limit {
		return trimmed
	}
	return "..." + trimmed[len(trimmed)-limit:]
}
