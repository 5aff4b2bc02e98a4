package media

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// DetectParams tunes shot-boundary detection. FrameStep examines every Nth
// frame; Threshold is the scene-change score a frame must exceed.
type DetectParams struct {
	FrameStep int
	Threshold float64
}

// DetectResult carries the parsed boundary timestamps plus the raw detector
// output, which callers persist as the institution's scene log.
type DetectResult struct {
	Timestamps []float64
	RawLog     []byte
}

// Toolchain is the capability surface the pipeline stages use to drive
// external media tools. Production code uses FFmpeg; tests substitute fakes
// so splitting and merging logic runs without binaries installed.
type Toolchain interface {
	// Probe inspects a media file and reports its container metadata.
	Probe(ctx context.Context, path string) (ProbeResult, error)
	// DetectScenes finds shot boundaries, returning ascending timestamps
	// in seconds.
	DetectScenes(ctx context.Context, path string, params DetectParams) (DetectResult, error)
	// ExtractSegment re-encodes [start, end) of source into dest.
	ExtractSegment(ctx context.Context, source, dest string, start, end float64) error
	// ExtractTail stream-copies source from start to the end of file.
	ExtractTail(ctx context.Context, source, dest string, start float64) error
	// CaptureFrame writes a single high-quality JPEG frame at offset.
	CaptureFrame(ctx context.Context, source, dest string, offset float64) error
	// Concat joins sources into dest without re-encoding.
	Concat(ctx context.Context, sources []string, dest string) error
	// BlankSeconds totals the seconds detected as black frames (or, when
	// invert is set, white frames).
	BlankSeconds(ctx context.Context, path string, invert bool, minSeconds, pictureMax float64) (float64, error)
}

// ProbeResult represents the parsed output from an ffprobe inspection.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// VideoStreamCount returns the number of video streams discovered.
func (r ProbeResult) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r ProbeResult) DurationSeconds() float64 {
	value := parseFloat(r.Format.Duration)
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	return value
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r ProbeResult) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
