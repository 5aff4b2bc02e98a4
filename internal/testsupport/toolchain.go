package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"scenecode/internal/media"
)

// FakeToolchain implements media.Toolchain against plain files so pipeline
// stages run in tests without ffmpeg installed. Extraction and concat
// calls write marker files whose content names the operation, letting
// tests assert both that a file was produced and how.
type FakeToolchain struct {
	mu    sync.Mutex
	calls []string

	// Durations supplies Probe results per path; unset paths report 10s.
	Durations map[string]float64
	// Boundaries is returned by DetectScenes.
	Boundaries []float64
	// Blank supplies BlankSeconds totals per path.
	Blank map[string]float64

	ProbeErr   error
	DetectErr  error
	SegmentErr error
	TailErr    error
	CaptureErr error
	ConcatErr  error
	BlankErr   error
}

// NewFakeToolchain returns a fake with empty lookup tables.
func NewFakeToolchain() *FakeToolchain {
	return &FakeToolchain{
		Durations: make(map[string]float64),
		Blank:     make(map[string]float64),
	}
}

// Calls returns every operation the fake served, in order.
func (f *FakeToolchain) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many recorded calls start with prefix.
func (f *FakeToolchain) CallCount(prefix string) int {
	count := 0
	for _, call := range f.Calls() {
		if strings.HasPrefix(call, prefix) {
			count++
		}
	}
	return count
}

func (f *FakeToolchain) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *FakeToolchain) Probe(ctx context.Context, path string) (media.ProbeResult, error) {
	f.record("probe %s", path)
	if f.ProbeErr != nil {
		return media.ProbeResult{}, f.ProbeErr
	}
	info, err := os.Stat(path)
	if err != nil {
		return media.ProbeResult{}, err
	}
	duration, ok := f.Durations[path]
	if !ok {
		duration = 10
	}
	return media.ProbeResult{
		Streams: []media.Stream{{CodecType: "video", CodecName: "h264"}},
		Format: media.Format{
			Filename: path,
			Duration: strconv.FormatFloat(duration, 'f', -1, 64),
			Size:     strconv.FormatInt(info.Size(), 10),
		},
	}, nil
}

func (f *FakeToolchain) DetectScenes(ctx context.Context, path string, params media.DetectParams) (media.DetectResult, error) {
	f.record("detect %s step=%d threshold=%g", path, params.FrameStep, params.Threshold)
	if f.DetectErr != nil {
		return media.DetectResult{}, f.DetectErr
	}
	var log strings.Builder
	for _, ts := range f.Boundaries {
		fmt.Fprintf(&log, "[Parsed_showinfo_2 @ 0xfake] n:1 pts:%d pts_time:%g duration:0\n", int(ts*1000), ts)
	}
	return media.DetectResult{
		Timestamps: append([]float64(nil), f.Boundaries...),
		RawLog:     []byte(log.String()),
	}, nil
}

func (f *FakeToolchain) ExtractSegment(ctx context.Context, source, dest string, start, end float64) error {
	f.record("segment %s -> %s [%g,%g)", source, dest, start, end)
	if f.SegmentErr != nil {
		return f.SegmentErr
	}
	return f.write(dest, fmt.Sprintf("segment %g-%g of %s", start, end, source))
}

func (f *FakeToolchain) ExtractTail(ctx context.Context, source, dest string, start float64) error {
	f.record("tail %s -> %s %g", source, dest, start)
	if f.TailErr != nil {
		return f.TailErr
	}
	return f.write(dest, fmt.Sprintf("tail %g of %s", start, source))
}

func (f *FakeToolchain) CaptureFrame(ctx context.Context, source, dest string, offset float64) error {
	f.record("frame %s -> %s @%g", source, dest, offset)
	if f.CaptureErr != nil {
		return f.CaptureErr
	}
	return f.write(dest, fmt.Sprintf("frame %g of %s", offset, source))
}

func (f *FakeToolchain) Concat(ctx context.Context, sources []string, dest string) error {
	f.record("concat %s <- %s", dest, strings.Join(sources, "|"))
	if f.ConcatErr != nil {
		return f.ConcatErr
	}
	return f.write(dest, "concat:"+strings.Join(sources, "|"))
}

func (f *FakeToolchain) BlankSeconds(ctx context.Context, path string, invert bool, minSeconds, pictureMax float64) (float64, error) {
	f.record("blank %s invert=%t", path, invert)
	if f.BlankErr != nil {
		return 0, f.BlankErr
	}
	return f.Blank[path], nil
}

func (f *FakeToolchain) write(dest, content string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(content), 0o644)
}
