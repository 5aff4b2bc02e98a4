package media_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"scenecode/internal/media"
)

type call struct {
	name string
	args []string
}

func fakeRunner(t *testing.T, calls *[]call, output []byte, err error) media.CommandRunner {
	t.Helper()
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name: name, args: args})
		return output, err
	}
}

func argsContain(args []string, want ...string) bool {
	joined := " " + strings.Join(args, " ") + " "
	return strings.Contains(joined, " "+strings.Join(want, " ")+" ")
}

func TestProbeParsesJSON(t *testing.T) {
	payload := []byte(`{
		"streams": [{"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720}],
		"format": {"filename": "in.mp4", "nb_streams": 2, "duration": "12.480000", "size": "1048576", "format_name": "mov,mp4"}
	}`)
	var calls []call
	tool := media.NewFFmpeg("", "")
	tool.WithCommandRunner(fakeRunner(t, &calls, payload, nil))

	result, err := tool.Probe(context.Background(), "in.mp4")
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if len(calls) != 1 || calls[0].name != "ffprobe" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	if !argsContain(calls[0].args, "-show_format") || !argsContain(calls[0].args, "-of", "json") {
		t.Fatalf("unexpected probe args: %v", calls[0].args)
	}
	if got := result.DurationSeconds(); got != 12.48 {
		t.Fatalf("unexpected duration: %v", got)
	}
	if got := result.SizeBytes(); got != 1048576 {
		t.Fatalf("unexpected size: %d", got)
	}
	if got := result.VideoStreamCount(); got != 1 {
		t.Fatalf("unexpected video stream count: %d", got)
	}
}

func TestProbeFailureIncludesToolOutput(t *testing.T) {
	var calls []call
	tool := media.NewFFmpeg("", "")
	tool.WithCommandRunner(fakeRunner(t, &calls, []byte("moov atom not found"), errors.New("exit status 1")))

	_, err := tool.Probe(context.Background(), "broken.mp4")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "moov atom not found") {
		t.Fatalf("expected tool output in error, got %v", err)
	}
}

func TestDetectScenesParsesTimestamps(t *testing.T) {
	log := strings.Join([]string{
		"[Parsed_showinfo_2 @ 0x1] n:   0 pts:  14336 pts_time:1.12 duration_time:0.04",
		"noise line",
		"[Parsed_showinfo_2 @ 0x1] n:   1 pts:  57344 pts_time:4.48 duration_time:0.04",
		"[Parsed_showinfo_2 @ 0x1] n:   2 pts: 107520 pts_time:8.4 duration_time:0.04",
	}, "\n")
	var calls []call
	tool := media.NewFFmpeg("ffmpeg", "ffprobe")
	tool.WithCommandRunner(fakeRunner(t, &calls, []byte(log), nil))

	result, err := tool.DetectScenes(context.Background(), "in.mp4", media.DetectParams{FrameStep: 10, Threshold: 0.3})
	if err != nil {
		t.Fatalf("DetectScenes returned error: %v", err)
	}
	want := []float64{1.12, 4.48, 8.4}
	if len(result.Timestamps) != len(want) {
		t.Fatalf("unexpected timestamps: %v", result.Timestamps)
	}
	for i, ts := range want {
		if result.Timestamps[i] != ts {
			t.Fatalf("timestamp %d = %v, want %v", i, result.Timestamps[i], ts)
		}
	}
	if string(result.RawLog) != log {
		t.Fatal("expected raw log passthrough")
	}

	filter := ""
	for i, arg := range calls[0].args {
		if arg == "-filter_complex" && i+1 < len(calls[0].args) {
			filter = calls[0].args[i+1]
		}
	}
	if !strings.Contains(filter, "not(mod(n,10))") || !strings.Contains(filter, "gt(scene,0.3)") {
		t.Fatalf("unexpected filter: %q", filter)
	}
}

func TestDetectScenesRequiresFrameStep(t *testing.T) {
	tool := media.NewFFmpeg("", "")
	if _, err := tool.DetectScenes(context.Background(), "in.mp4", media.DetectParams{FrameStep: 0, Threshold: 0.3}); err == nil {
		t.Fatal("expected error for zero frame step")
	}
}

func TestExtractSegmentArgs(t *testing.T) {
	var calls []call
	tool := media.NewFFmpeg("", "")
	tool.WithCommandRunner(fakeRunner(t, &calls, nil, nil))

	if err := tool.ExtractSegment(context.Background(), "in.mp4", "out.mp4", 1.5, 4.25); err != nil {
		t.Fatalf("ExtractSegment returned error: %v", err)
	}
	args := calls[0].args
	if !argsContain(args, "-ss", "1.5") || !argsContain(args, "-to", "4.25") {
		t.Fatalf("unexpected segment window args: %v", args)
	}
	if !argsContain(args, "-c:v", "libx264") || !argsContain(args, "-c:a", "aac") {
		t.Fatalf("expected re-encode codecs, got %v", args)
	}

	if err := tool.ExtractSegment(context.Background(), "in.mp4", "out.mp4", 4, 4); err == nil {
		t.Fatal("expected error for empty window")
	}
}

func TestExtractTailStreamCopies(t *testing.T) {
	var calls []call
	tool := media.NewFFmpeg("", "")
	tool.WithCommandRunner(fakeRunner(t, &calls, nil, nil))

	if err := tool.ExtractTail(context.Background(), "in.mp4", "out.mp4", 9.75); err != nil {
		t.Fatalf("ExtractTail returned error: %v", err)
	}
	args := calls[0].args
	if !argsContain(args, "-ss", "9.75") || !argsContain(args, "-c", "copy") {
		t.Fatalf("unexpected tail args: %v", args)
	}
}

func TestCaptureFrameSeeksBeforeInput(t *testing.T) {
	var calls []call
	tool := media.NewFFmpeg("", "")
	tool.WithCommandRunner(fakeRunner(t, &calls, nil, nil))

	if err := tool.CaptureFrame(context.Background(), "in.mp4", "shot.jpg", 6.24); err != nil {
		t.Fatalf("CaptureFrame returned error: %v", err)
	}
	args := calls[0].args
	ssIdx, inputIdx := -1, -1
	for i, arg := range args {
		switch arg {
		case "-ss":
			ssIdx = i
		case "-i":
			inputIdx = i
		}
	}
	if ssIdx < 0 || inputIdx < 0 || ssIdx > inputIdx {
		t.Fatalf("expected seek before input, got %v", args)
	}
	if !argsContain(args, "-frames:v", "1") || !argsContain(args, "-q:v", "2") {
		t.Fatalf("unexpected frame args: %v", args)
	}
}

func TestConcatWritesListFile(t *testing.T) {
	var listContent string
	tool := media.NewFFmpeg("", "")
	tool.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		for i, arg := range args {
			if arg == "-i" && i+1 < len(args) {
				data, err := os.ReadFile(args[i+1])
				if err != nil {
					t.Fatalf("read list file: %v", err)
				}
				listContent = string(data)
			}
		}
		return nil, nil
	})

	if err := tool.Concat(context.Background(), []string{"a/scene_7.mp4", "a/scene_9.mp4"}, "a/scene_7.mp4"); err != nil {
		t.Fatalf("Concat returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(listContent), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 list lines, got %q", listContent)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "file '") || !strings.HasSuffix(line, "'") {
			t.Fatalf("unexpected list line %q", line)
		}
	}
	if !strings.Contains(lines[0], "scene_7.mp4") || !strings.Contains(lines[1], "scene_9.mp4") {
		t.Fatalf("unexpected list order: %q", listContent)
	}

	if err := tool.Concat(context.Background(), nil, "out.mp4"); err == nil {
		t.Fatal("expected error for empty sources")
	}
}

func TestBlankSecondsSumsDetections(t *testing.T) {
	log := strings.Join([]string{
		"[blackdetect @ 0x1] black_start:0 black_end:3.25 black_duration:3.25",
		"frame=  100 fps=0.0 q=-0.0 size=N/A",
		"[blackdetect @ 0x1] black_start:5 black_end:6.5 black_duration:1.5",
	}, "\n")
	var calls []call
	tool := media.NewFFmpeg("", "")
	tool.WithCommandRunner(fakeRunner(t, &calls, []byte(log), nil))

	total, err := tool.BlankSeconds(context.Background(), "clip.mp4", false, 0.5, 0.10)
	if err != nil {
		t.Fatalf("BlankSeconds returned error: %v", err)
	}
	if total != 4.75 {
		t.Fatalf("unexpected total: %v", total)
	}
	filter := ""
	for i, arg := range calls[0].args {
		if arg == "-vf" && i+1 < len(calls[0].args) {
			filter = calls[0].args[i+1]
		}
	}
	if filter != "blackdetect=d=0.5:pic_th=0.1" {
		t.Fatalf("unexpected filter: %q", filter)
	}

	if _, err := tool.BlankSeconds(context.Background(), "clip.mp4", true, 0.5, 0.10); err != nil {
		t.Fatalf("BlankSeconds invert returned error: %v", err)
	}
	filter = ""
	for i, arg := range calls[1].args {
		if arg == "-vf" && i+1 < len(calls[1].args) {
			filter = calls[1].args[i+1]
		}
	}
	if filter != "negate,blackdetect=d=0.5:pic_th=0.1" {
		t.Fatalf("unexpected inverted filter: %q", filter)
	}
}
