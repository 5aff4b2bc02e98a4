package coder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenecode/internal/export"
	"scenecode/internal/glue"
	"scenecode/internal/labeling"
	"scenecode/internal/logging"
	"scenecode/internal/scenes"
	"scenecode/internal/testsupport"
)

type fakeVision struct {
	outputs map[string]string
	errs    map[string]error
	calls   []labeling.ClipRequest
}

func newFakeVision() *fakeVision {
	return &fakeVision{
		outputs: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func clipKey(domain string, clip int) string {
	return fmt.Sprintf("%s/%d", domain, clip)
}

func (f *fakeVision) CodeClip(ctx context.Context, req labeling.ClipRequest) (string, error) {
	f.calls = append(f.calls, req)
	key := clipKey(req.Domain, req.Clip)
	if err := f.errs[key]; err != nil {
		return "", err
	}
	if output, ok := f.outputs[key]; ok {
		return output, nil
	}
	return "code_campus", nil
}

func (f *fakeVision) Model() string { return "fake-vision" }

func writeCoderSheet(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coded.csv")
	testsupport.WriteText(t, path, "Domain,Clip Number,Length,Description,Category\n"+rows)
	return path
}

func seedScenes(t *testing.T, dir string, naming scenes.Naming, nums []int, shots []int) {
	t.Helper()
	for _, n := range nums {
		testsupport.WriteFile(t, naming.ClipPath(dir, n), 2048)
	}
	for _, n := range shots {
		testsupport.WriteFile(t, naming.ScreenshotPath(dir, n), 512)
	}
}

func TestRunLabelsClipsAndWritesArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ledger := testsupport.MustOpenStore(t, cfg)
	vision := newFakeVision()
	vision.outputs[clipKey("cmn.edu", 1)] = "code_campus, code_brand"
	vision.outputs[clipKey("cmn.edu", 4)] = "code_student"

	coder := NewCoder(cfg, vision, ledger, logging.NewNop())
	naming := coder.naming
	scenesDir := cfg.ScenesDir("cmn.edu")
	seedScenes(t, scenesDir, naming, []int{1, 2, 3, 4, 5}, []int{1, 4})

	path := writeCoderSheet(t,
		"cmn.edu,1,0:10,Aerial shot,Campus\n"+
			"cmn.edu,4,0:05,Students,Student life\n")

	sum, err := coder.Run(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Institutions != 1 || sum.Labeled != 2 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}

	// Clip 1's window closes at clip 4, so scenes 2-3 are continuations;
	// clip 4 extends to the top of the inventory.
	if len(vision.calls) != 2 {
		t.Fatalf("vision calls = %d", len(vision.calls))
	}
	if vision.calls[0].Range != "2-3" || vision.calls[1].Range != "5" {
		t.Fatalf("ranges = %q, %q", vision.calls[0].Range, vision.calls[1].Range)
	}

	records, _, err := glue.ReadRecords(glue.PathFor(cfg.InstitutionDir("cmn.edu")))
	if err != nil {
		t.Fatalf("read glue: %v", err)
	}
	if len(records) != 2 || records[0].Base != 1 || records[1].Base != 4 {
		t.Fatalf("glue records = %+v", records)
	}

	label, err := ledger.GetClipLabel(context.Background(), "cmn.edu", 1)
	if err != nil || label == nil {
		t.Fatalf("get label: %v %v", label, err)
	}
	if label.Output != "code_campus, code_brand" || label.ScenesGuess != "2-3" {
		t.Fatalf("label = %+v", label)
	}
	if !label.HasNext || label.NextClip != 4 {
		t.Fatalf("next clip = %d (has=%t), want 4", label.NextClip, label.HasNext)
	}

	csvPath := filepath.Join(cfg.InstitutionDir("cmn.edu"), export.ClipsFileName)
	if _, err := os.Stat(csvPath); err != nil {
		t.Fatalf("analysis csv missing: %v", err)
	}
	if sum.WorkbookPath == "" {
		t.Fatal("no consolidated workbook path")
	}
	if _, err := os.Stat(sum.WorkbookPath); err != nil {
		t.Fatalf("workbook missing: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(sum.WorkbookPath), "clips_complete_") {
		t.Fatalf("workbook name = %q", filepath.Base(sum.WorkbookPath))
	}
}

func TestRunRecordsErrorOutputsAndContinues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ledger := testsupport.MustOpenStore(t, cfg)
	vision := newFakeVision()
	vision.errs[clipKey("cmn.edu", 1)] = errors.New("http 500: down")

	coder := NewCoder(cfg, vision, ledger, logging.NewNop())
	scenesDir := cfg.ScenesDir("cmn.edu")
	seedScenes(t, scenesDir, coder.naming, []int{1, 2}, []int{1, 2})

	path := writeCoderSheet(t, "cmn.edu,1,,,\ncmn.edu,2,,,\n")
	sum, err := coder.Run(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 || sum.Labeled != 1 {
		t.Fatalf("summary = %+v", sum)
	}

	label, err := ledger.GetClipLabel(context.Background(), "cmn.edu", 1)
	if err != nil || label == nil {
		t.Fatalf("get label: %v %v", label, err)
	}
	if !label.Failed() || !strings.Contains(label.Output, "http 500") {
		t.Fatalf("output = %q, want ERROR capture", label.Output)
	}
}

func TestRunMissingImageRecordsEmptyOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ledger := testsupport.MustOpenStore(t, cfg)
	vision := newFakeVision()

	coder := NewCoder(cfg, vision, ledger, logging.NewNop())
	// Scene clip exists but no screenshot was captured.
	seedScenes(t, cfg.ScenesDir("cmn.edu"), coder.naming, []int{1}, nil)

	path := writeCoderSheet(t, "cmn.edu,1,,,\n")
	sum, err := coder.Run(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(vision.calls) != 0 {
		t.Fatalf("vision called %d times for imageless clip", len(vision.calls))
	}
	if sum.Labeled != 1 {
		t.Fatalf("summary = %+v, want empty output counted as labeled", sum)
	}

	label, err := ledger.GetClipLabel(context.Background(), "cmn.edu", 1)
	if err != nil || label == nil {
		t.Fatalf("get label: %v %v", label, err)
	}
	if label.Output != "" || label.ImagePath != "" {
		t.Fatalf("label = %+v, want empty output", label)
	}
}

func TestRunResumeSkipsLabeledRetriesFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ledger := testsupport.MustOpenStore(t, cfg)
	vision := newFakeVision()
	vision.errs[clipKey("cmn.edu", 2)] = errors.New("down")

	coder := NewCoder(cfg, vision, ledger, logging.NewNop())
	scenesDir := cfg.ScenesDir("cmn.edu")
	seedScenes(t, scenesDir, coder.naming, []int{1, 2}, []int{1, 2})

	path := writeCoderSheet(t, "cmn.edu,1,,,\ncmn.edu,2,,,\n")
	if _, err := coder.Run(context.Background(), path, Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second run: clip 1 is labeled and skips; clip 2 failed and retries.
	delete(vision.errs, clipKey("cmn.edu", 2))
	vision.outputs[clipKey("cmn.edu", 2)] = "code_value"
	vision.calls = nil

	sum, err := coder.Run(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sum.Skipped != 1 || sum.Labeled != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(vision.calls) != 1 || vision.calls[0].Clip != 2 {
		t.Fatalf("calls = %+v, want only clip 2 retried", vision.calls)
	}

	// Recode forces everything.
	vision.calls = nil
	sum, err = coder.Run(context.Background(), path, Options{Recode: true})
	if err != nil {
		t.Fatalf("recode run: %v", err)
	}
	if len(vision.calls) != 2 || sum.Skipped != 0 {
		t.Fatalf("recode calls = %d skipped = %d", len(vision.calls), sum.Skipped)
	}
}

func TestRunFiltersInstitutions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ledger := testsupport.MustOpenStore(t, cfg)
	vision := newFakeVision()

	coder := NewCoder(cfg, vision, ledger, logging.NewNop())
	seedScenes(t, cfg.ScenesDir("a.edu"), coder.naming, []int{1}, []int{1})
	seedScenes(t, cfg.ScenesDir("b.edu"), coder.naming, []int{1}, []int{1})

	path := writeCoderSheet(t, "a.edu,1,,,\nb.edu,1,,,\n")
	sum, err := coder.Run(context.Background(), path, Options{Institutions: []string{"B.edu"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Institutions != 1 {
		t.Fatalf("institutions = %d, want only b.edu", sum.Institutions)
	}
	if len(vision.calls) != 1 || vision.calls[0].Domain != "b.edu" {
		t.Fatalf("calls = %+v", vision.calls)
	}
}

func TestRunMissingRequiredColumns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ledger := testsupport.MustOpenStore(t, cfg)
	coder := NewCoder(cfg, newFakeVision(), ledger, logging.NewNop())

	path := filepath.Join(t.TempDir(), "bad.csv")
	testsupport.WriteText(t, path, "What,Ever\nx,y\n")

	_, err := coder.Run(context.Background(), path, Options{})
	if err == nil || !strings.Contains(err.Error(), "no column found") {
		t.Fatalf("error = %v, want missing column detail", err)
	}
}
