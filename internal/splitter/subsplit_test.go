package splitter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenecode/internal/logging"
	"scenecode/internal/services"
	"scenecode/internal/testsupport"
)

func TestSubsplitSceneWritesFragments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tools := testsupport.NewFakeToolchain()
	tools.Boundaries = []float64{1.5}

	scenesDir := cfg.ScenesDir("example.edu")
	s := NewSplitter(cfg, tools, logging.NewNop())
	testsupport.WriteFile(t, s.naming.ClipPath(scenesDir, 7), 4096)

	res, err := s.SubsplitScene(context.Background(), "example.edu", 7)
	if err != nil {
		t.Fatalf("SubsplitScene: %v", err)
	}
	if res.Boundaries != 1 || res.Fragments != 2 {
		t.Fatalf("boundaries=%d fragments=%d, want 1 boundary -> 2 fragments", res.Boundaries, res.Fragments)
	}
	if res.Screenshots != 2 {
		t.Fatalf("screenshots = %d, want one per fragment", res.Screenshots)
	}
	for part := 1; part <= 2; part++ {
		if _, err := os.Stat(s.naming.FragmentPath(scenesDir, 7, part)); err != nil {
			t.Fatalf("fragment 7_%d missing: %v", part, err)
		}
		if _, err := os.Stat(s.naming.FragmentScreenshotPath(scenesDir, 7, part)); err != nil {
			t.Fatalf("fragment screenshot 7_%d missing: %v", part, err)
		}
	}
	// The original scene stays in place for the resolver.
	if _, err := os.Stat(s.naming.ClipPath(scenesDir, 7)); err != nil {
		t.Fatalf("original scene removed: %v", err)
	}
}

func TestSubsplitSceneZeroBoundariesDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tools := testsupport.NewFakeToolchain()

	scenesDir := cfg.ScenesDir("example.edu")
	s := NewSplitter(cfg, tools, logging.NewNop())
	testsupport.WriteFile(t, s.naming.ClipPath(scenesDir, 3), 2048)

	res, err := s.SubsplitScene(context.Background(), "example.edu", 3)
	if err != nil {
		t.Fatalf("SubsplitScene: %v", err)
	}
	if res.Fragments != 1 {
		t.Fatalf("fragments = %d, want duplicated scene", res.Fragments)
	}
	info, err := os.Stat(s.naming.FragmentPath(scenesDir, 3, 1))
	if err != nil {
		t.Fatalf("fragment 3_1 missing: %v", err)
	}
	if info.Size() != 2048 {
		t.Fatalf("fragment size = %d, want copy of the scene", info.Size())
	}
}

func TestSubsplitSceneUsesLookupParams(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lookup := filepath.Join(t.TempDir(), "lookup.csv")
	testsupport.WriteText(t, lookup, "site,crawl,diff\nexample.edu,4,0.12\nbad-row,x,y\n")
	cfg.Detect.SubsplitTable = lookup

	tools := testsupport.NewFakeToolchain()
	scenesDir := cfg.ScenesDir("example.edu")
	s := NewSplitter(cfg, tools, logging.NewNop())
	testsupport.WriteFile(t, s.naming.ClipPath(scenesDir, 1), 2048)

	res, err := s.SubsplitScene(context.Background(), "EXAMPLE.edu", 1)
	if err != nil {
		t.Fatalf("SubsplitScene: %v", err)
	}
	if res.Params.FrameStep != 4 || res.Params.Threshold != 0.12 {
		t.Fatalf("params = %+v, want lookup row applied as stored", res.Params)
	}
	found := false
	for _, call := range tools.Calls() {
		if strings.HasPrefix(call, "detect") && strings.Contains(call, "step=4") && strings.Contains(call, "threshold=0.12") {
			found = true
		}
	}
	if !found {
		t.Fatalf("detect call missing lookup params: %v", tools.Calls())
	}
}

func TestSubsplitSceneFallsBackToDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tools := testsupport.NewFakeToolchain()
	scenesDir := cfg.ScenesDir("other.edu")
	s := NewSplitter(cfg, tools, logging.NewNop())
	testsupport.WriteFile(t, s.naming.ClipPath(scenesDir, 1), 2048)

	res, err := s.SubsplitScene(context.Background(), "other.edu", 1)
	if err != nil {
		t.Fatalf("SubsplitScene: %v", err)
	}
	if res.Params.FrameStep != cfg.Detect.FrameStep || res.Params.Threshold != cfg.Detect.Threshold {
		t.Fatalf("params = %+v, want configured defaults", res.Params)
	}
}

func TestSubsplitSceneMissingClip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := NewSplitter(cfg, testsupport.NewFakeToolchain(), logging.NewNop())

	_, err := s.SubsplitScene(context.Background(), "example.edu", 42)
	if !errors.Is(err, services.ErrMissingArtifact) {
		t.Fatalf("error = %v, want missing artifact", err)
	}
}

func TestReadLookupSkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup.csv")
	testsupport.WriteText(t, path,
		"site,crawl,diff\n"+
			"a.edu,2,0.5\n"+
			"b.edu,zero,0.5\n"+
			"c.edu,3\n"+
			"a.edu,9,0.9\n")

	entries, skipped, err := ReadLookup(path)
	if err != nil {
		t.Fatalf("ReadLookup: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %v, want only a.edu", entries)
	}
	if entries["a.edu"].FrameStep != 2 || entries["a.edu"].Threshold != 0.5 {
		t.Fatalf("a.edu = %+v, want first row to win", entries["a.edu"])
	}
	if len(skipped) != 3 {
		t.Fatalf("skipped = %v, want header and two malformed rows", skipped)
	}
}
