package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenecode/internal/glue"
	"scenecode/internal/testsupport"
)

func TestResolveCommandPrintsAndWritesGlue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)

	scenesDir := cfg.ScenesDir("cmn.edu")
	for _, name := range []string{"scene_1.mp4", "scene_2.mp4", "scene_3.mp4"} {
		testsupport.WriteText(t, filepath.Join(scenesDir, name), "clip")
	}
	testsupport.WriteText(t, filepath.Join(scenesDir, "scene_1_screenshot.jpg"), "img")

	sheetPath := filepath.Join(t.TempDir(), "coder.csv")
	testsupport.WriteText(t, sheetPath,
		"Domain,Clip Number\n"+
			"cmn.edu,1\n"+
			"cmn.edu,3\n"+
			"other.edu,1\n")

	out, err := runCLI(t, path, "resolve", sheetPath, "cmn.edu", "--write")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Clip 1's window closes before clip 3, picking up scene 2; clip 3 has
	// no continuations and no screenshot.
	requireContains(t, out, "cmn.edu\t1\t2\tscene_1_screenshot.jpg")
	requireContains(t, out, "cmn.edu\t3\t-\t(none)")
	if strings.Contains(out, "other.edu") {
		t.Fatalf("unselected institution leaked into output:\n%s", out)
	}

	records, skipped, err := glue.ReadRecords(glue.PathFor(cfg.InstitutionDir("cmn.edu")))
	if err != nil {
		t.Fatalf("read glue: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped lines = %v", skipped)
	}
	if len(records) != 1 || records[0].Base != 1 || len(records[0].Continuations) != 1 || records[0].Continuations[0] != 2 {
		t.Fatalf("glue records = %+v", records)
	}
}

func TestResolveCommandWithoutWriteLeavesNoGlue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)

	scenesDir := cfg.ScenesDir("cmn.edu")
	testsupport.WriteText(t, filepath.Join(scenesDir, "scene_1.mp4"), "clip")

	sheetPath := filepath.Join(t.TempDir(), "coder.csv")
	testsupport.WriteText(t, sheetPath, "Domain,Clip Number\ncmn.edu,1\n")

	if _, err := runCLI(t, path, "resolve", sheetPath, "cmn.edu"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := os.Stat(glue.PathFor(cfg.InstitutionDir("cmn.edu"))); !os.IsNotExist(err) {
		t.Fatalf("glue file should not exist without --write: %v", err)
	}
}
