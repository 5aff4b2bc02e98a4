package ipeds

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"scenecode/internal/testsupport"
)

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"https://www.cmn.edu/":         "cmn.edu",
		"HTTP://CMN.EDU/about?x=1":     "cmn.edu",
		"www.cmn.edu":                  "cmn.edu",
		"cmn.edu.":                     "cmn.edu",
		"  state.edu/admissions  ":     "state.edu",
		"":                             "",
		"www2.cmn.edu":                 "www2.cmn.edu",
		"https://portal.cmn.edu#video": "portal.cmn.edu",
	}
	for input, want := range cases {
		if got := NormalizeDomain(input); got != want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", input, got, want)
		}
	}
}

func writeHD(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hd2023.csv")
	testsupport.WriteText(t, path, content)
	return path
}

func TestLoadDirectoryBuildsStrata(t *testing.T) {
	path := writeHD(t,
		"UNITID,INSTNM,WEBADDR,SECTOR,ICLEVEL,CONTROL,OBEREG\n"+
			"100,Central University,https://www.cmn.edu/,1,1,1,3\n"+
			"101,State College,www.state.edu,2,,2,3\n"+
			"102,Duplicate U,https://cmn.edu,9,9,9,9\n"+
			"103,No Site,,1,1,1,1\n")

	dir, err := LoadDirectory(path, []string{"SECTOR", "ICLEVEL", "CONTROL", "OBEREG", "MISSING"})
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if dir.Len() != 2 {
		t.Fatalf("len = %d, want duplicate and blank-site rows dropped", dir.Len())
	}
	if !reflect.DeepEqual(dir.StrataColumns, []string{"SECTOR", "ICLEVEL", "CONTROL", "OBEREG"}) {
		t.Fatalf("strata columns = %v", dir.StrataColumns)
	}

	inst, ok := dir.Lookup("https://www.cmn.edu/welcome")
	if !ok {
		t.Fatal("cmn.edu not found")
	}
	if inst.Name != "Central University" || inst.Stratum != "1|1|1|3" {
		t.Fatalf("inst = %+v", inst)
	}
	// First row wins for a domain; blank cells read as NA.
	if got := dir.StratumFor("state.edu"); got != "2|NA|2|3" {
		t.Fatalf("state.edu stratum = %q", got)
	}
	if got := dir.StratumFor("unlisted.edu"); got != UnknownStratum {
		t.Fatalf("unlisted stratum = %q", got)
	}
}

func TestLoadDirectoryMissingWebsiteColumn(t *testing.T) {
	path := writeHD(t, "UNITID,SECTOR\n100,1\n")
	_, err := LoadDirectory(path, []string{"SECTOR"})
	if err == nil || !strings.Contains(err.Error(), "no website column") {
		t.Fatalf("error = %v", err)
	}
}

func TestSampleProportionalAllocation(t *testing.T) {
	header := "INSTNM,WEBADDR,SECTOR\n"
	var rows strings.Builder
	var domains []string
	// 30 institutions in sector 1, 10 in sector 2.
	for i := 0; i < 30; i++ {
		domain := fmt.Sprintf("a%02d.edu", i)
		fmt.Fprintf(&rows, "A %d,%s,1\n", i, domain)
		domains = append(domains, domain)
	}
	for i := 0; i < 10; i++ {
		domain := fmt.Sprintf("b%02d.edu", i)
		fmt.Fprintf(&rows, "B %d,%s,2\n", i, domain)
		domains = append(domains, domain)
	}
	dir, err := LoadDirectory(writeHD(t, header+rows.String()), []string{"SECTOR"})
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}

	result := Sample(domains, dir, 0.10, 42)
	if len(result.Selected) != 4 {
		t.Fatalf("selected = %d, want 10%% of 40", len(result.Selected))
	}
	counts := map[string]int{}
	for _, row := range result.Selected {
		counts[row.Stratum]++
	}
	if counts["1"] != 3 || counts["2"] != 1 {
		t.Fatalf("allocation = %v, want 3 from sector 1 and 1 from sector 2", counts)
	}

	// Same seed, same draw.
	again := Sample(domains, dir, 0.10, 42)
	if !reflect.DeepEqual(result.Selected, again.Selected) {
		t.Fatal("draw is not deterministic for a fixed seed")
	}

	var stats []StratumStat
	for _, stat := range result.Prevalence {
		stats = append(stats, stat)
	}
	if len(stats) != 2 || stats[0].Population != 30 || stats[0].Sampled != 3 {
		t.Fatalf("prevalence = %+v", stats)
	}
}

func TestSampleMinimumOnePerStratum(t *testing.T) {
	header := "INSTNM,WEBADDR,SECTOR\n"
	var rows strings.Builder
	var domains []string
	for i := 0; i < 20; i++ {
		domain := fmt.Sprintf("a%02d.edu", i)
		fmt.Fprintf(&rows, "A %d,%s,1\n", i, domain)
		domains = append(domains, domain)
	}
	// A two-row stratum would round to zero at 10%.
	for i := 0; i < 2; i++ {
		domain := fmt.Sprintf("b%d.edu", i)
		fmt.Fprintf(&rows, "B %d,%s,2\n", i, domain)
		domains = append(domains, domain)
	}
	dir, err := LoadDirectory(writeHD(t, header+rows.String()), []string{"SECTOR"})
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}

	result := Sample(domains, dir, 0.10, 42)
	counts := map[string]int{}
	for _, row := range result.Selected {
		counts[row.Stratum]++
	}
	if counts["2"] < 1 {
		t.Fatalf("allocation = %v, want at least one from the small stratum", counts)
	}
}

func TestSampleUnmatchedDomainsGroupAsUnknown(t *testing.T) {
	dir, err := LoadDirectory(writeHD(t, "INSTNM,WEBADDR,SECTOR\nA,cmn.edu,1\n"), []string{"SECTOR"})
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	result := Sample([]string{"cmn.edu", "mystery.edu"}, dir, 1.0, 7)
	if len(result.Selected) != 2 {
		t.Fatalf("selected = %+v", result.Selected)
	}
	var unknown *SampledRow
	for i := range result.Selected {
		if result.Selected[i].Domain == "mystery.edu" {
			unknown = &result.Selected[i]
		}
	}
	if unknown == nil || unknown.Stratum != UnknownStratum {
		t.Fatalf("selected = %+v, want mystery.edu tagged UNKNOWN", result.Selected)
	}
}
