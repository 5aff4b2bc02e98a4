package sheet

import (
	"reflect"
	"testing"
)

func TestParseDomain(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare domain", "cmn.edu", "cmn.edu"},
		{"full url", "https://www.gvsu.edu/admissions", "www.gvsu.edu"},
		{"mixed case with note", "CMN.edu (main campus)", "cmn.edu"},
		{"no hostname falls back to text", "University of Somewhere", "university of somewhere"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseDomain(tc.input); got != tc.want {
				t.Fatalf("ParseDomain(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func clipTable() *Table {
	return &Table{
		Headers: []string{"domain", "clip", "description"},
		Rows: [][]string{
			{"cmn.edu", "2", "second"},
			{"cmn.edu", "1", "first"},
			{"", "3", "missing domain"},
			{"cmn.edu", "seven", "bad clip"},
			{"gvsu.edu", "4.0", "float clip"},
		},
	}
}

func TestParseClipsDropsMalformedRows(t *testing.T) {
	table := clipTable()
	m, err := NewSchema(nil).Detect(table.Headers, FieldDomain, FieldClip)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	rows, dropped := ParseClips(table, m)
	if len(rows) != 3 {
		t.Fatalf("kept %d rows, want 3", len(rows))
	}
	if !reflect.DeepEqual(dropped, []int{3, 4}) {
		t.Fatalf("dropped rows = %v, want [3 4]", dropped)
	}
	if rows[2].Domain != "gvsu.edu" || rows[2].Clip != 4 {
		t.Fatalf("float clip row = %+v, want gvsu.edu clip 4", rows[2])
	}
}

func TestGroupByDomainSortsGroupsAndClips(t *testing.T) {
	rows := []ClipRow{
		{Domain: "gvsu.edu", Clip: 2},
		{Domain: "cmn.edu", Clip: 9},
		{Domain: "cmn.edu", Clip: 1},
		{Domain: "gvsu.edu", Clip: 1},
	}
	groups := GroupByDomain(rows)
	if len(groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(groups))
	}
	if groups[0].Domain != "cmn.edu" || groups[1].Domain != "gvsu.edu" {
		t.Fatalf("group order = %s, %s", groups[0].Domain, groups[1].Domain)
	}
	if groups[0].Rows[0].Clip != 1 || groups[0].Rows[1].Clip != 9 {
		t.Fatalf("cmn.edu clips = %d, %d, want ascending", groups[0].Rows[0].Clip, groups[0].Rows[1].Clip)
	}
}

func TestParseScanRows(t *testing.T) {
	table := &Table{
		Headers: []string{"URL", "Video Source", "Is Primary Site"},
		Rows: [][]string{
			{"https://www.cmn.edu", "https://cdn.cmn.edu/promo.mp4", ""},
			{"https://branch.gvsu.edu", "https://cdn.gvsu.edu/tour.mp4", "FALSE"},
			{"", "https://cdn.nowhere.edu/x.mp4", "true"},
			{"https://www.ferris.edu", "", "yes"},
		},
	}
	m, err := NewSchema(nil).Detect(table.Headers, FieldDomain, FieldVideoURL)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	rows, dropped := ParseScanRows(table, m)
	if len(rows) != 3 {
		t.Fatalf("kept %d rows, want 3", len(rows))
	}
	if !reflect.DeepEqual(dropped, []int{3}) {
		t.Fatalf("dropped = %v, want [3]", dropped)
	}
	if !rows[0].Primary {
		t.Fatal("blank primary flag should count as primary")
	}
	if rows[1].Primary {
		t.Fatal("FALSE primary flag should not count as primary")
	}
	if rows[2].VideoURL != "" {
		t.Fatalf("ferris row video url = %q, want empty", rows[2].VideoURL)
	}
}
