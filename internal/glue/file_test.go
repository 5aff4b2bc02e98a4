package glue

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"scenecode/internal/services"
)

func TestRecordLine(t *testing.T) {
	cases := []struct {
		name   string
		record Record
		want   string
	}{
		{"base alone", Record{Base: 3}, "3"},
		{"contiguous run", Record{Base: 7, Continuations: []int{9, 10, 11}}, "7,9-11"},
		{"mixed runs", Record{Base: 2, Continuations: []int{4, 6, 7, 8}}, "2,4,6-8"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.record.Line(); got != tc.want {
				t.Fatalf("Line() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWriteAndReadRecords(t *testing.T) {
	path := PathFor(t.TempDir())
	records := []Record{
		{Base: 2},
		{Base: 5, Continuations: []int{6, 7, 9}},
		{Base: 12, Continuations: []int{13}},
	}
	if err := WriteRecords(path, records); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}
	got, skipped, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped lines = %v, want none", skipped)
	}
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("round trip = %+v, want %+v", got, records)
	}
}

func TestReadRecordsExcludesMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := "7,9-11\n3\nx,2\n5,9-x\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write glue file: %v", err)
	}
	records, skipped, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 2 || records[0].Base != 7 || records[1].Base != 3 {
		t.Fatalf("records = %+v", records)
	}
	if !reflect.DeepEqual(records[0].Continuations, []int{9, 10, 11}) {
		t.Fatalf("continuations = %v", records[0].Continuations)
	}
	if !reflect.DeepEqual(skipped, []int{3, 4}) {
		t.Fatalf("skipped = %v, want [3 4]", skipped)
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	_, _, err := ReadRecords(filepath.Join(t.TempDir(), FileName))
	if !errors.Is(err, services.ErrMissingArtifact) {
		t.Fatalf("error = %v, want ErrMissingArtifact", err)
	}
}
