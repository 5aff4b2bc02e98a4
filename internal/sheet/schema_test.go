package sheet

import (
	"errors"
	"strings"
	"testing"

	"scenecode/internal/services"
)

func TestDetectMapsAliasesAcrossSpellings(t *testing.T) {
	schema := NewSchema(nil)
	headers := []string{"Domain/Institution", "Clip  Number", "Length", "Scene Description", "Codes", "Sub Category", "Description Revision"}
	m, err := schema.Detect(headers, FieldDomain, FieldClip)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	row := []string{" cmn.edu ", "7", "0:12", "campus flyover", "code_campus", "", "aerial shot"}
	if got := m.Value(row, FieldDomain); got != "cmn.edu" {
		t.Fatalf("domain cell = %q, want cmn.edu", got)
	}
	if got := m.Value(row, FieldClip); got != "7" {
		t.Fatalf("clip cell = %q, want 7", got)
	}
	if got := m.Value(row, FieldCategory); got != "code_campus" {
		t.Fatalf("category cell = %q, want code_campus", got)
	}
	if got := m.Value(row, FieldRevision); got != "aerial shot" {
		t.Fatalf("revision cell = %q, want aerial shot", got)
	}
}

func TestDetectReportsEveryMissingField(t *testing.T) {
	schema := NewSchema(nil)
	_, err := schema.Detect([]string{"Notes", "Reviewer"}, FieldDomain, FieldClip)
	if err == nil {
		t.Fatal("expected error for unmappable required fields")
	}
	if !errors.Is(err, services.ErrMalformedInput) {
		t.Fatalf("error = %v, want ErrMalformedInput", err)
	}
	msg := err.Error()
	for _, want := range []string{"clip", "domain", "Notes", "Reviewer"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q should mention %q", msg, want)
		}
	}
}

func TestDetectOverrideReplacesDefaults(t *testing.T) {
	schema := NewSchema(map[string][]string{
		FieldClip: {"Shot ID"},
	})
	headers := []string{"domain", "clip", "shot id"}
	m, err := schema.Detect(headers, FieldDomain, FieldClip)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if got := m.Value([]string{"cmn.edu", "ignored", "12"}, FieldClip); got != "12" {
		t.Fatalf("overridden clip cell = %q, want 12", got)
	}
}

func TestValueOnShortRow(t *testing.T) {
	schema := NewSchema(nil)
	m, err := schema.Detect([]string{"domain", "clip", "description"}, FieldDomain, FieldClip)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if got := m.Value([]string{"cmn.edu", "3"}, FieldDescription); got != "" {
		t.Fatalf("short row description = %q, want empty", got)
	}
	if m.Has(FieldVideoURL) {
		t.Fatal("video_url should not be detected in coder sheet")
	}
}
