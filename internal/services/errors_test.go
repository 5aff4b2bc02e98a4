package services_test

import (
	"errors"
	"strings"
	"testing"

	"scenecode/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "split", "concat", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"split", "concat", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "code", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestRecoverableClassification(t *testing.T) {
	rowErr := services.Wrap(services.ErrMalformedInput, "code", "row", "bad clip number", nil)
	if !services.Recoverable(rowErr) {
		t.Fatalf("expected malformed input to be recoverable: %v", rowErr)
	}

	toolErr := services.Wrap(services.ErrExternalTool, "merge", "concat", "exit status 1", errors.New("ffmpeg"))
	if !services.Recoverable(toolErr) {
		t.Fatalf("expected external tool failure to be recoverable: %v", toolErr)
	}

	cfgErr := services.Wrap(services.ErrConfiguration, "code", "load", "missing results dir", nil)
	if services.Recoverable(cfgErr) {
		t.Fatalf("expected configuration error to abort: %v", cfgErr)
	}

	if services.Recoverable(errors.New("unclassified")) {
		t.Fatal("expected unclassified error to abort")
	}
}
