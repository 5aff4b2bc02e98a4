package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenecode/internal/config"
	"scenecode/internal/logging"
	"scenecode/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("pipeline starting", logging.String("component", "split"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "scenecode.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "pipeline starting") {
		t.Fatalf("expected message in log file, got %q", content)
	}
	if !strings.Contains(string(content), "split:") {
		t.Fatalf("expected component prefix in log line, got %q", content)
	}
}

func TestConsoleHandlerPromotesInstitution(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "code")
	logger.Info("labeled clip",
		logging.String(logging.FieldInstitution, "cmn.edu"),
		logging.Int(logging.FieldClip, 7))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "code[cmn.edu]: labeled clip") {
		t.Fatalf("expected component[institution] prefix, got %q", line)
	}
	if !strings.Contains(line, "clip=7") {
		t.Fatalf("expected clip attribute, got %q", line)
	}
}

func TestConsoleFlattensGroupAttrs(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "group.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("batch finished",
		logging.Group("rows",
			logging.Int("labeled", 40),
			logging.Int("failed", 2)))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "rows.labeled=40") || !strings.Contains(line, "rows.failed=2") {
		t.Fatalf("expected dotted group keys, got %q", line)
	}
}

func TestConsoleOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestJSONHandlerUsesRenamedKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log.json")
	logger, err := logging.New(logging.Options{
		Format:           "json",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("scene missing", logging.Int(logging.FieldScene, 4))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, fragment := range []string{`"ts":`, `"level":"warn"`, `"msg":"scene missing"`, `"scene":4`} {
		if !strings.Contains(string(content), fragment) {
			t.Fatalf("expected %s in JSON output, got %q", fragment, content)
		}
	}
}

func TestRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "logfmt"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	base, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithInstitution(context.Background(), "cmn.edu")
	ctx = services.WithStage(ctx, "merge")
	logging.WithContext(ctx, base).Info("merging")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "[cmn.edu]: merging") {
		t.Fatalf("expected institution prefix, got %q", line)
	}
	if !strings.Contains(line, "stage=merge") {
		t.Fatalf("expected stage attribute, got %q", line)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should not panic", logging.Error(nil))
}
