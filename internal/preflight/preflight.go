// Package preflight verifies the toolkit's runtime requirements before a
// pipeline run: external binaries, directory access, disk headroom, the
// vision endpoint, and the ledger location.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"scenecode/internal/config"
	"scenecode/internal/labeling"
)

// minFreeBytes is the free-space floor for the results volume. Splitting
// re-encodes every interior segment, so a run needs real headroom.
const minFreeBytes = 2 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckBinary("ffmpeg", cfg.FFmpegBinary(), "required for splitting and merging"),
		CheckBinary("ffprobe", cfg.FFprobeBinary(), "required for media inspection"),
		CheckDirectoryAccess("Results directory", cfg.Paths.ResultsDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Results volume", cfg.Paths.ResultsDir),
		CheckLedgerPath("Ledger", cfg.Paths.LedgerPath),
		CheckLLM(ctx, "Vision endpoint", cfg.GetLLM()),
	}
	return results
}

// CheckBinary verifies an external command resolves on PATH.
func CheckBinary(name, command, description string) Result {
	if command == "" {
		return Result{Name: name, Detail: "command not configured"}
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found (%s)", command, description)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable, writable, and traversable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the volume holding path has enough headroom for
// a splitting run.
func CheckFreeSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := uint64(stat.Bavail) * uint64(stat.Bsize)
	detail := fmt.Sprintf("%.1f GiB free", float64(free)/(1<<30))
	if free < minFreeBytes {
		return Result{Name: name, Detail: detail + " (need at least 2 GiB)"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckLedgerPath verifies the ledger database location is usable: the
// parent directory must exist and be writable. The database file itself
// is created on first open.
func CheckLedgerPath(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "ledger path not configured"}
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: parent directory missing)", path)}
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: parent not writable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckLLM verifies the vision endpoint is reachable and the key valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cfg.MaxRetries = 0
	client := labeling.NewClient(cfg)
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// summarizeLLMError produces a short summary for health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (endpoint unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (endpoint unreachable)"
	}
	return err.Error()
}
