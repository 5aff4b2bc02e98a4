package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"scenecode/internal/textutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and data file configuration.
type Paths struct {
	ResultsDir string `toml:"results_dir"`
	LogDir     string `toml:"log_dir"`
	LedgerPath string `toml:"ledger_path"`
}

// Scenes contains the on-disk naming and cleanup rules for scene files.
type Scenes struct {
	VideoExt       string  `toml:"video_ext"`
	ImageExt       string  `toml:"image_ext"`
	MinClipBytes   int64   `toml:"min_clip_bytes"`
	BlankThreshold float64 `toml:"blank_threshold"`
}

// Detect contains shot-boundary detection parameters.
type Detect struct {
	FrameStep       int     `toml:"frame_step"`
	Threshold       float64 `toml:"threshold"`
	SubsplitTable   string  `toml:"subsplit_table"`
	BlackMinSeconds float64 `toml:"black_min_seconds"`
	BlackPictureMax float64 `toml:"black_picture_max"`
}

// Fetch contains download settings for institution videos.
type Fetch struct {
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LLM contains connection settings for the vision labeling endpoint.
type LLM struct {
	BaseURL         string  `toml:"base_url"`
	APIKey          string  `toml:"api_key"`
	Model           string  `toml:"model"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	MaxRetries      int     `toml:"max_retries"`
	ThrottleSeconds float64 `toml:"throttle_seconds"`
}

// Sample contains stratified sampling parameters for the IPEDS join.
type Sample struct {
	Rate   float64  `toml:"rate"`
	Seed   int64    `toml:"seed"`
	Strata []string `toml:"strata"`
}

// Sheet contains the coder spreadsheet schema mapping. Each key names a
// logical column; values are header aliases that map to it, replacing the
// built-in alias lists when set.
type Sheet struct {
	Aliases map[string][]string `toml:"aliases"`
}

// Tools contains external binary names or paths.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scenecode.
//
// Configuration sections by subsystem:
//   - Paths: results tree, log directory, and ledger database location
//   - Scenes: scene file naming plus the corrupt/blank cleanup thresholds
//   - Detect: ffmpeg shot-boundary and blank-frame detection parameters
//   - Fetch: download client settings
//   - LLM: vision labeling endpoint connection settings
//   - Sample: IPEDS stratified sampling parameters
//   - Sheet: coder spreadsheet column alias overrides
//   - Tools: ffmpeg/ffprobe binary locations
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Scenes  Scenes  `toml:"scenes"`
	Detect  Detect  `toml:"detect"`
	Fetch   Fetch   `toml:"fetch"`
	LLM     LLM     `toml:"llm"`
	Sample  Sample  `toml:"sample"`
	Sheet   Sheet   `toml:"sheet"`
	Tools   Tools   `toml:"tools"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scenecode/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/scenecode/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scenecode.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the toolkit writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ResultsDir, c.Paths.LogDir}
	if ledgerDir := filepath.Dir(c.Paths.LedgerPath); ledgerDir != "" {
		dirs = append(dirs, ledgerDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// InstitutionDir returns the per-institution directory under the results
// tree. The domain is sanitized so free-form spreadsheet values cannot
// escape the results tree or produce invalid names.
func (c *Config) InstitutionDir(domain string) string {
	return filepath.Join(c.Paths.ResultsDir, textutil.SafeFolder(domain))
}

// ScenesDir returns the scenes subdirectory for an institution.
func (c *Config) ScenesDir(domain string) string {
	return filepath.Join(c.InstitutionDir(domain), "scenes")
}

// FFmpegBinary returns the ffmpeg executable name or path.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFmpeg); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name or path.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFprobe); bin != "" {
		return bin
	}
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the resolved vision endpoint settings.
type LLMConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	Throttle   time.Duration
}

// GetLLM returns the vision endpoint connection settings with durations resolved.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		BaseURL:    strings.TrimSpace(c.LLM.BaseURL),
		APIKey:     strings.TrimSpace(c.LLM.APIKey),
		Model:      strings.TrimSpace(c.LLM.Model),
		Timeout:    time.Duration(c.LLM.TimeoutSeconds) * time.Second,
		MaxRetries: c.LLM.MaxRetries,
		Throttle:   time.Duration(c.LLM.ThrottleSeconds * float64(time.Second)),
	}
}
