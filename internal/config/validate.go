package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// SheetFields lists the logical spreadsheet columns that accept alias overrides.
var SheetFields = []string{
	"domain",
	"clip",
	"length",
	"description",
	"category",
	"subcategory",
	"revision",
	"video_url",
	"primary",
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScenes(); err != nil {
		return err
	}
	if err := c.validateDetect(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateSample(); err != nil {
		return err
	}
	if err := c.validateSheet(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		return errors.New("paths.results_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateScenes() error {
	if c.Scenes.BlankThreshold <= 0 || c.Scenes.BlankThreshold > 1 {
		return errors.New("scenes.blank_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateDetect() error {
	if c.Detect.FrameStep < 1 {
		return errors.New("detect.frame_step must be at least 1")
	}
	if c.Detect.Threshold <= 0 || c.Detect.Threshold >= 1 {
		return errors.New("detect.threshold must be between 0 and 1 exclusive")
	}
	if c.Detect.BlackMinSeconds <= 0 {
		return errors.New("detect.black_min_seconds must be positive")
	}
	if c.Detect.BlackPictureMax <= 0 || c.Detect.BlackPictureMax >= 1 {
		return errors.New("detect.black_picture_max must be between 0 and 1 exclusive")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.TimeoutSeconds <= 0 {
		return errors.New("fetch.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		return errors.New("llm.base_url must be set")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSample() error {
	if c.Sample.Rate <= 0 || c.Sample.Rate > 1 {
		return errors.New("sample.rate must be between 0 exclusive and 1 inclusive")
	}
	if len(c.Sample.Strata) == 0 {
		return errors.New("sample.strata must name at least one column")
	}
	return nil
}

func (c *Config) validateSheet() error {
	if len(c.Sheet.Aliases) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(SheetFields))
	for _, field := range SheetFields {
		known[field] = struct{}{}
	}
	var unknown []string
	for field := range c.Sheet.Aliases {
		if _, ok := known[field]; !ok {
			unknown = append(unknown, field)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("sheet.aliases contains unknown fields %s (known: %s)",
			strings.Join(unknown, ", "), strings.Join(SheetFields, ", "))
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
