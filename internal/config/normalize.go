package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDetect(); err != nil {
		return err
	}
	c.normalizeScenes()
	c.normalizeFetch()
	c.normalizeLLM()
	c.normalizeSample()
	c.normalizeSheet()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ResultsDir, err = expandPath(c.Paths.ResultsDir); err != nil {
		return fmt.Errorf("paths.results_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = defaultLedgerPath
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeScenes() {
	c.Scenes.VideoExt = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Scenes.VideoExt)), ".")
	if c.Scenes.VideoExt == "" {
		c.Scenes.VideoExt = defaultVideoExt
	}
	c.Scenes.ImageExt = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Scenes.ImageExt)), ".")
	if c.Scenes.ImageExt == "" {
		c.Scenes.ImageExt = defaultImageExt
	}
	if c.Scenes.MinClipBytes < 0 {
		c.Scenes.MinClipBytes = 0
	}
}

func (c *Config) normalizeDetect() error {
	if c.Detect.SubsplitTable != "" {
		expanded, err := expandPath(c.Detect.SubsplitTable)
		if err != nil {
			return fmt.Errorf("detect.subsplit_table: %w", err)
		}
		c.Detect.SubsplitTable = expanded
	}
	return nil
}

func (c *Config) normalizeFetch() {
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultFetchUserAgent
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeout
	}
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("SCENECODE_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
	if c.LLM.MaxRetries < 0 {
		c.LLM.MaxRetries = 0
	}
	if c.LLM.ThrottleSeconds < 0 {
		c.LLM.ThrottleSeconds = 0
	}
}

func (c *Config) normalizeSample() {
	if len(c.Sample.Strata) == 0 {
		c.Sample.Strata = defaultStrata()
	}
	trimmed := make([]string, 0, len(c.Sample.Strata))
	for _, column := range c.Sample.Strata {
		if column = strings.ToUpper(strings.TrimSpace(column)); column != "" {
			trimmed = append(trimmed, column)
		}
	}
	c.Sample.Strata = trimmed
}

func (c *Config) normalizeSheet() {
	if len(c.Sheet.Aliases) == 0 {
		return
	}
	cleaned := make(map[string][]string, len(c.Sheet.Aliases))
	for field, aliases := range c.Sheet.Aliases {
		key := strings.ToLower(strings.TrimSpace(field))
		kept := make([]string, 0, len(aliases))
		for _, alias := range aliases {
			if alias = strings.TrimSpace(alias); alias != "" {
				kept = append(kept, alias)
			}
		}
		if key != "" && len(kept) > 0 {
			cleaned[key] = kept
		}
	}
	c.Sheet.Aliases = cleaned
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
