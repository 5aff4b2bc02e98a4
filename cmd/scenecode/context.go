package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scenecode/internal/config"
	"scenecode/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	return logger, nil
}

// selectInstitutions resolves the institution arguments a pipeline command
// accepts: explicit domains, or --all for every institution directory under
// the results tree.
func selectInstitutions(cfg *config.Config, args []string, all bool) ([]string, error) {
	if all {
		if len(args) > 0 {
			return nil, fmt.Errorf("pass institution names or --all, not both")
		}
		entries, err := os.ReadDir(cfg.Paths.ResultsDir)
		if err != nil {
			return nil, fmt.Errorf("list results directory: %w", err)
		}
		var domains []string
		for _, entry := range entries {
			if entry.IsDir() {
				domains = append(domains, entry.Name())
			}
		}
		sort.Strings(domains)
		if len(domains) == 0 {
			return nil, fmt.Errorf("no institution directories under %s", cfg.Paths.ResultsDir)
		}
		return domains, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("name at least one institution or pass --all")
	}
	return args, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
