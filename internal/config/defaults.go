package config

const (
	defaultResultsDir      = "~/scenecode/results"
	defaultLogDir          = "~/.local/share/scenecode/logs"
	defaultLedgerPath      = "~/.local/share/scenecode/ledger.db"
	defaultVideoExt        = "mp4"
	defaultImageExt        = "jpg"
	defaultMinClipBytes    = 1024
	defaultBlankThreshold  = 0.85
	defaultFrameStep       = 10
	defaultDetectThreshold = 0.30
	defaultBlackMinSeconds = 0.5
	defaultBlackPictureMax = 0.10
	defaultFetchUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"
	defaultFetchTimeout    = 600
	defaultLLMBaseURL      = "http://localhost:1234/v1"
	defaultLLMAPIKey       = "lm-studio"
	defaultLLMModel        = "gemma-3-4b-it-qat"
	defaultLLMTimeout      = 90
	defaultLLMMaxRetries   = 2
	defaultSampleRate      = 0.10
	defaultSampleSeed      = 42
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

func defaultStrata() []string {
	return []string{"SECTOR", "ICLEVEL", "CONTROL", "OBEREG"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ResultsDir: defaultResultsDir,
			LogDir:     defaultLogDir,
			LedgerPath: defaultLedgerPath,
		},
		Scenes: Scenes{
			VideoExt:       defaultVideoExt,
			ImageExt:       defaultImageExt,
			MinClipBytes:   defaultMinClipBytes,
			BlankThreshold: defaultBlankThreshold,
		},
		Detect: Detect{
			FrameStep:       defaultFrameStep,
			Threshold:       defaultDetectThreshold,
			BlackMinSeconds: defaultBlackMinSeconds,
			BlackPictureMax: defaultBlackPictureMax,
		},
		Fetch: Fetch{
			UserAgent:      defaultFetchUserAgent,
			TimeoutSeconds: defaultFetchTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			APIKey:         defaultLLMAPIKey,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeout,
			MaxRetries:     defaultLLMMaxRetries,
		},
		Sample: Sample{
			Rate:   defaultSampleRate,
			Seed:   defaultSampleSeed,
			Strata: defaultStrata(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
