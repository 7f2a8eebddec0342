package config

import (
	"os"
	"strings"
)

// Environment variables read by ApplyEnv.
const (
	EnvAddr      = "QEXPAND_ADDR"
	EnvConfig    = "QEXPAND_CONFIG"
	EnvLogLevel  = "QEXPAND_LOG_LEVEL"
	EnvMLflowURI = "MLFLOW_TRACKING_URI"
	EnvModelsDir = "QEXPAND_MODELS_DIR"
)

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	allow := true
	return Config{
		Addr:                    ":8000",
		ModelsDir:               "~/.cache/qexpand/models",
		ModelID:                 "meta-llama/Llama-3.1-8B-Instruct",
		AllowDownload:           &allow,
		Device:                  "auto",
		ContextSize:             2048,
		GPULayers:               99,
		MaxLength:               512,
		MaxNewTokens:            100,
		Temperature:             0.7,
		TopP:                    0.9,
		MockDelayMS:             100,
		MaxQueueDepth:           32,
		MaxWaitSeconds:          30,
		DrainTimeoutSeconds:     10,
		QueueVisibilitySeconds:  120,
		QueueMaxAttempts:        3,
		QueuePollIntervalMillis: 500,
		Tracking: Tracking{
			Experiment:  "query-expansion-production",
			Environment: "production",
		},
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// ApplyDefaults fills every unspecified field of cfg from Defaults.
func ApplyDefaults(cfg *Config) {
	d := Defaults()
	setString(&cfg.Addr, d.Addr)
	setString(&cfg.ModelsDir, d.ModelsDir)
	setString(&cfg.ModelID, d.ModelID)
	if cfg.AllowDownload == nil {
		cfg.AllowDownload = d.AllowDownload
	}
	setString(&cfg.Device, d.Device)
	setInt(&cfg.ContextSize, d.ContextSize)
	setInt(&cfg.GPULayers, d.GPULayers)
	setInt(&cfg.MaxLength, d.MaxLength)
	setInt(&cfg.MaxNewTokens, d.MaxNewTokens)
	if cfg.Temperature <= 0 {
		cfg.Temperature = d.Temperature
	}
	if cfg.TopP <= 0 {
		cfg.TopP = d.TopP
	}
	setInt(&cfg.MockDelayMS, d.MockDelayMS)
	setInt(&cfg.MaxQueueDepth, d.MaxQueueDepth)
	setInt(&cfg.MaxWaitSeconds, d.MaxWaitSeconds)
	setInt(&cfg.DrainTimeoutSeconds, d.DrainTimeoutSeconds)
	setInt(&cfg.QueueVisibilitySeconds, d.QueueVisibilitySeconds)
	setInt(&cfg.QueueMaxAttempts, d.QueueMaxAttempts)
	setInt(&cfg.QueuePollIntervalMillis, d.QueuePollIntervalMillis)
	setString(&cfg.Tracking.Experiment, d.Tracking.Experiment)
	setString(&cfg.Tracking.Environment, d.Tracking.Environment)
	setString(&cfg.LogLevel, d.LogLevel)
	setString(&cfg.LogFormat, d.LogFormat)
}

// ApplyEnv overlays environment variables onto cfg. Set variables win over
// file values; flags are applied after this by the caller.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMLflowURI)); v != "" {
		cfg.Tracking.MLflowURI = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvModelsDir)); v != "" {
		cfg.ModelsDir = v
	}
}

// Resolve loads path (when non-empty), overlays the environment and fills
// defaults.
func Resolve(path string) (Config, error) {
	var cfg Config
	if path != "" {
		c, err := Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	return cfg, nil
}

func setString(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst <= 0 {
		*dst = def
	}
}
