package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	// Model artifacts
	ModelsDir     string            `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	ModelID       string            `json:"model_id" yaml:"model_id" toml:"model_id"`
	ArtifactRepo  string            `json:"artifact_repo" yaml:"artifact_repo" toml:"artifact_repo"`
	Artifacts     map[string]string `json:"artifacts" yaml:"artifacts" toml:"artifacts"`
	AllowDownload *bool             `json:"allow_download" yaml:"allow_download" toml:"allow_download"`
	HubURL        string            `json:"hub_url" yaml:"hub_url" toml:"hub_url"`

	// Placement
	Device            string `json:"device" yaml:"device" toml:"device"`
	ContextSize       int    `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads           int    `json:"threads" yaml:"threads" toml:"threads"`
	GPULayers         int    `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	FallbackGPULayers int    `json:"fallback_gpu_layers" yaml:"fallback_gpu_layers" toml:"fallback_gpu_layers"`

	// Generation
	MaxLength      int     `json:"max_length" yaml:"max_length" toml:"max_length"`
	MaxNewTokens   int     `json:"max_new_tokens" yaml:"max_new_tokens" toml:"max_new_tokens"`
	Temperature    float32 `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP           float32 `json:"top_p" yaml:"top_p" toml:"top_p"`
	PromptTemplate string  `json:"prompt_template" yaml:"prompt_template" toml:"prompt_template"`
	AnswerMarker   string  `json:"answer_marker" yaml:"answer_marker" toml:"answer_marker"`
	MockDelayMS    int     `json:"mock_delay_ms" yaml:"mock_delay_ms" toml:"mock_delay_ms"`

	// Admission
	MaxQueueDepth       int `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitSeconds      int `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds"`
	DrainTimeoutSeconds int `json:"drain_timeout_seconds" yaml:"drain_timeout_seconds" toml:"drain_timeout_seconds"`

	// Overload queue; empty path disables it.
	QueueDBPath             string `json:"queue_db_path" yaml:"queue_db_path" toml:"queue_db_path"`
	QueueVisibilitySeconds  int    `json:"queue_visibility_seconds" yaml:"queue_visibility_seconds" toml:"queue_visibility_seconds"`
	QueueMaxAttempts        int    `json:"queue_max_attempts" yaml:"queue_max_attempts" toml:"queue_max_attempts"`
	QueuePollIntervalMillis int    `json:"queue_poll_interval_ms" yaml:"queue_poll_interval_ms" toml:"queue_poll_interval_ms"`

	Tracking Tracking `json:"tracking" yaml:"tracking" toml:"tracking"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	APIKeys     []string `json:"api_keys" yaml:"api_keys" toml:"api_keys"`
}

// Tracking selects where expansion records go. MLflowURI wins over
// SQLitePath when both are set.
type Tracking struct {
	SQLitePath  string `json:"sqlite_path" yaml:"sqlite_path" toml:"sqlite_path"`
	MLflowURI   string `json:"mlflow_uri" yaml:"mlflow_uri" toml:"mlflow_uri"`
	Experiment  string `json:"experiment" yaml:"experiment" toml:"experiment"`
	Environment string `json:"environment" yaml:"environment" toml:"environment"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
