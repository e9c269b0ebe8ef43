// Package config handles application configuration management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppName names the config, data and log directories.
const AppName = "griptape"

// Config holds all application configuration.
type Config struct {
	// Base directory for persisted data (vectors, logs). Defaults to
	// $XDG_DATA_HOME/griptape, overridable with GRIPTAPE_HOME.
	BaseDir string `mapstructure:"base_dir"`

	// Embedding driver settings
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Prompt driver settings. Each driver validates its own section when
	// constructed, so only the configured driver needs credentials.
	Prompt PromptConfig `mapstructure:"prompt" validate:"-"`

	// PII redaction around hosted inference calls
	PII PIIConfig `mapstructure:"pii"`

	// Local vector store settings
	Vector VectorConfig `mapstructure:"vector"`

	// Telemetry is opt-in (GRIPTAPE_TELEMETRY_ENABLED=true)
	TelemetryEnabled bool `mapstructure:"telemetry_enabled"`

	// Debug enables debug logging
	Debug bool `mapstructure:"debug"`
}

// EmbeddingConfig holds the OpenAI embedding driver configuration. The value
// is copied into the driver; there is no process-wide client state.
type EmbeddingConfig struct {
	Model        string `mapstructure:"model"         validate:"required"`
	Dimensions   int    `mapstructure:"dimensions"    validate:"gt=0"`
	APIType      string `mapstructure:"api_type"      validate:"oneof=open_ai azure azure_ad"`
	APIVersion   string `mapstructure:"api_version"`
	APIBase      string `mapstructure:"api_base"      validate:"omitempty,url"`
	APIKey       string `mapstructure:"api_key"`
	Organization string `mapstructure:"organization"`
}

// PromptConfig selects and configures prompt drivers.
type PromptConfig struct {
	// Driver: "huggingface", "openai", "anthropic" (auto-detected if empty)
	Driver string `mapstructure:"driver" validate:"omitempty,oneof=huggingface openai anthropic"`

	HuggingFace HuggingFaceConfig `mapstructure:"huggingface"`
	OpenAI      OpenAIChatConfig  `mapstructure:"openai"`
	Anthropic   AnthropicConfig   `mapstructure:"anthropic"`

	MaxTokens   int     `mapstructure:"max_tokens"  validate:"gte=0"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// HuggingFaceConfig configures the Hugging Face Hub hosted inference driver.
type HuggingFaceConfig struct {
	APIToken string `mapstructure:"api_token" validate:"required"`
	Model    string `mapstructure:"model"     validate:"required"`
	UseGPU   bool   `mapstructure:"use_gpu"`

	// Task pins the pipeline task; looked up from the Hub when empty.
	Task string `mapstructure:"task"`

	// Params are extra generation parameters merged over the defaults.
	Params map[string]any `mapstructure:"params"`

	// SupportedTasks overrides the task allow-list.
	SupportedTasks []string `mapstructure:"supported_tasks"`

	// Stream must stay false: the hosted API has no incremental output.
	Stream bool `mapstructure:"stream"`
}

// OpenAIChatConfig configures the OpenAI chat prompt driver.
type OpenAIChatConfig struct {
	APIKey       string `mapstructure:"api_key"      validate:"required"`
	Model        string `mapstructure:"model"`
	BaseURL      string `mapstructure:"base_url"     validate:"omitempty,url"`
	Organization string `mapstructure:"organization"`
}

// AnthropicConfig configures the Anthropic prompt driver.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key" validate:"required"`
	Model  string `mapstructure:"model"`
}

// PIIConfig configures Amazon Comprehend PII redaction.
type PIIConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Region       string  `mapstructure:"region"        validate:"required_if=Enabled true"`
	LanguageCode string  `mapstructure:"language_code"`
	MinScore     float32 `mapstructure:"min_score"     validate:"gte=0,lte=1"`
}

// VectorConfig holds local vector store configuration.
type VectorConfig struct {
	// DataDir for chromem-go persistence (default: <BaseDir>/vectors)
	DataDir string `mapstructure:"data_dir"`
	// Collection name (default: "griptape")
	Collection string `mapstructure:"collection"`
	// MinSimilarity threshold for queries
	MinSimilarity float32 `mapstructure:"min_similarity" validate:"gte=-1,lte=1"`
}

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string][]string{
	"base_dir":                     {"GRIPTAPE_HOME"},
	"debug":                        {"GRIPTAPE_DEBUG"},
	"telemetry_enabled":            {"GRIPTAPE_TELEMETRY_ENABLED"},
	"embedding.model":              {"GRIPTAPE_EMBEDDING_MODEL"},
	"embedding.dimensions":         {"GRIPTAPE_EMBEDDING_DIMENSIONS"},
	"embedding.api_type":           {"OPENAI_API_TYPE"},
	"embedding.api_version":        {"OPENAI_API_VERSION"},
	"embedding.api_base":           {"OPENAI_API_BASE"},
	"embedding.api_key":            {"OPENAI_API_KEY"},
	"embedding.organization":       {"OPENAI_ORGANIZATION"},
	"prompt.driver":                {"GRIPTAPE_PROMPT_DRIVER"},
	"prompt.max_tokens":            {"GRIPTAPE_MAX_TOKENS"},
	"prompt.huggingface.api_token": {"HUGGINGFACE_HUB_ACCESS_TOKEN", "HF_TOKEN"},
	"prompt.huggingface.model":     {"GRIPTAPE_HF_MODEL"},
	"prompt.huggingface.use_gpu":   {"GRIPTAPE_HF_USE_GPU"},
	"prompt.huggingface.task":      {"GRIPTAPE_HF_TASK"},
	"prompt.openai.api_key":        {"OPENAI_API_KEY"},
	"prompt.openai.model":          {"GRIPTAPE_OPENAI_MODEL"},
	"prompt.openai.base_url":       {"OPENAI_BASE_URL"},
	"prompt.openai.organization":   {"OPENAI_ORGANIZATION"},
	"prompt.anthropic.api_key":     {"ANTHROPIC_API_KEY"},
	"prompt.anthropic.model":       {"GRIPTAPE_ANTHROPIC_MODEL"},
	"pii.enabled":                  {"GRIPTAPE_PII_ENABLED"},
	"pii.region":                   {"AWS_REGION", "AWS_DEFAULT_REGION"},
	"pii.language_code":            {"GRIPTAPE_PII_LANGUAGE"},
	"vector.data_dir":              {"GRIPTAPE_VECTOR_DIR"},
	"vector.collection":            {"GRIPTAPE_VECTOR_COLLECTION"},
}

// Load reads configuration from the environment, a .env file and an
// optional config.yaml in the XDG config directory or the working directory.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// the default locations and tolerates a missing file.
func LoadFile(path string) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("config")
		vip.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))
		vip.AddConfigPath(".")
	}
	vip.SetConfigType("yaml")

	setDefaults(vip)

	for key, envs := range envBindings {
		if err := vip.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Embedding.APIType = strings.ToLower(cfg.Embedding.APIType)
	cfg.Prompt.Driver = strings.ToLower(cfg.Prompt.Driver)
	if cfg.Vector.DataDir == "" {
		cfg.Vector.DataDir = filepath.Join(cfg.BaseDir, "vectors")
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := ValidatePartial(cfg.Prompt, "Driver", "MaxTokens", "Temperature"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := ensureDirectories(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks a config struct against its validate tags. Nested structs
// tagged `validate:"-"` are skipped.
func Validate(v any) error {
	return validate.Struct(v)
}

// ValidatePartial checks only the named top-level fields of a config struct.
func ValidatePartial(v any, fields ...string) error {
	return validate.StructPartial(v, fields...)
}

// ensureDirectories creates required directories if they don't exist.
func ensureDirectories(cfg *Config) error {
	dirs := []string{
		cfg.BaseDir,
		LogDir(cfg),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
