package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	DefaultEmbeddingModel      = "text-embedding-ada-002"
	DefaultEmbeddingDimensions = 1536
	DefaultAzureAPIVersion     = "2023-05-15"
	DefaultPIILanguage         = "en"
	DefaultPIIMinScore         = 0.5
	DefaultVectorCollection    = "griptape"
)

// Embedding API types.
const (
	APITypeOpenAI  = "open_ai"
	APITypeAzure   = "azure"
	APITypeAzureAD = "azure_ad"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseDir:   DefaultBaseDir(),
		Embedding: DefaultEmbeddingConfig(),
		PII: PIIConfig{
			LanguageCode: DefaultPIILanguage,
			MinScore:     DefaultPIIMinScore,
		},
		Vector: VectorConfig{
			Collection: DefaultVectorCollection,
		},
	}
}

// DefaultEmbeddingConfig returns the embedding defaults.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Model:      DefaultEmbeddingModel,
		Dimensions: DefaultEmbeddingDimensions,
		APIType:    APITypeOpenAI,
	}
}

// EmbeddingModels defines known embedding models and their dimensions.
var EmbeddingModels = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

func setDefaults(vip *viper.Viper) {
	d := DefaultConfig()
	vip.SetDefault("base_dir", d.BaseDir)
	vip.SetDefault("embedding.model", d.Embedding.Model)
	vip.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	vip.SetDefault("embedding.api_type", d.Embedding.APIType)
	vip.SetDefault("pii.language_code", d.PII.LanguageCode)
	vip.SetDefault("pii.min_score", d.PII.MinScore)
	vip.SetDefault("vector.collection", d.Vector.Collection)
}

// DefaultBaseDir returns the default data directory ($XDG_DATA_HOME/griptape).
func DefaultBaseDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// LogDir returns the log directory for cfg.
func LogDir(cfg *Config) string {
	return filepath.Join(cfg.BaseDir, "logs")
}
