package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ashkaaar/griptape/internal/config"
	"github.com/ashkaaar/griptape/internal/log"
	"github.com/ashkaaar/griptape/internal/tokenizer"
	openai "github.com/sashabaranov/go-openai"
)

// LegacyModelSuffix marks first-generation models that embed newlines poorly.
const LegacyModelSuffix = "001"

// EmbeddingsClient abstracts the OpenAI client for testing.
type EmbeddingsClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIDriver implements Driver using the OpenAI (or Azure OpenAI)
// embeddings API. Its configuration is fixed at construction.
type OpenAIDriver struct {
	client    EmbeddingsClient
	cfg       config.EmbeddingConfig
	tokenizer tokenizer.Tokenizer
}

// NewOpenAIDriver creates an embedding driver with its own OpenAI client
// built from cfg.
func NewOpenAIDriver(cfg config.EmbeddingConfig) (*OpenAIDriver, error) {
	cfg = withDefaults(cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return newOpenAIDriver(openai.NewClientWithConfig(ClientConfig(cfg)), cfg)
}

// NewOpenAIDriverWithClient creates a driver around a custom client.
func NewOpenAIDriverWithClient(client EmbeddingsClient, cfg config.EmbeddingConfig) (*OpenAIDriver, error) {
	if client == nil {
		return nil, errors.New("embeddings client is required")
	}
	cfg = withDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid embedding config: %w", err)
	}
	return newOpenAIDriver(client, cfg)
}

func newOpenAIDriver(client EmbeddingsClient, cfg config.EmbeddingConfig) (*OpenAIDriver, error) {
	tok, err := tokenizer.New(cfg.Model, 0)
	if err != nil {
		return nil, fmt.Errorf("create tokenizer: %w", err)
	}
	return &OpenAIDriver{
		client:    client,
		cfg:       cfg,
		tokenizer: tok,
	}, nil
}

func withDefaults(cfg config.EmbeddingConfig) config.EmbeddingConfig {
	if cfg.Model == "" {
		cfg.Model = config.DefaultEmbeddingModel
	}
	if cfg.Dimensions <= 0 {
		if dims, ok := config.EmbeddingModels[cfg.Model]; ok {
			cfg.Dimensions = dims
		} else {
			cfg.Dimensions = config.DefaultEmbeddingDimensions
		}
	}
	if cfg.APIType == "" {
		cfg.APIType = config.APITypeOpenAI
	}
	cfg.APIType = strings.ToLower(cfg.APIType)
	return cfg
}

func validateConfig(cfg config.EmbeddingConfig) error {
	if cfg.APIKey == "" {
		return errors.New("OpenAI API key is required")
	}
	if cfg.APIType != config.APITypeOpenAI && cfg.APIBase == "" {
		return fmt.Errorf("api base is required for api type %s", cfg.APIType)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid embedding config: %w", err)
	}
	return nil
}

// ClientConfig translates cfg into a go-openai client configuration.
func ClientConfig(cfg config.EmbeddingConfig) openai.ClientConfig {
	var cc openai.ClientConfig

	switch cfg.APIType {
	case config.APITypeAzure, config.APITypeAzureAD:
		cc = openai.DefaultAzureConfig(cfg.APIKey, cfg.APIBase)
		if cfg.APIType == config.APITypeAzureAD {
			cc.APIType = openai.APITypeAzureAD
		}
		if cfg.APIVersion != "" {
			cc.APIVersion = cfg.APIVersion
		}
	default:
		cc = openai.DefaultConfig(cfg.APIKey)
		if cfg.APIBase != "" {
			cc.BaseURL = strings.TrimRight(cfg.APIBase, "/")
		}
		if cfg.APIVersion != "" {
			cc.APIVersion = cfg.APIVersion
		}
	}

	cc.OrgID = cfg.Organization
	return cc
}

// IsLegacyModel reports whether model carries the legacy "001" suffix.
func IsLegacyModel(model string) bool {
	return strings.HasSuffix(model, LegacyModelSuffix)
}

// PrepareChunk applies model-specific input fixes. Legacy models get
// newlines replaced with spaces.
func PrepareChunk(model, chunk string) string {
	if IsLegacyModel(model) {
		return strings.ReplaceAll(chunk, "\n", " ")
	}
	return chunk
}

// Model returns the embedding model.
func (d *OpenAIDriver) Model() string {
	return d.cfg.Model
}

// Dimensions returns the configured vector size.
func (d *OpenAIDriver) Dimensions() int {
	return d.cfg.Dimensions
}

// EmbedChunk generates an embedding for a single chunk.
func (d *OpenAIDriver) EmbedChunk(ctx context.Context, chunk string) ([]float32, error) {
	log.Debugf("embedding chunk: model=%s chars=%d", d.cfg.Model, utf8.RuneCountInString(chunk))

	resp, err := d.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{PrepareChunk(d.cfg.Model, chunk)},
		Model: openai.EmbeddingModel(d.cfg.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// EmbedString embeds text, splitting it into token-bounded chunks when it
// exceeds the model's budget. Chunk vectors are averaged, weighted by chunk
// length, and normalized to unit length.
func (d *OpenAIDriver) EmbedString(ctx context.Context, text string) ([]float32, error) {
	if d.tokenizer.CountTokens(text) <= d.tokenizer.MaxTokens() {
		return d.EmbedChunk(ctx, text)
	}

	chunks := d.tokenizer.Chunk(text, 0)
	vectors := make([][]float32, 0, len(chunks))
	weights := make([]float64, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := d.EmbedChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
		weights = append(weights, float64(utf8.RuneCountInString(chunk)))
	}

	return WeightedAverage(vectors, weights)
}

// WeightedAverage averages vectors by weight and normalizes the result.
func WeightedAverage(vectors [][]float32, weights []float64) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, errors.New("no vectors to average")
	}
	if len(vectors) != len(weights) {
		return nil, fmt.Errorf("got %d vectors and %d weights", len(vectors), len(weights))
	}

	dims := len(vectors[0])
	sum := make([]float64, dims)
	var total float64
	for i, vec := range vectors {
		if len(vec) != dims {
			return nil, fmt.Errorf("vector %d has %d dimensions, expected %d", i, len(vec), dims)
		}
		for j, v := range vec {
			sum[j] += float64(v) * weights[i]
		}
		total += weights[i]
	}
	if total == 0 {
		return nil, errors.New("weights sum to zero")
	}

	var norm float64
	for j := range sum {
		sum[j] /= total
		norm += sum[j] * sum[j]
	}
	norm = math.Sqrt(norm)

	out := make([]float32, dims)
	for j, v := range sum {
		if norm > 0 {
			v /= norm
		}
		out[j] = float32(v)
	}
	return out, nil
}
