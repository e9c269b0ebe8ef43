package embedding

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashkaaar/griptape/internal/config"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmbeddingsClient records requests and returns a canned vector.
type mockEmbeddingsClient struct {
	requests []openai.EmbeddingRequest
	vector   []float32
	empty    bool
	err      error
}

func (m *mockEmbeddingsClient) CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	req := conv.Convert()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return openai.EmbeddingResponse{}, m.err
	}
	if m.empty {
		return openai.EmbeddingResponse{}, nil
	}
	vec := m.vector
	if vec == nil {
		vec = []float32{0.1, 0.2, 0.3}
	}
	return openai.EmbeddingResponse{
		Data: []openai.Embedding{{Embedding: vec}},
	}, nil
}

func (m *mockEmbeddingsClient) inputs(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, r := range m.requests {
		in, ok := r.Input.([]string)
		require.True(t, ok)
		out = append(out, in...)
	}
	return out
}

func TestNewOpenAIDriver_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIDriver(config.EmbeddingConfig{})
	require.Error(t, err)
	assert.Equal(t, "OpenAI API key is required", err.Error())
}

func TestNewOpenAIDriver_Defaults(t *testing.T) {
	d, err := NewOpenAIDriver(config.EmbeddingConfig{APIKey: "sk-test"})
	require.NoError(t, err)

	assert.Equal(t, config.DefaultEmbeddingModel, d.Model())
	assert.Equal(t, config.DefaultEmbeddingDimensions, d.Dimensions())
}

func TestNewOpenAIDriver_DimensionsFromModel(t *testing.T) {
	d, err := NewOpenAIDriver(config.EmbeddingConfig{APIKey: "sk-test", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, d.Dimensions())
}

func TestNewOpenAIDriver_AzureNeedsBase(t *testing.T) {
	_, err := NewOpenAIDriver(config.EmbeddingConfig{APIKey: "sk-test", APIType: "azure"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api base is required")
}

func TestNewOpenAIDriver_AzureFromEnvNeedsBase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRIPTAPE_HOME", dir)
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("OPENAI_API_TYPE", "azure")
	t.Setenv("OPENAI_API_BASE", "")

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedding:\n  model: text-embedding-ada-002\n"), 0o644))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Embedding.APIBase)

	_, err = NewOpenAIDriver(cfg.Embedding)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api base is required")
}

func TestNewOpenAIDriver_InvalidAPIType(t *testing.T) {
	_, err := NewOpenAIDriver(config.EmbeddingConfig{APIKey: "sk-test", APIType: "bogus", APIBase: "https://x.example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid embedding config")
}

func TestClientConfig(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		cc := ClientConfig(config.EmbeddingConfig{
			APIKey:       "sk-test",
			APIType:      config.APITypeOpenAI,
			APIBase:      "https://proxy.example.com/v1/",
			Organization: "org-1",
		})
		assert.Equal(t, openai.APITypeOpenAI, cc.APIType)
		assert.Equal(t, "https://proxy.example.com/v1", cc.BaseURL)
		assert.Equal(t, "org-1", cc.OrgID)
	})

	t.Run("azure", func(t *testing.T) {
		cc := ClientConfig(config.EmbeddingConfig{
			APIKey:     "key",
			APIType:    config.APITypeAzure,
			APIBase:    "https://res.openai.azure.com",
			APIVersion: "2024-02-01",
		})
		assert.Equal(t, openai.APITypeAzure, cc.APIType)
		assert.Equal(t, "2024-02-01", cc.APIVersion)
		assert.Equal(t, "https://res.openai.azure.com", cc.BaseURL)
	})

	t.Run("azure_ad", func(t *testing.T) {
		cc := ClientConfig(config.EmbeddingConfig{
			APIKey:  "token",
			APIType: config.APITypeAzureAD,
			APIBase: "https://res.openai.azure.com",
		})
		assert.Equal(t, openai.APITypeAzureAD, cc.APIType)
	})
}

func TestClientConfig_IsPerDriver(t *testing.T) {
	a := ClientConfig(config.EmbeddingConfig{APIKey: "a", APIType: config.APITypeOpenAI, Organization: "org-a"})
	b := ClientConfig(config.EmbeddingConfig{APIKey: "b", APIType: config.APITypeOpenAI, Organization: "org-b"})

	assert.Equal(t, "org-a", a.OrgID)
	assert.Equal(t, "org-b", b.OrgID)
}

func TestEmbedChunk_LegacyModelReplacesNewlines(t *testing.T) {
	chunks := []string{
		"line one\nline two",
		"\n\nleading",
		"no newline",
		"trailing\n",
		"",
	}

	for _, chunk := range chunks {
		client := &mockEmbeddingsClient{}
		d, err := NewOpenAIDriverWithClient(client, config.EmbeddingConfig{Model: "text-similarity-ada-001"})
		require.NoError(t, err)

		_, err = d.EmbedChunk(context.Background(), chunk)
		require.NoError(t, err)

		submitted := client.inputs(t)
		require.Len(t, submitted, 1)
		assert.NotContains(t, submitted[0], "\n")
		assert.Equal(t, strings.ReplaceAll(chunk, "\n", " "), submitted[0])
		assert.Equal(t, openai.EmbeddingModel("text-similarity-ada-001"), client.requests[0].Model)
	}
}

func TestEmbedChunk_ModernModelUnchanged(t *testing.T) {
	for _, model := range []string{"text-embedding-ada-002", "text-embedding-3-small"} {
		client := &mockEmbeddingsClient{}
		d, err := NewOpenAIDriverWithClient(client, config.EmbeddingConfig{Model: model})
		require.NoError(t, err)

		_, err = d.EmbedChunk(context.Background(), "line one\nline two")
		require.NoError(t, err)
		assert.Equal(t, []string{"line one\nline two"}, client.inputs(t))
	}
}

func TestEmbedChunk_ReturnsVector(t *testing.T) {
	client := &mockEmbeddingsClient{vector: []float32{1, 2, 3}}
	d, err := NewOpenAIDriverWithClient(client, config.EmbeddingConfig{})
	require.NoError(t, err)

	vec, err := d.EmbedChunk(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestEmbedChunk_ErrorPropagates(t *testing.T) {
	apiErr := &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}
	client := &mockEmbeddingsClient{err: apiErr}
	d, err := NewOpenAIDriverWithClient(client, config.EmbeddingConfig{})
	require.NoError(t, err)

	_, err = d.EmbedChunk(context.Background(), "hello")
	require.Error(t, err)

	var got *openai.APIError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 401, got.HTTPStatusCode)
	assert.Len(t, client.requests, 1, "no retry")
}

func TestEmbedChunk_NoData(t *testing.T) {
	d, err := NewOpenAIDriverWithClient(&mockEmbeddingsClient{empty: true}, config.EmbeddingConfig{})
	require.NoError(t, err)

	_, err = d.EmbedChunk(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding data")
}

func TestEmbedString_ShortTextSingleCall(t *testing.T) {
	client := &mockEmbeddingsClient{}
	d, err := NewOpenAIDriverWithClient(client, config.EmbeddingConfig{})
	require.NoError(t, err)

	_, err = d.EmbedString(context.Background(), "short")
	require.NoError(t, err)
	assert.Len(t, client.requests, 1)
}

func TestEmbedString_LongTextChunks(t *testing.T) {
	client := &mockEmbeddingsClient{vector: []float32{3, 4}}
	d, err := NewOpenAIDriverWithClient(client, config.EmbeddingConfig{Model: "text-similarity-ada-001"})
	require.NoError(t, err)

	// Each " word" is one token; 5000 of them exceed the 2046 budget.
	text := strings.Repeat("word ", 5000)

	vec, err := d.EmbedString(context.Background(), text)
	require.NoError(t, err)
	assert.Greater(t, len(client.requests), 1)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
}

func TestEmbedString_ChunksKeepNewlines(t *testing.T) {
	client := &mockEmbeddingsClient{}
	d, err := NewOpenAIDriverWithClient(client, config.EmbeddingConfig{Model: "text-embedding-ada-002"})
	require.NoError(t, err)

	text := strings.Repeat("a line of prose\n\n", 3000)

	_, err = d.EmbedString(context.Background(), text)
	require.NoError(t, err)

	submitted := client.inputs(t)
	require.Greater(t, len(submitted), 1)
	assert.Contains(t, submitted[0], "\n")
	assert.Equal(t, text, strings.Join(submitted, ""))
}

func TestEmbedString_CJKStaysWithinBudget(t *testing.T) {
	client := &mockEmbeddingsClient{}
	d, err := NewOpenAIDriverWithClient(client, config.EmbeddingConfig{Model: "text-embedding-ada-002"})
	require.NoError(t, err)

	text := strings.Repeat("漢字を学ぶ。", 5000)

	_, err = d.EmbedString(context.Background(), text)
	require.NoError(t, err)

	submitted := client.inputs(t)
	require.Greater(t, len(submitted), 1)
	for _, in := range submitted {
		assert.LessOrEqual(t, d.tokenizer.CountTokens(in), d.tokenizer.MaxTokens())
	}
	assert.Equal(t, text, strings.Join(submitted, ""))
}

func TestWeightedAverage(t *testing.T) {
	vec, err := WeightedAverage([][]float32{{1, 0}, {0, 1}}, []float64{3, 1})
	require.NoError(t, err)

	norm := math.Sqrt(0.75*0.75 + 0.25*0.25)
	assert.InDelta(t, 0.75/norm, vec[0], 1e-6)
	assert.InDelta(t, 0.25/norm, vec[1], 1e-6)
}

func TestWeightedAverage_Errors(t *testing.T) {
	_, err := WeightedAverage(nil, nil)
	assert.Error(t, err)

	_, err = WeightedAverage([][]float32{{1}}, []float64{1, 2})
	assert.Error(t, err)

	_, err = WeightedAverage([][]float32{{1, 2}, {1}}, []float64{1, 1})
	assert.Error(t, err)

	_, err = WeightedAverage([][]float32{{1}}, []float64{0})
	assert.Error(t, err)
}

func TestIsLegacyModel(t *testing.T) {
	assert.True(t, IsLegacyModel("text-search-ada-doc-001"))
	assert.False(t, IsLegacyModel("text-embedding-ada-002"))
	assert.False(t, IsLegacyModel(""))
}
