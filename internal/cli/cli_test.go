package cli

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashkaaar/griptape/internal/artifact"
	"github.com/ashkaaar/griptape/internal/config"
	"github.com/ashkaaar/griptape/internal/embedding"
	"github.com/ashkaaar/griptape/internal/llm"
	"github.com/ashkaaar/griptape/internal/log"
	"github.com/ashkaaar/griptape/internal/pii"
	"github.com/ashkaaar/griptape/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePromptDriver echoes the flattened stack.
type fakePromptDriver struct {
	lastStack *prompt.Stack
	err       error
}

func (d *fakePromptDriver) Run(ctx context.Context, stack *prompt.Stack) (*artifact.Text, error) {
	d.lastStack = stack
	if d.err != nil {
		return nil, d.err
	}
	return artifact.NewText("echo: " + stack.Inputs()[stack.Len()-1].Content), nil
}

func (d *fakePromptDriver) Stream(ctx context.Context, stack *prompt.Stack) (*llm.StreamReader, error) {
	d.lastStack = stack
	reader := llm.NewStreamReader()
	go func() {
		defer reader.Close()
		for _, part := range []string{"one ", "two"} {
			reader.Send(ctx, llm.StreamChunk{Text: part})
		}
		reader.Send(ctx, llm.StreamChunk{Done: true})
	}()
	return reader, nil
}

func (d *fakePromptDriver) Name() string  { return "fake" }
func (d *fakePromptDriver) Model() string { return "fake-model" }

// fakeEmbeddingDriver embeds by word length histogram.
type fakeEmbeddingDriver struct{}

func (fakeEmbeddingDriver) EmbedChunk(ctx context.Context, chunk string) ([]float32, error) {
	vec := make([]float32, 8)
	vec[7] = 1
	for _, w := range strings.Fields(chunk) {
		vec[len(w)%7]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func (d fakeEmbeddingDriver) EmbedString(ctx context.Context, text string) ([]float32, error) {
	return d.EmbedChunk(ctx, text)
}

func (fakeEmbeddingDriver) Dimensions() int { return 8 }
func (fakeEmbeddingDriver) Model() string   { return "fake-embedding" }

// setupCLI isolates config, stubs the drivers and resets flag state.
func setupCLI(t *testing.T) (*fakePromptDriver, string) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("GRIPTAPE_HOME", home)

	cfgPath := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("debug: false\n"), 0644))

	driver := &fakePromptDriver{}

	origEmbedding, origPrompt, origPII := newEmbeddingDriver, newPromptDriver, newPIIProcessor
	newEmbeddingDriver = func(cfg config.EmbeddingConfig) (embedding.Driver, error) {
		return fakeEmbeddingDriver{}, nil
	}
	newPromptDriver = func(ctx context.Context, cfg config.PromptConfig, p pii.Processor, override string) (llm.PromptDriver, error) {
		return driver, nil
	}
	newPIIProcessor = func(ctx context.Context, cfg config.PIIConfig) (pii.Processor, error) {
		return pii.Noop{}, nil
	}

	t.Cleanup(func() {
		newEmbeddingDriver, newPromptDriver, newPIIProcessor = origEmbedding, origPrompt, origPII
		_ = log.Close()
		log.SetDefault(nil)
	})

	configFile, debugFlag = "", false
	promptDriver, promptSystem, promptStream = "", "", false
	embedSummary, indexID = false, ""
	searchLimit, searchMinScore = 10, 0
	versionFull = false

	return driver, cfgPath
}

func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Structure(t *testing.T) {
	assert.Equal(t, "griptape", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"embed", "prompt", "index", "search", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestPromptCmd_Run(t *testing.T) {
	driver, cfgPath := setupCLI(t)

	out, err := executeCommand(t, "", "--config", cfgPath, "prompt", "--system", "Be brief.", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello world\n", out)

	require.NotNil(t, driver.lastStack)
	inputs := driver.lastStack.Inputs()
	require.Len(t, inputs, 2)
	assert.True(t, inputs[0].IsSystem())
	assert.Equal(t, "Be brief.", inputs[0].Content)
}

func TestPromptCmd_Stdin(t *testing.T) {
	driver, cfgPath := setupCLI(t)

	_, err := executeCommand(t, "  from stdin\nsecond line\n", "--config", cfgPath, "prompt")
	require.NoError(t, err)

	require.NotNil(t, driver.lastStack)
	inputs := driver.lastStack.Inputs()
	assert.Equal(t, "  from stdin\nsecond line\n", inputs[len(inputs)-1].Content)
}

func TestPromptCmd_PIIProcessorOnlyForHuggingFace(t *testing.T) {
	_, cfgPath := setupCLI(t)

	var calls int
	var got pii.Processor
	newPIIProcessor = func(ctx context.Context, cfg config.PIIConfig) (pii.Processor, error) {
		calls++
		return pii.Noop{}, nil
	}
	newPromptDriver = func(ctx context.Context, cfg config.PromptConfig, p pii.Processor, override string) (llm.PromptDriver, error) {
		got = p
		return &fakePromptDriver{}, nil
	}

	for _, name := range []string{"openai", "anthropic"} {
		_, err := executeCommand(t, "", "--config", cfgPath, "prompt", "--driver", name, "hi")
		require.NoError(t, err)
		promptDriver = ""
	}
	assert.Equal(t, 0, calls)
	assert.Equal(t, pii.Noop{}, got)

	_, err := executeCommand(t, "", "--config", cfgPath, "prompt", "--driver", "huggingface", "hi")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPromptCmd_PIIProcessorError(t *testing.T) {
	_, cfgPath := setupCLI(t)

	newPIIProcessor = func(ctx context.Context, cfg config.PIIConfig) (pii.Processor, error) {
		return nil, errors.New("load aws config: no region")
	}

	_, err := executeCommand(t, "", "--config", cfgPath, "prompt", "--driver", "openai", "hi")
	require.NoError(t, err)

	promptDriver = ""
	_, err = executeCommand(t, "", "--config", cfgPath, "prompt", "--driver", "huggingface", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load aws config")
}

func TestPromptCmd_Stream(t *testing.T) {
	_, cfgPath := setupCLI(t)

	out, err := executeCommand(t, "", "--config", cfgPath, "prompt", "--stream", "hi")
	require.NoError(t, err)
	assert.Equal(t, "one two\n", out)
}

func TestPromptCmd_DriverError(t *testing.T) {
	driver, cfgPath := setupCLI(t)
	driver.err = llm.ErrMultipleChoices

	_, err := executeCommand(t, "", "--config", cfgPath, "prompt", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrMultipleChoices)
}

func TestEmbedCmd(t *testing.T) {
	_, cfgPath := setupCLI(t)

	out, err := executeCommand(t, "", "--config", cfgPath, "embed", "a bb ccc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "["))
	assert.Equal(t, 8, strings.Count(out, ",")+1)

	out, err = executeCommand(t, "", "--config", cfgPath, "embed", "--summary", "a bb ccc")
	require.NoError(t, err)
	assert.Contains(t, out, "Model: fake-embedding")
	assert.Contains(t, out, "Dimensions: 8")
}

func TestIndexAndSearch(t *testing.T) {
	_, cfgPath := setupCLI(t)

	dir := t.TempDir()
	short := filepath.Join(dir, "short.txt")
	long := filepath.Join(dir, "long.txt")
	require.NoError(t, os.WriteFile(short, []byte("a b c d e"), 0644))
	require.NoError(t, os.WriteFile(long, []byte("abcdef ghijkl mnopqr"), 0644))

	out, err := executeCommand(t, "", "--config", cfgPath, "index", short, long)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed "+short)
	assert.Contains(t, out, "2 documents in store")

	out, err = executeCommand(t, "", "--config", cfgPath, "search", "-n", "1", "x y z")
	require.NoError(t, err)
	assert.Contains(t, out, short)
	assert.NotContains(t, out, long)
}

func TestIndexCmd_IDWithMultipleFiles(t *testing.T) {
	_, cfgPath := setupCLI(t)

	_, err := executeCommand(t, "", "--config", cfgPath, "index", "--id", "doc", "a.txt", "b.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--id")
}

func TestVersionCmd(t *testing.T) {
	setupCLI(t)

	out, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "griptape "))
}

func TestReadInput(t *testing.T) {
	text, err := readInput([]string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a b", text)

	text, err = readInput([]string{"-"}, strings.NewReader("piped\n"))
	require.NoError(t, err)
	assert.Equal(t, "piped\n", text)

	text, err = readInput(nil, strings.NewReader("  line one\n\nline two\n"))
	require.NoError(t, err)
	assert.Equal(t, "  line one\n\nline two\n", text)

	_, err = readInput(nil, strings.NewReader("   "))
	assert.Error(t, err)

	_, err = readInput(nil, nil)
	assert.Error(t, err)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.New("OpenAI API key is required"), "auth_error"},
		{errors.New("huggingface api error (status 401): bad token"), "auth_error"},
		{errors.New("config validation failed"), "config_error"},
		{llm.ErrUnsupportedTask, "driver_error"},
		{errors.New("connection refused"), "network_error"},
		{errors.New("open x: no such file or directory"), "not_found_error"},
		{errors.New("invalid OpenAI model: x"), "validation_error"},
		{errors.New("boom"), "unknown_error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyError(tt.err), tt.err.Error())
	}
}

func TestDefaultPIIProcessor_Disabled(t *testing.T) {
	p, err := defaultPIIProcessor(context.Background(), config.PIIConfig{})
	require.NoError(t, err)
	assert.IsType(t, pii.Noop{}, p)
}
