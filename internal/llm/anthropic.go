package llm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/ashkaaar/griptape/internal/artifact"
	"github.com/ashkaaar/griptape/internal/config"
	"github.com/ashkaaar/griptape/internal/log"
	"github.com/ashkaaar/griptape/internal/prompt"
)

// AnthropicModels lists available Anthropic models.
var AnthropicModels = []string{
	"claude-3-haiku-20240307",
	"claude-3-5-sonnet-20241022",
	"claude-3-5-haiku-20241022",
	"claude-3-opus-20240229",
}

// DefaultAnthropicModel is the default model.
const DefaultAnthropicModel = "claude-3-haiku-20240307"

// AnthropicDefaultMaxTokens is used when ChatOptions.MaxTokens is unset.
const AnthropicDefaultMaxTokens = 4096

// AnthropicClientInterface defines the interface for Anthropic API client.
// This allows for mocking in tests.
type AnthropicClientInterface interface {
	CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
	CreateMessageStream(ctx context.Context, params anthropic.MessageNewParams) *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

// anthropicClientWrapper wraps the real Anthropic client to implement AnthropicClientInterface.
type anthropicClientWrapper struct {
	client anthropic.Client
}

func (w *anthropicClientWrapper) CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	return w.client.Messages.New(ctx, params)
}

func (w *anthropicClientWrapper) CreateMessageStream(ctx context.Context, params anthropic.MessageNewParams) *ssestream.Stream[anthropic.MessageStreamEventUnion] {
	return w.client.Messages.NewStreaming(ctx, params)
}

// AnthropicDriver implements PromptDriver using Anthropic's messages API.
type AnthropicDriver struct {
	client AnthropicClientInterface
	model  string
	opts   ChatOptions
}

// NewAnthropicDriver creates a driver from cfg.
func NewAnthropicDriver(cfg config.AnthropicConfig, opts ChatOptions) (*AnthropicDriver, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	if !slices.Contains(AnthropicModels, model) {
		return nil, fmt.Errorf("invalid Anthropic model: %s", model)
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))

	return NewAnthropicDriverWithClient(&anthropicClientWrapper{client: client}, model, opts), nil
}

// NewAnthropicDriverWithClient creates a driver with a custom client.
// This is useful for testing.
func NewAnthropicDriverWithClient(client AnthropicClientInterface, model string, opts ChatOptions) *AnthropicDriver {
	if model == "" {
		model = DefaultAnthropicModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = AnthropicDefaultMaxTokens
	}
	return &AnthropicDriver{
		client: client,
		model:  model,
		opts:   opts,
	}
}

// Name returns the driver name.
func (d *AnthropicDriver) Name() string {
	return DriverAnthropic
}

// Model returns the model.
func (d *AnthropicDriver) Model() string {
	return d.model
}

func (d *AnthropicDriver) params(stack *prompt.Stack) anthropic.MessageNewParams {
	messages, system := convertToAnthropicMessages(stack)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(d.model),
		MaxTokens: int64(d.opts.MaxTokens),
		Messages:  messages,
	}
	if d.opts.Temperature > 0 {
		params.Temperature = anthropic.Float(d.opts.Temperature)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}
	return params
}

// Run sends the stack and returns the concatenated text blocks.
func (d *AnthropicDriver) Run(ctx context.Context, stack *prompt.Stack) (*artifact.Text, error) {
	log.Debugf("anthropic run: model=%s inputs=%d", d.model, stack.Len())

	msg, err := d.client.CreateMessage(ctx, d.params(stack))
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	// Check the Type field directly so mock responses (without raw JSON)
	// work the same as real ones.
	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return artifact.NewText(content.String()), nil
}

// Stream sends the stack and returns a reader over text deltas.
func (d *AnthropicDriver) Stream(ctx context.Context, stack *prompt.Stack) (*StreamReader, error) {
	log.Debugf("anthropic stream: model=%s inputs=%d", d.model, stack.Len())

	stream := d.client.CreateMessageStream(ctx, d.params(stack))
	if stream == nil {
		return nil, errors.New("anthropic stream: no stream returned")
	}

	sr := NewStreamReader()

	go func() {
		defer sr.Close()

		for stream.Next() {
			event := stream.Current()

			switch eventVariant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch deltaVariant := eventVariant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if !sr.Send(ctx, StreamChunk{Text: deltaVariant.Text}) {
						return
					}
				}
			case anthropic.MessageStopEvent:
				sr.Send(ctx, StreamChunk{Done: true})
			}
		}

		if err := stream.Err(); err != nil {
			sr.Send(ctx, StreamChunk{Error: fmt.Errorf("anthropic stream: %w", err)})
		}
	}()

	return sr, nil
}

// convertToAnthropicMessages converts a stack to Anthropic messages.
// System turns are joined into the dedicated system parameter.
func convertToAnthropicMessages(stack *prompt.Stack) ([]anthropic.MessageParam, string) {
	var messages []anthropic.MessageParam
	var system []string

	for _, in := range stack.Inputs() {
		switch in.Role {
		case prompt.RoleSystem:
			system = append(system, in.Content)
		case prompt.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(in.Content),
			))
		case prompt.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(in.Content),
			))
		}
	}

	return messages, strings.Join(system, "\n\n")
}
