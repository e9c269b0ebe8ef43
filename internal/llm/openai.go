package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/ashkaaar/griptape/internal/artifact"
	"github.com/ashkaaar/griptape/internal/config"
	"github.com/ashkaaar/griptape/internal/log"
	"github.com/ashkaaar/griptape/internal/prompt"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAI model constants.
const (
	OpenAIModelGPT4oMini   = "gpt-4o-mini"
	OpenAIModelGPT4o       = "gpt-4o"
	OpenAIModelGPT4Turbo   = "gpt-4-turbo"
	OpenAIDefaultModel     = OpenAIModelGPT4oMini
	OpenAIDefaultMaxTokens = 4096
)

// openAIModels lists models accepted against the official endpoint.
var openAIModels = []string{
	OpenAIModelGPT4oMini,
	OpenAIModelGPT4o,
	OpenAIModelGPT4Turbo,
}

// OpenAIClientInterface abstracts the OpenAI client for testing.
type OpenAIClientInterface interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// OpenAIChatDriver implements PromptDriver with the chat completions API.
type OpenAIChatDriver struct {
	client OpenAIClientInterface
	model  string
	opts   ChatOptions
}

// NewOpenAIChatDriver creates a driver from cfg. Custom models are accepted
// only together with a custom BaseURL (OpenAI-compatible gateways).
func NewOpenAIChatDriver(cfg config.OpenAIChatConfig, opts ChatOptions) (*OpenAIChatDriver, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid openai config: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = OpenAIDefaultModel
	}
	if cfg.BaseURL == "" && !slices.Contains(openAIModels, model) {
		return nil, fmt.Errorf("invalid OpenAI model: %s (available: %v)", model, openAIModels)
	}

	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	cc.OrgID = cfg.Organization

	return NewOpenAIChatDriverWithClient(openai.NewClientWithConfig(cc), model, opts), nil
}

// NewOpenAIChatDriverWithClient creates a driver with a custom client.
func NewOpenAIChatDriverWithClient(client OpenAIClientInterface, model string, opts ChatOptions) *OpenAIChatDriver {
	if model == "" {
		model = OpenAIDefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = OpenAIDefaultMaxTokens
	}
	return &OpenAIChatDriver{
		client: client,
		model:  model,
		opts:   opts,
	}
}

// Name returns the driver name.
func (d *OpenAIChatDriver) Name() string {
	return DriverOpenAI
}

// Model returns the model.
func (d *OpenAIChatDriver) Model() string {
	return d.model
}

func (d *OpenAIChatDriver) request(stack *prompt.Stack, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       d.model,
		Messages:    convertToOpenAIMessages(stack),
		MaxTokens:   d.opts.MaxTokens,
		Temperature: float32(d.opts.Temperature),
		Stream:      stream,
	}
}

// Run sends the stack and returns the single completion.
func (d *OpenAIChatDriver) Run(ctx context.Context, stack *prompt.Stack) (*artifact.Text, error) {
	log.Debugf("openai run: model=%s inputs=%d", d.model, stack.Len())

	resp, err := d.client.CreateChatCompletion(ctx, d.request(stack, false))
	if err != nil {
		return nil, fmt.Errorf("create completion: %w", err)
	}

	if len(resp.Choices) != 1 {
		return nil, choiceError(DriverOpenAI, len(resp.Choices))
	}

	return artifact.NewText(resp.Choices[0].Message.Content), nil
}

// Stream sends the stack and returns a reader over content deltas.
func (d *OpenAIChatDriver) Stream(ctx context.Context, stack *prompt.Stack) (*StreamReader, error) {
	log.Debugf("openai stream: model=%s inputs=%d", d.model, stack.Len())

	stream, err := d.client.CreateChatCompletionStream(ctx, d.request(stack, true))
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	reader := NewStreamReader()

	go func() {
		defer reader.Close()
		defer func() {
			_ = stream.Close()
		}()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				reader.Send(ctx, StreamChunk{Done: true})
				return
			}
			if err != nil {
				reader.Send(ctx, StreamChunk{Error: err})
				return
			}

			if len(response.Choices) == 0 {
				continue
			}
			choice := response.Choices[0]
			if choice.Delta.Content != "" {
				if !reader.Send(ctx, StreamChunk{Text: choice.Delta.Content}) {
					return
				}
			}
			if choice.FinishReason != "" {
				reader.Send(ctx, StreamChunk{Done: true})
				return
			}
		}
	}()

	return reader, nil
}

// convertToOpenAIMessages converts a prompt stack to OpenAI chat messages.
func convertToOpenAIMessages(stack *prompt.Stack) []openai.ChatCompletionMessage {
	inputs := stack.Inputs()
	result := make([]openai.ChatCompletionMessage, len(inputs))
	for i, in := range inputs {
		role := openai.ChatMessageRoleUser
		switch in.Role {
		case prompt.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case prompt.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		result[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: in.Content,
		}
	}
	return result
}
