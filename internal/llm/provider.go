// Package llm provides prompt drivers: adapters that run a prompt stack
// against a hosted model and return a text artifact.
package llm

import (
	"context"
	"fmt"

	"github.com/ashkaaar/griptape/internal/artifact"
	"github.com/ashkaaar/griptape/internal/config"
	"github.com/ashkaaar/griptape/internal/pii"
	"github.com/ashkaaar/griptape/internal/prompt"
)

// PromptDriver defines the interface shared by all prompt drivers.
type PromptDriver interface {
	// Run submits the stack and waits for a single generated text.
	Run(ctx context.Context, stack *prompt.Stack) (*artifact.Text, error)

	// Stream submits the stack and returns incremental output.
	Stream(ctx context.Context, stack *prompt.Stack) (*StreamReader, error)

	// Name returns the driver name (e.g., "huggingface", "openai").
	Name() string

	// Model returns the model the driver targets.
	Model() string
}

// Driver names.
const (
	DriverHuggingFace = "huggingface"
	DriverOpenAI      = "openai"
	DriverAnthropic   = "anthropic"
)

// ChatOptions configures generation for chat drivers.
type ChatOptions struct {
	MaxTokens   int     // Maximum tokens in response
	Temperature float64 // Sampling temperature
}

// NewDriver creates a prompt driver based on configuration.
// It auto-detects the driver if not explicitly set.
func NewDriver(ctx context.Context, cfg config.PromptConfig, processor pii.Processor) (PromptDriver, error) {
	return NewDriverWithOverride(ctx, cfg, processor, "")
}

// NewDriverWithOverride creates a driver, preferring driverOverride over the
// configured driver name.
func NewDriverWithOverride(ctx context.Context, cfg config.PromptConfig, processor pii.Processor, driverOverride string) (PromptDriver, error) {
	name := ResolveDriver(cfg, driverOverride)
	if name == "" {
		return nil, fmt.Errorf("no prompt driver configured: set HUGGINGFACE_HUB_ACCESS_TOKEN and GRIPTAPE_HF_MODEL, ANTHROPIC_API_KEY, or OPENAI_API_KEY")
	}

	opts := ChatOptions{MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}

	var (
		driver PromptDriver
		err    error
	)
	switch name {
	case DriverHuggingFace:
		driver, err = NewHuggingFaceHubDriver(ctx, cfg.HuggingFace, WithPIIProcessor(processor))
	case DriverOpenAI:
		driver, err = NewOpenAIChatDriver(cfg.OpenAI, opts)
	case DriverAnthropic:
		driver, err = NewAnthropicDriver(cfg.Anthropic, opts)
	default:
		return nil, fmt.Errorf("unknown prompt driver: %s (supported: huggingface, openai, anthropic)", name)
	}
	if err != nil {
		return nil, err
	}
	return driver, nil
}

// ResolveDriver returns the driver name NewDriverWithOverride would build:
// driverOverride, then cfg.Driver, then the detected driver. It returns ""
// when nothing is configured.
func ResolveDriver(cfg config.PromptConfig, driverOverride string) string {
	if driverOverride != "" {
		return driverOverride
	}
	if cfg.Driver != "" {
		return cfg.Driver
	}
	return detectDriver(cfg)
}

// detectDriver picks a driver from the available credentials.
// Priority: Hugging Face > Anthropic > OpenAI
func detectDriver(cfg config.PromptConfig) string {
	if cfg.HuggingFace.APIToken != "" && cfg.HuggingFace.Model != "" {
		return DriverHuggingFace
	}
	if cfg.Anthropic.APIKey != "" {
		return DriverAnthropic
	}
	if cfg.OpenAI.APIKey != "" {
		return DriverOpenAI
	}
	return ""
}

// IsConfigured returns true if any prompt driver has credentials.
func IsConfigured(cfg config.PromptConfig) bool {
	return detectDriver(cfg) != ""
}
