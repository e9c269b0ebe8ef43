package cli

import (
	"fmt"
	"time"

	"github.com/ashkaaar/griptape/internal/artifact"
	"github.com/ashkaaar/griptape/internal/llm"
	"github.com/ashkaaar/griptape/internal/pii"
	"github.com/ashkaaar/griptape/internal/prompt"
	"github.com/spf13/cobra"
)

// Prompt flags
var (
	promptDriver string
	promptSystem string
	promptStream bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt [text...]",
	Short: "Run a prompt against a hosted model",
	Long: `Run a prompt against a hosted model and print the generated text.

The driver is chosen with --driver, GRIPTAPE_PROMPT_DRIVER, or detected
from the available credentials (Hugging Face, then Anthropic, then OpenAI).
When PII redaction is enabled, Hugging Face prompts and responses are
redacted with Amazon Comprehend.`,
	Example: `  griptape prompt "Summarize the plot of Hamlet"
  echo "Translate to French: good morning" | griptape prompt --driver huggingface
  griptape prompt --driver openai --stream "Write a haiku"`,
	RunE: runPrompt,
}

func init() {
	promptCmd.Flags().StringVar(&promptDriver, "driver", "", "prompt driver: huggingface, openai, anthropic")
	promptCmd.Flags().StringVar(&promptSystem, "system", "", "system instruction prepended to the prompt")
	promptCmd.Flags().BoolVar(&promptStream, "stream", false, "print output as it is generated")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	text, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return trackCLIError("prompt", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return trackCLIError("prompt", err)
	}

	ctx := cmd.Context()

	// Only the Hugging Face driver redacts.
	var processor pii.Processor = pii.Noop{}
	if llm.ResolveDriver(cfg.Prompt, promptDriver) == llm.DriverHuggingFace {
		processor, err = newPIIProcessor(ctx, cfg.PII)
		if err != nil {
			return trackCLIError("prompt", err)
		}
	}

	driver, err := newPromptDriver(ctx, cfg.Prompt, processor, promptDriver)
	if err != nil {
		return trackCLIError("prompt", fmt.Errorf("create prompt driver: %w", err))
	}

	stack := prompt.NewStack()
	if promptSystem != "" {
		stack.AddSystemInput(promptSystem)
	}
	stack.AddUserInput(text)

	out := cmd.OutOrStdout()
	start := time.Now()

	var result *artifact.Text
	if promptStream {
		var reader *llm.StreamReader
		reader, err = driver.Stream(ctx, stack)
		if err == nil {
			result, err = reader.Collect(func(chunk llm.StreamChunk) {
				_, _ = fmt.Fprint(out, chunk.Text)
			})
			_, _ = fmt.Fprintln(out)
		}
	} else {
		result, err = driver.Run(ctx, stack)
	}

	telemetryClient.TrackPromptRun(driver.Name(), driver.Model(), err == nil, time.Since(start).Milliseconds())
	if err != nil {
		return trackCLIError("prompt", fmt.Errorf("%s: %w", driver.Name(), err))
	}

	if !promptStream {
		_, _ = fmt.Fprintln(out, result.Value())
	}
	return nil
}
