package llm

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ashkaaar/griptape/internal/artifact"
	"github.com/ashkaaar/griptape/internal/config"
	"github.com/ashkaaar/griptape/internal/huggingface"
	"github.com/ashkaaar/griptape/internal/log"
	"github.com/ashkaaar/griptape/internal/pii"
	"github.com/ashkaaar/griptape/internal/prompt"
)

// HuggingFaceMaxNewTokens is the default generation budget.
const HuggingFaceMaxNewTokens = 250

// HuggingFaceSupportedTasks is the default task allow-list.
var HuggingFaceSupportedTasks = []string{"text2text-generation", "text-generation"}

// HuggingFaceDefaultParams returns the default generation parameters.
func HuggingFaceDefaultParams() map[string]any {
	return map[string]any{
		"return_full_text": false,
		"max_new_tokens":   HuggingFaceMaxNewTokens,
	}
}

// InferenceClient abstracts the hosted inference client for testing.
type InferenceClient interface {
	Task() string
	Generate(ctx context.Context, inputs string, params map[string]any) ([]huggingface.Generation, error)
}

// HuggingFaceHubDriver runs prompt stacks against a model hosted on the
// Hugging Face Inference API. It does not stream.
type HuggingFaceHubDriver struct {
	client InferenceClient
	model  string
	params map[string]any
	tasks  []string
	pii    pii.Processor
}

// HuggingFaceOption customizes a HuggingFaceHubDriver.
type HuggingFaceOption func(*HuggingFaceHubDriver)

// WithInferenceClient replaces the default HTTP inference client.
func WithInferenceClient(client InferenceClient) HuggingFaceOption {
	return func(d *HuggingFaceHubDriver) {
		d.client = client
	}
}

// WithPIIProcessor sets the redaction hooks run around each call.
func WithPIIProcessor(p pii.Processor) HuggingFaceOption {
	return func(d *HuggingFaceHubDriver) {
		if p != nil {
			d.pii = p
		}
	}
}

// NewHuggingFaceHubDriver creates a driver for cfg.Model. Unless a client is
// injected, the model's pipeline task is resolved from the Hub here.
func NewHuggingFaceHubDriver(ctx context.Context, cfg config.HuggingFaceConfig, opts ...HuggingFaceOption) (*HuggingFaceHubDriver, error) {
	if cfg.Stream {
		return nil, newDriverError(DriverHuggingFace, KindStreaming, ErrStreamingNotSupported)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid huggingface config: %w", err)
	}

	params := HuggingFaceDefaultParams()
	maps.Copy(params, cfg.Params)

	tasks := cfg.SupportedTasks
	if len(tasks) == 0 {
		tasks = HuggingFaceSupportedTasks
	}

	d := &HuggingFaceHubDriver{
		model:  cfg.Model,
		params: params,
		tasks:  slices.Clone(tasks),
		pii:    pii.Noop{},
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.client == nil {
		client, err := huggingface.NewClient(ctx, huggingface.Config{
			Token:  cfg.APIToken,
			Model:  cfg.Model,
			UseGPU: cfg.UseGPU,
			Task:   cfg.Task,
		})
		if err != nil {
			return nil, err
		}
		d.client = client
	}

	return d, nil
}

// Name returns the driver name.
func (d *HuggingFaceHubDriver) Name() string {
	return DriverHuggingFace
}

// Model returns the model repository id.
func (d *HuggingFaceHubDriver) Model() string {
	return d.model
}

// Params returns a copy of the merged generation parameters.
func (d *HuggingFaceHubDriver) Params() map[string]any {
	return maps.Clone(d.params)
}

// SupportedTasks returns a copy of the task allow-list.
func (d *HuggingFaceHubDriver) SupportedTasks() []string {
	return slices.Clone(d.tasks)
}

// Run redacts and flattens stack, submits it, redacts the response and
// returns the single generated text. The task is checked before any
// redaction hook runs.
func (d *HuggingFaceHubDriver) Run(ctx context.Context, stack *prompt.Stack) (*artifact.Text, error) {
	task := d.client.Task()
	if !slices.Contains(d.tasks, task) {
		return nil, newDriverError(DriverHuggingFace, KindUnsupportedTask,
			fmt.Errorf("%w %q: only models with the following tasks are supported: %s",
				ErrUnsupportedTask, task, strings.Join(d.tasks, ", ")))
	}

	processed, err := d.pii.BeforeRun(ctx, stack)
	if err != nil {
		return nil, fmt.Errorf("pii before run: %w", err)
	}

	input := prompt.ToString(processed)
	log.Debugf("huggingface run: model=%s task=%s inputs=%d", d.model, task, processed.Len())

	generations, err := d.client.Generate(ctx, input, d.Params())
	if err != nil {
		return nil, fmt.Errorf("huggingface inference: %w", err)
	}

	texts := make([]string, len(generations))
	for i, g := range generations {
		texts[i] = g.GeneratedText
	}

	texts, err = d.pii.AfterRun(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("pii after run: %w", err)
	}

	if len(texts) != 1 {
		return nil, choiceError(DriverHuggingFace, len(texts))
	}

	return artifact.NewText(strings.TrimSpace(texts[0])), nil
}

// Stream always fails: the hosted API has no incremental output.
func (d *HuggingFaceHubDriver) Stream(_ context.Context, _ *prompt.Stack) (*StreamReader, error) {
	return nil, newDriverError(DriverHuggingFace, KindStreaming, ErrStreamNotImplemented)
}
