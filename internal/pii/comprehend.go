package pii

import (
	"context"
	"fmt"
	"sort"

	"github.com/ashkaaar/griptape/internal/prompt"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"
)

// DefaultMinScore is the confidence below which detected entities are kept.
const DefaultMinScore = 0.5

// ComprehendAPI is the subset of the Comprehend client used for redaction.
type ComprehendAPI interface {
	DetectPiiEntities(ctx context.Context, params *comprehend.DetectPiiEntitiesInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectPiiEntitiesOutput, error)
}

// ComprehendProcessor redacts PII detected by Amazon Comprehend. Each entity
// span is replaced with its type in brackets, e.g. "[EMAIL]".
type ComprehendProcessor struct {
	client       ComprehendAPI
	languageCode types.LanguageCode
	minScore     float32
}

// ComprehendOption configures a ComprehendProcessor.
type ComprehendOption func(*ComprehendProcessor)

// WithLanguageCode sets the language passed to Comprehend (default "en").
func WithLanguageCode(code string) ComprehendOption {
	return func(p *ComprehendProcessor) {
		if code != "" {
			p.languageCode = types.LanguageCode(code)
		}
	}
}

// WithMinScore sets the minimum entity confidence that triggers redaction.
func WithMinScore(score float32) ComprehendOption {
	return func(p *ComprehendProcessor) {
		p.minScore = score
	}
}

// NewComprehendProcessor creates a processor from an AWS config.
func NewComprehendProcessor(cfg aws.Config, opts ...ComprehendOption) *ComprehendProcessor {
	return NewComprehendProcessorWithClient(comprehend.NewFromConfig(cfg), opts...)
}

// NewComprehendProcessorWithClient creates a processor around a custom client.
func NewComprehendProcessorWithClient(client ComprehendAPI, opts ...ComprehendOption) *ComprehendProcessor {
	p := &ComprehendProcessor{
		client:       client,
		languageCode: types.LanguageCodeEn,
		minScore:     DefaultMinScore,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BeforeRun redacts the content of every input into a new stack.
func (p *ComprehendProcessor) BeforeRun(ctx context.Context, stack *prompt.Stack) (*prompt.Stack, error) {
	inputs := stack.Inputs()
	for i := range inputs {
		redacted, err := p.redact(ctx, inputs[i].Content)
		if err != nil {
			return nil, err
		}
		inputs[i].Content = redacted
	}
	return stack.WithInputs(inputs), nil
}

// AfterRun redacts each generated text.
func (p *ComprehendProcessor) AfterRun(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		redacted, err := p.redact(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = redacted
	}
	return out, nil
}

func (p *ComprehendProcessor) redact(ctx context.Context, text string) (string, error) {
	if text == "" {
		return text, nil
	}

	resp, err := p.client.DetectPiiEntities(ctx, &comprehend.DetectPiiEntitiesInput{
		LanguageCode: p.languageCode,
		Text:         aws.String(text),
	})
	if err != nil {
		return "", fmt.Errorf("detect pii entities: %w", err)
	}

	return Redact(text, resp.Entities, p.minScore), nil
}

// Redact replaces entity spans in text with "[TYPE]". Offsets are rune
// offsets as reported by Comprehend. Overlapping spans keep the earliest.
func Redact(text string, entities []types.PiiEntity, minScore float32) string {
	spans := make([]types.PiiEntity, 0, len(entities))
	for _, e := range entities {
		if e.BeginOffset == nil || e.EndOffset == nil {
			continue
		}
		if e.Score != nil && *e.Score < minScore {
			continue
		}
		spans = append(spans, e)
	}
	if len(spans) == 0 {
		return text
	}

	sort.Slice(spans, func(i, j int) bool {
		return *spans[i].BeginOffset < *spans[j].BeginOffset
	})

	runes := []rune(text)
	var out []rune
	cursor := 0
	for _, e := range spans {
		begin, end := int(*e.BeginOffset), int(*e.EndOffset)
		if begin < cursor || end > len(runes) || begin >= end {
			continue
		}
		out = append(out, runes[cursor:begin]...)
		out = append(out, []rune("["+string(e.Type)+"]")...)
		cursor = end
	}
	out = append(out, runes[cursor:]...)

	return string(out)
}
