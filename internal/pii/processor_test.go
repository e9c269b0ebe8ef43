package pii

import (
	"context"
	"errors"
	"testing"

	"github.com/ashkaaar/griptape/internal/prompt"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockComprehend flags every occurrence of "alice@example.com" as an email.
type mockComprehend struct {
	calls []string
	err   error
}

func (m *mockComprehend) DetectPiiEntities(ctx context.Context, params *comprehend.DetectPiiEntitiesInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectPiiEntitiesOutput, error) {
	text := aws.ToString(params.Text)
	m.calls = append(m.calls, text)
	if m.err != nil {
		return nil, m.err
	}

	const needle = "alice@example.com"
	var entities []types.PiiEntity
	runes := []rune(text)
	n := []rune(needle)
	for i := 0; i+len(n) <= len(runes); i++ {
		if string(runes[i:i+len(n)]) == needle {
			entities = append(entities, types.PiiEntity{
				BeginOffset: aws.Int32(int32(i)),
				EndOffset:   aws.Int32(int32(i + len(n))),
				Score:       aws.Float32(0.99),
				Type:        types.PiiEntityTypeEmail,
			})
		}
	}
	return &comprehend.DetectPiiEntitiesOutput{Entities: entities}, nil
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	stack := prompt.NewStack().AddUserInput("hi")

	out, err := Noop{}.BeforeRun(ctx, stack)
	require.NoError(t, err)
	assert.Equal(t, stack.Inputs(), out.Inputs())
	assert.NotSame(t, stack, out)

	texts, err := Noop{}.AfterRun(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts)
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		entities []types.PiiEntity
		expected string
	}{
		{
			name:     "no entities",
			text:     "nothing here",
			expected: "nothing here",
		},
		{
			name: "single entity",
			text: "call John today",
			entities: []types.PiiEntity{
				{BeginOffset: aws.Int32(5), EndOffset: aws.Int32(9), Score: aws.Float32(0.9), Type: types.PiiEntityTypeName},
			},
			expected: "call [NAME] today",
		},
		{
			name: "low score kept",
			text: "call John today",
			entities: []types.PiiEntity{
				{BeginOffset: aws.Int32(5), EndOffset: aws.Int32(9), Score: aws.Float32(0.1), Type: types.PiiEntityTypeName},
			},
			expected: "call John today",
		},
		{
			name: "unordered and overlapping",
			text: "Zoë at 555-1234",
			entities: []types.PiiEntity{
				{BeginOffset: aws.Int32(7), EndOffset: aws.Int32(15), Score: aws.Float32(0.9), Type: types.PiiEntityTypePhone},
				{BeginOffset: aws.Int32(0), EndOffset: aws.Int32(3), Score: aws.Float32(0.9), Type: types.PiiEntityTypeName},
				{BeginOffset: aws.Int32(1), EndOffset: aws.Int32(2), Score: aws.Float32(0.9), Type: types.PiiEntityTypeName},
			},
			expected: "[NAME] at [PHONE]",
		},
		{
			name: "out of range ignored",
			text: "abc",
			entities: []types.PiiEntity{
				{BeginOffset: aws.Int32(1), EndOffset: aws.Int32(10), Type: types.PiiEntityTypeName},
			},
			expected: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Redact(tt.text, tt.entities, DefaultMinScore))
		})
	}
}

func TestComprehendProcessor_BeforeRun(t *testing.T) {
	client := &mockComprehend{}
	p := NewComprehendProcessorWithClient(client)

	stack := prompt.NewStack().
		AddSystemInput("").
		AddUserInput("mail alice@example.com please")

	out, err := p.BeforeRun(context.Background(), stack)
	require.NoError(t, err)

	assert.Equal(t, "mail [EMAIL] please", out.Inputs()[1].Content)
	assert.Equal(t, "mail alice@example.com please", stack.Inputs()[1].Content, "caller stack must not change")
	assert.Equal(t, []string{"mail alice@example.com please"}, client.calls, "empty inputs are not sent")
}

func TestComprehendProcessor_AfterRun(t *testing.T) {
	p := NewComprehendProcessorWithClient(&mockComprehend{}, WithLanguageCode("en"), WithMinScore(0.8))

	out, err := p.AfterRun(context.Background(), []string{"reach alice@example.com", "fine"})
	require.NoError(t, err)
	assert.Equal(t, []string{"reach [EMAIL]", "fine"}, out)
}

func TestComprehendProcessor_Error(t *testing.T) {
	p := NewComprehendProcessorWithClient(&mockComprehend{err: errors.New("throttled")})

	_, err := p.AfterRun(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detect pii entities")
}
