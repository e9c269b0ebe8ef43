// Package pii provides redaction hooks that run around a prompt driver call.
package pii

import (
	"context"

	"github.com/ashkaaar/griptape/internal/prompt"
)

// Processor transforms a prompt stack before a model call and the generated
// texts after it.
type Processor interface {
	// BeforeRun returns the stack to submit. Implementations must not mutate
	// the caller's stack.
	BeforeRun(ctx context.Context, stack *prompt.Stack) (*prompt.Stack, error)

	// AfterRun returns the texts to hand back to the caller.
	AfterRun(ctx context.Context, texts []string) ([]string, error)
}

// Noop passes everything through unchanged.
type Noop struct{}

// BeforeRun returns a clone of stack.
func (Noop) BeforeRun(_ context.Context, stack *prompt.Stack) (*prompt.Stack, error) {
	return stack.Clone(), nil
}

// AfterRun returns texts as-is.
func (Noop) AfterRun(_ context.Context, texts []string) ([]string, error) {
	return texts, nil
}
