// Package testutil gates tests that call hosted model APIs.
package testutil

import (
	"os"
	"testing"
)

// SkipAITests skips the test unless RUN_AI_TESTS is set. Live driver tests
// against OpenAI and the Hugging Face Hub are billed, so they never run by
// default.
//
//	RUN_AI_TESTS=1 OPENAI_API_KEY=... go test ./internal/embedding/...
func SkipAITests(t *testing.T) {
	t.Helper()
	if os.Getenv("RUN_AI_TESTS") == "" {
		t.Skip("Skipping AI test (set RUN_AI_TESTS=1 to run)")
	}
}

// RequireCredential applies SkipAITests and then returns the value of env,
// skipping when it is empty.
func RequireCredential(t *testing.T, env string) string {
	t.Helper()
	SkipAITests(t)
	v := os.Getenv(env)
	if v == "" {
		t.Skipf("%s not set", env)
	}
	return v
}
