package telemetry

import (
	"runtime"

	"github.com/ashkaaar/griptape/pkg/version"
)

// Event names
const (
	EventCLICommandExecuted = "cli_command_executed"
	EventCLIErrorOccurred   = "cli_error_occurred"
	EventPromptRun          = "prompt_run"
	EventEmbeddingRun       = "embedding_run"
	EventVectorQuery        = "vector_query"
)

// baseProperties returns common properties for all events.
func baseProperties() map[string]interface{} {
	return map[string]interface{}{
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"version":    version.Version,
		"prerelease": version.IsPrerelease(),
		"dev_build":  version.IsDevBuild(),
	}
}

// TrackCLICommandExecuted tracks CLI command execution.
func (c *posthogClient) TrackCLICommandExecuted(commandName string, hasFlags bool, durationMs int64) {
	props := baseProperties()
	props["command_name"] = commandName
	props["has_flags"] = hasFlags
	props["execution_duration_ms"] = durationMs
	c.Track(EventCLICommandExecuted, props)
}

// TrackCLIError tracks CLI errors. Only a coarse error category is sent.
func (c *posthogClient) TrackCLIError(commandName, errorType string) {
	props := baseProperties()
	props["command_name"] = commandName
	props["error_type"] = errorType
	c.Track(EventCLIErrorOccurred, props)
}

// TrackPromptRun tracks a prompt driver call.
func (c *posthogClient) TrackPromptRun(driver, model string, success bool, durationMs int64) {
	props := baseProperties()
	props["driver"] = driver
	props["model"] = model
	props["success"] = success
	props["duration_ms"] = durationMs
	c.Track(EventPromptRun, props)
}

// TrackEmbeddingRun tracks an embedding driver call.
func (c *posthogClient) TrackEmbeddingRun(model string, inputChars int, success bool, durationMs int64) {
	props := baseProperties()
	props["model"] = model
	props["input_chars"] = inputChars
	props["success"] = success
	props["duration_ms"] = durationMs
	c.Track(EventEmbeddingRun, props)
}

// TrackVectorQuery tracks a vector store query.
func (c *posthogClient) TrackVectorQuery(resultCount int, durationMs int64) {
	props := baseProperties()
	props["result_count"] = resultCount
	props["duration_ms"] = durationMs
	c.Track(EventVectorQuery, props)
}

// No-op implementations for disabled telemetry.

func (c *noopClient) TrackCLICommandExecuted(commandName string, hasFlags bool, durationMs int64) {}

func (c *noopClient) TrackCLIError(commandName, errorType string) {}

func (c *noopClient) TrackPromptRun(driver, model string, success bool, durationMs int64) {}

func (c *noopClient) TrackEmbeddingRun(model string, inputChars int, success bool, durationMs int64) {}

func (c *noopClient) TrackVectorQuery(resultCount int, durationMs int64) {}
