// Package cli provides the command-line interface for griptape.
package cli

import (
	"context"
	"strings"
	"time"

	"github.com/ashkaaar/griptape/internal/telemetry"
	"github.com/ashkaaar/griptape/pkg/version"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var telemetryClient telemetry.Client = telemetry.New(false)

var commandStartTime time.Time

// Persistent flags
var (
	configFile string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "griptape",
	Short: "Embedding and hosted-inference prompt drivers",
	Long: `Embedding and hosted-inference prompt drivers

Embed text with the OpenAI (or Azure OpenAI) embeddings API, run prompts
against models hosted on the Hugging Face Inference API, OpenAI or
Anthropic, and index documents into a local vector store.

Configuration is read from the environment (and .env), then from
config.yaml in $XDG_CONFIG_HOME/griptape or the working directory.

Telemetry:
  Telemetry is off by default. When enabled it is anonymous and never
  includes prompts, documents, or credentials.

  Opt-in with:
  	GRIPTAPE_TELEMETRY_ENABLED=true`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commandStartTime = time.Now()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		durationMs := time.Since(commandStartTime).Milliseconds()
		hasFlags := cmd.Flags().NFlag() > 0
		telemetryClient.TrackCLICommandExecuted(cmd.Name(), hasFlags, durationMs)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: config.yaml in $XDG_CONFIG_HOME/griptape or .)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI with fang enhancements.
func Execute(ctx context.Context, tc telemetry.Client) error {
	if tc != nil {
		telemetryClient = tc
	}

	return fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithCommit(version.Commit),
	)
}

// trackCLIError wraps an error with telemetry tracking.
// Call this before returning errors from CLI commands.
func trackCLIError(cmdName string, err error) error {
	if err == nil {
		return nil
	}
	errorType := classifyError(err)
	telemetryClient.TrackCLIError(cmdName, errorType)
	return err
}

// classifyError determines the error type for telemetry.
func classifyError(err error) string {
	errStr := err.Error()
	switch {
	case containsAny(errStr, "api key", "token", "unauthorized", "status 401", "status 403"):
		return "auth_error"
	case containsAny(errStr, "config", "configuration"):
		return "config_error"
	case containsAny(errStr, "unsupported task", "streaming", "choice"):
		return "driver_error"
	case containsAny(errStr, "network", "timeout", "connection"):
		return "network_error"
	case containsAny(errStr, "permission", "access denied"):
		return "permission_error"
	case containsAny(errStr, "not found", "does not exist", "no such file"):
		return "not_found_error"
	case containsAny(errStr, "invalid", "parse", "format"):
		return "validation_error"
	default:
		return "unknown_error"
	}
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
