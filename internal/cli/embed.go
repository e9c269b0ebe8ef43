package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var embedSummary bool

var embedCmd = &cobra.Command{
	Use:   "embed [text...]",
	Short: "Embed text with the configured embedding model",
	Long: `Embed text with the configured OpenAI or Azure OpenAI embedding model
and print the vector as JSON.

Text is taken from the arguments, or from stdin when none are given.
Long inputs are split into chunks and averaged.`,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().BoolVar(&embedSummary, "summary", false, "print model, dimensions and the first values instead of the full vector")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	text, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return trackCLIError("embed", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return trackCLIError("embed", err)
	}

	driver, err := newEmbeddingDriver(cfg.Embedding)
	if err != nil {
		return trackCLIError("embed", fmt.Errorf("create embedding driver: %w", err))
	}

	start := time.Now()
	vec, err := driver.EmbedString(cmd.Context(), text)
	telemetryClient.TrackEmbeddingRun(driver.Model(), len(text), err == nil, time.Since(start).Milliseconds())
	if err != nil {
		return trackCLIError("embed", fmt.Errorf("embed: %w", err))
	}

	out := cmd.OutOrStdout()
	if embedSummary {
		head := vec
		if len(head) > 5 {
			head = head[:5]
		}
		_, _ = fmt.Fprintf(out, "Model: %s\n", driver.Model())
		_, _ = fmt.Fprintf(out, "Dimensions: %d\n", len(vec))
		_, _ = fmt.Fprintf(out, "Head: %v\n", head)
		return nil
	}

	return json.NewEncoder(out).Encode(vec)
}
