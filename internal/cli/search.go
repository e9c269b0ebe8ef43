package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/ashkaaar/griptape/internal/vector"
	"github.com/spf13/cobra"
)

// Search flags
var (
	searchLimit    int
	searchMinScore float32
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Find indexed documents similar to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", vector.DefaultQueryLimit, "maximum number of results")
	searchCmd.Flags().Float32Var(&searchMinScore, "min-score", 0, "minimum similarity (default: vector.min_similarity)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return trackCLIError("search", err)
	}

	minScore := cfg.Vector.MinSimilarity
	if cmd.Flags().Changed("min-score") {
		minScore = searchMinScore
	}

	driver, err := newEmbeddingDriver(cfg.Embedding)
	if err != nil {
		return trackCLIError("search", fmt.Errorf("create embedding driver: %w", err))
	}

	store, err := vector.New(cfg.Vector, driver)
	if err != nil {
		return trackCLIError("search", fmt.Errorf("open vector store: %w", err))
	}
	defer func() { _ = store.Close() }()

	start := time.Now()
	hits, err := store.Query(cmd.Context(), query, searchLimit, minScore)
	if err != nil {
		return trackCLIError("search", fmt.Errorf("search: %w", err))
	}
	telemetryClient.TrackVectorQuery(len(hits), time.Since(start).Milliseconds())

	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		_, _ = fmt.Fprintln(out, "No matching documents.")
		return nil
	}

	for i, hit := range hits {
		_, _ = fmt.Fprintf(out, "%2d. %-40s %.3f\n", i+1, hit.ID, hit.Score)
	}
	return nil
}
