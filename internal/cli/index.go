package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ashkaaar/griptape/internal/vector"
	"github.com/spf13/cobra"
)

var indexID string

var indexCmd = &cobra.Command{
	Use:   "index <file>...",
	Short: "Embed files into the local vector store",
	Long: `Embed files into the local vector store.

Each file is stored under its path (or --id for a single file) and
replaces any earlier version. The file name is used as the title.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexID, "id", "", "document id (single file only)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexID != "" && len(args) > 1 {
		return trackCLIError("index", fmt.Errorf("--id can only be used with a single file"))
	}

	cfg, err := loadConfig()
	if err != nil {
		return trackCLIError("index", err)
	}

	driver, err := newEmbeddingDriver(cfg.Embedding)
	if err != nil {
		return trackCLIError("index", fmt.Errorf("create embedding driver: %w", err))
	}

	store, err := vector.New(cfg.Vector, driver)
	if err != nil {
		return trackCLIError("index", fmt.Errorf("open vector store: %w", err))
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return trackCLIError("index", fmt.Errorf("read %s: %w", path, err))
		}

		id := indexID
		if id == "" {
			id = path
		}

		hash, err := store.Upsert(cmd.Context(), id, string(data), map[string]string{
			vector.MetaTitle: filepath.Base(path),
			"path":           path,
		})
		if err != nil {
			return trackCLIError("index", fmt.Errorf("index %s: %w", path, err))
		}

		_, _ = fmt.Fprintf(out, "Indexed %s (%s)\n", id, hash[:12])
	}

	count, _ := store.Count(cmd.Context())
	_, _ = fmt.Fprintf(out, "%d documents in store\n", count)
	return nil
}
