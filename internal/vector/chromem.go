package vector

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"runtime"
	"strings"

	"github.com/ashkaaar/griptape/internal/config"
	"github.com/ashkaaar/griptape/internal/embedding"
	"github.com/ashkaaar/griptape/internal/log"
	"github.com/philippgille/chromem-go"
)

// DefaultQueryLimit is used when Query is called with n <= 0.
const DefaultQueryLimit = 10

// LocalStore implements Store using chromem-go. Documents are embedded with
// the driver's EmbedString, so texts longer than the model's input budget
// are chunked and averaged.
type LocalStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	dataDir    string
	driver     embedding.Driver
}

// NewLocalStore creates a store. With an empty cfg.DataDir the store lives
// in memory only; otherwise it is persisted under DataDir.
func NewLocalStore(cfg config.VectorConfig, driver embedding.Driver) (*LocalStore, error) {
	if driver == nil {
		return nil, errors.New("embedding driver is required")
	}

	name := cfg.Collection
	if name == "" {
		name = config.DefaultVectorCollection
	}

	var db *chromem.DB
	if cfg.DataDir == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("create vector dir: %w", err)
		}

		var err error
		db, err = chromem.NewPersistentDB(cfg.DataDir, false)
		if err != nil {
			return nil, fmt.Errorf("create chromem db: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(name, map[string]string{
		"embedding_model": driver.Model(),
	}, driver.EmbedString)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &LocalStore{
		db:         db,
		collection: collection,
		dataDir:    cfg.DataDir,
		driver:     driver,
	}, nil
}

// Upsert embeds and stores text under id.
func (s *LocalStore) Upsert(ctx context.Context, id, text string, meta map[string]string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", errors.New("document id is required")
	}
	content := PrepareContent(meta[MetaTitle], text)
	if content == "" {
		return "", fmt.Errorf("document %s has no content", id)
	}
	hash := ContentHash(content)

	metadata := maps.Clone(meta)
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadata[MetaContentHash] = hash

	doc := chromem.Document{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}

	log.Debugf("vector upsert: id=%s model=%s chars=%d", id, s.driver.Model(), len(content))

	// AddDocuments handles embedding internally
	if err := s.collection.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}

	return hash, nil
}

// Query finds documents similar to text.
func (s *LocalStore) Query(ctx context.Context, text string, n int, minScore float32) ([]Hit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("query text is required")
	}
	if n <= 0 {
		n = DefaultQueryLimit
	}

	// Cap limit to collection size to avoid chromem error
	count := s.collection.Count()
	if n > count {
		n = count
	}
	if n == 0 {
		return []Hit{}, nil
	}

	results, err := s.collection.Query(ctx, text, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		if r.Similarity < minScore {
			continue
		}

		hits = append(hits, Hit{
			ID:          r.ID,
			Score:       r.Similarity,
			Content:     r.Content,
			ContentHash: r.Metadata[MetaContentHash],
			Metadata:    r.Metadata,
		})
	}

	return hits, nil
}

// Delete removes documents by id.
func (s *LocalStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

// Count returns the number of stored documents.
func (s *LocalStore) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}

// DataDir returns the persistence directory, or "" for an in-memory store.
func (s *LocalStore) DataDir() string {
	return s.dataDir
}

// Close releases resources.
func (s *LocalStore) Close() error {
	// chromem-go persists on write, no explicit close needed
	return nil
}
