package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openshift/managed-notifications/engine/semantic"
)

// Sentinel errors for build preconditions.
var (
	// ErrCorpusMissing means the corpus root does not exist; the build fails
	// fast before any work starts.
	ErrCorpusMissing = errors.New("ingest: corpus directory not found")
	// ErrEmptyCorpus means no notification survived filtering; the build
	// halts without touching the store.
	ErrEmptyCorpus = errors.New("ingest: no notifications to index")
)

// Embedder maps a batch of texts to one vector per text, preserving order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the subset of the vector store the build needs.
type Store interface {
	Recreate(ctx context.Context, dims int) error
	Upsert(ctx context.Context, records []semantic.Record) error
}

// Deps holds the external collaborators for an index build.
type Deps struct {
	Embedder Embedder
	Store    Store
	Logger   *slog.Logger
}

// Build rebuilds the notification index from scratch: walk the corpus, embed
// every document in one batch, drop and recreate the collection, and upsert
// all records in a single call. Rebuilds are full, never incremental.
func Build(ctx context.Context, root string, deps Deps) (*Batch, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorpusMissing, root)
	}

	batch, err := BuildBatch(ctx, root, logger)
	if err != nil {
		return nil, err
	}
	if len(batch.Docs) == 0 {
		return nil, fmt.Errorf("%w: under %s", ErrEmptyCorpus, root)
	}

	logger.Info("embedding documents", "count", len(batch.Docs))
	vectors, err := deps.Embedder.EmbedBatch(ctx, batch.Texts())
	if err != nil {
		return nil, fmt.Errorf("ingest: embed batch: %w", err)
	}
	if len(vectors) != len(batch.Docs) {
		return nil, fmt.Errorf("ingest: embedder returned %d vectors for %d documents", len(vectors), len(batch.Docs))
	}

	dims := len(vectors[0])
	if err := deps.Store.Recreate(ctx, dims); err != nil {
		return nil, err
	}

	records := make([]semantic.Record, len(batch.Docs))
	for i, doc := range batch.Docs {
		records[i] = semantic.Record{
			ID:       doc.ID,
			Vector:   vectors[i],
			Document: doc.Text,
			Payload:  doc.Meta.Payload(),
		}
	}
	if err := deps.Store.Upsert(ctx, records); err != nil {
		return nil, err
	}

	logger.Info("index rebuilt", "documents", len(records), "dims", dims)
	return batch, nil
}
