package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/openshift/managed-notifications/engine/semantic"
)

// ErrCollectionMissing means the index collection has not been built yet.
var ErrCollectionMissing = errors.New("search: collection not found, run the ingest first")

// DefaultTopK is the result count used when the caller does not ask for one.
const DefaultTopK = 5

// Embedder maps texts to vectors. Queries embed a batch of one.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the read side of the vector store.
type Store interface {
	Collection() string
	Exists(ctx context.Context) (bool, error)
	Query(ctx context.Context, vector []float32, k int) (semantic.Matches, error)
	Count(ctx context.Context) (uint64, error)
	AllPayloads(ctx context.Context) ([]map[string]any, error)
}

// CorpusStats summarizes the indexed corpus.
type CorpusStats struct {
	TotalNotifications uint64   `json:"total_notifications"`
	Folders            []string `json:"folders"`
	Severities         []string `json:"severities"`
	ServiceNames       []string `json:"service_names"`
	Collection         string   `json:"collection_name"`
	Address            string   `json:"qdrant_address"`
	EmbeddingModel     string   `json:"embedding_model"`
}

// Options tunes a Service.
type Options struct {
	TopK           int
	EmbeddingModel string
	StoreAddress   string
}

// Service runs semantic searches over the notification index.
type Service struct {
	embed  Embedder
	store  Store
	opts   Options
	logger *slog.Logger
}

// New builds a search service. A nil logger falls back to slog.Default, and
// a non-positive TopK falls back to DefaultTopK.
func New(embed Embedder, store Store, opts Options, logger *slog.Logger) *Service {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{embed: embed, store: store, opts: opts, logger: logger}
}

// Search embeds the problem statement and returns the closest notifications,
// ranked ascending by distance. maxResults <= 0 uses the configured TopK.
// Zero matches returns an empty slice, not an error.
func (s *Service) Search(ctx context.Context, problemStatement string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = s.opts.TopK
	}

	vectors, err := s.embed.EmbedBatch(ctx, []string{problemStatement})
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("search: embedder returned %d vectors for one query", len(vectors))
	}

	matches, err := s.store.Query(ctx, vectors[0], maxResults)
	if err != nil {
		return nil, err
	}

	results := Reconstruct(matches)
	s.logger.Debug("search complete", "query_len", len(problemStatement), "requested", maxResults, "matched", len(results))
	return results, nil
}

// Stats aggregates corpus-level statistics by scanning every stored payload.
func (s *Service) Stats(ctx context.Context) (*CorpusStats, error) {
	exists, err := s.store.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCollectionMissing
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	payloads, err := s.store.AllPayloads(ctx)
	if err != nil {
		return nil, err
	}

	stats := &CorpusStats{
		TotalNotifications: total,
		Folders:            distinct(payloads, semantic.KeyFolder),
		Severities:         distinct(payloads, semantic.KeySeverity),
		ServiceNames:       distinct(payloads, semantic.KeyServiceName),
		Collection:         s.store.Collection(),
		Address:            s.opts.StoreAddress,
		EmbeddingModel:     s.opts.EmbeddingModel,
	}
	return stats, nil
}

// distinct collects the sorted distinct string values of one payload key.
// Payloads missing the key count under "unknown".
func distinct(payloads []map[string]any, key string) []string {
	seen := make(map[string]struct{})
	for _, payload := range payloads {
		val, ok := payload[key].(string)
		if !ok || val == "" {
			val = "unknown"
		}
		seen[val] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for val := range seen {
		out = append(out, val)
	}
	sort.Strings(out)
	return out
}
