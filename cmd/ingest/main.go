// Command ingest rebuilds the notification search index: it walks the
// notification corpus, embeds every document via Ollama, and replaces the
// Qdrant collection in one batch.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/openshift/managed-notifications/engine/ingest"
	"github.com/openshift/managed-notifications/engine/search"
	"github.com/openshift/managed-notifications/engine/semantic"
	"github.com/openshift/managed-notifications/pkg/ollama"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	godotenv.Load()

	var (
		corpusDir   = flag.String("corpus", envOr("CORPUS_DIR", "."), "root directory of notification JSON files")
		qdrantAddr  = flag.String("qdrant", envOr("QDRANT_URL", "localhost:6334"), "Qdrant gRPC address")
		collection  = flag.String("collection", envOr("QDRANT_COLLECTION", "managed_notifications"), "Qdrant collection name")
		ollamaURL   = flag.String("ollama", envOr("OLLAMA_URL", "http://localhost:11434"), "Ollama base URL")
		ollamaModel = flag.String("model", envOr("OLLAMA_MODEL", "nomic-embed-text"), "Ollama embedding model")
		probe       = flag.String("probe", "cluster upgrade failed", "query used for the post-build smoke search, empty disables it")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(ctxFromSignals(), *corpusDir, *qdrantAddr, *collection, *ollamaURL, *ollamaModel, *probe, logger); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func ctxFromSignals() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

func run(ctx context.Context, corpusDir, qdrantAddr, collection, ollamaURL, ollamaModel, probe string, logger *slog.Logger) error {
	vs, err := semantic.New(qdrantAddr, collection)
	if err != nil {
		return err
	}
	defer vs.Close()
	logger.Info("connected to Qdrant", "addr", qdrantAddr, "collection", collection)

	embedder := ollama.NewEmbedClient(ollamaURL, ollamaModel)
	logger.Info("using Ollama embeddings", "model", ollamaModel)

	batch, err := ingest.Build(ctx, corpusDir, ingest.Deps{
		Embedder: embedder,
		Store:    vs,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	logger.Info("ingest complete",
		"files_found", batch.FilesFound,
		"indexed", len(batch.Docs),
		"skipped", batch.FilesFound-len(batch.Docs),
	)

	if probe == "" {
		return nil
	}
	smokeSearch(ctx, embedder, vs, probe, logger)
	return nil
}

// smokeSearch runs one search against the freshly built index and logs the
// top hits. Failures are reported but never fail the build.
func smokeSearch(ctx context.Context, embedder search.Embedder, vs *semantic.VectorStore, probe string, logger *slog.Logger) {
	svc := search.New(embedder, vs, search.Options{TopK: 3}, logger)
	results, err := svc.Search(ctx, probe, 3)
	if err != nil {
		logger.Warn("smoke search failed", "query", probe, "error", err)
		return
	}
	for i, r := range results {
		logger.Info("smoke search hit",
			"rank", i+1,
			"id", r.ID,
			"file", r.FilePath,
			"similarity", fmt.Sprintf("%.3f", r.Similarity),
		)
	}
	if len(results) == 0 {
		logger.Warn("smoke search returned no hits", "query", probe)
	}
}
