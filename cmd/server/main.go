// Command server exposes the notification search index over the Model
// Context Protocol. It serves two tools, search_service_logs and
// get_database_stats, over streamable HTTP or stdio.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openshift/managed-notifications/engine/search"
	"github.com/openshift/managed-notifications/engine/semantic"
	"github.com/openshift/managed-notifications/pkg/metrics"
	"github.com/openshift/managed-notifications/pkg/mid"
	"github.com/openshift/managed-notifications/pkg/ollama"
)

const serverName = "Managed Notifications Search"
const serverVersion = "1.0.0"

var met = metrics.New()

var (
	mSearches     = met.Counter("notifications_search_total", "Total search_service_logs calls")
	mStats        = met.Counter("notifications_stats_total", "Total get_database_stats calls")
	mSearchErrors = met.Counter("notifications_search_errors_total", "Failed search_service_logs calls")
	mSearchDur    = met.Histogram("notifications_search_duration_seconds", "Search latency", nil)
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	MetricsPort string
	QdrantURL   string
	Collection  string
	OllamaURL   string
	OllamaModel string
	Stdio       bool
}

func loadConfig() Config {
	return Config{
		Port:        envOr("PORT", "8080"),
		MetricsPort: envOr("METRICS_PORT", "9091"),
		QdrantURL:   envOr("QDRANT_URL", "localhost:6334"),
		Collection:  envOr("QDRANT_COLLECTION", "managed_notifications"),
		OllamaURL:   envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: envOr("OLLAMA_MODEL", "nomic-embed-text"),
		Stdio:       os.Getenv("MCP_STDIO") == "1",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	exists, err := vectorStore.Exists(ctx)
	if err != nil {
		return fmt.Errorf("qdrant check collection: %w", err)
	}
	if !exists {
		return fmt.Errorf("collection %q not found, run the ingest command first", cfg.Collection)
	}

	embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.OllamaModel)

	svc := search.New(embedder, vectorStore, search.Options{
		EmbeddingModel: cfg.OllamaModel,
		StoreAddress:   cfg.QdrantURL,
	}, logger)

	server := newMCPServer(svc, logger)

	if cfg.Stdio {
		logger.Info("mcp server starting on stdio")
		return server.Run(ctx, &mcp.StdioTransport{})
	}

	stopRuntime := make(chan struct{})
	defer close(stopRuntime)
	go met.CollectRuntime(15*time.Second, stopRuntime)
	met.ServeAsync(atoi(cfg.MetricsPort, 9091))

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel(serverName),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mcp server starting", "port", cfg.Port, "collection", cfg.Collection)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func atoi(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
