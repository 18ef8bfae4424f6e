// Package ingest builds the notification index: it walks a corpus of JSON
// notification files, derives searchable text and metadata per document, and
// rebuilds the vector-store collection from scratch in one batch.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/openshift/managed-notifications/engine/notification"
	"github.com/openshift/managed-notifications/pkg/fn"
)

// errEmptyText marks records whose composed searchable text is empty; they
// are excluded from the batch without being treated as corpus failures.
var errEmptyText = errors.New("ingest: empty searchable text")

// fileRef identifies one corpus file during a walk.
type fileRef struct {
	root    string
	rel     string
	ordinal int
}

// loaded pairs a file with its parsed record.
type loaded struct {
	ref fileRef
	rec *notification.Record
}

// loadRecord reads and parses one notification file.
var loadRecord fn.Stage[fileRef, loaded] = func(_ context.Context, ref fileRef) fn.Result[loaded] {
	data, err := os.ReadFile(filepath.Join(ref.root, ref.rel))
	if err != nil {
		return fn.Errf[loaded]("ingest: read %s: %w", ref.rel, err)
	}
	rec, err := notification.Parse(data)
	if err != nil {
		return fn.Errf[loaded]("ingest: %s: %w", ref.rel, err)
	}
	return fn.Ok(loaded{ref: ref, rec: rec})
}

// buildDocument derives the indexed document from a parsed record.
var buildDocument fn.Stage[loaded, Document] = func(_ context.Context, l loaded) fn.Result[Document] {
	text := l.rec.SearchableText()
	if strings.TrimSpace(text) == "" {
		return fn.Err[Document](errEmptyText)
	}

	vars := l.rec.Variables()
	if vars == nil {
		vars = []string{}
	}
	varsJSON, err := json.Marshal(vars)
	if err != nil {
		return fn.Errf[Document]("ingest: %s: marshal variables: %w", l.ref.rel, err)
	}

	return fn.Ok(Document{
		ID:   fmt.Sprintf("notification_%d", l.ref.ordinal),
		Text: text,
		Meta: Metadata{
			FilePath:     filepath.ToSlash(l.ref.rel),
			Folder:       folderOf(l.ref.rel),
			Severity:     l.rec.SeverityOrUnknown(),
			ServiceName:  l.rec.ServiceNameOrUnknown(),
			LogType:      l.rec.LogTypeOrUnknown(),
			InternalOnly: l.rec.InternalOnly,
			Variables:    string(varsJSON),
			FullJSON:     l.rec.FullJSON(),
		},
	})
}

// BuildBatch walks the corpus under root and builds the ingestion batch.
// Unreadable or malformed files are logged and skipped; records with empty
// searchable text are excluded silently. Ordinals follow walk order over all
// discovered files, so skipped files still consume an ordinal.
func BuildBatch(ctx context.Context, root string, logger *slog.Logger) (*Batch, error) {
	if logger == nil {
		logger = slog.Default()
	}

	files, err := DiscoverFiles(root)
	if err != nil {
		return nil, fmt.Errorf("ingest: walk %s: %w", root, err)
	}
	logger.Info("corpus walk complete", "root", root, "files_found", len(files))

	pipeline := fn.Then(
		fn.Traced("ingest.load", loadRecord),
		fn.Traced("ingest.build", buildDocument),
	)

	batch := &Batch{FilesFound: len(files)}
	for ordinal, rel := range files {
		result := pipeline(ctx, fileRef{root: root, rel: rel, ordinal: ordinal})
		if result.IsErr() {
			_, err := result.Unwrap()
			if errors.Is(err, errEmptyText) {
				logger.Debug("skipping record with no searchable text", "file", rel)
			} else {
				logger.Warn("skipping unprocessable file", "file", rel, "error", err)
			}
			continue
		}
		doc, _ := result.Unwrap()
		batch.Docs = append(batch.Docs, doc)
	}

	logger.Info("notifications processed", "processed", len(batch.Docs), "files_found", batch.FilesFound)
	return batch, nil
}
