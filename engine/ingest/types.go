package ingest

import (
	"github.com/openshift/managed-notifications/engine/semantic"
)

// Metadata is the structured payload stored with each indexed notification.
type Metadata struct {
	FilePath     string
	Folder       string
	Severity     string
	ServiceName  string
	LogType      string
	InternalOnly bool
	Variables    string // JSON array of placeholder names, sorted
	FullJSON     string // the entire original record, serialized
}

// Payload renders the metadata as a vector-store payload map.
func (m Metadata) Payload() map[string]any {
	return map[string]any{
		semantic.KeyFilePath:     m.FilePath,
		semantic.KeyFolder:       m.Folder,
		semantic.KeySeverity:     m.Severity,
		semantic.KeyServiceName:  m.ServiceName,
		semantic.KeyLogType:      m.LogType,
		semantic.KeyInternalOnly: m.InternalOnly,
		semantic.KeyVariables:    m.Variables,
		semantic.KeyFullJSON:     m.FullJSON,
	}
}

// Document is one notification prepared for indexing: a stable ID, the
// searchable text to embed and store, and the metadata payload.
type Document struct {
	ID   string
	Text string
	Meta Metadata
}

// Batch is the result of one corpus walk: the surviving documents plus the
// progress counts emitted for observability.
type Batch struct {
	Docs       []Document
	FilesFound int
}

// Texts returns the document texts in order, for batch embedding.
func (b *Batch) Texts() []string {
	texts := make([]string, len(b.Docs))
	for i, d := range b.Docs {
		texts[i] = d.Text
	}
	return texts
}
