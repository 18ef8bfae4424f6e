// Package search answers problem-statement queries against the notification
// index and reports corpus-level statistics.
package search

import (
	"encoding/json"

	"github.com/openshift/managed-notifications/engine/semantic"
)

// Result is one reconstructed search hit, ready for serialization.
type Result struct {
	ID           string         `json:"id"`
	Distance     float64        `json:"distance"`
	Similarity   float64        `json:"similarity"`
	FilePath     string         `json:"file_path"`
	Folder       string         `json:"folder"`
	Severity     string         `json:"severity"`
	ServiceName  string         `json:"service_name"`
	LogType      string         `json:"log_type"`
	InternalOnly bool           `json:"internal_only"`
	Variables    []string       `json:"variables"`
	DocumentText string         `json:"document_text"`
	Notification map[string]any `json:"notification"`
}

// Reconstruct converts raw store matches into results. Matches arrive ranked
// ascending by distance and that order is preserved. Missing or malformed
// payload fields degrade to defaults rather than dropping the hit: an
// unparseable stored record becomes an empty notification object, an
// unparseable variables list becomes an empty list, and absent severity,
// service_name, and log_type fields become "Unknown".
func Reconstruct(m semantic.Matches) []Result {
	results := make([]Result, 0, m.Len())
	for i := range m.IDs {
		r := Result{
			ID:           m.IDs[i],
			Severity:     "Unknown",
			ServiceName:  "Unknown",
			LogType:      "Unknown",
			Variables:    []string{},
			Notification: map[string]any{},
		}
		if i < len(m.Distances) {
			r.Distance = float64(m.Distances[i])
		}
		r.Similarity = 1 - r.Distance
		if i < len(m.Documents) {
			r.DocumentText = m.Documents[i]
		}
		if i < len(m.Payloads) {
			fillFromPayload(&r, m.Payloads[i])
		}
		results = append(results, r)
	}
	return results
}

func fillFromPayload(r *Result, payload map[string]any) {
	r.FilePath, _ = payload[semantic.KeyFilePath].(string)
	r.Folder, _ = payload[semantic.KeyFolder].(string)
	if v, ok := payload[semantic.KeySeverity].(string); ok {
		r.Severity = v
	}
	if v, ok := payload[semantic.KeyServiceName].(string); ok {
		r.ServiceName = v
	}
	if v, ok := payload[semantic.KeyLogType].(string); ok {
		r.LogType = v
	}
	r.InternalOnly, _ = payload[semantic.KeyInternalOnly].(bool)

	if raw, ok := payload[semantic.KeyVariables].(string); ok && raw != "" {
		var vars []string
		if err := json.Unmarshal([]byte(raw), &vars); err == nil && vars != nil {
			r.Variables = vars
		}
	}
	if raw, ok := payload[semantic.KeyFullJSON].(string); ok && raw != "" {
		var full map[string]any
		if err := json.Unmarshal([]byte(raw), &full); err == nil && full != nil {
			r.Notification = full
		}
	}
}
