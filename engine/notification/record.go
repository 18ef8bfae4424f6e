// Package notification models the templated service-log notifications that
// make up the corpus: JSON records with free-text fields containing
// ${VARIABLE} placeholders, plus arbitrary fields we preserve but do not
// interpret.
package notification

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Recognized field names, in searchable-text composition order.
var searchableFields = []string{"summary", "description", "log_type", "service_name"}

// Record is a single notification document. Recognized fields are lifted out
// of the JSON object; the full object is retained so the original template
// can be returned verbatim at query time.
type Record struct {
	Summary      string
	Description  string
	ServiceName  string
	LogType      string
	Severity     string
	InternalOnly bool
	Tags         []string

	raw map[string]any
}

// Parse decodes a notification record from JSON. Unrecognized fields are kept
// in the raw form returned by FullJSON but are not individually indexed.
func Parse(data []byte) (*Record, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("notification: parse: %w", err)
	}
	r := &Record{raw: m}
	r.Summary = stringField(m, "summary")
	r.Description = stringField(m, "description")
	r.ServiceName = stringField(m, "service_name")
	r.LogType = stringField(m, "log_type")
	r.Severity = stringField(m, "severity")
	if b, ok := m["internal_only"].(bool); ok {
		r.InternalOnly = b
	}
	if tags, ok := m["_tags"].([]any); ok {
		for _, t := range tags {
			r.Tags = append(r.Tags, coerceString(t))
		}
	}
	return r, nil
}

// SearchableText flattens the record into the string that is embedded and
// stored as the retrievable document text: summary, description, log_type,
// service_name, then each tag in order, space separated. Absent or empty
// fields contribute nothing.
func (r *Record) SearchableText() string {
	var parts []string
	for _, f := range searchableFields {
		if v := coerceString(r.raw[f]); v != "" {
			parts = append(parts, v)
		}
	}
	for _, t := range r.Tags {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Variables returns the sorted, deduplicated placeholder names found in the
// summary and description fields.
func (r *Record) Variables() []string {
	set := map[string]struct{}{}
	for _, text := range []string{r.Summary, r.Description} {
		for _, v := range ExtractPlaceholders(text) {
			set[v] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// FullJSON re-serializes the entire original record, unrecognized fields
// included.
func (r *Record) FullJSON() string {
	data, err := json.Marshal(r.raw)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// SeverityOrUnknown returns the severity, defaulting to "Unknown" when the
// field is absent or empty. ServiceNameOrUnknown and LogTypeOrUnknown behave
// the same for their fields.
func (r *Record) SeverityOrUnknown() string    { return orUnknown(r.Severity) }
func (r *Record) ServiceNameOrUnknown() string { return orUnknown(r.ServiceName) }
func (r *Record) LogTypeOrUnknown() string     { return orUnknown(r.LogType) }

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func stringField(m map[string]any, key string) string {
	return coerceString(m[key])
}

// coerceString renders a JSON value as text the way the corpus expects:
// strings pass through, scalars are formatted, nil and composites are empty.
func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool, json.Number:
		return fmt.Sprint(t)
	default:
		return ""
	}
}
