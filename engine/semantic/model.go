package semantic

// Record is one indexed notification ready for upsert: the caller-facing
// document ID, its embedding, the literal searchable text, and the metadata
// payload stored alongside it.
type Record struct {
	ID       string
	Vector   []float32
	Document string
	Payload  map[string]any
}

// Matches is the raw result bundle from a nearest-neighbor query. The slices
// are parallel and aligned by index; ranking is ascending by distance.
type Matches struct {
	IDs       []string
	Distances []float32
	Payloads  []map[string]any
	Documents []string
}

// Len returns the number of matched IDs. Other slices may be shorter if the
// store omitted them.
func (m Matches) Len() int { return len(m.IDs) }
