// Package semantic owns all Qdrant operations for the notification index:
// collection lifecycle, bulk upsert, nearest-neighbor queries, and the
// full-payload scan used by corpus statistics.
package semantic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Payload keys stored with every point.
const (
	KeyDocID        = "doc_id"
	KeyDocument     = "document"
	KeyFilePath     = "file_path"
	KeyFolder       = "folder"
	KeySeverity     = "severity"
	KeyServiceName  = "service_name"
	KeyLogType      = "log_type"
	KeyInternalOnly = "internal_only"
	KeyVariables    = "variables"
	KeyFullJSON     = "full_json"
)

// scrollPageSize is the page size for AllPayloads scans.
const scrollPageSize = 256

// VectorStore is the sole owner of all Qdrant operations.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New creates a VectorStore connected to Qdrant at the given gRPC address.
func New(addr string, collection string) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients creates a VectorStore from pre-built clients. Used in tests.
func NewWithClients(points pb.PointsClient, collections pb.CollectionsClient, collection string) *VectorStore {
	return &VectorStore{points: points, collections: collections, collection: collection}
}

// Close closes the underlying gRPC connection.
func (v *VectorStore) Close() error {
	if v.conn == nil {
		return nil
	}
	return v.conn.Close()
}

// Collection returns the collection name this store operates on.
func (v *VectorStore) Collection() string { return v.collection }

// Exists reports whether the collection is present in Qdrant.
func (v *VectorStore) Exists(ctx context.Context) (bool, error) {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == v.collection {
			return true, nil
		}
	}
	return false, nil
}

// Recreate drops the collection if it exists and creates a fresh empty one
// with the given vector dimensionality. A rebuild always starts from an
// empty collection; there is no merge path.
func (v *VectorStore) Recreate(ctx context.Context, dims int) error {
	exists, err := v.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if _, err := v.collections.Delete(ctx, &pb.DeleteCollection{
			CollectionName: v.collection,
		}); err != nil {
			return fmt.Errorf("semantic: delete collection %s: %w", v.collection, err)
		}
	}

	d := uint64(dims)
	_, err = v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: v.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     d,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", v.collection, err)
	}
	return nil
}

// Upsert stores notification records. Qdrant point IDs must be UUIDs, so the
// caller-facing document ID is kept in the payload and the point ID is a
// deterministic SHA1 UUID derived from it.
func (v *VectorStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		payload := make(map[string]*pb.Value, len(r.Payload)+2)
		for k, val := range r.Payload {
			payload[k] = toValue(val)
		}
		payload[KeyDocID] = toValue(r.ID)
		payload[KeyDocument] = toValue(r.Document)

		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(r.ID)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Vector},
				},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: v.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(records), err)
	}
	return nil
}

// Query performs k-NN similarity search and returns the raw match bundle.
// The collection uses cosine distance, for which Qdrant scores are cosine
// similarity; distance is reported as 1 - score.
func (v *VectorStore) Query(ctx context.Context, vector []float32, k int) (Matches, error) {
	resp, err := v.points.Search(ctx, &pb.SearchPoints{
		CollectionName: v.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return Matches{}, fmt.Errorf("semantic: search: %w", err)
	}

	hits := resp.GetResult()
	m := Matches{
		IDs:       make([]string, 0, len(hits)),
		Distances: make([]float32, 0, len(hits)),
		Payloads:  make([]map[string]any, 0, len(hits)),
		Documents: make([]string, 0, len(hits)),
	}
	for _, h := range hits {
		payload := fromPayload(h.GetPayload())
		id, _ := payload[KeyDocID].(string)
		if id == "" {
			id = h.GetId().GetUuid()
		}
		doc, _ := payload[KeyDocument].(string)

		m.IDs = append(m.IDs, id)
		m.Distances = append(m.Distances, 1-h.GetScore())
		m.Payloads = append(m.Payloads, payload)
		m.Documents = append(m.Documents, doc)
	}
	return m, nil
}

// Count returns the exact number of points in the collection.
func (v *VectorStore) Count(ctx context.Context) (uint64, error) {
	exact := true
	resp, err := v.points.Count(ctx, &pb.CountPoints{
		CollectionName: v.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("semantic: count: %w", err)
	}
	return resp.GetResult().GetCount(), nil
}

// AllPayloads scrolls the full collection and returns every point's payload.
// Read-only; used by the corpus stats aggregator.
func (v *VectorStore) AllPayloads(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	limit := uint32(scrollPageSize)
	var offset *pb.PointId

	for {
		resp, err := v.points.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: v.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		})
		if err != nil {
			return nil, fmt.Errorf("semantic: scroll: %w", err)
		}
		for _, p := range resp.GetResult() {
			out = append(out, fromPayload(p.GetPayload()))
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			return out, nil
		}
	}
}

// PointID derives the deterministic Qdrant point UUID for a document ID.
func PointID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docID)).String()
}

func toValue(val any) *pb.Value {
	switch tv := val.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
	}
}

func fromPayload(payload map[string]*pb.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, val := range payload {
		switch kind := val.GetKind().(type) {
		case *pb.Value_StringValue:
			out[k] = kind.StringValue
		case *pb.Value_BoolValue:
			out[k] = kind.BoolValue
		case *pb.Value_IntegerValue:
			out[k] = kind.IntegerValue
		case *pb.Value_DoubleValue:
			out[k] = kind.DoubleValue
		}
	}
	return out
}
