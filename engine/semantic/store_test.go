package semantic

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// --- mocks ---

type mockPoints struct {
	pb.PointsClient
	upsertReq  *pb.UpsertPoints
	upsertErr  error
	searchResp *pb.SearchResponse
	searchErr  error
	countResp  *pb.CountResponse
	countErr   error
	scrollResp []*pb.ScrollResponse
	scrollErr  error
	scrollCall int
}

func (m *mockPoints) Upsert(_ context.Context, req *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.upsertReq = req
	return &pb.PointsOperationResponse{}, m.upsertErr
}

func (m *mockPoints) Search(_ context.Context, _ *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	return m.searchResp, m.searchErr
}

func (m *mockPoints) Count(_ context.Context, _ *pb.CountPoints, _ ...grpc.CallOption) (*pb.CountResponse, error) {
	return m.countResp, m.countErr
}

func (m *mockPoints) Scroll(_ context.Context, _ *pb.ScrollPoints, _ ...grpc.CallOption) (*pb.ScrollResponse, error) {
	if m.scrollErr != nil {
		return nil, m.scrollErr
	}
	resp := m.scrollResp[m.scrollCall]
	m.scrollCall++
	return resp, nil
}

type mockCollections struct {
	pb.CollectionsClient
	existing  []string
	listErr   error
	created   []*pb.CreateCollection
	createErr error
	deleted   []string
	deleteErr error
}

func (m *mockCollections) List(_ context.Context, _ *pb.ListCollectionsRequest, _ ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	descs := make([]*pb.CollectionDescription, len(m.existing))
	for i, name := range m.existing {
		descs[i] = &pb.CollectionDescription{Name: name}
	}
	return &pb.ListCollectionsResponse{Collections: descs}, nil
}

func (m *mockCollections) Create(_ context.Context, req *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	m.created = append(m.created, req)
	return &pb.CollectionOperationResponse{Result: true}, m.createErr
}

func (m *mockCollections) Delete(_ context.Context, req *pb.DeleteCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	m.deleted = append(m.deleted, req.GetCollectionName())
	return &pb.CollectionOperationResponse{Result: true}, m.deleteErr
}

func strValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

// --- tests ---

func TestExists(t *testing.T) {
	cols := &mockCollections{existing: []string{"other", "managed_notifications"}}
	vs := NewWithClients(&mockPoints{}, cols, "managed_notifications")
	ok, err := vs.Exists(context.Background())
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("expected collection to exist")
	}

	vs2 := NewWithClients(&mockPoints{}, &mockCollections{existing: []string{"other"}}, "managed_notifications")
	ok, err = vs2.Exists(context.Background())
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("expected collection to be absent")
	}
}

func TestRecreate_DropsExisting(t *testing.T) {
	cols := &mockCollections{existing: []string{"managed_notifications"}}
	vs := NewWithClients(&mockPoints{}, cols, "managed_notifications")
	if err := vs.Recreate(context.Background(), 768); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	if len(cols.deleted) != 1 || cols.deleted[0] != "managed_notifications" {
		t.Errorf("deleted = %v", cols.deleted)
	}
	if len(cols.created) != 1 {
		t.Fatalf("created = %d collections", len(cols.created))
	}
	params := cols.created[0].GetVectorsConfig().GetParams()
	if params.GetSize() != 768 {
		t.Errorf("dims = %d", params.GetSize())
	}
	if params.GetDistance() != pb.Distance_Cosine {
		t.Errorf("distance = %v", params.GetDistance())
	}
}

func TestRecreate_FreshWhenAbsent(t *testing.T) {
	cols := &mockCollections{}
	vs := NewWithClients(&mockPoints{}, cols, "managed_notifications")
	if err := vs.Recreate(context.Background(), 4); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	if len(cols.deleted) != 0 {
		t.Errorf("unexpected delete of absent collection: %v", cols.deleted)
	}
	if len(cols.created) != 1 {
		t.Errorf("created = %d collections", len(cols.created))
	}
}

func TestUpsert_PayloadAndPointID(t *testing.T) {
	points := &mockPoints{}
	vs := NewWithClients(points, &mockCollections{}, "managed_notifications")

	rec := Record{
		ID:       "notification_0",
		Vector:   []float32{0.1, 0.2},
		Document: "Pod failed",
		Payload: map[string]any{
			KeyFolder:       "hcp",
			KeyInternalOnly: true,
		},
	}
	if err := vs.Upsert(context.Background(), []Record{rec}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	pts := points.upsertReq.GetPoints()
	if len(pts) != 1 {
		t.Fatalf("points = %d", len(pts))
	}
	p := pts[0]
	if got := p.GetId().GetUuid(); got != PointID("notification_0") {
		t.Errorf("point id = %s", got)
	}
	if got := p.GetPayload()[KeyDocID].GetStringValue(); got != "notification_0" {
		t.Errorf("doc_id payload = %q", got)
	}
	if got := p.GetPayload()[KeyDocument].GetStringValue(); got != "Pod failed" {
		t.Errorf("document payload = %q", got)
	}
	if !p.GetPayload()[KeyInternalOnly].GetBoolValue() {
		t.Error("internal_only payload lost")
	}
}

func TestUpsert_Empty(t *testing.T) {
	points := &mockPoints{}
	vs := NewWithClients(points, &mockCollections{}, "managed_notifications")
	if err := vs.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if points.upsertReq != nil {
		t.Error("expected no upsert call for empty batch")
	}
}

func TestQuery_ConvertsScoreToDistance(t *testing.T) {
	points := &mockPoints{
		searchResp: &pb.SearchResponse{
			Result: []*pb.ScoredPoint{
				{
					Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID("notification_3")}},
					Score: 0.9,
					Payload: map[string]*pb.Value{
						KeyDocID:    strValue("notification_3"),
						KeyDocument: strValue("Pod ${POD} failed"),
						KeyFolder:   strValue("hcp"),
					},
				},
			},
		},
	}
	vs := NewWithClients(points, &mockCollections{}, "managed_notifications")

	m, err := vs.Query(context.Background(), []float32{0.1}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("matches = %d", m.Len())
	}
	if m.IDs[0] != "notification_3" {
		t.Errorf("id = %s", m.IDs[0])
	}
	if d := m.Distances[0]; d < 0.099 || d > 0.101 {
		t.Errorf("distance = %f, want ~0.1", d)
	}
	if m.Documents[0] != "Pod ${POD} failed" {
		t.Errorf("document = %q", m.Documents[0])
	}
	if m.Payloads[0][KeyFolder] != "hcp" {
		t.Errorf("folder payload = %v", m.Payloads[0][KeyFolder])
	}
}

func TestQuery_NoHits(t *testing.T) {
	points := &mockPoints{searchResp: &pb.SearchResponse{}}
	vs := NewWithClients(points, &mockCollections{}, "managed_notifications")
	m, err := vs.Query(context.Background(), []float32{0.1}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("matches = %d, want 0", m.Len())
	}
}

func TestQuery_Error(t *testing.T) {
	points := &mockPoints{searchErr: errors.New("unavailable")}
	vs := NewWithClients(points, &mockCollections{}, "managed_notifications")
	if _, err := vs.Query(context.Background(), []float32{0.1}, 5); err == nil {
		t.Fatal("expected error")
	}
}

func TestCount(t *testing.T) {
	points := &mockPoints{
		countResp: &pb.CountResponse{Result: &pb.CountResult{Count: 42}},
	}
	vs := NewWithClients(points, &mockCollections{}, "managed_notifications")
	n, err := vs.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d", n)
	}
}

func TestAllPayloads_Pages(t *testing.T) {
	points := &mockPoints{
		scrollResp: []*pb.ScrollResponse{
			{
				Result: []*pb.RetrievedPoint{
					{Payload: map[string]*pb.Value{KeyFolder: strValue("hcp")}},
					{Payload: map[string]*pb.Value{KeyFolder: strValue("osd")}},
				},
				NextPageOffset: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "next"}},
			},
			{
				Result: []*pb.RetrievedPoint{
					{Payload: map[string]*pb.Value{KeyFolder: strValue("rosa")}},
				},
			},
		},
	}
	vs := NewWithClients(points, &mockCollections{}, "managed_notifications")

	payloads, err := vs.AllPayloads(context.Background())
	if err != nil {
		t.Fatalf("AllPayloads: %v", err)
	}
	if len(payloads) != 3 {
		t.Fatalf("payloads = %d", len(payloads))
	}
	if payloads[2][KeyFolder] != "rosa" {
		t.Errorf("last folder = %v", payloads[2][KeyFolder])
	}
	if points.scrollCall != 2 {
		t.Errorf("scroll calls = %d", points.scrollCall)
	}
}

func TestPointID_Deterministic(t *testing.T) {
	if PointID("notification_1") != PointID("notification_1") {
		t.Error("point ID not deterministic")
	}
	if PointID("notification_1") == PointID("notification_2") {
		t.Error("distinct doc IDs map to same point ID")
	}
}
