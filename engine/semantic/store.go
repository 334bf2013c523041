// Package semantic owns the Qdrant collection holding knowledge cards.
package semantic

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/WessleyAI/courtside/engine/domain"
)

type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	CreateFieldIndex(ctx context.Context, in *pb.CreateFieldIndexCollection, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
}

type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// keyword fields indexed for filtering.
var indexedFields = []string{KeySport, KeyContentType, KeyNamespace}

// VectorStore is the sole owner of all Qdrant operations. Cards are keyed
// by record id within a namespace; upserts replace existing points.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
	namespace   string
}

// New creates a VectorStore connected to Qdrant at the given gRPC address.
func New(addr, collection, namespace string) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	vs := NewWithClients(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), collection, namespace)
	vs.conn = conn
	return vs, nil
}

// NewWithClients builds a VectorStore over existing gRPC clients.
func NewWithClients(points pointsAPI, collections collectionsAPI, collection, namespace string) *VectorStore {
	return &VectorStore{
		points:      points,
		collections: collections,
		collection:  collection,
		namespace:   namespace,
	}
}

// Namespace returns the namespace cards are written into.
func (v *VectorStore) Namespace() string { return v.namespace }

// Close closes the underlying gRPC connection, if any.
func (v *VectorStore) Close() error {
	if v.conn == nil {
		return nil
	}
	return v.conn.Close()
}

// EnsureCollection creates the collection and its payload indexes if the
// collection doesn't exist.
func (v *VectorStore) EnsureCollection(ctx context.Context, dims int) error {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == v.collection {
			return nil
		}
	}

	_, err = v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: v.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", v.collection, err)
	}

	wait := true
	kw := pb.FieldType_FieldTypeKeyword
	for _, field := range indexedFields {
		_, err := v.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
			CollectionName: v.collection,
			Wait:           &wait,
			FieldName:      field,
			FieldType:      &kw,
		})
		if err != nil {
			return fmt.Errorf("semantic: index %s: %w", field, err)
		}
	}
	return nil
}

// DeleteCollection deletes the collection.
func (v *VectorStore) DeleteCollection(ctx context.Context) error {
	_, err := v.collections.Delete(ctx, &pb.DeleteCollection{
		CollectionName: v.collection,
	})
	if err != nil {
		return fmt.Errorf("semantic: delete collection %s: %w", v.collection, err)
	}
	return nil
}

// UpsertCards writes cards with their embeddings in one call.
func (v *VectorStore) UpsertCards(ctx context.Context, cards []domain.KnowledgeCard, embeddings [][]float32) error {
	if len(cards) != len(embeddings) {
		return fmt.Errorf("semantic: %d cards but %d embeddings", len(cards), len(embeddings))
	}
	records := make([]VectorRecord, len(cards))
	for i, c := range cards {
		records[i] = RecordFor(v.namespace, c, embeddings[i])
	}
	return v.Upsert(ctx, records)
}

// Upsert stores records into Qdrant.
func (v *VectorStore) Upsert(ctx context.Context, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		payload := make(map[string]*pb.Value, len(r.Payload))
		for k, val := range r.Payload {
			payload[k] = toValue(val)
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Embedding},
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
		return fmt.Errorf("semantic: upsert %d points: %w: %v", len(records), domain.ErrStore, err)
	}
	return nil
}

func toValue(val any) *pb.Value {
	switch tv := val.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
	case []string:
		list := make([]*pb.Value, len(tv))
		for i, s := range tv {
			list[i] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: list}}}
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

// Search performs k-NN similarity search within the namespace, most
// relevant first.
func (v *VectorStore) Search(ctx context.Context, embedding []float32, topK int, f Filter) ([]Hit, error) {
	must := []*pb.Condition{fieldMatch(KeyNamespace, v.namespace)}
	if f.Sport != "" {
		must = append(must, fieldMatch(KeySport, f.Sport))
	}
	if f.ContentType != "" {
		must = append(must, fieldMatch(KeyContentType, f.ContentType))
	}

	resp, err := v.points.Search(ctx, &pb.SearchPoints{
		CollectionName: v.collection,
		Vector:         embedding,
		Limit:          uint64(topK),
		Filter:         &pb.Filter{Must: must},
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", err)
	}

	hits := make([]Hit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		p := r.GetPayload()
		hits[i] = Hit{
			PointID:    r.GetId().GetUuid(),
			RecordID:   p[KeyRecordID].GetStringValue(),
			Score:      r.GetScore(),
			Text:       p[KeyChunkText].GetStringValue(),
			Headline:   p[KeyHeadline].GetStringValue(),
			Date:       p[KeyEventDate].GetStringValue(),
			Sport:      p[KeySport].GetStringValue(),
			Status:     p[KeyStatus].GetStringValue(),
			Performers: DecodePerformers(p[KeyPerformers].GetStringValue()),
			Context:    DecodeContext(p[KeyContext].GetStringValue()),
		}
	}
	return hits, nil
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}
