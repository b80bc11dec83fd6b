package vectorstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/AuronCrow10/CosloAI-v2-sub001/domain"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
)

var _ domain.VectorStore = (*QdrantClient)(nil)

// QdrantClient implements the domain.VectorStore interface using Qdrant.
// Chunks are partitioned into one collection per embedding model so that
// vectors of different dimensions never share an index.
type QdrantClient struct {
	client qdrant.PointsClient
}

// NewQdrantClient creates a new QdrantClient.
// When addr is empty it falls back to the QDRANT_ADDR environment variable.
func NewQdrantClient(addr string) (*QdrantClient, error) {
	qdrantAddr := addr
	if qdrantAddr == "" {
		qdrantAddr = os.Getenv("QDRANT_ADDR")
	}
	if qdrantAddr == "" {
		// Use default address if nothing is configured
		qdrantAddr = "localhost:6334"
		log.Printf("Qdrant address not configured, using default: %s\n", qdrantAddr)
	}

	conn, err := grpc.NewClient(qdrantAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("could not connect to Qdrant: %w", err)
	}

	// Create PointsClient for operations on points (vectors)
	pointsClient := qdrant.NewPointsClient(conn)

	// Create CollectionsClient for collection management
	collectionsClient := qdrant.NewCollectionsClient(conn)

	client := &QdrantClient{
		client: pointsClient,
	}

	// Ensure one collection per supported embedding model
	err = client.ensureCollectionsExist(context.Background(), collectionsClient)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure collections exist: %w", err)
	}

	return client, nil
}

// ensureCollectionsExist checks the collection of every supported embedding
// model and creates the missing ones with that model's vector size.
func (c *QdrantClient) ensureCollectionsExist(ctx context.Context, collectionsClient qdrant.CollectionsClient) error {
	for _, model := range domain.EmbeddingModels() {
		collectionName := model.Collection()

		// Check if collection exists
		_, err := collectionsClient.Get(ctx, &qdrant.GetCollectionInfoRequest{
			CollectionName: collectionName,
		})
		if err == nil {
			continue
		}

		// Collection doesn't exist, create it
		log.Printf("Collection %s does not exist, creating...\n", collectionName)

		_, err = collectionsClient.Create(ctx, &qdrant.CreateCollection{
			CollectionName: collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(model.Dimensions()),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", collectionName, err)
		}

		log.Printf("Collection %s created successfully\n", collectionName)
	}

	return nil
}

// Helper function to convert interface{} map to map[string]*qdrant.Value
func mapToPayload(data map[string]interface{}) (map[string]*qdrant.Value, error) {
	payload := make(map[string]*qdrant.Value)
	for key, val := range data {
		switch v := val.(type) {
		case string:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		case int:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}
		case int64:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
		case float64:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
		case bool:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
		case []string:
			listValues := make([]*qdrant.Value, len(v))
			for i, s := range v {
				listValues[i] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
			}
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: listValues}}}
		default:
			// Handle other types or return an error if unsupported
			return nil, fmt.Errorf("unsupported type for payload field '%s': %T", key, v)
		}
	}
	return payload, nil
}

// InsertChunk adds a single chunk to the collection of the given model.
func (c *QdrantClient) InsertChunk(ctx context.Context, model domain.EmbeddingModel, chunk domain.Chunk) error {
	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("chunk for %s has no embedding", chunk.URL)
	}

	pointID := chunk.ID
	if pointID == "" {
		u, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate UUID: %w", err)
		}
		pointID = u.String()
	}

	// Convert chunk metadata to Qdrant payload
	payloadMap := map[string]interface{}{
		"client_id":   chunk.ClientID,
		"url":         chunk.URL,
		"domain":      chunk.Domain,
		"chunk_index": chunk.ChunkIndex,
		"text":        chunk.Text,
		"created_at":  chunk.CreatedAt.UTC().Format(time.RFC3339),
	}

	qdrantPayload, err := mapToPayload(payloadMap)
	if err != nil {
		return fmt.Errorf("failed to convert payload for chunk %s: %w", pointID, err)
	}

	points := []*qdrant.PointStruct{{
		Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: pointID}},
		Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: chunk.Embedding}}},
		Payload: qdrantPayload,
	}}

	_, err = c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: model.Collection(),
		Points:         points,
		Wait:           proto.Bool(true), // Use proto.Bool for boolean pointers, ensure writes are acknowledged
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point to Qdrant: %w", err)
	}

	return nil
}

// SearchChunks finds the chunks of the given client closest to the query
// embedding. An empty domainFilter searches all of the client's domains.
func (c *QdrantClient) SearchChunks(ctx context.Context, clientID string, model domain.EmbeddingModel, query domain.Embedding, limit int, domainFilter string) ([]domain.SearchResult, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("client_id", clientID),
		},
	}
	if domainFilter != "" {
		filter.Must = append(filter.Must, qdrant.NewMatch("domain", domainFilter))
	}

	searchRequest := &qdrant.SearchPoints{
		CollectionName: model.Collection(),
		Vector:         query,
		Limit:          uint64(limit),
		Filter:         filter,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	}

	searchResult, err := c.client.Search(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search points in Qdrant: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(searchResult.GetResult()))
	for _, hit := range searchResult.GetResult() {
		payload := hit.GetPayload()
		if payload == nil {
			continue
		}

		pointID := ""
		if hit.GetId() != nil {
			if uuidVal, ok := hit.GetId().GetPointIdOptions().(*qdrant.PointId_Uuid); ok {
				pointID = uuidVal.Uuid
			}
		}

		// Safely extract fields from the payload map
		createdAt, _ := time.Parse(time.RFC3339, payload["created_at"].GetStringValue())

		results = append(results, domain.SearchResult{
			ID:         pointID,
			URL:        payload["url"].GetStringValue(),
			ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
			Text:       payload["text"].GetStringValue(),
			Score:      hit.GetScore(),
			CreatedAt:  createdAt,
		})
	}

	return results, nil
}

// DeleteClientChunks removes every chunk of the given client from all model
// collections. Deleting a client that has no chunks is a no-op.
func (c *QdrantClient) DeleteClientChunks(ctx context.Context, clientID string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("client_id", clientID),
		},
	}

	for _, model := range domain.EmbeddingModels() {
		_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: model.Collection(),
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
			},
			Wait: proto.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("failed to delete points from %s: %w", model.Collection(), err)
		}
	}

	return nil
}
