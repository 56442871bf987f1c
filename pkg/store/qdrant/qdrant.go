// Package qdrant implements pkg/store's Driver on a Qdrant vector collection.
//
// Memories are stored as points whose vector comes from the configured
// embedder and whose payload carries the memory content and metadata.
// Semantic search is a vector query scoped by payload filters.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/embeddings"
	"github.com/covoxlabs/recollect/pkg/store"
)

const (
	// DefaultCollection is the collection memories live in.
	DefaultCollection = "recollect_memories"

	// DefaultDimensions matches nomic-embed-text output.
	DefaultDimensions = 768
)

// Config holds connection and collection settings for the Qdrant driver.
type Config struct {
	// Host is the Qdrant gRPC host. Defaults to "localhost".
	Host string

	// Port is the Qdrant gRPC port. Defaults to 6334.
	Port int

	// APIKey authenticates against Qdrant Cloud. Empty for local instances.
	APIKey string

	// Collection is the collection name. Defaults to DefaultCollection.
	Collection string

	// Dimensions is the embedding vector size. Defaults to DefaultDimensions.
	Dimensions uint64
}

// Driver stores memories in a Qdrant collection.
type Driver struct {
	client     *qdrant.Client
	embedder   embeddings.Embedder
	collection string
	logger     *zap.Logger
}

// NewDriver connects to Qdrant and ensures the memory collection exists.
func NewDriver(ctx context.Context, cfg Config, embedder embeddings.Embedder, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 6334
	}
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = DefaultDimensions
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.APIKey != "",
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("checking collection %q: %w", collection, err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dims,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("creating collection %q: %w", collection, err)
		}
		logger.Info("created qdrant collection", zap.String("collection", collection), zap.Uint64("dimensions", dims))
	}

	return &Driver{
		client:     client,
		embedder:   embedder,
		collection: collection,
		logger:     logger,
	}, nil
}

// Store embeds the content and upserts it as a new point.
func (d *Driver) Store(ctx context.Context, userID, content string, md store.Metadata) (string, error) {
	vector, err := d.embedder.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("embedding memory content: %w", err)
	}

	id := uuid.New().String()
	payload := payloadFromMetadata(userID, content, md)

	_, err = d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(id),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	if err != nil {
		return "", fmt.Errorf("upserting memory point: %w", err)
	}

	return id, nil
}

// Search runs a vector query scoped to userID and the given filters. An
// empty query lists matching points without scoring.
func (d *Driver) Search(ctx context.Context, userID, query string, f store.Filters, limit int) ([]store.Result, error) {
	filter := buildFilter(userID, f)

	if query == "" {
		return d.scroll(ctx, filter, limit)
	}

	vector, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding search query: %w", err)
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying memories: %w", err)
	}

	results := make([]store.Result, 0, len(points))
	for _, p := range points {
		mem := memoryFromPayload(p.GetId().GetUuid(), p.GetPayload())
		results = append(results, store.Result{Memory: mem, Score: float64(p.GetScore())})
	}
	return results, nil
}

func (d *Driver) scroll(ctx context.Context, filter *qdrant.Filter, limit int) ([]store.Result, error) {
	points, err := d.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: d.collection,
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}

	results := make([]store.Result, 0, len(points))
	for _, p := range points {
		mem := memoryFromPayload(p.GetId().GetUuid(), p.GetPayload())
		results = append(results, store.Result{Memory: mem, Score: 0})
	}
	return results, nil
}

// Reinforce bumps the salience counter on an existing point.
func (d *Driver) Reinforce(ctx context.Context, id string) error {
	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return fmt.Errorf("fetching memory %s: %w", id, err)
	}
	if len(points) == 0 {
		return store.ErrNotFound
	}

	salience := points[0].GetPayload()["salience"].GetIntegerValue()

	_, err = d.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: d.collection,
		Payload: qdrant.NewValueMap(map[string]any{
			"salience":      salience + 1,
			"reinforced_at": time.Now().UTC().Format(time.RFC3339),
		}),
		PointsSelector: qdrant.NewPointsSelector(qdrant.NewID(id)),
	})
	if err != nil {
		return fmt.Errorf("reinforcing memory %s: %w", id, err)
	}
	return nil
}

// Update patches payload fields on an existing point and returns the
// updated memory.
func (d *Driver) Update(ctx context.Context, id string, fields map[string]any) (*store.Memory, error) {
	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching memory %s: %w", id, err)
	}
	if len(points) == 0 {
		return nil, store.ErrNotFound
	}

	_, err = d.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: d.collection,
		Payload:        qdrant.NewValueMap(fields),
		PointsSelector: qdrant.NewPointsSelector(qdrant.NewID(id)),
	})
	if err != nil {
		return nil, fmt.Errorf("updating memory %s: %w", id, err)
	}

	mem := memoryFromPayload(id, points[0].GetPayload())
	if content, ok := fields["content"].(string); ok {
		mem.Content = content
	}
	if shareable, ok := fields["shareable"].(bool); ok {
		mem.Metadata.Shareable = shareable
	}
	if importance, ok := fields["importance"].(int); ok {
		mem.Metadata.Importance = importance
	}
	return &mem, nil
}

// Close tears down the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func buildFilter(userID string, f store.Filters) *qdrant.Filter {
	must := []*qdrant.Condition{qdrant.NewMatch("user_id", userID)}
	if f.AgentID != "" {
		must = append(must, qdrant.NewMatch("agent_id", f.AgentID))
	}
	if f.Kind != "" {
		must = append(must, qdrant.NewMatch("type", f.Kind))
	}
	return &qdrant.Filter{Must: must}
}

func payloadFromMetadata(userID, content string, md store.Metadata) map[string]any {
	entities := make([]any, len(md.Entities))
	for i, e := range md.Entities {
		entities[i] = e
	}

	return map[string]any{
		"user_id":          userID,
		"content":          content,
		"agent_id":         md.AgentID,
		"conversation_id":  md.ConversationID,
		"caller_id":        md.CallerID,
		"category":         md.Category,
		"importance":       md.Importance,
		"entities":         entities,
		"timestamp":        md.Timestamp,
		"shareable":        md.Shareable,
		"content_hash":     md.ContentHash,
		"privacy_filtered": md.PrivacyFiltered,
		"type":             md.Kind,
		"salience":         1,
	}
}

func memoryFromPayload(id string, payload map[string]*qdrant.Value) store.Memory {
	var entities []string
	for _, v := range payload["entities"].GetListValue().GetValues() {
		entities = append(entities, v.GetStringValue())
	}

	return store.Memory{
		ID:      id,
		Content: payload["content"].GetStringValue(),
		Metadata: store.Metadata{
			AgentID:         payload["agent_id"].GetStringValue(),
			ConversationID:  payload["conversation_id"].GetStringValue(),
			CallerID:        payload["caller_id"].GetStringValue(),
			Category:        payload["category"].GetStringValue(),
			Importance:      int(payload["importance"].GetIntegerValue()),
			Entities:        entities,
			Timestamp:       payload["timestamp"].GetStringValue(),
			Shareable:       payload["shareable"].GetBoolValue(),
			ContentHash:     payload["content_hash"].GetStringValue(),
			PrivacyFiltered: payload["privacy_filtered"].GetBoolValue(),
			Kind:            payload["type"].GetStringValue(),
		},
	}
}

var _ store.Driver = (*Driver)(nil)
