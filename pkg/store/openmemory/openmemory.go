// Package openmemory implements the store.Driver against an OpenMemory-style
// HTTP API.
package openmemory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/store"
)

// Driver talks to an OpenMemory-compatible server over HTTP.
type Driver struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for the OpenMemory driver.
type Config struct {
	// URL is the server base URL (e.g. "http://localhost:8080").
	URL string

	// APIKey, when set, is sent as a bearer token.
	APIKey string
}

func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("openmemory URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Driver{
		baseURL: c.URL,
		apiKey:  c.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

type storeRequest struct {
	UserID   string         `json:"user_id"`
	Content  string         `json:"content"`
	Metadata store.Metadata `json:"metadata"`
}

type storeResponse struct {
	MemoryID string `json:"memory_id"`
	ID       string `json:"id"`
}

// Store persists a memory and returns its id.
func (d *Driver) Store(ctx context.Context, userID, content string, md store.Metadata) (string, error) {
	var resp storeResponse
	err := d.post(ctx, "/memory/store", storeRequest{
		UserID:   userID,
		Content:  content,
		Metadata: md,
	}, &resp)
	if err != nil {
		return "", err
	}

	id := resp.MemoryID
	if id == "" {
		id = resp.ID
	}
	if id == "" {
		return "", fmt.Errorf("store response missing memory id: %w", store.ErrNotSuccessful)
	}

	d.logger.Debug("stored memory", zap.String("memory_id", id), zap.String("user_id", userID))
	return id, nil
}

type searchRequest struct {
	UserID string         `json:"user_id"`
	Query  string         `json:"query,omitempty"`
	Filter map[string]any `json:"filter,omitempty"`
	Limit  int            `json:"limit"`
}

type searchResponse struct {
	Memories []store.Result `json:"memories"`
	Results  []store.Result `json:"results"`
}

// Search runs a ranked search for the user's memories.
func (d *Driver) Search(ctx context.Context, userID, query string, f store.Filters, limit int) ([]store.Result, error) {
	req := searchRequest{
		UserID: userID,
		Query:  query,
		Limit:  limit,
	}

	filter := map[string]any{}
	if f.AgentID != "" {
		filter["metadata.agent_id"] = f.AgentID
	}
	if f.Kind != "" {
		filter["metadata.type"] = f.Kind
	}
	if len(filter) > 0 {
		req.Filter = filter
	}

	var resp searchResponse
	if err := d.post(ctx, "/memory/search", req, &resp); err != nil {
		return nil, err
	}

	results := resp.Memories
	if len(results) == 0 {
		results = resp.Results
	}

	d.logger.Debug("search returned memories",
		zap.String("user_id", userID),
		zap.Int("count", len(results)),
	)
	return results, nil
}

type reinforceResponse struct {
	Success bool `json:"success"`
}

// Reinforce boosts an existing memory's salience.
func (d *Driver) Reinforce(ctx context.Context, id string) error {
	var resp reinforceResponse
	if err := d.post(ctx, "/memory/reinforce/"+id, struct{}{}, &resp); err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("reinforcing memory %s: %w", id, store.ErrNotSuccessful)
	}

	return nil
}

// Update patches fields of an existing memory.
func (d *Driver) Update(ctx context.Context, id string, fields map[string]any) (*store.Memory, error) {
	var updated store.Memory
	if err := d.post(ctx, "/memory/update/"+id, fields, &updated); err != nil {
		return nil, err
	}

	if updated.ID == "" {
		return nil, store.ErrNotFound
	}

	return &updated, nil
}

// Close is a no-op; the underlying http.Client needs no teardown.
func (d *Driver) Close() error {
	return nil
}

// post sends a JSON request and decodes the JSON response into out.
func (d *Driver) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return store.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, bytes.TrimSpace(data))
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}

	return nil
}
