// Package store provides a pluggable client layer for the external memory
// store. Drivers persist extracted memory records, search them semantically
// and reinforce existing memories' salience.
package store

import "context"

// Metadata is the structured payload stored alongside memory content.
// Timestamp is RFC3339; Category is the validated category name.
type Metadata struct {
	AgentID        string   `json:"agent_id"`
	ConversationID string   `json:"conversation_id"`
	CallerID       string   `json:"caller_id"`
	Category       string   `json:"category"`
	Importance     int      `json:"importance"`
	Entities       []string `json:"entities"`
	Timestamp      string   `json:"timestamp"`
	Shareable      bool     `json:"shareable"`
	ContentHash    string   `json:"content_hash"`

	PrivacyFiltered bool `json:"privacy_filtered,omitempty"`

	// Kind distinguishes conversation memories from agent profiles.
	Kind string `json:"type,omitempty"`
}

// Memory is a stored memory handle as returned by the store.
type Memory struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Result is a search hit with its similarity score (higher = more similar).
type Result struct {
	Memory
	Score float64 `json:"score"`
}

// Filters narrows searches by metadata. Zero values mean "no filter".
type Filters struct {
	AgentID string
	Kind    string
}

// Driver is the memory store client contract.
type Driver interface {
	// Store persists content with metadata for the given user and returns
	// the new memory's opaque id.
	Store(ctx context.Context, userID, content string, md Metadata) (string, error)

	// Search returns up to limit memories for the user ranked by relevance
	// to query. An empty query lists memories subject only to the filters.
	Search(ctx context.Context, userID, query string, f Filters, limit int) ([]Result, error)

	// Reinforce boosts the salience of an existing memory instead of
	// creating a duplicate.
	Reinforce(ctx context.Context, id string) error

	// Update patches fields of an existing memory and returns the updated
	// handle, or ErrNotFound.
	Update(ctx context.Context, id string, fields map[string]any) (*Memory, error)

	// Close releases driver resources.
	Close() error
}
