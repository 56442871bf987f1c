// Package memory defines the extracted memory record model: atomic facts
// about a caller carrying a category, an importance score and the entities
// they mention. Records are transient until stored.
package memory

// Category classifies what kind of fact a memory record holds.
type Category string

const (
	CategoryFactual    Category = "factual"
	CategoryPreference Category = "preference"
	CategoryIssue      Category = "issue"
	CategoryEmotional  Category = "emotional"
	CategoryRelational Category = "relational"
)

// Categories lists every valid category, in taxonomy order.
var Categories = []Category{
	CategoryFactual,
	CategoryPreference,
	CategoryIssue,
	CategoryEmotional,
	CategoryRelational,
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFactual, CategoryPreference, CategoryIssue, CategoryEmotional, CategoryRelational:
		return true
	}
	return false
}

const (
	// MinImportance and MaxImportance bound the importance scale.
	MinImportance = 1
	MaxImportance = 10

	// DefaultImportance is assigned when the model returns something unusable.
	DefaultImportance = 5
)

// Record is one atomic fact extracted from a conversation.
type Record struct {
	Content    string   `json:"content"`
	Category   Category `json:"category"`
	Importance int      `json:"importance"`
	Entities   []string `json:"entities"`

	// PrivacyFiltered marks records whose content was narrowed by the
	// privacy filter.
	PrivacyFiltered bool `json:"privacy_filtered,omitempty"`
}

// Hash returns the record's normalized content hash.
func (r Record) Hash() string {
	return ContentHash(r.Content)
}
