// Package transcript prepares completed call transcripts for memory
// extraction: filtering out non-dialogue noise and partitioning the remaining
// turns into token-bounded windows sized for a single extraction call.
package transcript

import "strings"

// Roles a message may carry after filtering. Anything else is dropped.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Message is a single turn of a call transcript.
type Message struct {
	Role string `json:"role"`
	Text string `json:"message"`
}

// Line renders the message the way it is presented to the extraction model.
func (m Message) Line() string {
	role := m.Role
	if role == "" {
		role = "unknown"
	}
	return role + ": " + m.Text
}

// Render joins messages into the prompt body, one line per turn.
func Render(msgs []Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Line())
	}
	return strings.Join(lines, "\n")
}

// EstimateTokens approximates the token cost of text as len/4. This is a
// declared approximation, not a real tokenizer; chunk boundaries derived from
// it will differ from any actual tokenizer's output.
func EstimateTokens(text string) int {
	return len(text) / 4
}
