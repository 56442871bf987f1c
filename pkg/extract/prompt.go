package extract

import (
	"fmt"
	"time"
)

// PromptParams carries the conversation identifiers embedded in the
// extraction prompt.
type PromptParams struct {
	AgentID        string
	CallerID       string
	ConversationID string
	Timestamp      time.Time
}

// BuildPrompt renders the extraction prompt for one chunk of transcript
// text. The category taxonomy and response format are fixed; validation
// downstream assumes exactly these field names.
func BuildPrompt(p PromptParams, transcriptText string) string {
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return fmt.Sprintf(`Extract memories from this AI agent conversation for future reference.

Conversation Details:
- Agent ID: %s
- Caller ID: %s
- Conversation ID: %s
- Timestamp: %s

Full Transcript:
%s

Extract memories in these categories:
1. FACTUAL: Names, IDs, numbers, dates, locations, transactions, objective facts
2. PREFERENCES: User preferences, likes/dislikes, communication style, scheduling preferences
3. ISSUES: Problems mentioned, complaints, unresolved issues, follow-up needed
4. EMOTIONAL: Customer sentiment (satisfied, frustrated, neutral), tone of interaction
5. RELATIONAL: People or entities mentioned, relationships between concepts

Return ONLY a JSON array (no markdown, no explanation):
[
  {
    "content": "Clear, concise, atomic memory statement",
    "category": "factual|preference|issue|emotional|relational",
    "importance": 1-10,
    "entities": ["entity1", "entity2"]
  }
]

Rules:
- Each memory should be ONE atomic fact
- Be specific and factual
- Importance: 10=critical (account numbers, VIP status), 1=minor detail
- Extract 5-20 memories per conversation
- If nothing memorable, return empty array []
`,
		p.AgentID, p.CallerID, p.ConversationID, ts.Format(time.RFC3339), transcriptText)
}
