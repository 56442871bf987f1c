package transcript

import (
	"go.uber.org/zap"
)

// Chunk is a bounded window of conversation turns sized to fit the per-call
// token budget of the extraction model.
type Chunk struct {
	Messages []Message

	// Index and Total position the chunk within the split.
	Index int
	Total int

	// TokenEstimate is the approximate token cost of the chunk's messages.
	TokenEstimate int

	// MessageCount is len(Messages).
	MessageCount int

	// OverlapCount is the number of leading messages seeded from the end of
	// the previous chunk. Messages[OverlapCount:] are unique to this chunk;
	// concatenating those across all chunks reconstructs the transcript.
	OverlapCount int
}

// Fresh returns the messages unique to this chunk (excluding the overlap seed).
func (c Chunk) Fresh() []Message {
	return c.Messages[c.OverlapCount:]
}

// Chunker splits a filtered transcript into token-bounded, overlapping
// windows respecting turn boundaries. Token costs use EstimateTokens, a
// declared len/4 approximation.
type Chunker struct {
	maxTokens     int
	overlapTokens int
	logger        *zap.Logger
}

func NewChunker(maxTokens, overlapTokens int, logger *zap.Logger) *Chunker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chunker{
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
		logger:        logger,
	}
}

// Split partitions msgs into chunks. An empty transcript yields zero chunks.
// If the whole transcript fits the budget, exactly one chunk is returned with
// every message in original order. A single message larger than the whole
// budget still forms its own (over-budget) window rather than being dropped.
func (c *Chunker) Split(msgs []Message) []Chunk {
	if len(msgs) == 0 {
		return nil
	}

	total := EstimateTokens(Render(msgs))
	if total <= c.maxTokens {
		return []Chunk{{
			Messages:      msgs,
			Index:         0,
			Total:         1,
			TokenEstimate: total,
			MessageCount:  len(msgs),
		}}
	}

	var drafts []Chunk

	window := make([]Message, 0, len(msgs))
	winTokens := 0
	overlapCount := 0

	push := func(m Message) {
		window = append(window, m)
		winTokens += EstimateTokens(m.Line())
	}

	closeWindow := func(carry []Message) {
		drafts = append(drafts, Chunk{
			Messages:      window,
			TokenEstimate: winTokens,
			MessageCount:  len(window),
			OverlapCount:  overlapCount,
		})

		suffix := c.overlapSuffix(window)
		window = make([]Message, 0, len(suffix)+len(carry)+8)
		winTokens = 0
		overlapCount = len(suffix)
		for _, m := range suffix {
			push(m)
		}
		for _, m := range carry {
			push(m)
		}
	}

	for _, m := range msgs {
		cost := EstimateTokens(m.Line())

		// Only close a window that holds at least one fresh message, so an
		// oversized single message forms its own over-budget window.
		if len(window) > overlapCount && winTokens+cost > c.maxTokens {
			var carry []Message

			// Prefer closing right before a user turn: when an agent turn
			// overflows, pull the window back to the most recent user turn so
			// the next window starts on an agent->user boundary.
			if m.Role != RoleUser {
				if j := lastUserTurn(window, overlapCount); j > overlapCount {
					carry = append(carry, window[j:]...)
					trimmed := window[:j]
					window = trimmed
					winTokens = sumTokens(trimmed)
				}
			}

			closeWindow(carry)
		}

		push(m)
	}

	if len(window) > overlapCount {
		drafts = append(drafts, Chunk{
			Messages:      window,
			TokenEstimate: winTokens,
			MessageCount:  len(window),
			OverlapCount:  overlapCount,
		})
	}

	for i := range drafts {
		drafts[i].Index = i
		drafts[i].Total = len(drafts)
	}

	c.logger.Debug("split transcript",
		zap.Int("messages", len(msgs)),
		zap.Int("token_estimate", total),
		zap.Int("chunks", len(drafts)),
	)

	return drafts
}

// overlapSuffix returns the longest suffix of window whose cumulative token
// estimate fits the overlap budget.
func (c *Chunker) overlapSuffix(window []Message) []Message {
	if c.overlapTokens <= 0 {
		return nil
	}

	tokens := 0
	start := len(window)
	for i := len(window) - 1; i >= 0; i-- {
		cost := EstimateTokens(window[i].Line())
		if tokens+cost > c.overlapTokens {
			break
		}
		tokens += cost
		start = i
	}

	return window[start:]
}

// lastUserTurn returns the index of the last user message in window at or
// after min, or -1.
func lastUserTurn(window []Message, min int) int {
	for i := len(window) - 1; i >= min; i-- {
		if window[i].Role == RoleUser {
			return i
		}
	}
	return -1
}

func sumTokens(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += EstimateTokens(m.Line())
	}
	return total
}
