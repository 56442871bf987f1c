package transcript

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// noiseRule describes one "looks like config/JSON, not dialogue" pattern.
// A message is dropped when it is shorter than maxLen and match returns true.
// Keeping the rules as a table makes each one testable on its own and keeps
// the filter free of inline branching.
type noiseRule struct {
	name   string
	maxLen int
	match  func(text string) bool
}

var (
	// key/value pairs inside braces, e.g. {"timeout": 30} or {retries: 3}
	braceKeyValueRe = regexp.MustCompile(`\{\s*"?[\w-]+"?\s*:\s*[^}]*\}`)

	// markdown table separator rows such as |---|---| or | :--- | ---: |
	tableSeparatorRe = regexp.MustCompile(`\|[\s:-]*-{3,}[\s:-]*\|`)

	configKeywords  = []string{"timeout", "config", "endpoint", "retries", "threshold"}
	parameterTokens = []string{"max_", "min_", "setting"}
)

var noiseRules = []noiseRule{
	{
		name:   "brace_key_value",
		maxLen: 500,
		match:  func(text string) bool { return braceKeyValueRe.MatchString(text) },
	},
	{
		name:   "config_parameters",
		maxLen: 200,
		match: func(text string) bool {
			lower := strings.ToLower(text)
			return containsAny(lower, configKeywords) && containsAny(lower, parameterTokens)
		},
	},
	{
		name:   "markdown_table",
		maxLen: 0, // length-independent
		match: func(text string) bool {
			return strings.Count(text, "|") > 3 && tableSeparatorRe.MatchString(text)
		},
	},
	{
		name:   "dense_braces",
		maxLen: 300,
		match: func(text string) bool {
			return strings.Count(text, "{") > 2 && strings.Count(text, "}") > 2
		},
	},
}

// PreFilter strips non-dialogue noise from a raw transcript before it reaches
// the extraction model.
type PreFilter struct {
	logger *zap.Logger
}

func NewPreFilter(logger *zap.Logger) *PreFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreFilter{logger: logger}
}

// Apply returns the dialogue-only subset of msgs, in original order.
// Messages with roles other than user/agent, messages shorter than 3
// characters and messages matching any noise rule are dropped.
func (f *PreFilter) Apply(msgs []Message) []Message {
	kept := make([]Message, 0, len(msgs))

	for _, msg := range msgs {
		if msg.Role != RoleUser && msg.Role != RoleAgent {
			continue
		}

		text := strings.TrimSpace(msg.Text)
		if len(text) < 3 {
			continue
		}

		if rule := matchNoiseRule(text); rule != "" {
			f.logger.Debug("dropped non-dialogue message",
				zap.String("rule", rule),
				zap.Int("length", len(text)),
			)
			continue
		}

		kept = append(kept, msg)
	}

	return kept
}

// matchNoiseRule returns the name of the first matching rule, or "".
func matchNoiseRule(text string) string {
	for _, rule := range noiseRules {
		if rule.maxLen > 0 && len(text) >= rule.maxLen {
			continue
		}
		if rule.match(text) {
			return rule.name
		}
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
