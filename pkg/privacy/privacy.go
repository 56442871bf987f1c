// Package privacy detects and redacts sensitive spans (card numbers, SSNs,
// emails, phone numbers, passport codes) in extracted memory content.
// Redaction narrows content; it never discards a record.
package privacy

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/memory"
)

// Placeholder replaces every matched sensitive span.
const Placeholder = "[REDACTED]"

// sensitivePattern pairs a compiled pattern with the kind of data it detects.
type sensitivePattern struct {
	kind string
	re   *regexp.Regexp
}

var sensitivePatterns = []sensitivePattern{
	{"credit_card", regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)},
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"ssn_alt", regexp.MustCompile(`\b\d{9}\b`)},
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"phone", regexp.MustCompile(`\b\d{10,11}\b`)},
	{"passport", regexp.MustCompile(`\b[A-Z]{2}\d{6,9}\b`)},
}

// Detection describes one sensitive span found in content.
type Detection struct {
	Kind     string
	Value    string
	Position int
}

// Filter scans memory content for sensitive patterns.
type Filter struct {
	logger *zap.Logger
}

func NewFilter(logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{logger: logger}
}

// Detect returns every sensitive span found in text.
func (f *Filter) Detect(text string) []Detection {
	var detected []Detection

	for _, p := range sensitivePatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			detected = append(detected, Detection{
				Kind:     p.kind,
				Value:    text[loc[0]:loc[1]],
				Position: loc[0],
			})
		}
	}

	return detected
}

// Redact replaces every sensitive span in text with the placeholder.
func (f *Filter) Redact(text string) string {
	redacted := text
	for _, p := range sensitivePatterns {
		redacted = p.re.ReplaceAllString(redacted, Placeholder)
	}
	return redacted
}

// Apply redacts each record's content in place when it contains sensitive
// spans, tagging the record as privacy-filtered.
func (f *Filter) Apply(records []memory.Record) []memory.Record {
	for i := range records {
		detected := f.Detect(records[i].Content)
		if len(detected) == 0 {
			continue
		}

		f.logger.Info("redacting sensitive memory content",
			zap.Int("spans", len(detected)),
			zap.String("kind", detected[0].Kind),
		)

		records[i].Content = f.Redact(records[i].Content)
		records[i].PrivacyFiltered = true
	}

	return records
}
