package memory

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Raw is a loosely-typed memory candidate as decoded from model output.
// Nothing about it is trusted.
type Raw struct {
	Content    any
	Category   any
	Importance any
	Entities   any
}

// Validator coerces raw extraction output into well-formed records,
// independent of model correctness.
type Validator struct {
	logger *zap.Logger
}

func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger}
}

// Validate normalizes a batch of raw candidates. Candidates with unusable
// content are dropped; every other field is coerced to a safe default.
func (v *Validator) Validate(raws []Raw) []Record {
	records := make([]Record, 0, len(raws))

	for _, raw := range raws {
		rec, ok := v.validateOne(raw)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	return records
}

func (v *Validator) validateOne(raw Raw) (Record, bool) {
	content, ok := raw.Content.(string)
	if !ok || strings.TrimSpace(content) == "" {
		v.logger.Warn("dropping memory candidate with unusable content")
		return Record{}, false
	}

	category := coerceCategory(raw.Category)
	if rawCat, isStr := raw.Category.(string); isStr && !Category(rawCat).Valid() {
		v.logger.Warn("coerced unknown category", zap.String("category", rawCat))
	}

	importance, coerced := coerceImportance(raw.Importance)
	if coerced {
		v.logger.Warn("coerced out-of-range importance", zap.Any("importance", raw.Importance))
	}

	return Record{
		Content:    content,
		Category:   category,
		Importance: importance,
		Entities:   coerceEntities(raw.Entities),
	}, true
}

func coerceCategory(val any) Category {
	s, ok := val.(string)
	if !ok {
		return CategoryFactual
	}

	cat := Category(strings.ToLower(strings.TrimSpace(s)))
	if !cat.Valid() {
		return CategoryFactual
	}
	return cat
}

// coerceImportance accepts ints, JSON floats and digit strings; anything
// else, or anything outside [1,10], becomes DefaultImportance. The second
// return reports whether a coercion happened.
func coerceImportance(val any) (int, bool) {
	var n int

	switch tv := val.(type) {
	case int:
		n = tv
	case int64:
		n = int(tv)
	case float64:
		n = int(tv)
		if tv != float64(n) {
			return DefaultImportance, true
		}
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(tv))
		if err != nil {
			return DefaultImportance, true
		}
		n = parsed
	default:
		return DefaultImportance, true
	}

	if n < MinImportance || n > MaxImportance {
		return DefaultImportance, true
	}

	return n, false
}

func coerceEntities(val any) []string {
	entities := []string{}

	switch tv := val.(type) {
	case []string:
		entities = append(entities, tv...)
	case []any:
		for _, item := range tv {
			if s, ok := item.(string); ok {
				entities = append(entities, s)
			}
		}
	}

	return entities
}
