package extract

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/covoxlabs/recollect/pkg/memory"
)

// wrapperKeys are object keys models commonly wrap their array in despite
// being asked for a bare array.
var wrapperKeys = []string{"memories", "results", "data"}

// ParseRecords decodes model output into raw memory candidates. Models
// misbehave in predictable ways, so this accepts a bare array, an object
// wrapping the array under a known key, or a single object, optionally
// inside a markdown code fence. Anything else parses to zero records.
func ParseRecords(raw string) []memory.Raw {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" || !gjson.Valid(text) {
		return nil
	}

	result := gjson.Parse(text)

	if result.IsArray() {
		return rawsFromArray(result)
	}

	if result.IsObject() {
		for _, key := range wrapperKeys {
			if inner := result.Get(key); inner.IsArray() {
				return rawsFromArray(inner)
			}
		}
		return []memory.Raw{rawFromObject(result)}
	}

	return nil
}

func rawsFromArray(arr gjson.Result) []memory.Raw {
	var raws []memory.Raw
	arr.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			raws = append(raws, rawFromObject(item))
		}
		return true
	})
	return raws
}

func rawFromObject(obj gjson.Result) memory.Raw {
	return memory.Raw{
		Content:    obj.Get("content").Value(),
		Category:   obj.Get("category").Value(),
		Importance: obj.Get("importance").Value(),
		Entities:   obj.Get("entities").Value(),
	}
}

// stripFences removes a surrounding markdown code fence, with or without
// a language tag.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	parts := strings.SplitN(text, "```", 3)
	if len(parts) < 2 {
		return text
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}
