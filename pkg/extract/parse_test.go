package extract_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/covoxlabs/recollect/pkg/extract"
)

var _ = Describe("ParseRecords", func() {
	It("decodes a bare JSON array", func() {
		raws := extract.ParseRecords(`[
			{"content": "Caller's name is Jane", "category": "factual", "importance": 8, "entities": ["Jane"]},
			{"content": "Prefers morning calls", "category": "preference", "importance": 5, "entities": []}
		]`)

		Expect(raws).To(HaveLen(2))
		Expect(raws[0].Content).To(Equal("Caller's name is Jane"))
		Expect(raws[0].Importance).To(Equal(float64(8)))
	})

	It("unwraps known wrapper keys", func() {
		for _, key := range []string{"memories", "results", "data"} {
			raws := extract.ParseRecords(`{"` + key + `": [{"content": "a fact", "category": "factual", "importance": 5, "entities": []}]}`)
			Expect(raws).To(HaveLen(1), "wrapper key %q", key)
			Expect(raws[0].Content).To(Equal("a fact"))
		}
	})

	It("treats a single object as a one-record batch", func() {
		raws := extract.ParseRecords(`{"content": "a fact", "category": "issue", "importance": 6, "entities": []}`)

		Expect(raws).To(HaveLen(1))
		Expect(raws[0].Category).To(Equal("issue"))
	})

	It("strips markdown code fences", func() {
		raws := extract.ParseRecords("```json\n[{\"content\": \"a fact\", \"category\": \"factual\", \"importance\": 5, \"entities\": []}]\n```")

		Expect(raws).To(HaveLen(1))
		Expect(raws[0].Content).To(Equal("a fact"))
	})

	It("yields zero records for unparseable output", func() {
		Expect(extract.ParseRecords("I could not find any memories, sorry!")).To(BeEmpty())
		Expect(extract.ParseRecords("")).To(BeEmpty())
		Expect(extract.ParseRecords(`"just a string"`)).To(BeEmpty())
	})

	It("yields zero records for an empty array", func() {
		Expect(extract.ParseRecords("[]")).To(BeEmpty())
	})
})
