package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/covoxlabs/recollect/pkg/memory"
)

var _ = Describe("Validator", func() {
	var validator *memory.Validator

	BeforeEach(func() {
		validator = memory.NewValidator(nil)
	})

	It("passes a well-formed candidate through unchanged", func() {
		records := validator.Validate([]memory.Raw{{
			Content:    "Caller's first name is Jane",
			Category:   "factual",
			Importance: 8,
			Entities:   []any{"Jane"},
		}})

		Expect(records).To(HaveLen(1))
		Expect(records[0].Content).To(Equal("Caller's first name is Jane"))
		Expect(records[0].Category).To(Equal(memory.CategoryFactual))
		Expect(records[0].Importance).To(Equal(8))
		Expect(records[0].Entities).To(Equal([]string{"Jane"}))
	})

	It("drops candidates with empty or non-string content", func() {
		records := validator.Validate([]memory.Raw{
			{Content: "", Category: "factual", Importance: 5},
			{Content: 42, Category: "factual", Importance: 5},
			{Content: "   ", Category: "factual", Importance: 5},
		})

		Expect(records).To(BeEmpty())
	})

	It("coerces unknown categories to factual", func() {
		records := validator.Validate([]memory.Raw{{
			Content:  "Caller likes jazz",
			Category: "bogus",
		}})

		Expect(records).To(HaveLen(1))
		Expect(records[0].Category).To(Equal(memory.CategoryFactual))
	})

	It("coerces out-of-range importance to the default", func() {
		records := validator.Validate([]memory.Raw{
			{Content: "a fact", Importance: 15},
			{Content: "another fact", Importance: 0},
			{Content: "a third fact", Importance: "not a number"},
		})

		Expect(records).To(HaveLen(3))
		for _, rec := range records {
			Expect(rec.Importance).To(Equal(5))
		}
	})

	It("accepts importance as a JSON float when integral", func() {
		records := validator.Validate([]memory.Raw{{
			Content:    "a fact",
			Importance: float64(7),
		}})

		Expect(records).To(HaveLen(1))
		Expect(records[0].Importance).To(Equal(7))
	})

	It("coerces non-list entities to empty", func() {
		records := validator.Validate([]memory.Raw{{
			Content:  "a fact",
			Entities: "Jane",
		}})

		Expect(records).To(HaveLen(1))
		Expect(records[0].Entities).To(BeEmpty())
		Expect(records[0].Entities).NotTo(BeNil())
	})
})
