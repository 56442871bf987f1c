package extract_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/covoxlabs/recollect/pkg/extract"
	"github.com/covoxlabs/recollect/pkg/memory"
	"github.com/covoxlabs/recollect/pkg/transcript"
)

// scriptedProvider replays canned responses in call order. A nil error
// with empty text models a provider that answered but found nothing.
type scriptedProvider struct {
	name      string
	responses []string
	errs      []error
	calls     int
}

func (p *scriptedProvider) Extract(_ context.Context, _ string) (string, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "[]", nil
}

func (p *scriptedProvider) Name() string { return p.name }

func chunkOf(texts ...string) transcript.Chunk {
	msgs := make([]transcript.Message, len(texts))
	for i, t := range texts {
		msgs[i] = transcript.Message{Role: transcript.RoleUser, Text: t}
	}
	return transcript.Chunk{Messages: msgs, Index: 0, Total: 1, MessageCount: len(msgs)}
}

var _ = Describe("Extractor", func() {
	var (
		ctx    context.Context
		params extract.PromptParams
	)

	const recordJSON = `[{"content": "Caller's name is Jane", "category": "factual", "importance": 8, "entities": ["Jane"]}]`

	BeforeEach(func() {
		ctx = context.Background()
		params = extract.PromptParams{
			AgentID:        "agent-1",
			CallerID:       "caller-1",
			ConversationID: "conv-1",
		}
	})

	It("extracts, validates, and privacy-filters chunk records", func() {
		primary := &scriptedProvider{
			name: "primary",
			responses: []string{
				`[{"content": "Caller's SSN is 123-45-6789", "category": "bogus", "importance": 42, "entities": "Jane"}]`,
			},
		}
		extractor := extract.NewExtractor(primary, nil, nil)

		records, stats := extractor.ExtractAll(ctx, params, []transcript.Chunk{chunkOf("my ssn is 123-45-6789")})

		Expect(stats.Succeeded).To(Equal(1))
		Expect(stats.Failed).To(BeZero())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Content).To(Equal("Caller's SSN is [REDACTED]"))
		Expect(records[0].Category).To(Equal(memory.CategoryFactual))
		Expect(records[0].Importance).To(Equal(memory.DefaultImportance))
		Expect(records[0].PrivacyFiltered).To(BeTrue())
	})

	It("skips a failing chunk and keeps its siblings", func() {
		primary := &scriptedProvider{
			name:      "primary",
			responses: []string{"", recordJSON},
			errs:      []error{errors.New("model unavailable"), nil},
		}
		extractor := extract.NewExtractor(primary, nil, nil)

		chunks := []transcript.Chunk{chunkOf("first"), chunkOf("second")}
		records, stats := extractor.ExtractAll(ctx, params, chunks)

		Expect(stats.Total).To(Equal(2))
		Expect(stats.Failed).To(Equal(1))
		Expect(stats.Succeeded).To(Equal(1))
		Expect(records).To(HaveLen(1))
	})

	Context("with a fallback provider", func() {
		It("asks the fallback when the primary errors", func() {
			primary := &scriptedProvider{name: "primary", errs: []error{errors.New("boom")}}
			fallback := &scriptedProvider{name: "fallback", responses: []string{recordJSON}}
			extractor := extract.NewExtractor(primary, fallback, nil)

			records, stats := extractor.ExtractAll(ctx, params, []transcript.Chunk{chunkOf("hello")})

			Expect(stats.Succeeded).To(Equal(1))
			Expect(records).To(HaveLen(1))
			Expect(fallback.calls).To(Equal(1))
		})

		It("asks the fallback when the primary returns nothing", func() {
			primary := &scriptedProvider{name: "primary", responses: []string{"[]"}}
			fallback := &scriptedProvider{name: "fallback", responses: []string{recordJSON}}
			extractor := extract.NewExtractor(primary, fallback, nil)

			records, _ := extractor.ExtractAll(ctx, params, []transcript.Chunk{chunkOf("hello")})

			Expect(records).To(HaveLen(1))
			Expect(fallback.calls).To(Equal(1))
		})

		It("leaves the fallback alone when the primary delivers", func() {
			primary := &scriptedProvider{name: "primary", responses: []string{recordJSON}}
			fallback := &scriptedProvider{name: "fallback"}
			extractor := extract.NewExtractor(primary, fallback, nil)

			records, _ := extractor.ExtractAll(ctx, params, []transcript.Chunk{chunkOf("hello")})

			Expect(records).To(HaveLen(1))
			Expect(fallback.calls).To(BeZero())
		})

		It("keeps an empty primary result when the fallback also fails", func() {
			primary := &scriptedProvider{name: "primary", responses: []string{"[]"}}
			fallback := &scriptedProvider{name: "fallback", errs: []error{errors.New("also down")}}
			extractor := extract.NewExtractor(primary, fallback, nil)

			records, stats := extractor.ExtractAll(ctx, params, []transcript.Chunk{chunkOf("hello")})

			Expect(stats.Failed).To(BeZero())
			Expect(records).To(BeEmpty())
		})
	})
})
