package transcript_test

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/covoxlabs/recollect/pkg/transcript"
)

var _ = Describe("Chunker", func() {
	It("returns zero chunks for an empty transcript", func() {
		chunker := transcript.NewChunker(1000, 100, nil)
		Expect(chunker.Split(nil)).To(BeEmpty())
	})

	It("returns a single chunk when the transcript fits the budget", func() {
		chunker := transcript.NewChunker(10000, 200, nil)
		msgs := []transcript.Message{
			{Role: "agent", Text: "Hello, thanks for calling."},
			{Role: "user", Text: "Hi, I want to check my order."},
			{Role: "agent", Text: "Sure, can I have your name?"},
			{Role: "user", Text: "Jane Doe."},
		}

		chunks := chunker.Split(msgs)
		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0].Messages).To(Equal(msgs))
		Expect(chunks[0].Index).To(Equal(0))
		Expect(chunks[0].Total).To(Equal(1))
		Expect(chunks[0].MessageCount).To(Equal(4))
		Expect(chunks[0].OverlapCount).To(Equal(0))
	})

	It("splits an over-budget transcript and reconstructs it from fresh messages", func() {
		chunker := transcript.NewChunker(100, 25, nil)

		var msgs []transcript.Message
		for i := range 12 {
			role := "agent"
			if i%2 == 1 {
				role = "user"
			}
			msgs = append(msgs, transcript.Message{
				Role: role,
				Text: fmt.Sprintf("turn %02d %s", i, strings.Repeat("x", 90)),
			})
		}

		chunks := chunker.Split(msgs)
		Expect(len(chunks)).To(BeNumerically(">", 1))

		var rebuilt []transcript.Message
		for _, ch := range chunks {
			Expect(ch.Total).To(Equal(len(chunks)))
			rebuilt = append(rebuilt, ch.Fresh()...)
		}
		Expect(rebuilt).To(Equal(msgs))
	})

	It("seeds each subsequent chunk with a trailing overlap within budget", func() {
		chunker := transcript.NewChunker(100, 30, nil)

		var msgs []transcript.Message
		for i := range 8 {
			role := "agent"
			if i%2 == 1 {
				role = "user"
			}
			msgs = append(msgs, transcript.Message{
				Role: role,
				Text: fmt.Sprintf("turn %d %s", i, strings.Repeat("y", 80)),
			})
		}

		chunks := chunker.Split(msgs)
		Expect(len(chunks)).To(BeNumerically(">", 1))

		for i, ch := range chunks[1:] {
			prev := chunks[i]
			Expect(ch.OverlapCount).To(BeNumerically(">=", 0))
			if ch.OverlapCount > 0 {
				seed := ch.Messages[:ch.OverlapCount]
				tail := prev.Messages[len(prev.Messages)-ch.OverlapCount:]
				Expect(seed).To(Equal(tail))

				seedTokens := 0
				for _, m := range seed {
					seedTokens += transcript.EstimateTokens(m.Line())
				}
				Expect(seedTokens).To(BeNumerically("<=", 30))
			}
		}
	})

	It("gives an oversized single message its own over-budget window", func() {
		chunker := transcript.NewChunker(50, 10, nil)
		msgs := []transcript.Message{
			{Role: "user", Text: "short question here"},
			{Role: "agent", Text: strings.Repeat("a very long explanation ", 40)},
			{Role: "user", Text: "thanks for that answer"},
		}

		chunks := chunker.Split(msgs)

		var rebuilt []transcript.Message
		for _, ch := range chunks {
			rebuilt = append(rebuilt, ch.Fresh()...)
		}
		Expect(rebuilt).To(Equal(msgs))

		found := false
		for _, ch := range chunks {
			for _, m := range ch.Fresh() {
				if m.Role == "agent" {
					found = true
					Expect(ch.TokenEstimate).To(BeNumerically(">", 50))
				}
			}
		}
		Expect(found).To(BeTrue())
	})

	Describe("EstimateTokens", func() {
		It("approximates one token per four characters", func() {
			Expect(transcript.EstimateTokens("abcdefgh")).To(Equal(2))
			Expect(transcript.EstimateTokens("abc")).To(Equal(0))
		})
	})
})
