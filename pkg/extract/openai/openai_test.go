package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/covoxlabs/recollect/pkg/extract/openai"
)

var _ = Describe("Provider", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Extract", func() {
		It("sends the prompt at a fixed temperature and trims the reply", func() {
			var gotBody map[string]any

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(HaveSuffix("/chat/completions"))
				Expect(json.NewDecoder(r.Body).Decode(&gotBody)).To(Succeed())

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"id":     "cmpl-1",
					"object": "chat.completion",
					"choices": []map[string]any{
						{"message": map[string]any{"role": "assistant", "content": "  []  "}},
					},
				})
			}))
			defer server.Close()

			provider := openai.NewProvider(openai.Config{
				APIKey:  "sk-test",
				BaseURL: server.URL,
			})

			text, err := provider.Extract(ctx, "summarize the call")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("[]"))

			Expect(gotBody["model"]).To(Equal(openai.DefaultModel))
			// The request must carry the temperature explicitly; an absent
			// field would fall back to the API default of 1.0.
			Expect(gotBody["temperature"]).To(BeNumerically("==", 0.3))

			messages, ok := gotBody["messages"].([]any)
			Expect(ok).To(BeTrue())
			Expect(messages).To(HaveLen(1))
		})

		It("fails when the response has no choices", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{"id": "cmpl-2", "choices": []any{}})
			}))
			defer server.Close()

			provider := openai.NewProvider(openai.Config{APIKey: "sk-test", BaseURL: server.URL})

			_, err := provider.Extract(ctx, "summarize the call")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("no completion choices"))
		})
	})

	Describe("Name", func() {
		It("includes the model", func() {
			provider := openai.NewProvider(openai.Config{Model: "gpt-4o"})
			Expect(provider.Name()).To(Equal("openai/gpt-4o"))
		})
	})
})
