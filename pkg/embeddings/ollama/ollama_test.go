package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/covoxlabs/recollect/pkg/embeddings"
	"github.com/covoxlabs/recollect/pkg/embeddings/ollama"
)

var _ = Describe("Embedder", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("NewEmbedder", func() {
		It("applies the default base URL and model when unset", func() {
			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{})
			Expect(err).NotTo(HaveOccurred())
			Expect(embedder).NotTo(BeNil())
		})
	})

	Describe("Embed", func() {
		It("sends the model and text and returns the vector", func() {
			var gotBody map[string]any

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/embed"))
				Expect(json.NewDecoder(r.Body).Decode(&gotBody)).To(Succeed())

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"embeddings": [][]float32{{0.1, 0.2, 0.3}},
				})
			}))
			defer server.Close()

			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{
				BaseURL: server.URL,
				Model:   "all-minilm",
			})
			Expect(err).NotTo(HaveOccurred())

			vec, err := embedder.Embed(ctx, "caller prefers email")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(Equal([]float32{0.1, 0.2, 0.3}))
			Expect(gotBody["model"]).To(Equal("all-minilm"))
			Expect(gotBody["input"]).To(Equal("caller prefers email"))
		})

		It("wraps a non-200 response in ErrEmbedding", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model not found", http.StatusNotFound)
			}))
			defer server.Close()

			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = embedder.Embed(ctx, "anything")
			Expect(err).To(MatchError(embeddings.ErrEmbedding))
		})

		It("errors when the server returns no embeddings", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
			}))
			defer server.Close()

			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = embedder.Embed(ctx, "anything")
			Expect(err).To(MatchError(embeddings.ErrEmbedding))
		})
	})

	Describe("EmbedBatch", func() {
		It("sends all texts in one request and preserves order", func() {
			var gotBody map[string]any

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&gotBody)).To(Succeed())

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"embeddings": [][]float32{{1, 0}, {0, 1}},
				})
			}))
			defer server.Close()

			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			vecs, err := embedder.EmbedBatch(ctx, []string{"first", "second"})
			Expect(err).NotTo(HaveOccurred())
			Expect(vecs).To(Equal([][]float32{{1, 0}, {0, 1}}))
			Expect(gotBody["input"]).To(Equal([]any{"first", "second"}))
		})

		It("returns nothing for an empty batch without calling the server", func() {
			server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				Fail("unexpected request")
			}))
			defer server.Close()

			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			vecs, err := embedder.EmbedBatch(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(vecs).To(BeNil())
		})

		It("errors on an embedding count mismatch", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"embeddings": [][]float32{{1, 0}},
				})
			}))
			defer server.Close()

			embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = embedder.EmbedBatch(ctx, []string{"first", "second"})
			Expect(err).To(MatchError(embeddings.ErrEmbedding))
		})
	})
})
