package extract

import (
	"context"

	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/memory"
	"github.com/covoxlabs/recollect/pkg/privacy"
	"github.com/covoxlabs/recollect/pkg/transcript"
)

// ChunkStats counts per-chunk outcomes for one job. Partial chunk failure
// is diagnostic, not fatal.
type ChunkStats struct {
	Total     int
	Succeeded int
	Failed    int
}

// Extractor runs the extract, validate, privacy-filter pipeline over
// transcript chunks. A fallback provider, when configured, gets one
// attempt whenever the primary errors or produces nothing.
type Extractor struct {
	primary   Provider
	fallback  Provider
	validator *memory.Validator
	privacy   *privacy.Filter
	logger    *zap.Logger
}

// NewExtractor wires the pipeline. fallback may be nil.
func NewExtractor(primary, fallback Provider, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		primary:   primary,
		fallback:  fallback,
		validator: memory.NewValidator(logger),
		privacy:   privacy.NewFilter(logger),
		logger:    logger,
	}
}

// ExtractAll processes every chunk sequentially and aggregates the
// resulting records. A failing chunk is logged and skipped so its
// siblings still contribute.
func (e *Extractor) ExtractAll(ctx context.Context, p PromptParams, chunks []transcript.Chunk) ([]memory.Record, ChunkStats) {
	stats := ChunkStats{Total: len(chunks)}

	var records []memory.Record
	for _, chunk := range chunks {
		chunkRecords, err := e.ExtractChunk(ctx, p, chunk)
		if err != nil {
			stats.Failed++
			e.logger.Warn("chunk extraction failed, skipping chunk",
				zap.String("conversation_id", p.ConversationID),
				zap.Int("chunk_index", chunk.Index),
				zap.Int("chunk_total", chunk.Total),
				zap.Error(err),
			)
			continue
		}
		stats.Succeeded++
		records = append(records, chunkRecords...)
	}

	return records, stats
}

// ExtractChunk extracts and sanitizes the records of a single chunk.
func (e *Extractor) ExtractChunk(ctx context.Context, p PromptParams, chunk transcript.Chunk) ([]memory.Record, error) {
	prompt := BuildPrompt(p, transcript.Render(chunk.Messages))

	raws, err := e.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	records := e.validator.Validate(raws)
	return e.privacy.Apply(records), nil
}

// complete asks the primary provider, then gives the fallback one shot
// when the primary errors or comes back empty.
func (e *Extractor) complete(ctx context.Context, prompt string) ([]memory.Raw, error) {
	raws, err := e.ask(ctx, e.primary, prompt)
	if err == nil && len(raws) > 0 {
		return raws, nil
	}
	if e.fallback == nil {
		return raws, err
	}

	e.logger.Info("primary provider yielded nothing, trying fallback",
		zap.String("primary", e.primary.Name()),
		zap.String("fallback", e.fallback.Name()),
		zap.Error(err),
	)

	fallbackRaws, fallbackErr := e.ask(ctx, e.fallback, prompt)
	if fallbackErr != nil {
		// Prefer the primary's empty-but-successful result over a
		// fallback error.
		if err == nil {
			return raws, nil
		}
		return nil, fallbackErr
	}
	return fallbackRaws, nil
}

func (e *Extractor) ask(ctx context.Context, provider Provider, prompt string) ([]memory.Raw, error) {
	completion, err := provider.Extract(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseRecords(completion), nil
}
