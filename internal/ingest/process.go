package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/erarta/advocata-sub000/internal/adapter/utils"
	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
	"github.com/erarta/advocata-sub000/internal/extract"
	"github.com/erarta/advocata-sub000/internal/metrics"
	"github.com/erarta/advocata-sub000/internal/objectstore"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
)

// Process runs the full pipeline for one document. Any stage failure marks
// the document FAILED with the stage's message before the error is returned,
// so callers always observe a terminal status.
func (o *Orchestrator) Process(ctx context.Context, documentId string, reprocess bool) error {
	log := o.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentId)

	doc, err := o.repo.GetDocument(ctx, documentId)
	if err != nil {
		return err
	}

	if reprocess {
		doc.MarkAsReprocessing()
	} else if err := doc.MarkAsProcessing(); err != nil {
		return err
	}
	// PROCESSING must be visible before any long-running stage starts
	if err := o.repo.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("persisting processing status: %w", err)
	}

	chunks, meta, err := o.runPipeline(ctx, doc, log)
	if err != nil {
		return o.fail(ctx, doc, err)
	}

	persistStart := time.Now()
	if err := o.repo.ReplaceChunks(ctx, doc.Id, chunks); err != nil {
		return o.fail(ctx, doc, fmt.Errorf("persisting chunks: %w", err))
	}
	if o.indexer != nil {
		// chunk ids change every run, so the old points must go before the
		// new set lands; this also refreshes owner/visibility payloads
		if err := o.indexer.DeleteByDocument(ctx, doc.Id); err != nil {
			log.Error("Failed to clear vector index, leaving it for the next run", "error", err)
		} else if err := o.indexer.UpsertChunks(ctx, doc, chunks); err != nil {
			// the repository holds the truth; the index catches up on reprocess
			log.Error("Failed to mirror chunks into vector index", "error", err)
		}
	}
	metrics.CaptureStageMetrics("persist", time.Since(persistStart))
	metrics.CountPersistedChunks(len(chunks))

	doc.MergeMetadata(meta)
	if err := doc.MarkAsCompleted(len(chunks)); err != nil {
		return o.fail(ctx, doc, err)
	}
	if err := o.repo.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("persisting completed status: %w", err)
	}
	o.publish(doc)

	metrics.CountProcessedDocument(string(documentModel.StatusCompleted))
	log.Info("Document processed", "chunks", len(chunks))
	return nil
}

type pieceWithPage struct {
	content       string
	charLength    int
	sentenceCount int
	pageNumber    int
}

func (o *Orchestrator) runPipeline(ctx context.Context, doc *documentModel.Document, log *logger_i.Logger) ([]documentModel.Chunk, map[string]any, error) {
	downloadStart := time.Now()
	key, err := objectstore.KeyFromURL(doc.StorageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving storage key: %w", err)
	}
	data, err := o.store.Download(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("downloading file: %w", err)
	}
	metrics.CaptureStageMetrics("download", time.Since(downloadStart))

	extractStart := time.Now()
	extracted, err := o.extractor.Extract(ctx, doc.Type, doc.FileName, data)
	if err != nil {
		return nil, nil, fmt.Errorf("extracting text: %w", err)
	}
	metrics.CaptureStageMetrics("extract", time.Since(extractStart))

	chunkStart := time.Now()
	var pieces []pieceWithPage
	for _, page := range extracted.Pages {
		for _, p := range o.chunker.Split(page.Content) {
			pieces = append(pieces, pieceWithPage{
				content:       p.Content,
				charLength:    p.CharLength,
				sentenceCount: p.SentenceCount,
				pageNumber:    page.Number,
			})
		}
	}
	if len(pieces) == 0 {
		return nil, nil, extract.ErrEmptyContent
	}
	metrics.CaptureStageMetrics("chunk", time.Since(chunkStart))
	log.Debug("Chunked document", "pieces", len(pieces))

	embedStart := time.Now()
	vectors, err := o.embedChunks(ctx, pieces)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding chunks: %w", err)
	}
	metrics.CaptureStageMetrics("embed", time.Since(embedStart))

	chunks := make([]documentModel.Chunk, 0, len(pieces))
	for i, p := range pieces {
		chunk, err := documentModel.NewChunk(utils.GetNewUUID(), doc.Id, p.content, vectors[i], len(chunks), p.pageNumber, map[string]any{
			"char_length":    p.charLength,
			"sentence_count": p.sentenceCount,
		})
		if err != nil {
			// one bad piece should not sink the whole document
			log.Warn("Skipping invalid chunk", "position", i, "error", err)
			continue
		}
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		return nil, nil, extract.ErrEmptyContent
	}

	return chunks, extracted.Metadata, nil
}

// embedChunks sends chunk contents to the provider in fixed-size batches so
// a huge document cannot blow a single request.
func (o *Orchestrator) embedChunks(ctx context.Context, pieces []pieceWithPage) ([][]float32, error) {
	contents := make([]string, len(pieces))
	for i, p := range pieces {
		contents[i] = p.content
	}

	if len(contents) > config.LargeEmbeddingBatchThreshold {
		vectors, err := o.embedder.BatchEmbedding(ctx, contents, true)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(contents) {
			return nil, fmt.Errorf("provider returned %d vectors for %d chunks", len(vectors), len(contents))
		}
		return vectors, nil
	}

	vectors := make([][]float32, 0, len(contents))
	for start := 0; start < len(contents); start += config.EmbeddingBatchSize {
		end := start + config.EmbeddingBatchSize
		if end > len(contents) {
			end = len(contents)
		}
		batch, err := o.embedder.BatchEmbedding(ctx, contents[start:end], false)
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("provider returned %d vectors for %d chunks", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// fail records the terminal FAILED status; the original error is returned so
// the job carries it too.
func (o *Orchestrator) fail(ctx context.Context, doc *documentModel.Document, cause error) error {
	if err := doc.MarkAsFailed(cause.Error()); err != nil {
		o.logger.Error("Could not mark document failed", "documentId", doc.Id, "error", err)
		return cause
	}
	if err := o.repo.SaveDocument(ctx, doc); err != nil {
		o.logger.Error("Could not persist failed status", "documentId", doc.Id, "error", err)
	}
	metrics.CountProcessedDocument(string(documentModel.StatusFailed))
	return cause
}
