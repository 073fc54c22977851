package ingest

import (
	"context"
	"fmt"

	"github.com/erarta/advocata-sub000/internal/adapter/utils"
	"github.com/erarta/advocata-sub000/internal/chunker"
	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/data/repository"
	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
	"github.com/erarta/advocata-sub000/internal/domain/jobModel"
	"github.com/erarta/advocata-sub000/internal/extract"
	"github.com/erarta/advocata-sub000/internal/objectstore"
	"github.com/erarta/advocata-sub000/internal/rag/embedding"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
)

// Enqueuer hands a processing job to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload jobModel.JobPayload) (jobId string, err error)
}

// ChunkIndexer mirrors persisted chunk sets into an external vector index.
// It is optional; a nil indexer leaves retrieval to the repository.
type ChunkIndexer interface {
	UpsertChunks(ctx context.Context, doc *documentModel.Document, chunks []documentModel.Chunk) error
	DeleteByDocument(ctx context.Context, documentId string) error
}

type UploadCommand struct {
	OwnerId     string
	Title       string
	Description string
	FileName    string
	MimeType    string
	Type        documentModel.DocumentType
	Category    documentModel.DocumentCategory
	IsPublic    bool
	Tags        []string
	Data        []byte
}

type UploadResult struct {
	DocumentId string
	StorageURL string
	JobId      string
	Status     documentModel.DocumentStatus
}

// Orchestrator owns the document lifecycle: synchronous upload and job
// hand-off, then the asynchronous download-extract-chunk-embed-persist run.
type Orchestrator struct {
	repo      repository.DocumentRepository
	store     objectstore.Store
	extractor *extract.Extractor
	chunker   *chunker.SentenceChunker
	embedder  embedding.Embedder
	enqueuer  Enqueuer
	indexer   ChunkIndexer
	events    *documentModel.Publisher
	logger    *logger_i.Logger
}

type OrchestratorConfig struct {
	Repo      repository.DocumentRepository
	Store     objectstore.Store
	Extractor *extract.Extractor
	Chunker   *chunker.SentenceChunker
	Embedder  embedding.Embedder
	Enqueuer  Enqueuer
	Indexer   ChunkIndexer
	Events    *documentModel.Publisher
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	events := cfg.Events
	if events == nil {
		events = documentModel.NewPublisher()
	}
	return &Orchestrator{
		repo:      cfg.Repo,
		store:     cfg.Store,
		extractor: cfg.Extractor,
		chunker:   cfg.Chunker,
		embedder:  cfg.Embedder,
		enqueuer:  cfg.Enqueuer,
		indexer:   cfg.Indexer,
		events:    events,
		logger:    logger_i.NewLogger("Ingest"),
	}
}

// Upload validates, stores the file, creates the PENDING document and queues
// a processing job. Validation failures leave no trace in storage; a
// document save failure rolls the stored object back.
func (o *Orchestrator) Upload(ctx context.Context, cmd UploadCommand) (UploadResult, error) {
	log := o.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "owner", cmd.OwnerId)

	if err := documentModel.ValidateUpload(cmd.Title, int64(len(cmd.Data)), cmd.Type); err != nil {
		return UploadResult{}, err
	}

	documentId := utils.GetNewUUID()
	key := objectstore.ObjectKey(cmd.OwnerId, documentId, cmd.FileName)

	stored, err := o.store.Upload(ctx, key, cmd.Data, cmd.MimeType)
	if err != nil {
		return UploadResult{}, fmt.Errorf("storing file: %w", err)
	}

	doc, err := documentModel.NewDocument(documentModel.NewDocumentParams{
		Id:          documentId,
		OwnerId:     cmd.OwnerId,
		Title:       cmd.Title,
		Description: cmd.Description,
		FileName:    cmd.FileName,
		StorageURL:  stored.URL,
		FileSize:    int64(len(cmd.Data)),
		MimeType:    cmd.MimeType,
		Type:        cmd.Type,
		Category:    cmd.Category,
		IsPublic:    cmd.IsPublic,
		Tags:        cmd.Tags,
	})
	if err != nil {
		o.rollbackObject(ctx, key, log)
		return UploadResult{}, err
	}

	if err := o.repo.SaveDocument(ctx, doc); err != nil {
		o.rollbackObject(ctx, key, log)
		return UploadResult{}, fmt.Errorf("saving document: %w", err)
	}
	o.publish(doc)

	jobId, err := o.enqueuer.Enqueue(ctx, jobModel.JobPayload{DocumentId: doc.Id})
	if err != nil {
		// the document stays PENDING; reprocess can pick it up later
		log.Error("Failed to enqueue processing job", "documentId", doc.Id, "error", err)
		return UploadResult{}, fmt.Errorf("queueing processing job: %w", err)
	}

	log.Info("Document uploaded", "documentId", doc.Id, "jobId", jobId)
	return UploadResult{
		DocumentId: doc.Id,
		StorageURL: doc.StorageURL,
		JobId:      jobId,
		Status:     doc.Status,
	}, nil
}

// Reprocess queues a fresh processing run for an existing document,
// including COMPLETED ones.
func (o *Orchestrator) Reprocess(ctx context.Context, documentId string) (string, error) {
	doc, err := o.repo.GetDocument(ctx, documentId)
	if err != nil {
		return "", err
	}

	jobId, err := o.enqueuer.Enqueue(ctx, jobModel.JobPayload{DocumentId: doc.Id, Reprocess: true})
	if err != nil {
		return "", fmt.Errorf("queueing reprocess job: %w", err)
	}
	o.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY)).
		Info("Document reprocess queued", "documentId", doc.Id, "jobId", jobId)
	return jobId, nil
}

// TrackDownload bumps the download counter and hands back a signed URL.
func (o *Orchestrator) TrackDownload(ctx context.Context, documentId string) (string, error) {
	doc, err := o.repo.GetDocument(ctx, documentId)
	if err != nil {
		return "", err
	}

	if _, err := o.repo.IncrementDownloads(ctx, documentId); err != nil {
		return "", fmt.Errorf("counting download: %w", err)
	}

	key, err := objectstore.KeyFromURL(doc.StorageURL)
	if err != nil {
		return "", fmt.Errorf("resolving storage key: %w", err)
	}
	return o.store.GetSignedURL(ctx, key, config.SignedDownloadURLTTL)
}

func (o *Orchestrator) Events() *documentModel.Publisher {
	return o.events
}

func (o *Orchestrator) rollbackObject(ctx context.Context, key string, log *logger_i.Logger) {
	if err := o.store.Delete(ctx, key); err != nil {
		log.Error("Failed to roll back stored object", "key", key, "error", err)
	}
}

func (o *Orchestrator) publish(doc *documentModel.Document) {
	for _, e := range doc.PullEvents() {
		o.events.Publish(e)
	}
}
