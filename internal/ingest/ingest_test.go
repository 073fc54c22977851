package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erarta/advocata-sub000/internal/chunker"
	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/data/repository"
	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
	"github.com/erarta/advocata-sub000/internal/domain/jobModel"
	"github.com/erarta/advocata-sub000/internal/extract"
	"github.com/erarta/advocata-sub000/internal/objectstore"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Upload(ctx context.Context, key string, data []byte, mimeType string) (objectstore.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return objectstore.UploadResult{URL: "http://localhost/object/" + key, Key: key}, nil
}

func (s *memoryStore) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, objectstore.ErrObjectNotFound
	}
	return data, nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deletes = append(s.deletes, key)
	return nil
}

func (s *memoryStore) GetSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "http://localhost/object/" + key + "?signed=1", nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type stubEmbedder struct {
	err   error
	calls int
}

func (e *stubEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (e *stubEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHugeDataSet bool) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(chunks))
	for i := range chunks {
		vectors[i] = []float32{1, float32(i)}
	}
	return vectors, nil
}

type stubEnqueuer struct {
	payloads []jobModel.JobPayload
	err      error
}

func (e *stubEnqueuer) Enqueue(ctx context.Context, payload jobModel.JobPayload) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.payloads = append(e.payloads, payload)
	return "job-1", nil
}

// statusRecorder wraps the repository and records each saved status.
type statusRecorder struct {
	repository.DocumentRepository
	statuses []documentModel.DocumentStatus
	saveErr  error
}

func (r *statusRecorder) SaveDocument(ctx context.Context, doc *documentModel.Document) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.statuses = append(r.statuses, doc.Status)
	return r.DocumentRepository.SaveDocument(ctx, doc)
}

type fixture struct {
	orch     *Orchestrator
	repo     *statusRecorder
	store    *memoryStore
	embedder *stubEmbedder
	enqueuer *stubEnqueuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := &statusRecorder{DocumentRepository: repository.InitInMemoryRepository()}
	store := newMemoryStore()
	embedder := &stubEmbedder{}
	enqueuer := &stubEnqueuer{}
	orch := NewOrchestrator(OrchestratorConfig{
		Repo:      repo,
		Store:     store,
		Extractor: extract.NewExtractor(nil),
		Chunker:   chunker.NewSentenceChunker(config.ChunkTargetSize, config.ChunkOverlapSize),
		Embedder:  embedder,
		Enqueuer:  enqueuer,
	})
	return &fixture{orch: orch, repo: repo, store: store, embedder: embedder, enqueuer: enqueuer}
}

func textUpload(data string) UploadCommand {
	return UploadCommand{
		OwnerId:  "lawyer-1",
		Title:    "Rental playbook",
		FileName: "playbook.txt",
		MimeType: "text/plain",
		Type:     documentModel.TypeText,
		Category: documentModel.CategoryGuide,
		Data:     []byte(data),
	}
}

func TestUploadCreatesPendingDocumentAndJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Upload(ctx, textUpload("Tenants may terminate with notice."))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Status != documentModel.StatusPending {
		t.Errorf("expected PENDING, got %s", res.Status)
	}
	if res.JobId != "job-1" {
		t.Errorf("expected job id, got %q", res.JobId)
	}

	doc, err := f.repo.GetDocument(ctx, res.DocumentId)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Status != documentModel.StatusPending || doc.StorageURL == "" {
		t.Errorf("unexpected document: %+v", doc)
	}

	key, err := objectstore.KeyFromURL(doc.StorageURL)
	if err != nil {
		t.Fatalf("KeyFromURL: %v", err)
	}
	if !strings.HasPrefix(key, "documents/lawyer-1/"+res.DocumentId+"/") {
		t.Errorf("unexpected storage key: %s", key)
	}
	if _, err := f.store.Download(ctx, key); err != nil {
		t.Errorf("file missing from store: %v", err)
	}

	if len(f.enqueuer.payloads) != 1 || f.enqueuer.payloads[0].DocumentId != res.DocumentId {
		t.Errorf("job payload mismatch: %+v", f.enqueuer.payloads)
	}
}

func TestUploadValidationLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  UploadCommand
	}{
		{"empty title", func() UploadCommand { c := textUpload("body"); c.Title = " "; return c }()},
		{"title too long", func() UploadCommand {
			c := textUpload("body")
			c.Title = strings.Repeat("t", config.MaxTitleLength+1)
			return c
		}()},
		{"empty file", textUpload("")},
		{"unknown type", func() UploadCommand { c := textUpload("body"); c.Type = "SPREADSHEET"; return c }()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.orch.Upload(ctx, tc.cmd); err == nil {
				t.Fatal("expected validation error")
			}
			if f.store.count() != 0 {
				t.Error("validation failure left an object in storage")
			}
			if len(f.enqueuer.payloads) != 0 {
				t.Error("validation failure enqueued a job")
			}
		})
	}
}

func TestUploadRollsBackObjectWhenSaveFails(t *testing.T) {
	f := newFixture(t)
	f.repo.saveErr = errors.New("redis down")

	_, err := f.orch.Upload(context.Background(), textUpload("Some clause."))
	if err == nil {
		t.Fatal("expected save failure")
	}
	if f.store.count() != 0 {
		t.Error("stored object not rolled back after save failure")
	}
	if len(f.store.deletes) != 1 {
		t.Errorf("expected one rollback delete, got %d", len(f.store.deletes))
	}
}

func TestProcessCompletesDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	body := strings.Repeat("The tenant shall pay rent monthly. ", 14) //≈490 chars, under one chunk target
	res, err := f.orch.Upload(ctx, textUpload(body))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := f.orch.Process(ctx, res.DocumentId, false); err != nil {
		t.Fatalf("Process: %v", err)
	}

	doc, err := f.repo.GetDocument(ctx, res.DocumentId)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Status != documentModel.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s (%s)", doc.Status, doc.ErrorMessage)
	}
	if doc.ChunkCount != 1 {
		t.Errorf("expected one chunk for a short document, got %d", doc.ChunkCount)
	}
	if doc.ProcessedAt == nil {
		t.Error("ProcessedAt not set")
	}

	chunks, err := f.repo.GetChunks(ctx, res.DocumentId)
	if err != nil {
		t.Fatalf("GetChunks: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Index != 0 || len(chunks[0].Embedding) == 0 {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
	if chunks[0].Metadata["sentence_count"] != 14 {
		t.Errorf("expected sentence count metadata, got %v", chunks[0].Metadata)
	}
}

func TestProcessPersistsProcessingBeforePipeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Upload(ctx, textUpload("One clause."))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := f.orch.Process(ctx, res.DocumentId, false); err != nil {
		t.Fatalf("Process: %v", err)
	}

	want := []documentModel.DocumentStatus{
		documentModel.StatusPending,
		documentModel.StatusProcessing,
		documentModel.StatusCompleted,
	}
	if len(f.repo.statuses) != len(want) {
		t.Fatalf("expected %d saves, got %v", len(want), f.repo.statuses)
	}
	for i, s := range want {
		if f.repo.statuses[i] != s {
			t.Errorf("save %d: expected %s, got %s", i, s, f.repo.statuses[i])
		}
	}
}

func TestProcessFailsOnWhitespaceOnlyContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Upload(ctx, textUpload("   \n\t  "))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := f.orch.Process(ctx, res.DocumentId, false); err == nil {
		t.Fatal("expected processing failure for empty content")
	}

	doc, _ := f.repo.GetDocument(ctx, res.DocumentId)
	if doc.Status != documentModel.StatusFailed {
		t.Errorf("expected FAILED, got %s", doc.Status)
	}
	if doc.ErrorMessage == "" {
		t.Error("failure must carry an error message")
	}
}

func TestProcessFailsWhenEmbeddingFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Upload(ctx, textUpload("A clause that embeds badly."))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	f.embedder.err = errors.New("provider quota exceeded")
	if err := f.orch.Process(ctx, res.DocumentId, false); err == nil {
		t.Fatal("expected embedding failure")
	}

	doc, _ := f.repo.GetDocument(ctx, res.DocumentId)
	if doc.Status != documentModel.StatusFailed {
		t.Errorf("expected FAILED, got %s", doc.Status)
	}
	if !strings.Contains(doc.ErrorMessage, "quota") {
		t.Errorf("error message lost: %q", doc.ErrorMessage)
	}
	chunks, _ := f.repo.GetChunks(ctx, res.DocumentId)
	if len(chunks) != 0 {
		t.Errorf("no chunks may persist on failure, got %d", len(chunks))
	}
}

// shortEmbedder drops vectors from batch answers the way a partially
// succeeded batch job would.
type shortEmbedder struct {
	hugeCalls int
}

func (e *shortEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (e *shortEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHugeDataSet bool) ([][]float32, error) {
	if isHugeDataSet {
		e.hugeCalls++
	}
	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks)-1; i++ {
		vectors = append(vectors, []float32{1, float32(i)})
	}
	return vectors, nil
}

func TestEmbedChunksLargeSetUsesBatchJobAndChecksCount(t *testing.T) {
	f := newFixture(t)
	embedder := &shortEmbedder{}
	f.orch.embedder = embedder

	pieces := make([]pieceWithPage, config.LargeEmbeddingBatchThreshold+1)
	for i := range pieces {
		pieces[i] = pieceWithPage{content: "clause", pageNumber: 1}
	}

	_, err := f.orch.embedChunks(context.Background(), pieces)
	if err == nil {
		t.Fatal("expected an error when the batch job returns fewer vectors than chunks")
	}
	if !strings.Contains(err.Error(), "embeddings") && !strings.Contains(err.Error(), "vectors") {
		t.Errorf("error does not describe the vector count mismatch: %v", err)
	}
	if embedder.hugeCalls != 1 {
		t.Errorf("expected the large set routed to the batch job path once, got %d", embedder.hugeCalls)
	}
}

func TestReprocessReplacesChunks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Upload(ctx, textUpload("Original clause text."))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := f.orch.Process(ctx, res.DocumentId, false); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// a second plain run must be rejected once COMPLETED
	if err := f.orch.Process(ctx, res.DocumentId, false); err == nil {
		t.Error("expected MarkAsProcessing rejection for COMPLETED document")
	}

	// reprocess is allowed and rebuilds the chunk set
	if _, err := f.orch.Reprocess(ctx, res.DocumentId); err != nil {
		t.Fatalf("Reprocess: %v", err)
	}
	if err := f.orch.Process(ctx, res.DocumentId, true); err != nil {
		t.Fatalf("Process(reprocess): %v", err)
	}

	doc, _ := f.repo.GetDocument(ctx, res.DocumentId)
	if doc.Status != documentModel.StatusCompleted {
		t.Errorf("expected COMPLETED after reprocess, got %s", doc.Status)
	}
	chunks, _ := f.repo.GetChunks(ctx, res.DocumentId)
	if len(chunks) != 1 {
		t.Errorf("expected rebuilt chunk set, got %d chunks", len(chunks))
	}
}

type stubIndexer struct {
	ops []string
}

func (s *stubIndexer) UpsertChunks(ctx context.Context, doc *documentModel.Document, chunks []documentModel.Chunk) error {
	s.ops = append(s.ops, "upsert")
	return nil
}

func (s *stubIndexer) DeleteByDocument(ctx context.Context, documentId string) error {
	s.ops = append(s.ops, "delete")
	return nil
}

func TestProcessClearsIndexBeforeEveryUpsert(t *testing.T) {
	f := newFixture(t)
	indexer := &stubIndexer{}
	f.orch.indexer = indexer
	ctx := context.Background()

	res, err := f.orch.Upload(ctx, textUpload("First clause of the contract. Second clause of the contract."))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	// first run and reprocess both purge the old points first
	if err := f.orch.Process(ctx, res.DocumentId, false); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if err := f.orch.Process(ctx, res.DocumentId, true); err != nil {
		t.Fatalf("Process reprocess: %v", err)
	}

	want := []string{"delete", "upsert", "delete", "upsert"}
	if len(indexer.ops) != len(want) {
		t.Fatalf("expected ops %v, got %v", want, indexer.ops)
	}
	for i, op := range want {
		if indexer.ops[i] != op {
			t.Fatalf("expected ops %v, got %v", want, indexer.ops)
		}
	}
}

func TestTrackDownload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Upload(ctx, textUpload("Clause."))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	url, err := f.orch.TrackDownload(ctx, res.DocumentId)
	if err != nil {
		t.Fatalf("TrackDownload: %v", err)
	}
	if !strings.Contains(url, "signed=1") {
		t.Errorf("expected signed URL, got %s", url)
	}

	doc, _ := f.repo.GetDocument(ctx, res.DocumentId)
	if doc.DownloadCount != 1 {
		t.Errorf("expected download count 1, got %d", doc.DownloadCount)
	}

	if _, err := f.orch.TrackDownload(ctx, "missing"); !errors.Is(err, repository.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestUploadEnqueueFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.enqueuer.err = errors.New("queue full")

	_, err := f.orch.Upload(context.Background(), textUpload("Clause."))
	if err == nil || !strings.Contains(err.Error(), "queue full") {
		t.Errorf("expected enqueue error, got %v", err)
	}
}
