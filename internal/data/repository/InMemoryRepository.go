package repository

import (
	"context"
	"sync"

	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
)

// InMemoryRepository backs tests and redis-less development, mirroring the
// redis repository's semantics (whole-set chunk replacement, scoped search).
type InMemoryRepository struct {
	mu        *sync.RWMutex
	documents map[string]documentModel.Document
	chunks    map[string][]documentModel.Chunk
}

func InitInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		mu:        new(sync.RWMutex),
		documents: make(map[string]documentModel.Document),
		chunks:    make(map[string][]documentModel.Chunk),
	}
}

func (r *InMemoryRepository) SaveDocument(ctx context.Context, doc *documentModel.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[doc.Id] = *doc
	return nil
}

func (r *InMemoryRepository) GetDocument(ctx context.Context, id string) (*documentModel.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.documents[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	copied := doc
	return &copied, nil
}

func (r *InMemoryRepository) ListByOwner(ctx context.Context, ownerId string) ([]*documentModel.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*documentModel.Document
	for _, doc := range r.documents {
		if doc.OwnerId == ownerId {
			copied := doc
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) DeleteDocument(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.documents[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(r.documents, id)
	delete(r.chunks, id) //chunks are cascade-deleted with the document
	return nil
}

func (r *InMemoryRepository) ReplaceChunks(ctx context.Context, documentId string, chunks []documentModel.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	replacement := make([]documentModel.Chunk, len(chunks))
	copy(replacement, chunks)
	r.chunks[documentId] = replacement
	return nil
}

func (r *InMemoryRepository) DeleteChunks(ctx context.Context, documentId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chunks, documentId)
	return nil
}

func (r *InMemoryRepository) GetChunks(ctx context.Context, documentId string) ([]documentModel.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]documentModel.Chunk, len(r.chunks[documentId]))
	copy(out, r.chunks[documentId])
	return out, nil
}

func (r *InMemoryRepository) IncrementDownloads(ctx context.Context, documentId string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[documentId]
	if !ok {
		return 0, ErrDocumentNotFound
	}
	doc.DownloadCount++
	r.documents[documentId] = doc
	return doc.DownloadCount, nil
}

func (r *InMemoryRepository) SearchSimilarChunks(ctx context.Context, vector []float32, topK int, scope SearchScope) ([]ChunkMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []documentModel.Chunk
	for id, doc := range r.documents {
		if !inScope(doc, scope) {
			continue
		}
		candidates = append(candidates, r.chunks[id]...)
	}
	return rankMatches(scoreChunks(vector, candidates), topK), nil
}

func inScope(doc documentModel.Document, scope SearchScope) bool {
	if scope.OwnerId != "" && doc.OwnerId == scope.OwnerId {
		return true
	}
	return scope.IncludePublic && doc.IsPublic
}
