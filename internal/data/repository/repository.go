package repository

import (
	"context"
	"errors"

	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
)

// SearchScope restricts similarity search to chunks whose owning document is
// owned by OwnerId or, when IncludePublic is set, flagged public. An empty
// OwnerId with IncludePublic searches the public corpus only.
type SearchScope struct {
	OwnerId       string
	IncludePublic bool
}

type ChunkMatch struct {
	Chunk documentModel.Chunk
	Score float64
}

// ChunkSearcher is the swap point for the similarity backend: the default
// implementations compute cosine similarity in application code, an
// index-backed implementation (qdrant) can replace them without touching
// callers.
type ChunkSearcher interface {
	SearchSimilarChunks(ctx context.Context, vector []float32, topK int, scope SearchScope) ([]ChunkMatch, error)
}

type DocumentRepository interface {
	ChunkSearcher

	SaveDocument(ctx context.Context, doc *documentModel.Document) error
	GetDocument(ctx context.Context, id string) (*documentModel.Document, error)
	ListByOwner(ctx context.Context, ownerId string) ([]*documentModel.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// ReplaceChunks discards every stored chunk of the document and inserts
	// the new set as one serialized write; readers never observe a partial set.
	ReplaceChunks(ctx context.Context, documentId string, chunks []documentModel.Chunk) error
	DeleteChunks(ctx context.Context, documentId string) error
	GetChunks(ctx context.Context, documentId string) ([]documentModel.Chunk, error)

	IncrementDownloads(ctx context.Context, documentId string) (int64, error)
}
