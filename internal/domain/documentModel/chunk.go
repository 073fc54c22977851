package documentModel

import (
	"errors"
	"fmt"
	"time"

	"github.com/erarta/advocata-sub000/internal/config"
)

var (
	ErrEmptyChunkContent = errors.New("chunk content is empty")
	ErrChunkTooLong      = fmt.Errorf("chunk content exceeds %d characters", config.MaxChunkLength)
	ErrEmptyEmbedding    = errors.New("chunk embedding is empty")
	ErrNegativeIndex     = errors.New("chunk index is negative")
)

// Chunk is one embeddable unit of a document's extracted text. It has no
// identity outside its document; the whole set is replaced on reprocessing.
type Chunk struct {
	Id         string         `json:"id"`
	DocumentId string         `json:"document_id"`
	Content    string         `json:"content"`
	Embedding  []float32      `json:"embedding"`
	Index      int            `json:"index"`
	PageNumber int            `json:"page_number,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func NewChunk(id, documentId, content string, embedding []float32, index int, pageNumber int, metadata map[string]any) (Chunk, error) {
	if content == "" {
		return Chunk{}, ErrEmptyChunkContent
	}
	if len(content) > config.MaxChunkLength {
		return Chunk{}, ErrChunkTooLong
	}
	if len(embedding) == 0 {
		return Chunk{}, ErrEmptyEmbedding
	}
	if index < 0 {
		return Chunk{}, ErrNegativeIndex
	}
	return Chunk{
		Id:         id,
		DocumentId: documentId,
		Content:    content,
		Embedding:  embedding,
		Index:      index,
		PageNumber: pageNumber,
		Metadata:   metadata,
		CreatedAt:  time.Now(),
	}, nil
}
