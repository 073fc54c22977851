package embedding

import "context"

type Embedder interface {
	// GetEmbedding embeds a single retrieval query.
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	// BatchEmbedding embeds document chunks. isHugeDataSet routes providers
	// that have one through their asynchronous batch API.
	BatchEmbedding(ctx context.Context, chunks []string, isHugeDataSet bool) ([][]float32, error)
}
