package repository

import (
	"math"
	"sort"

	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
)

// CosineSimilarity is the dot product of a and b divided by the product of
// their magnitudes. A zero-magnitude vector yields 0, not a division error.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankMatches sorts strictly descending by score; ties break ascending on
// (documentId, chunkIndex) so ranking is deterministic across stores.
func rankMatches(matches []ChunkMatch, topK int) []ChunkMatch {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Chunk.DocumentId != matches[j].Chunk.DocumentId {
			return matches[i].Chunk.DocumentId < matches[j].Chunk.DocumentId
		}
		return matches[i].Chunk.Index < matches[j].Chunk.Index
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// scoreChunks computes brute-force cosine scores for every candidate chunk.
func scoreChunks(vector []float32, chunks []documentModel.Chunk) []ChunkMatch {
	matches := make([]ChunkMatch, 0, len(chunks))
	for _, c := range chunks {
		matches = append(matches, ChunkMatch{
			Chunk: c,
			Score: CosineSimilarity(vector, c.Embedding),
		})
	}
	return matches
}
