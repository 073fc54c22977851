package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/data/redisStore"
	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

// RedisRepository persists documents as JSON values with owner/public index
// sets, and each document's chunk set as a single JSON value so replacement
// is one atomic write. Similarity search is brute-force cosine over the
// scoped candidate chunks.
type RedisRepository struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisRepository(ctx context.Context) *RedisRepository {
	inner := redisStore.GetRedisStore(ctx, config.RedisDocumentStore)
	if inner == nil {
		return nil
	}
	return &RedisRepository{
		store:  inner,
		logger: logger_i.NewLogger("DocumentRepository"),
	}
}

func documentKey(id string) string       { return "document:" + id }
func chunksKey(documentId string) string { return "chunks:" + documentId }
func downloadsKey(id string) string      { return "downloads:" + id }
func ownerKey(ownerId string) string     { return "documents:owner:" + ownerId }

const publicKey = "documents:public"

func (r *RedisRepository) SaveDocument(ctx context.Context, doc *documentModel.Document) error {
	log := r.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", doc.Id)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling document: %w", err)
	}

	err = r.store.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, documentKey(doc.Id), data, 0)
		pipe.SAdd(ctx, ownerKey(doc.OwnerId), doc.Id)
		if doc.IsPublic {
			pipe.SAdd(ctx, publicKey, doc.Id)
		} else {
			pipe.SRem(ctx, publicKey, doc.Id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	log.Debug("Saved document", "status", doc.Status)
	return nil
}

func (r *RedisRepository) GetDocument(ctx context.Context, id string) (*documentModel.Document, error) {
	val, err := r.store.Get(ctx, documentKey(id))
	if r.store.IsNil(err) {
		return nil, ErrDocumentNotFound
	} else if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	var doc documentModel.Document
	if err := json.Unmarshal([]byte(val), &doc); err != nil {
		return nil, fmt.Errorf("unmarshalling document: %w", err)
	}

	//the download counter is authoritative, not the stored JSON
	if raw, err := r.store.Get(ctx, downloadsKey(id)); err == nil {
		if n, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil {
			doc.DownloadCount = n
		}
	}
	return &doc, nil
}

func (r *RedisRepository) ListByOwner(ctx context.Context, ownerId string) ([]*documentModel.Document, error) {
	ids, err := r.store.SetMembers(ctx, ownerKey(ownerId))
	if err != nil {
		return nil, fmt.Errorf("listing owner documents: %w", err)
	}
	out := make([]*documentModel.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := r.GetDocument(ctx, id)
		if err == ErrDocumentNotFound {
			continue //stale index entry
		}
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (r *RedisRepository) DeleteDocument(ctx context.Context, id string) error {
	doc, err := r.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	return r.store.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, documentKey(id), chunksKey(id), downloadsKey(id))
		pipe.SRem(ctx, ownerKey(doc.OwnerId), id)
		pipe.SRem(ctx, publicKey, id)
		return nil
	})
}

func (r *RedisRepository) ReplaceChunks(ctx context.Context, documentId string, chunks []documentModel.Chunk) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("marshalling chunks: %w", err)
	}
	// delete-then-insert inside one MULTI/EXEC; a concurrent reader sees
	// either the old complete set or the new complete set
	return r.store.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, chunksKey(documentId))
		pipe.Set(ctx, chunksKey(documentId), data, 0)
		return nil
	})
}

func (r *RedisRepository) DeleteChunks(ctx context.Context, documentId string) error {
	return r.store.Del(ctx, chunksKey(documentId))
}

func (r *RedisRepository) GetChunks(ctx context.Context, documentId string) ([]documentModel.Chunk, error) {
	val, err := r.store.Get(ctx, chunksKey(documentId))
	if r.store.IsNil(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("getting chunks: %w", err)
	}
	var chunks []documentModel.Chunk
	if err := json.Unmarshal([]byte(val), &chunks); err != nil {
		return nil, fmt.Errorf("unmarshalling chunks: %w", err)
	}
	return chunks, nil
}

func (r *RedisRepository) IncrementDownloads(ctx context.Context, documentId string) (int64, error) {
	if _, err := r.store.Get(ctx, documentKey(documentId)); r.store.IsNil(err) {
		return 0, ErrDocumentNotFound
	} else if err != nil {
		return 0, fmt.Errorf("checking document: %w", err)
	}
	return r.store.IncrBy(ctx, downloadsKey(documentId), 1)
}

func (r *RedisRepository) SearchSimilarChunks(ctx context.Context, vector []float32, topK int, scope SearchScope) ([]ChunkMatch, error) {
	ids, err := r.scopedDocumentIds(ctx, scope)
	if err != nil {
		return nil, err
	}

	var candidates []documentModel.Chunk
	for _, id := range ids {
		chunks, err := r.GetChunks(ctx, id)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, chunks...)
	}
	return rankMatches(scoreChunks(vector, candidates), topK), nil
}

func (r *RedisRepository) scopedDocumentIds(ctx context.Context, scope SearchScope) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string

	appendIds := func(key string) error {
		members, err := r.store.SetMembers(ctx, key)
		if err != nil {
			return fmt.Errorf("reading index %s: %w", key, err)
		}
		for _, id := range members {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		return nil
	}

	if scope.OwnerId != "" {
		if err := appendIds(ownerKey(scope.OwnerId)); err != nil {
			return nil, err
		}
	}
	if scope.IncludePublic {
		if err := appendIds(publicKey); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func TestRepository(store *redisStore.Store) *RedisRepository {
	return &RedisRepository{
		store:  store,
		logger: logger_i.NewLogger("test repository"),
	}
}
