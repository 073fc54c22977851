package qdrantRepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/data/repository"
	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)
var collectionName = config.QdrantCollectionName

// ClientHolder mirrors the chunk sets into a Qdrant collection and serves
// similarity queries from the index instead of brute-force scoring. It is
// optional; when Qdrant is unreachable the repository's own search is used.
type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQdrantSearcher(ctx context.Context) *ClientHolder {

	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: qdrantInstance,
	}
}

func newClient() *qdrant.Client {

	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}

	err = createCollection(context.Background(), client, collectionName)
	if err != nil {
		logger.Error("could not create collection: ", "collectionName", collectionName, "error:", err)
		return nil
	}

	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

// SearchSimilarChunks queries the index with a scope filter: chunks from the
// owner's documents, plus public ones when requested.
func (db *ClientHolder) SearchSimilarChunks(ctx context.Context, vector []float32, topK int, scope repository.SearchScope) ([]repository.ChunkMatch, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	filter := scopeFilter(scope)
	if filter == nil {
		return nil, nil
	}

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         filter,
	})
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	matches := make([]repository.ChunkMatch, 0, len(result))
	for _, hit := range result {
		matches = append(matches, repository.ChunkMatch{
			Chunk: documentModel.Chunk{
				Id:         hit.Payload["chunk_id"].GetStringValue(),
				DocumentId: hit.Payload["document_id"].GetStringValue(),
				Content:    hit.Payload["content"].GetStringValue(),
				Index:      int(hit.Payload["chunk_index"].GetIntegerValue()),
				PageNumber: int(hit.Payload["page_number"].GetIntegerValue()),
			},
			Score: float64(hit.Score),
		})
	}

	loggr.Debug("Found matches", "count", len(matches))
	return matches, nil
}

func scopeFilter(scope repository.SearchScope) *qdrant.Filter {
	var should []*qdrant.Condition
	if scope.OwnerId != "" {
		should = append(should, qdrant.NewMatch("owner_id", scope.OwnerId))
	}
	if scope.IncludePublic {
		should = append(should, qdrant.NewMatchBool("is_public", true))
	}
	if len(should) == 0 {
		return nil
	}
	return &qdrant.Filter{Should: should}
}

// UpsertChunks mirrors a document's chunk set into the collection. Chunk ids
// change on every processing run, so callers clear the document's old points
// first via DeleteByDocument.
func (db *ClientHolder) UpsertChunks(ctx context.Context, doc *documentModel.Document, chunks []documentModel.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.Id),
			Vectors: qdrant.NewVectors(chunk.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"chunk_id":    chunk.Id,
				"document_id": chunk.DocumentId,
				"owner_id":    doc.OwnerId,
				"is_public":   doc.IsPublic,
				"content":     chunk.Content,
				"chunk_index": chunk.Index,
				"page_number": chunk.PageNumber,
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// DeleteByDocument drops every point belonging to the document, called
// before each upsert and on document deletion.
func (db *ClientHolder) DeleteByDocument(ctx context.Context, documentId string) error {
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentId),
			},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return err
}
