package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/data/repository"
	"github.com/erarta/advocata-sub000/internal/rag/embedding"
	"github.com/erarta/advocata-sub000/internal/rag/llm"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
)

var ErrEmptyQuestion = errors.New("question cannot be empty")
var ErrQuestionTooLong = fmt.Errorf("question exceeds %d characters", config.MaxQuestionLength)
var ErrNoEmbedder = errors.New("no embedding provider available")
var ErrNoProvider = errors.New("no answer provider available")

// Reference is one retrieved chunk cited by an answer, in rank order.
type Reference struct {
	DocumentId string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

type Answer struct {
	Text       string      `json:"text"`
	References []Reference `json:"references"`
	Fallback   bool        `json:"fallback"`
	Usage      llm.Usage   `json:"usage"`
}

// Question carries the asking lawyer plus an optional scoping lawyer:
// retrieval runs over ScopeLawyerId's documents when set, the asker's own
// otherwise. The public corpus is always in scope.
type Question struct {
	Text          string
	OwnerId       string
	ScopeLawyerId string
	History       []llm.Message
}

func (q Question) scopeOwner() string {
	if q.ScopeLawyerId != "" {
		return q.ScopeLawyerId
	}
	return q.OwnerId
}

// QAService answers questions from the asking lawyer's own documents plus
// the public corpus. When retrieval comes back empty it returns a canned
// fallback without spending an LLM call.
type QAService struct {
	searcher repository.ChunkSearcher
	embedder embedding.Embedder
	provider llm.Provider
	logger   *logger_i.Logger
}

func NewQAService(searcher repository.ChunkSearcher, embedder embedding.Embedder, provider llm.Provider) *QAService {
	return &QAService{
		searcher: searcher,
		embedder: embedder,
		provider: provider,
		logger:   logger_i.NewLogger("QAService"),
	}
}

func (s *QAService) Ask(ctx context.Context, q Question) (Answer, error) {
	matches, answer, err := s.retrieve(ctx, q)
	if err != nil {
		return Answer{}, err
	}
	if answer != nil {
		return *answer, nil
	}

	completion, err := s.provider.Chat(ctx, buildMessages(q, matches), llm.Options{
		Temperature: config.AnswerTemperature,
		MaxTokens:   config.AnswerMaxOutputTokens,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("generating answer: %w", err)
	}
	return assemble(completion, matches), nil
}

// AskStream behaves like Ask but forwards answer deltas through onChunk as
// they arrive. The fallback answer is delivered as a single chunk.
func (s *QAService) AskStream(ctx context.Context, q Question, onChunk func(delta string)) (Answer, error) {
	matches, answer, err := s.retrieve(ctx, q)
	if err != nil {
		return Answer{}, err
	}
	if answer != nil {
		onChunk(answer.Text)
		return *answer, nil
	}

	completion, err := s.provider.StreamChat(ctx, buildMessages(q, matches), onChunk, llm.Options{
		Temperature: config.AnswerTemperature,
		MaxTokens:   config.AnswerMaxOutputTokens,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("streaming answer: %w", err)
	}
	return assemble(completion, matches), nil
}

// retrieve validates, embeds and searches. A non-nil Answer means the
// fallback path fired and no provider call should happen.
func (s *QAService) retrieve(ctx context.Context, q Question) ([]repository.ChunkMatch, *Answer, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	trimmed := strings.TrimSpace(q.Text)
	if trimmed == "" {
		return nil, nil, ErrEmptyQuestion
	}
	if len(trimmed) > config.MaxQuestionLength {
		return nil, nil, ErrQuestionTooLong
	}
	if s.embedder == nil {
		return nil, nil, ErrNoEmbedder
	}
	if s.provider == nil {
		return nil, nil, ErrNoProvider
	}

	vector, err := s.embedder.GetEmbedding(ctx, trimmed)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding question: %w", err)
	}

	matches, err := s.searcher.SearchSimilarChunks(ctx, vector, config.RetrievalTopK, repository.SearchScope{
		OwnerId:       q.scopeOwner(),
		IncludePublic: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("searching chunks: %w", err)
	}

	if len(matches) == 0 {
		log.Debug("No relevant chunks found, returning fallback")
		return nil, &Answer{
			Text:       config.FallbackAnswer,
			References: []Reference{},
			Fallback:   true,
		}, nil
	}

	log.Debug("Retrieved chunks", "count", len(matches))
	return matches, nil, nil
}

func assemble(completion llm.Completion, matches []repository.ChunkMatch) Answer {
	references := make([]Reference, 0, len(matches))
	for _, m := range matches {
		references = append(references, Reference{
			DocumentId: m.Chunk.DocumentId,
			ChunkIndex: m.Chunk.Index,
			Content:    m.Chunk.Content,
			Score:      m.Score,
		})
	}
	return Answer{
		Text:       completion.Content,
		References: references,
		Usage:      completion.Usage,
	}
}
