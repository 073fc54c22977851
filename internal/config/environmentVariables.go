package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//auth
	NoAuthBypass = true //set false once the gateway issues service tokens
	AuthToken    = ""

	//document constraints
	MaxDocumentSize   int64 = 100 << 20 //100MB
	MaxTitleLength          = 200
	MaxChunkLength          = 10000
	MaxQuestionLength       = 1000

	//chunker
	ChunkTargetSize  = 1000
	ChunkOverlapSize = 200

	//embedding
	EmbeddingOutputDimensionality int32 = 1536
	OpenAIEmbeddingModel                = "text-embedding-3-small"
	GoogleEmbeddingModel                = "gemini-embedding-001"
	//beyond this many chunks the google provider switches to its batch job API
	LargeEmbeddingBatchThreshold = 5000
	EmbeddingBatchSize           = 100

	//llm
	OpenAIChatModel               = "gpt-4o-mini"
	GeminiModelName               = "gemini-2.5-flash-lite-preview-09-2025"
	OCRVisionModel                = "gemini-2.5-flash-lite-preview-09-2025"
	AnswerTemperature     float32 = 0.2
	AnswerMaxOutputTokens         = 1024
	ProviderCallTimeout           = 30 * time.Second
	ProcessPipelineTimeout        = 5 * time.Minute
	PageExtractionTimeout         = 10 * time.Second
	EmbeddingRetryWait            = 5 * time.Second

	FallbackAnswer      = "I could not find relevant information in the available legal documents to answer your question. Please consider consulting a qualified lawyer directly."
	QASystemInstruction = "You are a legal research assistant. Answer strictly from the supplied context excerpts. Cite your sources with their bracketed marker numbers, for example [1] or [2]. Do not state definitive legal conclusions; where the outcome depends on case specifics, say so. Recommend a professional consultation with a qualified lawyer for any material decision. If the context does not contain the answer, say that it does not."

	SignedDownloadURLTTL = 15 * time.Minute

	//worker pool
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 15 * time.Second
	WriteTimeout           = 60 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB (optional index-backed chunk search)
	QdrantHost           = "localhost"
	QdrantGrpcPort       = 6334
	QdrantUseTLS         = false
	QdrantPoolSize       = 1
	QdrantCollectionName = "legal-chunks"

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisPassword = ""

	//redis has 16 DB we can use
	RedisJobStore      = 0
	RedisDocumentStore = 1

	//redis timeouts
	RedisJobStoreTTL = 24 * time.Hour

	//object store
	ObjectStoreLocalDir = "object_data"
)

// env-provided values, read once at startup
var (
	OpenAIAPIKey          = os.Getenv("OPENAI_API_KEY")
	GoogleAPIKey          = os.Getenv("GOOGLE_API_KEY")
	GCSBucket             = os.Getenv("GCS_BUCKET")
	ObjectStorePublicBase = getEnv("OBJECT_STORE_PUBLIC_BASE", "http://localhost:3000")
	ObjectStoreSigningKey = getEnv("OBJECT_STORE_SIGNING_KEY", "local-dev-signing-key")
	LLMProvider           = getEnv("LLM_PROVIDER", "openai")

	//retrieval
	RetrievalTopK = GetEnvInt("RETRIEVAL_TOP_K", 5)
)

func getEnv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
