// @title           Legal Document Ingestion & QA API
// @version         1.0
// @description     Handles asynchronous legal document ingestion and retrieval-augmented question answering with citations.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email   dev@erarta.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/erarta/advocata-sub000/internal/chunker"
	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/data/repository"
	"github.com/erarta/advocata-sub000/internal/data/repository/qdrantRepo"
	"github.com/erarta/advocata-sub000/internal/data/store"
	jobmodel "github.com/erarta/advocata-sub000/internal/domain/jobModel"
	"github.com/erarta/advocata-sub000/internal/extract"
	"github.com/erarta/advocata-sub000/internal/extract/geminiOCR"
	"github.com/erarta/advocata-sub000/internal/handlers"
	"github.com/erarta/advocata-sub000/internal/ingest"
	"github.com/erarta/advocata-sub000/internal/job"
	"github.com/erarta/advocata-sub000/internal/objectstore"
	"github.com/erarta/advocata-sub000/internal/objectstore/gcs"
	"github.com/erarta/advocata-sub000/internal/objectstore/local"
	"github.com/erarta/advocata-sub000/internal/rag"
	"github.com/erarta/advocata-sub000/internal/rag/embedding"
	"github.com/erarta/advocata-sub000/internal/rag/embedding/googleEmbedding"
	"github.com/erarta/advocata-sub000/internal/rag/embedding/openaiEmbedding"
	"github.com/erarta/advocata-sub000/internal/rag/llm"
	"github.com/erarta/advocata-sub000/internal/rag/llm/gemini"
	"github.com/erarta/advocata-sub000/internal/rag/llm/openaiLLM"
	"github.com/erarta/advocata-sub000/internal/server"
	"github.com/erarta/advocata-sub000/internal/worker"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          store.GetRedisJobStore(serviceContext),
	}
	logger.Info("Starting job service")

	if serviceConfig.JobStore == nil {
		logger.Error("Redis job store is offline, falling back to in-memory")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
	}
	jobService := job.InitJobService(serviceConfig)

	//document repository, redis-backed with in-memory fallback
	var repo repository.DocumentRepository
	if redisRepo := repository.GetRedisRepository(serviceContext); redisRepo != nil {
		repo = redisRepo
	} else {
		logger.Error("Redis document store is offline, falling back to in-memory")
		repo = repository.InitInMemoryRepository()
	}

	objectStore := buildObjectStore(serviceContext, logger)
	if objectStore == nil {
		logger.Error("Object store failed to initialize. Shutting down.")
		return
	}

	embeddingService, llmProvider, ocr := buildProviders(serviceContext)
	if embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	//qdrant index is optional, the repository remains the source of truth
	var indexer ingest.ChunkIndexer
	var searcher repository.ChunkSearcher = repo
	if qdrantClient := qdrantRepo.GetQdrantSearcher(serviceContext); qdrantClient != nil {
		indexer = qdrantClient
		searcher = qdrantClient
	} else {
		logger.Warn("Qdrant is offline, similarity search runs against the repository")
	}

	orchestrator := ingest.NewOrchestrator(ingest.OrchestratorConfig{
		Repo:      repo,
		Store:     objectStore,
		Extractor: extract.NewExtractor(ocr),
		Chunker:   chunker.NewSentenceChunker(config.ChunkTargetSize, config.ChunkOverlapSize),
		Embedder:  embeddingService,
		Enqueuer:  jobService,
		Indexer:   indexer,
	})

	qaService := rag.NewQAService(searcher, embeddingService, llmProvider)

	handlers.InitHandlers(jobService, orchestrator, qaService, repo, objectStore)

	//init worker pool
	worker.InitServices(jobService, orchestrator)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func buildObjectStore(ctx context.Context, logger *logger_i.Logger) objectstore.Store {
	if config.GCSBucket != "" {
		gcsStore, err := gcs.NewStore(ctx, config.GCSBucket, config.ObjectStorePublicBase)
		if err != nil {
			logger.Error("GCS store init failed", "bucket", config.GCSBucket, "error", err)
			return nil
		}
		logger.Info("Using GCS object store", "bucket", config.GCSBucket)
		return gcsStore
	}

	localStore, err := local.NewStore(config.ObjectStoreLocalDir, config.ObjectStorePublicBase, []byte(config.ObjectStoreSigningKey))
	if err != nil {
		logger.Error("Local object store init failed", "dir", config.ObjectStoreLocalDir, "error", err)
		return nil
	}
	logger.Info("Using local object store", "dir", config.ObjectStoreLocalDir)
	return localStore
}

func buildProviders(ctx context.Context) (embedding.Embedder, llm.Provider, extract.ImageOCR) {
	var ocr extract.ImageOCR
	if config.GoogleAPIKey != "" {
		ocr = geminiOCR.GetGeminiOCR(ctx, config.OCRVisionModel, config.GoogleAPIKey)
	}

	if config.LLMProvider == "gemini" {
		embedder := googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, config.GoogleAPIKey)
		provider := gemini.GetGeminiClient(ctx, config.GeminiModelName, config.GoogleAPIKey)
		return embedder, provider, ocr
	}

	embedder := openaiEmbedding.GetOpenAIEmbeddingClient(ctx, config.OpenAIEmbeddingModel, config.OpenAIAPIKey)
	provider := openaiLLM.GetOpenAIClient(ctx, config.OpenAIChatModel, config.OpenAIAPIKey)
	return embedder, provider, ocr
}
