package handlers

import (
	"context"
	"sync"

	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/data/repository"
	"github.com/erarta/advocata-sub000/internal/domain/jobModel"
	"github.com/erarta/advocata-sub000/internal/ingest"
	"github.com/erarta/advocata-sub000/internal/job"
	"github.com/erarta/advocata-sub000/internal/objectstore"
	"github.com/erarta/advocata-sub000/internal/rag"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
)

var (
	handlerInstance *ServiceHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
	logRH           *logger_i.Logger
)

type ServiceHandler struct {
	jobs         *job.Service
	orchestrator *ingest.Orchestrator
	qa           *rag.QAService
	repo         repository.DocumentRepository
	objects      objectstore.Store
}

func InitHandlers(jobService *job.Service, orchestrator *ingest.Orchestrator, qa *rag.QAService, repo repository.DocumentRepository, objects objectstore.Store) {
	once.Do(func() {
		handlerInstance = &ServiceHandler{
			jobs:         jobService,
			orchestrator: orchestrator,
			qa:           qa,
			repo:         repo,
			objects:      objects,
		}
		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting request handlers")
	})
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil && id != "" {
		return handlerInstance.jobs.GetJob(ctxC, id)
	}
	return result, false
}
