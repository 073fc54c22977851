package job

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/erarta/advocata-sub000/internal/adapter/utils"
	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/domain/jobModel"
	"github.com/erarta/advocata-sub000/internal/metrics"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
)

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	logger            *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		logger:            logger_i.NewLogger("JobService"),
	}
}

// Enqueue creates a QUEUED job for the document and hands it to the worker
// pool. The send blocks when the buffer is full, which backpressures uploads
// instead of dropping work.
func (s *Service) Enqueue(ctx context.Context, payload jobModel.JobPayload) (string, error) {
	traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)

	newJob := jobModel.Job{
		Id:          utils.GetNewUUID(),
		TraceId:     traceId,
		JobPayload:  payload,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.ProcessInit,
	}

	if err := s.JobStore.SaveJob(ctx, newJob); err != nil {
		return "", err
	}

	metrics.IncrementJobsInQueue()
	s.JobChannel <- newJob
	s.logger.Info("Enqueued processing job", "jobId", newJob.Id, "documentId", payload.DocumentId)

	// document processing involves external batch calls, so every job may
	// warrant another worker; the dispatcher caps the pool
	accurateCount := atomic.AddInt64(&s.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || payload.DocumentId != "" {
		metrics.StartDispatcherSignalCount()
		s.DispatcherChannel <- true
	}

	return newJob.Id, nil
}

func (s *Service) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	return s.JobStore.GetJob(ctx, jobId)
}
