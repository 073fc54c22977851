package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/erarta/advocata-sub000/internal/config"
	jobmodel "github.com/erarta/advocata-sub000/internal/domain/jobModel"
	"github.com/erarta/advocata-sub000/internal/metrics"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.ProcessPipelineTimeout)
	defer cancel()
	logger.Debug("Processing job:", "job Id:", job.Id, "document Id:", job.JobPayload.DocumentId)

	job.CurrentStep = jobmodel.DownloadCall
	saveJobState(ctx, job, jobmodel.JobStatusRunning)

	err := _orchestrator.Process(ctx, job.JobPayload.DocumentId, job.JobPayload.Reprocess)

	job.EndTime = time.Now()
	if err != nil {
		// the document was already marked FAILED by the pipeline
		logger.Error("Job failed", "job Id:", job.Id, "error", err)
		job.CurrentStep = jobmodel.Error
		job.Error = jobmodel.JobError{
			Code:    500,
			Message: err.Error(),
			Retry:   true,
		}
		saveJobState(ctx, job, jobmodel.JobStatusError)
		return
	}

	job.CurrentStep = jobmodel.Complete
	saveJobState(ctx, job, jobmodel.JobStatusComplete)
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update job status", "err", err)
	}
}
