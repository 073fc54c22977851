package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	ProcessInit    InternalStatus = "Init"
	DownloadCall   InternalStatus = "Download"
	ExtractionCall InternalStatus = "Extraction"
	ChunkingCall   InternalStatus = "Chunking"
	EmbeddingCall  InternalStatus = "Embedding"
	PersistCall    InternalStatus = "Persist"
	Error          InternalStatus = "Error"
	Complete       InternalStatus = "Complete"
)

// Job is one document-processing run. The pipeline never runs two stages of
// the same document concurrently; a worker owns a job end-to-end.
type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"can_retry"`
}

type JobPayload struct {
	DocumentId string `json:"document_id"`
	Reprocess  bool   `json:"reprocess,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
