package api

import (
	"time"

	"github.com/erarta/advocata-sub000/internal/rag"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id         string            `json:"id" example:"job_cz109"`
	DocumentId string            `json:"document_id,omitempty" example:"doc_7742"`
	Status     string            `json:"status"`
	Step       string            `json:"step,omitempty"`
	Error      *JobOutgoingError `json:"error,omitempty"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type UploadResponse struct {
	DocumentId string `json:"document_id"`
	Status     string `json:"status"`
	JobId      string `json:"job_id"`
	StatusURL  string `json:"status_url"`
}

type DocumentResponse struct {
	Id            string         `json:"id"`
	OwnerId       string         `json:"owner_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	FileName      string         `json:"file_name"`
	FileSize      int64          `json:"file_size"`
	MimeType      string         `json:"mime_type"`
	Type          string         `json:"type"`
	Category      string         `json:"category"`
	IsPublic      bool           `json:"is_public"`
	Tags          []string       `json:"tags,omitempty"`
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ChunkCount    int            `json:"chunk_count"`
	DownloadCount int64          `json:"download_count"`
	ProcessedAt   *time.Time     `json:"processed_at,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

type AskResponse struct {
	Answer     string          `json:"answer"`
	References []rag.Reference `json:"references"`
	Fallback   bool            `json:"fallback,omitempty"`
}

type DownloadResponse struct {
	URL string `json:"url"`
}

// requests---------------------

type AskRequest struct {
	Question string       `json:"question" validate:"required"`
	LawyerId string       `json:"lawyer_id,omitempty"`
	History  []HistoryMsg `json:"history,omitempty"`
}

type HistoryMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
