package adapter

import (
	"fmt"
	"time"

	"github.com/erarta/advocata-sub000/internal/api"
	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
	"github.com/erarta/advocata-sub000/internal/domain/jobModel"
	"github.com/erarta/advocata-sub000/internal/ingest"
)

func ToUploadResponse(res ingest.UploadResult) api.UploadResponse {
	return api.UploadResponse{
		DocumentId: res.DocumentId,
		Status:     string(res.Status),
		JobId:      res.JobId,
		StatusURL:  fmt.Sprintf("status/%s", res.JobId),
	}
}

func ToJobResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:         job.Id,
		DocumentId: job.JobPayload.DocumentId,
		Status:     string(job.Status),
		Step:       string(job.CurrentStep),
		Error:      errorPtr,
		StartTime:  job.CreatedTime,
		EndTime:    job.EndTime,
	}
}

func ToDocumentResponse(doc *documentModel.Document) api.DocumentResponse {
	return api.DocumentResponse{
		Id:            doc.Id,
		OwnerId:       doc.OwnerId,
		Title:         doc.Title,
		Description:   doc.Description,
		FileName:      doc.FileName,
		FileSize:      doc.FileSize,
		MimeType:      doc.MimeType,
		Type:          string(doc.Type),
		Category:      string(doc.Category),
		IsPublic:      doc.IsPublic,
		Tags:          doc.Tags,
		Status:        string(doc.Status),
		ErrorMessage:  doc.ErrorMessage,
		ChunkCount:    doc.ChunkCount,
		DownloadCount: doc.DownloadCount,
		ProcessedAt:   doc.ProcessedAt,
		Metadata:      doc.Metadata,
		CreatedAt:     doc.CreatedAt,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		Status:    string(api.JobStatusError),
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
