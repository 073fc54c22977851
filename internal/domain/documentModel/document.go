package documentModel

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erarta/advocata-sub000/internal/config"
)

type DocumentStatus string
type DocumentType string
type DocumentCategory string

const (
	StatusPending    DocumentStatus = "PENDING"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusCompleted  DocumentStatus = "COMPLETED"
	StatusFailed     DocumentStatus = "FAILED"

	TypePDF   DocumentType = "PDF"
	TypeImage DocumentType = "IMAGE"
	TypeText  DocumentType = "TEXT"

	CategoryContract      DocumentCategory = "contract"
	CategoryCourtDecision DocumentCategory = "court_decision"
	CategoryLaw           DocumentCategory = "law"
	CategoryRegulation    DocumentCategory = "regulation"
	CategoryTemplate      DocumentCategory = "template"
	CategoryGuide         DocumentCategory = "guide"
	CategoryOther         DocumentCategory = "other"
)

var (
	ErrEmptyTitle      = errors.New("document title is required")
	ErrTitleTooLong    = fmt.Errorf("document title exceeds %d characters", config.MaxTitleLength)
	ErrEmptyFile       = errors.New("document file is empty")
	ErrFileTooLarge    = errors.New("document file exceeds 100MB")
	ErrUnknownDocType  = errors.New("unknown document type")
	ErrEmptyErrMessage = errors.New("failure requires a non-empty error message")
)

// Document is one uploaded file owned by a lawyer, together with its
// processing lifecycle. Status moves PENDING -> PROCESSING -> COMPLETED|FAILED;
// FAILED and COMPLETED documents may re-enter PROCESSING (retry / reprocess).
type Document struct {
	Id            string           `json:"id"`
	OwnerId       string           `json:"owner_id"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	FileName      string           `json:"file_name"`
	StorageURL    string           `json:"storage_url"`
	FileSize      int64            `json:"file_size"`
	MimeType      string           `json:"mime_type"`
	Type          DocumentType     `json:"type"`
	Category      DocumentCategory `json:"category"`
	IsPublic      bool             `json:"is_public"`
	Tags          []string         `json:"tags,omitempty"`
	Status        DocumentStatus   `json:"status"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	ErrorMessage  string           `json:"error_message,omitempty"`
	ChunkCount    int              `json:"chunk_count"`
	DownloadCount int64            `json:"download_count"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	events []Event
}

type NewDocumentParams struct {
	Id          string
	OwnerId     string
	Title       string
	Description string
	FileName    string
	StorageURL  string
	FileSize    int64
	MimeType    string
	Type        DocumentType
	Category    DocumentCategory
	IsPublic    bool
	Tags        []string
	Metadata    map[string]any
}

func NewDocument(p NewDocumentParams) (*Document, error) {
	if err := ValidateUpload(p.Title, p.FileSize, p.Type); err != nil {
		return nil, err
	}
	now := time.Now()
	doc := &Document{
		Id:          p.Id,
		OwnerId:     p.OwnerId,
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		FileName:    p.FileName,
		StorageURL:  p.StorageURL,
		FileSize:    p.FileSize,
		MimeType:    p.MimeType,
		Type:        p.Type,
		Category:    p.Category,
		IsPublic:    p.IsPublic,
		Tags:        p.Tags,
		Status:      StatusPending,
		Metadata:    p.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	doc.raise(DocumentCreated{DocumentId: doc.Id, OwnerId: doc.OwnerId})
	return doc, nil
}

// ValidateUpload checks the synchronous upload invariants so callers can
// reject a request before any bytes hit the object store.
func ValidateUpload(title string, size int64, docType DocumentType) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ErrEmptyTitle
	}
	if len(trimmed) > config.MaxTitleLength {
		return ErrTitleTooLong
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > config.MaxDocumentSize {
		return ErrFileTooLarge
	}
	switch docType {
	case TypePDF, TypeImage, TypeText:
	default:
		return ErrUnknownDocType
	}
	return nil
}

// MarkAsProcessing re-enters PROCESSING from PENDING, PROCESSING or FAILED.
// Only an already COMPLETED document is rejected; use MarkAsReprocessing to
// deliberately reprocess a completed one.
func (d *Document) MarkAsProcessing() error {
	if d.Status == StatusCompleted {
		return fmt.Errorf("document %s is already completed", d.Id)
	}
	d.Status = StatusProcessing
	d.UpdatedAt = time.Now()
	return nil
}

// MarkAsReprocessing re-enters PROCESSING from any state, including COMPLETED.
// The caller must discard the existing chunk set before producing a new one.
func (d *Document) MarkAsReprocessing() {
	d.Status = StatusProcessing
	d.ChunkCount = 0
	d.ProcessedAt = nil
	d.UpdatedAt = time.Now()
}

func (d *Document) MarkAsCompleted(chunkCount int) error {
	if d.Status != StatusProcessing {
		return fmt.Errorf("document %s is %s, not PROCESSING", d.Id, d.Status)
	}
	if chunkCount <= 0 {
		return fmt.Errorf("document %s produced no chunks", d.Id)
	}
	now := time.Now()
	d.Status = StatusCompleted
	d.ChunkCount = chunkCount
	d.ProcessedAt = &now
	d.ErrorMessage = ""
	d.UpdatedAt = now
	d.raise(DocumentProcessed{DocumentId: d.Id, ChunkCount: chunkCount})
	return nil
}

func (d *Document) MarkAsFailed(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyErrMessage
	}
	if d.Status == StatusCompleted {
		return fmt.Errorf("document %s is completed, failure not recordable", d.Id)
	}
	d.Status = StatusFailed
	d.ErrorMessage = message
	d.UpdatedAt = time.Now()
	return nil
}

// MergeMetadata folds stage output (page counts, OCR confidence, parser info)
// into the document's metadata map during processing.
func (d *Document) MergeMetadata(extra map[string]any) {
	if len(extra) == 0 {
		return
	}
	if d.Metadata == nil {
		d.Metadata = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		d.Metadata[k] = v
	}
	d.UpdatedAt = time.Now()
}

func (d *Document) raise(e Event) {
	d.events = append(d.events, e)
}

// PullEvents drains the events raised since the last call. The orchestrator
// publishes them after the matching state has been persisted.
func (d *Document) PullEvents() []Event {
	out := d.events
	d.events = nil
	return out
}
