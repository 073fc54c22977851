package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/erarta/advocata-sub000/internal/adapter"
	"github.com/erarta/advocata-sub000/internal/adapter/utils"
	"github.com/erarta/advocata-sub000/internal/api"
	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
	"github.com/erarta/advocata-sub000/internal/ingest"
	"github.com/erarta/advocata-sub000/internal/rag"
	"github.com/erarta/advocata-sub000/internal/rag/llm"
)

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// PostDocumentHandler godoc
// @Summary      Upload a legal document
// @Description  Receives a file via multipart/form-data, stores it and queues an ingestion job. Returns the new document and job IDs.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-User-Id  header    string  true   "Owning lawyer ID"
// @Param        title      formData  string  true   "Document title"
// @Param        type       formData  string  true   "PDF, IMAGE or TEXT"
// @Param        category   formData  string  false  "Document category"
// @Param        is_public  formData  bool    false  "Share with the public corpus"
// @Param        document   formData  file    true   "The file to upload"
// @Success      202  {object}  api.UploadResponse
// @Failure      400  {object}  api.JobResponse
// @Failure      413  {object}  api.JobResponse
// @Router       /documents [post]
func PostDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}
	ownerId, ok := userIdFromRequest(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(config.MaxDocumentSize); err != nil {
		WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "", "File too large or bad request")
		return
	}

	title := r.FormValue("title")
	docType := documentModel.DocumentType(strings.ToUpper(r.FormValue("type")))

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	data, err := io.ReadAll(io.LimitReader(fileReader, config.MaxDocumentSize+1))
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Read error")
		return
	}

	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
	}

	result, err := handlerInstance.orchestrator.Upload(r.Context(), ingest.UploadCommand{
		OwnerId:     ownerId,
		Title:       title,
		Description: r.FormValue("description"),
		FileName:    fileMetadata.Filename,
		MimeType:    fileMetadata.Header.Get("Content-Type"),
		Type:        docType,
		Category:    documentModel.DocumentCategory(r.FormValue("category")),
		IsPublic:    r.FormValue("is_public") == "true",
		Tags:        tags,
		Data:        data,
	})
	if err != nil {
		logRH.Warn("Bad upload request", "error:", err)
		WriteErrorResponse(w, uploadStatusCode(err), "", err.Error())
		return
	}

	writeJsonResponse(w, http.StatusAccepted, adapter.ToUploadResponse(result))
}

func uploadStatusCode(err error) int {
	if errors.Is(err, documentModel.ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch {
	case errors.Is(err, documentModel.ErrEmptyTitle),
		errors.Is(err, documentModel.ErrTitleTooLong),
		errors.Is(err, documentModel.ErrEmptyFile),
		errors.Is(err, documentModel.ErrUnknownDocType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// GetDocumentHandler godoc
// @Summary      Get a document
// @Description  Returns document info including processing status. Private documents are visible to their owner only.
// @Tags         Documents
// @Produce      json
// @Param        X-User-Id  header  string  true  "Requesting lawyer ID"
// @Param        id         path    string  true  "Document ID"
// @Success      200  {object}  api.DocumentResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /documents/{id} [get]
func GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	userId, ok := userIdFromRequest(w, r)
	if !ok {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	doc, err := handlerInstance.repo.GetDocument(r.Context(), id)
	if err != nil || (doc.OwnerId != userId && !doc.IsPublic) {
		// not found and not authorized look the same from outside
		WriteErrorResponse(w, http.StatusNotFound, id, "Document not found")
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc))
}

// ListDocumentsHandler godoc
// @Summary      List own documents
// @Tags         Documents
// @Produce      json
// @Param        X-User-Id  header  string  true  "Owning lawyer ID"
// @Success      200  {array}  api.DocumentResponse
// @Router       /documents [get]
func ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	userId, ok := userIdFromRequest(w, r)
	if !ok {
		return
	}

	docs, err := handlerInstance.repo.ListByOwner(r.Context(), userId)
	if err != nil {
		logRH.Error("Failed listing documents", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Storage error")
		return
	}

	out := make([]api.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, adapter.ToDocumentResponse(d))
	}
	writeJsonResponse(w, http.StatusOK, out)
}

// ReprocessDocumentHandler godoc
// @Summary      Reprocess a document
// @Description  Queues a fresh extraction and indexing run, replacing the existing chunk set.
// @Tags         Documents
// @Produce      json
// @Param        X-User-Id  header  string  true  "Owning lawyer ID"
// @Param        id         path    string  true  "Document ID"
// @Success      202  {object}  api.UploadResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /documents/{id}/reprocess [post]
func ReprocessDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	userId, ok := userIdFromRequest(w, r)
	if !ok {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	doc, err := handlerInstance.repo.GetDocument(r.Context(), id)
	if err != nil || doc.OwnerId != userId {
		WriteErrorResponse(w, http.StatusNotFound, id, "Document not found")
		return
	}

	jobId, err := handlerInstance.orchestrator.Reprocess(r.Context(), id)
	if err != nil {
		logRH.Error("Failed to queue reprocess", "documentId", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Could not queue reprocess")
		return
	}

	writeJsonResponse(w, http.StatusAccepted, api.UploadResponse{
		DocumentId: id,
		Status:     string(documentModel.StatusPending),
		JobId:      jobId,
		StatusURL:  fmt.Sprintf("status/%s", jobId),
	})
}

// PostDownloadHandler godoc
// @Summary      Download a document
// @Description  Counts the download and returns a short-lived signed URL for the file.
// @Tags         Documents
// @Produce      json
// @Param        X-User-Id  header  string  true  "Requesting lawyer ID"
// @Param        id         path    string  true  "Document ID"
// @Success      200  {object}  api.DownloadResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /documents/{id}/download [post]
func PostDownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	userId, ok := userIdFromRequest(w, r)
	if !ok {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	doc, err := handlerInstance.repo.GetDocument(r.Context(), id)
	if err != nil || (doc.OwnerId != userId && !doc.IsPublic) {
		WriteErrorResponse(w, http.StatusNotFound, id, "Document not found")
		return
	}

	url, err := handlerInstance.orchestrator.TrackDownload(r.Context(), id)
	if err != nil {
		logRH.Error("Failed to issue download", "documentId", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Could not issue download link")
		return
	}

	writeJsonResponse(w, http.StatusOK, api.DownloadResponse{URL: url})
}

// AskHandler godoc
// @Summary      Ask a question over the document corpus
// @Description  Retrieves the most relevant chunks from the caller's own and public documents and generates a cited answer.
// @Tags         QA
// @Accept       json
// @Produce      json
// @Param        X-User-Id  header  string          true  "Asking lawyer ID"
// @Param        request    body    api.AskRequest  true  "Question and optional history"
// @Success      200  {object}  api.AskResponse
// @Failure      400  {object}  api.JobResponse
// @Router       /ask [post]
func AskHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	userId, ok := userIdFromRequest(w, r)
	if !ok {
		return
	}

	question, ok := decodeAskRequest(w, r)
	if !ok {
		return
	}
	question.OwnerId = userId

	answer, err := handlerInstance.qa.Ask(r.Context(), question)
	if err != nil {
		writeAskError(w, err)
		return
	}

	writeJsonResponse(w, http.StatusOK, api.AskResponse{
		Answer:     answer.Text,
		References: answer.References,
		Fallback:   answer.Fallback,
	})
}

// AskStreamHandler godoc
// @Summary      Ask a question, streamed
// @Description  Same as /ask but delivers the answer as server-sent events: delta events while generating, then one references event.
// @Tags         QA
// @Accept       json
// @Produce      text/event-stream
// @Param        X-User-Id  header  string          true  "Asking lawyer ID"
// @Param        request    body    api.AskRequest  true  "Question and optional history"
// @Success      200  {string}  string  "SSE stream"
// @Failure      400  {object}  api.JobResponse
// @Router       /ask/stream [post]
func AskStreamHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	userId, ok := userIdFromRequest(w, r)
	if !ok {
		return
	}

	question, ok := decodeAskRequest(w, r)
	if !ok {
		return
	}
	question.OwnerId = userId

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	answer, err := handlerInstance.qa.AskStream(r.Context(), question, func(delta string) {
		writeSSE(w, "delta", map[string]string{"delta": delta})
		flusher.Flush()
	})
	if err != nil {
		writeSSE(w, "error", map[string]string{"error": err.Error()})
		flusher.Flush()
		return
	}

	writeSSE(w, "references", api.AskResponse{
		References: answer.References,
		Fallback:   answer.Fallback,
	})
	flusher.Flush()
}

func decodeAskRequest(w http.ResponseWriter, r *http.Request) (rag.Question, bool) {
	var requestData api.AskRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the Ask handler reader :", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		logRH.Warn("Bad Ask Request: ", "error:", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return rag.Question{}, false
	}

	history := make([]llm.Message, 0, len(requestData.History))
	for _, h := range requestData.History {
		role := llm.RoleUser
		if h.Role == string(llm.RoleAssistant) {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: h.Content})
	}

	return rag.Question{
		Text:          requestData.Question,
		ScopeLawyerId: requestData.LawyerId,
		History:       history,
	}, true
}

func writeAskError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, rag.ErrEmptyQuestion) || errors.Is(err, rag.ErrQuestionTooLong) {
		code = http.StatusBadRequest
	}
	WriteErrorResponse(w, code, "", err.Error())
}

func writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logRH.Error("Error encoding SSE payload", "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

// objectServer is satisfied by the local object store, which routes its
// signed URLs back through this server. GCS links go straight to the bucket.
type objectServer interface {
	ServeObject(w http.ResponseWriter, r *http.Request, key string)
}

// GetObjectHandler godoc
// @Summary      Fetch an object via a signed link
// @Description  Serves files behind signed URLs issued by the download endpoint. Signature and expiry are checked before anything is read.
// @Tags         Documents
// @Produce      application/octet-stream
// @Param        key        path   string  true  "Object key"
// @Param        expires    query  int     true  "Unix expiry"
// @Param        signature  query  string  true  "HMAC signature"
// @Success      200  {string}  string  "File bytes"
// @Failure      403  {object}  api.JobResponse
// @Router       /object/{key} [get]
func GetObjectHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	server, ok := handlerInstance.objects.(objectServer)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, "", "Not found")
		return
	}
	server.ServeObject(w, r, utils.GetChiURLParam(r, "*"))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a processing job using its ID.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := GetJobStatus(idString, r.Context().Value(config.TRACE_ID_KEY).(string))

	logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToJobResponse(result))
}
