package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/erarta/advocata-sub000/internal/adapter"
	"github.com/erarta/advocata-sub000/internal/config"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response: %v", err)
	}
}

func validateContext(ctx context.Context) bool {
	logRH.With("traceId:", ctx.Value(config.TRACE_ID_KEY).(string))
	if ctx.Err() != nil {
		logRH.Warn("context error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.Warn("context cancelled")
		return false
	default:
		return true
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// userIdFromRequest reads the caller identity the gateway injects. Requests
// without it are rejected before any work happens.
func userIdFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	userId := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userId == "" {
		WriteErrorResponse(w, http.StatusUnauthorized, "", "X-User-Id header is required")
		return "", false
	}
	return userId, true
}
