package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/KasumiMercury/tgclips-function-api/internal/logging"
	"github.com/KasumiMercury/tgclips-function-api/internal/video"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		slog.Error("Failed to marshal response", slog.Group("response", "error", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"could not marshal response","kind":"upstream"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// Message writes {"message": message}.
func Message(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, struct {
		Message string `json:"message"`
	}{Message: message})
}

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Error writes a plain error body of the given kind.
func Error(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorBody{Error: message, Kind: kind})
}

// statusOf maps an error kind to its HTTP status.
func statusOf(kind string) int {
	switch kind {
	case video.ErrInvalid.Error(), video.ErrRejected.Error():
		return http.StatusBadRequest
	case video.ErrForbidden.Error():
		return http.StatusForbidden
	case video.ErrNotFound.Error():
		return http.StatusNotFound
	case video.ErrUnavailable.Error():
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and writes it with the status of its kind. The body carries
// the request id so clients can quote it.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := video.Kind(err)
	status := statusOf(kind)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "Request failed",
		slog.Group(op, "kind", kind, "status", status, "error", err),
	)

	writeJSON(w, status, errorBody{
		Error:     video.Message(err),
		Kind:      kind,
		Details:   video.Details(err),
		RequestID: logging.RequestID(r.Context()),
	})
}
