package web

// errors.go provides unified error response handling for the web layer.
//
// Errors are logged with full technical detail server-side and returned to
// clients as a small JSON envelope. Two error kinds reach clients: a load
// failure (reload endpoint) and a missing source column, which aggregation
// endpoints report inline so the rest of the dashboard keeps rendering.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes returned by the API.
const (
	CodeReloadFailed   = "RELOAD_FAILED"
	CodeReloadDisabled = "RELOAD_DISABLED"
	CodeBadRequest     = "BAD_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
)

// respondError logs the technical error and writes the JSON envelope.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int, code string) {
	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", code,
		"request_id", chimw.GetReqID(r.Context()),
	)

	writeJSON(w, statusCode, ErrorResponse{Error: err.Error(), Code: code})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
