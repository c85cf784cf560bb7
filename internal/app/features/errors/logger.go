// internal/app/features/errors/logger.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorLogger logs server-side failures in detail and answers the client
// with a fixed message only.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &ErrorLogger{log: log}
}

// LogServerError logs msg and err with request context and writes a 500
// body carrying userMsg. The error text never reaches the client.
func (el *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	el.log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())))
	if userMsg == "" {
		userMsg = "Something went wrong. Please try again."
	}
	if backURL == "" {
		backURL = "/"
	}
	write(w, r, http.StatusInternalServerError, "server_error", userMsg, backURL)
}

// LogBadRequest logs a rejected request at warn level and writes a 400 body
// carrying userMsg.
func (el *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	el.log.Warn(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())))
	if userMsg == "" {
		userMsg = "Invalid request."
	}
	write(w, r, http.StatusBadRequest, "bad_request", userMsg, backURL)
}

// WriteJSON writes v as a JSON response with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
