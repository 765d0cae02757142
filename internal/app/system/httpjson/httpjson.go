// Package httpjson holds the JSON request/response plumbing shared by every
// feature handler. It is the single place that maps the apperr taxonomy to
// HTTP status codes; handlers hand it an error and move on.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; rich-text goal content stays well under
// this.
const maxBodyBytes = 1 << 20 // 1 MiB

// Decode reads a JSON request body into dst. Returns a Validation error on
// malformed or oversized input.
func Decode(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is empty")
		}
		return apperr.Validation("invalid request body")
	}
	return nil
}

// Write encodes v as the response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorLogger maps errors to JSON error responses and logs the original
// error (with its wrapped cause) server-side.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger on the given zap logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// WriteError maps err through the apperr taxonomy and writes
// {"error": message}. Internal causes (storage/upstream details) are logged
// but never leak into the body.
func (e *ErrorLogger) WriteError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrUpstream):
		status = http.StatusBadGateway
	}

	if status >= 500 {
		e.log.Error(op, zap.Error(err), zap.String("path", r.URL.Path))
	} else {
		e.log.Warn(op, zap.Error(err), zap.String("path", r.URL.Path))
	}

	Write(w, status, map[string]string{"error": apperr.Message(err)})
}
