// Package response writes JSON bodies for the handlers that bypass huma.
package response

import (
	"encoding/json/v2"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/store"
)

// Status values of a StatusBody.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StatusBody is the {status, message} body used by the transcription
// submission endpoint.
type StatusBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Envelope is the body written for router level errors such as unknown routes.
type Envelope struct {
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

func write(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.MarshalWrite(w, body); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// JSON writes data inside an Envelope.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Envelope{Success: status < 400, Data: data}, logger)
}

// Error writes an Envelope carrying message.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	write(w, status, Envelope{Error: message}, logger)
}

// OK writes 200 {"status":"success","message":message}.
func OK(w http.ResponseWriter, message string, logger *slog.Logger) {
	write(w, http.StatusOK, StatusBody{Status: StatusSuccess, Message: message}, logger)
}

// Fail writes {"status":"error","message":message} with the given code.
func Fail(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	write(w, status, StatusBody{Status: StatusError, Message: message}, logger)
}

// FailFromError maps err to a status code and writes it as a StatusBody.
// Domain and store errors keep their own message; anything else becomes a
// 500 with fallback as the message.
func FailFromError(w http.ResponseWriter, err error, fallback string, logger *slog.Logger) {
	var derr *domainerrors.Error
	if errors.As(err, &derr) && derr.Code != domainerrors.CodeInternal {
		Fail(w, derr.HTTPStatus(), derr.Message, logger)
		return
	}

	var serr *store.Error
	if errors.As(err, &serr) && serr.HTTPCode() < http.StatusInternalServerError {
		Fail(w, serr.HTTPCode(), serr.Message, logger)
		return
	}

	if logger != nil {
		logger.Error("request failed", "error", err)
	}
	Fail(w, http.StatusInternalServerError, fallback, logger)
}
