package api

import (
	"encoding/json/v2"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/minutesapp/minutes-server/internal/access"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/http/response"
	"github.com/minutesapp/minutes-server/internal/service"
)

// Transcription submission messages.
const (
	NoTranscriptionMessage   = "No transcription data provided"
	SaveTranscriptionFailure = "Failed to save transcription due to a server error"
)

// maxTranscriptionBytes bounds the submission body.
const maxTranscriptionBytes = 10 << 20

// saveTranscriptionRequest is the body posted by the recording page.
type saveTranscriptionRequest struct {
	Transcription *string `json:"transcription"`
}

// handleSaveTranscription stores a transcription for the logged in user and
// answers with {status, message}.
func (s *Server) handleSaveTranscription(w http.ResponseWriter, r *http.Request) {
	var req saveTranscriptionRequest
	body := http.MaxBytesReader(w, r.Body, maxTranscriptionBytes)
	if err := json.UnmarshalRead(body, &req); err != nil || req.Transcription == nil {
		response.Fail(w, http.StatusBadRequest, NoTranscriptionMessage, s.logger)
		return
	}

	if _, err := s.services.Transcriptions.Save(r.Context(), principalFrom(r.Context()), *req.Transcription); err != nil {
		response.FailFromError(w, err, SaveTranscriptionFailure, s.logger)
		return
	}

	response.OK(w, service.TranscriptionSavedMessage, s.logger)
}

// handleExportMoM sends the MoM of a transcription as a Word document.
func (s *Server) handleExportMoM(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Not found", s.logger)
		return
	}

	doc, err := s.services.Export.ExportMoM(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		var derr *domainerrors.Error
		switch {
		case errors.Is(err, domainerrors.ErrForbidden):
			w.Header().Set("Location", access.DashboardPath)
			response.JSON(w, http.StatusSeeOther, FlashResponse{Flash: access.UnauthorizedMessage}, s.logger)
		case errors.As(err, &derr) && derr.Code != domainerrors.CodeInternal:
			response.Error(w, derr.HTTPStatus(), derr.Message, s.logger)
		default:
			s.logger.Error("MoM export failed", "transcription_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "Failed to export minutes of meeting", s.logger)
		}
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		s.logger.Warn("failed to write export", "transcription_id", id, "error", err)
	}
}
