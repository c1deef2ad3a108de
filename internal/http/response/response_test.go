package response

import (
	"encoding/json/v2"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) StatusBody {
	t.Helper()
	var body StatusBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, "Transcription saved", testLogger())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"success","message":"Transcription saved"}`, w.Body.String())
}

func TestFail(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(w, http.StatusBadRequest, "Transcription is empty", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, StatusBody{Status: StatusError, Message: "Transcription is empty"}, decodeStatus(t, w))
}

func TestFailFromError(t *testing.T) {
	const fallback = "Failed to save transcription due to a server error"

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"validation", domainerrors.Validation("Transcription is empty"), http.StatusBadRequest, "Transcription is empty"},
		{"not found", domainerrors.NotFound("transcription not found"), http.StatusNotFound, "transcription not found"},
		{"internal domain", domainerrors.Internal("db exploded"), http.StatusInternalServerError, fallback},
		{"store input", store.ErrInvalidInput, http.StatusBadRequest, "invalid input"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			FailFromError(w, tt.err, fallback, testLogger())

			assert.Equal(t, tt.wantCode, w.Code)
			body := decodeStatus(t, w)
			assert.Equal(t, StatusError, body.Status)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestJSONAndError(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]string{"k": "v"}, nil)
	assert.JSONEq(t, `{"success":true,"data":{"k":"v"}}`, w.Body.String())

	w = httptest.NewRecorder()
	Error(w, http.StatusNotFound, "route not found", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"route not found"}`, w.Body.String())
}
