// Package search keeps a bleve full-text index over transcriptions and
// minutes of meeting. Every query is scoped to a single owner.
package search

import (
	"strconv"
	"strings"

	"github.com/minutesapp/minutes-server/internal/domain"
)

// DocType discriminates the indexed entities.
type DocType string

// Document types for the search index.
const (
	DocTypeTranscription DocType = "transcription"
	DocTypeMoM           DocType = "mom"
)

// Document is the unit stored in the index.
type Document struct {
	ID              string
	Type            DocType
	OwnerID         string
	TranscriptionID int64
	Body            string
	CreatedAt       int64 // Unix millis
	UpdatedAt       int64 // Unix millis
}

// TranscriptionDocID returns the document id of a transcription.
func TranscriptionDocID(id int64) string {
	return string(DocTypeTranscription) + "-" + strconv.FormatInt(id, 10)
}

// MoMDocID returns the document id of the MoM attached to a transcription.
// It is keyed by transcription so re-indexing after an update replaces the
// previous document.
func MoMDocID(transcriptionID int64) string {
	return string(DocTypeMoM) + "-" + strconv.FormatInt(transcriptionID, 10)
}

// FromTranscription builds the document for t.
func FromTranscription(t *domain.Transcription) *Document {
	return &Document{
		ID:              TranscriptionDocID(t.ID),
		Type:            DocTypeTranscription,
		OwnerID:         t.UserID,
		TranscriptionID: t.ID,
		Body:            t.Body,
		CreatedAt:       t.CreatedAt.UnixMilli(),
		UpdatedAt:       t.CreatedAt.UnixMilli(),
	}
}

// FromMoM builds the document for m.
func FromMoM(m *domain.MoM) *Document {
	return &Document{
		ID:              MoMDocID(m.TranscriptionID),
		Type:            DocTypeMoM,
		OwnerID:         m.UserID,
		TranscriptionID: m.TranscriptionID,
		Body:            m.Summary,
		CreatedAt:       m.CreatedAt.UnixMilli(),
		UpdatedAt:       m.UpdatedAt.UnixMilli(),
	}
}

// ToMap converts the document to the field names used by the mapping.
func (d *Document) ToMap() map[string]any {
	return map[string]any{
		"type":             string(d.Type),
		"owner_id":         d.OwnerID,
		"transcription_id": float64(d.TranscriptionID),
		"body":             d.Body,
		"created_at":       float64(d.CreatedAt),
		"updated_at":       float64(d.UpdatedAt),
	}
}

// snippet returns the first n runes of body, on a word boundary when possible.
func snippet(body string, n int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= n {
		return string(runes)
	}
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
