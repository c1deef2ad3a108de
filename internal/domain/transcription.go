package domain

import "time"

// Transcription is a block of meeting text owned by exactly one user. The
// body is never edited after it is saved.
type Transcription struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// IsOwnedBy reports whether userID owns the transcription.
func (t *Transcription) IsOwnedBy(userID string) bool {
	return userID != "" && t.UserID == userID
}

// MoM is the minutes of meeting attached to one transcription. UserID is
// copied from the transcription owner when the MoM is created.
type MoM struct {
	ID              int64     `json:"id"`
	TranscriptionID int64     `json:"transcription_id"`
	UserID          string    `json:"user_id"`
	Summary         string    `json:"summary"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TranscriptionWithMoM is a transcription together with the id of its MoM,
// if one exists. It is what the dashboard lists.
type TranscriptionWithMoM struct {
	Transcription
	MoMID *int64 `json:"mom_id,omitempty"`
}

// HasMoM reports whether the transcription already has minutes.
func (t *TranscriptionWithMoM) HasMoM() bool {
	return t.MoMID != nil
}
