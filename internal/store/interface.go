// Package store defines the persistence contracts of the minutes server and
// the errors and pagination types shared by its implementations.
package store

import (
	"context"
	"time"

	"github.com/minutesapp/minutes-server/internal/domain"
)

// Users persists accounts.
type Users interface {
	// CreateUser returns ErrUsernameTaken or ErrEmailTaken on a uniqueness violation.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string, updatedAt time.Time) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// Sessions persists login sessions.
type Sessions interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) (int64, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Transcriptions persists transcriptions. Reads are not filtered by caller;
// authorization happens in the service layer.
type Transcriptions interface {
	CreateTranscription(ctx context.Context, t *domain.Transcription) error
	GetTranscription(ctx context.Context, id int64) (*domain.Transcription, error)
	// ListTranscriptionsForUser orders by created_at desc, id desc.
	ListTranscriptionsForUser(ctx context.Context, userID string, params PageParams) (Page[domain.TranscriptionWithMoM], error)
	// ListTranscriptionsAfter returns up to limit rows with id > afterID, in id order.
	ListTranscriptionsAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Transcription, error)
	CountTranscriptions(ctx context.Context) (int, error)
}

// MoMs persists minutes of meeting.
type MoMs interface {
	// CreateMoM returns ErrMoMExists when the transcription already has one.
	CreateMoM(ctx context.Context, m *domain.MoM) error
	UpdateMoMSummary(ctx context.Context, id int64, summary string, updatedAt time.Time) error
	GetMoMByTranscription(ctx context.Context, transcriptionID int64) (*domain.MoM, error)
	ListMoMsAfter(ctx context.Context, afterID int64, limit int) ([]*domain.MoM, error)
}

// Store is the full persistence surface.
type Store interface {
	Users
	Sessions
	Transcriptions
	MoMs
	Ping(ctx context.Context) error
	Close() error
}
