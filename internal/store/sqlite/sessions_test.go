package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minutesapp/minutes-server/internal/domain"
	"github.com/minutesapp/minutes-server/internal/store"
)

func makeTestSession(id, userID string, expiresAt time.Time) *domain.Session {
	return &domain.Session{
		ID:        id,
		UserID:    userID,
		IPAddress: "127.0.0.1",
		UserAgent: "test-agent",
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "user-1", "alice")

	sess := makeTestSession("session-1", "user-1", time.Now().Add(time.Hour))
	sess.Remember = true
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, "session-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.UserID != "user-1" || !got.Remember {
		t.Errorf("unexpected session: %+v", got)
	}
	if got.IPAddress != "127.0.0.1" || got.UserAgent != "test-agent" {
		t.Errorf("client fields not stored: %+v", got)
	}
}

func TestCreateSession_UnknownUser(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateSession(context.Background(), makeTestSession("session-1", "ghost", time.Now().Add(time.Hour)))
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "user-1", "alice")

	if err := s.CreateSession(ctx, makeTestSession("session-1", "user-1", time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.DeleteSession(ctx, "session-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSession(ctx, "session-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteSession(ctx, "session-1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestDeleteUserSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "user-1", "alice")
	createTestUser(t, s, "user-2", "bob")

	exp := time.Now().Add(time.Hour)
	for _, sess := range []*domain.Session{
		makeTestSession("session-1", "user-1", exp),
		makeTestSession("session-2", "user-1", exp),
		makeTestSession("session-3", "user-2", exp),
	} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	n, err := s.DeleteUserSessions(ctx, "user-1")
	if err != nil {
		t.Fatalf("DeleteUserSessions: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	if _, err := s.GetSession(ctx, "session-3"); err != nil {
		t.Errorf("other user's session removed: %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "user-1", "alice")

	now := time.Now()
	if err := s.CreateSession(ctx, makeTestSession("session-old", "user-1", now.Add(-time.Minute))); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.CreateSession(ctx, makeTestSession("session-new", "user-1", now.Add(time.Hour))); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	n, err := s.DeleteExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	if _, err := s.GetSession(ctx, "session-new"); err != nil {
		t.Errorf("live session removed: %v", err)
	}
}
