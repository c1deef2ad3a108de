package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/minutesapp/minutes-server/internal/domain"
	"github.com/minutesapp/minutes-server/internal/store"
)

const sessionColumns = `id, user_id, remember, ip_address, user_agent, created_at, expires_at`

func scanSession(scanner interface{ Scan(dest ...any) error }) (*domain.Session, error) {
	var (
		sess      domain.Session
		remember  int
		ipAddress sql.NullString
		userAgent sql.NullString
		createdAt string
		expiresAt string
	)
	err := scanner.Scan(&sess.ID, &sess.UserID, &remember, &ipAddress, &userAgent, &createdAt, &expiresAt)
	if err != nil {
		return nil, err
	}

	sess.Remember = remember != 0
	sess.IPAddress = ipAddress.String
	sess.UserAgent = userAgent.String
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sess.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	return &sess, nil
}

// CreateSession inserts a new session.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		boolToInt(session.Remember),
		nullString(session.IPAddress),
		nullString(session.UserAgent),
		formatTime(session.CreatedAt),
		formatTime(session.ExpiresAt),
	)
	if err != nil {
		if uniqueViolation(err) != "" {
			return store.ErrAlreadyExists.WithCause(err)
		}
		if isCheckViolation(err) {
			return store.ErrInvalidInput.WithCause(err)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns a session by id. Expired sessions are returned as-is;
// callers decide what expiry means.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions removes every session of a user.
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return res.RowsAffected()
}

// DeleteExpiredSessions removes sessions whose expiry is at or before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
