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

const momColumns = `id, transcription_id, user_id, summary, created_at, updated_at`

func scanMoM(scanner interface{ Scan(dest ...any) error }) (*domain.MoM, error) {
	var (
		m         domain.MoM
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&m.ID, &m.TranscriptionID, &m.UserID, &m.Summary, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &m, nil
}

// CreateMoM inserts m and sets m.ID. A second MoM for the same transcription
// fails with ErrMoMExists; an owner that differs from the transcription's
// fails with ErrInvalidInput.
func (s *Store) CreateMoM(ctx context.Context, m *domain.MoM) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO moms (transcription_id, user_id, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.TranscriptionID, m.UserID, m.Summary, formatTime(m.CreatedAt), formatTime(m.UpdatedAt))
	if err != nil {
		if uniqueViolation(err) == "moms.transcription_id" {
			return store.ErrMoMExists.WithCause(err)
		}
		if isCheckViolation(err) {
			return store.ErrInvalidInput.WithCause(err)
		}
		return fmt.Errorf("insert mom: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("mom id: %w", err)
	}
	m.ID = id
	return nil
}

// UpdateMoMSummary replaces the summary of an existing MoM.
func (s *Store) UpdateMoMSummary(ctx context.Context, id int64, summary string, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE moms SET summary = ?, updated_at = ? WHERE id = ?`,
		summary, formatTime(updatedAt), id)
	if err != nil {
		if isCheckViolation(err) {
			return store.ErrInvalidInput.WithCause(err)
		}
		return fmt.Errorf("update mom: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update mom: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetMoMByTranscription returns the MoM of a transcription.
func (s *Store) GetMoMByTranscription(ctx context.Context, transcriptionID int64) (*domain.MoM, error) {
	m, err := scanMoM(s.db.QueryRowContext(ctx,
		`SELECT `+momColumns+` FROM moms WHERE transcription_id = ?`, transcriptionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mom: %w", err)
	}
	return m, nil
}

// ListMoMsAfter returns up to limit MoMs with id > afterID in id order.
func (s *Store) ListMoMsAfter(ctx context.Context, afterID int64, limit int) ([]*domain.MoM, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+momColumns+` FROM moms WHERE id > ? ORDER BY id LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list moms: %w", err)
	}
	defer rows.Close()

	var out []*domain.MoM
	for rows.Next() {
		m, err := scanMoM(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mom: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
