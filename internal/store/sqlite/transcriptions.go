package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/minutesapp/minutes-server/internal/domain"
	"github.com/minutesapp/minutes-server/internal/store"
)

const transcriptionColumns = `t.id, t.user_id, t.body, t.created_at`

func scanTranscription(scanner interface{ Scan(dest ...any) error }) (*domain.Transcription, error) {
	var (
		t         domain.Transcription
		createdAt string
	)
	if err := scanner.Scan(&t.ID, &t.UserID, &t.Body, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &t, nil
}

// CreateTranscription inserts t and sets t.ID to the assigned id.
func (s *Store) CreateTranscription(ctx context.Context, t *domain.Transcription) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transcriptions (user_id, body, created_at) VALUES (?, ?, ?)`,
		t.UserID, t.Body, formatTime(t.CreatedAt))
	if err != nil {
		if isCheckViolation(err) {
			return store.ErrInvalidInput.WithCause(err)
		}
		return fmt.Errorf("insert transcription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("transcription id: %w", err)
	}
	t.ID = id
	return nil
}

// GetTranscription returns a transcription by id regardless of owner.
func (s *Store) GetTranscription(ctx context.Context, id int64) (*domain.Transcription, error) {
	t, err := scanTranscription(s.db.QueryRowContext(ctx,
		`SELECT `+transcriptionColumns+` FROM transcriptions t WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transcription: %w", err)
	}
	return t, nil
}

// ListTranscriptionsForUser returns one page of a user's transcriptions,
// newest first, each with the id of its MoM when one exists.
func (s *Store) ListTranscriptionsForUser(ctx context.Context, userID string, params store.PageParams) (store.Page[domain.TranscriptionWithMoM], error) {
	params.Normalize()

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transcriptions WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return store.Page[domain.TranscriptionWithMoM]{}, fmt.Errorf("count transcriptions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transcriptionColumns+`, m.id
		FROM transcriptions t
		LEFT JOIN moms m ON m.transcription_id = t.id
		WHERE t.user_id = ?
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ? OFFSET ?`,
		userID, params.PageSize, params.Offset())
	if err != nil {
		return store.Page[domain.TranscriptionWithMoM]{}, fmt.Errorf("list transcriptions: %w", err)
	}
	defer rows.Close()

	var items []domain.TranscriptionWithMoM
	for rows.Next() {
		var (
			item      domain.TranscriptionWithMoM
			createdAt string
			momID     sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &item.UserID, &item.Body, &createdAt, &momID); err != nil {
			return store.Page[domain.TranscriptionWithMoM]{}, fmt.Errorf("scan transcription: %w", err)
		}
		if item.CreatedAt, err = parseTime(createdAt); err != nil {
			return store.Page[domain.TranscriptionWithMoM]{}, fmt.Errorf("parse created_at: %w", err)
		}
		if momID.Valid {
			id := momID.Int64
			item.MoMID = &id
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return store.Page[domain.TranscriptionWithMoM]{}, err
	}

	return store.NewPage(items, params, total), nil
}

// ListTranscriptionsAfter returns up to limit transcriptions with id > afterID
// in id order. It is used to rebuild the search index in batches.
func (s *Store) ListTranscriptionsAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Transcription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transcriptionColumns+` FROM transcriptions t WHERE t.id > ? ORDER BY t.id LIMIT ?`,
		afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transcriptions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transcription
	for rows.Next() {
		t, err := scanTranscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transcription: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountTranscriptions returns the number of stored transcriptions.
func (s *Store) CountTranscriptions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcriptions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transcriptions: %w", err)
	}
	return n, nil
}
