package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/minutesapp/minutes-server/internal/domain"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/metrics"
	"github.com/minutesapp/minutes-server/internal/store"
)

// Transcription messages.
const (
	EmptyTranscriptionMessage = "Transcription is empty"
	TranscriptionSavedMessage = "Transcription saved"
)

// Dashboard actions.
const (
	ActionGenerateMoM = "Generate MoM"
	ActionEditMoM     = "View/Edit MoM"
)

// DashboardEntry is one row of the dashboard.
type DashboardEntry struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	MoMID     *int64    `json:"mom_id,omitempty"`
	MoMAction string    `json:"mom_action"`
	MoMURL    string    `json:"mom_url"`
}

// MoMURL returns the MoM page of a transcription.
func MoMURL(transcriptionID int64) string {
	return "/transcription/" + strconv.FormatInt(transcriptionID, 10) + "/mom"
}

func newDashboardEntry(t domain.TranscriptionWithMoM) DashboardEntry {
	action := ActionGenerateMoM
	if t.HasMoM() {
		action = ActionEditMoM
	}
	return DashboardEntry{
		ID:        t.ID,
		Body:      t.Body,
		CreatedAt: t.CreatedAt,
		MoMID:     t.MoMID,
		MoMAction: action,
		MoMURL:    MoMURL(t.ID),
	}
}

// TranscriptionService saves and lists transcriptions.
type TranscriptionService struct {
	store    store.Store
	search   *SearchService
	metrics  *metrics.Metrics
	pageSize int
	logger   *slog.Logger
	now      func() time.Time
}

// NewTranscriptionService creates a new transcription service. pageSize is
// the dashboard default.
func NewTranscriptionService(
	st store.Store,
	search *SearchService,
	m *metrics.Metrics,
	pageSize int,
	logger *slog.Logger,
) *TranscriptionService {
	if pageSize <= 0 {
		pageSize = store.DefaultPageSize
	}
	return &TranscriptionService{
		store:    st,
		search:   search,
		metrics:  m,
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
}

// Save stores body for the principal. The body is kept as sent; blank
// bodies are rejected.
func (s *TranscriptionService) Save(ctx context.Context, p domain.Principal, body string) (*domain.Transcription, error) {
	if p.IsZero() {
		return nil, domainerrors.Unauthorized("login required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, domainerrors.Validation(EmptyTranscriptionMessage)
	}

	t := &domain.Transcription{
		UserID:    p.UserID,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateTranscription(ctx, t); err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			return nil, domainerrors.Validation(EmptyTranscriptionMessage)
		}
		return nil, fmt.Errorf("save transcription: %w", err)
	}

	s.metrics.TranscriptionSaved()
	s.search.IndexTranscription(t)
	s.logger.Info("Transcription saved", "id", t.ID, "user_id", t.UserID, "length", len(body))
	return t, nil
}

// ListForUser returns one dashboard page, newest first. Pages past the end
// are empty. A non-positive pageSize selects the configured default.
func (s *TranscriptionService) ListForUser(ctx context.Context, owner domain.Principal, page, pageSize int) (store.Page[DashboardEntry], error) {
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	params := store.PageParams{Page: page, PageSize: pageSize}

	rows, err := s.store.ListTranscriptionsForUser(ctx, owner.UserID, params)
	if err != nil {
		return store.Page[DashboardEntry]{}, fmt.Errorf("list transcriptions: %w", err)
	}

	entries := make([]DashboardEntry, 0, len(rows.Items))
	for _, row := range rows.Items {
		entries = append(entries, newDashboardEntry(row))
	}
	return store.Page[DashboardEntry]{
		Items:    entries,
		Page:     rows.Page,
		PageSize: rows.PageSize,
		Total:    rows.Total,
		HasPrev:  rows.HasPrev,
		HasNext:  rows.HasNext,
	}, nil
}

// GetByID returns a transcription without any ownership check.
func (s *TranscriptionService) GetByID(ctx context.Context, id int64) (*domain.Transcription, error) {
	t, err := s.store.GetTranscription(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("transcription %d not found", id)
		}
		return nil, fmt.Errorf("get transcription: %w", err)
	}
	return t, nil
}

// ListOwnedBy returns every transcription of userID, newest first.
func (s *TranscriptionService) ListOwnedBy(ctx context.Context, userID string) ([]domain.TranscriptionWithMoM, error) {
	var out []domain.TranscriptionWithMoM
	for page := 1; ; page++ {
		rows, err := s.store.ListTranscriptionsForUser(ctx, userID, store.PageParams{Page: page, PageSize: store.MaxPageSize})
		if err != nil {
			return nil, fmt.Errorf("list transcriptions: %w", err)
		}
		out = append(out, rows.Items...)
		if !rows.HasNext {
			return out, nil
		}
	}
}
