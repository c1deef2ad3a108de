package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/minutesapp/minutes-server/internal/access"
	"github.com/minutesapp/minutes-server/internal/domain"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/metrics"
	"github.com/minutesapp/minutes-server/internal/store"
	"github.com/minutesapp/minutes-server/internal/summary"
)

// MoM messages.
const (
	MoMCreatedMessage   = "Minutes of Meeting created successfully!"
	MoMUpdatedMessage   = "Minutes of Meeting updated successfully!"
	EmptySummaryMessage = "Summary is required."
	MoMConflictMessage  = "Minutes of Meeting were created concurrently for this transcription. Please try again."
)

// UpsertResult is the stored MoM and whether this call created it.
type UpsertResult struct {
	MoM     *domain.MoM
	Created bool
}

// Message returns the flash shown after the upsert.
func (r *UpsertResult) Message() string {
	if r.Created {
		return MoMCreatedMessage
	}
	return MoMUpdatedMessage
}

// MoMView is everything the MoM page shows.
type MoMView struct {
	Transcription *domain.Transcription `json:"transcription"`
	MoM           *domain.MoM           `json:"mom,omitempty"`
	Prefill       string                `json:"prefill"`
}

// MoMService creates, updates and pre-fills minutes of meeting. Every method
// resolves the transcription and authorizes the principal before MoM storage
// is read or written.
type MoMService struct {
	store      store.Store
	summarizer *summary.Generator
	search     *SearchService
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewMoMService creates a new MoM service.
func NewMoMService(
	st store.Store,
	summarizer *summary.Generator,
	search *SearchService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *MoMService {
	if summarizer == nil {
		summarizer = summary.NewGenerator(summary.Options{})
	}
	return &MoMService{
		store:      st,
		summarizer: summarizer,
		search:     search,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// authorizedTranscription loads the transcription and checks ownership.
func (s *MoMService) authorizedTranscription(ctx context.Context, p domain.Principal, transcriptionID int64) (*domain.Transcription, error) {
	t, err := s.store.GetTranscription(ctx, transcriptionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("transcription %d not found", transcriptionID)
		}
		return nil, fmt.Errorf("get transcription: %w", err)
	}

	if err := access.Authorize(p, t); err != nil {
		s.logger.Warn("Denied access to transcription",
			"transcription_id", transcriptionID,
			"user_id", p.UserID,
		)
		return nil, err
	}
	return t, nil
}

// findMoM returns the MoM of the transcription, or nil when none exists yet.
func (s *MoMService) findMoM(ctx context.Context, transcriptionID int64) (*domain.MoM, error) {
	m, err := s.store.GetMoMByTranscription(ctx, transcriptionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mom: %w", err)
	}
	return m, nil
}

// FindMoMFor returns the MoM of a transcription the principal owns, or nil
// when it has none.
func (s *MoMService) FindMoMFor(ctx context.Context, p domain.Principal, transcriptionID int64) (*domain.MoM, error) {
	if _, err := s.authorizedTranscription(ctx, p, transcriptionID); err != nil {
		return nil, err
	}
	return s.findMoM(ctx, transcriptionID)
}

// Prefill returns the text the MoM form starts with: the stored summary when
// a MoM exists, otherwise a summary of the transcription.
func (s *MoMService) Prefill(ctx context.Context, p domain.Principal, transcriptionID int64) (string, error) {
	view, err := s.Open(ctx, p, transcriptionID)
	if err != nil {
		return "", err
	}
	return view.Prefill, nil
}

// Open returns the MoM page of a transcription.
func (s *MoMService) Open(ctx context.Context, p domain.Principal, transcriptionID int64) (*MoMView, error) {
	t, err := s.authorizedTranscription(ctx, p, transcriptionID)
	if err != nil {
		return nil, err
	}

	m, err := s.findMoM(ctx, transcriptionID)
	if err != nil {
		return nil, err
	}

	view := &MoMView{Transcription: t, MoM: m}
	if m != nil {
		view.Prefill = m.Summary
	} else {
		view.Prefill = s.summarizer.Summarize(t.Body)
	}
	return view, nil
}

// Upsert stores summaryText as the MoM of a transcription, creating the MoM
// on first use. A concurrent creation that loses the race gets a conflict
// error and writes nothing.
func (s *MoMService) Upsert(ctx context.Context, p domain.Principal, transcriptionID int64, summaryText string) (*UpsertResult, error) {
	t, err := s.authorizedTranscription(ctx, p, transcriptionID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(summaryText) == "" {
		return nil, domainerrors.InvalidField("summary", EmptySummaryMessage)
	}

	existing, err := s.findMoM(ctx, transcriptionID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if existing != nil {
		if err := s.store.UpdateMoMSummary(ctx, existing.ID, summaryText, now); err != nil {
			return nil, fmt.Errorf("update mom: %w", err)
		}
		existing.Summary = summaryText
		existing.UpdatedAt = now

		s.metrics.MoMUpsert(metrics.OutcomeUpdated)
		s.search.IndexMoM(existing)
		s.logger.Info("MoM updated", "mom_id", existing.ID, "transcription_id", transcriptionID)
		return &UpsertResult{MoM: existing}, nil
	}

	m := &domain.MoM{
		TranscriptionID: t.ID,
		UserID:          t.UserID,
		Summary:         summaryText,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateMoM(ctx, m); err != nil {
		switch {
		case errors.Is(err, store.ErrMoMExists):
			s.metrics.MoMUpsert(metrics.OutcomeConflict)
			s.logger.Warn("MoM creation lost a race", "transcription_id", transcriptionID)
			return nil, domainerrors.Conflict(MoMConflictMessage).WithCause(err)
		case errors.Is(err, store.ErrInvalidInput):
			return nil, domainerrors.InvalidField("summary", EmptySummaryMessage)
		}
		return nil, fmt.Errorf("create mom: %w", err)
	}

	s.metrics.MoMUpsert(metrics.OutcomeCreated)
	s.search.IndexMoM(m)
	s.logger.Info("MoM created", "mom_id", m.ID, "transcription_id", transcriptionID)
	return &UpsertResult{MoM: m, Created: true}, nil
}
