package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minutesapp/minutes-server/internal/domain"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/search"
	"github.com/minutesapp/minutes-server/internal/store"
)

const reindexBatchSize = 500

// SearchService bridges the search index with the data store. A nil
// *SearchService indexes nothing, so the other services work without one.
type SearchService struct {
	index  *search.Index
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.Index, st store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  st,
		logger: logger,
	}
}

// Search runs a query over the principal's own transcriptions and minutes.
func (s *SearchService) Search(ctx context.Context, p domain.Principal, params search.Params) (*search.Result, error) {
	if p.IsZero() {
		return nil, domainerrors.Unauthorized("login required")
	}
	params.OwnerID = p.UserID
	params.Query = strings.TrimSpace(params.Query)

	result, err := s.index.Search(ctx, params)
	if err != nil {
		if errors.Is(err, search.ErrNoOwner) {
			return nil, domainerrors.Unauthorized("login required")
		}
		return nil, fmt.Errorf("search: %w", err)
	}
	return result, nil
}

// Ping checks that the index can be read.
func (s *SearchService) Ping(_ context.Context) error {
	if _, err := s.index.DocumentCount(); err != nil {
		return fmt.Errorf("search index: %w", err)
	}
	return nil
}

// IndexTranscription adds t to the index. Failures are logged; the index can
// always be rebuilt from storage.
func (s *SearchService) IndexTranscription(t *domain.Transcription) {
	if s == nil {
		return
	}
	if err := s.index.IndexDocument(search.FromTranscription(t)); err != nil {
		s.logger.Warn("failed to index transcription", "id", t.ID, "error", err)
	}
}

// IndexMoM adds or replaces the document of m.
func (s *SearchService) IndexMoM(m *domain.MoM) {
	if s == nil {
		return
	}
	if err := s.index.IndexDocument(search.FromMoM(m)); err != nil {
		s.logger.Warn("failed to index mom", "transcription_id", m.TranscriptionID, "error", err)
	}
}

// ReindexIfEmpty fills an empty index from storage. It returns the number of
// documents written.
func (s *SearchService) ReindexIfEmpty(ctx context.Context) (int, error) {
	count, err := s.index.DocumentCount()
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	return s.reindexAll(ctx)
}

// Reindex drops the index and rebuilds it from storage.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	return s.reindexAll(ctx)
}

func (s *SearchService) reindexAll(ctx context.Context) (int, error) {
	total := 0

	var afterID int64
	for {
		batch, err := s.store.ListTranscriptionsAfter(ctx, afterID, reindexBatchSize)
		if err != nil {
			return total, fmt.Errorf("list transcriptions: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		docs := make([]*search.Document, 0, len(batch))
		for _, t := range batch {
			docs = append(docs, search.FromTranscription(t))
		}
		if err := s.index.IndexDocuments(docs); err != nil {
			return total, fmt.Errorf("index transcriptions: %w", err)
		}
		total += len(docs)
		afterID = batch[len(batch)-1].ID
	}

	afterID = 0
	for {
		batch, err := s.store.ListMoMsAfter(ctx, afterID, reindexBatchSize)
		if err != nil {
			return total, fmt.Errorf("list moms: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		docs := make([]*search.Document, 0, len(batch))
		for _, m := range batch {
			docs = append(docs, search.FromMoM(m))
		}
		if err := s.index.IndexDocuments(docs); err != nil {
			return total, fmt.Errorf("index moms: %w", err)
		}
		total += len(docs)
		afterID = batch[len(batch)-1].ID
	}

	s.logger.Info("search index rebuilt from storage", "documents", total)
	return total, nil
}
