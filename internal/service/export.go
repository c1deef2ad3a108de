package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/minutesapp/minutes-server/internal/domain"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/export"
)

// ExportedMoM is a rendered document ready to be sent.
type ExportedMoM struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders minutes of meeting as Word documents.
type ExportService struct {
	moms   *MoMService
	logger *slog.Logger
}

// NewExportService creates a new export service.
func NewExportService(moms *MoMService, logger *slog.Logger) *ExportService {
	return &ExportService{moms: moms, logger: logger}
}

// ExportMoM renders the MoM of a transcription the principal owns. It fails
// with NOT_FOUND when no MoM has been written yet.
func (s *ExportService) ExportMoM(ctx context.Context, p domain.Principal, transcriptionID int64) (*ExportedMoM, error) {
	view, err := s.moms.Open(ctx, p, transcriptionID)
	if err != nil {
		return nil, err
	}
	if view.MoM == nil {
		return nil, domainerrors.NotFoundf("transcription %d has no minutes of meeting", transcriptionID)
	}

	doc := &export.MoMDocument{
		TranscriptionID: transcriptionID,
		Author:          p.Username,
		CreatedAt:       view.MoM.CreatedAt,
		UpdatedAt:       view.MoM.UpdatedAt,
		Summary:         view.MoM.Summary,
		Transcript:      view.Transcription.Body,
	}

	var buf bytes.Buffer
	if err := export.WriteMoM(&buf, doc); err != nil {
		return nil, fmt.Errorf("render mom: %w", err)
	}

	s.logger.Info("MoM exported", "transcription_id", transcriptionID, "bytes", buf.Len())
	return &ExportedMoM{
		Filename:    doc.Filename(),
		ContentType: export.ContentType,
		Data:        buf.Bytes(),
	}, nil
}
