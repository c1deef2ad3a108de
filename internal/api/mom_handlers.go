package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/minutesapp/minutes-server/internal/access"
	"github.com/minutesapp/minutes-server/internal/domain"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/service"
)

func (s *Server) registerMoMRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getMoM",
		Method:      http.MethodGet,
		Path:        "/transcription/{id}/mom",
		Summary:     "Open minutes of meeting",
		Description: "Returns the transcription with its MoM, or a generated summary to start from",
		Tags:        []string{"Minutes"},
		Security:    []map[string][]string{{"session": {}}},
		Middlewares: huma.Middlewares{s.requireLogin},
	}, s.handleGetMoM)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveMoM",
		Method:      http.MethodPost,
		Path:        "/transcription/{id}/mom",
		Summary:     "Save minutes of meeting",
		Description: "Creates the MoM of a transcription or replaces its summary",
		Tags:        []string{"Minutes"},
		Security:    []map[string][]string{{"session": {}}},
		Middlewares: huma.Middlewares{s.requireLogin},
	}, s.handleSaveMoM)
}

// MoMPathInput identifies a transcription.
type MoMPathInput struct {
	ID int64 `path:"id" doc:"Transcription ID"`
}

// SaveMoMRequest is the MoM form.
type SaveMoMRequest struct {
	Summary string `json:"summary" doc:"Minutes of meeting text"`
}

// SaveMoMInput wraps the MoM form for Huma.
type SaveMoMInput struct {
	ID   int64 `path:"id" doc:"Transcription ID"`
	Body SaveMoMRequest
}

// MoMResponse is the MoM page. Redirects only carry Flash.
type MoMResponse struct {
	Flash         string                `json:"flash,omitempty" doc:"Message to show"`
	Transcription *domain.Transcription `json:"transcription,omitempty" doc:"The transcription"`
	MoM           *domain.MoM           `json:"mom,omitempty" doc:"Stored minutes, absent until first saved"`
	Prefill       string                `json:"prefill,omitempty" doc:"Initial text of the MoM form"`
	ExportURL     string                `json:"export_url,omitempty" doc:"Word download of the stored minutes"`
}

// MoMOutput is either the MoM page or a redirect.
type MoMOutput struct {
	Status   int
	Location string `header:"Location"`
	Body     MoMResponse
}

func momRedirect(location, flash string) *MoMOutput {
	return &MoMOutput{
		Status:   http.StatusSeeOther,
		Location: location,
		Body:     MoMResponse{Flash: flash},
	}
}

// forbiddenRedirect turns a forbidden error into a redirect to the
// dashboard. Other errors are returned unchanged.
func forbiddenRedirect(err error) (*MoMOutput, error) {
	if errors.Is(err, domainerrors.ErrForbidden) {
		return momRedirect(access.DashboardPath, access.UnauthorizedMessage), nil
	}
	return nil, err
}

// saveMoMError is forbiddenRedirect for the MoM form, where a lost creation
// race is reported as a server error.
func saveMoMError(err error) (*MoMOutput, error) {
	if errors.Is(err, domainerrors.ErrConflict) {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, service.MoMConflictMessage)
	}
	return forbiddenRedirect(err)
}

func (s *Server) handleGetMoM(ctx context.Context, input *MoMPathInput) (*MoMOutput, error) {
	view, err := s.services.MoMs.Open(ctx, principalFrom(ctx), input.ID)
	if err != nil {
		return forbiddenRedirect(err)
	}

	resp := MoMResponse{
		Transcription: view.Transcription,
		MoM:           view.MoM,
		Prefill:       view.Prefill,
	}
	if view.MoM != nil {
		resp.ExportURL = service.MoMURL(input.ID) + "/export"
	}
	return &MoMOutput{Status: http.StatusOK, Body: resp}, nil
}

func (s *Server) handleSaveMoM(ctx context.Context, input *SaveMoMInput) (*MoMOutput, error) {
	result, err := s.services.MoMs.Upsert(ctx, principalFrom(ctx), input.ID, input.Body.Summary)
	if err != nil {
		return saveMoMError(err)
	}
	return momRedirect(access.DashboardPath, result.Message()), nil
}
