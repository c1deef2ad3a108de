package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/minutesapp/minutes-server/internal/service"
)

func (s *Server) registerDashboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Dashboard",
		Description: "Lists the caller's transcriptions newest first, with the MoM action of each row",
		Tags:        []string{"Transcriptions"},
		Security:    []map[string][]string{{"session": {}}},
		Middlewares: huma.Middlewares{s.requireLogin},
	}, s.handleDashboard)
}

// DashboardInput selects a dashboard page.
type DashboardInput struct {
	Page     int `query:"page" default:"1" doc:"Page number, starting at 1; smaller values select the first page"`
	PageSize int `query:"page_size" minimum:"0" maximum:"100" doc:"Rows per page, 0 for the server default"`
}

// DashboardResponse is one dashboard page.
type DashboardResponse struct {
	Username string                   `json:"username" doc:"Logged in user"`
	Items    []service.DashboardEntry `json:"items" doc:"Transcriptions on this page"`
	Page     int                      `json:"page" doc:"Current page"`
	PageSize int                      `json:"page_size" doc:"Rows per page"`
	Total    int                      `json:"total" doc:"Number of transcriptions"`
	HasPrev  bool                     `json:"has_prev" doc:"Whether an earlier page exists"`
	HasNext  bool                     `json:"has_next" doc:"Whether a later page exists"`
	PrevURL  string                   `json:"prev_url,omitempty" doc:"Link to the previous page"`
	NextURL  string                   `json:"next_url,omitempty" doc:"Link to the next page"`
}

// DashboardOutput wraps the dashboard for Huma.
type DashboardOutput struct {
	Body DashboardResponse
}

func (s *Server) handleDashboard(ctx context.Context, input *DashboardInput) (*DashboardOutput, error) {
	p := principalFrom(ctx)

	page, err := s.services.Transcriptions.ListForUser(ctx, p, input.Page, input.PageSize)
	if err != nil {
		return nil, err
	}

	resp := DashboardResponse{
		Username: p.Username,
		Items:    page.Items,
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
		HasPrev:  page.HasPrev,
		HasNext:  page.HasNext,
	}
	if page.HasPrev {
		resp.PrevURL = dashboardPageURL(page.Page - 1)
	}
	if page.HasNext {
		resp.NextURL = dashboardPageURL(page.Page + 1)
	}

	return &DashboardOutput{Body: resp}, nil
}

func dashboardPageURL(page int) string {
	return fmt.Sprintf("/dashboard?page=%d", page)
}
