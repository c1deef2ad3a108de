package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/minutesapp/minutes-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/search",
		Summary:     "Search",
		Description: "Full-text search over the caller's transcriptions and minutes",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"session": {}}},
		Middlewares: huma.Middlewares{s.requireLogin},
	}, s.handleSearch)
}

// SearchInput contains the search query parameters.
type SearchInput struct {
	Query  string `query:"q" maxLength:"500" doc:"Search text, empty lists everything newest first"`
	Type   string `query:"type" enum:"transcription,mom" doc:"Restrict results to one document type"`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum hits"`
	Offset int    `query:"offset" minimum:"0" doc:"Hits to skip"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.Result
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.Params{
		Query:  input.Query,
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	if input.Type != "" {
		params.Types = []search.DocType{search.DocType(input.Type)}
	}

	result, err := s.services.Search.Search(ctx, principalFrom(ctx), params)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}
