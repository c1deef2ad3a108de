package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// ErrNoOwner is returned for a query without an owner.
var ErrNoOwner = errors.New("search requires an owner")

const (
	defaultLimit = 20
	maxLimit     = 100
	snippetRunes = 160
)

// Params configures a search.
type Params struct {
	OwnerID string
	Query   string
	Types   []DocType // empty means all types
	Limit   int
	Offset  int
}

// Result is one page of hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single match.
type Hit struct {
	ID              string  `json:"id"`
	Type            DocType `json:"type"`
	TranscriptionID int64   `json:"transcription_id"`
	Score           float64 `json:"score"`
	Snippet         string  `json:"snippet"`
	Highlight       string  `json:"highlight,omitempty"`
}

// Search runs a full-text query restricted to params.OwnerID. An empty
// query matches every document of the owner, newest first.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.OwnerID == "" {
		return nil, ErrNoOwner
	}
	if params.Limit <= 0 {
		params.Limit = defaultLimit
	}
	params.Limit = min(params.Limit, maxLimit)
	params.Offset = max(params.Offset, 0)

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	if strings.TrimSpace(params.Query) == "" {
		req.SortBy([]string{"-created_at", "-transcription_id"})
	} else {
		req.SortBy([]string{"-_score", "-created_at"})
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("body")
	}
	req.Fields = []string{"type", "transcription_id", "body"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if t, ok := h.Fields["type"].(string); ok {
			hit.Type = DocType(t)
		}
		if id, ok := h.Fields["transcription_id"].(float64); ok {
			hit.TranscriptionID = int64(id)
		}
		if body, ok := h.Fields["body"].(string); ok {
			hit.Snippet = snippet(body, snippetRunes)
		}
		if frags := h.Fragments["body"]; len(frags) > 0 {
			hit.Highlight = frags[0]
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

// buildQuery combines the owner filter, the optional type filter and the
// text query with AND.
func buildQuery(params Params) query.Query {
	owner := bleve.NewTermQuery(params.OwnerID)
	owner.SetField("owner_id")
	queries := []query.Query{owner}

	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(string(t))
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	if text := strings.TrimSpace(params.Query); text != "" {
		match := bleve.NewMatchQuery(text)
		match.SetField("body")
		match.SetBoost(3.0)

		textQueries := []query.Query{match}

		if !strings.ContainsAny(text, " \t\n") {
			fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
			fuzzy.SetFuzziness(1)
			fuzzy.SetField("body")
			fuzzy.SetBoost(0.8)
			textQueries = append(textQueries, fuzzy)

			if len([]rune(text)) >= 2 {
				prefix := bleve.NewPrefixQuery(strings.ToLower(text))
				prefix.SetField("body")
				prefix.SetBoost(0.5)
				textQueries = append(textQueries, prefix)
			}
		}
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	return bleve.NewConjunctionQuery(queries...)
}
