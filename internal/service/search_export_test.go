package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minutesapp/minutes-server/internal/domain"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/export"
	"github.com/minutesapp/minutes-server/internal/search"
)

func TestSearchService_ScopedToOwner(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")

	aliceID := env.saveTranscription(t, alice, "Quarterly budget review with finance.")
	env.saveTranscription(t, bob, "Budget planning for marketing.")

	_, err := env.moms.Upsert(ctx, alice, aliceID, "Budget approved.")
	require.NoError(t, err)

	result, err := env.search.Search(ctx, alice, search.Params{Query: "budget"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
	for _, hit := range result.Hits {
		assert.Equal(t, aliceID, hit.TranscriptionID)
	}

	result, err = env.search.Search(ctx, bob, search.Params{Query: "budget", Types: []search.DocType{search.DocTypeMoM}})
	require.NoError(t, err)
	assert.Zero(t, result.Total)

	_, err = env.search.Search(ctx, domain.Principal{}, search.Params{Query: "budget"})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestSearchService_ReindexIfEmpty(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")

	id := env.saveTranscription(t, alice, "Roadmap discussion.")
	_, err := env.moms.Upsert(ctx, alice, id, "Roadmap agreed.")
	require.NoError(t, err)

	n, err := env.search.ReindexIfEmpty(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "index already populated")

	require.NoError(t, env.index.Rebuild())

	n, err = env.search.ReindexIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := env.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	n, err = env.search.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSearchService_NilIsInert(t *testing.T) {
	var s *SearchService
	s.IndexTranscription(&domain.Transcription{ID: 1})
	s.IndexMoM(&domain.MoM{TranscriptionID: 1})
}

func TestExportService_ExportMoM(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	id := env.saveTranscription(t, alice, "Hello world.")

	_, err := env.export.ExportMoM(ctx, alice, id)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.moms.Upsert(ctx, alice, id, "Final.")
	require.NoError(t, err)

	doc, err := env.export.ExportMoM(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, export.ContentType, doc.ContentType)
	assert.Contains(t, doc.Filename, ".docx")
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("PK")))

	_, err = env.export.ExportMoM(ctx, bob, id)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}
