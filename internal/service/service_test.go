package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minutesapp/minutes-server/internal/auth"
	"github.com/minutesapp/minutes-server/internal/domain"
	"github.com/minutesapp/minutes-server/internal/metrics"
	"github.com/minutesapp/minutes-server/internal/search"
	"github.com/minutesapp/minutes-server/internal/store/sqlite"
	"github.com/minutesapp/minutes-server/internal/summary"
	"github.com/minutesapp/minutes-server/internal/validation"
)

type testEnv struct {
	store          *sqlite.Store
	index          *search.Index
	metrics        *metrics.Metrics
	tokens         *auth.TokenService
	identity       *IdentityService
	transcriptions *TranscriptionService
	moms           *MoMService
	search         *SearchService
	export         *ExportService
}

// setupServices wires every service over a temporary database and index.
func setupServices(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.Open(search.Options{Dir: filepath.Join(dir, "index"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key)
	require.NoError(t, err)

	m := metrics.New()
	searchService := NewSearchService(index, st, logger)
	moms := NewMoMService(st, summary.NewGenerator(summary.Options{}), searchService, m, logger)

	return &testEnv{
		store:          st,
		index:          index,
		metrics:        m,
		tokens:         tokens,
		identity:       NewIdentityService(st, tokens, validation.New(), m, IdentityConfig{}, logger),
		transcriptions: NewTranscriptionService(st, searchService, m, 5, logger),
		moms:           moms,
		search:         searchService,
		export:         NewExportService(moms, logger),
	}
}

// registerUser creates an account and returns its principal.
func (e *testEnv) registerUser(t *testing.T, username string) domain.Principal {
	t.Helper()
	user, err := e.identity.Register(context.Background(), RegisterRequest{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "secret-" + username,
		ConfirmPassword: "secret-" + username,
	})
	require.NoError(t, err)
	return user.Principal()
}

// saveTranscription stores body for p and returns its id.
func (e *testEnv) saveTranscription(t *testing.T, p domain.Principal, body string) int64 {
	t.Helper()
	tr, err := e.transcriptions.Save(context.Background(), p, body)
	require.NoError(t, err)
	return tr.ID
}
