package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minutesapp/minutes-server/internal/access"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/metrics"
	"github.com/minutesapp/minutes-server/internal/store"
)

func TestMoMService_Open_PrefillsSummary(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	id := env.saveTranscription(t, alice, "Hello world.")

	view, err := env.moms.Open(ctx, alice, id)
	require.NoError(t, err)
	assert.Nil(t, view.MoM)
	assert.Equal(t, "Hello world.", view.Prefill)
	assert.Equal(t, "Hello world.", view.Transcription.Body)
}

func TestMoMService_Prefill_UsesStoredSummary(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	id := env.saveTranscription(t, alice, "One. Two. Three. Four.")

	prefill, err := env.moms.Prefill(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, "One. Two. Three.", prefill)

	_, err = env.moms.Upsert(ctx, alice, id, "Final.")
	require.NoError(t, err)

	prefill, err = env.moms.Prefill(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, "Final.", prefill)
}

func TestMoMService_Upsert_CreateThenUpdate(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	id := env.saveTranscription(t, alice, "Hello world.")

	created, err := env.moms.Upsert(ctx, alice, id, "Draft.")
	require.NoError(t, err)
	assert.True(t, created.Created)
	assert.Equal(t, MoMCreatedMessage, created.Message())
	assert.Equal(t, alice.UserID, created.MoM.UserID)

	updated, err := env.moms.Upsert(ctx, alice, id, "Final.")
	require.NoError(t, err)
	assert.False(t, updated.Created)
	assert.Equal(t, MoMUpdatedMessage, updated.Message())
	assert.Equal(t, created.MoM.ID, updated.MoM.ID)

	m, err := env.moms.FindMoMFor(ctx, alice, id)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Final.", m.Summary)
	assert.False(t, m.UpdatedAt.Before(m.CreatedAt))

	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.MoMUpserts.WithLabelValues(metrics.OutcomeCreated)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.MoMUpserts.WithLabelValues(metrics.OutcomeUpdated)), 0)
}

func TestMoMService_Upsert_EmptySummary(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	id := env.saveTranscription(t, alice, "Hello world.")

	_, err := env.moms.Upsert(ctx, alice, id, "  \n")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	m, err := env.moms.FindMoMFor(ctx, alice, id)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestMoMService_NotFound(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")

	_, err := env.moms.Open(ctx, alice, 404)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.moms.Upsert(ctx, alice, 404, "Summary.")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestMoMService_OtherOwnerIsForbidden(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	id := env.saveTranscription(t, alice, "Alice's meeting.")

	_, err := env.moms.Upsert(ctx, bob, id, "Bob was here.")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	assert.Equal(t, access.UnauthorizedMessage, err.Error())

	_, err = env.store.GetMoMByTranscription(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = env.moms.Open(ctx, bob, id)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = env.moms.Prefill(ctx, bob, id)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = env.moms.FindMoMFor(ctx, bob, id)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	// An existing MoM is left untouched as well.
	_, err = env.moms.Upsert(ctx, alice, id, "Alice's summary.")
	require.NoError(t, err)
	_, err = env.moms.Upsert(ctx, bob, id, "Overwritten.")
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	m, err := env.store.GetMoMByTranscription(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice's summary.", m.Summary)
}

func TestMoMService_Upsert_Concurrent(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")
	id := env.saveTranscription(t, alice, "Race.")

	const workers = 8

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		failures []error
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.moms.Upsert(ctx, alice, id, fmt.Sprintf("Summary %d.", i))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			if res.Created {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	for _, err := range failures {
		assert.True(t, errors.Is(err, domainerrors.ErrConflict), "unexpected error: %v", err)
	}

	moms, err := env.store.ListMoMsAfter(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, moms, 1)
}
