package sqlite

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/minutesapp/minutes-server/internal/domain"
	"github.com/minutesapp/minutes-server/internal/store"
)

func createTestTranscription(t *testing.T, s *Store, userID, body string, at time.Time) *domain.Transcription {
	t.Helper()
	tr := &domain.Transcription{UserID: userID, Body: body, CreatedAt: at}
	if err := s.CreateTranscription(context.Background(), tr); err != nil {
		t.Fatalf("CreateTranscription: %v", err)
	}
	return tr
}

func TestCreateAndGetTranscription(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "user-1", "alice")

	tr := createTestTranscription(t, s, "user-1", "Hello world.", time.Now())
	if tr.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	got, err := s.GetTranscription(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("GetTranscription: %v", err)
	}
	if got.Body != "Hello world." || got.UserID != "user-1" {
		t.Errorf("unexpected transcription: %+v", got)
	}
}

func TestGetTranscription_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetTranscription(context.Background(), 99); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTranscription_Rejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "user-1", "alice")

	err := s.CreateTranscription(ctx, &domain.Transcription{UserID: "user-1", Body: " \n\t ", CreatedAt: time.Now()})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("blank body: expected ErrInvalidInput, got %v", err)
	}

	err = s.CreateTranscription(ctx, &domain.Transcription{UserID: "ghost", Body: "text", CreatedAt: time.Now()})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("unknown owner: expected ErrInvalidInput, got %v", err)
	}
}

func TestListTranscriptionsForUser_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "user-1", "alice")
	createTestUser(t, s, "user-2", "bob")

	base := time.Now().Add(-time.Hour)
	var ids []int64
	for i := range 7 {
		tr := createTestTranscription(t, s, "user-1", "Entry.", base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, tr.ID)
	}
	createTestTranscription(t, s, "user-2", "Someone else.", base)

	sizes := map[int]int{1: 5, 2: 2, 3: 0}
	for page, want := range sizes {
		got, err := s.ListTranscriptionsForUser(ctx, "user-1", store.PageParams{Page: page, PageSize: 5})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if len(got.Items) != want {
			t.Errorf("page %d: expected %d items, got %d", page, want, len(got.Items))
		}
		if got.Total != 7 {
			t.Errorf("page %d: expected total 7, got %d", page, got.Total)
		}
	}

	first, err := s.ListTranscriptionsForUser(ctx, "user-1", store.PageParams{Page: 1, PageSize: 5})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if first.Items[0].ID != ids[6] {
		t.Errorf("expected newest first (%d), got %d", ids[6], first.Items[0].ID)
	}
	for _, item := range first.Items {
		if item.UserID != "user-1" {
			t.Errorf("foreign transcription listed: %+v", item)
		}
	}
}

func TestListTranscriptionsForUser_HugePage(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "user-1", "alice")

	base := time.Now().Add(-time.Hour)
	for i := range 7 {
		createTestTranscription(t, s, "user-1", "Entry.", base.Add(time.Duration(i)*time.Minute))
	}

	for _, page := range []int{1<<61 + 1, math.MaxInt} {
		got, err := s.ListTranscriptionsForUser(context.Background(), "user-1", store.PageParams{Page: page, PageSize: 5})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if len(got.Items) != 0 {
			t.Errorf("page %d: expected no items, got %d", page, len(got.Items))
		}
		if got.HasNext {
			t.Errorf("page %d: expected has_next false", page)
		}
		if got.Total != 7 {
			t.Errorf("page %d: expected total 7, got %d", page, got.Total)
		}
	}
}

func TestListTranscriptionsForUser_TiesBrokenByID(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "user-1", "alice")

	at := time.Now()
	a := createTestTranscription(t, s, "user-1", "First.", at)
	b := createTestTranscription(t, s, "user-1", "Second.", at)

	page, err := s.ListTranscriptionsForUser(context.Background(), "user-1", store.PageParams{})
	if err != nil {
		t.Fatalf("ListTranscriptionsForUser: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if page.Items[0].ID != b.ID || page.Items[1].ID != a.ID {
		t.Errorf("expected [%d %d], got [%d %d]", b.ID, a.ID, page.Items[0].ID, page.Items[1].ID)
	}
}

func TestListTranscriptionsForUser_MoMFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "user-1", "alice")

	with := createTestTranscription(t, s, "user-1", "With minutes.", time.Now().Add(-time.Minute))
	createTestTranscription(t, s, "user-1", "Without minutes.", time.Now())

	m := &domain.MoM{TranscriptionID: with.ID, UserID: "user-1", Summary: "Done.", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := s.CreateMoM(ctx, m); err != nil {
		t.Fatalf("CreateMoM: %v", err)
	}

	page, err := s.ListTranscriptionsForUser(ctx, "user-1", store.PageParams{})
	if err != nil {
		t.Fatalf("ListTranscriptionsForUser: %v", err)
	}
	if page.Items[0].HasMoM() {
		t.Error("newest transcription should have no MoM")
	}
	if !page.Items[1].HasMoM() || *page.Items[1].MoMID != m.ID {
		t.Errorf("expected MoM %d on older transcription", m.ID)
	}
}

func TestListTranscriptionsAfter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "user-1", "alice")

	for range 3 {
		createTestTranscription(t, s, "user-1", "Text.", time.Now())
	}

	batch, err := s.ListTranscriptionsAfter(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListTranscriptionsAfter: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected 2, got %d", len(batch))
	}
	rest, err := s.ListTranscriptionsAfter(ctx, batch[1].ID, 2)
	if err != nil {
		t.Fatalf("ListTranscriptionsAfter: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("expected 1, got %d", len(rest))
	}

	n, err := s.CountTranscriptions(ctx)
	if err != nil {
		t.Fatalf("CountTranscriptions: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
}
