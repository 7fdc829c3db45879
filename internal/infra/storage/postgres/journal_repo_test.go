package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/callguard/internal/core/domain"
)

func TestJournalRepo_RecordAndList(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, Config{URL: url})
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	repo := NewJournalRepo(db)
	rec := &domain.CallRecord{
		ID:        uuid.New(),
		Command:   "verify",
		Name:      "livekit.list_rooms",
		Kind:      "remote_error",
		Reason:    "authentication",
		Message:   "invalid token",
		Attempts:  1,
		Elapsed:   120 * time.Millisecond,
		CreatedAt: time.Now().UTC().Add(time.Hour),
	}
	if err := repo.Record(ctx, rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := repo.ListRecent(ctx, 1)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != rec.ID {
		t.Fatalf("expected newest record %s, got %+v", rec.ID, got)
	}
	if got[0].Elapsed != 120*time.Millisecond {
		t.Errorf("expected elapsed 120ms, got %v", got[0].Elapsed)
	}
}
