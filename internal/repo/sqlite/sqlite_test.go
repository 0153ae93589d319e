package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/hamed0406/alertledger/internal/domain"
	"github.com/hamed0406/alertledger/internal/repo"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_UpsertAndGet(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "A1")
	if err != nil || got != nil {
		t.Fatalf("expected nil,nil for missing alert, got %+v err=%v", got, err)
	}

	a := &domain.Alert{ID: "A1", OriginalID: "A1", Category: "battery_low", CreatedAtMillis: 1000}
	stored, err := s.Upsert(ctx, a)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if stored.Category != "battery_low" || stored.Acknowledged() {
		t.Errorf("unexpected stored alert: %+v", stored)
	}

	a.Acknowledge("alice", 2000)
	if _, err := s.Upsert(ctx, a); err != nil {
		t.Fatalf("Upsert ack failed: %v", err)
	}
	got, err = s.Get(ctx, "A1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Acknowledged() || *got.AcknowledgedBy != "alice" || *got.AcknowledgedAtMillis != 2000 {
		t.Errorf("expected acknowledged by alice at 2000, got %+v", got)
	}
}

func TestSQLiteStore_Exists(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected nonexistent alert to not exist")
	}

	if err := s.Insert(ctx, &domain.Alert{ID: "A1__5"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	exists, err = s.Exists(ctx, "A1__5")
	if err != nil || !exists {
		t.Errorf("expected A1__5 to exist, got %v err=%v", exists, err)
	}
}

func TestSQLiteStore_InsertDuplicate(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	if err := s.Insert(ctx, &domain.Alert{ID: "dup"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := s.Insert(ctx, &domain.Alert{ID: "dup"}); !errors.Is(err, repo.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestSQLiteStore_ListKeepsInsertionOrder(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"B", "A", "C"} {
		if _, err := s.Upsert(ctx, &domain.Alert{ID: id}); err != nil {
			t.Fatalf("Upsert %s: %v", id, err)
		}
	}
	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "B" || all[1].ID != "A" || all[2].ID != "C" {
		t.Errorf("unexpected order: %+v", all)
	}
}

func TestSQLiteStore_TaskLog(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	if err := s.RecordAcknowledgement(ctx, "A1", "alice", 42); err != nil {
		t.Fatalf("RecordAcknowledgement failed: %v", err)
	}
	acks, err := s.Acknowledgements(ctx, "A1")
	if err != nil {
		t.Fatalf("Acknowledgements failed: %v", err)
	}
	if len(acks) != 1 || acks[0].User != "alice" || acks[0].AckMillis != 42 {
		t.Errorf("unexpected acks: %+v", acks)
	}
	if acks[0].RecordedAt.IsZero() {
		t.Error("expected RecordedAt to be set")
	}
}
