package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

func TestMaxRound_EmptyHistory(t *testing.T) {
	db := newTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		max, err := MaxRound(context.Background(), tx, domain.EntityTypeSalesTracking, "e1")
		if err != nil {
			return err
		}
		if max != 0 {
			t.Fatalf("max = %d, want 0 for empty history", max)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestCreateHistoryEntry_SequenceAndUniqueBackstop(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			max, err := MaxRound(ctx, tx, domain.EntityTypeSalesTracking, "e1")
			if err != nil {
				return err
			}
			if max != want-1 {
				t.Fatalf("max before insert = %d, want %d", max, want-1)
			}
			_, err = CreateHistoryEntry(ctx, tx, domain.EntityTypeSalesTracking, "e1", max+1, "note", "u1", nil)
			return err
		})
		if err != nil {
			t.Fatalf("insert round %d: %v", want, err)
		}
	}

	// The same round for the same entity violates the unique index.
	_, err := CreateHistoryEntry(ctx, db, domain.EntityTypeSalesTracking, "e1", 3, "dup", "u1", nil)
	if err == nil {
		t.Fatalf("expected unique-constraint violation for duplicate round")
	}

	// The same round for a different entity (or type) is independent.
	if _, err := CreateHistoryEntry(ctx, db, domain.EntityTypeSalesTracking, "e2", 3, "ok", "u1", nil); err != nil {
		t.Fatalf("round 3 for e2: %v", err)
	}
	if _, err := CreateHistoryEntry(ctx, db, domain.EntityTypeRetargeting, "e1", 3, "ok", "u1", nil); err != nil {
		t.Fatalf("round 3 for retargeting/e1: %v", err)
	}
}

func TestListHistory_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for r := 1; r <= 3; r++ {
		if _, err := CreateHistoryEntry(ctx, db, domain.EntityTypeRetargeting, "c1", r, "note", "u1", nil); err != nil {
			t.Fatalf("seed round %d: %v", r, err)
		}
	}

	entries, err := ListHistory(ctx, db, domain.EntityTypeRetargeting, "c1")
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	for i, want := range []int{3, 2, 1} {
		if entries[i].Round != want {
			t.Fatalf("entries[%d].Round = %d, want %d", i, entries[i].Round, want)
		}
	}
}

func TestDeleteHistoryEntry_LeavesGap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for r := 1; r <= 3; r++ {
		if _, err := CreateHistoryEntry(ctx, db, domain.EntityTypeSalesTracking, "g1", r, "note", "u1", nil); err != nil {
			t.Fatalf("seed round %d: %v", r, err)
		}
	}

	if err := DeleteHistoryEntry(ctx, db, domain.EntityTypeSalesTracking, "g1", 2); err != nil {
		t.Fatalf("DeleteHistoryEntry: %v", err)
	}

	// Remaining rounds are untouched and MAX(round) still reflects round 3,
	// so the next allocation continues past the gap.
	entries, _ := ListHistory(ctx, db, domain.EntityTypeSalesTracking, "g1")
	if len(entries) != 2 || entries[0].Round != 3 || entries[1].Round != 1 {
		t.Fatalf("unexpected entries after delete: %+v", entries)
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		max, err := MaxRound(ctx, tx, domain.EntityTypeSalesTracking, "g1")
		if err != nil {
			return err
		}
		if max != 3 {
			t.Fatalf("max after gap = %d, want 3", max)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	// Deleting an absent round reports not found.
	if err := DeleteHistoryEntry(ctx, db, domain.EntityTypeSalesTracking, "g1", 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
