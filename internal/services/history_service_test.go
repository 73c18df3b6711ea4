package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// seedEntity inserts a tracked entity and returns its id.
func seedEntity(t *testing.T, db *gorm.DB, entityType, owner string) string {
	t.Helper()
	e, err := repo.CreateTrackedEntity(context.Background(), db, entityType, owner, "entity")
	if err != nil {
		t.Fatalf("seed entity: %v", err)
	}
	return e.ID
}

func TestHistoryAdd_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := &HistoryService{DB: db}
	ctx := context.Background()

	if _, err := svc.Add(ctx, "u1", domain.EntityTypeSalesTracking, "e1", "   ", nil); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("blank content: expected ErrEmptyContent, got %v", err)
	}
	if _, err := svc.Add(ctx, "u1", "bogus", "e1", "note", nil); !errors.Is(err, ErrInvalidEntityType) {
		t.Fatalf("bad type: expected ErrInvalidEntityType, got %v", err)
	}
	if _, err := svc.Add(ctx, "u1", domain.EntityTypeSalesTracking, "missing", "note", nil); !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("missing entity: expected ErrEntityNotFound, got %v", err)
	}
}

func TestHistoryAdd_Authorization(t *testing.T) {
	db := newTestDB(t)
	svc := &HistoryService{DB: db}
	ctx := context.Background()

	owner := seedRep(t, db, "Owner", "")
	admin := seedRep(t, db, "Admin", domain.RoleAdmin)
	stranger := seedRep(t, db, "Stranger", "")
	entity := seedEntity(t, db, domain.EntityTypeSalesTracking, owner)

	if _, err := svc.Add(ctx, owner, domain.EntityTypeSalesTracking, entity, "by owner", nil); err != nil {
		t.Fatalf("owner add: %v", err)
	}
	if _, err := svc.Add(ctx, admin, domain.EntityTypeSalesTracking, entity, "by admin", nil); err != nil {
		t.Fatalf("admin add: %v", err)
	}
	if _, err := svc.Add(ctx, stranger, domain.EntityTypeSalesTracking, entity, "by stranger", nil); !errors.Is(err, ErrForbiddenHistory) {
		t.Fatalf("stranger add: expected ErrForbiddenHistory, got %v", err)
	}
}

func TestHistoryAdd_SequentialRounds(t *testing.T) {
	db := newTestDB(t)
	svc := &HistoryService{DB: db}
	ctx := context.Background()
	owner := seedRep(t, db, "Owner", "")
	entity := seedEntity(t, db, domain.EntityTypeRetargeting, owner)

	when := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	for want := 1; want <= 4; want++ {
		entry, err := svc.Add(ctx, owner, domain.EntityTypeRetargeting, entity, "note", &when)
		if err != nil {
			t.Fatalf("add %d: %v", want, err)
		}
		if entry.Round != want {
			t.Fatalf("round = %d, want %d", entry.Round, want)
		}
	}
}

// Concurrent appends for the same entity must end up with the gap-free set
// {1..N}, every writer holding a distinct round.
func TestHistoryAdd_ConcurrentGapFree(t *testing.T) {
	db := newTestDB(t)
	svc := &HistoryService{DB: db}
	owner := seedRep(t, db, "Owner", "")
	entity := seedEntity(t, db, domain.EntityTypeSalesTracking, owner)

	const writers = 8
	var wg sync.WaitGroup
	rounds := make([]int, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := svc.Add(context.Background(), owner, domain.EntityTypeSalesTracking, entity, "concurrent", nil)
			if err != nil {
				t.Errorf("writer %d: %v", i, err)
				return
			}
			rounds[i] = entry.Round
		}(i)
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, r := range rounds {
		if r < 1 || r > writers {
			t.Fatalf("round %d outside [1,%d]", r, writers)
		}
		if seen[r] {
			t.Fatalf("round %d allocated twice (all: %v)", r, rounds)
		}
		seen[r] = true
	}
}

func TestHistoryAdd_ContinuesPastGap(t *testing.T) {
	db := newTestDB(t)
	svc := &HistoryService{DB: db}
	ctx := context.Background()
	owner := seedRep(t, db, "Owner", "")
	entity := seedEntity(t, db, domain.EntityTypeSalesTracking, owner)

	for i := 0; i < 3; i++ {
		if _, err := svc.Add(ctx, owner, domain.EntityTypeSalesTracking, entity, "note", nil); err != nil {
			t.Fatalf("seed add: %v", err)
		}
	}
	if err := svc.Delete(ctx, owner, domain.EntityTypeSalesTracking, entity, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// The gap at round 2 is not refilled; allocation continues after the max.
	entry, err := svc.Add(ctx, owner, domain.EntityTypeSalesTracking, entity, "after gap", nil)
	if err != nil {
		t.Fatalf("add after gap: %v", err)
	}
	if entry.Round != 4 {
		t.Fatalf("round after gap = %d, want 4", entry.Round)
	}
}

func TestHistoryDelete_Errors(t *testing.T) {
	db := newTestDB(t)
	svc := &HistoryService{DB: db}
	ctx := context.Background()
	owner := seedRep(t, db, "Owner", "")
	stranger := seedRep(t, db, "Stranger", "")
	entity := seedEntity(t, db, domain.EntityTypeSalesTracking, owner)

	if _, err := svc.Add(ctx, owner, domain.EntityTypeSalesTracking, entity, "note", nil); err != nil {
		t.Fatalf("seed add: %v", err)
	}

	if err := svc.Delete(ctx, stranger, domain.EntityTypeSalesTracking, entity, 1); !errors.Is(err, ErrForbiddenHistory) {
		t.Fatalf("stranger delete: expected ErrForbiddenHistory, got %v", err)
	}
	if err := svc.Delete(ctx, owner, domain.EntityTypeSalesTracking, entity, 99); !errors.Is(err, ErrHistoryNotFound) {
		t.Fatalf("missing round: expected ErrHistoryNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, owner, "bogus", entity, 1); !errors.Is(err, ErrInvalidEntityType) {
		t.Fatalf("bad type: expected ErrInvalidEntityType, got %v", err)
	}
}

func TestHistoryList(t *testing.T) {
	db := newTestDB(t)
	svc := &HistoryService{DB: db}
	ctx := context.Background()
	owner := seedRep(t, db, "Owner", "")
	entity := seedEntity(t, db, domain.EntityTypeRetargeting, owner)

	for i := 0; i < 3; i++ {
		if _, err := svc.Add(ctx, owner, domain.EntityTypeRetargeting, entity, "note", nil); err != nil {
			t.Fatalf("seed add: %v", err)
		}
	}

	entries, err := svc.List(ctx, domain.EntityTypeRetargeting, entity)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 || entries[0].Round != 3 {
		t.Fatalf("unexpected listing: %+v", entries)
	}

	if _, err := svc.List(ctx, domain.EntityTypeRetargeting, "missing"); !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestHistoryAddBulk_IndependentOutcomes(t *testing.T) {
	db := newTestDB(t)
	svc := &HistoryService{DB: db}
	ctx := context.Background()
	owner := seedRep(t, db, "Owner", "")
	other := seedRep(t, db, "Other", "")

	mine1 := seedEntity(t, db, domain.EntityTypeSalesTracking, owner)
	mine2 := seedEntity(t, db, domain.EntityTypeSalesTracking, owner)
	theirs := seedEntity(t, db, domain.EntityTypeSalesTracking, other)

	// Pre-existing history on mine2 so its sequence differs from mine1's.
	if _, err := svc.Add(ctx, owner, domain.EntityTypeSalesTracking, mine2, "earlier", nil); err != nil {
		t.Fatalf("seed add: %v", err)
	}

	results, err := svc.AddBulk(ctx, owner, domain.EntityTypeSalesTracking,
		[]string{mine1, theirs, mine2}, "bulk note", nil)
	if err != nil {
		t.Fatalf("AddBulk: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	// Input order is preserved; each entity has its own sequence.
	if results[0].EntityID != mine1 || results[0].Round != 1 || results[0].Err != "" {
		t.Fatalf("mine1 result = %+v", results[0])
	}
	if results[1].EntityID != theirs || results[1].Err == "" {
		t.Fatalf("theirs result should carry an error, got %+v", results[1])
	}
	if results[2].EntityID != mine2 || results[2].Round != 2 || results[2].Err != "" {
		t.Fatalf("mine2 result = %+v", results[2])
	}
}

func TestHistoryAdd_RoundConflictAfterRetries(t *testing.T) {
	db := newTestDB(t)
	owner := seedRep(t, db, "Owner", "")
	entity := seedEntity(t, db, domain.EntityTypeSalesTracking, owner)

	// Every history insert reports a duplicated key, as if a concurrent writer
	// always wins; the retry budget must run out cleanly.
	if err := db.Callback().Create().Before("gorm:create").Register("force_dup_history", func(tx *gorm.DB) {
		if tx.Statement != nil && strings.Contains(tx.Statement.Table, "history") {
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	}); err != nil {
		t.Fatalf("register callback: %v", err)
	}

	svc := &HistoryService{DB: db}
	_, err := svc.Add(context.Background(), owner, domain.EntityTypeSalesTracking, entity, "note", nil)
	if !errors.Is(err, ErrRoundConflict) {
		t.Fatalf("expected ErrRoundConflict, got %v", err)
	}
}

func Test_isDuplicate_and_isBusy(t *testing.T) {
	if !isDuplicate(gorm.ErrDuplicatedKey) {
		t.Fatalf("isDuplicate(gorm.ErrDuplicatedKey) = false")
	}
	if !isDuplicate(errors.New("UNIQUE constraint failed: history_entries.entity_type, history_entries.entity_id, history_entries.round")) {
		t.Fatalf("isDuplicate(sqlite unique) = false")
	}
	if !isDuplicate(errors.New("duplicate key value violates unique constraint \"ux_history_entity_round\"")) {
		t.Fatalf("isDuplicate(pg duplicate) = false")
	}
	if isDuplicate(errors.New("some other error")) {
		t.Fatalf("isDuplicate(other) = true")
	}

	if !isBusy(context.DeadlineExceeded) {
		t.Fatalf("isBusy(DeadlineExceeded) = false")
	}
	if !isBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatalf("isBusy(sqlite busy) = false")
	}
	if isBusy(errors.New("some other error")) {
		t.Fatalf("isBusy(other) = true")
	}
}
