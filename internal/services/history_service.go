// Package services: HistoryService
//
// This file implements the contact-round allocator: appending history entries
// with strictly increasing, gap-free round numbers per tracked entity. The
// round is recomputed inside each insert transaction and the unique index on
// (entity_type, entity_id, round) backstops the race: a losing writer retries
// with a fresh round instead of surfacing the constraint violation.
//
// It also carries the bulk fan-out (same content recorded against many
// entities, each with its own independent round sequence), listing, and
// deletion. Deletion leaves a gap; rounds are never renumbered, so round
// numbers already reported elsewhere stay valid.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// roundAttempts bounds internal retries when a round insert loses the race.
// Conflicts are expected under load, not exceptional; only after the budget
// is exhausted does ErrRoundConflict reach the caller.
const roundAttempts = 3

// HistoryService implements the use-cases around contact history. It enforces
// ownership (only the entity owner or an admin may mutate history) and
// allocates round numbers atomically using the provided GORM handle.
type HistoryService struct {
	// DB is the database handle used for all history operations.
	DB *gorm.DB
}

// BulkEntryResult is the per-entity outcome of a bulk history fan-out.
type BulkEntryResult struct {
	EntityID string `json:"entity_id"`
	// Round is the allocated round when Err is empty.
	Round int    `json:"round,omitempty"`
	Err   string `json:"error,omitempty"`
}

// Add appends one history entry for (entityType, entityID) with the next
// round number and returns the created entry carrying the authoritative
// round.
//
// Semantics and validation:
//   - content must be non-blank; otherwise ErrEmptyContent.
//   - entityType must be known; otherwise ErrInvalidEntityType.
//   - The entity must exist; otherwise ErrEntityNotFound.
//   - callerID must be the entity owner or an admin; otherwise
//     ErrForbiddenHistory.
//
// A client-side round hint (for optimistic UI rendering) is not accepted
// here: the allocator is the source of truth and handlers pass the hint
// through only for logging.
//
// Concurrency & atomicity:
//   - Each attempt reads MAX(round) and inserts max+1 in one transaction,
//     with the read serialized against other writers for the same entity.
//     A unique-constraint violation means a concurrent writer committed the
//     same round first; the whole transaction is retried with a recomputed
//     round, up to roundAttempts times.
//
// Errors:
//   - ErrRoundConflict after the retry budget is exhausted.
//   - ErrLockTimeout when the store's lock wait bound is exceeded.
//   - The underlying DB error for unexpected failures.
func (s *HistoryService) Add(ctx context.Context, callerID, entityType, entityID, content string, contactDate *time.Time) (*domain.HistoryEntry, error) {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "Add",
		trace.WithAttributes(
			attribute.String("entity.type", entityType),
			attribute.String("entity.id", entityID),
			attribute.String("user.id", callerID),
		),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if !domain.ValidEntityType(entityType) {
		return nil, ErrInvalidEntityType
	}
	if err := s.authorize(ctx, callerID, entityType, entityID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < roundAttempts; attempt++ {
		entry, err := s.insertNextRound(ctx, entityType, entityID, content, callerID, contactDate)
		if err == nil {
			span.SetAttributes(attribute.Int("round", entry.Round))
			return entry, nil
		}
		if isDuplicate(err) {
			roundRetries.Inc()
			continue
		}
		if isBusy(err) {
			return nil, ErrLockTimeout
		}
		return nil, err
	}
	roundConflicts.Inc()
	return nil, ErrRoundConflict
}

// AddBulk records the same content against many independent entities of one
// type. Each entity gets its own round reservation; one entity failing (e.g.
// not owned by the caller) does not abort the others. Results are returned in
// input order.
func (s *HistoryService) AddBulk(ctx context.Context, callerID, entityType string, entityIDs []string, content string, contactDate *time.Time) ([]BulkEntryResult, error) {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "AddBulk",
		trace.WithAttributes(
			attribute.String("entity.type", entityType),
			attribute.Int("entities", len(entityIDs)),
		),
	)
	defer span.End()

	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if !domain.ValidEntityType(entityType) {
		return nil, ErrInvalidEntityType
	}

	out := make([]BulkEntryResult, 0, len(entityIDs))
	for _, id := range entityIDs {
		entry, err := s.Add(ctx, callerID, entityType, id, content, contactDate)
		if err != nil {
			out = append(out, BulkEntryResult{EntityID: id, Err: err.Error()})
			continue
		}
		out = append(out, BulkEntryResult{EntityID: id, Round: entry.Round})
	}
	return out, nil
}

// List returns the history of an entity, newest round first.
func (s *HistoryService) List(ctx context.Context, entityType, entityID string) ([]domain.HistoryEntry, error) {
	if !domain.ValidEntityType(entityType) {
		return nil, ErrInvalidEntityType
	}
	if _, err := repo.GetTrackedEntity(ctx, s.DB, entityType, entityID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, err
	}
	return repo.ListHistory(ctx, s.DB, entityType, entityID)
}

// Delete removes the entry at round for (entityType, entityID). The remaining
// rounds are left untouched, so MAX(round) can exceed the entry count
// afterwards and the next allocation continues past the gap.
func (s *HistoryService) Delete(ctx context.Context, callerID, entityType, entityID string, round int) error {
	if !domain.ValidEntityType(entityType) {
		return ErrInvalidEntityType
	}
	if err := s.authorize(ctx, callerID, entityType, entityID); err != nil {
		return err
	}
	err := repo.DeleteHistoryEntry(ctx, s.DB, entityType, entityID, round)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrHistoryNotFound
	}
	return err
}

// authorize loads the entity and checks that callerID is its owner or an
// admin representative.
func (s *HistoryService) authorize(ctx context.Context, callerID, entityType, entityID string) error {
	entity, err := repo.GetTrackedEntity(ctx, s.DB, entityType, entityID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEntityNotFound
		}
		return err
	}
	if entity.OwnerUserID == callerID {
		return nil
	}
	caller, err := repo.GetRepresentative(ctx, s.DB, callerID)
	if err == nil && caller.IsAdmin() {
		return nil
	}
	return ErrForbiddenHistory
}

// insertNextRound runs one read-max-then-insert transaction.
func (s *HistoryService) insertNextRound(ctx context.Context, entityType, entityID, content, authorID string, contactDate *time.Time) (*domain.HistoryEntry, error) {
	var entry *domain.HistoryEntry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		max, err := repo.MaxRound(ctx, tx, entityType, entityID)
		if err != nil {
			return err
		}
		entry, err = repo.CreateHistoryEntry(ctx, tx, entityType, entityID, max+1, content, authorID, contactDate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

// isBusy detects lock-wait timeouts across drivers. SQLite surfaces
// SQLITE_BUSY once busy_timeout expires; context deadlines count too.
func isBusy(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "lock wait timeout")
}
