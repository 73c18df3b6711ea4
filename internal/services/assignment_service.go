// Package services: AssignmentService
//
// This file implements the bulk lead allocator: one call claims up to N
// currently-unassigned leads for a representative. Selection and mutation
// happen in a single transaction so that two concurrent calls can never both
// claim the same lead, even across service instances sharing the store.
//
// Service-level errors (e.g. ErrCountOutOfRange, ErrAssigneeNotFound) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MinAssignCount and MaxAssignCount bound one bulk request. The UI
	// enforces the same window; the server is authoritative.
	MinAssignCount = 1
	MaxAssignCount = 1000

	// claimAttempts bounds retries when a claim loses contested rows to a
	// concurrent allocator. Under row-locked selects this should not trigger;
	// it guards stores running at weaker isolation.
	claimAttempts = 3
)

// AssignmentResult reports one completed bulk assignment.
type AssignmentResult struct {
	// AssignedIDs lists the claimed leads in claim order.
	AssignedIDs []string `json:"assigned_ids"`
	// AssignedCount is len(AssignedIDs); it can be less than the requested
	// count when the pool runs short, which is not an error.
	AssignedCount int `json:"assigned_count"`
}

// AssignmentService implements the bulk allocator use-case. It validates the
// request (count bounds, active assignee) and performs the claim atomically
// using the provided GORM handle.
type AssignmentService struct {
	// DB is the database handle used for all assignment operations.
	DB *gorm.DB
}

// Assign atomically claims up to count unassigned leads (matching filter, if
// any fields are set) for assigneeID.
//
// Semantics and validation:
//   - count must be within [MinAssignCount, MaxAssignCount]; otherwise
//     ErrCountOutOfRange.
//   - assigneeID must reference an existing, active representative; otherwise
//     ErrAssigneeNotFound.
//   - Fewer assignable leads than requested is not an error: all available
//     leads are claimed and the actual count is reported. An empty pool
//     yields AssignedCount == 0.
//
// Concurrency & atomicity:
//   - Selection (locked) and mutation run in one transaction. The update is
//     additionally guarded by assignee_id IS NULL; if it claims fewer rows
//     than were selected, a concurrent allocator won the race for some rows,
//     the transaction rolls back, and the whole claim is retried with a fresh
//     selection. Nothing is ever partially committed.
//   - Cancelling ctx before commit rolls the claim back entirely.
//
// Errors:
//   - ErrAssignConflict after the retry budget is exhausted.
//   - ErrLockTimeout when the store's lock wait bound is exceeded.
//   - The underlying DB error for unexpected failures.
func (s *AssignmentService) Assign(ctx context.Context, assigneeID string, count int, filter repo.LeadFilter) (*AssignmentResult, error) {
	tr := otel.Tracer("services/AssignmentService")
	ctx, span := tr.Start(ctx, "Assign",
		trace.WithAttributes(
			attribute.String("assignee.id", assigneeID),
			attribute.Int("count", count),
		),
	)
	defer span.End()

	if count < MinAssignCount || count > MaxAssignCount {
		return nil, ErrCountOutOfRange
	}

	rep, err := repo.GetRepresentative(ctx, s.DB, assigneeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, err
	}
	if !rep.Active {
		return nil, ErrAssigneeNotFound
	}

	var result *AssignmentResult
	for attempt := 0; attempt < claimAttempts; attempt++ {
		result, err = s.claimOnce(ctx, assigneeID, count, filter)
		if err == nil {
			span.SetAttributes(attribute.Int("assigned_count", result.AssignedCount))
			leadsAssigned.WithLabelValues(assigneeID).Add(float64(result.AssignedCount))
			return result, nil
		}
		if !errors.Is(err, errClaimLost) {
			if isBusy(err) {
				return nil, ErrLockTimeout
			}
			return nil, err
		}
		assignClaimConflicts.Inc()
	}
	return nil, ErrAssignConflict
}

// errClaimLost signals an internal retry of the claim transaction. It never
// escapes Assign.
var errClaimLost = errors.New("claim lost contested rows")

// claimOnce runs a single select-and-claim transaction.
func (s *AssignmentService) claimOnce(ctx context.Context, assigneeID string, count int, filter repo.LeadFilter) (*AssignmentResult, error) {
	var ids []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		ids, err = repo.SelectAssignableForUpdate(ctx, tx, filter, count)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		claimed, err := repo.ClaimLeads(ctx, tx, ids, assigneeID, time.Now().UTC())
		if err != nil {
			return err
		}
		// Under locked selects this never fires; at weaker isolation a
		// concurrent allocator may have claimed a selected row first.
		if claimed != int64(len(ids)) {
			return errClaimLost
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &AssignmentResult{AssignedIDs: ids, AssignedCount: len(ids)}, nil
}
