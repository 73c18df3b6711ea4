// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Lead model,
// including the assignable-pool selection and the atomic claim used by the
// bulk allocator.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a lead is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// LeadFilter narrows the assignable pool or a listing query. Zero-value
// fields are ignored.
type LeadFilter struct {
	Prefecture string
	Genre      string
	Status     string
}

// apply composes the filter onto q.
func (f LeadFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Prefecture != "" {
		q = q.Where("prefecture = ?", f.Prefecture)
	}
	if f.Genre != "" {
		q = q.Where("genre = ?", f.Genre)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// CreateLead inserts a new unassigned lead in PENDING status. The lead ID is
// a randomly generated UUID and CreatedAt is set to UTC.
func CreateLead(ctx context.Context, db *gorm.DB, storeName, prefecture, genre, memo string) (*domain.Lead, error) {
	l := &domain.Lead{
		ID:         uuid.NewString(),
		StoreName:  storeName,
		Prefecture: prefecture,
		Genre:      genre,
		Memo:       memo,
		Status:     domain.LeadStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

// GetLead fetches a single lead by ID, or ErrNotFound if missing.
func GetLead(ctx context.Context, db *gorm.DB, id string) (*domain.Lead, error) {
	var l domain.Lead
	if err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// CountLeads returns the number of leads matching the filter.
func CountLeads(ctx context.Context, db *gorm.DB, f LeadFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Lead{})).Count(&total).Error
	return total, err
}

// ListLeadsPage returns a paginated slice of leads matching the filter,
// ordered by creation time ascending then ID (the same total order the
// claim path uses, so listings and assignment batches agree).
func ListLeadsPage(ctx context.Context, db *gorm.DB, f LeadFilter, offset, limit int) ([]domain.Lead, error) {
	var out []domain.Lead
	err := f.apply(db.WithContext(ctx)).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SelectAssignableForUpdate returns up to limit unassigned leads matching the
// filter, locking the selected rows for the duration of the surrounding
// transaction (FOR UPDATE on stores that support row locks; SQLite serializes
// the whole write transaction, which is equivalent here).
//
// Tie-break order is created_at ASC, id ASC (oldest first), so repeated runs
// over a static pool select the same batch.
//
// Callers must invoke this inside a transaction and follow up with ClaimLeads
// in the same transaction; a bare select-then-update across two transactions
// would allow a concurrent allocator to claim the same rows in between.
func SelectAssignableForUpdate(ctx context.Context, tx *gorm.DB, f LeadFilter, limit int) ([]string, error) {
	var ids []string
	err := f.apply(tx.WithContext(ctx).Model(&domain.Lead{})).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("assignee_id IS NULL").
		Order("created_at ASC, id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// ClaimLeads sets assignee_id and assigned_at on the given leads, guarded by
// assignee_id IS NULL so a row claimed by a concurrent transaction is simply
// not updated. It returns the number of rows actually claimed; callers compare
// it against len(ids) to detect a lost race.
func ClaimLeads(ctx context.Context, tx *gorm.DB, ids []string, assigneeID string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := tx.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id IN ? AND assignee_id IS NULL", ids).
		Updates(map[string]any{
			"assignee_id": assigneeID,
			"assigned_at": at,
			"status":      domain.LeadStatusInProgress,
		})
	return res.RowsAffected, res.Error
}

// UpdateLeadStatus updates the status and/or memo of a lead. Assignment
// fields are never touched here. Returns ErrNotFound when the lead is missing.
func UpdateLeadStatus(ctx context.Context, db *gorm.DB, id, status string, memo *string) error {
	fields := map[string]any{"status": status}
	if memo != nil {
		fields["memo"] = *memo
	}
	res := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
