// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// HistoryEntry model: the locked max-round read, the conditional insert the
// round allocator relies on, and listing/deletion.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// MaxRound returns the greatest round recorded for (entityType, entityID), or
// 0 when the entity has no history. After a deletion this is not the same as
// the entry count: gaps are left in place, and new rounds continue past them.
//
// Call this inside the same transaction as the subsequent insert. The locking
// clause serializes against other writers for the key on stores with row
// locks; the unique index on (entity_type, entity_id, round) backstops stores
// without them.
func MaxRound(ctx context.Context, tx *gorm.DB, entityType, entityID string) (int, error) {
	var max int
	err := tx.WithContext(ctx).
		Model(&domain.HistoryEntry{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Select("COALESCE(MAX(round), 0)").
		Scan(&max).Error
	return max, err
}

// CreateHistoryEntry inserts one history row with the given round. A losing
// race surfaces as a unique-constraint violation on
// (entity_type, entity_id, round); the service layer detects it and retries
// with a recomputed round.
func CreateHistoryEntry(ctx context.Context, tx *gorm.DB, entityType, entityID string, round int, content, authorID string, contactDate *time.Time) (*domain.HistoryEntry, error) {
	e := &domain.HistoryEntry{
		ID:          uuid.NewString(),
		EntityType:  entityType,
		EntityID:    entityID,
		Round:       round,
		Content:     content,
		AuthorID:    authorID,
		ContactDate: contactDate,
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// ListHistory returns all history entries for an entity, newest round first.
func ListHistory(ctx context.Context, db *gorm.DB, entityType, entityID string) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	err := db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("round DESC").
		Find(&out).Error
	return out, err
}

// DeleteHistoryEntry removes the entry at the given round. Remaining entries
// are not renumbered; the gap is deliberate so round numbers already reported
// elsewhere stay valid. Returns ErrNotFound when no such entry exists.
func DeleteHistoryEntry(ctx context.Context, db *gorm.DB, entityType, entityID string, round int) error {
	res := db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND round = ?", entityType, entityID, round).
		Delete(&domain.HistoryEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
