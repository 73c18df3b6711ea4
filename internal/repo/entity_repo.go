// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// TrackedEntity and Representative models.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// CreateTrackedEntity inserts a new tracked entity owned by ownerUserID.
func CreateTrackedEntity(ctx context.Context, db *gorm.DB, entityType, ownerUserID, name string) (*domain.TrackedEntity, error) {
	e := &domain.TrackedEntity{
		ID:          uuid.NewString(),
		EntityType:  entityType,
		OwnerUserID: ownerUserID,
		Name:        name,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// GetTrackedEntity fetches an entity by type and ID, or ErrNotFound.
func GetTrackedEntity(ctx context.Context, db *gorm.DB, entityType, id string) (*domain.TrackedEntity, error) {
	var e domain.TrackedEntity
	err := db.WithContext(ctx).
		Where("entity_type = ? AND id = ?", entityType, id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateRepresentative inserts a new representative. Role defaults to "rep"
// when blank; new representatives are active.
func CreateRepresentative(ctx context.Context, db *gorm.DB, name, role string) (*domain.Representative, error) {
	if role == "" {
		role = domain.RoleRep
	}
	r := &domain.Representative{
		ID:        uuid.NewString(),
		Name:      name,
		Role:      role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetRepresentative fetches a representative by ID, or ErrNotFound.
func GetRepresentative(ctx context.Context, db *gorm.DB, id string) (*domain.Representative, error) {
	var r domain.Representative
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRepresentatives returns all representatives ordered by name.
func ListRepresentatives(ctx context.Context, db *gorm.DB) ([]domain.Representative, error) {
	var out []domain.Representative
	err := db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}
