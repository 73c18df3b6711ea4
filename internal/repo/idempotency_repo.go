// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the AssignmentKey
// model used to implement safe-retry semantics for the bulk-assignment
// endpoint.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// ErrDuplicate indicates that an assignment-key record already exists for the
// given (user_id, key) tuple.
var ErrDuplicate = errors.New("duplicate")

// GetAssignmentKey returns a non-expired record or ErrNotFound.
func GetAssignmentKey(ctx context.Context, db *gorm.DB, userID, key string, now time.Time) (*domain.AssignmentKey, error) {
	var rec domain.AssignmentKey
	err := db.WithContext(ctx).
		Where("user_id = ? AND key = ? AND expires_at > ?", userID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateAssignmentKey inserts a record and returns ErrDuplicate on unique
// violation.
func CreateAssignmentKey(ctx context.Context, db *gorm.DB, userID, key, assigneeID string, assignedCount int, ttl time.Duration) (*domain.AssignmentKey, error) {
	now := time.Now().UTC()
	rec := &domain.AssignmentKey{
		ID:            uuid.NewString(),
		UserID:        userID,
		Key:           key,
		AssigneeID:    assigneeID,
		AssignedCount: assignedCount,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
