// Package domain defines the core persistence models for the application.
package domain

import "time"

// AssignmentKey records a previously completed bulk-assignment request, keyed
// by (user_id, key). It enables safe retries of POST /assignments: a retried
// request with the same Idempotency-Key is answered from this record instead
// of claiming a second batch of leads.
type AssignmentKey struct {
	ID            string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_assignment_user_key,priority:1"`
	Key           string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_assignment_user_key,priority:2"`
	AssigneeID    string    `gorm:"type:TEXT NOT NULL"`
	AssignedCount int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt     time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt     time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (AssignmentKey) TableName() string { return "assignment_keys" }
