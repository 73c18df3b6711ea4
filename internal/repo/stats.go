// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the
// assignment-progress reports. Each function is read-only, context-aware, and
// safe to call concurrently with the allocators.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// AssigneePeriodStats is one aggregation row: how many leads a representative
// was assigned within a period and how many of those are completed.
//
// Completed counts leads whose assigned_at falls in the period, regardless of
// when the status changed. Completion is attributed to the week of
// assignment, which can undercount cross-week completions; the dashboards
// this feeds have always read it that way.
type AssigneePeriodStats struct {
	AssigneeID string `json:"assignee_id"`
	Assigned   int64  `json:"assigned"`
	Completed  int64  `json:"completed"`
}

// AssignmentStats returns per-assignee aggregates for leads assigned in
// [start, end). When assigneeID is non-empty the result is scoped to that
// representative. Rows are ordered by assignee_id for stable output.
func AssignmentStats(ctx context.Context, db *gorm.DB, start, end time.Time, assigneeID string) ([]AssigneePeriodStats, error) {
	q := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Select("assignee_id, COUNT(*) AS assigned, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed",
			domain.LeadStatusCompleted).
		Where("assigned_at >= ? AND assigned_at < ?", start, end)
	if assigneeID != "" {
		q = q.Where("assignee_id = ?", assigneeID)
	}

	var out []AssigneePeriodStats
	err := q.Group("assignee_id").
		Order("assignee_id ASC").
		Scan(&out).Error
	return out, err
}

// AssignedCount returns the number of leads currently assigned to assigneeID.
func AssignedCount(ctx context.Context, db *gorm.DB, assigneeID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("assignee_id = ?", assigneeID).
		Count(&total).Error
	return total, err
}
