// Package services: StatsService
//
// This file implements the progress aggregator consumed by dashboards. It is
// a pure read over the lead table: no locks, no writes, safe to run
// concurrently with the allocators.
package services

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AssigneeProgress is one dashboard row for a representative and period.
type AssigneeProgress struct {
	AssigneeID string `json:"assignee_id"`
	Assigned   int64  `json:"assigned"`
	Completed  int64  `json:"completed"`
	// ProgressPct is round(100 * Completed / Assigned); 0 when nothing was
	// assigned in the period.
	ProgressPct int `json:"progress_pct"`
}

// StatsService computes per-assignee assignment progress.
type StatsService struct {
	// DB is the database handle used for all aggregate reads.
	DB *gorm.DB
}

// WeeklyProgress returns per-assignee progress for leads assigned within
// [start, end). When assigneeID is non-empty the report is scoped to that
// representative.
//
// Completion is attributed to the period of assignment, not the period the
// status changed in. A lead assigned in week 1 and completed in week 2 counts
// toward week 1's completion rate; this mirrors how the dashboard has always
// read the numbers and is preserved deliberately.
func (s *StatsService) WeeklyProgress(ctx context.Context, start, end time.Time, assigneeID string) ([]AssigneeProgress, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "WeeklyProgress",
		trace.WithAttributes(
			attribute.String("period.start", start.Format(time.RFC3339)),
			attribute.String("period.end", end.Format(time.RFC3339)),
		),
	)
	defer span.End()

	if !end.After(start) {
		return nil, ErrInvalidPeriod
	}

	rows, err := repo.AssignmentStats(ctx, s.DB, start, end, assigneeID)
	if err != nil {
		return nil, err
	}

	out := make([]AssigneeProgress, 0, len(rows))
	for _, r := range rows {
		p := AssigneeProgress{
			AssigneeID: r.AssigneeID,
			Assigned:   r.Assigned,
			Completed:  r.Completed,
		}
		if r.Assigned > 0 {
			p.ProgressPct = int(math.Round(100 * float64(r.Completed) / float64(r.Assigned)))
		}
		out = append(out, p)
	}
	return out, nil
}
