package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// seedAssigned inserts a lead claimed by assignee at assignedAt with status.
func seedAssigned(t *testing.T, db *gorm.DB, id, assignee, status string, assignedAt time.Time) {
	t.Helper()
	l := &domain.Lead{
		ID:         id,
		StoreName:  "store-" + id,
		Status:     status,
		AssigneeID: &assignee,
		AssignedAt: &assignedAt,
		CreatedAt:  assignedAt.Add(-time.Hour),
	}
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("seed assigned lead: %v", err)
	}
}

func TestWeeklyProgress_Percentage(t *testing.T) {
	db := newTestDB(t)
	svc := &StatsService{DB: db}
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	// 10 assigned this week, 4 of them completed: 40%.
	for i := 0; i < 10; i++ {
		status := domain.LeadStatusInProgress
		if i < 4 {
			status = domain.LeadStatusCompleted
		}
		seedAssigned(t, db, fmt.Sprintf("w%02d", i), "rep-a", status, start.Add(time.Duration(i)*time.Hour))
	}

	rows, err := svc.WeeklyProgress(context.Background(), start, end, "")
	if err != nil {
		t.Fatalf("WeeklyProgress: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.Assigned != 10 || r.Completed != 4 || r.ProgressPct != 40 {
		t.Fatalf("row = %+v, want assigned=10 completed=4 pct=40", r)
	}
}

func TestWeeklyProgress_Rounding(t *testing.T) {
	db := newTestDB(t)
	svc := &StatsService{DB: db}
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	// 1 of 3 completed: 33.33… rounds to 33.
	seedAssigned(t, db, "r1", "rep-a", domain.LeadStatusCompleted, start.Add(time.Hour))
	seedAssigned(t, db, "r2", "rep-a", domain.LeadStatusInProgress, start.Add(time.Hour))
	seedAssigned(t, db, "r3", "rep-a", domain.LeadStatusInProgress, start.Add(time.Hour))
	// 2 of 3 completed: 66.66… rounds to 67.
	seedAssigned(t, db, "r4", "rep-b", domain.LeadStatusCompleted, start.Add(time.Hour))
	seedAssigned(t, db, "r5", "rep-b", domain.LeadStatusCompleted, start.Add(time.Hour))
	seedAssigned(t, db, "r6", "rep-b", domain.LeadStatusInProgress, start.Add(time.Hour))

	rows, err := svc.WeeklyProgress(context.Background(), start, end, "")
	if err != nil {
		t.Fatalf("WeeklyProgress: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].AssigneeID != "rep-a" || rows[0].ProgressPct != 33 {
		t.Fatalf("rep-a pct = %d, want 33", rows[0].ProgressPct)
	}
	if rows[1].AssigneeID != "rep-b" || rows[1].ProgressPct != 67 {
		t.Fatalf("rep-b pct = %d, want 67", rows[1].ProgressPct)
	}
}

func TestWeeklyProgress_AttributionToAssignmentWeek(t *testing.T) {
	db := newTestDB(t)
	svc := &StatsService{DB: db}
	week1 := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	week2 := week1.AddDate(0, 0, 7)
	week3 := week2.AddDate(0, 0, 7)

	// Assigned in week 1, completed sometime later. The completion belongs to
	// week 1's report and never to week 2's.
	seedAssigned(t, db, "x1", "rep-a", domain.LeadStatusCompleted, week1.Add(time.Hour))

	w1, err := svc.WeeklyProgress(context.Background(), week1, week2, "")
	if err != nil {
		t.Fatalf("week 1: %v", err)
	}
	if len(w1) != 1 || w1[0].Completed != 1 {
		t.Fatalf("week 1 rows = %+v", w1)
	}

	w2, err := svc.WeeklyProgress(context.Background(), week2, week3, "")
	if err != nil {
		t.Fatalf("week 2: %v", err)
	}
	if len(w2) != 0 {
		t.Fatalf("week 2 rows = %+v, want none", w2)
	}
}

func TestWeeklyProgress_InvalidPeriod(t *testing.T) {
	db := newTestDB(t)
	svc := &StatsService{DB: db}
	at := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	if _, err := svc.WeeklyProgress(context.Background(), at, at, ""); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("start==end: expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := svc.WeeklyProgress(context.Background(), at, at.Add(-time.Hour), ""); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("end<start: expected ErrInvalidPeriod, got %v", err)
	}
}

func TestWeeklyProgress_ScopedAssignee(t *testing.T) {
	db := newTestDB(t)
	svc := &StatsService{DB: db}
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	seedAssigned(t, db, "s1", "rep-a", domain.LeadStatusInProgress, start.Add(time.Hour))
	seedAssigned(t, db, "s2", "rep-b", domain.LeadStatusCompleted, start.Add(time.Hour))

	rows, err := svc.WeeklyProgress(context.Background(), start, end, "rep-b")
	if err != nil {
		t.Fatalf("WeeklyProgress: %v", err)
	}
	if len(rows) != 1 || rows[0].AssigneeID != "rep-b" || rows[0].ProgressPct != 100 {
		t.Fatalf("scoped rows = %+v", rows)
	}
}
