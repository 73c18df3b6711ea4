// Package services: LeadService
//
// This file implements lead intake and listing. The CSV importer parses rows
// externally and calls the intake endpoint per lead; this service normalizes
// the text fields, persists the row unassigned, and exposes paginated
// listings and manual status/memo edits. Assignment fields are never mutated
// here; only the bulk allocator touches them.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/normalize"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// LeadService provides lead intake and read operations.
type LeadService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// Create inserts a new unassigned lead in PENDING status. Store name is
// required; all text fields are width-folded and whitespace-normalized
// before persistence.
func (s *LeadService) Create(ctx context.Context, storeName, prefecture, genre, memo string) (*domain.Lead, error) {
	storeName = normalize.Field(storeName)
	if storeName == "" {
		return nil, ErrEmptyContent
	}
	return repo.CreateLead(ctx, s.DB,
		storeName,
		normalize.Prefecture(prefecture),
		normalize.Field(genre),
		strings.TrimSpace(memo),
	)
}

// ListPage returns a page of leads matching the filter and the total count.
// Invalid page/pageSize values fall back to defaults.
func (s *LeadService) ListPage(ctx context.Context, filter repo.LeadFilter, page, pageSize int) ([]domain.Lead, int64, error) {
	if filter.Status != "" && !domain.ValidLeadStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountLeads(ctx, s.DB, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Lead{}, 0, nil
	}

	items, err := repo.ListLeadsPage(ctx, s.DB, filter, offset, pageSize)
	return items, total, err
}

// UpdateStatus applies a manual status (and optional memo) edit to a lead.
// The assignment invariant is untouched: assignee_id and assigned_at are not
// writable through this path.
func (s *LeadService) UpdateStatus(ctx context.Context, leadID, status string, memo *string) error {
	if !domain.ValidLeadStatus(status) {
		return ErrInvalidStatus
	}
	err := repo.UpdateLeadStatus(ctx, s.DB, leadID, status, memo)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrLeadNotFound
	}
	return err
}
