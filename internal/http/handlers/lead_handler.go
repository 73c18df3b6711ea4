// Lead HTTP handlers.
//
// This file exposes the REST endpoints for lead resources:
//   - POST  /leads       (intake; the external CSV importer calls this per row)
//   - GET   /leads       (list, paginated, filterable)
//   - PATCH /leads/{id}  (manual status/memo edit)
//
// Assignment fields are not writable here; only the bulk allocator mutates
// assignee_id and assigned_at.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
	"github.com/tbourn/go-crm-backend/internal/services"
	"github.com/tbourn/go-crm-backend/internal/utils"
)

//
// DTOs
//

// CreateLeadRequest is the JSON payload for lead intake.
type CreateLeadRequest struct {
	StoreName  string `json:"store_name" binding:"required,min=1,max=255" example:"喫茶アトリエ"`
	Prefecture string `json:"prefecture,omitempty" example:"東京都"`
	Genre      string `json:"genre,omitempty" example:"cafe"`
	Memo       string `json:"memo,omitempty"`
}

// UpdateLeadRequest is the JSON payload for a manual lead edit.
type UpdateLeadRequest struct {
	Status string  `json:"status" binding:"required" example:"COMPLETED"`
	Memo   *string `json:"memo,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListLeadsResponse wraps a page of leads and pagination information.
type ListLeadsResponse struct {
	Leads      []domain.Lead `json:"leads"`
	Pagination Pagination    `json:"pagination"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// CreateLead godoc
// @ID          createLead
// @Summary     Create a lead
// @Description Inserts a new unassigned lead in PENDING status. Text fields are width-folded and whitespace-normalized before persistence.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateLeadRequest  true  "Lead payload"
//
// @Success     201  {object}  domain.Lead
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /leads [post]
func (h *Handlers) CreateLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "store_name required (1-255 chars)")
		return
	}

	lead, err := h.leadSvc.Create(c.Request.Context(), req.StoreName, req.Prefecture, req.Genre, req.Memo)
	if err != nil {
		if err == services.ErrEmptyContent {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "store_name must not be blank")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, lead)
}

// ListLeads godoc
// @ID          listLeads
// @Summary     List leads (paginated)
// @Description Returns a page of leads ordered oldest first (the same order the allocator claims in), optionally filtered by prefecture, genre, and status.
// @Tags        Leads
// @Produce     json
//
// @Param       prefecture  query  string  false "Filter by prefecture"
// @Param       genre       query  string  false "Filter by genre"
// @Param       status      query  string  false "Filter by status"  Enums(PENDING, IN_PROGRESS, COMPLETED, NO_SITE, NO_FORM, ETC)
// @Param       page        query  int     false "Page number"       minimum(1) default(1)
// @Param       page_size   query  int     false "Items per page"    minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListLeadsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown status filter"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /leads [get]
func (h *Handlers) ListLeads(c *gin.Context) {
	page, pageSize := clampPagination(c)
	filter := repo.LeadFilter{
		Prefecture: c.Query("prefecture"),
		Genre:      c.Query("genre"),
		Status:     c.Query("status"),
	}

	items, total, err := h.leadSvc.ListPage(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		if err == services.ErrInvalidStatus {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListLeadsResponse{
		Leads: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// UpdateLead godoc
// @ID          updateLead
// @Summary     Edit a lead's status or memo
// @Description Applies a manual status/memo edit. Assignment fields cannot be changed through this endpoint.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Lead ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateLeadRequest  true  "Edit payload"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown status"
// @Failure     404  {object}  handlers.ErrorResponse  "Lead not found"
// @Router      /leads/{id} [patch]
func (h *Handlers) UpdateLead(c *gin.Context) {
	leadID := c.Param("id")
	if _, err := uuid.Parse(leadID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lead id must be a UUID")
		return
	}

	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}

	if err := h.leadSvc.UpdateStatus(c.Request.Context(), leadID, req.Status, req.Memo); err != nil {
		switch err {
		case services.ErrInvalidStatus:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case services.ErrLeadNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "lead not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
