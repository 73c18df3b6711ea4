// Assignment HTTP handlers.
//
// This file exposes the REST endpoint for bulk lead assignment:
//   - POST /assignments  (claim up to N unassigned leads for a representative)
//
// It also carries the shared Handlers wiring and the caller-identity helper
// used by every endpoint in this package. Handlers are transport-thin: they
// validate input, call application services, and translate results into HTTP
// responses.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/http/middleware"
	"github.com/tbourn/go-crm-backend/internal/repo"
	"github.com/tbourn/go-crm-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AssignmentService defines the bulk allocator operation consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context for cancellation and timeouts.
type AssignmentService interface {
	// Assign atomically claims up to count unassigned leads for assigneeID.
	Assign(ctx context.Context, assigneeID string, count int, filter repo.LeadFilter) (*services.AssignmentResult, error)
}

// HistoryService defines the contact-history operations consumed by HTTP
// handlers.
type HistoryService interface {
	// Add appends one history entry with the next round for an entity.
	Add(ctx context.Context, callerID, entityType, entityID, content string, contactDate *time.Time) (*domain.HistoryEntry, error)
	// AddBulk fans the same content out to many entities, one reservation each.
	AddBulk(ctx context.Context, callerID, entityType string, entityIDs []string, content string, contactDate *time.Time) ([]services.BulkEntryResult, error)
	// List returns an entity's history, newest round first.
	List(ctx context.Context, entityType, entityID string) ([]domain.HistoryEntry, error)
	// Delete removes one entry, leaving a gap in the round sequence.
	Delete(ctx context.Context, callerID, entityType, entityID string, round int) error
}

// StatsService defines the progress aggregation consumed by HTTP handlers.
type StatsService interface {
	// WeeklyProgress returns per-assignee progress for [start, end).
	WeeklyProgress(ctx context.Context, start, end time.Time, assigneeID string) ([]services.AssigneeProgress, error)
}

// LeadService defines lead intake and read operations consumed by HTTP
// handlers.
type LeadService interface {
	// Create inserts a new unassigned lead.
	Create(ctx context.Context, storeName, prefecture, genre, memo string) (*domain.Lead, error)
	// ListPage returns a page of leads matching the filter and the total count.
	ListPage(ctx context.Context, filter repo.LeadFilter, page, pageSize int) ([]domain.Lead, int64, error)
	// UpdateStatus applies a manual status/memo edit.
	UpdateStatus(ctx context.Context, leadID, status string, memo *string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for assignments, history, leads,
// representatives, and progress reports. It depends on abstract service
// interfaces to keep transport concerns separate from business logic; the DB
// handle is used only for idempotency-replay lookups and the representative
// registry.
type Handlers struct {
	assignSvc  AssignmentService
	historySvc HistoryService
	statsSvc   StatsService
	leadSvc    LeadService

	db      *gorm.DB
	idemTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(db *gorm.DB, assignSvc AssignmentService, historySvc HistoryService, statsSvc StatsService, leadSvc LeadService, idemTTL time.Duration) *Handlers {
	return &Handlers{
		assignSvc:  assignSvc,
		historySvc: historySvc,
		statsSvc:   statsSvc,
		leadSvc:    leadSvc,
		db:         db,
		idemTTL:    idemTTL,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// AssignRequest is the JSON payload for a bulk assignment.
type AssignRequest struct {
	// AssigneeID names the representative receiving the batch.
	AssigneeID string `json:"assignee_id" binding:"required" example:"5d0b6f4e-9c3a-4f8e-9a21-6a1f0e3d2c1b"`
	// Count is how many leads to claim (1-1000).
	Count int `json:"count" binding:"required" example:"250"`
	// Prefecture optionally narrows the assignable pool.
	Prefecture string `json:"prefecture,omitempty" example:"東京都"`
	// Genre optionally narrows the assignable pool.
	Genre string `json:"genre,omitempty" example:"restaurant"`
}

// AssignResponse reports the outcome of a bulk assignment. AssignedCount can
// be lower than the requested count when the pool runs short; that is success,
// not failure, and Message explains the shortfall.
type AssignResponse struct {
	Success       bool     `json:"success"`
	AssignedCount int      `json:"assigned_count"`
	AssignedIDs   []string `json:"assigned_ids,omitempty"`
	Message       string   `json:"message,omitempty"`
}

//
// Handlers
//

// Assign godoc
// @ID          bulkAssign
// @Summary     Bulk-assign leads to a representative
// @Description Atomically claims up to `count` unassigned leads (optionally filtered) for the given representative. Fewer leads than requested is reported, not failed. Supports Idempotency-Key for safe retries.
// @Tags        Assignments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Safe-retry key"
// @Param       body             body    handlers.AssignRequest  true  "Assignment payload"
//
// @Success     201  {object}  handlers.AssignResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Count out of range"
// @Failure     404  {object}  handlers.ErrorResponse  "Assignee not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Claim conflict after retries"
// @Failure     504  {object}  handlers.ErrorResponse  "Lock wait timed out"
// @Router      /assignments [post]
func (h *Handlers) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)

	// Serve a stored result instead of claiming a second batch on retry.
	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey && middleware.IsReplay(c) {
		if rec, err := repo.GetAssignmentKey(ctx, h.db, uid, key, time.Now().UTC()); err == nil {
			ok(c, http.StatusOK, AssignResponse{
				Success:       true,
				AssignedCount: rec.AssignedCount,
				Message:       "replayed previous assignment",
			})
			return
		}
	}

	res, err := h.assignSvc.Assign(ctx, req.AssigneeID, req.Count, repo.LeadFilter{
		Prefecture: req.Prefecture,
		Genre:      req.Genre,
	})
	if err != nil {
		switch err {
		case services.ErrCountOutOfRange:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case services.ErrAssigneeNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		case services.ErrAssignConflict:
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		case services.ErrLockTimeout:
			fail(c, http.StatusGatewayTimeout, ErrCodeTimeout, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAssignFailed, err.Error())
		}
		return
	}

	// Best effort: record the key so a retried request replays this result.
	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey {
		_, _ = repo.CreateAssignmentKey(ctx, h.db, uid, key, req.AssigneeID, res.AssignedCount, h.idemTTL)
	}

	resp := AssignResponse{
		Success:       true,
		AssignedCount: res.AssignedCount,
		AssignedIDs:   res.AssignedIDs,
	}
	if res.AssignedCount < req.Count {
		resp.Message = fmt.Sprintf("%d of %d leads assigned, pool exhausted", res.AssignedCount, req.Count)
	}
	ok(c, http.StatusCreated, resp)
}
