// Contact-history HTTP handlers.
//
// This file exposes the REST endpoints for round-numbered history entries:
//   - POST   /entities/{type}/{id}/history          (append with next round)
//   - GET    /entities/{type}/{id}/history          (list, newest first)
//   - DELETE /entities/{type}/{id}/history/{round}  (delete, leaves a gap)
//   - POST   /history/bulk                          (same content, many entities)
//
// The round number in the create payload is advisory only (optimistic UI
// rendering); the allocator is the source of truth and the response carries
// the authoritative round.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/http/middleware"
	"github.com/tbourn/go-crm-backend/internal/services"
	"github.com/tbourn/go-crm-backend/internal/utils"
)

// AddHistoryRequest is the JSON payload for appending a history entry.
type AddHistoryRequest struct {
	// Content is the contact note; must be non-blank.
	Content string `json:"content" binding:"required" example:"Called, asked to follow up next week"`
	// ContactDate optionally records when the contact happened (RFC 3339).
	ContactDate *time.Time `json:"contact_date,omitempty"`
	// Round is a client-side hint for optimistic rendering. It is never
	// trusted; the server allocates the real round.
	Round *int `json:"round,omitempty" example:"3"`
}

// BulkHistoryRequest is the JSON payload for recording the same contact
// against many entities at once. Each entity still gets its own round.
type BulkHistoryRequest struct {
	EntityType  string     `json:"entity_type" binding:"required" example:"sales_tracking"`
	IDs         []string   `json:"ids" binding:"required,min=1"`
	Content     string     `json:"content" binding:"required"`
	ContactDate *time.Time `json:"contact_date,omitempty"`
	// Round is advisory, as in AddHistoryRequest.
	Round *int `json:"round,omitempty"`
}

// BulkHistoryResponse wraps the per-entity outcomes of a bulk fan-out.
type BulkHistoryResponse struct {
	Results []services.BulkEntryResult `json:"results"`
}

// AddHistory godoc
// @ID          addHistory
// @Summary     Append a contact-history entry
// @Description Appends an entry with the next round number for the entity. Concurrent submissions never collide: the losing writer is retried server-side with a fresh round.
// @Tags        History
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       type       path    string  true  "Entity type"            Enums(sales_tracking, retargeting)
// @Param       id         path    string  true  "Entity ID (UUID)"       format(uuid)
// @Param       body       body    handlers.AddHistoryRequest  true  "History payload"
//
// @Success     201  {object}  domain.HistoryEntry
// @Failure     400  {object}  handlers.ErrorResponse  "Blank content or unknown entity type"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is neither owner nor admin"
// @Failure     404  {object}  handlers.ErrorResponse  "Entity not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Round conflict after retries"
// @Router      /entities/{type}/{id}/history [post]
func (h *Handlers) AddHistory(c *gin.Context) {
	var req AddHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	entityType := c.Param("type")
	entityID := c.Param("id")
	uid := userID(c)

	entry, err := h.historySvc.Add(c.Request.Context(), uid, entityType, entityID, req.Content, req.ContactDate)
	if err != nil {
		h.failHistory(c, err)
		return
	}

	// A stale hint is harmless; log it so the UI team can see drift.
	if req.Round != nil && *req.Round != entry.Round {
		middleware.LoggerFrom(c).Info().
			Int("hint", *req.Round).
			Int("round", entry.Round).
			Str("entity_id", entityID).
			Msg("stale round hint")
	}

	ok(c, http.StatusCreated, entry)
}

// AddHistoryBulk godoc
// @ID          addHistoryBulk
// @Summary     Record one contact against many entities
// @Description Fans the same content out to multiple entities. Each entity's round sequence is reserved independently; one entity failing does not abort the others.
// @Tags        History
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.BulkHistoryRequest  true  "Bulk payload"
//
// @Success     200  {object}  handlers.BulkHistoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Blank content or unknown entity type"
// @Router      /history/bulk [post]
func (h *Handlers) AddHistoryBulk(c *gin.Context) {
	var req BulkHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entity_type, ids and content required")
		return
	}

	results, err := h.historySvc.AddBulk(c.Request.Context(), userID(c), req.EntityType, req.IDs, req.Content, req.ContactDate)
	if err != nil {
		h.failHistory(c, err)
		return
	}
	ok(c, http.StatusOK, BulkHistoryResponse{Results: results})
}

// ListHistory godoc
// @ID          listHistory
// @Summary     List an entity's contact history
// @Description Returns all history entries for the entity, newest round first. Deleted rounds appear as gaps.
// @Tags        History
// @Produce     json
//
// @Param       type  path  string  true  "Entity type"       Enums(sales_tracking, retargeting)
// @Param       id    path  string  true  "Entity ID (UUID)"  format(uuid)
//
// @Success     200  {array}   domain.HistoryEntry
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown entity type"
// @Failure     404  {object}  handlers.ErrorResponse  "Entity not found"
// @Router      /entities/{type}/{id}/history [get]
func (h *Handlers) ListHistory(c *gin.Context) {
	entries, err := h.historySvc.List(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		h.failHistory(c, err)
		return
	}
	ok(c, http.StatusOK, entries)
}

// DeleteHistory godoc
// @ID          deleteHistory
// @Summary     Delete a history entry
// @Description Removes the entry at the given round. Remaining entries are not renumbered; the gap is deliberate so already-reported round numbers stay valid.
// @Tags        History
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       type       path    string  true  "Entity type"            Enums(sales_tracking, retargeting)
// @Param       id         path    string  true  "Entity ID (UUID)"       format(uuid)
// @Param       round      path    int     true  "Round number"           minimum(1)
//
// @Success     204  {string}  string "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is neither owner nor admin"
// @Failure     404  {object}  handlers.ErrorResponse  "Entity or round not found"
// @Router      /entities/{type}/{id}/history/{round} [delete]
func (h *Handlers) DeleteHistory(c *gin.Context) {
	round := utils.AtoiDefault(c.Param("round"), 0)
	if round < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "round must be a positive integer")
		return
	}

	err := h.historySvc.Delete(c.Request.Context(), userID(c), c.Param("type"), c.Param("id"), round)
	if err != nil {
		h.failHistory(c, err)
		return
	}
	noContent(c)
}

// failHistory maps history-service sentinels to HTTP results.
func (h *Handlers) failHistory(c *gin.Context, err error) {
	switch err {
	case services.ErrEmptyContent, services.ErrInvalidEntityType:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case services.ErrEntityNotFound, services.ErrHistoryNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case services.ErrForbiddenHistory:
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case services.ErrRoundConflict:
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case services.ErrLockTimeout:
		fail(c, http.StatusGatewayTimeout, ErrCodeTimeout, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
