// Tracked-entity HTTP handlers.
//
// Registry endpoints for the records whose contact history is round-numbered:
//   - POST /entities/{type}  (create a sales-tracking record or retargeting customer)
//   - GET  /entities/{type}/{id}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// CreateEntityRequest is the JSON payload for creating a tracked entity.
// The creator becomes the owner unless owner_user_id is set explicitly.
type CreateEntityRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255" example:"ACME retargeting"`
	OwnerUserID string `json:"owner_user_id,omitempty"`
}

// CreateEntity godoc
// @ID          createEntity
// @Summary     Create a tracked entity
// @Tags        Entities
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       type       path    string  true  "Entity type"  Enums(sales_tracking, retargeting)
// @Param       body       body    handlers.CreateEntityRequest  true  "Entity payload"
//
// @Success     201  {object}  domain.TrackedEntity
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown entity type"
// @Router      /entities/{type} [post]
func (h *Handlers) CreateEntity(c *gin.Context) {
	entityType := c.Param("type")
	if !domain.ValidEntityType(entityType) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown entity type")
		return
	}

	var req CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required (1-255 chars)")
		return
	}

	owner := req.OwnerUserID
	if owner == "" {
		owner = userID(c)
	}

	entity, err := repo.CreateTrackedEntity(c.Request.Context(), h.db, entityType, owner, req.Name)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, entity)
}

// GetEntity godoc
// @ID          getEntity
// @Summary     Fetch a tracked entity
// @Tags        Entities
// @Produce     json
//
// @Param       type  path  string  true  "Entity type"       Enums(sales_tracking, retargeting)
// @Param       id    path  string  true  "Entity ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.TrackedEntity
// @Failure     404  {object}  handlers.ErrorResponse  "Entity not found"
// @Router      /entities/{type}/{id} [get]
func (h *Handlers) GetEntity(c *gin.Context) {
	entityType := c.Param("type")
	if !domain.ValidEntityType(entityType) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown entity type")
		return
	}

	entity, err := repo.GetTrackedEntity(c.Request.Context(), h.db, entityType, c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entity not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, entity)
}
