// Representative HTTP handlers.
//
// Thin registry endpoints backing assignee validation and ownership checks:
//   - POST /representatives
//   - GET  /representatives
//
// These go straight to the repo layer; there is no business logic beyond
// role validation.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// CreateRepresentativeRequest is the JSON payload for registering a
// representative.
type CreateRepresentativeRequest struct {
	Name string `json:"name" binding:"required,min=1,max=128" example:"Tanaka"`
	Role string `json:"role,omitempty" binding:"omitempty,oneof=rep admin" example:"rep"`
}

// CreateRepresentative godoc
// @ID          createRepresentative
// @Summary     Register a representative
// @Tags        Representatives
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateRepresentativeRequest  true  "Representative payload"
//
// @Success     201  {object}  domain.Representative
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /representatives [post]
func (h *Handlers) CreateRepresentative(c *gin.Context) {
	var req CreateRepresentativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required; role must be rep or admin")
		return
	}

	rep, err := repo.CreateRepresentative(c.Request.Context(), h.db, req.Name, req.Role)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, rep)
}

// ListRepresentatives godoc
// @ID          listRepresentatives
// @Summary     List representatives
// @Tags        Representatives
// @Produce     json
//
// @Success     200  {array}   domain.Representative
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /representatives [get]
func (h *Handlers) ListRepresentatives(c *gin.Context) {
	reps, err := repo.ListRepresentatives(c.Request.Context(), h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if reps == nil {
		reps = []domain.Representative{}
	}
	ok(c, http.StatusOK, reps)
}
