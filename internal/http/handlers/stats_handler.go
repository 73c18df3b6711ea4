// Progress-report HTTP handlers.
//
// This file exposes the read-only endpoint behind the weekly dashboard:
//   - GET /progress  (per-assignee assigned/completed counts for a period)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/services"
	"github.com/tbourn/go-crm-backend/internal/utils"
)

// ProgressResponse wraps the per-assignee progress rows for a period.
type ProgressResponse struct {
	Items []services.AssigneeProgress `json:"items"`
}

// WeeklyProgress godoc
// @ID          weeklyProgress
// @Summary     Per-assignee assignment progress
// @Description Returns assigned and completed lead counts per representative for leads assigned within [start, end). Completion is attributed to the period of assignment.
// @Tags        Progress
// @Produce     json
//
// @Param       start        query  string  true   "Period start (RFC 3339 or YYYY-MM-DD)"  example(2025-06-02)
// @Param       end          query  string  true   "Period end, exclusive"                  example(2025-06-09)
// @Param       assignee_id  query  string  false  "Scope to one representative"
//
// @Success     200  {object}  handlers.ProgressResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or malformed period"
// @Router      /progress [get]
func (h *Handlers) WeeklyProgress(c *gin.Context) {
	start, okStart := utils.ParseDate(c.Query("start"))
	end, okEnd := utils.ParseDate(c.Query("end"))
	if !okStart || !okEnd {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "start and end must be RFC 3339 or YYYY-MM-DD")
		return
	}

	items, err := h.statsSvc.WeeklyProgress(c.Request.Context(), start, end, c.Query("assignee_id"))
	if err != nil {
		if err == services.ErrInvalidPeriod {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ProgressResponse{Items: items})
}
