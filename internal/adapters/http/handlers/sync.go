package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotevault/quotesync/internal/adapters/http/dto"
	"github.com/quotevault/quotesync/internal/app"
)

// SyncHandler exposes manual sync triggering and sync status.
type SyncHandler struct {
	scheduler *app.SyncScheduler
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(scheduler *app.SyncScheduler) *SyncHandler {
	return &SyncHandler{scheduler: scheduler}
}

// TriggerSync handles POST /api/v1/sync.
// Runs one reconcile cycle immediately. Returns 409 when a cycle is
// already in flight; ticks and manual triggers share the same guard.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	result, err := h.scheduler.TriggerNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, app.ErrSyncInFlight) {
			resp := dto.NewErrorResponse(dto.ErrorCodeConflict, err.Error())
			resp.TraceID = dto.GetTraceID(c)
			c.JSON(http.StatusConflict, resp)

			return
		}

		dto.HandleError(c, err)

		return
	}

	c.JSON(http.StatusOK, result)
}

// SyncStatus handles GET /api/v1/sync.
// Reports the most recent completed cycle.
func (h *SyncHandler) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.LastResult())
}

// RegisterSyncRoutes registers sync routes on the given router group.
func (h *SyncHandler) RegisterSyncRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync", h.TriggerSync)
	rg.GET("/sync", h.SyncStatus)
}
