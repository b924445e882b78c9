package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetState returns the full persisted state document: per-coin trends,
// last alert stamps, and the last daily report date.
func (h *Handler) GetState(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-state")
	defer span.End()

	doc := h.store.Load(c.Request.Context())
	c.JSON(http.StatusOK, doc)
}

// GetRecentEvents returns the events recorded by recent runs, newest first.
func (h *Handler) GetRecentEvents(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-recent-events")
	defer span.End()

	events := h.events.Recent()
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

// GetReport computes an on-demand daily report from fresh market data.
func (h *Handler) GetReport(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-report")
	defer span.End()

	rows := h.reports.BuildReport(c.Request.Context())
	if len(rows) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no market data available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}
