package audit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fleetops/geoguard/internal/middleware"
)

// Handler wires Reader onto gin routes.
type Handler struct {
	reader *Reader
}

// NewHandler creates a Handler.
func NewHandler(r *Reader) *Handler {
	return &Handler{reader: r}
}

// Register mounts the three audit query routes onto group.
func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("/trip/:id", h.ByTrip)
	group.GET("/vehicle/:id", h.ByVehicle)
	group.GET("/events", h.ByTimeRange)
}

// ByTrip returns every event recorded for the trip in the :id path param.
func (h *Handler) ByTrip(c *gin.Context) {
	events, err := h.reader.ByTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithInternal(c, "failed to load trip events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": events})
}

// ByVehicle returns every event recorded for the vehicle in the :id path
// param, across all of its trips.
func (h *Handler) ByVehicle(c *gin.Context) {
	events, err := h.reader.ByVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithInternal(c, "failed to load vehicle events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": events})
}

// ByTimeRange returns every event recorded between the from/to query
// params (RFC3339), defaulting to the last 24 hours if omitted.
func (h *Handler) ByTimeRange(c *gin.Context) {
	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			middleware.AbortWithBadRequest(c, "invalid from timestamp, expected RFC3339")
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			middleware.AbortWithBadRequest(c, "invalid to timestamp, expected RFC3339")
			return
		}
		to = parsed
	}

	events, err := h.reader.ByTimeRange(c.Request.Context(), from, to)
	if err != nil {
		middleware.AbortWithInternal(c, "failed to load events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": events})
}
