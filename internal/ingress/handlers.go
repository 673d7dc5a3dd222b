package ingress

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fleetops/geoguard/internal/engine"
	"github.com/fleetops/geoguard/internal/middleware"
	apperrors "github.com/fleetops/geoguard/pkg/errors"
)

// Handler wires Dispatcher onto gin routes, bind-validate-call-respond in
// the same shape as internal/tracking/handler.go's ProcessGPSData.
type Handler struct {
	dispatcher *Dispatcher
}

// NewHandler creates a Handler.
func NewHandler(d *Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

// Register mounts the three ingestion routes onto group.
func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/update", h.Update)
	group.POST("/update/async", h.UpdateAsync)
	group.POST("/batch", h.Batch)
}

// pingRequest is the wire shape for a single GPS ping.
type pingRequest struct {
	VehicleID string    `json:"vehicle_id" binding:"required"`
	TripID    string    `json:"trip_id"`
	Lat       float64   `json:"lat" binding:"required"`
	Lon       float64   `json:"lon" binding:"required"`
	Speed     float64   `json:"speed_kmh"`
	Timestamp time.Time `json:"timestamp"`
}

func (r pingRequest) toPing() engine.Ping {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return engine.Ping{
		VehicleID: r.VehicleID,
		TripID:    r.TripID,
		Lat:       r.Lat,
		Lon:       r.Lon,
		Speed:     r.Speed,
		Timestamp: ts,
	}
}

type batchRequest struct {
	Pings []pingRequest `json:"pings" binding:"required"`
}

// Update processes one ping synchronously and returns the resulting trip
// state once the coordinator has committed its effects.
func (h *Handler) Update(c *gin.Context) {
	var req pingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBadRequest(c, "invalid ping payload")
		return
	}

	trip, err := h.dispatcher.Sync(c.Request.Context(), req.toPing())
	if err != nil {
		if appErr := apperrors.GetAppError(err); appErr != nil {
			middleware.AbortWithError(c, appErr)
		} else {
			middleware.AbortWithInternal(c, "failed to process ping", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": trip})
}

// UpdateAsync enqueues the ping and responds 202. When the queue is
// saturated the ping is run inline before the response, which is still 202.
func (h *Handler) UpdateAsync(c *gin.Context) {
	var req pingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBadRequest(c, "invalid ping payload")
		return
	}

	h.dispatcher.Async(c.Request.Context(), req.toPing())
	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "ping accepted"})
}

// Batch processes a chronologically-sorted batch of pings, isolating
// per-ping failures rather than aborting the whole batch.
func (h *Handler) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBadRequest(c, "invalid batch payload")
		return
	}

	pings := make([]engine.Ping, 0, len(req.Pings))
	for _, p := range req.Pings {
		pings = append(pings, p.toPing())
	}

	result, err := h.dispatcher.Batch(c.Request.Context(), pings)
	if err != nil {
		if appErr := apperrors.GetAppError(err); appErr != nil {
			middleware.AbortWithError(c, appErr)
		} else {
			middleware.AbortWithInternal(c, "failed to process batch", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
