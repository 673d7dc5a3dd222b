package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fleetops/geoguard/internal/middleware"
	apperrors "github.com/fleetops/geoguard/pkg/errors"
)

// Handler wires Service onto gin routes.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts AdminAPI's read routes onto group with no auth guard.
// Mutating routes are registered separately via RegisterGuarded.
func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("/geofences", h.ListGeofences)
	group.GET("/geofences/:id", h.GetGeofence)
	group.GET("/dashboard/data", h.GetDashboardData)
}

// RegisterGuarded mounts AdminAPI's mutating routes onto group. Callers are
// expected to have already attached an admin-auth middleware to group.
func (h *Handler) RegisterGuarded(group *gin.RouterGroup) {
	group.POST("/geofences", h.CreateGeofence)
	group.PUT("/geofences/:id", h.UpdateGeofence)
	group.DELETE("/geofences/:id", h.DeleteGeofence)

	group.POST("/trip/:id/manual-close", h.ManualClose)
	group.POST("/dashboard/start-trip/:id", h.StartTrip)
	group.POST("/dashboard/reset", h.ResetAll)
}

// CreateGeofence handles POST /geofences.
func (h *Handler) CreateGeofence(c *gin.Context) {
	var in CreateGeofenceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.AbortWithBadRequest(c, err.Error())
		return
	}

	g, err := h.svc.CreateGeofence(c.Request.Context(), in)
	if err != nil {
		middleware.AbortWithError(c, apperrors.GetAppError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"geofence": g})
}

// UpdateGeofence handles PUT /geofences/:id.
func (h *Handler) UpdateGeofence(c *gin.Context) {
	id := c.Param("id")
	var in CreateGeofenceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.AbortWithBadRequest(c, err.Error())
		return
	}

	g, err := h.svc.UpdateGeofence(c.Request.Context(), id, in)
	if err != nil {
		middleware.AbortWithError(c, apperrors.GetAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"geofence": g})
}

// DeleteGeofence handles DELETE /geofences/:id.
func (h *Handler) DeleteGeofence(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.DeleteGeofence(c.Request.Context(), id); err != nil {
		middleware.AbortWithError(c, apperrors.GetAppError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// GetGeofence handles GET /geofences/:id.
func (h *Handler) GetGeofence(c *gin.Context) {
	id := c.Param("id")
	g, err := h.svc.GetGeofence(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, apperrors.GetAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"geofence": g})
}

// ListGeofences handles GET /geofences.
func (h *Handler) ListGeofences(c *gin.Context) {
	geofences, err := h.svc.ListGeofences(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, apperrors.GetAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"geofences": geofences})
}

// manualCloseRequest is the body for POST /trip/:id/manual-close.
type manualCloseRequest struct {
	Lat    float64 `json:"lat" binding:"required"`
	Lon    float64 `json:"lon" binding:"required"`
	Reason string  `json:"reason" binding:"required"`
}

// ManualClose handles POST /trip/:id/manual-close.
func (h *Handler) ManualClose(c *gin.Context) {
	tripID := c.Param("id")
	var req manualCloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBadRequest(c, err.Error())
		return
	}

	trip, err := h.svc.ManualClose(c.Request.Context(), tripID, req.Lat, req.Lon, req.Reason)
	if err != nil {
		middleware.AbortWithError(c, apperrors.GetAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// StartTrip handles POST /dashboard/start-trip/:id.
func (h *Handler) StartTrip(c *gin.Context) {
	tripID := c.Param("id")
	trip, err := h.svc.StartTrip(c.Request.Context(), tripID)
	if err != nil {
		middleware.AbortWithError(c, apperrors.GetAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// ResetAll handles POST /dashboard/reset.
func (h *Handler) ResetAll(c *gin.Context) {
	if err := h.svc.ResetAll(c.Request.Context()); err != nil {
		middleware.AbortWithError(c, apperrors.GetAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reset complete"})
}

// GetDashboardData handles GET /dashboard/data.
func (h *Handler) GetDashboardData(c *gin.Context) {
	data, err := h.svc.DashboardData(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, apperrors.GetAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
