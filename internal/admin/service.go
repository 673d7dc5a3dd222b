// Package admin implements AdminAPI: geofence CRUD, manual trip closure,
// trip start, and reset, plus the gin handlers exposing them. Handler
// idiom is grounded on internal/common/geofencing/api.go; CRUD validation
// follows the same file's bind-then-validate shape.
package admin

import (
	"context"

	"github.com/fleetops/geoguard/internal/cache"
	"github.com/fleetops/geoguard/internal/models"
	"github.com/fleetops/geoguard/internal/store"
	"github.com/fleetops/geoguard/internal/trip"
	apperrors "github.com/fleetops/geoguard/pkg/errors"
)

// Service implements the non-HTTP half of AdminAPI: geofence CRUD backed
// by store.Store with cache invalidation, and trip lifecycle operations
// delegated to trip.Coordinator.
type Service struct {
	store       store.Store
	cache       *cache.StaticDataProvider
	coordinator *trip.Coordinator
}

// New creates a Service.
func New(st store.Store, c *cache.StaticDataProvider, coordinator *trip.Coordinator) *Service {
	return &Service{store: st, cache: c, coordinator: coordinator}
}

// CreateGeofenceInput is the validated request body for CreateGeofence.
type CreateGeofenceInput struct {
	Name         string           `json:"name" binding:"required"`
	Shape        string           `json:"shape" binding:"required,oneof=CIRCULAR POLYGON"`
	CentreLat    float64          `json:"centre_lat"`
	CentreLon    float64          `json:"centre_lon"`
	RadiusMeters float64          `json:"radius_meters"`
	Polygon      []models.Vertex  `json:"polygon"`
}

// Validate enforces §3's shape invariants: a circular geofence needs a
// positive radius, a polygon needs at least three vertices.
func (in CreateGeofenceInput) Validate() error {
	switch in.Shape {
	case models.ShapeCircular:
		if in.RadiusMeters <= 0 {
			return apperrors.NewValidationError("radius_meters must be positive for a circular geofence")
		}
	case models.ShapePolygon:
		if len(in.Polygon) < 3 {
			return apperrors.NewValidationError("polygon must have at least three vertices")
		}
	default:
		return apperrors.NewValidationError("shape must be CIRCULAR or POLYGON")
	}
	return nil
}

// CreateGeofence validates and persists a new geofence, then invalidates
// the cached geofence list so the next engine evaluation sees it.
func (s *Service) CreateGeofence(ctx context.Context, in CreateGeofenceInput) (*models.OfficeGeofence, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	g := &models.OfficeGeofence{
		Name:         in.Name,
		Shape:        in.Shape,
		CentreLat:    in.CentreLat,
		CentreLon:    in.CentreLon,
		RadiusMeters: in.RadiusMeters,
		Polygon:      in.Polygon,
	}
	if err := s.store.CreateGeofence(ctx, g); err != nil {
		return nil, err
	}
	s.cache.InvalidateGeofences(ctx)
	return g, nil
}

// UpdateGeofence validates and overwrites an existing geofence by id.
func (s *Service) UpdateGeofence(ctx context.Context, id string, in CreateGeofenceInput) (*models.OfficeGeofence, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.store.FindGeofenceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = in.Name
	existing.Shape = in.Shape
	existing.CentreLat = in.CentreLat
	existing.CentreLon = in.CentreLon
	existing.RadiusMeters = in.RadiusMeters
	existing.Polygon = in.Polygon
	if err := s.store.UpdateGeofence(ctx, existing); err != nil {
		return nil, err
	}
	s.cache.InvalidateGeofences(ctx)
	return existing, nil
}

// DeleteGeofence removes a geofence by id and invalidates the cache.
func (s *Service) DeleteGeofence(ctx context.Context, id string) error {
	if err := s.store.DeleteGeofence(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateGeofences(ctx)
	return nil
}

// GetGeofence returns a single geofence by id.
func (s *Service) GetGeofence(ctx context.Context, id string) (*models.OfficeGeofence, error) {
	return s.store.FindGeofenceByID(ctx, id)
}

// ListGeofences returns every configured geofence.
func (s *Service) ListGeofences(ctx context.Context) ([]*models.OfficeGeofence, error) {
	return s.store.AllGeofences(ctx)
}

// ManualClose delegates to trip.Coordinator.ManualClose.
func (s *Service) ManualClose(ctx context.Context, tripID string, lat, lon float64, reason string) (*models.Trip, error) {
	return s.coordinator.ManualClose(ctx, tripID, lat, lon, reason)
}

// StartTrip delegates to trip.Coordinator.StartTrip.
func (s *Service) StartTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	return s.coordinator.StartTrip(ctx, tripID)
}

// ResetAll resets every trip in the system and evicts the full static
// cache (vehicle/driver lookups may have gone stale along with trip
// state). Used by the dashboard's "reset demo data" operation.
func (s *Service) ResetAll(ctx context.Context) error {
	tripIDs, err := s.store.AllTripIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range tripIDs {
		if err := s.coordinator.Reset(ctx, id); err != nil {
			return err
		}
	}
	s.cache.EvictAll(ctx)
	return nil
}

// DashboardData is the aggregate GET /dashboard/data payload: every
// vehicle alongside its current trip, if any.
type DashboardData struct {
	Vehicles []VehicleSummary `json:"vehicles"`
}

// VehicleSummary pairs a vehicle with its most recent trip.
type VehicleSummary struct {
	Vehicle *models.Vehicle `json:"vehicle"`
	Trip    *models.Trip    `json:"trip,omitempty"`
}

// DashboardData builds the fleet-wide snapshot the dashboard polls:
// every vehicle, each paired with its most recently created trip.
func (s *Service) DashboardData(ctx context.Context) (*DashboardData, error) {
	vehicles, err := s.store.AllVehicles(ctx)
	if err != nil {
		return nil, err
	}
	trips, err := s.store.AllTrips(ctx)
	if err != nil {
		return nil, err
	}

	latestTripByVehicle := make(map[string]*models.Trip, len(trips))
	for _, t := range trips {
		current, ok := latestTripByVehicle[t.VehicleID]
		if !ok || t.CreatedAt.After(current.CreatedAt) {
			latestTripByVehicle[t.VehicleID] = t
		}
	}

	summaries := make([]VehicleSummary, 0, len(vehicles))
	for _, v := range vehicles {
		summaries = append(summaries, VehicleSummary{Vehicle: v, Trip: latestTripByVehicle[v.ID]})
	}
	return &DashboardData{Vehicles: summaries}, nil
}
