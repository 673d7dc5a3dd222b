// Package store is the durable persistence layer: trips, pickups,
// geofences, location logs, and the append-only event log, with the
// row-level locking that makes per-trip mutation safe under concurrency.
package store

import (
	"context"
	"time"

	"github.com/fleetops/geoguard/internal/models"
)

// Store exposes typed operations per entity, context-first, mirroring the
// shape of a repository interface. Every write path that mutates more than
// one row runs inside RunInTx.
type Store interface {
	// RunInTx runs fn inside a single transaction; fn receives a Store bound
	// to that transaction so nested calls stay inside the same commit.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	// LoadTripForUpdate acquires a row-level exclusive lock on the trip
	// until the enclosing transaction commits. This is the serialization
	// point for per-trip mutation; it must be called inside RunInTx.
	LoadTripForUpdate(ctx context.Context, tripID string) (*models.Trip, error)
	CreateTrip(ctx context.Context, trip *models.Trip) error
	UpdateTrip(ctx context.Context, trip *models.Trip) error
	FindTripByID(ctx context.Context, tripID string) (*models.Trip, error)

	PickupsForTrip(ctx context.Context, tripID string) ([]*models.PickupPoint, error)
	UpdatePickup(ctx context.Context, pickup *models.PickupPoint) error
	ResetPickupsForTrip(ctx context.Context, tripID string) error

	// SaveEvent is insert-only; it stamps CreatedAt on insert and never
	// updates.
	SaveEvent(ctx context.Context, event *models.EventLog) error
	ExistsEvent(ctx context.Context, tripID, kind string) (bool, error)
	EventsByTrip(ctx context.Context, tripID string) ([]*models.EventLog, error)
	EventsByVehicle(ctx context.Context, vehicleID string) ([]*models.EventLog, error)
	EventsByTimeRange(ctx context.Context, from, to time.Time) ([]*models.EventLog, error)
	DeleteEventsForTrip(ctx context.Context, tripID string) error

	// AppendLocation is insert-only.
	AppendLocation(ctx context.Context, log *models.LocationLog) error
	LatestLocation(ctx context.Context, tripID string) (*models.LocationLog, error)
	DeleteLocationsForTrip(ctx context.Context, tripID string) error

	GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error)
	UpdateVehicleLocation(ctx context.Context, vehicleID string, lat, lon float64, at time.Time) error
	DriverForVehicle(ctx context.Context, vehicleID string) (*models.Driver, error)
	AllVehicles(ctx context.Context) ([]*models.Vehicle, error)

	CreateGeofence(ctx context.Context, g *models.OfficeGeofence) error
	UpdateGeofence(ctx context.Context, g *models.OfficeGeofence) error
	DeleteGeofence(ctx context.Context, id string) error
	FindGeofenceByID(ctx context.Context, id string) (*models.OfficeGeofence, error)
	AllGeofences(ctx context.Context) ([]*models.OfficeGeofence, error)

	AllTripIDs(ctx context.Context) ([]string, error)
	AllTrips(ctx context.Context) ([]*models.Trip, error)
}
