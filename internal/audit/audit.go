// Package audit exposes read-only projections over the immutable event
// log: by trip, by vehicle, by time range. Query shape is grounded on
// internal/tracking/repository.go's GetDriverEvents/GetVehicleEvents.
package audit

import (
	"context"
	"time"

	"github.com/fleetops/geoguard/internal/models"
	"github.com/fleetops/geoguard/internal/store"
)

// Reader exposes the read-only event-log projections AuditAPI serves.
type Reader struct {
	store store.Store
}

// New creates a Reader.
func New(st store.Store) *Reader {
	return &Reader{store: st}
}

// ByTrip returns every event recorded for tripID, oldest first.
func (r *Reader) ByTrip(ctx context.Context, tripID string) ([]*models.EventLog, error) {
	return r.store.EventsByTrip(ctx, tripID)
}

// ByVehicle returns every event recorded for vehicleID across all of its
// trips, newest first.
func (r *Reader) ByVehicle(ctx context.Context, vehicleID string) ([]*models.EventLog, error) {
	return r.store.EventsByVehicle(ctx, vehicleID)
}

// ByTimeRange returns every event recorded between from and to
// (inclusive), regardless of trip or vehicle.
func (r *Reader) ByTimeRange(ctx context.Context, from, to time.Time) ([]*models.EventLog, error) {
	return r.store.EventsByTimeRange(ctx, from, to)
}
