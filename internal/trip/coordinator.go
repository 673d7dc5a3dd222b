// Package trip orchestrates a single ping end-to-end: acquire the
// per-trip lock, persist the location, run the geofence engine, apply its
// effects atomically, then fire notifications and bus publishes outside
// the transaction. It owns the trip lifecycle state machine's mutation
// path (start, auto-close via engine effects, manual-close, reset).
package trip

import (
	"context"
	"time"

	"github.com/fleetops/geoguard/internal/engine"
	"github.com/fleetops/geoguard/internal/eventbus"
	"github.com/fleetops/geoguard/internal/geometry"
	"github.com/fleetops/geoguard/internal/logging"
	"github.com/fleetops/geoguard/internal/models"
	"github.com/fleetops/geoguard/internal/notifier"
	"github.com/fleetops/geoguard/internal/store"
	apperrors "github.com/fleetops/geoguard/pkg/errors"
)

// StaticData is the subset of cache.StaticDataProvider the coordinator
// needs: the cached office geofence list and the cached vehicle/driver
// lookup used to stamp vehicleReg onto egress payloads (spec §4.3, §4.5).
type StaticData interface {
	Geofences(ctx context.Context) ([]*models.OfficeGeofence, error)
	VehicleAndDriver(ctx context.Context, vehicleID string) (*models.Vehicle, *models.Driver, error)
}

// Coordinator processes pings and admin-triggered trip transitions.
type Coordinator struct {
	store      store.Store
	staticData StaticData
	notifier   notifier.Notifier
	bus        *eventbus.Hub
	log        *logging.Logger
	cfg        engine.Config
}

// New creates a Coordinator. cfg is copied, not referenced, so callers may
// safely reuse a DefaultConfig() value across Coordinators.
func New(st store.Store, staticData StaticData, notif notifier.Notifier, bus *eventbus.Hub, log *logging.Logger, cfg engine.Config) *Coordinator {
	return &Coordinator{store: st, staticData: staticData, notifier: notif, bus: bus, log: log, cfg: cfg}
}

// vehicleReg looks up a vehicle's registration number through the static
// cache, the same lookup path sendToDriver uses for driver phone numbers.
// A lookup failure is logged and swallowed — a missing registration number
// degrades the egress payload, it must never fail ingestion.
func (c *Coordinator) vehicleReg(ctx context.Context, vehicleID string) string {
	vehicle, _, err := c.staticData.VehicleAndDriver(ctx, vehicleID)
	if err != nil || vehicle == nil {
		if err != nil {
			c.log.LogError(err, "vehicle lookup failed, omitting vehicleReg", map[string]interface{}{"vehicle_id": vehicleID})
		}
		return ""
	}
	return vehicle.RegistrationNumber
}

// postCommitEffect is any engine.Effect that must run after the
// transaction commits — Notifier calls and EventBus publishes.
type postCommitEffect = engine.Effect

// ProcessPing implements §4.7's nine-step algorithm.
func (c *Coordinator) ProcessPing(ctx context.Context, ping engine.Ping) (*models.Trip, error) {
	prevLocation, err := c.store.LatestLocation(ctx, ping.TripID)
	if err != nil {
		return nil, err
	}

	var (
		finalTrip  *models.Trip
		deferred   []postCommitEffect
	)

	err = c.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		trip, err := tx.LoadTripForUpdate(ctx, ping.TripID)
		if err != nil {
			return err
		}

		locationLog := &models.LocationLog{
			VehicleID: ping.VehicleID,
			TripID:    ping.TripID,
			Lat:       ping.Lat,
			Lon:       ping.Lon,
			Speed:     ping.Speed,
			Timestamp: ping.Timestamp,
		}
		if err := tx.AppendLocation(ctx, locationLog); err != nil {
			return err
		}
		if err := tx.UpdateVehicleLocation(ctx, ping.VehicleID, ping.Lat, ping.Lon, ping.Timestamp); err != nil {
			return err
		}

		if prevLocation != nil {
			prev := geometry.Point{Lat: prevLocation.Lat, Lon: prevLocation.Lon}
			curr := geometry.Point{Lat: ping.Lat, Lon: ping.Lon}
			trip.TotalDistanceKm += geometry.DistanceMetres(prev, curr) / 1000.0
		}

		pickups, err := tx.PickupsForTrip(ctx, ping.TripID)
		if err != nil {
			return err
		}

		geofences, err := c.staticData.Geofences(ctx)
		if err != nil {
			return err
		}

		officeReachedExists, err := tx.ExistsEvent(ctx, ping.TripID, models.EventOfficeReached)
		if err != nil {
			return err
		}

		now := time.Now()
		effects := engine.Evaluate(trip, ping, pickups, geofences, c.cfg, now, officeReachedExists)

		deferred = c.applyEffects(ctx, tx, trip, pickups, now, effects)

		if err := tx.UpdateTrip(ctx, trip); err != nil {
			return err
		}

		finalTrip = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.runDeferredEffects(ctx, finalTrip, ping.Lat, ping.Lon, deferred)
	c.publishLocationUpdate(ctx, finalTrip, ping)

	return finalTrip, nil
}

// applyEffects mutates trip and pickups in-memory and persists the
// audit/pickup side of each effect, in order. Event-log write failures
// are logged and swallowed per the AUDIT_BEST_EFFORT policy (§7): they
// must never roll back the trip mutation. It returns the subset of
// effects that have to run after commit.
func (c *Coordinator) applyEffects(ctx context.Context, tx store.Store, trip *models.Trip, pickups []*models.PickupPoint, now time.Time, effects []engine.Effect) []postCommitEffect {
	var deferred []postCommitEffect

	byID := make(map[string]*models.PickupPoint, len(pickups))
	for _, p := range pickups {
		byID[p.ID] = p
	}

	for _, eff := range effects {
		switch e := eff.(type) {
		case engine.MarkPickupArrived:
			p, ok := byID[e.PickupID]
			if !ok {
				continue
			}
			p.Status = models.PickupArrived
			if err := tx.UpdatePickup(ctx, p); err != nil {
				c.log.LogError(err, "failed to persist pickup arrival", map[string]interface{}{"pickup_id": e.PickupID})
			}

		case engine.EmitEvent:
			event := &models.EventLog{
				VehicleID:      trip.VehicleID,
				TripID:         trip.ID,
				EventType:      e.Kind,
				Lat:            e.Lat,
				Lon:            e.Lon,
				EventTimestamp: now,
			}
			if err := tx.SaveEvent(ctx, event); err != nil {
				c.log.LogError(err, "audit event write failed, continuing (AUDIT_BEST_EFFORT)", map[string]interface{}{
					"trip_id": trip.ID, "event_type": e.Kind,
				})
			} else {
				c.log.LogGeofenceEvent(e.Kind, trip.ID, trip.VehicleID, e.Lat, e.Lon)
			}

		case engine.SetOfficeEntry:
			trip.OfficeEntryTime = e.Time

		case engine.CompleteTrip:
			from := trip.Status
			trip.Status = models.TripCompleted
			endTime := e.EndTime
			trip.EndTime = &endTime
			duration := e.DurationMinutes
			trip.DurationMinutes = &duration
			trip.OfficeEntryTime = nil
			c.log.LogTripTransition(trip.ID, from, models.TripCompleted)

		case engine.NotifyPickup, engine.NotifyCompletion, engine.PublishGeofence:
			deferred = append(deferred, eff)
		}
	}

	return deferred
}

// runDeferredEffects fires the Notifier calls and geofence-events
// publishes an effect list deferred from applyEffects. It never touches
// the location-updates topic — that publish only makes sense after an
// actual ping, so ProcessPing fires it separately via
// publishLocationUpdate.
func (c *Coordinator) runDeferredEffects(ctx context.Context, trip *models.Trip, lat, lon float64, deferred []postCommitEffect) {
	for _, eff := range deferred {
		switch e := eff.(type) {
		case engine.NotifyPickup:
			if err := c.notifier.PickupArrival(ctx, trip.ID, trip.VehicleID, e.PickupName); err != nil {
				c.log.LogError(err, "notifier pickup arrival failed (NOTIFIER_FAILURE, swallowed)", map[string]interface{}{"trip_id": trip.ID})
			}
		case engine.NotifyCompletion:
			if err := c.notifier.TripCompletion(ctx, trip.ID, trip.VehicleID); err != nil {
				c.log.LogError(err, "notifier trip completion failed (NOTIFIER_FAILURE, swallowed)", map[string]interface{}{"trip_id": trip.ID})
			}
		case engine.PublishGeofence:
			c.bus.Publish(ctx, eventbus.TopicGeofenceEvents, e.Kind, map[string]interface{}{
				"trip_id":     trip.ID,
				"vehicle_id":  trip.VehicleID,
				"vehicle_reg": c.vehicleReg(ctx, trip.VehicleID),
				"lat":         lat,
				"lon":         lon,
			})
		}
	}
}

func (c *Coordinator) publishLocationUpdate(ctx context.Context, trip *models.Trip, ping engine.Ping) {
	c.bus.Publish(ctx, eventbus.TopicLocationUpdates, "LOCATION_UPDATE", map[string]interface{}{
		"trip_id":           trip.ID,
		"vehicle_id":        trip.VehicleID,
		"vehicle_reg":       c.vehicleReg(ctx, trip.VehicleID),
		"lat":               ping.Lat,
		"lon":               ping.Lon,
		"speed":             ping.Speed,
		"timestamp":         ping.Timestamp,
		"trip_status":       trip.Status,
		"total_distance_km": trip.TotalDistanceKm,
	})
}

// ManualClose implements §4.6's manual-closure path, invoked by AdminAPI.
func (c *Coordinator) ManualClose(ctx context.Context, tripID string, lat, lon float64, reason string) (*models.Trip, error) {
	var (
		finalTrip *models.Trip
		deferred  []postCommitEffect
	)

	err := c.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		trip, err := tx.LoadTripForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.Status != models.TripInProgress {
			return apperrors.NewAlreadyTerminalError("trip is not in progress")
		}

		geofences, err := c.staticData.Geofences(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		point := geometry.Point{Lat: lat, Lon: lon}
		effects := engine.EvaluateManualClosure(point, geofences, now, *trip.StartTime)

		pickups, err := tx.PickupsForTrip(ctx, tripID)
		if err != nil {
			return err
		}
		deferred = c.applyEffects(ctx, tx, trip, pickups, now, effects)

		outsideAlert := false
		for _, e := range effects {
			if ee, ok := e.(engine.EmitEvent); ok && ee.Kind == models.EventAdminAlert {
				outsideAlert = true
			}
		}
		if outsideAlert {
			deferred = append(deferred, adminAlertEffect{reason: reason})
		}

		if err := tx.UpdateTrip(ctx, trip); err != nil {
			return err
		}
		finalTrip = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	var rest []postCommitEffect
	for _, eff := range deferred {
		if a, ok := eff.(adminAlertEffect); ok {
			if err := c.notifier.AdminAlert(ctx, finalTrip.ID, finalTrip.VehicleID, a.reason); err != nil {
				c.log.LogError(err, "notifier admin alert failed (NOTIFIER_FAILURE, swallowed)", map[string]interface{}{"trip_id": finalTrip.ID})
			}
			continue
		}
		rest = append(rest, eff)
	}
	c.runDeferredEffects(ctx, finalTrip, lat, lon, rest)

	return finalTrip, nil
}

// adminAlertEffect threads the manual-closure reason through the deferred
// post-commit list; it is not a GeofenceEngine effect because the reason
// string is an AdminAPI input, not something the engine computes.
type adminAlertEffect struct{ reason string }

func (adminAlertEffect) isEffect() {}

// StartTrip transitions a PENDING trip to IN_PROGRESS.
func (c *Coordinator) StartTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	var finalTrip *models.Trip
	err := c.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		trip, err := tx.LoadTripForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.Status != models.TripPending {
			return apperrors.NewValidationError("trip is not in PENDING status")
		}
		now := time.Now()
		trip.Status = models.TripInProgress
		trip.StartTime = &now
		trip.EndTime = nil
		trip.DurationMinutes = nil
		trip.OfficeEntryTime = nil
		if err := tx.UpdateTrip(ctx, trip); err != nil {
			return err
		}
		finalTrip = trip
		c.log.LogTripTransition(trip.ID, models.TripPending, models.TripInProgress)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.bus.Publish(ctx, eventbus.TopicGeofenceEvents, "TRIP_STARTED", map[string]interface{}{"trip_id": finalTrip.ID})
	return finalTrip, nil
}

// Reset implements §4.10's admin reset for a single trip: deletes owning
// location and event logs, clears derived fields, resets pickups to
// PENDING, and publishes TRIP_RESET. Static-cache eviction is the
// caller's responsibility (it spans all trips, not just this one).
func (c *Coordinator) Reset(ctx context.Context, tripID string) error {
	err := c.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		trip, err := tx.LoadTripForUpdate(ctx, tripID)
		if err != nil {
			return err
		}

		if err := tx.DeleteLocationsForTrip(ctx, tripID); err != nil {
			return err
		}
		if err := tx.DeleteEventsForTrip(ctx, tripID); err != nil {
			return err
		}
		if err := tx.ResetPickupsForTrip(ctx, tripID); err != nil {
			return err
		}

		trip.Status = models.TripPending
		trip.StartTime = nil
		trip.EndTime = nil
		trip.DurationMinutes = nil
		trip.OfficeEntryTime = nil
		trip.TotalDistanceKm = 0
		return tx.UpdateTrip(ctx, trip)
	})
	if err != nil {
		return err
	}

	c.bus.Publish(ctx, eventbus.TopicGeofenceEvents, "TRIP_RESET", map[string]interface{}{"trip_id": tripID})
	return nil
}
