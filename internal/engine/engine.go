// Package engine implements the geofence evaluation engine: the pure
// per-ping decision function that turns (trip, ping, pickups, geofences,
// config) into an ordered list of effects for the trip coordinator to
// apply atomically. No Store, Notifier, or EventBus calls happen here —
// every external fact the evaluation needs (e.g. whether OFFICE_REACHED
// has already been recorded) is passed in, which keeps this package
// trivially unit-testable against table-driven fixtures.
package engine

import (
	"time"

	"github.com/fleetops/geoguard/internal/geometry"
	"github.com/fleetops/geoguard/internal/models"
)

// Config tunes the office-arrival defences.
type Config struct {
	DwellTimeSeconds  int
	SpeedThresholdKmh float64
}

// DefaultConfig matches spec defaults: 30s dwell, 5.0 km/h speed gate.
func DefaultConfig() Config {
	return Config{DwellTimeSeconds: 30, SpeedThresholdKmh: 5.0}
}

// Ping is one GPS sample to evaluate against a trip's geofences.
type Ping struct {
	VehicleID string
	TripID    string
	Lat       float64
	Lon       float64
	Speed     float64
	Timestamp time.Time
}

// Effect is one atomic mutation or side-effect request the coordinator
// must apply, in the order Evaluate returns them.
type Effect interface{ isEffect() }

type MarkPickupArrived struct{ PickupID string }
type EmitEvent struct {
	Kind     string
	Lat, Lon float64
}
type SetOfficeEntry struct{ Time *time.Time }
type CompleteTrip struct {
	EndTime         time.Time
	DurationMinutes int
}
type NotifyPickup struct {
	PickupID, PickupName string
	Lat, Lon             float64
}
type NotifyCompletion struct{}
type PublishGeofence struct{ Kind string }

func (MarkPickupArrived) isEffect() {}
func (EmitEvent) isEffect()         {}
func (SetOfficeEntry) isEffect()    {}
func (CompleteTrip) isEffect()      {}
func (NotifyPickup) isEffect()      {}
func (NotifyCompletion) isEffect()  {}
func (PublishGeofence) isEffect()   {}

// Evaluate runs the full per-ping decision: pickup evaluation, then office
// evaluation. now is the server clock at evaluation time (never the
// device timestamp on ping — see the open question in DESIGN.md).
// officeReachedExists reports whether an OFFICE_REACHED event has already
// been recorded for this trip, the secondary idempotency guard step 8
// needs but cannot compute itself without touching Store.
func Evaluate(trip *models.Trip, ping Ping, pickups []*models.PickupPoint, geofences []*models.OfficeGeofence, cfg Config, now time.Time, officeReachedExists bool) []Effect {
	var effects []Effect

	point := geometry.Point{Lat: ping.Lat, Lon: ping.Lon}

	effects = append(effects, evaluatePickups(point, pickups)...)
	effects = append(effects, evaluateOffice(trip, ping, point, pickups, geofences, cfg, now, officeReachedExists)...)

	return effects
}

func evaluatePickups(point geometry.Point, pickups []*models.PickupPoint) []Effect {
	var effects []Effect
	for _, p := range pickups {
		if p.Status != models.PickupPending {
			continue
		}
		centre := geometry.Point{Lat: p.CentreLat, Lon: p.CentreLon}
		if !geometry.InsideCircle(point, centre, p.RadiusMeters) {
			continue
		}
		effects = append(effects,
			MarkPickupArrived{PickupID: p.ID},
			EmitEvent{Kind: models.EventPickupArrived, Lat: point.Lat, Lon: point.Lon},
			NotifyPickup{PickupID: p.ID, PickupName: p.Name, Lat: point.Lat, Lon: point.Lon},
			PublishGeofence{Kind: models.EventPickupArrived},
		)
	}
	return effects
}

// officeContains finds the first geofence containing point, by slice
// order — see the "single vs many office geofences" open question:
// first-match, no uniqueness assumed.
func officeContains(point geometry.Point, geofences []*models.OfficeGeofence) bool {
	for _, g := range geofences {
		centre := geometry.Point{Lat: g.CentreLat, Lon: g.CentreLon}
		switch g.Shape {
		case models.ShapePolygon:
			vertices := make([]geometry.Point, len(g.Polygon))
			for i, v := range g.Polygon {
				vertices[i] = geometry.Point{Lat: v.Lat, Lon: v.Lon}
			}
			if geometry.InsidePolygon(point, vertices) {
				return true
			}
		default:
			if geometry.InsideCircle(point, centre, g.RadiusMeters) {
				return true
			}
		}
	}
	return false
}

func evaluateOffice(trip *models.Trip, ping Ping, point geometry.Point, pickups []*models.PickupPoint, geofences []*models.OfficeGeofence, cfg Config, now time.Time, officeReachedExists bool) []Effect {
	inside := officeContains(point, geofences)

	// 1. Drift reset.
	if !inside && trip.OfficeEntryTime != nil && trip.Status == models.TripInProgress {
		return []Effect{
			SetOfficeEntry{Time: nil},
			EmitEvent{Kind: models.EventGeofenceExit, Lat: point.Lat, Lon: point.Lon},
		}
	}

	// 2. Outside with no prior entry: nothing to do.
	if !inside {
		return nil
	}

	// 3. Terminal idempotency.
	if trip.Status != models.TripInProgress {
		return nil
	}

	// 4. Dwell anchor.
	if trip.OfficeEntryTime == nil {
		entry := now
		return []Effect{SetOfficeEntry{Time: &entry}}
	}

	// 5. Dwell check.
	dwell := now.Sub(*trip.OfficeEntryTime)
	if dwell < time.Duration(cfg.DwellTimeSeconds)*time.Second {
		return nil
	}

	// 6. Drive-through defence: strict >= blocks closure.
	if ping.Speed >= cfg.SpeedThresholdKmh {
		return nil
	}

	// 7. Multi-stop gating.
	for _, p := range pickups {
		if p.Status != models.PickupArrived {
			return []Effect{EmitEvent{Kind: models.EventClosureBlockedPendingPickups, Lat: point.Lat, Lon: point.Lon}}
		}
	}

	// 8. Secondary idempotency guard.
	if officeReachedExists {
		return nil
	}

	// 9. Close.
	durationMinutes := int(now.Sub(*trip.StartTime).Minutes())
	return []Effect{
		EmitEvent{Kind: models.EventOfficeReached, Lat: point.Lat, Lon: point.Lon},
		CompleteTrip{EndTime: now, DurationMinutes: durationMinutes},
		EmitEvent{Kind: models.EventTripCompleted, Lat: point.Lat, Lon: point.Lon},
		NotifyCompletion{},
		PublishGeofence{Kind: models.EventTripCompleted},
	}
}

// EvaluateManualClosure implements §4.6's manual-closure path: it is not
// folded into Evaluate because it is triggered by AdminAPI, not a ping,
// and always closes the trip regardless of dwell/speed/multi-stop state.
func EvaluateManualClosure(point geometry.Point, geofences []*models.OfficeGeofence, now, startTime time.Time) []Effect {
	durationMinutes := int(now.Sub(startTime).Minutes())
	complete := CompleteTrip{EndTime: now, DurationMinutes: durationMinutes}

	if officeContains(point, geofences) {
		return []Effect{
			EmitEvent{Kind: models.EventManualClosure, Lat: point.Lat, Lon: point.Lon},
			SetOfficeEntry{Time: nil},
			complete,
		}
	}
	return []Effect{
		EmitEvent{Kind: models.EventManualClosureOutsideGeofence, Lat: point.Lat, Lon: point.Lon},
		EmitEvent{Kind: models.EventAdminAlert, Lat: point.Lat, Lon: point.Lon},
		SetOfficeEntry{Time: nil},
		complete,
	}
}
