// Package storetest provides an in-memory fake of store.Store for unit
// tests that exercise the trip coordinator and ingress dispatcher without a
// database. Spec.md §9 calls this out explicitly: "Tests inject a fake
// Store."
package storetest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/fleetops/geoguard/pkg/errors"

	"github.com/fleetops/geoguard/internal/models"
	"github.com/fleetops/geoguard/internal/store"
)

// Fake is an in-memory Store. It is safe for concurrent use: data access
// takes a single mutex, and LoadTripForUpdate additionally acquires a
// per-trip lock held for the lifetime of the enclosing RunInTx call,
// reproducing the serialization property SELECT ... FOR UPDATE gives the
// real store — two concurrent transactions against the same trip are
// totally ordered by lock acquisition, not just by individual method call.
type Fake struct {
	mu sync.Mutex

	vehicles  map[string]*models.Vehicle
	drivers   map[string]*models.Driver
	geofences map[string]*models.OfficeGeofence
	trips     map[string]*models.Trip
	pickups   map[string]*models.PickupPoint
	locations []*models.LocationLog
	events    []*models.EventLog

	locksMu   sync.Mutex
	tripLocks map[string]*sync.Mutex

	// SaveEventErr, when non-nil, is returned by SaveEvent instead of
	// succeeding — used to exercise the AUDIT_BEST_EFFORT policy.
	SaveEventErr error
}

type txLockHolderKey struct{}

// txLockHolder carries the per-trip lock a LoadTripForUpdate call within
// this transaction acquired, so RunInTx knows what to release once fn
// returns.
type txLockHolder struct{ mu *sync.Mutex }

func (f *Fake) tripMutex(tripID string) *sync.Mutex {
	f.locksMu.Lock()
	defer f.locksMu.Unlock()
	if f.tripLocks == nil {
		f.tripLocks = make(map[string]*sync.Mutex)
	}
	m, ok := f.tripLocks[tripID]
	if !ok {
		m = &sync.Mutex{}
		f.tripLocks[tripID] = m
	}
	return m
}

var _ store.Store = (*Fake)(nil)

// New creates an empty fake store.
func New() *Fake {
	return &Fake{
		vehicles:  map[string]*models.Vehicle{},
		drivers:   map[string]*models.Driver{},
		geofences: map[string]*models.OfficeGeofence{},
		trips:     map[string]*models.Trip{},
		pickups:   map[string]*models.PickupPoint{},
	}
}

// RunInTx runs fn against the same fake. The fake has no partial-rollback
// semantics: a returned error simply leaves whatever mutations already ran
// in place, which is sufficient for testing commit-path behavior since the
// coordinator's own logic decides what to do with the error. Any per-trip
// lock a LoadTripForUpdate call acquired during fn is released once fn
// returns, not before — the transaction-lifetime hold the real FOR UPDATE
// lock gives.
func (f *Fake) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	holder := &txLockHolder{}
	ctx = context.WithValue(ctx, txLockHolderKey{}, holder)
	err := fn(ctx, f)
	if holder.mu != nil {
		holder.mu.Unlock()
	}
	return err
}

func (f *Fake) LoadTripForUpdate(ctx context.Context, tripID string) (*models.Trip, error) {
	tripMu := f.tripMutex(tripID)
	tripMu.Lock()
	if holder, ok := ctx.Value(txLockHolderKey{}).(*txLockHolder); ok {
		holder.mu = tripMu
	} else {
		// Called outside RunInTx: there is no commit to hold the lock
		// until, so release immediately rather than leak it.
		defer tripMu.Unlock()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok {
		return nil, apperrors.NewNotFoundError("trip")
	}
	cp := *t
	return &cp, nil
}

func (f *Fake) CreateTrip(ctx context.Context, trip *models.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if trip.ID == "" {
		trip.ID = newID()
	}
	cp := *trip
	f.trips[trip.ID] = &cp
	return nil
}

func (f *Fake) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.trips[trip.ID]; !ok {
		return apperrors.NewNotFoundError("trip")
	}
	cp := *trip
	f.trips[trip.ID] = &cp
	return nil
}

func (f *Fake) FindTripByID(ctx context.Context, tripID string) (*models.Trip, error) {
	return f.LoadTripForUpdate(ctx, tripID)
}

func (f *Fake) PickupsForTrip(ctx context.Context, tripID string) ([]*models.PickupPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PickupPoint
	for _, p := range f.pickups {
		if p.TripID == tripID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Fake) UpdatePickup(ctx context.Context, pickup *models.PickupPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pickup.ID == "" {
		pickup.ID = newID()
	}
	cp := *pickup
	f.pickups[pickup.ID] = &cp
	return nil
}

func (f *Fake) ResetPickupsForTrip(ctx context.Context, tripID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pickups {
		if p.TripID == tripID {
			p.Status = models.PickupPending
		}
	}
	return nil
}

func (f *Fake) SaveEvent(ctx context.Context, event *models.EventLog) error {
	if f.SaveEventErr != nil {
		return f.SaveEventErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if event.ID == "" {
		event.ID = newID()
	}
	event.CreatedAt = time.Now()
	cp := *event
	f.events = append(f.events, &cp)
	return nil
}

func (f *Fake) ExistsEvent(ctx context.Context, tripID, kind string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.TripID == tripID && e.EventType == kind {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) EventsByTrip(ctx context.Context, tripID string) ([]*models.EventLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.EventLog
	for _, e := range f.events {
		if e.TripID == tripID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Fake) EventsByVehicle(ctx context.Context, vehicleID string) ([]*models.EventLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.EventLog
	for i := len(f.events) - 1; i >= 0; i-- {
		e := f.events[i]
		if e.VehicleID == vehicleID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Fake) EventsByTimeRange(ctx context.Context, from, to time.Time) ([]*models.EventLog, error) {
	if from.After(to) {
		return nil, apperrors.NewInvalidArgumentError("from must not be after to")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.EventLog
	for _, e := range f.events {
		if !e.EventTimestamp.Before(from) && !e.EventTimestamp.After(to) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *Fake) DeleteEventsForTrip(ctx context.Context, tripID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.events[:0]
	for _, e := range f.events {
		if e.TripID != tripID {
			kept = append(kept, e)
		}
	}
	f.events = kept
	return nil
}

func (f *Fake) AppendLocation(ctx context.Context, log *models.LocationLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if log.ID == "" {
		log.ID = newID()
	}
	cp := *log
	f.locations = append(f.locations, &cp)
	return nil
}

func (f *Fake) LatestLocation(ctx context.Context, tripID string) (*models.LocationLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.LocationLog
	for _, l := range f.locations {
		if l.TripID != tripID {
			continue
		}
		if latest == nil || l.Timestamp.After(latest.Timestamp) {
			latest = l
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *Fake) DeleteLocationsForTrip(ctx context.Context, tripID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.locations[:0]
	for _, l := range f.locations {
		if l.TripID != tripID {
			kept = append(kept, l)
		}
	}
	f.locations = kept
	return nil
}

func (f *Fake) GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[vehicleID]
	if !ok {
		return nil, apperrors.NewNotFoundError("vehicle")
	}
	cp := *v
	return &cp, nil
}

func (f *Fake) UpdateVehicleLocation(ctx context.Context, vehicleID string, lat, lon float64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[vehicleID]
	if !ok {
		return apperrors.NewNotFoundError("vehicle")
	}
	v.LastKnownLat = lat
	v.LastKnownLon = lon
	v.LastUpdatedAt = &at
	return nil
}

func (f *Fake) DriverForVehicle(ctx context.Context, vehicleID string) (*models.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.drivers {
		if d.AssignedVehicleID != nil && *d.AssignedVehicleID == vehicleID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *Fake) CreateGeofence(ctx context.Context, g *models.OfficeGeofence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.ID == "" {
		g.ID = newID()
	}
	cp := *g
	f.geofences[g.ID] = &cp
	return nil
}

func (f *Fake) UpdateGeofence(ctx context.Context, g *models.OfficeGeofence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.geofences[g.ID]; !ok {
		return apperrors.NewNotFoundError("geofence")
	}
	cp := *g
	f.geofences[g.ID] = &cp
	return nil
}

func (f *Fake) DeleteGeofence(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.geofences, id)
	return nil
}

func (f *Fake) FindGeofenceByID(ctx context.Context, id string) (*models.OfficeGeofence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.geofences[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("geofence")
	}
	cp := *g
	return &cp, nil
}

func (f *Fake) AllGeofences(ctx context.Context) ([]*models.OfficeGeofence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.OfficeGeofence
	for _, g := range f.geofences {
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

func (f *Fake) AllTripIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.trips {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *Fake) AllTrips(ctx context.Context) ([]*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Trip
	for _, t := range f.trips {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (f *Fake) AllVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Vehicle
	for _, v := range f.vehicles {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

// Seeding helpers for tests, not part of the store.Store interface.

func (f *Fake) SeedVehicle(v *models.Vehicle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v.ID == "" {
		v.ID = newID()
	}
	f.vehicles[v.ID] = v
}

func (f *Fake) SeedDriver(d *models.Driver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == "" {
		d.ID = newID()
	}
	f.drivers[d.ID] = d
}

func (f *Fake) SeedGeofence(g *models.OfficeGeofence) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.ID == "" {
		g.ID = newID()
	}
	f.geofences[g.ID] = g
}

func (f *Fake) SeedTrip(t *models.Trip) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	f.trips[t.ID] = t
}

func (f *Fake) SeedPickup(p *models.PickupPoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	f.pickups[p.ID] = p
}

func newID() string {
	return uuid.New().String()
}
