package ingress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/geoguard/internal/engine"
	"github.com/fleetops/geoguard/internal/eventbus"
	"github.com/fleetops/geoguard/internal/logging"
	"github.com/fleetops/geoguard/internal/models"
	"github.com/fleetops/geoguard/internal/storetest"
	"github.com/fleetops/geoguard/internal/trip"
)

type directGeofenceSource struct{ fake *storetest.Fake }

func (d directGeofenceSource) Geofences(ctx context.Context) ([]*models.OfficeGeofence, error) {
	return d.fake.AllGeofences(ctx)
}

func (d directGeofenceSource) VehicleAndDriver(ctx context.Context, vehicleID string) (*models.Vehicle, *models.Driver, error) {
	vehicle, err := d.fake.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, nil, err
	}
	driver, err := d.fake.DriverForVehicle(ctx, vehicleID)
	if err != nil {
		return nil, nil, err
	}
	return vehicle, driver, nil
}

type stubNotifier struct{}

func (stubNotifier) PickupArrival(ctx context.Context, tripID, vehicleID, pickupName string) error {
	return nil
}
func (stubNotifier) TripCompletion(ctx context.Context, tripID, vehicleID string) error { return nil }
func (stubNotifier) AdminAlert(ctx context.Context, tripID, vehicleID, reason string) error {
	return nil
}

func seedTrip(t *testing.T) (*storetest.Fake, string, string) {
	t.Helper()
	fake := storetest.New()

	vehicle := &models.Vehicle{RegistrationNumber: "KA-01-HH-1234", Status: models.VehicleActive}
	fake.SeedVehicle(vehicle)

	office := &models.OfficeGeofence{Name: "HQ", CentreLat: 12.9716, CentreLon: 77.5946, RadiusMeters: 100, Shape: models.ShapeCircular}
	fake.SeedGeofence(office)

	start := time.Now().Add(-time.Hour)
	tr := &models.Trip{VehicleID: vehicle.ID, Status: models.TripInProgress, StartTime: &start}
	fake.SeedTrip(tr)

	return fake, tr.ID, vehicle.ID
}

func newTestDispatcher(fake *storetest.Fake) *Dispatcher {
	log := logging.New(nil)
	bus := eventbus.New(nil, nil, log)
	coord := trip.New(fake, directGeofenceSource{fake: fake}, stubNotifier{}, bus, log, engine.DefaultConfig())
	cfg := DefaultConfig()
	cfg.CoreWorkers = 2
	cfg.QueueSize = 4
	return New(coord, log, cfg)
}

func TestDispatcher_SyncProcessesPingImmediately(t *testing.T) {
	fake, tripID, vehicleID := seedTrip(t)
	d := newTestDispatcher(fake)
	defer d.Stop()

	trip, err := d.Sync(context.Background(), engine.Ping{
		VehicleID: vehicleID, TripID: tripID, Lat: 12.9716, Lon: 77.5946, Speed: 2, Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.NotNil(t, trip)
}

func TestDispatcher_AsyncProcessesEventually(t *testing.T) {
	fake, tripID, vehicleID := seedTrip(t)
	d := newTestDispatcher(fake)
	defer d.Stop()

	d.Async(context.Background(), engine.Ping{
		VehicleID: vehicleID, TripID: tripID, Lat: 12.9716, Lon: 77.5946, Speed: 2, Timestamp: time.Now(),
	})

	require.Eventually(t, func() bool {
		locs, err := fake.LatestLocation(context.Background(), tripID)
		return err == nil && locs != nil
	}, time.Second, 10*time.Millisecond)
}

func TestDispatcher_AsyncCallerRunsWhenQueueSaturated(t *testing.T) {
	fake, tripID, vehicleID := seedTrip(t)
	log := logging.New(nil)
	bus := eventbus.New(nil, nil, log)
	coord := trip.New(fake, directGeofenceSource{fake: fake}, stubNotifier{}, bus, log, engine.DefaultConfig())

	cfg := DefaultConfig()
	cfg.CoreWorkers = 0
	cfg.QueueSize = 0
	d := New(coord, log, cfg)
	defer d.Stop()

	d.Async(context.Background(), engine.Ping{
		VehicleID: vehicleID, TripID: tripID, Lat: 12.9716, Lon: 77.5946, Speed: 2, Timestamp: time.Now(),
	})

	loc, err := fake.LatestLocation(context.Background(), tripID)
	require.NoError(t, err)
	require.NotNil(t, loc)
}

func TestDispatcher_BatchRejectsEmpty(t *testing.T) {
	fake, _, _ := seedTrip(t)
	d := newTestDispatcher(fake)
	defer d.Stop()

	_, err := d.Batch(context.Background(), nil)
	assert.Error(t, err)
}

func TestDispatcher_BatchRejectsOversize(t *testing.T) {
	fake, tripID, vehicleID := seedTrip(t)
	d := newTestDispatcher(fake)
	defer d.Stop()

	cfg := d.cfg
	cfg.MaxBatchSize = 2
	d.cfg = cfg

	pings := make([]engine.Ping, 3)
	for i := range pings {
		pings[i] = engine.Ping{VehicleID: vehicleID, TripID: tripID, Lat: 12.9716, Lon: 77.5946, Timestamp: time.Now()}
	}

	_, err := d.Batch(context.Background(), pings)
	assert.Error(t, err)
}

func TestDispatcher_BatchReordersByTimestampAndContinuesOnFailure(t *testing.T) {
	fake, tripID, vehicleID := seedTrip(t)
	d := newTestDispatcher(fake)
	defer d.Stop()

	t0 := time.Now()
	pings := []engine.Ping{
		{VehicleID: vehicleID, TripID: tripID, Lat: 12.9520, Lon: 77.5750, Speed: 10, Timestamp: t0.Add(30 * time.Second)},
		{VehicleID: vehicleID, TripID: tripID, Lat: 12.9520, Lon: 77.5750, Speed: 10, Timestamp: t0.Add(5 * time.Second)},
		{VehicleID: "unknown-vehicle", TripID: "unknown-trip", Lat: 0, Lon: 0, Timestamp: t0.Add(10 * time.Second)},
	}

	result, err := d.Batch(context.Background(), pings)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
}

func TestDispatcher_StopDrainsWorkers(t *testing.T) {
	fake, tripID, vehicleID := seedTrip(t)
	d := newTestDispatcher(fake)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d.Async(context.Background(), engine.Ping{
				VehicleID: vehicleID, TripID: tripID, Lat: 12.9716, Lon: 77.5946, Speed: 2,
				Timestamp: time.Now().Add(time.Duration(n) * time.Millisecond),
			})
		}(i)
	}
	wg.Wait()

	d.Stop()
}
