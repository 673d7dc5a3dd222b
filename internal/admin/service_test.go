package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/geoguard/internal/cache"
	"github.com/fleetops/geoguard/internal/engine"
	"github.com/fleetops/geoguard/internal/eventbus"
	"github.com/fleetops/geoguard/internal/logging"
	"github.com/fleetops/geoguard/internal/models"
	"github.com/fleetops/geoguard/internal/storetest"
	"github.com/fleetops/geoguard/internal/trip"
)

type stubNotifier struct{}

func (stubNotifier) PickupArrival(ctx context.Context, tripID, vehicleID, pickupName string) error {
	return nil
}
func (stubNotifier) TripCompletion(ctx context.Context, tripID, vehicleID string) error { return nil }
func (stubNotifier) AdminAlert(ctx context.Context, tripID, vehicleID, reason string) error {
	return nil
}

func newTestService(fake *storetest.Fake) *Service {
	log := logging.New(nil)
	bus := eventbus.New(nil, nil, log)
	staticData := cache.NewWithStore(fake, nil)
	coord := trip.New(fake, staticData, stubNotifier{}, bus, log, engine.DefaultConfig())
	return New(fake, staticData, coord)
}

func TestService_CreateGeofence_RejectsInvalidCircular(t *testing.T) {
	fake := storetest.New()
	svc := newTestService(fake)

	_, err := svc.CreateGeofence(context.Background(), CreateGeofenceInput{
		Name: "HQ", Shape: models.ShapeCircular, RadiusMeters: 0,
	})
	assert.Error(t, err)
}

func TestService_CreateGeofence_RejectsShortPolygon(t *testing.T) {
	fake := storetest.New()
	svc := newTestService(fake)

	_, err := svc.CreateGeofence(context.Background(), CreateGeofenceInput{
		Name: "Yard", Shape: models.ShapePolygon, Polygon: []models.Vertex{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}},
	})
	assert.Error(t, err)
}

func TestService_CreateGeofence_PersistsAndInvalidatesCache(t *testing.T) {
	fake := storetest.New()
	svc := newTestService(fake)
	ctx := context.Background()

	before, err := svc.ListGeofences(ctx)
	require.NoError(t, err)
	assert.Empty(t, before)

	g, err := svc.CreateGeofence(ctx, CreateGeofenceInput{
		Name: "HQ", Shape: models.ShapeCircular, CentreLat: 12.9716, CentreLon: 77.5946, RadiusMeters: 100,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)

	after, err := svc.ListGeofences(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 1)
}

func TestService_DeleteGeofence(t *testing.T) {
	fake := storetest.New()
	svc := newTestService(fake)
	ctx := context.Background()

	g, err := svc.CreateGeofence(ctx, CreateGeofenceInput{
		Name: "HQ", Shape: models.ShapeCircular, CentreLat: 1, CentreLon: 1, RadiusMeters: 50,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteGeofence(ctx, g.ID))

	all, err := svc.ListGeofences(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestService_StartTripAndManualClose(t *testing.T) {
	fake := storetest.New()
	svc := newTestService(fake)
	ctx := context.Background()

	vehicle := &models.Vehicle{RegistrationNumber: "KA-01-HH-1234"}
	fake.SeedVehicle(vehicle)
	tr := &models.Trip{VehicleID: vehicle.ID, Status: models.TripPending}
	fake.SeedTrip(tr)

	started, err := svc.StartTrip(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripInProgress, started.Status)

	closed, err := svc.ManualClose(ctx, tr.ID, 10, 10, "operator request")
	require.NoError(t, err)
	assert.Equal(t, models.TripCompleted, closed.Status)
}

func TestService_DashboardData_PairsVehicleWithLatestTrip(t *testing.T) {
	fake := storetest.New()
	svc := newTestService(fake)
	ctx := context.Background()

	vehicle := &models.Vehicle{RegistrationNumber: "KA-01-HH-1234"}
	fake.SeedVehicle(vehicle)

	older := &models.Trip{VehicleID: vehicle.ID, Status: models.TripCompleted, CreatedAt: time.Now().Add(-time.Hour)}
	fake.SeedTrip(older)
	newer := &models.Trip{VehicleID: vehicle.ID, Status: models.TripPending, CreatedAt: time.Now()}
	fake.SeedTrip(newer)

	idle := &models.Vehicle{RegistrationNumber: "KA-01-HH-5678"}
	fake.SeedVehicle(idle)

	data, err := svc.DashboardData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Vehicles, 2)

	byVehicleID := make(map[string]VehicleSummary, len(data.Vehicles))
	for _, s := range data.Vehicles {
		byVehicleID[s.Vehicle.ID] = s
	}

	assert.Equal(t, newer.ID, byVehicleID[vehicle.ID].Trip.ID)
	assert.Nil(t, byVehicleID[idle.ID].Trip)
}

func TestService_ResetAll(t *testing.T) {
	fake := storetest.New()
	svc := newTestService(fake)
	ctx := context.Background()

	vehicle := &models.Vehicle{RegistrationNumber: "KA-01-HH-1234"}
	fake.SeedVehicle(vehicle)
	start := time.Now().Add(-time.Hour)
	tr := &models.Trip{VehicleID: vehicle.ID, Status: models.TripInProgress, StartTime: &start}
	fake.SeedTrip(tr)

	require.NoError(t, svc.ResetAll(ctx))

	reloaded, err := fake.FindTripByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripPending, reloaded.Status)
}
