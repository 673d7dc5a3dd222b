package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/geoguard/internal/models"
	"github.com/fleetops/geoguard/internal/storetest"
)

func TestReader_ByTrip(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()

	vehicle := &models.Vehicle{RegistrationNumber: "KA-01-HH-1234"}
	fake.SeedVehicle(vehicle)
	tr := &models.Trip{VehicleID: vehicle.ID, Status: models.TripInProgress}
	fake.SeedTrip(tr)

	require.NoError(t, fake.SaveEvent(ctx, &models.EventLog{VehicleID: vehicle.ID, TripID: tr.ID, EventType: models.EventPickupArrived}))
	require.NoError(t, fake.SaveEvent(ctx, &models.EventLog{VehicleID: vehicle.ID, TripID: tr.ID, EventType: models.EventOfficeReached}))

	r := New(fake)
	events, err := r.ByTrip(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventPickupArrived, events[0].EventType)
	assert.Equal(t, models.EventOfficeReached, events[1].EventType)
}

func TestReader_ByVehicle(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()

	vehicle := &models.Vehicle{RegistrationNumber: "KA-01-HH-1234"}
	fake.SeedVehicle(vehicle)
	tripA := &models.Trip{VehicleID: vehicle.ID, Status: models.TripCompleted}
	fake.SeedTrip(tripA)
	tripB := &models.Trip{VehicleID: vehicle.ID, Status: models.TripInProgress}
	fake.SeedTrip(tripB)

	require.NoError(t, fake.SaveEvent(ctx, &models.EventLog{VehicleID: vehicle.ID, TripID: tripA.ID, EventType: models.EventTripCompleted}))
	require.NoError(t, fake.SaveEvent(ctx, &models.EventLog{VehicleID: vehicle.ID, TripID: tripB.ID, EventType: models.EventPickupArrived}))

	r := New(fake)
	events, err := r.ByVehicle(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestReader_ByTimeRange(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()

	vehicle := &models.Vehicle{RegistrationNumber: "KA-01-HH-1234"}
	fake.SeedVehicle(vehicle)
	tr := &models.Trip{VehicleID: vehicle.ID, Status: models.TripInProgress}
	fake.SeedTrip(tr)

	now := time.Now()
	require.NoError(t, fake.SaveEvent(ctx, &models.EventLog{VehicleID: vehicle.ID, TripID: tr.ID, EventType: models.EventPickupArrived, EventTimestamp: now.Add(-time.Hour)}))
	require.NoError(t, fake.SaveEvent(ctx, &models.EventLog{VehicleID: vehicle.ID, TripID: tr.ID, EventType: models.EventOfficeReached, EventTimestamp: now}))

	r := New(fake)
	events, err := r.ByTimeRange(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventOfficeReached, events[0].EventType)
}
