package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/geoguard/internal/geometry"
	"github.com/fleetops/geoguard/internal/models"
)

func geometryPointFromGeofence(g *models.OfficeGeofence) geometry.Point {
	return geometry.Point{Lat: g.CentreLat, Lon: g.CentreLon}
}

func geometryPointFarFrom(g *models.OfficeGeofence) geometry.Point {
	return geometry.Point{Lat: g.CentreLat + 1, Lon: g.CentreLon + 1}
}

func officeGeofence() *models.OfficeGeofence {
	return &models.OfficeGeofence{
		ID: "office-1", CentreLat: 12.9716, CentreLon: 77.5946, RadiusMeters: 100, Shape: models.ShapeCircular,
	}
}

func pickup(status string) *models.PickupPoint {
	return &models.PickupPoint{
		ID: "pickup-1", CentreLat: 12.9520, CentreLon: 77.5750, RadiusMeters: 50, Status: status,
	}
}

func inProgressTrip(start time.Time) *models.Trip {
	return &models.Trip{ID: "trip-1", Status: models.TripInProgress, StartTime: &start}
}

func TestEvaluate_PickupArrivalEmitsEffectsOnce(t *testing.T) {
	trip := inProgressTrip(time.Now())
	p := pickup(models.PickupPending)
	ping := Ping{Lat: p.CentreLat, Lon: p.CentreLon, Speed: 10}

	effects := Evaluate(trip, ping, []*models.PickupPoint{p}, nil, DefaultConfig(), time.Now(), false)

	require.Len(t, effects, 4)
	assert.IsType(t, MarkPickupArrived{}, effects[0])
	assert.IsType(t, EmitEvent{}, effects[1])
	assert.Equal(t, models.EventPickupArrived, effects[1].(EmitEvent).Kind)
}

func TestEvaluate_ArrivedPickupSkippedIdempotent(t *testing.T) {
	trip := inProgressTrip(time.Now())
	p := pickup(models.PickupArrived)
	ping := Ping{Lat: p.CentreLat, Lon: p.CentreLon, Speed: 10}

	effects := Evaluate(trip, ping, []*models.PickupPoint{p}, nil, DefaultConfig(), time.Now(), false)

	assert.Empty(t, effects)
}

func TestEvaluate_EmptyPickupSetGatesTrivially(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	entry := start.Add(time.Second)
	trip := inProgressTrip(start)
	trip.OfficeEntryTime = &entry
	office := officeGeofence()
	now := entry.Add(31 * time.Second)
	ping := Ping{Lat: office.CentreLat, Lon: office.CentreLon, Speed: 2}

	effects := Evaluate(trip, ping, nil, []*models.OfficeGeofence{office}, DefaultConfig(), now, false)

	var sawOfficeReached, sawCompleted bool
	for _, e := range effects {
		if ee, ok := e.(EmitEvent); ok {
			if ee.Kind == models.EventOfficeReached {
				sawOfficeReached = true
			}
			if ee.Kind == models.EventTripCompleted {
				sawCompleted = true
			}
		}
	}
	assert.True(t, sawOfficeReached)
	assert.True(t, sawCompleted)
}

func TestEvaluate_DwellAnchorSetOnFirstEntry(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	trip := inProgressTrip(start)
	office := officeGeofence()
	now := time.Now()
	ping := Ping{Lat: office.CentreLat, Lon: office.CentreLon, Speed: 2}

	effects := Evaluate(trip, ping, nil, []*models.OfficeGeofence{office}, DefaultConfig(), now, false)

	require.Len(t, effects, 1)
	se, ok := effects[0].(SetOfficeEntry)
	require.True(t, ok)
	require.NotNil(t, se.Time)
	assert.WithinDuration(t, now, *se.Time, time.Millisecond)
}

func TestEvaluate_DwellEdgeBoundaries(t *testing.T) {
	start := time.Now().Add(-time.Hour)

	t.Run("dwell minus one second does not close", func(t *testing.T) {
		entry := time.Now().Add(-29 * time.Second)
		trip := inProgressTrip(start)
		trip.OfficeEntryTime = &entry
		office := officeGeofence()
		ping := Ping{Lat: office.CentreLat, Lon: office.CentreLon, Speed: 2}

		effects := Evaluate(trip, ping, nil, []*models.OfficeGeofence{office}, DefaultConfig(), time.Now(), false)
		assert.Empty(t, effects)
	})

	t.Run("dwell exactly threshold closes", func(t *testing.T) {
		now := time.Now()
		entry := now.Add(-30 * time.Second)
		trip := inProgressTrip(start)
		trip.OfficeEntryTime = &entry
		office := officeGeofence()
		ping := Ping{Lat: office.CentreLat, Lon: office.CentreLon, Speed: 2}

		effects := Evaluate(trip, ping, nil, []*models.OfficeGeofence{office}, DefaultConfig(), now, false)
		require.NotEmpty(t, effects)
		assert.IsType(t, EmitEvent{}, effects[0])
	})
}

func TestEvaluate_SpeedEdgeBoundaries(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	entry := time.Now().Add(-31 * time.Second)
	office := officeGeofence()

	t.Run("speed equal to threshold blocks closure", func(t *testing.T) {
		trip := inProgressTrip(start)
		trip.OfficeEntryTime = &entry
		ping := Ping{Lat: office.CentreLat, Lon: office.CentreLon, Speed: 5.0}

		effects := Evaluate(trip, ping, nil, []*models.OfficeGeofence{office}, DefaultConfig(), time.Now(), false)
		assert.Empty(t, effects)
	})

	t.Run("speed just under threshold closes", func(t *testing.T) {
		trip := inProgressTrip(start)
		trip.OfficeEntryTime = &entry
		ping := Ping{Lat: office.CentreLat, Lon: office.CentreLon, Speed: 4.999}

		effects := Evaluate(trip, ping, nil, []*models.OfficeGeofence{office}, DefaultConfig(), time.Now(), false)
		require.NotEmpty(t, effects)
	})
}

func TestEvaluate_MultiStopGateBlocksClosure(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	entry := time.Now().Add(-31 * time.Second)
	trip := inProgressTrip(start)
	trip.OfficeEntryTime = &entry
	office := officeGeofence()
	pending := pickup(models.PickupPending)
	ping := Ping{Lat: office.CentreLat, Lon: office.CentreLon, Speed: 2}

	effects := Evaluate(trip, ping, []*models.PickupPoint{pending}, []*models.OfficeGeofence{office}, DefaultConfig(), time.Now(), false)

	require.Len(t, effects, 1)
	ee, ok := effects[0].(EmitEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventClosureBlockedPendingPickups, ee.Kind)
}

func TestEvaluate_SecondaryIdempotencyGuardBlocksDuplicateClose(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	entry := time.Now().Add(-31 * time.Second)
	trip := inProgressTrip(start)
	trip.OfficeEntryTime = &entry
	office := officeGeofence()
	ping := Ping{Lat: office.CentreLat, Lon: office.CentreLon, Speed: 2}

	effects := Evaluate(trip, ping, nil, []*models.OfficeGeofence{office}, DefaultConfig(), time.Now(), true)

	assert.Empty(t, effects)
}

func TestEvaluate_DriftResetOnExit(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	entry := time.Now().Add(-5 * time.Second)
	trip := inProgressTrip(start)
	trip.OfficeEntryTime = &entry
	office := officeGeofence()
	ping := Ping{Lat: 12.99, Lon: 77.61, Speed: 2} // far outside

	effects := Evaluate(trip, ping, nil, []*models.OfficeGeofence{office}, DefaultConfig(), time.Now(), false)

	require.Len(t, effects, 2)
	se, ok := effects[0].(SetOfficeEntry)
	require.True(t, ok)
	assert.Nil(t, se.Time)
	ee, ok := effects[1].(EmitEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventGeofenceExit, ee.Kind)
}

func TestEvaluate_TerminalTripIsNoOp(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	trip := inProgressTrip(start)
	trip.Status = models.TripCompleted
	office := officeGeofence()
	ping := Ping{Lat: office.CentreLat, Lon: office.CentreLon, Speed: 2}

	effects := Evaluate(trip, ping, nil, []*models.OfficeGeofence{office}, DefaultConfig(), time.Now(), false)

	assert.Empty(t, effects)
}

func TestEvaluateManualClosure_InsideGeofenceEmitsManualClosure(t *testing.T) {
	office := officeGeofence()
	start := time.Now().Add(-10 * time.Minute)
	now := time.Now()

	effects := EvaluateManualClosure(
		geometryPointFromGeofence(office), []*models.OfficeGeofence{office}, now, start,
	)

	require.Len(t, effects, 3)
	ee, ok := effects[0].(EmitEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventManualClosure, ee.Kind)

	ct, ok := effects[2].(CompleteTrip)
	require.True(t, ok)
	assert.Equal(t, 10, ct.DurationMinutes)
}

func TestEvaluateManualClosure_OutsideGeofenceAlerts(t *testing.T) {
	office := officeGeofence()
	start := time.Now().Add(-10 * time.Minute)
	now := time.Now()

	effects := EvaluateManualClosure(
		geometryPointFarFrom(office), []*models.OfficeGeofence{office}, now, start,
	)

	require.Len(t, effects, 4)
	first, ok := effects[0].(EmitEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventManualClosureOutsideGeofence, first.Kind)
	second, ok := effects[1].(EmitEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventAdminAlert, second.Kind)
}
