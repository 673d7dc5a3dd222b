package seeds

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/geoguard/internal/models"
)

// SeedTrips creates one trip per vehicle, alternating by index: even
// indexes PENDING with unvisited pickups, odd indexes IN_PROGRESS with a
// mix of arrived/pending pickups and a short location-log history.
func SeedTrips(db *gorm.DB, vehicles []models.Vehicle) error {
	log.Println("seeding trips...")

	for i, v := range vehicles {
		trip := models.Trip{
			VehicleID: v.ID,
			Status:    models.TripPending,
		}
		if i%2 == 1 {
			start := RandomPastTime(1)
			trip.Status = models.TripInProgress
			trip.StartTime = ptrTime(start)
		}

		if err := db.Create(&trip).Error; err != nil {
			return err
		}

		pickups := seedPickupsFor(trip, i)
		for j := range pickups {
			if err := db.Create(&pickups[j]).Error; err != nil {
				return err
			}
		}

		if trip.Status == models.TripInProgress {
			if err := seedLocationHistory(db, trip, v); err != nil {
				return err
			}
		}
	}

	log.Printf("seeded %d trips", len(vehicles))
	return nil
}

func seedPickupsFor(trip models.Trip, idx int) []models.PickupPoint {
	status := models.PickupPending
	if trip.Status == models.TripInProgress {
		status = models.PickupArrived
	}

	return []models.PickupPoint{
		{
			TripID:       trip.ID,
			Name:         "Warehouse Stop",
			CentreLat:    jakartaOfficeLat + RandomFloat(-0.02, 0.02),
			CentreLon:    jakartaOfficeLon + RandomFloat(-0.02, 0.02),
			RadiusMeters: 100,
			Status:       status,
		},
		{
			TripID:       trip.ID,
			Name:         "Customer Drop",
			CentreLat:    jakartaOfficeLat + RandomFloat(-0.03, 0.03),
			CentreLon:    jakartaOfficeLon + RandomFloat(-0.03, 0.03),
			RadiusMeters: 75,
			Status:       models.PickupPending,
		},
	}
}

// seedLocationHistory writes a short trail of pings leading up to the
// vehicle's current position, oldest first.
func seedLocationHistory(db *gorm.DB, trip models.Trip, v models.Vehicle) error {
	start := *trip.StartTime
	for i := 0; i < 6; i++ {
		ping := models.LocationLog{
			VehicleID: v.ID,
			TripID:    trip.ID,
			Lat:       jakartaOfficeLat + RandomFloat(-0.04, 0.04),
			Lon:       jakartaOfficeLon + RandomFloat(-0.04, 0.04),
			Speed:     RandomFloat(0, 60),
			Timestamp: start.Add(time.Duration(i*5) * time.Minute),
		}
		if err := db.Create(&ping).Error; err != nil {
			return err
		}
	}
	return nil
}
