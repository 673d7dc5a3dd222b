package seeds

import (
	"log"

	"gorm.io/gorm"

	"github.com/fleetops/geoguard/internal/models"
)

// SeedVehicles creates a small Jakarta-area vehicle fleet.
func SeedVehicles(db *gorm.DB) ([]models.Vehicle, error) {
	log.Println("seeding vehicles...")

	vehicles := make([]models.Vehicle, 0, 8)
	for i := 0; i < 8; i++ {
		vehicles = append(vehicles, models.Vehicle{
			RegistrationNumber: GenerateLicensePlate(),
			Status:             models.VehicleActive,
			LastKnownLat:       jakartaOfficeLat + RandomFloat(-0.05, 0.05),
			LastKnownLon:       jakartaOfficeLon + RandomFloat(-0.05, 0.05),
			LastUpdatedAt:      ptrTime(RandomPastTime(2)),
		})
	}

	for i := range vehicles {
		if err := db.Create(&vehicles[i]).Error; err != nil {
			return nil, err
		}
	}

	log.Printf("seeded %d vehicles", len(vehicles))
	return vehicles, nil
}
