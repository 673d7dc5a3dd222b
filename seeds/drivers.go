package seeds

import (
	"log"

	"gorm.io/gorm"

	"github.com/fleetops/geoguard/internal/models"
)

// SeedDrivers creates one driver per vehicle and assigns it.
func SeedDrivers(db *gorm.DB, vehicles []models.Vehicle) ([]models.Driver, error) {
	log.Println("seeding drivers...")

	drivers := make([]models.Driver, 0, len(vehicles))
	for _, v := range vehicles {
		vehicleID := v.ID
		drivers = append(drivers, models.Driver{
			Name:              GenerateIndonesianName(),
			Phone:             GeneratePhoneNumber(),
			LicenceNumber:     GenerateSIM(),
			AssignedVehicleID: &vehicleID,
		})
	}

	for i := range drivers {
		if err := db.Create(&drivers[i]).Error; err != nil {
			return nil, err
		}
	}

	log.Printf("seeded %d drivers", len(drivers))
	return drivers, nil
}
