// Package seeds populates a fresh database with a small, realistic
// fleet: vehicles, drivers, office geofences, and trips with pickups and
// a short location-log history. Grounded on the teacher's seeds package
// shape (one file per entity plus a RunAll/ClearAll orchestrator in
// seed.go), regenerated for this domain's entities.
package seeds

import (
	"log"

	"gorm.io/gorm"
)

// RunAll seeds every entity in dependency order: geofences and vehicles
// first (no foreign keys), then drivers (references vehicles), then trips
// (references vehicles, owns pickups and location logs).
func RunAll(db *gorm.DB) error {
	log.Println("starting database seeding...")

	if _, err := SeedGeofences(db); err != nil {
		return err
	}

	vehicles, err := SeedVehicles(db)
	if err != nil {
		return err
	}

	if _, err := SeedDrivers(db, vehicles); err != nil {
		return err
	}

	if err := SeedTrips(db, vehicles); err != nil {
		return err
	}

	log.Println("database seeding completed")
	return nil
}

// ClearAll deletes all seed data, in reverse dependency order.
func ClearAll(db *gorm.DB) error {
	log.Println("clearing all seed data...")

	tables := []string{
		"event_logs",
		"location_logs",
		"pickup_points",
		"trips",
		"drivers",
		"office_geofences",
		"vehicles",
	}

	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Printf("warning: failed to clear %s: %v", table, err)
		}
	}

	log.Println("all seed data cleared")
	return nil
}
