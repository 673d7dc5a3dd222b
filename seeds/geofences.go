package seeds

import (
	"log"

	"gorm.io/gorm"

	"github.com/fleetops/geoguard/internal/models"
)

// Jakarta head-office coordinates, used as the centre of the seeded
// circular geofence and as the anchor every seeded vehicle/trip clusters
// around.
const (
	jakartaOfficeLat = -6.224972
	jakartaOfficeLon = 106.802519
)

// SeedGeofences creates the head-office circular geofence plus one
// polygon-shaped yard geofence, exercising both containment shapes.
func SeedGeofences(db *gorm.DB) ([]models.OfficeGeofence, error) {
	log.Println("seeding geofences...")

	geofences := []models.OfficeGeofence{
		{
			Name:         "Head Office",
			CentreLat:    jakartaOfficeLat,
			CentreLon:    jakartaOfficeLon,
			RadiusMeters: 150,
			Shape:        models.ShapeCircular,
		},
		{
			Name:  "Distribution Yard",
			Shape: models.ShapePolygon,
			Polygon: []models.Vertex{
				{Lat: jakartaOfficeLat + 0.01, Lon: jakartaOfficeLon + 0.01},
				{Lat: jakartaOfficeLat + 0.012, Lon: jakartaOfficeLon + 0.01},
				{Lat: jakartaOfficeLat + 0.012, Lon: jakartaOfficeLon + 0.013},
				{Lat: jakartaOfficeLat + 0.01, Lon: jakartaOfficeLon + 0.013},
			},
		},
	}

	for i := range geofences {
		if err := db.Create(&geofences[i]).Error; err != nil {
			return nil, err
		}
	}

	log.Printf("seeded %d geofences", len(geofences))
	return geofences, nil
}
