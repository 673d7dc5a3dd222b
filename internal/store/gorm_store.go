package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/fleetops/geoguard/pkg/errors"

	"github.com/fleetops/geoguard/internal/models"
)

// gormStore implements Store on top of GORM, following the context-first,
// straightforward-query shape of the teacher's tracking repository.
type gormStore struct {
	db *gorm.DB
}

// New creates a Store backed by the given GORM connection.
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txStore := &gormStore{db: tx}
		return fn(ctx, txStore)
	})
}

func (s *gormStore) LoadTripForUpdate(ctx context.Context, tripID string) (*models.Trip, error) {
	var trip models.Trip
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&trip, "id = ?", tripID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("trip")
	}
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return &trip, nil
}

func (s *gormStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if err := s.db.WithContext(ctx).Create(trip).Error; err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	if err := s.db.WithContext(ctx).Save(trip).Error; err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) FindTripByID(ctx context.Context, tripID string) (*models.Trip, error) {
	var trip models.Trip
	err := s.db.WithContext(ctx).First(&trip, "id = ?", tripID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("trip")
	}
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return &trip, nil
}

func (s *gormStore) PickupsForTrip(ctx context.Context, tripID string) ([]*models.PickupPoint, error) {
	var pickups []*models.PickupPoint
	err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("created_at ASC").
		Find(&pickups).Error
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return pickups, nil
}

func (s *gormStore) UpdatePickup(ctx context.Context, pickup *models.PickupPoint) error {
	if err := s.db.WithContext(ctx).Save(pickup).Error; err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) ResetPickupsForTrip(ctx context.Context, tripID string) error {
	err := s.db.WithContext(ctx).
		Model(&models.PickupPoint{}).
		Where("trip_id = ?", tripID).
		Update("status", models.PickupPending).Error
	if err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) SaveEvent(ctx context.Context, event *models.EventLog) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) ExistsEvent(ctx context.Context, tripID, kind string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.EventLog{}).
		Where("trip_id = ? AND event_type = ?", tripID, kind).
		Count(&count).Error
	if err != nil {
		return false, apperrors.NewStorageTransientError(err)
	}
	return count > 0, nil
}

func (s *gormStore) EventsByTrip(ctx context.Context, tripID string) ([]*models.EventLog, error) {
	var events []*models.EventLog
	err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("event_timestamp ASC").
		Find(&events).Error
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return events, nil
}

func (s *gormStore) EventsByVehicle(ctx context.Context, vehicleID string) ([]*models.EventLog, error) {
	var events []*models.EventLog
	err := s.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("event_timestamp DESC").
		Find(&events).Error
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return events, nil
}

func (s *gormStore) EventsByTimeRange(ctx context.Context, from, to time.Time) ([]*models.EventLog, error) {
	if from.After(to) {
		return nil, apperrors.NewInvalidArgumentError("from must not be after to")
	}
	var events []*models.EventLog
	err := s.db.WithContext(ctx).
		Where("event_timestamp BETWEEN ? AND ?", from, to).
		Order("event_timestamp ASC").
		Find(&events).Error
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return events, nil
}

func (s *gormStore) DeleteEventsForTrip(ctx context.Context, tripID string) error {
	err := s.db.WithContext(ctx).Where("trip_id = ?", tripID).Delete(&models.EventLog{}).Error
	if err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) AppendLocation(ctx context.Context, log *models.LocationLog) error {
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) LatestLocation(ctx context.Context, tripID string) (*models.LocationLog, error) {
	var log models.LocationLog
	err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("timestamp DESC").
		First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return &log, nil
}

func (s *gormStore) DeleteLocationsForTrip(ctx context.Context, tripID string) error {
	err := s.db.WithContext(ctx).Where("trip_id = ?", tripID).Delete(&models.LocationLog{}).Error
	if err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	var v models.Vehicle
	err := s.db.WithContext(ctx).First(&v, "id = ?", vehicleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("vehicle")
	}
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return &v, nil
}

func (s *gormStore) UpdateVehicleLocation(ctx context.Context, vehicleID string, lat, lon float64, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&models.Vehicle{}).
		Where("id = ?", vehicleID).
		Updates(map[string]interface{}{
			"last_known_lat": lat,
			"last_known_lon": lon,
			"last_updated_at": at,
		}).Error
	if err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) DriverForVehicle(ctx context.Context, vehicleID string) (*models.Driver, error) {
	var d models.Driver
	err := s.db.WithContext(ctx).First(&d, "assigned_vehicle_id = ?", vehicleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return &d, nil
}

func (s *gormStore) CreateGeofence(ctx context.Context, g *models.OfficeGeofence) error {
	if err := s.db.WithContext(ctx).Create(g).Error; err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) UpdateGeofence(ctx context.Context, g *models.OfficeGeofence) error {
	if err := s.db.WithContext(ctx).Save(g).Error; err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) DeleteGeofence(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&models.OfficeGeofence{}, "id = ?", id).Error; err != nil {
		return apperrors.NewStorageTransientError(err)
	}
	return nil
}

func (s *gormStore) FindGeofenceByID(ctx context.Context, id string) (*models.OfficeGeofence, error) {
	var g models.OfficeGeofence
	err := s.db.WithContext(ctx).First(&g, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("geofence")
	}
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return &g, nil
}

func (s *gormStore) AllGeofences(ctx context.Context) ([]*models.OfficeGeofence, error) {
	var geofences []*models.OfficeGeofence
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&geofences).Error
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return geofences, nil
}

func (s *gormStore) AllTripIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Trip{}).Pluck("id", &ids).Error
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return ids, nil
}

func (s *gormStore) AllTrips(ctx context.Context) ([]*models.Trip, error) {
	var trips []*models.Trip
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&trips).Error
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return trips, nil
}

func (s *gormStore) AllVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	var vehicles []*models.Vehicle
	err := s.db.WithContext(ctx).Order("registration_number ASC").Find(&vehicles).Error
	if err != nil {
		return nil, apperrors.NewStorageTransientError(err)
	}
	return vehicles, nil
}
