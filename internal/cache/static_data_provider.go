package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fleetops/geoguard/internal/models"
	"github.com/fleetops/geoguard/internal/store"
)

const (
	geofenceCacheCapacity     = 20
	vehicleDriverCacheCapacity = 50
	defaultTTL                = 60 * time.Minute

	vehicleListKey = "__vehicle_list__"
)

// Loader is the subset of store.Store the StaticDataProvider falls back to
// on a cache miss.
type Loader interface {
	AllGeofences(ctx context.Context) ([]*models.OfficeGeofence, error)
	FindGeofenceByID(ctx context.Context, id string) (*models.OfficeGeofence, error)
	GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error)
	DriverForVehicle(ctx context.Context, vehicleID string) (*models.Driver, error)
}

// vehicleDriverEntry bundles a vehicle with its (possibly nil) driver so a
// single cache slot serves both lookups the coordinator needs per ping.
type vehicleDriverEntry struct {
	Vehicle *models.Vehicle
	Driver  *models.Driver
}

// StaticDataProvider is the read-through cache spec.md §4.3 describes: two
// logical caches (geofences, vehicleDriver), 60-minute write-TTL, LRU
// eviction on size, explicit evictAll on admin reset.
type StaticDataProvider struct {
	loader Loader

	geofences     *lru
	vehicleDriver *lru
	mirror        *redisMirror
}

// New creates a StaticDataProvider backed by loader for cache misses and
// redisClient (may be nil) for the cross-instance warm mirror.
func New(loader Loader, redisClient *redis.Client) *StaticDataProvider {
	return &StaticDataProvider{
		loader:        loader,
		geofences:     newLRU(geofenceCacheCapacity, defaultTTL),
		vehicleDriver: newLRU(vehicleDriverCacheCapacity, defaultTTL),
		mirror:        newRedisMirror(redisClient, "geoguard:static"),
	}
}

// NewWithStore is a convenience constructor taking a store.Store directly.
func NewWithStore(s store.Store, redisClient *redis.Client) *StaticDataProvider {
	return New(s, redisClient)
}

// Geofences returns every office geofence, loading and caching them on a
// miss. Concurrent misses may coalesce but are not required to (spec.md
// §4.3) — this implementation does not coalesce, each miss loads once.
func (p *StaticDataProvider) Geofences(ctx context.Context) ([]*models.OfficeGeofence, error) {
	if v, ok := p.geofences.get(vehicleListKey); ok {
		return v.([]*models.OfficeGeofence), nil
	}

	var mirrored []*models.OfficeGeofence
	if p.mirror.get(ctx, vehicleListKey, &mirrored) {
		p.geofences.set(vehicleListKey, mirrored)
		return mirrored, nil
	}

	geofences, err := p.loader.AllGeofences(ctx)
	if err != nil {
		return nil, err
	}
	p.geofences.set(vehicleListKey, geofences)
	p.mirror.set(ctx, vehicleListKey, geofences, defaultTTL)
	return geofences, nil
}

// InvalidateGeofences evicts the cached geofence list; called by AdminAPI
// writes (§4.10: "Writes invalidate the geofences cache").
func (p *StaticDataProvider) InvalidateGeofences(ctx context.Context) {
	p.geofences.delete(vehicleListKey)
	p.mirror.deletePrefix(ctx, vehicleListKey)
}

// VehicleAndDriver returns the vehicle and its assigned driver (nil if
// unassigned), loading and caching them on a miss.
func (p *StaticDataProvider) VehicleAndDriver(ctx context.Context, vehicleID string) (*models.Vehicle, *models.Driver, error) {
	key := fmt.Sprintf("vd:%s", vehicleID)

	if v, ok := p.vehicleDriver.get(key); ok {
		e := v.(vehicleDriverEntry)
		return e.Vehicle, e.Driver, nil
	}

	var mirrored vehicleDriverEntry
	if p.mirror.get(ctx, key, &mirrored) {
		p.vehicleDriver.set(key, mirrored)
		return mirrored.Vehicle, mirrored.Driver, nil
	}

	vehicle, err := p.loader.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, nil, err
	}
	driver, err := p.loader.DriverForVehicle(ctx, vehicleID)
	if err != nil {
		return nil, nil, err
	}

	entry := vehicleDriverEntry{Vehicle: vehicle, Driver: driver}
	p.vehicleDriver.set(key, entry)
	p.mirror.set(ctx, key, entry, defaultTTL)
	return vehicle, driver, nil
}

// EvictAll clears both logical caches and the geofence list key in the
// Redis mirror. Per-vehicle mirror entries are not deleted; they expire
// on their TTL. Called on admin reset (spec.md §4.10).
func (p *StaticDataProvider) EvictAll(ctx context.Context) {
	p.geofences.evictAll()
	p.vehicleDriver.evictAll()
	p.mirror.deletePrefix(ctx, vehicleListKey)
}
