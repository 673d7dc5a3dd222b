// Package models holds the persistent entities of the geofence event
// engine: vehicles, drivers, office geofences, trips with their owned
// pickup points, the location log, and the append-only event log.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle status values.
const (
	VehicleActive   = "ACTIVE"
	VehicleInactive = "INACTIVE"
)

// Vehicle is a stable fleet identity. Read-mostly.
type Vehicle struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RegistrationNumber string    `json:"registration_number" gorm:"size:20;uniqueIndex;not null"`
	Status             string    `json:"status" gorm:"size:20;not null;default:'ACTIVE'"`
	LastKnownLat       float64   `json:"last_known_lat"`
	LastKnownLon       float64   `json:"last_known_lon"`
	LastUpdatedAt      *time.Time `json:"last_updated_at"`
	CreatedAt          time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate generates a UUID primary key if the caller didn't set one.
func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// Driver has at most one assigned vehicle, referenced weakly by id.
type Driver struct {
	ID               string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name             string  `json:"name" gorm:"size:120;not null"`
	Phone            string  `json:"phone" gorm:"size:20"`
	LicenceNumber    string  `json:"licence_number" gorm:"size:40"`
	AssignedVehicleID *string `json:"assigned_vehicle_id" gorm:"type:uuid;index"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate generates a UUID primary key if the caller didn't set one.
func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// Geofence shapes.
const (
	ShapeCircular = "CIRCULAR"
	ShapePolygon  = "POLYGON"
)

// Vertex is one (lat, lon) point of a polygon geofence.
type Vertex struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// OfficeGeofence is a terminal region, circular or polygonal. Immutable at
// runtime except through AdminAPI; read through StaticDataProvider.
type OfficeGeofence struct {
	ID           string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name         string         `json:"name" gorm:"size:120"`
	CentreLat    float64        `json:"centre_lat"`
	CentreLon    float64        `json:"centre_lon"`
	RadiusMeters float64        `json:"radius_meters"`
	Shape        string         `json:"shape" gorm:"size:20;not null;default:'CIRCULAR'"`
	Polygon      []Vertex       `json:"polygon" gorm:"serializer:json"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate generates a UUID primary key if the caller didn't set one.
func (g *OfficeGeofence) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return nil
}

// Pickup point status values.
const (
	PickupPending = "PENDING"
	PickupArrived = "ARRIVED"
)

// PickupPoint belongs to exactly one Trip; deleted with a trip reset.
type PickupPoint struct {
	ID           string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TripID       string  `json:"trip_id" gorm:"type:uuid;not null;index"`
	Name         string  `json:"name" gorm:"size:120"`
	CentreLat    float64 `json:"centre_lat"`
	CentreLon    float64 `json:"centre_lon"`
	RadiusMeters float64 `json:"radius_meters"`
	Status       string  `json:"status" gorm:"size:20;not null;default:'PENDING'"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate generates a UUID primary key if the caller didn't set one.
func (p *PickupPoint) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Trip status values.
const (
	TripPending    = "PENDING"
	TripInProgress = "IN_PROGRESS"
	TripCompleted  = "COMPLETED"
)

// Trip owns a vehicle reference and its pickup points.
type Trip struct {
	ID               string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	VehicleID        string     `json:"vehicle_id" gorm:"type:uuid;not null;index"`
	Status           string     `json:"status" gorm:"size:20;not null;default:'PENDING'"`
	StartTime        *time.Time `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	TotalDistanceKm  float64    `json:"total_distance_km"`
	DurationMinutes  *int       `json:"duration_minutes"`
	OfficeEntryTime  *time.Time `json:"office_entry_time"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Pickups []PickupPoint `json:"pickups,omitempty" gorm:"foreignKey:TripID"`
}

// BeforeCreate generates a UUID primary key if the caller didn't set one.
func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// LocationLog is an append-only GPS ping record. Never updated or deleted
// except by an admin reset of the owning trip.
type LocationLog struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	VehicleID string    `json:"vehicle_id" gorm:"type:uuid;not null;index"`
	TripID    string    `json:"trip_id" gorm:"type:uuid;not null;index"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Speed     float64   `json:"speed"`
	Timestamp time.Time `json:"timestamp" gorm:"index"` // device clock, see DESIGN.md open question
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a UUID primary key if the caller didn't set one.
func (l *LocationLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// Event kinds (closed set).
const (
	EventPickupArrived                = "PICKUP_ARRIVED"
	EventOfficeReached                = "OFFICE_REACHED"
	EventTripCompleted                = "TRIP_COMPLETED"
	EventGeofenceExit                 = "GEOFENCE_EXIT"
	EventManualClosure                = "MANUAL_CLOSURE"
	EventManualClosureOutsideGeofence = "MANUAL_CLOSURE_OUTSIDE_GEOFENCE"
	EventAdminAlert                   = "ADMIN_ALERT"
	EventClosureBlockedPendingPickups = "TRIP_CLOSURE_BLOCKED_PENDING_PICKUPS"
	EventClosureBlockedMinDuration    = "TRIP_CLOSURE_BLOCKED_MIN_DURATION"
)

// EventLog is an append-only audit entry. eventTimestamp is always the
// server clock at evaluation time, never the device timestamp.
type EventLog struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	VehicleID      string    `json:"vehicle_id" gorm:"type:uuid;not null;index"`
	TripID         string    `json:"trip_id" gorm:"type:uuid;index;index:idx_trip_event_type,priority:1"`
	EventType      string    `json:"event_type" gorm:"size:60;not null;index:idx_trip_event_type,priority:2"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	EventTimestamp time.Time `json:"event_timestamp"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a UUID primary key if the caller didn't set one.
func (e *EventLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName pins the table name to event_logs. The (trip_id), (vehicle_id)
// and (trip_id, event_type) indexes come from the field tags above.
func (EventLog) TableName() string {
	return "event_logs"
}
