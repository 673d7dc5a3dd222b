// Package database bootstraps the GORM/Postgres and Redis connections
// cmd/server wires into the rest of the process. There is no dedicated
// database package in the pack — this is authored fresh against
// internal/common/testutil/database.go's gorm.Open(postgres.Open(...))
// shape and cmd/server/main.go's cfg.DatabaseURL/cfg.RedisURL call sites.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fleetops/geoguard/internal/models"
)

// Connect opens a GORM connection to dsn, runs AutoMigrate for every
// entity, and tunes the pool for a single always-on ingestion process.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Vehicle{},
		&models.Driver{},
		&models.OfficeGeofence{},
		&models.Trip{},
		&models.PickupPoint{},
		&models.LocationLog{},
		&models.EventLog{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ConnectRedis parses redisURL and pings the resulting client before
// returning it, so callers fail fast at startup rather than on first use.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
