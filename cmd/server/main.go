package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/fleetops/geoguard/internal/admin"
	"github.com/fleetops/geoguard/internal/audit"
	"github.com/fleetops/geoguard/internal/cache"
	"github.com/fleetops/geoguard/internal/config"
	"github.com/fleetops/geoguard/internal/database"
	"github.com/fleetops/geoguard/internal/engine"
	"github.com/fleetops/geoguard/internal/eventbus"
	"github.com/fleetops/geoguard/internal/health"
	"github.com/fleetops/geoguard/internal/ingress"
	"github.com/fleetops/geoguard/internal/logging"
	"github.com/fleetops/geoguard/internal/middleware"
	"github.com/fleetops/geoguard/internal/notifier"
	"github.com/fleetops/geoguard/internal/store"
	"github.com/fleetops/geoguard/internal/trip"

	_ "github.com/fleetops/geoguard/docs"
)

// @title GeoGuard Fleet Geofence API
// @version 1.0
// @description Geofence arrival/departure detection and trip lifecycle engine for a GPS-tracked vehicle fleet.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the admin JWT.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg := config.Load()

	logLevel := logging.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = logging.LevelDebug
	case "warn":
		logLevel = logging.LevelWarn
	case "error":
		logLevel = logging.LevelError
	}
	logger := logging.New(&logging.Config{Level: logLevel, Format: cfg.LogFormat, Output: os.Stdout})

	logger.WithFields(map[string]interface{}{"environment": cfg.Environment}).LogError(nil, "starting geoguard", nil)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.LogError(err, "redis unavailable, continuing without cache mirror or pub/sub fanout", nil)
		redisClient = nil
	}

	st := store.New(db)
	staticData := cache.NewWithStore(st, redisClient)

	var notif notifier.Notifier
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		notif = notifier.NewTwilioNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.AdminAlertPhones, staticData, logger)
	} else {
		notif = notifier.NewLoggingNotifier(logger)
	}

	bus := eventbus.New(redisClient, eventbus.DefaultConfig(), logger)

	engineCfg := engine.Config{DwellTimeSeconds: cfg.DwellTimeSeconds, SpeedThresholdKmh: cfg.SpeedThresholdKmh}
	coordinator := trip.New(st, staticData, notif, bus, logger, engineCfg)

	ingressCfg := ingress.Config{
		CoreWorkers:     cfg.IngressCoreWorkers,
		MaxWorkers:      cfg.IngressMaxWorkers,
		QueueSize:       cfg.IngressQueueSize,
		MaxBatchSize:    cfg.IngressMaxBatch,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
	dispatcher := ingress.New(coordinator, logger, ingressCfg)
	ingressHandler := ingress.NewHandler(dispatcher)

	metricsRegistry := prometheus.NewRegistry()
	dispatcher.Metrics().Register(metricsRegistry)

	auditReader := audit.New(st)
	auditHandler := audit.NewHandler(auditReader)

	adminSvc := admin.New(st, staticData, coordinator)
	adminHandler := admin.NewHandler(adminSvc)

	healthChecker := health.NewChecker(db, redisClient, "geoguard")
	healthHandler := health.NewHandler(healthChecker)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RecoveryHandler())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.APIVersionMiddleware("1.0"))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	health.SetupRoutes(r, healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})))
	r.GET("/ws", bus.HandleWebSocket)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		location := api.Group("/location")
		location.Use(middleware.GPSRateLimit(cfg.GPSRateLimitPerMinute))
		ingressHandler.Register(location)

		auditGroup := api.Group("/audit")
		auditHandler.Register(auditGroup)

		adminHandler.Register(api)

		guarded := api.Group("")
		guarded.Use(middleware.AdminAuthRequired(cfg.JWTSecret))
		adminHandler.RegisterGuarded(guarded)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("geoguard listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	dispatcher.Stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := database.Close(db); err != nil {
		log.Printf("close database: %v", err)
	}

	log.Println("shutdown complete")
}
