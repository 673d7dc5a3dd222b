// Package health implements liveness/readiness checks over the database
// and Redis mirror, grounded on internal/common/health/health.go.
package health

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Status is a health-check outcome.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Checker reports the service's health against its database and the
// optional Redis mirror.
type Checker struct {
	db          *gorm.DB
	redis       *redis.Client
	startTime   time.Time
	serviceName string
	mu          sync.RWMutex
}

// NewChecker creates a Checker. redisClient may be nil — the Redis
// mirror is an optional cache warm path, not a hard dependency.
func NewChecker(db *gorm.DB, redisClient *redis.Client, serviceName string) *Checker {
	return &Checker{db: db, redis: redisClient, startTime: time.Now(), serviceName: serviceName}
}

// Response is the JSON health-check payload.
type Response struct {
	Status       Status                `json:"status"`
	Timestamp    time.Time             `json:"timestamp"`
	Service      string                `json:"service"`
	Uptime       string                `json:"uptime"`
	Dependencies map[string]Dependency `json:"dependencies,omitempty"`
	System       *SystemMetrics        `json:"system,omitempty"`
	Errors       []string              `json:"errors,omitempty"`
}

// Dependency reports one external dependency's health.
type Dependency struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SystemMetrics captures the process's runtime stats.
type SystemMetrics struct {
	MemoryUsageMB  uint64 `json:"memory_usage_mb"`
	MemoryAllocMB  uint64 `json:"memory_alloc_mb"`
	GoroutineCount int    `json:"goroutine_count"`
	CPUCount       int    `json:"cpu_count"`
}

// Check performs a trivial liveness check — the process is up.
func (hc *Checker) Check() Response {
	return Response{Status: StatusHealthy, Timestamp: time.Now().UTC(), Service: hc.serviceName, Uptime: hc.uptime()}
}

// CheckReadiness pings the database (required) and Redis (optional) and
// folds their results into an overall status: unhealthy if the database
// is down, degraded if only Redis is down.
func (hc *Checker) CheckReadiness(ctx context.Context) Response {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	resp := Response{
		Status:       StatusHealthy,
		Timestamp:    time.Now().UTC(),
		Service:      hc.serviceName,
		Uptime:       hc.uptime(),
		Dependencies: make(map[string]Dependency),
		System:       hc.systemMetrics(),
		Errors:       []string{},
	}

	if hc.db != nil {
		dep := hc.checkDatabase(ctx)
		resp.Dependencies["database"] = dep
		if dep.Status != StatusHealthy {
			resp.Status = StatusUnhealthy
			resp.Errors = append(resp.Errors, fmt.Sprintf("database: %s", dep.Error))
		}
	} else {
		resp.Dependencies["database"] = Dependency{Status: StatusUnhealthy, Error: "database not configured"}
		resp.Status = StatusUnhealthy
		resp.Errors = append(resp.Errors, "database: not configured")
	}

	if hc.redis != nil {
		dep := hc.checkRedis(ctx)
		resp.Dependencies["redis"] = dep
		if dep.Status != StatusHealthy && resp.Status == StatusHealthy {
			resp.Status = StatusDegraded
		}
		if dep.Status != StatusHealthy {
			resp.Errors = append(resp.Errors, fmt.Sprintf("redis: %s", dep.Error))
		}
	} else if resp.Status == StatusHealthy {
		resp.Status = StatusDegraded
		resp.Errors = append(resp.Errors, "redis: not configured")
	}

	return resp
}

// CheckLiveness is the Kubernetes liveness probe body — responsive means
// healthy, no dependency checks.
func (hc *Checker) CheckLiveness() Response {
	return Response{Status: StatusHealthy, Timestamp: time.Now().UTC(), Service: hc.serviceName}
}

func (hc *Checker) checkDatabase(ctx context.Context) Dependency {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	sqlDB, err := hc.db.DB()
	if err != nil {
		return Dependency{Status: StatusUnhealthy, LatencyMs: time.Since(start).Milliseconds(), Error: fmt.Sprintf("failed to get database: %v", err)}
	}
	if err := sqlDB.PingContext(checkCtx); err != nil {
		return Dependency{Status: StatusUnhealthy, LatencyMs: time.Since(start).Milliseconds(), Error: fmt.Sprintf("database ping failed: %v", err)}
	}

	latency := time.Since(start).Milliseconds()
	status, message := StatusHealthy, "connected"
	if latency > 1000 {
		status, message = StatusDegraded, "slow response"
	}
	return Dependency{Status: status, LatencyMs: latency, Message: message}
}

func (hc *Checker) checkRedis(ctx context.Context) Dependency {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := hc.redis.Ping(checkCtx).Err(); err != nil {
		return Dependency{Status: StatusUnhealthy, LatencyMs: time.Since(start).Milliseconds(), Error: fmt.Sprintf("redis ping failed: %v", err)}
	}

	latency := time.Since(start).Milliseconds()
	status, message := StatusHealthy, "connected"
	if latency > 500 {
		status, message = StatusDegraded, "slow response"
	}
	return Dependency{Status: status, LatencyMs: latency, Message: message}
}

func (hc *Checker) systemMetrics() *SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &SystemMetrics{
		MemoryUsageMB:  m.Sys / 1024 / 1024,
		MemoryAllocMB:  m.Alloc / 1024 / 1024,
		GoroutineCount: runtime.NumGoroutine(),
		CPUCount:       runtime.NumCPU(),
	}
}

func (hc *Checker) uptime() string {
	d := time.Since(hc.startTime)
	hours, minutes, seconds := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
