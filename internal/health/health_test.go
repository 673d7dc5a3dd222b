package health

import (
	"context"
	"testing"
	"time"
)

func TestNewChecker(t *testing.T) {
	checker := NewChecker(nil, nil, "geoguard")
	if checker == nil {
		t.Fatal("expected checker to be created")
	}
	if checker.serviceName != "geoguard" {
		t.Errorf("expected service name geoguard, got %s", checker.serviceName)
	}
}

func TestChecker_Check(t *testing.T) {
	checker := NewChecker(nil, nil, "geoguard")
	response := checker.Check()

	if response.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	if response.Service != "geoguard" {
		t.Errorf("expected service geoguard, got %s", response.Service)
	}
}

func TestChecker_CheckLiveness(t *testing.T) {
	checker := NewChecker(nil, nil, "geoguard")
	response := checker.CheckLiveness()
	if response.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
}

func TestChecker_CheckReadiness_NoDependenciesIsUnhealthy(t *testing.T) {
	checker := NewChecker(nil, nil, "geoguard")
	response := checker.CheckReadiness(context.Background())

	if response.Status != StatusUnhealthy {
		t.Errorf("expected status unhealthy with no database configured, got %s", response.Status)
	}
	if response.Dependencies["database"].Status != StatusUnhealthy {
		t.Errorf("expected database dependency unhealthy")
	}
}

func TestChecker_Uptime(t *testing.T) {
	checker := NewChecker(nil, nil, "geoguard")
	time.Sleep(10 * time.Millisecond)

	if checker.uptime() == "" {
		t.Error("expected uptime to be non-empty")
	}
	if elapsed := time.Since(checker.startTime); elapsed < 10*time.Millisecond {
		t.Errorf("expected uptime >= 10ms, got %v", elapsed)
	}
}

func TestChecker_SystemMetrics(t *testing.T) {
	checker := NewChecker(nil, nil, "geoguard")
	metrics := checker.systemMetrics()

	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}
	if metrics.CPUCount <= 0 {
		t.Errorf("expected CPU count > 0, got %d", metrics.CPUCount)
	}
	if metrics.GoroutineCount <= 0 {
		t.Errorf("expected goroutine count > 0, got %d", metrics.GoroutineCount)
	}
}
