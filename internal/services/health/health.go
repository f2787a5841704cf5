package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benedict-erwin/license-console/pkg/utils"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Check probes one dependency
type Check func(ctx context.Context) error

var (
	startTime = time.Now()

	mu      sync.RWMutex
	version string
	checks  = map[string]Check{}

	// Cache for health checks
	healthCache        *HealthStatus
	healthCacheTime    time.Time
	cacheValidDuration = 10 * time.Second
)

type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Services  map[string]ServiceHealth `json:"services"`
}

type ServiceHealth struct {
	Status       string    `json:"status"`
	ResponseTime string    `json:"response_time"`
	LastCheck    time.Time `json:"last_check"`
	Error        string    `json:"error,omitempty"`
}

// Init sets the reported version and the dependency probes
func Init(appVersion string, probes map[string]Check) {
	mu.Lock()
	defer mu.Unlock()
	version = appVersion
	checks = probes
	healthCache = nil
}

// CheckHealth runs every probe and returns the combined status with a 10s cache
func CheckHealth(ctx context.Context) *HealthStatus {
	mu.RLock()
	if healthCache != nil && time.Since(healthCacheTime) < cacheValidDuration {
		cached := *healthCache
		mu.RUnlock()
		return &cached
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	probes := checks
	v := version
	mu.RUnlock()
	sort.Strings(names)

	status := &HealthStatus{
		Status:    StatusHealthy,
		Timestamp: utils.Now(),
		Version:   v,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Services:  make(map[string]ServiceHealth, len(names)),
	}
	for _, name := range names {
		svc := run(ctx, probes[name])
		if svc.Status != StatusHealthy {
			status.Status = StatusUnhealthy
		}
		status.Services[name] = svc
	}

	mu.Lock()
	healthCache = status
	healthCacheTime = time.Now()
	mu.Unlock()

	cached := *status
	return &cached
}

func run(ctx context.Context, check Check) ServiceHealth {
	start := utils.Now()
	err := check(ctx)
	svc := ServiceHealth{
		Status:       StatusHealthy,
		ResponseTime: time.Since(start).String(),
		LastCheck:    utils.Now(),
	}
	if err != nil {
		svc.Status = StatusUnhealthy
		svc.Error = err.Error()
	}
	return svc
}
