// Package http serves the worker's status endpoints: a health report over
// the storage backend and a listing of scheduled jobs.
package http

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// HealthCheckFunc probes one dependency. A non-nil error means unhealthy.
type HealthCheckFunc func(ctx context.Context) error

// Pinger is anything with a reachability probe. Every storage backend is one.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck turns a Pinger into a check.
func PingCheck(p Pinger) HealthCheckFunc { return p.Ping }

// HealthStatus is the /healthz body.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Message   string                 `json:"message,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// HealthChecker runs named checks in parallel, each under its own timeout.
type HealthChecker struct {
	version string
	started time.Time
	now     func() time.Time

	mu      sync.RWMutex
	checks  map[string]HealthCheckFunc
	timeout time.Duration
}

// NewHealthChecker creates a checker with a 5s per-check timeout.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		version: version,
		started: time.Now(),
		now:     time.Now,
		checks:  map[string]HealthCheckFunc{},
		timeout: 5 * time.Second,
	}
}

func (c *HealthChecker) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// AddCheck registers a check, replacing any with the same name.
func (c *HealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.mu.Lock()
	c.checks[name] = check
	c.mu.Unlock()
}

func (c *HealthChecker) RemoveCheck(name string) {
	c.mu.Lock()
	delete(c.checks, name)
	c.mu.Unlock()
}

// Check runs every check and folds the results into one status. It is
// healthy only when all checks pass.
func (c *HealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := maps.Clone(c.checks)
	timeout := c.timeout
	c.mu.RUnlock()

	now := c.now()
	status := HealthStatus{
		Healthy:   true,
		Uptime:    now.Sub(c.started).Round(time.Second).String(),
		Timestamp: now.UTC(),
		Version:   c.version,
	}
	if len(checks) == 0 {
		status.Message = "No health checks registered"
		return status
	}

	status.Checks = make(map[string]CheckResult, len(checks))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := runCheck(ctx, check, timeout)
			mu.Lock()
			status.Checks[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	var failed []string
	for _, name := range slices.Sorted(maps.Keys(status.Checks)) {
		if !status.Checks[name].Healthy {
			failed = append(failed, name)
		}
	}
	if len(failed) == 0 {
		status.Message = "All checks passed"
		return status
	}
	status.Healthy = false
	status.Message = "Some checks failed: " + strings.Join(failed, ", ")
	return status
}

func runCheck(ctx context.Context, check HealthCheckFunc, timeout time.Duration) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	res := CheckResult{Healthy: err == nil, Message: "OK", Duration: time.Since(start).Round(time.Millisecond).String()}
	if err != nil {
		res.Message = err.Error()
	}
	return res
}
