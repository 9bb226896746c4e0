package health

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"
)

// Check and overall statuses.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports a component's problem, or nil when it is healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ms,omitempty"`
}

// HealthStatus represents the overall health status of the process.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// ErrCheckTimeout is reported when a health check outlives the check timeout.
var ErrCheckTimeout = errors.New("health check timeout")

// Checker runs the registered checks for the readiness endpoint.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc

	checkTimeout time.Duration
	now          func() time.Time
}

// New returns a Checker that bounds every check by checkTimeout, or 5s
// when it is zero.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout <= 0 {
		checkTimeout = 5 * time.Second
	}

	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
		now:          time.Now,
	}
}

// RegisterCheck adds check under name, replacing any previous one.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// UnregisterCheck removes the check registered under name.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.checks, name)
}

// ListChecks returns the sorted names of all registered health checks.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Sorted(maps.Keys(c.checks))
}

// CheckLiveness reports that the process is up. It runs no checks.
func (c *Checker) CheckLiveness(context.Context) HealthStatus {
	return HealthStatus{Status: StatusOK, Timestamp: c.now()}
}

// CheckReadiness runs every registered check concurrently and aggregates
// the results. Any unhealthy check makes the process degraded.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := maps.Clone(c.checks)
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Go(func() {
			result := c.runCheck(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		})
	}
	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status == StatusUnhealthy {
			status = StatusDegraded
		}
	}

	return HealthStatus{Status: status, Checks: results, Timestamp: c.now()}
}

// runCheck runs check under the per-check timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	// Buffered so a check that ignores its context can still finish.
	errCh := make(chan error, 1)
	go func() {
		errCh <- check(checkCtx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error(), Duration: time.Since(start)}
		}
		return CheckResult{Status: StatusOK, Duration: time.Since(start)}

	case <-checkCtx.Done():
		return CheckResult{Status: StatusUnhealthy, Message: ErrCheckTimeout.Error(), Duration: time.Since(start)}
	}
}
