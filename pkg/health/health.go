// Package health tracks the outcome of named checks against data sources.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redbco/redb-datasync/pkg/datasource"
)

// Status is the result of a check or of the checker as a whole.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc is a function that performs a health check
type CheckFunc func(ctx context.Context) error

// Check represents a single health check result
type Check struct {
	Name        string
	Status      Status
	Message     string
	LastChecked time.Time
}

// Checker manages health checks
type Checker struct {
	mu     sync.RWMutex
	checks map[string]*Check
}

// NewChecker creates a new health checker
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]*Check),
	}
}

// RunCheck executes a health check and records its status
func (c *Checker) RunCheck(ctx context.Context, name string, checkFunc CheckFunc) *Check {
	status := StatusHealthy
	message := "OK"

	if err := checkFunc(ctx); err != nil {
		status = StatusUnhealthy
		message = err.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	check := &Check{
		Name:        name,
		Status:      status,
		Message:     message,
		LastChecked: time.Now(),
	}
	c.checks[name] = check

	checkCopy := *check
	return &checkCopy
}

// GetOverallStatus returns the overall health status
func (c *Checker) GetOverallStatus() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.checks) == 0 {
		return StatusHealthy
	}

	unhealthyCount := 0
	for _, check := range c.checks {
		if check.Status == StatusUnhealthy {
			unhealthyCount++
		}
	}

	if unhealthyCount == 0 {
		return StatusHealthy
	} else if unhealthyCount < len(c.checks) {
		return StatusDegraded
	}

	return StatusUnhealthy
}

// GetAllChecks returns all health check results ordered by name
func (c *Checker) GetAllChecks() []*Check {
	c.mu.RLock()
	defer c.mu.RUnlock()

	checks := make([]*Check, 0, len(c.checks))
	for _, check := range c.checks {
		checkCopy := *check
		checks = append(checks, &checkCopy)
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })

	return checks
}

// ConnectedCheck passes while ds reports a live connection.
func ConnectedCheck(ds datasource.DataSource) CheckFunc {
	return func(ctx context.Context) error {
		if !ds.IsConnected() {
			return fmt.Errorf("%s datasource %s is not connected", ds.Type(), ds.ID())
		}
		return nil
	}
}

// QueryCheck runs an empty query against ds and passes when it succeeds.
func QueryCheck(ds datasource.DataSource) CheckFunc {
	return func(ctx context.Context) error {
		_, err := ds.Query(ctx, datasource.Criterion{}, nil).Wait(ctx)
		return err
	}
}
