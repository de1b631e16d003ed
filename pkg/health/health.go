package health

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"ai-board-of-directors/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Status represents the health status of a component
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Component is the last observed state of one dependency
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Critical    bool      `json:"critical"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"lastChecked"`
}

// Check probes a single dependency
type Check func(ctx context.Context) (Status, string, error)

type registration struct {
	check    Check
	critical bool
}

// Checker runs registered checks periodically and serves the aggregate
type Checker struct {
	mu         sync.RWMutex
	checks     map[string]registration
	components map[string]*Component
	period     time.Duration
	timeout    time.Duration
	log        *logger.Logger
}

// NewChecker creates a new health checker
func NewChecker(log *logger.Logger, period time.Duration) *Checker {
	c := &Checker{
		checks:     make(map[string]registration),
		components: make(map[string]*Component),
		period:     period,
		timeout:    5 * time.Second,
		log:        log,
	}

	c.Register("self", false, func(context.Context) (Status, string, error) {
		return StatusUp, "Health checker is running", nil
	})

	return c
}

// Register adds a check. A critical component that is down makes the whole service unhealthy.
func (c *Checker) Register(name string, critical bool, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = registration{check: check, critical: critical}
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Critical:    critical,
		Description: "Not checked yet",
	}
}

// RegisterPinger registers a check around anything with a Ping method, such as the database or redis
func (c *Checker) RegisterPinger(name string, critical bool, ping func(ctx context.Context) error) {
	c.Register(name, critical, func(ctx context.Context) (Status, string, error) {
		if err := ping(ctx); err != nil {
			return StatusDown, fmt.Sprintf("%s unreachable", name), err
		}
		return StatusUp, fmt.Sprintf("%s reachable", name), nil
	})
}

// RunChecks executes all registered checks once
func (c *Checker) RunChecks(ctx context.Context) {
	c.mu.RLock()
	checks := make(map[string]registration, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.RUnlock()

	for name, reg := range checks {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		status, description, err := reg.check(cctx)
		cancel()

		c.mu.Lock()
		comp := c.components[name]
		comp.Status = status
		comp.Description = description
		comp.LastChecked = time.Now()
		comp.Error = ""
		if err != nil {
			comp.Error = err.Error()
		}
		c.mu.Unlock()

		if err != nil {
			c.log.Error("Health check failed", "component", name, "status", string(status), "error", err.Error())
		} else {
			c.log.Debug("Health check completed", "component", name, "status", string(status))
		}
	}
}

// Start runs checks immediately and then every period until ctx is done
func (c *Checker) Start(ctx context.Context) {
	c.RunChecks(ctx)

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunChecks(ctx)
		}
	}
}

// Components returns a copy of the current component states, sorted by name
func (c *Checker) Components() []Component {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Component, 0, len(c.components))
	for _, v := range c.components {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Healthy reports whether every critical component is up or degraded
func (c *Checker) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, comp := range c.components {
		if comp.Critical && comp.Status == StatusDown {
			return false
		}
	}
	return true
}

// Handler serves the aggregate status
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status, code := "ok", http.StatusOK
		if !c.Healthy() {
			status, code = "unavailable", http.StatusServiceUnavailable
		}

		ctx.JSON(code, gin.H{
			"status":     status,
			"timestamp":  time.Now().UTC(),
			"components": c.Components(),
		})
	}
}
