// Package health runs a periodic storage probe so availability transitions
// show up in the logs even when no request is degrading.
package health

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Pinger probes the backing store. Satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker probes storage on an interval and tracks availability.
type Checker struct {
	db        Pinger
	cfg       Config
	logger    *zap.Logger
	mu        sync.Mutex
	failCount int
	degraded  bool
}

// New creates a Checker.
func New(db Pinger, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}
	return &Checker{db: db, cfg: cfg, logger: logger}
}

// Start runs the probe loop until quit is signalled.
func (c *Checker) Start(quit <-chan os.Signal) {
	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ProbeTimeout)
			c.Check(ctx)
			cancel()
		case <-quit:
			return
		}
	}
}

// Check runs a single probe and records the availability transition.
func (c *Checker) Check(ctx context.Context) {
	err := c.db.Ping(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		if c.degraded {
			c.logger.Info("storage recovered")
		}
		c.failCount = 0
		c.degraded = false
		return
	}

	c.failCount++
	if !c.degraded && c.failCount >= c.cfg.FailThreshold {
		c.degraded = true
		c.logger.Warn("storage degraded: reads will return empty results",
			zap.Int("fail_count", c.failCount),
			zap.Error(err),
		)
	}
}

// Degraded reports whether the store is currently considered unavailable.
func (c *Checker) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}
