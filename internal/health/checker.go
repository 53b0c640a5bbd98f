package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/objaverse/platform/internal/config"
	"github.com/objaverse/platform/internal/metrics"
)

type State string

const (
	StateStarting  State = "starting"
	StateReady     State = "ready"
	StateUnready   State = "unready"
	StateUnhealthy State = "unhealthy"
)

// Probe checks one downstream dependency. Vital probes affect liveness:
// FailureThreshold consecutive failing rounds of a vital probe turn the
// process Unhealthy so the orchestrator restarts it. Non-vital probes only
// gate readiness.
type Probe struct {
	Name  string
	Vital bool
	Check func(ctx context.Context) error
}

// Checker polls dependency probes on its own ticker and caches the result.
// Request handlers only read the cached state, so a slow dependency check can
// never stall user traffic or fake a liveness failure.
type Checker struct {
	cfg    *config.HealthConfig
	logger *zap.Logger
	probes []Probe

	mu         sync.RWMutex
	state      State
	vitalFails int
}

func NewChecker(cfg *config.HealthConfig, logger *zap.Logger, probes ...Probe) *Checker {
	return &Checker{
		cfg:    cfg,
		logger: logger,
		probes: probes,
		state:  StateStarting,
	}
}

// Run polls until ctx is canceled. The first round runs immediately so the
// service does not sit in Starting for a full interval.
func (c *Checker) Run(ctx context.Context) {
	c.round(ctx)
	ticker := time.NewTicker(c.cfg.ProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.round(ctx)
		}
	}
}

func (c *Checker) round(ctx context.Context) {
	ready := true
	vitalFailed := false
	for _, p := range c.probes {
		probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
		err := p.Check(probeCtx)
		cancel()
		if err != nil {
			ready = false
			if p.Vital {
				vitalFailed = true
			}
			metrics.ReadinessProbeFailures.WithLabelValues(p.Name).Inc()
			c.logger.Warn("dependency probe failed",
				zap.String("probe", p.Name),
				zap.Error(err),
			)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if vitalFailed {
		c.vitalFails++
	} else {
		c.vitalFails = 0
	}

	switch {
	case c.vitalFails >= c.cfg.FailureThreshold:
		if c.state != StateUnhealthy {
			c.logger.Error("liveness threshold exceeded, reporting unhealthy",
				zap.Int("consecutive_failures", c.vitalFails),
			)
		}
		c.state = StateUnhealthy
	case ready:
		c.state = StateReady
	default:
		c.state = StateUnready
	}
}

func (c *Checker) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Ready reports whether all dependencies passed the last round.
func (c *Checker) Ready() bool {
	return c.State() == StateReady
}

// Live reports whether the process should keep running. Dependency outages
// leave it true; only repeated vital failures flip it.
func (c *Checker) Live() bool {
	return c.State() != StateUnhealthy
}
