// Package probe periodically verifies provider connectivity on a cron
// schedule and reports the result to logs and metrics. Probes use the
// provider's independent test path, so they never disturb production
// backoff state.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/echoreply/echoreply/internal/config"
	"github.com/echoreply/echoreply/internal/provider"
)

// Target is the subset of the AI client the prober needs.
type Target interface {
	TestConnection(ctx context.Context) provider.TestResult
	Provider() config.Provider
}

// Prober runs a connection test on a five-field cron schedule. A tick
// that fires while the previous probe is still in flight is skipped.
type Prober struct {
	schedule string
	target   Target
	gauge    prometheus.Gauge // may be nil
	logger   *slog.Logger

	running sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
}

// New creates a Prober. An empty schedule disables it.
func New(schedule string, target Target, gauge prometheus.Gauge, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		schedule: schedule,
		target:   target,
		gauge:    gauge,
		logger:   logger,
	}
}

// Start begins scheduled probing. No-op when no schedule is configured.
func (p *Prober) Start() error {
	if p.schedule == "" {
		p.logger.Debug("connection probe disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	p.cron = cron.New(cron.WithParser(parser))

	if _, err := p.cron.AddFunc(p.schedule, func() {
		// TryLock is atomic: if the previous probe is still running,
		// skip this tick instead of stacking probes.
		if !p.running.TryLock() {
			p.logger.Warn("probe still running, skipping tick")
			return
		}
		defer p.running.Unlock()
		p.RunOnce(ctx)
	}); err != nil {
		cancel()
		return fmt.Errorf("probe: invalid schedule %q: %w", p.schedule, err)
	}

	p.cron.Start()
	p.logger.Info("connection probe scheduled", "schedule", p.schedule)
	return nil
}

// RunOnce performs a single probe and records the result.
func (p *Prober) RunOnce(ctx context.Context) {
	res := p.target.TestConnection(ctx)
	if res.Success {
		p.setGauge(1)
		p.logger.Info("provider probe ok",
			"provider", p.target.Provider(),
			"model", res.ModelName,
		)
		return
	}
	p.setGauge(0)
	p.logger.Warn("provider probe failed",
		"provider", p.target.Provider(),
		"error", res.ErrorMessage(),
	)
}

func (p *Prober) setGauge(v float64) {
	if p.gauge != nil {
		p.gauge.Set(v)
	}
}

// Stop halts scheduling and waits for an in-flight probe to finish.
func (p *Prober) Stop(_ context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.cron != nil {
		<-p.cron.Stop().Done()
		p.logger.Info("connection probe stopped")
	}
	return nil
}
