package balance

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"relayhq/courier/pkg/vhost"
)

// Prober periodically dials every configured backend and records
// unreachable origins in the selector, so rotation skips them until a
// later probe succeeds. Probing is opt-in: without it the proxy stays
// health-agnostic and a failed backend keeps consuming rotation turns.
type Prober struct {
	selector *Selector
	registry func() *vhost.Registry
	schedule string
	timeout  time.Duration

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	logger  *slog.Logger

	// onProbe is invoked per probed origin with the result; the metrics
	// layer hooks the backend_up gauge here. Optional.
	onProbe func(hostname, origin string, up bool)
}

// NewProber creates a prober that reads the current registry through
// registry on each run. schedule is standard cron syntax ("*/1 * * * *"
// probes every minute).
func NewProber(selector *Selector, registry func() *vhost.Registry, schedule string, timeout time.Duration, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Prober{
		selector: selector,
		registry: registry,
		schedule: schedule,
		timeout:  timeout,
		cron:     cron.New(),
		logger:   logger.With("component", "balance.prober"),
	}
}

// OnProbe registers a per-origin probe result callback.
func (p *Prober) OnProbe(fn func(hostname, origin string, up bool)) {
	p.onProbe = fn
}

// Start validates the schedule and begins probing. The first probe runs
// immediately so a backend that was down at startup is marked before the
// first scheduled tick.
func (p *Prober) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("prober already running")
	}
	if p.schedule == "" {
		p.logger.Info("probe schedule not configured, staying health-agnostic")
		return nil
	}

	if _, err := cron.ParseStandard(p.schedule); err != nil {
		return fmt.Errorf("invalid probe schedule %q: %w", p.schedule, err)
	}
	if _, err := p.cron.AddFunc(p.schedule, func() { p.probeAll(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule probing: %w", err)
	}

	go p.probeAll(ctx)
	p.cron.Start()
	p.running = true
	p.logger.Info("backend prober started", "schedule", p.schedule, "timeout", p.timeout.String())
	return nil
}

// Stop halts scheduled probing and waits for an in-flight run to finish.
func (p *Prober) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
	p.logger.Info("backend prober stopped")
}

func (p *Prober) probeAll(ctx context.Context) {
	registry := p.registry()
	if registry == nil {
		return
	}

	for _, hostname := range registry.Hostnames() {
		vh, ok := registry.Lookup(hostname)
		if !ok {
			continue
		}
		for _, origin := range vh.Backends {
			select {
			case <-ctx.Done():
				return
			default:
			}
			p.probe(hostname, origin)
		}
	}
}

func (p *Prober) probe(hostname, origin string) {
	conn, err := net.DialTimeout("tcp", origin, p.timeout)
	up := err == nil
	if up {
		conn.Close()
		p.selector.MarkUp(hostname, origin)
	} else {
		p.selector.MarkDown(hostname, origin)
		p.logger.Warn("backend unreachable, skipping in rotation",
			"host", hostname,
			"backend", origin,
			"error", err,
		)
	}
	if p.onProbe != nil {
		p.onProbe(hostname, origin, up)
	}
}
