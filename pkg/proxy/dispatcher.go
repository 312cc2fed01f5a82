// Package proxy implements the virtual-host reverse proxy. It frames one
// client request, picks an origin for the request's Host, and relays
// bytes verbatim in both directions. The proxy never rewrites what it
// forwards; its only own responses are the canned 404 and 502.
package proxy

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"relayhq/courier/pkg/balance"
	"relayhq/courier/pkg/config"
	"relayhq/courier/pkg/httpmsg"
	"relayhq/courier/pkg/response"
	"relayhq/courier/pkg/server"
	"relayhq/courier/pkg/telemetry/metrics"
	"relayhq/courier/pkg/vhost"
)

// Dispatcher routes framed client requests to backends. The registry is
// swappable at runtime so a config reload never interrupts in-flight
// connections.
type Dispatcher struct {
	selector    *balance.Selector
	registry    atomic.Pointer[vhost.Registry]
	collector   *metrics.Collector
	dialTimeout time.Duration
	readTimeout time.Duration
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given registry. collector
// may be nil.
func NewDispatcher(registry *vhost.Registry, selector *balance.Selector, cfg config.ProxyConfig, collector *metrics.Collector, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		selector:    selector,
		collector:   collector,
		dialTimeout: cfg.DialTimeout,
		readTimeout: cfg.ReadTimeout,
		logger:      logger,
	}
	d.registry.Store(registry)
	return d
}

// Registry returns the currently active virtual host registry.
func (d *Dispatcher) Registry() *vhost.Registry {
	return d.registry.Load()
}

// SwapRegistry atomically replaces the registry. Rotation cursors are
// deliberately left alone; a reload must not restart every host's
// round robin.
func (d *Dispatcher) SwapRegistry(registry *vhost.Registry) {
	d.registry.Store(registry)
	d.logger.Info("virtual host registry swapped",
		slog.Int("hosts", registry.Len()))
}

// HandleConn serves one proxied exchange: read the client request, pick
// a backend, forward the raw bytes, and stream the backend's response
// back until it closes.
func (d *Dispatcher) HandleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	raw, err := server.ReadMessage(bufio.NewReader(conn))
	if err != nil || len(raw) == 0 {
		if err != nil && err != io.EOF {
			d.logger.Debug("failed to read client request", slog.String("error", err.Error()))
		}
		return
	}

	req := httpmsg.ParseRequest(raw)
	hostname := req.Headers.Get("host")
	logger := d.logger.With(
		slog.String("host", hostname),
		slog.String("method", req.Method),
		slog.String("path", req.Path),
	)

	vh, ok := d.registry.Load().Lookup(hostname)
	if !ok {
		logger.Warn("no virtual host for request")
		d.observeError(hostname, "no_route")
		conn.Write(response.NotFound())
		return
	}

	origin, err := d.selector.Next(vh)
	if err != nil {
		logger.Warn("virtual host has no origins")
		d.observeError(vh.Hostname, "no_backend")
		conn.Write(response.BadGateway())
		return
	}
	logger = logger.With(slog.String("origin", origin))

	backend, err := net.DialTimeout("tcp", origin, d.dialTimeout)
	if err != nil {
		logger.Warn("backend dial failed", slog.String("error", err.Error()))
		d.observeError(vh.Hostname, "dial")
		conn.Write(response.BadGateway())
		return
	}
	defer backend.Close()

	if d.readTimeout > 0 {
		deadline := time.Now().Add(d.readTimeout)
		backend.SetDeadline(deadline)
		conn.SetDeadline(deadline)
	}

	if _, err := backend.Write(raw); err != nil {
		logger.Warn("failed to forward request", slog.String("error", err.Error()))
		d.observeError(vh.Hostname, "relay")
		conn.Write(response.BadGateway())
		return
	}

	// The backend's bytes pass through untouched. A failure before any
	// byte reaches the client still allows a clean 502; after that the
	// response is the backend's problem.
	n, err := io.Copy(conn, backend)
	if err != nil && n == 0 {
		logger.Warn("failed to relay response", slog.String("error", err.Error()))
		d.observeError(vh.Hostname, "relay")
		conn.Write(response.BadGateway())
		return
	}
	if err != nil {
		logger.Warn("response relay interrupted",
			slog.Int64("bytes", n),
			slog.String("error", err.Error()))
		return
	}

	logger.Debug("request forwarded", slog.Int64("response_bytes", n))
	if d.collector != nil {
		d.collector.ObserveForward(vh.Hostname, origin)
	}
}

func (d *Dispatcher) observeError(hostname, reason string) {
	if d.collector != nil {
		d.collector.ObserveProxyError(hostname, reason)
	}
}
