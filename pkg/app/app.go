// Package app implements the sample application shipped with the engine:
// a tracker that hands authenticated users a peer from a registered pool,
// and a peer daemon that exchanges direct messages with other peers.
//
// The package exists to exercise the engine end to end. All state lives
// on the App value; nothing here is global.
package app

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"relayhq/courier/pkg/credstore"
	"relayhq/courier/pkg/httpmsg"
	"relayhq/courier/pkg/response"
	"relayhq/courier/pkg/routes"
	"relayhq/courier/pkg/server"
	"relayhq/courier/pkg/telemetry/metrics"
)

// poolPeer is one tracker pool entry. A peer is used once: login assigns
// it to the authenticated user and it never comes back.
type poolPeer struct {
	ip   string
	port string
	used bool
}

// channel is a named message room tracked by the tracker.
type channel struct {
	members  []string
	messages []map[string]string
}

// App holds one daemon's routes and mutable state. Construct with
// NewTracker or NewPeer depending on the role.
type App struct {
	table     *routes.Table
	builder   *response.Builder
	creds     credstore.Store
	collector *metrics.Collector
	logger    *slog.Logger

	// selfAddr identifies this daemon in peer-to-peer messages.
	selfAddr string

	mu        sync.Mutex
	pool      []*poolPeer
	active    []map[string]string
	usernames []string
	conns     map[string]net.Conn
	received  []map[string]string
	channels  map[string]*channel
}

func newApp(builder *response.Builder, collector *metrics.Collector, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		table:     routes.NewTable(),
		builder:   builder,
		collector: collector,
		logger:    logger.With("component", "app"),
		conns:     make(map[string]net.Conn),
		channels:  make(map[string]*channel),
	}
}

// NewTracker creates the tracker-role application: peer pool
// registration, peer listing, channels, and credential-backed login.
func NewTracker(builder *response.Builder, creds credstore.Store, collector *metrics.Collector, logger *slog.Logger) *App {
	a := newApp(builder, collector, logger)
	a.creds = creds

	a.table.Register("POST", "/register-peer-pool", a.registerPeerPool)
	a.table.Register("POST", "/submit-info", a.submitInfo)
	a.table.Register("GET", "/get-list", a.getList)
	a.table.Register("POST", "/submit-username", a.submitUsername)
	a.table.Register("POST", "/login", a.login)

	a.table.Register("POST", "/join-channel", a.joinChannel)
	a.table.Register("GET", "/get-all-channels", a.getAllChannels)
	a.table.Register("GET", "/get-joined-channels", a.getJoinedChannels)
	a.table.Register("POST", "/send-channel-message", a.sendChannelMessage)
	a.table.Register("POST", "/get-channel-messages", a.getChannelMessages)
	return a
}

// NewPeer creates the peer-role application. selfAddr is the "ip:port"
// other peers reach this daemon at; it is stamped on outgoing messages.
func NewPeer(builder *response.Builder, selfAddr string, collector *metrics.Collector, logger *slog.Logger) *App {
	a := newApp(builder, collector, logger)
	a.selfAddr = selfAddr

	a.table.Register("PUT", "/hello", a.hello)
	a.table.Register("POST", "/connect-peer", a.connectPeer)
	a.table.Register("POST", "/send-peer", a.sendPeer)
	a.table.Register("POST", "/receive-message", a.receiveMessage)
	a.table.Register("GET", "/get-received-messages", a.getReceivedMessages)
	a.table.Register("GET", "/get-connected-peers", a.getConnectedPeers)
	a.table.Register("POST", "/broadcast-peer", a.broadcastPeer)
	return a
}

// Routes exposes the route table, mainly for tests.
func (a *App) Routes() *routes.Table {
	return a.table
}

// HandleConn serves one request: frame, parse, dispatch to the matched
// handler, shape the response, write it back.
func (a *App) HandleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	start := time.Now()

	raw, err := server.ReadMessage(bufio.NewReader(conn))
	if err != nil || len(raw) == 0 {
		return
	}

	req := httpmsg.ParseRequest(raw)
	if host, port, splitErr := net.SplitHostPort(conn.RemoteAddr().String()); splitErr == nil {
		req.Headers.Set("x-connection-ip", host)
		req.Headers.Set("x-connection-port", port)
	}

	result := routes.NoResult()
	if handler, ok := a.table.Lookup(req.Method, req.Path); ok {
		result = handler(req.Headers, req.Body)
	}

	out := a.builder.Build(req, result)
	if _, err := conn.Write(out); err != nil {
		a.logger.Warn("failed to write response",
			"method", req.Method, "path", req.Path, "error", err)
		return
	}

	status := statusOf(out)
	if a.collector != nil {
		a.collector.ObserveRequest(req.Method, status, time.Since(start))
	}
	a.logger.Debug("request served",
		"method", req.Method, "path", req.Path, "status", status)
}

// Close tears down any peer connections this daemon opened.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for addr, conn := range a.conns {
		conn.Close()
		delete(a.conns, addr)
	}
	return nil
}

// statusOf extracts the status code from encoded response bytes.
func statusOf(out []byte) string {
	line, _, _ := bytes.Cut(out, []byte("\r\n"))
	fields := strings.Fields(string(line))
	if len(fields) < 2 {
		return "0"
	}
	return fields[1]
}

// parseForm decodes an x-www-form-urlencoded body. A malformed body
// decodes to an empty set rather than an error; handlers treat missing
// fields as the failure case.
func parseForm(body []byte) url.Values {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return url.Values{}
	}
	return values
}
