package app

import (
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"time"

	"relayhq/courier/pkg/httpmsg"
	"relayhq/courier/pkg/routes"
)

// peerDialTimeout bounds the outbound dial a /connect-peer request
// triggers.
const peerDialTimeout = 5 * time.Second

// hello acknowledges nothing. The route exists so a bare PUT /hello can
// probe whether a peer daemon is answering at all.
func (a *App) hello(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	return routes.NoResult()
}

// connectPeer opens and keeps a TCP connection to another peer.
func (a *App) connectPeer(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	form := parseForm(body)
	ip, port := form.Get("ip"), form.Get("port")
	if ip == "" || port == "" {
		return routes.Outcome(false, "Missing ip or port")
	}
	addr := net.JoinHostPort(ip, port)

	a.mu.Lock()
	_, exists := a.conns[addr]
	a.mu.Unlock()
	if exists {
		return routes.Outcome(true, "Already connected to "+addr)
	}

	conn, err := net.DialTimeout("tcp", addr, peerDialTimeout)
	if err != nil {
		a.logger.Warn("peer dial failed", "address", addr, "error", err)
		return routes.Outcome(false, "Failed to connect to "+addr)
	}

	a.mu.Lock()
	a.conns[addr] = conn
	a.mu.Unlock()
	a.logger.Info("peer connected", "address", addr)
	return routes.Outcome(true, "Connected to "+addr)
}

// sendPeer delivers a message to a previously connected peer by writing
// a POST /receive-message request down the held connection.
func (a *App) sendPeer(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	form := parseForm(body)
	ip, port, message := form.Get("ip"), form.Get("port"), form.Get("message")
	if ip == "" || port == "" {
		return routes.Outcome(false, "Missing ip or port")
	}
	addr := net.JoinHostPort(ip, port)

	a.mu.Lock()
	conn, ok := a.conns[addr]
	a.mu.Unlock()
	if !ok {
		return routes.Outcome(false, "No connection to "+addr)
	}

	if err := a.writeMessage(conn, addr, message); err != nil {
		a.logger.Warn("peer send failed", "address", addr, "error", err)
		a.mu.Lock()
		delete(a.conns, addr)
		a.mu.Unlock()
		conn.Close()
		return routes.Outcome(false, "Failed to send to "+addr)
	}
	return routes.Outcome(true, "Message sent to "+addr)
}

// receiveMessage accepts a message pushed by another peer and stores it
// for later retrieval.
func (a *App) receiveMessage(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	var payload struct {
		Message string `json:"message"`
		Sender  string `json:"sender"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return routes.Outcome(false, "Malformed message payload")
	}

	a.mu.Lock()
	a.received = append(a.received, map[string]string{
		"sender":  payload.Sender,
		"message": payload.Message,
	})
	a.mu.Unlock()
	a.logger.Info("message received", "sender", payload.Sender)
	return routes.Outcome(true, "Message received")
}

// getReceivedMessages returns every stored inbound message in arrival
// order.
func (a *App) getReceivedMessages(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := make([]map[string]string, len(a.received))
	copy(list, a.received)
	return routes.JSON(list)
}

// getConnectedPeers returns the addresses of held peer connections.
func (a *App) getConnectedPeers(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	a.mu.Lock()
	addrs := make([]string, 0, len(a.conns))
	for addr := range a.conns {
		addrs = append(addrs, addr)
	}
	a.mu.Unlock()
	sort.Strings(addrs)
	return routes.JSON(addrs)
}

// broadcastPeer sends one message to every held connection. Connections
// that fail mid-broadcast are dropped; the broadcast itself still
// succeeds for the rest.
func (a *App) broadcastPeer(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	message := parseForm(body).Get("message")

	a.mu.Lock()
	targets := make(map[string]net.Conn, len(a.conns))
	for addr, conn := range a.conns {
		targets[addr] = conn
	}
	a.mu.Unlock()

	for addr, conn := range targets {
		if err := a.writeMessage(conn, addr, message); err != nil {
			a.logger.Warn("broadcast delivery failed", "address", addr, "error", err)
			a.mu.Lock()
			delete(a.conns, addr)
			a.mu.Unlock()
			conn.Close()
		}
	}
	return routes.Outcome(true, "Broadcast sent")
}

// writeMessage frames message as a POST /receive-message request and
// writes it to conn.
func (a *App) writeMessage(conn net.Conn, addr, message string) error {
	payload, err := json.Marshal(map[string]string{
		"message": message,
		"sender":  a.selfAddr,
	})
	if err != nil {
		return err
	}
	raw := fmt.Sprintf(
		"POST /receive-message HTTP/1.1\r\nHost: %s\r\nContent-Type: application/json\r\nContent-Length: %d\r\n\r\n%s",
		addr, len(payload), payload)
	_, err = conn.Write([]byte(raw))
	return err
}
