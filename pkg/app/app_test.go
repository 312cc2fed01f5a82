package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"relayhq/courier/pkg/credstore"
	"relayhq/courier/pkg/httpmsg"
	"relayhq/courier/pkg/response"
	"relayhq/courier/pkg/routes"
	"relayhq/courier/pkg/server"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTracker(t *testing.T) *App {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.csv")
	if err := os.WriteFile(path, []byte("alice,s3cret\nbob,hunter2\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	store, err := credstore.OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV() error = %v", err)
	}
	builder := response.NewBuilder(t.TempDir(), discardLogger())
	return NewTracker(builder, store, nil, discardLogger())
}

func newPeer(t *testing.T, selfAddr string) *App {
	t.Helper()
	builder := response.NewBuilder(t.TempDir(), discardLogger())
	a := NewPeer(builder, selfAddr, nil, discardLogger())
	t.Cleanup(func() { a.Close() })
	return a
}

func form(pairs ...string) []byte {
	values := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		values.Set(pairs[i], pairs[i+1])
	}
	return []byte(values.Encode())
}

func emptyHeaders() *httpmsg.HeaderMap {
	return httpmsg.NewHeaderMap()
}

func TestRegisterPeerPool(t *testing.T) {
	a := newTracker(t)

	if got := a.registerPeerPool(emptyHeaders(), form("ip", "10.0.0.1", "port", "9001")); !got.OK {
		t.Fatalf("first registration Result.OK = false, want true")
	}
	if got := a.registerPeerPool(emptyHeaders(), form("ip", "10.0.0.1", "port", "9001")); got.OK {
		t.Fatalf("duplicate registration Result.OK = true, want false")
	}
	if got := a.registerPeerPool(emptyHeaders(), form("ip", "10.0.0.1")); got.OK {
		t.Fatalf("registration without port Result.OK = true, want false")
	}
}

func TestLoginAssignsPoolPeersInOrder(t *testing.T) {
	a := newTracker(t)
	a.registerPeerPool(emptyHeaders(), form("ip", "10.0.0.1", "port", "9001"))
	a.registerPeerPool(emptyHeaders(), form("ip", "10.0.0.2", "port", "9002"))

	first := a.login(emptyHeaders(), form("username", "alice", "password", "s3cret"))
	if first.Kind != routes.KindRedirect || first.Cookie != "auth=true" {
		t.Fatalf("first login = %+v, want auth=true redirect", first)
	}
	if first.Target != "http://10.0.0.1:9001" {
		t.Fatalf("first login target = %q, want first pool peer", first.Target)
	}

	second := a.login(emptyHeaders(), form("username", "bob", "password", "hunter2"))
	if second.Target != "http://10.0.0.2:9002" {
		t.Fatalf("second login target = %q, want second pool peer", second.Target)
	}

	// Pool exhausted: a valid login has nowhere to go.
	third := a.login(emptyHeaders(), form("username", "alice", "password", "s3cret"))
	if third.Kind != routes.KindNone {
		t.Fatalf("exhausted-pool login = %+v, want no result", third)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := newTracker(t)
	a.registerPeerPool(emptyHeaders(), form("ip", "10.0.0.1", "port", "9001"))

	got := a.login(emptyHeaders(), form("username", "alice", "password", "wrong"))
	if got.Kind != routes.KindRedirect || got.Cookie != "auth=false" {
		t.Fatalf("bad-credentials login = %+v, want auth=false redirect", got)
	}
	if got.Target != "/login.html" {
		t.Fatalf("bad-credentials target = %q, want /login.html", got.Target)
	}

	// The rejected login must not consume a pool peer.
	next := a.login(emptyHeaders(), form("username", "alice", "password", "s3cret"))
	if next.Target != "http://10.0.0.1:9001" {
		t.Fatalf("follow-up login target = %q, want the untouched pool peer", next.Target)
	}
}

func TestSubmitInfoAndGetList(t *testing.T) {
	a := newTracker(t)

	if got := a.submitInfo(emptyHeaders(), form("ip", "10.0.0.5", "port", "9005", "username", "carol")); !got.OK {
		t.Fatalf("submitInfo Result.OK = false, want true")
	}
	if got := a.submitInfo(emptyHeaders(), nil); got.OK {
		t.Fatalf("empty submitInfo Result.OK = true, want false")
	}

	list := a.getList(emptyHeaders(), nil)
	if list.Kind != routes.KindJSON {
		t.Fatalf("getList kind = %v, want JSON", list.Kind)
	}
	peers, ok := list.Value.([]map[string]string)
	if !ok || len(peers) != 1 {
		t.Fatalf("getList value = %#v, want one peer", list.Value)
	}
	want := map[string]string{"ip": "10.0.0.5", "port": "9005", "username": "carol"}
	if !reflect.DeepEqual(peers[0], want) {
		t.Fatalf("getList peer = %#v, want %#v", peers[0], want)
	}
}

func TestChannels(t *testing.T) {
	a := newTracker(t)

	if got := a.joinChannel(emptyHeaders(), form("channel", "general", "username", "alice")); got.Kind != routes.KindJSON {
		t.Fatalf("joinChannel = %+v, want JSON result", got)
	}
	a.joinChannel(emptyHeaders(), form("channel", "general", "username", "bob"))
	a.joinChannel(emptyHeaders(), form("channel", "dev", "username", "alice"))

	all := a.getAllChannels(emptyHeaders(), nil)
	if want := []string{"dev", "general"}; !reflect.DeepEqual(all.Value, want) {
		t.Fatalf("getAllChannels = %#v, want %#v", all.Value, want)
	}

	joined := a.getJoinedChannels(emptyHeaders(), form("username", "bob"))
	if want := []string{"general"}; !reflect.DeepEqual(joined.Value, want) {
		t.Fatalf("getJoinedChannels(bob) = %#v, want %#v", joined.Value, want)
	}

	sent := a.sendChannelMessage(emptyHeaders(), form("channel", "general", "username", "alice", "message", "hi"))
	if sent.Kind != routes.KindJSON {
		t.Fatalf("sendChannelMessage = %+v, want JSON result", sent)
	}

	// A non-member cannot post.
	if got := a.sendChannelMessage(emptyHeaders(), form("channel", "dev", "username", "bob", "message", "hi")); got.Kind != routes.KindNone {
		t.Fatalf("non-member sendChannelMessage = %+v, want no result", got)
	}

	msgs := a.getChannelMessages(emptyHeaders(), form("channel", "general"))
	entries, ok := msgs.Value.([]map[string]string)
	if !ok || len(entries) != 1 || entries[0]["message"] != "hi" {
		t.Fatalf("getChannelMessages = %#v, want the one posted message", msgs.Value)
	}

	empty := a.getChannelMessages(emptyHeaders(), form("channel", "nope"))
	if entries, ok := empty.Value.([]map[string]string); !ok || len(entries) != 0 {
		t.Fatalf("unknown channel messages = %#v, want empty", empty.Value)
	}
}

// startRemotePeer accepts one connection and relays every framed message
// it receives.
func startRemotePeer(t *testing.T) (addr string, messages chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	messages = make(chan string, 16)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		for {
			raw, err := server.ReadMessage(reader)
			if err != nil {
				return
			}
			messages <- string(raw)
		}
	}()
	return ln.Addr().String(), messages
}

func TestPeerConnectAndSend(t *testing.T) {
	addr, messages := startRemotePeer(t)
	host, port, _ := net.SplitHostPort(addr)
	a := newPeer(t, "10.0.0.9:9009")

	if got := a.connectPeer(emptyHeaders(), form("ip", host, "port", port)); !got.OK {
		t.Fatalf("connectPeer = %+v, want success", got)
	}
	if got := a.connectPeer(emptyHeaders(), form("ip", host, "port", port)); !got.OK || !strings.Contains(got.Message, "Already connected") {
		t.Fatalf("repeat connectPeer = %+v, want already-connected success", got)
	}

	peers := a.getConnectedPeers(emptyHeaders(), nil)
	if want := []string{addr}; !reflect.DeepEqual(peers.Value, want) {
		t.Fatalf("getConnectedPeers = %#v, want %#v", peers.Value, want)
	}

	if got := a.sendPeer(emptyHeaders(), form("ip", host, "port", port, "message", "hello there")); !got.OK {
		t.Fatalf("sendPeer = %+v, want success", got)
	}

	select {
	case raw := <-messages:
		if !strings.HasPrefix(raw, "POST /receive-message HTTP/1.1\r\n") {
			t.Fatalf("relayed message = %q, want a POST /receive-message request", raw)
		}
		_, body, _ := strings.Cut(raw, "\r\n\r\n")
		var payload map[string]string
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			t.Fatalf("message body %q is not JSON: %v", body, err)
		}
		if payload["message"] != "hello there" || payload["sender"] != "10.0.0.9:9009" {
			t.Fatalf("message payload = %#v", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("remote peer never received the message")
	}
}

func TestSendPeerWithoutConnection(t *testing.T) {
	a := newPeer(t, "10.0.0.9:9009")
	got := a.sendPeer(emptyHeaders(), form("ip", "10.0.0.1", "port", "9001", "message", "x"))
	if got.OK {
		t.Fatalf("sendPeer without connection = %+v, want failure", got)
	}
}

func TestBroadcastPeer(t *testing.T) {
	addrA, messagesA := startRemotePeer(t)
	addrB, messagesB := startRemotePeer(t)
	a := newPeer(t, "10.0.0.9:9009")

	for _, addr := range []string{addrA, addrB} {
		host, port, _ := net.SplitHostPort(addr)
		if got := a.connectPeer(emptyHeaders(), form("ip", host, "port", port)); !got.OK {
			t.Fatalf("connectPeer(%s) = %+v, want success", addr, got)
		}
	}

	if got := a.broadcastPeer(emptyHeaders(), form("message", "all hands")); !got.OK {
		t.Fatalf("broadcastPeer = %+v, want success", got)
	}
	for name, ch := range map[string]chan string{"a": messagesA, "b": messagesB} {
		select {
		case raw := <-ch:
			if !strings.Contains(raw, "all hands") {
				t.Fatalf("peer %s received %q, want the broadcast", name, raw)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("peer %s never received the broadcast", name)
		}
	}
}

func TestReceiveAndListMessages(t *testing.T) {
	a := newPeer(t, "10.0.0.9:9009")

	payload := []byte(`{"message":"ping","sender":"10.0.0.1:9001"}`)
	if got := a.receiveMessage(emptyHeaders(), payload); !got.OK {
		t.Fatalf("receiveMessage = %+v, want success", got)
	}
	if got := a.receiveMessage(emptyHeaders(), []byte("not json")); got.OK {
		t.Fatalf("malformed receiveMessage = %+v, want failure", got)
	}

	list := a.getReceivedMessages(emptyHeaders(), nil)
	entries, ok := list.Value.([]map[string]string)
	if !ok || len(entries) != 1 {
		t.Fatalf("getReceivedMessages = %#v, want one entry", list.Value)
	}
	if entries[0]["sender"] != "10.0.0.1:9001" || entries[0]["message"] != "ping" {
		t.Fatalf("received entry = %#v", entries[0])
	}
}

func TestHandleConnEndToEnd(t *testing.T) {
	a := newTracker(t)

	client, srv := net.Pipe()
	done := make(chan struct{})
	go func() {
		a.HandleConn(context.Background(), srv)
		close(done)
	}()

	body := string(form("ip", "10.0.0.1", "port", "9001"))
	request := fmt.Sprintf(
		"POST /register-peer-pool HTTP/1.1\r\nHost: tracker\r\nContent-Length: %d\r\n\r\n%s",
		len(body), body)
	if _, err := client.Write([]byte(request)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	reply, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	client.Close()
	<-done

	if !strings.HasPrefix(string(reply), "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("reply = %q, want a 200", reply)
	}
	if !strings.HasSuffix(string(reply), `{"status": "success"}`) {
		t.Fatalf("reply = %q, want the success envelope", reply)
	}
}

func TestRegisterWithTracker(t *testing.T) {
	a := newTracker(t)
	srv := server.New("127.0.0.1:0", a, time.Second, time.Second, discardLogger())
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	addr := srv.Addr().String()
	if err := RegisterWithTracker(addr, "10.0.0.1", "9001", 5*time.Second); err != nil {
		t.Fatalf("RegisterWithTracker() error = %v", err)
	}

	// The duplicate is refused with a non-200 status.
	if err := RegisterWithTracker(addr, "10.0.0.1", "9001", 5*time.Second); err == nil {
		t.Fatal("duplicate RegisterWithTracker() error = nil, want an error")
	}
}
