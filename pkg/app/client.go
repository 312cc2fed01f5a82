package app

import (
	"bufio"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"relayhq/courier/pkg/server"
)

// RegisterWithTracker announces a peer's ip and port to the tracker's
// /register-peer-pool route and waits for the acknowledgement. The peer
// role calls this once at startup.
func RegisterWithTracker(trackerAddr, ip, port string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", trackerAddr, timeout)
	if err != nil {
		return fmt.Errorf("failed to reach tracker %s: %w", trackerAddr, err)
	}
	defer conn.Close()
	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
	}

	form := url.Values{"ip": {ip}, "port": {port}}.Encode()
	request := fmt.Sprintf(
		"POST /register-peer-pool HTTP/1.1\r\nHost: %s\r\nContent-Type: application/x-www-form-urlencoded\r\nContent-Length: %d\r\n\r\n%s",
		trackerAddr, len(form), form)
	if _, err := conn.Write([]byte(request)); err != nil {
		return fmt.Errorf("failed to send registration: %w", err)
	}

	reply, err := server.ReadMessage(bufio.NewReader(conn))
	if err != nil {
		return fmt.Errorf("failed to read registration reply: %w", err)
	}
	if !strings.HasPrefix(string(reply), "HTTP/1.1 200 ") {
		return fmt.Errorf("tracker rejected registration: %q", statusOf(reply))
	}
	return nil
}
