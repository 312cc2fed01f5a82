// Courier is a raw-socket HTTP/1.1 engine with a virtual-host reverse
// proxy in front of it.
//
// It serves static content and a small peer-to-peer sample application
// from per-MIME content directories, and proxies by Host header across
// round-robin backend pools.
//
// Usage:
//
//	# Start the application daemon with default configuration
//	courier serve
//
//	# Start the tracker on a specific address
//	courier serve --listen 0.0.0.0:8000 --role tracker
//
//	# Start the reverse proxy with a virtual host config
//	courier proxy --hosts config/proxy.conf
//
//	# Show version information
//	courier version
package main

func main() {
	Execute()
}
