// Package vhost maps hostnames to ordered backend lists parsed from an
// nginx-like configuration grammar:
//
//	host "<name>" {
//	    proxy_pass http://<origin>;
//	    dist_policy <token>;
//	}
//
// The registry is built once from config text and is immutable afterwards;
// a config reload builds a fresh registry and swaps it in atomically.
package vhost

import "strings"

// Policy selects the algorithm distributing a virtual host's traffic over
// its backends.
type Policy string

const (
	// PolicyRoundRobin rotates through the backend list in order. It is
	// the default for absent or unrecognized policy tokens.
	PolicyRoundRobin Policy = "round-robin"
)

// ParsePolicy normalizes a dist_policy token. Tokens may carry a leading
// dash ("-round-robin"); anything unrecognized defaults to round-robin.
func ParsePolicy(token string) Policy {
	token = strings.TrimPrefix(strings.TrimSpace(token), "-")
	switch Policy(token) {
	case PolicyRoundRobin:
		return PolicyRoundRobin
	default:
		return PolicyRoundRobin
	}
}

// VirtualHost is one logical hostname mapped to its backend origins.
// Backends preserve config order and duplicates. A host with zero backends
// is valid but unroutable.
type VirtualHost struct {
	Hostname string
	Backends []string
	Policy   Policy
}

// Registry maps hostnames to virtual hosts. Lookups are exact string
// matches; no wildcard or suffix matching is performed.
type Registry struct {
	hosts map[string]*VirtualHost
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{hosts: make(map[string]*VirtualHost)}
}

// add inserts or overwrites the entry for vh.Hostname. Later blocks for a
// repeated hostname overwrite earlier ones, no merge.
func (r *Registry) add(vh *VirtualHost) {
	if _, ok := r.hosts[vh.Hostname]; !ok {
		r.order = append(r.order, vh.Hostname)
	}
	r.hosts[vh.Hostname] = vh
}

// Lookup resolves hostname to its virtual host, if configured.
func (r *Registry) Lookup(hostname string) (*VirtualHost, bool) {
	vh, ok := r.hosts[hostname]
	return vh, ok
}

// Hostnames returns the configured hostnames in document order.
func (r *Registry) Hostnames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of configured virtual hosts.
func (r *Registry) Len() int {
	return len(r.hosts)
}
