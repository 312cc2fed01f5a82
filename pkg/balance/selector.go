// Package balance picks the backend serving each proxied request.
//
// The only mutable shared state in the proxy core lives here: one rotation
// cursor per virtual host, advanced on every selection. Health marks set
// by the optional prober bias the rotation but never change its cadence
// for healthy hosts.
package balance

import (
	"errors"
	"fmt"
	"sync"

	"relayhq/courier/pkg/vhost"
)

// ErrNoBackends is returned when a virtual host has no origins to route to.
var ErrNoBackends = errors.New("no backends configured for virtual host")

// Selector owns the per-virtual-host rotation cursors. Cursors survive a
// registry reload, so hosts whose backend lists are unchanged keep their
// rotation position.
//
// Selector is safe for concurrent use; the cursor read-advance is a single
// critical section so two concurrent requests can neither compute the same
// index nor skip one.
type Selector struct {
	mu      sync.Mutex
	cursors map[string]int
	// down marks backends the prober found unreachable, keyed by
	// hostname then origin. Empty unless probing is enabled.
	down map[string]map[string]bool
}

// NewSelector creates a selector with all cursors at zero.
func NewSelector() *Selector {
	return &Selector{
		cursors: make(map[string]int),
		down:    make(map[string]map[string]bool),
	}
}

// Next picks the backend for the next request to vh and advances the
// host's cursor. Unsupported policies fall back to round-robin.
//
// When the prober has marked backends down, marked origins are skipped --
// but each skipped origin still consumed its rotation turn, and if every
// origin is marked the selection falls back to plain rotation rather than
// failing.
func (s *Selector) Next(vh *vhost.VirtualHost) (string, error) {
	n := len(vh.Backends)
	if n == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoBackends, vh.Hostname)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Only round-robin is implemented; ParsePolicy already folds anything
	// else into it, this is the safety net for hand-built hosts.
	cursor := s.cursors[vh.Hostname]
	backend := vh.Backends[cursor%n]
	s.cursors[vh.Hostname] = cursor + 1

	if marks := s.down[vh.Hostname]; len(marks) > 0 && marks[backend] {
		for i := 1; i < n; i++ {
			candidate := vh.Backends[(cursor+i)%n]
			if !marks[candidate] {
				s.cursors[vh.Hostname] = cursor + i + 1
				return candidate, nil
			}
		}
		// Every origin is marked down: keep plain rotation and let the
		// dispatcher surface the gateway error.
	}

	return backend, nil
}

// MarkDown records that origin failed its last probe for hostname.
func (s *Selector) MarkDown(hostname, origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down[hostname] == nil {
		s.down[hostname] = make(map[string]bool)
	}
	s.down[hostname][origin] = true
}

// MarkUp clears a down mark for origin.
func (s *Selector) MarkUp(hostname, origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.down[hostname], origin)
}

// Reset zeroes every cursor and clears all health marks.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors = make(map[string]int)
	s.down = make(map[string]map[string]bool)
}
