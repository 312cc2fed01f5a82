package httpmsg

import "strings"

// HeaderMap is a key/value container with case-insensitive key comparison.
// Keys are stored lower-cased; setting an existing key overwrites its value
// (last write wins). Iteration order is insertion order, which keeps
// serialized output deterministic.
//
// It backs both the header block and the parsed cookie set of a request.
type HeaderMap struct {
	keys   []string
	values map[string]string
}

// NewHeaderMap creates an empty HeaderMap.
func NewHeaderMap() *HeaderMap {
	return &HeaderMap{values: make(map[string]string)}
}

// Set stores value under the lower-cased key, replacing any previous value.
func (m *HeaderMap) Set(key, value string) {
	k := strings.ToLower(key)
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = value
}

// Get returns the value for key, or "" if the key is absent.
func (m *HeaderMap) Get(key string) string {
	return m.values[strings.ToLower(key)]
}

// Lookup returns the value for key and whether the key is present.
func (m *HeaderMap) Lookup(key string) (string, bool) {
	v, ok := m.values[strings.ToLower(key)]
	return v, ok
}

// Has reports whether key is present.
func (m *HeaderMap) Has(key string) bool {
	_, ok := m.values[strings.ToLower(key)]
	return ok
}

// Del removes key if present.
func (m *HeaderMap) Del(key string) {
	k := strings.ToLower(key)
	if _, ok := m.values[k]; !ok {
		return
	}
	delete(m.values, k)
	for i, existing := range m.keys {
		if existing == k {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of stored keys.
func (m *HeaderMap) Len() int {
	return len(m.keys)
}

// Keys returns the stored keys in insertion order.
func (m *HeaderMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Clone returns an independent copy of the map.
func (m *HeaderMap) Clone() *HeaderMap {
	c := NewHeaderMap()
	for _, k := range m.keys {
		c.Set(k, m.values[k])
	}
	return c
}
