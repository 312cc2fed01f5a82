// Package routes maps (method, path) pairs to application handlers.
//
// The table is exact-match only: no wildcards, no path parameters.
// Registration is a one-time startup step; lookups are lock-free reads
// for the lifetime of the process.
package routes

import "relayhq/courier/pkg/httpmsg"

// Handler is the contract every route handler implements. It receives the
// parsed request headers and raw body and returns a tagged Result that the
// response builder shapes into bytes.
type Handler func(headers *httpmsg.HeaderMap, body []byte) Result

// Kind tags the variant held by a Result.
type Kind int

const (
	// KindNone means the handler produced nothing.
	KindNone Kind = iota
	// KindJSON carries a JSON-serializable payload.
	KindJSON
	// KindFlag carries a bare success/failure boolean.
	KindFlag
	// KindOutcome carries a success flag plus a human-readable message.
	KindOutcome
	// KindRedirect carries a redirect target and a Set-Cookie value.
	KindRedirect
)

// Result is the tagged variant a handler returns. Exactly one shape is
// populated per kind; the response builder switches exhaustively on Kind.
type Result struct {
	Kind Kind

	// Value is the JSON payload for KindJSON.
	Value any

	// OK is the outcome for KindFlag and KindOutcome.
	OK bool

	// Message accompanies KindOutcome.
	Message string

	// Target is the redirect location for KindRedirect.
	Target string

	// Cookie is the Set-Cookie value for KindRedirect (e.g. "auth=true").
	Cookie string
}

// NoResult reports that the handler produced nothing.
func NoResult() Result { return Result{Kind: KindNone} }

// JSON wraps a JSON-serializable payload.
func JSON(v any) Result { return Result{Kind: KindJSON, Value: v} }

// Flag wraps a bare success/failure boolean.
func Flag(ok bool) Result { return Result{Kind: KindFlag, OK: ok} }

// Outcome wraps a success flag with a message.
func Outcome(ok bool, message string) Result {
	return Result{Kind: KindOutcome, OK: ok, Message: message}
}

// Redirect wraps a redirect target and the cookie to set alongside it.
func Redirect(target, cookie string) Result {
	return Result{Kind: KindRedirect, Target: target, Cookie: cookie}
}

type routeKey struct {
	method string
	path   string
}

// Table is the static route table. Build it before serving begins; it is
// not safe for concurrent mutation, only for concurrent lookups.
type Table struct {
	entries map[routeKey]Handler
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{entries: make(map[routeKey]Handler)}
}

// Register binds handler to (method, path). Re-registering the same key
// silently replaces the previous binding.
func (t *Table) Register(method, path string, handler Handler) {
	t.entries[routeKey{method: method, path: path}] = handler
}

// Lookup returns the handler bound to (method, path), if any.
func (t *Table) Lookup(method, path string) (Handler, bool) {
	h, ok := t.entries[routeKey{method: method, path: path}]
	return h, ok
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	return len(t.entries)
}
