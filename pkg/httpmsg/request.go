package httpmsg

import (
	"strconv"
	"strings"
)

// Request is the structured form of one parsed HTTP/1.1 message.
// It lives for a single connection and is discarded once the response
// has been written.
type Request struct {
	// Method is the HTTP verb from the request line ("" if malformed).
	Method string

	// Path is the normalized request path. A bare "/" canonicalizes to
	// "/index.html" during parsing.
	Path string

	// Version is the protocol token from the request line (e.g. "HTTP/1.1").
	Version string

	// Headers holds the header block, keys lower-cased, duplicates
	// resolved last-write-wins.
	Headers *HeaderMap

	// Cookies holds the parsed Cookie header (name -> value).
	Cookies *HeaderMap

	// Body is the raw message body: everything after the first CRLFCRLF.
	Body []byte
}

// ParseRequest parses a fully buffered HTTP/1.1 message.
//
// The Content-Length header is always recomputed from the extracted body's
// exact byte length; a client-supplied value is overwritten. A malformed
// request line leaves Method/Path/Version empty rather than returning an
// error, so routing can degrade to a not-found response downstream.
func ParseRequest(raw []byte) *Request {
	req := &Request{
		Headers: NewHeaderMap(),
		Cookies: NewHeaderMap(),
	}

	head := string(raw)
	if i := strings.Index(head, "\r\n\r\n"); i >= 0 {
		req.Body = raw[i+4:]
		head = head[:i]
	}

	req.Method, req.Path, req.Version = parseRequestLine(head)
	req.Headers = parseHeaders(head)

	if cookie, ok := req.Headers.Lookup("cookie"); ok {
		req.Cookies = ParseCookieHeader(cookie)
		// Re-serialize so the stored header is canonical regardless of
		// the client's spacing.
		if canonical := req.CookieHeader(); canonical != "" {
			req.Headers.Set("cookie", canonical)
		} else {
			req.Headers.Del("cookie")
		}
	}

	req.Headers.Set("content-length", strconv.Itoa(len(req.Body)))
	return req
}

// parseRequestLine splits the first line of the message into its three
// tokens. Any malformed first line (missing tokens, empty input) yields
// empty sentinels.
func parseRequestLine(head string) (method, path, version string) {
	line, _, _ := strings.Cut(head, "\r\n")
	line = strings.TrimSuffix(line, "\n")
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return "", "", ""
	}
	method, path, version = fields[0], fields[1], fields[2]
	if path == "/" {
		path = "/index.html"
	}
	return method, path, version
}

// parseHeaders splits the head on CRLF and each line on the first ": ".
// Lines without ": " (including the request line) are dropped silently.
func parseHeaders(head string) *HeaderMap {
	headers := NewHeaderMap()
	for _, line := range strings.Split(head, "\r\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok || key == "" {
			continue
		}
		headers.Set(key, value)
	}
	return headers
}

// ParseCookieHeader parses a Cookie header value ("a=1; b=2") into a
// case-insensitive name -> value map. A segment without '=' maps to the
// empty string.
func ParseCookieHeader(value string) *HeaderMap {
	cookies := NewHeaderMap()
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, ok := strings.Cut(part, "=")
		if !ok {
			cookies.Set(part, "")
			continue
		}
		cookies.Set(strings.TrimSpace(name), strings.TrimSpace(val))
	}
	return cookies
}

// CookieHeader re-serializes the parsed cookies to the canonical
// "name=value; name2=value2" form. The round trip is semantically, not
// necessarily literally, identical to the client's header.
func (r *Request) CookieHeader() string {
	if r.Cookies == nil || r.Cookies.Len() == 0 {
		return ""
	}
	pairs := make([]string, 0, r.Cookies.Len())
	for _, name := range r.Cookies.Keys() {
		pairs = append(pairs, name+"="+r.Cookies.Get(name))
	}
	return strings.Join(pairs, "; ")
}

// ContentLength returns the parser-computed body length in bytes.
func (r *Request) ContentLength() int {
	return len(r.Body)
}
