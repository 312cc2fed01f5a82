// Package httpmsg parses raw HTTP/1.1 messages into structured requests.
//
// The parser assumes the full message (request line, headers, blank line,
// body) is already buffered; framing a message off a socket is the server
// package's job. Parsing never fails hard: a malformed request line, header
// line, or Authorization value degrades to empty or sentinel values so the
// caller can still produce a well-formed 4xx/5xx response.
package httpmsg
