package response

import (
	"net/textproto"
	"strconv"
	"time"

	"relayhq/courier/pkg/httpmsg"
)

// httpTimeFormat is the RFC1123 layout for the Date header; HTTP dates are
// always expressed in GMT.
const httpTimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// Response holds the state of one response under construction. It keeps a
// non-owning reference to the originating request so header assembly can
// echo a few request headers back.
type Response struct {
	// StatusCode and Reason form the status line.
	StatusCode int
	Reason     string

	// Headers holds response-specific overrides applied on top of the
	// request-derived baseline.
	Headers *httpmsg.HeaderMap

	// Cookies are emitted as one Set-Cookie header each.
	Cookies *httpmsg.HeaderMap

	// Content is the loaded body.
	Content []byte

	// Elapsed is the time spent building the response.
	Elapsed time.Duration

	request *httpmsg.Request
}

// NewResponse creates a response for req with a 200 status.
func NewResponse(req *httpmsg.Request) *Response {
	return &Response{
		StatusCode: 200,
		Reason:     "OK",
		Headers:    httpmsg.NewHeaderMap(),
		Cookies:    httpmsg.NewHeaderMap(),
		request:    req,
	}
}

// encode serializes the response: status line, one "Key: Value" line per
// assembled header, a blank line, then the raw content bytes.
//
// The baseline is derived from the request (a few headers are echoed, the
// rest are fixed compatibility values); response-specific headers overlay
// the baseline.
func (r *Response) encode(contentType string, now time.Time) []byte {
	reqhdr := r.request.Headers

	headers := httpmsg.NewHeaderMap()
	headers.Set("Accept", headerOrDefault(reqhdr, "accept", "application/json"))
	headers.Set("Accept-Language", headerOrDefault(reqhdr, "accept-language", "en-US,en;q=0.9"))
	headers.Set("Authorization", headerOrDefault(reqhdr, "authorization", "Basic <credentials>"))
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Content-Type", contentType)
	headers.Set("Content-Length", strconv.Itoa(len(r.Content)))
	headers.Set("Date", now.UTC().Format(httpTimeFormat))
	headers.Set("Max-Forward", "10")
	headers.Set("Pragma", "no-cache")
	headers.Set("Proxy-Authorization", "Basic dXNlcjpwYXNz")
	headers.Set("Warning", "199 Miscellaneous warning")
	headers.Set("User-Agent", headerOrDefault(reqhdr, "user-agent", "Chrome/123.0.0.0"))

	for _, key := range r.Headers.Keys() {
		headers.Set(key, r.Headers.Get(key))
	}

	buf := make([]byte, 0, 512+len(r.Content))
	buf = append(buf, "HTTP/1.1 "+strconv.Itoa(r.StatusCode)+" "+r.Reason+"\r\n"...)
	for _, key := range headers.Keys() {
		buf = append(buf, textproto.CanonicalMIMEHeaderKey(key)+": "+headers.Get(key)+"\r\n"...)
	}
	for _, name := range r.Cookies.Keys() {
		buf = append(buf, "Set-Cookie: "+name+"="+r.Cookies.Get(name)+"\r\n"...)
	}
	buf = append(buf, "\r\n"...)
	buf = append(buf, r.Content...)
	return buf
}

func headerOrDefault(m *httpmsg.HeaderMap, key, fallback string) string {
	if v, ok := m.Lookup(key); ok {
		return v
	}
	return fallback
}
