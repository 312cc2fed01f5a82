package response

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"relayhq/courier/pkg/httpmsg"
	"relayhq/courier/pkg/routes"
)

// Builder constructs response bytes for parsed requests. Content is served
// from per-MIME subdirectories (www/, static/, csv/, xml/, apps/, videos/)
// under the configured root.
type Builder struct {
	root   string
	logger *slog.Logger

	// now is swappable for tests asserting the Date header.
	now func() time.Time
}

// NewBuilder creates a response builder serving content from root.
func NewBuilder(root string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		root:   root,
		logger: logger.With("component", "response"),
		now:    time.Now,
	}
}

type apiKey struct {
	path   string
	method string
}

// shapeFunc turns a handler result into response bytes for one API route.
type shapeFunc func(result routes.Result) []byte

// apiShapes is the fixed API table, checked before static serving. Each
// entry inspects the matched handler's result and emits JSON success or
// failure, a JSON echo, or a 500 when no result is present.
var apiShapes = map[apiKey]shapeFunc{
	{"/get-channel-messages", "POST"}: shapeEcho,
	{"/send-channel-message", "POST"}: shapeEcho,
	{"/get-joined-channels", "GET"}:   shapeChannels,
	{"/get-all-channels", "GET"}:      shapeChannels,
	{"/join-channel", "POST"}:         shapeEcho,
	{"/submit-username", "POST"}:      shapeFlag,
	{"/broadcast-peer", "POST"}:       shapeBroadcast,
	{"/get-received-messages", "GET"}: shapeEcho,
	{"/get-connected-peers", "GET"}:   shapeEcho,
	{"/register-peer-pool", "POST"}:   shapeFlagStrict,
	{"/get-list", "GET"}:              shapeEcho,
	{"/submit-info", "POST"}:          shapeFlag,
	{"/connect-peer", "POST"}:         shapeOutcome,
	{"/send-peer", "POST"}:            shapeOutcome,
	{"/receive-message", "POST"}:      shapeOutcome,
}

// Build constructs the full response for req given the matched handler's
// result. API routes are shaped first, then the login flow, then the
// generic cookie-redirect convention, and finally static serving.
func (b *Builder) Build(req *httpmsg.Request, result routes.Result) []byte {
	b.logger.Info("building response", "method", req.Method, "path", req.Path)

	if shape, ok := apiShapes[apiKey{path: req.Path, method: req.Method}]; ok {
		return shape(result)
	}

	if req.Path == "/login" {
		switch req.Method {
		case "GET":
			return b.serveFile(req, "/login.html", "text/html")
		case "POST":
			return shapeLogin(result)
		}
	}

	// Any handler result carrying a cookie redirects or rejects, no matter
	// the route.
	if result.Kind == routes.KindRedirect {
		if result.Cookie == "auth=true" {
			return Redirect(result.Target, true)
		}
		return Unauthorized()
	}

	return b.serveStatic(req)
}

// serveStatic resolves the request path to a file under the content root.
// The root page requires the auth cookie before any file access.
func (b *Builder) serveStatic(req *httpmsg.Request) []byte {
	path := req.Path
	mimeType := MIMEType(path)

	switch {
	case path == "/index.html":
		if req.Cookies.Get("auth") != "true" {
			return Unauthorized()
		}
		mimeType = "text/html"
	case path == "/login.html":
		mimeType = "text/html"
	case strings.HasSuffix(path, "favicon.ico"):
		// Forced regardless of the extension guess.
		mimeType = "image/x-icon"
	}

	return b.serveFile(req, path, mimeType)
}

// serveFile loads the file backing path from the directory its MIME type
// maps to, then assembles the 200 response around it. An unsupported MIME
// type is an internal error; a missing file degrades to the canonical 404.
func (b *Builder) serveFile(req *httpmsg.Request, path, mimeType string) []byte {
	start := b.now()

	dir, err := ContentDir(mimeType)
	if err != nil {
		b.logger.Error("content type validation failed", "path", path, "error", err)
		return InternalServerError()
	}

	location := filepath.Join(b.root, dir, strings.TrimPrefix(path, "/"))
	content, err := os.ReadFile(location)
	if err != nil {
		b.logger.Warn("content missing", "location", location, "error", err)
		return NotFound()
	}

	resp := NewResponse(req)
	resp.Content = content
	resp.Elapsed = b.now().Sub(start)
	return resp.encode(mimeType, b.now())
}

// shapeLogin shapes the POST /login result. A result cookie of auth=true
// with a present target redirects there with a Set-Cookie header; auth=true
// without a target means the login handler could not assign a destination
// and is an internal error; any other cookie value is a 401; an absent
// result is an internal error.
func shapeLogin(result routes.Result) []byte {
	if result.Kind != routes.KindRedirect {
		return InternalServerError()
	}
	if result.Cookie != "auth=true" {
		return Unauthorized()
	}
	if result.Target == "" {
		return InternalServerError()
	}
	return Redirect(result.Target, true)
}

// shapeEcho serializes a JSON result verbatim.
func shapeEcho(result routes.Result) []byte {
	if result.Kind != routes.KindJSON {
		return InternalServerError()
	}
	body, err := json.Marshal(result.Value)
	if err != nil {
		return InternalServerError()
	}
	return JSONResponse(body)
}

// shapeChannels wraps a JSON result in the channel-list envelope.
func shapeChannels(result routes.Result) []byte {
	if result.Kind != routes.KindJSON {
		return InternalServerError()
	}
	channels, err := json.Marshal(result.Value)
	if err != nil {
		return InternalServerError()
	}
	body := append([]byte(`{"status": "success", "channels": `), channels...)
	body = append(body, '}')
	return JSONResponse(body)
}

// shapeFlag maps a boolean result to the success/failure envelope.
func shapeFlag(result routes.Result) []byte {
	if result.Kind != routes.KindFlag {
		return InternalServerError()
	}
	if result.OK {
		return JSONResponse([]byte(`{"status": "success"}`))
	}
	return JSONResponse([]byte(`{"status": "failure"}`))
}

// shapeFlagStrict maps a boolean result to success, treating failure as an
// internal error rather than a failure envelope.
func shapeFlagStrict(result routes.Result) []byte {
	if result.Kind != routes.KindFlag || !result.OK {
		return InternalServerError()
	}
	return JSONResponse([]byte(`{"status": "success"}`))
}

// shapeBroadcast acknowledges a successful broadcast with a fixed message.
func shapeBroadcast(result routes.Result) []byte {
	if result.Kind != routes.KindOutcome || !result.OK {
		return InternalServerError()
	}
	return JSONResponse([]byte(`{"status": "success", "message": "Broadcast sent"}`))
}

// shapeOutcome maps an outcome result to a success or error envelope
// carrying the handler's message.
func shapeOutcome(result routes.Result) []byte {
	if result.Kind != routes.KindOutcome {
		return InternalServerError()
	}
	status := "error"
	if result.OK {
		status = "success"
	}
	body, err := json.Marshal(map[string]string{
		"status":  status,
		"message": result.Message,
	})
	if err != nil {
		return InternalServerError()
	}
	return JSONResponse(body)
}
