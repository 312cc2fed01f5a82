package response

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// ErrUnsupportedMIME is returned when a resolved MIME type has no storage
// directory mapping. It surfaces as an internal error, not a silent 404.
type UnsupportedMIMEError struct {
	MIMEType string
}

// Error implements the error interface.
func (e *UnsupportedMIMEError) Error() string {
	return fmt.Sprintf("unsupported MIME type %q", e.MIMEType)
}

// MIMEType resolves a request path to a MIME type from its extension.
//
// Unknown extensions on html-like paths (".html" suffix, the root, the
// login page) resolve to text/html; everything else unknown falls back to
// application/octet-stream. Favicon handling is the builder's concern.
func MIMEType(path string) string {
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	// TypeByExtension appends a charset parameter for text types; the
	// directory mapping and Content-Type header want the bare type.
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" {
		if strings.HasSuffix(path, ".html") || path == "/" || path == "/index.html" || path == "/login" {
			return "text/html"
		}
		return "application/octet-stream"
	}
	return mimeType
}

// ContentDir maps a MIME type's main type to the base storage directory the
// content is served from. Unsupported text subtypes and unsupported main
// types are a hard validation failure.
func ContentDir(mimeType string) (string, error) {
	mainType, subType, ok := strings.Cut(mimeType, "/")
	if !ok {
		return "", &UnsupportedMIMEError{MIMEType: mimeType}
	}

	switch mainType {
	case "text":
		switch subType {
		case "plain", "css":
			return "static", nil
		case "html":
			return "www", nil
		case "csv":
			return "csv", nil
		case "xml":
			return "xml", nil
		default:
			return "", &UnsupportedMIMEError{MIMEType: mimeType}
		}
	case "image":
		return "static", nil
	case "application":
		return "apps", nil
	case "video":
		return "videos", nil
	default:
		return "", &UnsupportedMIMEError{MIMEType: mimeType}
	}
}
