package httpmsg

import (
	"encoding/base64"
	"strings"
)

// AuthScheme classifies an Authorization header value.
type AuthScheme string

const (
	// AuthBasic is HTTP Basic authentication (base64 "user:pass").
	AuthBasic AuthScheme = "basic"
	// AuthBearer is bearer-token authentication.
	AuthBearer AuthScheme = "bearer"
	// AuthDigest is HTTP Digest authentication.
	AuthDigest AuthScheme = "digest"
	// AuthUnknown covers every unrecognized scheme.
	AuthUnknown AuthScheme = "unknown"
)

// Authorization is the classified form of an Authorization header.
// For Basic, Username and Password carry the decoded credential pair.
// For Bearer, Token carries the opaque token. For Digest, Token carries
// the full unparsed header value.
type Authorization struct {
	Scheme   AuthScheme
	Username string
	Password string
	Token    string
}

// ParseAuthorization classifies an Authorization header value.
//
// A Basic value whose base64 payload cannot be decoded, or decodes to
// something without a ':' separator, yields a sentinel Authorization with
// the basic scheme and empty credentials rather than an error.
func ParseAuthorization(header string) Authorization {
	header = strings.TrimSpace(header)
	if header == "" {
		return Authorization{Scheme: AuthUnknown}
	}

	scheme, rest, _ := strings.Cut(header, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(scheme) {
	case "basic":
		decoded, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return Authorization{Scheme: AuthBasic}
		}
		username, password, ok := strings.Cut(string(decoded), ":")
		if !ok {
			return Authorization{Scheme: AuthBasic}
		}
		return Authorization{Scheme: AuthBasic, Username: username, Password: password}
	case "bearer":
		return Authorization{Scheme: AuthBearer, Token: rest}
	case "digest":
		return Authorization{Scheme: AuthDigest, Token: header}
	default:
		return Authorization{Scheme: AuthUnknown}
	}
}

// Authorization classifies the request's Authorization header, if any.
func (r *Request) Authorization() Authorization {
	if r.Headers == nil {
		return Authorization{Scheme: AuthUnknown}
	}
	return ParseAuthorization(r.Headers.Get("authorization"))
}
