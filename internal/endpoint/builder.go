// Package endpoint builds authenticated HTTP and WebSocket URLs for a deck
// server.
//
// REST calls carry credentials in headers. WebSocket URLs carry them as query
// parameters instead, because a browser WebSocket handshake cannot set custom
// headers; the Go client keeps the same placement so both speak one dialect.
package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultAPIPrefix is prepended to every logical path unless overridden.
const DefaultAPIPrefix = "/api"

// Credentials carries the client's credential material. When both fields are
// set the API key wins.
type Credentials struct {
	APIKey string // sent as X-API-Key header / api_key query parameter
	Token  string // sent as Authorization: Bearer header / token query parameter
}

// Builder turns logical endpoint paths into absolute URLs for one server
// origin. It is immutable after construction; the same inputs always yield
// byte-identical URLs.
type Builder struct {
	origin *url.URL
	prefix string
	creds  Credentials
}

// Option configures a Builder.
type Option func(*Builder)

// WithAPIPrefix overrides the API prefix. An empty prefix disables prefixing.
func WithAPIPrefix(prefix string) Option {
	return func(b *Builder) {
		b.prefix = normalizePrefix(prefix)
	}
}

// NewBuilder creates a Builder for the given server origin, e.g.
// "https://deck.example.com:8443".
func NewBuilder(origin string, creds Credentials, opts ...Option) (*Builder, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("origin scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("origin host is required")
	}

	b := &Builder{
		origin: u,
		prefix: DefaultAPIPrefix,
		creds:  creds,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// HTTPURL returns the absolute HTTP URL for a logical path. Credentials are
// not embedded; callers attach Headers() to the request.
func (b *Builder) HTTPURL(path string) string {
	u := *b.origin
	u.Path = b.joinPrefix(path)
	return u.String()
}

// Headers returns the credential headers for REST calls.
func (b *Builder) Headers() http.Header {
	h := http.Header{}
	switch {
	case b.creds.APIKey != "":
		h.Set("X-API-Key", b.creds.APIKey)
	case b.creds.Token != "":
		h.Set("Authorization", "Bearer "+b.creds.Token)
	}
	return h
}

// WSURL returns the absolute WebSocket URL for a logical path, translating
// http to ws and https to wss and placing credentials in the query string.
func (b *Builder) WSURL(path string, query url.Values) string {
	u := *b.origin
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = b.joinPrefix(path)

	q := url.Values{}
	for k, vs := range query {
		q[k] = vs
	}
	switch {
	case b.creds.APIKey != "":
		q.Set("api_key", b.creds.APIKey)
	case b.creds.Token != "":
		q.Set("token", b.creds.Token)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// joinPrefix prepends the API prefix without double-prefixing paths that
// already carry it.
func (b *Builder) joinPrefix(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if b.prefix == "" {
		return path
	}
	if path == b.prefix || strings.HasPrefix(path, b.prefix+"/") {
		return path
	}
	return b.prefix + path
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}
