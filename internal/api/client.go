package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/serverdeck/serverdeck-go/internal/endpoint"
)

// Client performs authenticated REST requests against a ServerDeck agent.
// Every request is a single attempt; resilience belongs to the stream layer,
// and callers decide whether a failed call is worth repeating.
//
// The client tracks reachability across calls and fires the connectivity
// hooks only on transitions, so a flapping agent does not storm the caller
// with duplicate notifications.
type Client struct {
	endpoints  *endpoint.Builder
	httpClient *http.Client
	logger     *slog.Logger

	// online starts true: the agent is presumed reachable until a request
	// proves otherwise.
	online         atomic.Bool
	onOnline       func()
	onOffline      func(error)
	onUnauthorized func()
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a REST client that resolves URLs and credentials through
// the given endpoint builder.
func NewClient(endpoints *endpoint.Builder, opts ...ClientOption) *Client {
	c := &Client{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	c.online.Store(true)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithConnectivityHooks registers callbacks for reachability transitions.
// onOffline receives the transport error that demoted the agent; onOnline
// fires when a request succeeds after a failure.
func WithConnectivityHooks(onOnline func(), onOffline func(error)) ClientOption {
	return func(c *Client) {
		c.onOnline = onOnline
		c.onOffline = onOffline
	}
}

// WithUnauthorizedHook registers a callback fired on every 401 response,
// typically to prompt for fresh credentials.
func WithUnauthorizedHook(fn func()) ClientOption {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// Online reports whether the last request reached the agent.
func (c *Client) Online() bool {
	return c.online.Load()
}

func (c *Client) cameOnline() {
	if c.online.CompareAndSwap(false, true) {
		c.logger.Info("agent reachable again")
		if c.onOnline != nil {
			c.onOnline()
		}
	}
}

func (c *Client) wentOffline(err error) {
	if c.online.CompareAndSwap(true, false) {
		c.logger.Warn("agent unreachable", "error", err)
		if c.onOffline != nil {
			c.onOffline(err)
		}
	}
}
