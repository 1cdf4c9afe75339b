package sdk

import (
	"log/slog"
	"net/url"
	"strconv"

	"github.com/serverdeck/serverdeck-go/internal/api"
	"github.com/serverdeck/serverdeck-go/internal/config"
	"github.com/serverdeck/serverdeck-go/internal/endpoint"
	"github.com/serverdeck/serverdeck-go/internal/stream"
)

// Client bundles the pieces needed to talk to one ServerDeck agent: an
// endpoint builder for URLs and credentials, a REST client, and factories
// for the terminal and stats streams.
type Client struct {
	cfg       *config.Config
	logger    *slog.Logger
	endpoints *endpoint.Builder
	rest      *api.Client
}

// New creates a Client from validated configuration.
func New(cfg *config.Config, logger *slog.Logger, restOpts ...api.ClientOption) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []endpoint.Option{}
	if cfg.Agent.APIPrefix != "" {
		opts = append(opts, endpoint.WithAPIPrefix(cfg.Agent.APIPrefix))
	}
	endpoints, err := endpoint.NewBuilder(cfg.Agent.Origin, endpoint.Credentials{
		APIKey: cfg.Agent.APIKey,
		Token:  cfg.Agent.Token,
	}, opts...)
	if err != nil {
		return nil, err
	}

	restOpts = append([]api.ClientOption{
		api.WithTimeout(cfg.Agent.Timeout),
		api.WithLogger(logger),
	}, restOpts...)

	return &Client{
		cfg:       cfg,
		logger:    logger,
		endpoints: endpoints,
		rest:      api.NewClient(endpoints, restOpts...),
	}, nil
}

// Endpoints returns the endpoint builder.
func (c *Client) Endpoints() *endpoint.Builder { return c.endpoints }

// REST returns the authenticated request client.
func (c *Client) REST() *api.Client { return c.rest }

// Terminal creates a terminal stream rooted at cwd. size may be nil; the
// stream is not connected until Connect is called on it.
func (c *Client) Terminal(cwd string, size *stream.TerminalSize) (*stream.TerminalStream, error) {
	query := url.Values{}
	if cwd != "" {
		query.Set("cwd", cwd)
	}
	if size != nil {
		query.Set("cols", strconv.Itoa(int(size.Cols)))
		query.Set("rows", strconv.Itoa(int(size.Rows)))
	}

	return stream.NewTerminalStream(stream.Config{
		URL:              c.endpoints.WSURL("/terminal", query),
		Policy:           c.cfg.Terminal.Policy(),
		HandshakeTimeout: c.cfg.Terminal.HandshakeTimeout,
	}, size, stream.WithLogger(c.logger))
}

// Stats creates a stats stream delivering system metrics snapshots.
func (c *Client) Stats() (*stream.StatsStream, error) {
	return stream.NewStatsStream(stream.Config{
		URL:              c.endpoints.WSURL("/system/stats/ws", nil),
		Policy:           c.cfg.Stats.Policy(),
		HandshakeTimeout: c.cfg.Stats.HandshakeTimeout,
	}, stream.WithLogger(c.logger))
}
