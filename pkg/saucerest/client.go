// Package saucerest is a client for the Sauce Labs REST API (/rest/v1).
//
// A Client authenticates every request with HTTP Basic credentials, builds
// endpoint URLs, serializes JSON bodies and classifies responses into typed
// errors. Network I/O goes through an injectable httpclient.Transport; the
// default is resty-backed. A Client is immutable after New and safe for
// concurrent use.
package saucerest

import (
	"time"

	"github.com/samvad-hq/saucerest/pkg/httpclient"
)

// Client talks to one Sauce Labs account.
type Client struct {
	creds     Credentials
	cfg       ClientConfig
	auth      string
	endpoints Endpoints
	transport httpclient.Transport
	log       Logger
	observer  Observer
}

// Option customizes a Client at construction.
type Option func(*Client)

// WithTransport replaces the default resty transport, e.g. with a test double.
func WithTransport(t httpclient.Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log Logger) Option {
	return func(c *Client) { c.log = ensureLogger(log) }
}

// WithObserver sets the request observer, e.g. metrics.RequestMetrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = ensureObserver(o) }
}

// New builds a Client. Zero fields in cfg take their DefaultConfig values.
func New(creds Credentials, cfg ClientConfig, opts ...Option) (*Client, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	c := &Client{
		creds:     creds,
		cfg:       cfg,
		auth:      creds.AuthorizationHeader(),
		endpoints: NewEndpoints(creds.Username),
		log:       noopLogger{},
		observer:  noopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = httpclient.NewRestyTransport(httpclient.Options{
			ConnectTimeout: cfg.ConnectTimeout,
			ReadTimeout:    cfg.ReadTimeout,
		})
	}
	return c, nil
}

// Username returns the account name requests are made for.
func (c *Client) Username() string { return c.creds.Username }

// Config returns a copy of the client configuration.
func (c *Client) Config() ClientConfig { return c.cfg }

// UserAgent returns the User-Agent header sent with every request.
func (c *Client) UserAgent() string { return c.cfg.UserAgent }

// Observer receives one notification per network attempt.
type Observer interface {
	ObserveRequest(method, outcome string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveRequest(string, string, time.Duration) {}

func ensureObserver(o Observer) Observer {
	if o == nil {
		return noopObserver{}
	}
	return o
}
