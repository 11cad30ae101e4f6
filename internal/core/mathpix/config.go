package mathpix

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Config for the Mathpix client.
type Config struct {
	AppID           string
	AppKey          string
	BaseURL         string        // default https://api.mathpix.com/v3
	Timeout         time.Duration // per HTTP attempt, default 120s
	PollInterval    time.Duration // default 2s
	MaxPollAttempts int           // default 60
}

// Sleeper waits between status polls; tests swap it for a recorder.
type Sleeper func(ctx context.Context, d time.Duration) error

type Client struct {
	cfg    Config
	http   *http.Client
	sleep  Sleeper
	cache  Cache
	logger *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithCache enables the rendered-markdown artifact cache.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mathpix.com/v3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 60
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		sleep:  sleepContext,
		logger: logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IsConfigured reports whether both credentials are present.
func (c *Client) IsConfigured() bool {
	return c != nil && c.cfg.AppID != "" && c.cfg.AppKey != ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
