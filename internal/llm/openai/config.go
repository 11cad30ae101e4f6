package openai

import (
	"log/slog"
	"net/http"
	"time"
)

// Config for the OpenAI-compatible client.
type Config struct {
	APIKey          string
	BaseURL         string // default https://api.openai.com/v1
	Model           string
	EmbeddingModel  string // empty disables Embed
	Temperature     float32
	Timeout         time.Duration // http client timeout
	LenientTriplets bool          // drop malformed triplets instead of failing the chunk
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http client (tests use a round-trip stub).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CanEmbed reports whether an embedding model is configured.
func (c *Client) CanEmbed() bool { return c != nil && c.cfg.EmbeddingModel != "" }

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
}
