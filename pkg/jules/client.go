package jules

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the default Jules API base URL.
	DefaultBaseURL = "https://jules.googleapis.com/v1alpha"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is used by list operations when pageSize is 0.
	DefaultPageSize = 10

	// DefaultStartingBranch is the branch new sessions start from.
	DefaultStartingBranch = "main"

	// titleLength is the number of characters of the prompt used as the
	// default session title.
	titleLength = 50
)

// Client is the Jules API client.
type Client struct {
	config *clientConfig
	http   *httpClient
}

type clientConfig struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	startingBranch string
	logger         *slog.Logger
}

// Option is a function that configures the client.
type Option func(*clientConfig)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout. Ignored when WithHTTPClient is
// given.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithStartingBranch sets the branch new sessions start from.
func WithStartingBranch(branch string) Option {
	return func(c *clientConfig) {
		c.startingBranch = branch
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// NewClient creates a new Jules API client.
//
// Example:
//
//	client := jules.NewClient("your-api-key")
//	client := jules.NewClient("your-api-key", jules.WithStartingBranch("develop"))
func NewClient(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{
		apiKey:         apiKey,
		baseURL:        DefaultBaseURL,
		timeout:        DefaultTimeout,
		startingBranch: DefaultStartingBranch,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{
			Timeout: cfg.timeout,
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Client{
		config: cfg,
		http:   newHTTPClient(cfg),
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.baseURL
}
