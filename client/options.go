package client

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds every API request.
const DefaultTimeout = 2 * time.Second

// DefaultBasePath is where the job API is mounted.
const DefaultBasePath = "/api"

// Option configures an APIClient.
type Option func(*APIClient)

// WithTimeout replaces the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *APIClient) { c.httpClient.Timeout = timeout }
}

// WithHTTPClient uses the given client. Its Timeout is kept as is.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *APIClient) { c.httpClient = httpClient }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *APIClient) { c.logger = logger }
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(userAgent string) Option {
	return func(c *APIClient) { c.userAgent = userAgent }
}
