// Package authapi is the HTTP call layer of the authentication service
// client. Each method issues exactly one request and interprets the status
// code through a fixed per-endpoint dispatch, returning a validated typed
// result or a typed error from the apierrors taxonomy.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/a-novel/connector-authentication-go/apierrors"
	"github.com/a-novel/connector-authentication-go/bindings"
	"github.com/a-novel/connector-authentication-go/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings of a Client. BaseURL is the only required
// field.
type Config struct {
	// BaseURL is the root URL of the authentication service, without a
	// trailing slash.
	BaseURL string `env:"AUTH_API_URL"`
	// Timeout bounds every request. Ignored when HTTPClient is set.
	Timeout time.Duration `env:"AUTH_API_TIMEOUT, default=10s"`

	// LogLevel is the minimum level of the logger built by ConfigFromEnv.
	// Ignored when Logger is set explicitly.
	LogLevel string `env:"AUTH_API_LOG_LEVEL, default=info"`
	// LogPretty switches the ConfigFromEnv logger to console output.
	LogPretty bool `env:"AUTH_API_LOG_PRETTY"`

	// HTTPClient overrides the underlying transport. Optional.
	HTTPClient *http.Client
	// Logger receives per-call debug logs. Optional, discards by default.
	Logger *zerolog.Logger
}

// ConfigFromEnv reads a Config from environment variables using go-envconfig
// and builds its logger from the AUTH_API_LOG_* settings.
func ConfigFromEnv(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("authapi: load config: %w", err)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	cfg.Logger = &log

	return cfg, nil
}

// Client calls the authentication service. Clients are safe for concurrent
// use and multiple independently configured clients can coexist in a
// process.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        zerolog.Logger
}

// New builds a Client from an explicit Config. It fails fast when the base
// URL is absent or unparseable.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("authapi: base URL is not set")
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("authapi: parse base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &Client{baseURL: base, httpClient: httpClient, log: log}, nil
}

// path resolves an endpoint path and optional query parameters against the
// base URL.
func (c *Client) path(p string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + p
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do builds and sends one request. A non-empty token is attached as a bearer
// Authorization header; a non-nil body is marshalled as JSON.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, &apierrors.InternalError{Message: fmt.Sprintf("marshal request: %v", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.path(path, query), reader)
	if err != nil {
		return nil, &apierrors.InternalError{Message: fmt.Sprintf("build request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apierrors.InternalError{Message: fmt.Sprintf("%s %s: %v", method, path, err)}
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("auth api call")

	return resp, nil
}

// readBody drains the response body for inclusion in error messages. It
// never fails: read errors are reported inline, matching the diagnostic-only
// role of error bodies.
func readBody(resp *http.Response) string {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("read response: %v", err)
	}
	return string(raw)
}

// internalError builds the InternalError for an unmapped non-2xx status.
func internalError(op string, resp *http.Response) error {
	return &apierrors.InternalError{
		Message: apierrors.NewErrorResponseMessage(op, resp.StatusCode, readBody(resp)),
		Status:  resp.StatusCode,
	}
}

// decodeResponse parses and validates a response body. Schema failures on
// the response side are internal errors: the service broke its own contract.
func decodeResponse[T any](op string, resp *http.Response) (*T, error) {
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &apierrors.InternalError{
			Message: fmt.Sprintf("%s: decode response: %v", op, err),
			Status:  resp.StatusCode,
		}
	}
	if err := bindings.Validate(&out); err != nil {
		return nil, &apierrors.InternalError{
			Message: fmt.Sprintf("%s: invalid response: %v", op, err),
			Status:  resp.StatusCode,
		}
	}
	return &out, nil
}

// success reports whether the response status is in the 2xx range.
func success(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
