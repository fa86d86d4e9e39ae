package jellyseerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/rs/zerolog"
)

// MinimumVersion is the oldest Jellyseerr release the reconciler is
// tested against. Older instances get a warning, not an error.
var MinimumVersion = semver.MustParse("1.3.0")

// Client talks to a single Jellyseerr instance
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
	version    semver.Version
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the HTTP request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// HostURL builds the base URL of a Jellyseerr instance from its
// connection settings. urlBase may be empty.
func HostURL(protocol, hostname string, port int, urlBase string) string {
	hostURL := fmt.Sprintf("%s://%s:%d", protocol, hostname, port)
	if urlBase != "" {
		hostURL += "/" + strings.Trim(urlBase, "/")
	}
	return hostURL
}

// New creates a client for an initialized Jellyseerr instance. The
// instance is probed immediately so that unreachable hosts and bad API
// keys surface before any reconciliation starts.
func New(ctx context.Context, hostURL, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if hostURL == "" {
		return nil, fmt.Errorf("%w: host URL is required", ErrInvalidConfig)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}
	if _, err := url.Parse(hostURL); err != nil {
		return nil, fmt.Errorf("%w: malformed host URL %q: %s", ErrInvalidConfig, hostURL, err)
	}

	client := &Client{
		baseURL: strings.TrimRight(hostURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(client)
	}

	status, err := client.Status(ctx)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %s", ErrNoConnection, err)
	}

	if version, err := semver.ParseTolerant(status.Version); err != nil {
		logger.Warn().
			Str("version", status.Version).
			Msg("Unable to parse Jellyseerr version")
	} else {
		client.version = version
		if version.LT(MinimumVersion) {
			logger.Warn().
				Stringer("version", version).
				Stringer("minimum", MinimumVersion).
				Msg("Jellyseerr version is older than the minimum tested release")
		}
	}

	logger.Debug().
		Str("url", client.baseURL).
		Str("version", status.Version).
		Msg("Connected to Jellyseerr")

	return client, nil
}

// NewSetup creates an unauthenticated client with a cookie jar, used to
// initialize a fresh Jellyseerr instance. Sign-in endpoints establish a
// session cookie that the remaining setup calls rely on.
func NewSetup(hostURL string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if hostURL == "" {
		return nil, fmt.Errorf("%w: host URL is required", ErrInvalidConfig)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := &Client{
		baseURL: strings.TrimRight(hostURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the instance base URL without the API prefix.
func (c *Client) BaseURL() string { return c.baseURL }

// Version returns the probed Jellyseerr version. The zero version means
// the instance reported an unparseable version string.
func (c *Client) Version() semver.Version { return c.version }

type requestOptions struct {
	expectStatus int
	noAPIKey     bool
}

// RequestOption overrides how a single API request is performed
type RequestOption func(*requestOptions)

// ExpectStatus overrides the status code treated as success
func ExpectStatus(code int) RequestOption {
	return func(o *requestOptions) {
		o.expectStatus = code
	}
}

// WithoutAPIKey suppresses the X-Api-Key header for one request
func WithoutAPIKey() RequestOption {
	return func(o *requestOptions) {
		o.noAPIKey = true
	}
}

// Get performs a GET request against an /api/v1 path, expecting 200.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out, http.StatusOK, opts)
}

// Post performs a POST request against an /api/v1 path, expecting 201.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out, http.StatusCreated, opts)
}

// Put performs a PUT request against an /api/v1 path, expecting 200.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.doRequest(ctx, http.MethodPut, path, body, out, http.StatusOK, opts)
}

// Delete performs a DELETE request against an /api/v1 path, expecting 200.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) error {
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil, http.StatusOK, opts)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, out any, defaultStatus int, opts []RequestOption) error {
	reqOpts := requestOptions{expectStatus: defaultStatus}
	for _, opt := range opts {
		opt(&reqOpts)
	}

	requestURL := c.baseURL + "/api/v1" + path

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" && !reqOpts.noAPIKey {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", requestURL).
		Msg("Jellyseerr API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != reqOpts.expectStatus {
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        requestURL,
			Message:    extractErrorMessage(respBody),
			Body:       string(respBody),
		}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response from '%s %s': %w", method, requestURL, err)
		}
	}
	return nil
}
