// Package clearbit provides a logocdn.Client implementation backed by the
// Clearbit logo CDN (https://logo.clearbit.com/<domain>).
package clearbit

import (
	"context"
	"fmt"
	"io"
	"logogrouper/pkg/logocdn"
	"logogrouper/pkg/serrors"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the lookup prefix of the public Clearbit logo CDN.
const DefaultBaseURL = "https://logo.clearbit.com/"

// maxDrain bounds how much of a lookup body is read before closing it so the
// connection can be reused.
const maxDrain = 64 * 1024

// Options configure the CDN client.
type Options struct {
	// BaseURL is prefixed to the host to build the lookup URL.
	BaseURL string
	// RateLimit is the maximum number of lookups per second; zero disables limiting.
	RateLimit float64
	// Burst is the number of lookups allowed to exceed RateLimit momentarily.
	Burst int
}

// Client queries the logo CDN. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client  // httpClient performs the lookup requests
	baseURL    string        // baseURL is the lookup prefix
	limiter    *rate.Limiter // limiter throttles lookups; nil when unlimited
}

// Lookup queries the CDN for host. The logo is accepted only when the CDN
// answers 200 with an image content type.
func (c *Client) Lookup(ctx context.Context, host string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", serrors.Wrap(serrors.ErrTimeout, err, "waiting for CDN rate limit")
		}
	}

	logoURL := c.baseURL + host
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrNetwork, err, "could not query CDN")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", serrors.With(serrors.ErrNotFound, "CDN lookup failed: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(strings.ToLower(ct), "image") {
		return "", serrors.With(serrors.ErrNotFound, "CDN returned non-image content type %q", ct)
	}

	return logoURL, nil
}

// Ensure Client conforms to the logocdn.Client interface at compile time.
var _ logocdn.Client = (*Client)(nil)

// New constructs a Client that uses the provided http.Client.
func New(httpClient *http.Client, opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		limiter:    limiter,
	}
}
