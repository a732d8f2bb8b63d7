// Package transport builds the outbound HTTP client shared by every request of
// the logo pipeline. The client negotiates a single, pinned TLS version and may
// relax the accepted cipher suites so that legacy servers, which reject or are
// rejected by modern defaults, can still be reached.
package transport

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// CipherLevel selects which cipher suites the client offers.
type CipherLevel string

const (
	// CipherLevelDefault keeps Go's default cipher suite selection.
	CipherLevelDefault CipherLevel = "default"
	// CipherLevelLegacy additionally offers the suites Go considers insecure and
	// the RSA key exchange suites that are disabled by default.
	CipherLevelLegacy CipherLevel = "legacy"
)

var versions = map[string]uint16{ //nolint: gochecknoglobals
	"1.0": tls.VersionTLS10,
	"1.1": tls.VersionTLS11,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// ParseVersion converts a version string such as "1.2" to its crypto/tls constant.
func ParseVersion(s string) (uint16, error) {
	v, ok := versions[s]
	if !ok {
		return 0, fmt.Errorf("unsupported TLS version %q", s)
	}

	return v, nil
}

// TLSPolicy describes how TLS connections are negotiated. Version is used as
// both the minimum and the maximum protocol version.
type TLSPolicy struct {
	Version            uint16
	CipherLevel        CipherLevel
	InsecureSkipVerify bool
}

// Config returns the tls.Config implementing the policy.
func (p TLSPolicy) Config() (*tls.Config, error) {
	if p.Version == 0 {
		return nil, fmt.Errorf("TLS version is required")
	}

	cfg := &tls.Config{
		MinVersion:         p.Version,
		MaxVersion:         p.Version,
		InsecureSkipVerify: p.InsecureSkipVerify, //nolint: gosec
	}

	switch p.CipherLevel {
	case "", CipherLevelDefault:
	case CipherLevelLegacy:
		// ignored by crypto/tls for TLS 1.3, whose suites are not configurable
		for _, s := range tls.CipherSuites() {
			cfg.CipherSuites = append(cfg.CipherSuites, s.ID)
		}
		for _, s := range tls.InsecureCipherSuites() {
			cfg.CipherSuites = append(cfg.CipherSuites, s.ID)
		}
	default:
		return nil, fmt.Errorf("unsupported cipher level %q", p.CipherLevel)
	}

	return cfg, nil
}

// Options configure the shared HTTP client.
type Options struct {
	// TLS is the negotiation policy applied to every HTTPS connection.
	TLS TLSPolicy
	// RequestTimeout bounds a whole request including reading the body.
	RequestTimeout time.Duration
	// DialTimeout bounds TCP connection establishment.
	DialTimeout time.Duration
	// TLSHandshakeTimeout bounds the TLS handshake.
	TLSHandshakeTimeout time.Duration
	// MaxIdleConnsPerHost limits kept-alive connections per host.
	MaxIdleConnsPerHost int
	// UserAgent is sent with every request.
	UserAgent string
}

// NewClient creates the HTTP client described by opts. The client keeps
// cookies per registrable domain so homepages that redirect through a cookie
// check can be fetched.
func NewClient(opts Options) (*http.Client, error) {
	tlsCfg, err := opts.TLS.Config()
	if err != nil {
		return nil, fmt.Errorf("could not build TLS config: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("could not create cookie jar: %w", err)
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       tlsCfg,
		TLSHandshakeTimeout:   opts.TLSHandshakeTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: &userAgentTransport{next: tr, userAgent: opts.UserAgent},
		Timeout:   opts.RequestTimeout,
		Jar:       jar,
	}, nil
}

// userAgentTransport sets the User-Agent header on every outgoing request.
type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if t.userAgent == "" || r.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(r) //nolint: wrapcheck
	}

	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", t.userAgent)

	return t.next.RoundTrip(r) //nolint: wrapcheck
}
