package transport_test

import (
	"crypto/tls"
	"logogrouper/pkg/transport"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const userAgent = "Mozilla/5.0 (test)"

func newClient(t *testing.T, version uint16, level transport.CipherLevel) *http.Client {
	t.Helper()

	c, err := transport.NewClient(transport.Options{
		TLS: transport.TLSPolicy{
			Version:     version,
			CipherLevel: level,
			// httptest uses a self-signed certificate
			InsecureSkipVerify: true,
		},
		RequestTimeout:      5 * time.Second,
		DialTimeout:         time.Second,
		TLSHandshakeTimeout: time.Second,
		UserAgent:           userAgent,
	})
	require.NoError(t, err)

	return c
}

func TestParseVersion(t *testing.T) {
	v, err := transport.ParseVersion("1.2")
	require.NoError(t, err)
	require.Equal(t, uint16(tls.VersionTLS12), v)

	v, err = transport.ParseVersion("1.3")
	require.NoError(t, err)
	require.Equal(t, uint16(tls.VersionTLS13), v)

	_, err = transport.ParseVersion("2.0")
	require.Error(t, err)
}

func TestTLSPolicy_Config_PinsVersion(t *testing.T) {
	cfg, err := transport.TLSPolicy{Version: tls.VersionTLS12}.Config()
	require.NoError(t, err)
	require.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	require.Equal(t, uint16(tls.VersionTLS12), cfg.MaxVersion)
	require.Nil(t, cfg.CipherSuites, "default level keeps Go's selection")
	require.False(t, cfg.InsecureSkipVerify)
}

func TestTLSPolicy_Config_LegacyCiphers(t *testing.T) {
	cfg, err := transport.TLSPolicy{Version: tls.VersionTLS12, CipherLevel: transport.CipherLevelLegacy}.Config()
	require.NoError(t, err)

	for _, s := range tls.InsecureCipherSuites() {
		require.True(t, slices.Contains(cfg.CipherSuites, s.ID), "missing legacy suite %s", s.Name)
	}
	require.True(t, slices.Contains(cfg.CipherSuites, tls.TLS_RSA_WITH_AES_128_GCM_SHA256))
}

func TestTLSPolicy_Config_Invalid(t *testing.T) {
	_, err := transport.TLSPolicy{}.Config()
	require.Error(t, err)

	_, err = transport.TLSPolicy{Version: tls.VersionTLS12, CipherLevel: "paranoid"}.Config()
	require.Error(t, err)
}

func TestNewClient_NegotiatesPinnedVersion(t *testing.T) {
	var gotVersion uint16
	var gotUA string
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.TLS.Version
		gotUA = r.UserAgent()
		w.WriteHeader(http.StatusOK)
	}))
	srv.TLS = &tls.Config{MinVersion: tls.VersionTLS12, MaxVersion: tls.VersionTLS13}
	srv.StartTLS()
	defer srv.Close()

	resp, err := newClient(t, tls.VersionTLS12, transport.CipherLevelLegacy).Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, uint16(tls.VersionTLS12), gotVersion)
	require.Equal(t, userAgent, gotUA)
}

func TestNewClient_FailsOutsideWindow(t *testing.T) {
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	srv.TLS = &tls.Config{MinVersion: tls.VersionTLS13}
	srv.StartTLS()
	defer srv.Close()

	_, err := newClient(t, tls.VersionTLS12, transport.CipherLevelDefault).Get(srv.URL)
	require.Error(t, err)
}

func TestNewClient_KeepsExplicitUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")

	resp, err := newClient(t, tls.VersionTLS12, transport.CipherLevelDefault).Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, "custom", gotUA)
}
