package fetcher_test

import (
	"context"
	"errors"
	"io"
	"logogrouper/internal/fetcher"
	mocklogocdn "logogrouper/pkg/logocdn/mock"
	"logogrouper/pkg/domain"
	"logogrouper/pkg/serrors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func htmlResponse(r *http.Request, status int, body string) *http.Response {
	h := http.Header{}
	h.Set("Content-Type", "text/html; charset=utf-8")

	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    r,
	}
}

func newTestResolver(t *testing.T, fn rtFunc) (*mocklogocdn.MockClient, fetcher.Resolver) {
	t.Helper()

	ctrl := gomock.NewController(t)
	cdn := mocklogocdn.NewMockClient(ctrl)

	return cdn, fetcher.NewResolver(&http.Client{Transport: fn}, cdn)
}

func noHTTP(t *testing.T) rtFunc {
	return func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request to %s", r.URL)

		return nil, nil
	}
}

func TestResolver_Resolve_cdnHit(t *testing.T) {
	cdn, r := newTestResolver(t, noHTTP(t))
	cdn.EXPECT().Lookup(gomock.Any(), "example.com").Return("https://logo.clearbit.com/example.com", nil)

	c, err := r.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, domain.LogoCandidate{Domain: "example.com", URL: "https://logo.clearbit.com/example.com"}, c)
}

func TestResolver_Resolve_prefersSVG(t *testing.T) {
	page := `<html><head>
		<link rel="stylesheet" href="/main.css">
		<link rel="icon" href="/favicon.png">
		<link rel="shortcut icon" href="/static/logo.svg">
	</head></html>`
	cdn, r := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "http://example.com", req.URL.String())

		return htmlResponse(req, http.StatusOK, page), nil
	})
	cdn.EXPECT().Lookup(gomock.Any(), "example.com").Return("", serrors.KindOnly(serrors.ErrNotFound))

	c, err := r.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, "http://example.com/static/logo.svg", c.URL)
}

func TestResolver_Resolve_firstIconWithoutSVG(t *testing.T) {
	page := `<html><head>
		<link rel="apple-touch-icon" href="img/touch.png">
		<link rel="ICON" href="/favicon.ico">
	</head></html>`
	cdn, r := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		return htmlResponse(req, http.StatusOK, page), nil
	})
	cdn.EXPECT().Lookup(gomock.Any(), "example.com").Return("", serrors.KindOnly(serrors.ErrNotFound))

	c, err := r.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, "http://example.com/img/touch.png", c.URL)
}

func TestResolver_Resolve_defaultFavicon(t *testing.T) {
	cdn, r := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		return htmlResponse(req, http.StatusOK, `<html><head><title>x</title></head></html>`), nil
	})
	cdn.EXPECT().Lookup(gomock.Any(), "example.com").Return("", serrors.KindOnly(serrors.ErrNotFound))

	c, err := r.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, "http://example.com/favicon.ico", c.URL)
}

func TestResolver_Resolve_resolvesAgainstRedirectTarget(t *testing.T) {
	cdn, r := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		final := req.Clone(req.Context())
		final.URL.Scheme = "https"
		final.URL.Host = "www.example.com"
		final.URL.Path = "/en/"

		return htmlResponse(final, http.StatusOK, `<link rel="icon" href="icon.png">`), nil
	})
	cdn.EXPECT().Lookup(gomock.Any(), "example.com").Return("", serrors.KindOnly(serrors.ErrNotFound))

	c, err := r.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, "https://www.example.com/en/icon.png", c.URL)
}

func TestResolver_Resolve_forcesHTTPS(t *testing.T) {
	var urls []string
	cdn, r := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		urls = append(urls, req.URL.String())
		if req.URL.Scheme == "http" {
			return nil, errors.New("connection reset")
		}

		return htmlResponse(req, http.StatusOK, `<link rel="icon" href="/i.png">`), nil
	})
	cdn.EXPECT().Lookup(gomock.Any(), "example.com").Return("", serrors.KindOnly(serrors.ErrNotFound)).Times(2)

	c, err := r.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/i.png", c.URL)
	require.Equal(t, []string{"http://example.com", "https://example.com"}, urls)
}

func TestResolver_Resolve_noLogo(t *testing.T) {
	cdn, r := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		return htmlResponse(req, http.StatusInternalServerError, ""), nil
	})
	cdn.EXPECT().Lookup(gomock.Any(), "example.com").Return("", serrors.KindOnly(serrors.ErrNetwork)).Times(2)

	_, err := r.Resolve(context.Background(), "example.com")
	require.ErrorIs(t, err, serrors.ErrNoLogo)
	require.ErrorIs(t, err, serrors.ErrNotFound)
}

func TestResolver_Resolve_skipsEmptyHref(t *testing.T) {
	cdn, r := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		return htmlResponse(req, http.StatusOK, `<link rel="icon" href=""><link rel="icon">`), nil
	})
	cdn.EXPECT().Lookup(gomock.Any(), "example.com").Return("", serrors.KindOnly(serrors.ErrNotFound))

	c, err := r.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, "http://example.com/favicon.ico", c.URL)
}

func TestResolver_Resolve_cdnTimeoutStops(t *testing.T) {
	cdn, r := newTestResolver(t, noHTTP(t))
	cdn.EXPECT().Lookup(gomock.Any(), "example.com").
		Return("", serrors.Wrap(serrors.ErrTimeout, context.Canceled, "waiting for CDN rate limit")).
		Times(1)

	_, err := r.Resolve(context.Background(), "example.com")
	require.ErrorIs(t, err, serrors.ErrNoLogo)
	require.ErrorIs(t, err, serrors.ErrTimeout)
}
