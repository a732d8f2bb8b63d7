package fetcher_test

import (
	"context"
	"errors"
	"logogrouper/internal/fetcher"
	"logogrouper/pkg/domain"
	"logogrouper/pkg/serrors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newLogoServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/logo.PNG", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})
	mux.HandleFunc("/logo", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte("<svg/>"))
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestDownloader_Download_success(t *testing.T) {
	srv := newLogoServer(t)
	dir := t.TempDir()
	d := fetcher.NewDownloader(srv.Client(), fetcher.DownloaderOptions{Dir: dir})

	path, err := d.Download(context.Background(), domain.LogoCandidate{Domain: "a.com", URL: srv.URL + "/logo.PNG"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "a.com.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))
}

func TestDownloader_Download_extensionFromContentType(t *testing.T) {
	srv := newLogoServer(t)
	dir := t.TempDir()
	d := fetcher.NewDownloader(srv.Client(), fetcher.DownloaderOptions{Dir: dir})

	path, err := d.Download(context.Background(), domain.LogoCandidate{Domain: "b.org", URL: srv.URL + "/logo"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "b.org.svg"), path)
}

func TestDownloader_Download_replacesOtherExtensions(t *testing.T) {
	srv := newLogoServer(t)
	dir := t.TempDir()
	for _, name := range []string{"a.com.png", "a.com.jpeg", "a.com.au.png", "a.com.svg.bak"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("old"), 0o600))
	}
	d := fetcher.NewDownloader(srv.Client(), fetcher.DownloaderOptions{Dir: dir})

	path, err := d.Download(context.Background(), domain.LogoCandidate{Domain: "a.com", URL: srv.URL + "/logo"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "a.com.svg"), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Equal(t, []string{"a.com.au.png", "a.com.svg", "a.com.svg.bak"}, names)
}

func TestDownloader_Download_failureKeepsPreviousLogo(t *testing.T) {
	srv := newLogoServer(t)
	dir := t.TempDir()
	previous := filepath.Join(dir, "a.com.png")
	require.NoError(t, os.WriteFile(previous, []byte("old"), 0o600))
	d := fetcher.NewDownloader(srv.Client(), fetcher.DownloaderOptions{Dir: dir})

	_, err := d.Download(context.Background(), domain.LogoCandidate{Domain: "a.com", URL: srv.URL + "/missing"})
	require.ErrorIs(t, err, serrors.ErrDownload)

	_, err = os.Stat(previous)
	require.NoError(t, err)
}

func TestDownloader_Download_badStatus(t *testing.T) {
	srv := newLogoServer(t)
	dir := t.TempDir()
	d := fetcher.NewDownloader(srv.Client(), fetcher.DownloaderOptions{Dir: dir})

	_, err := d.Download(context.Background(), domain.LogoCandidate{Domain: "c.com", URL: srv.URL + "/missing"})
	require.ErrorIs(t, err, serrors.ErrDownload)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDownloader_Download_tooLargeLeavesNoFile(t *testing.T) {
	srv := newLogoServer(t)
	dir := t.TempDir()
	d := fetcher.NewDownloader(srv.Client(), fetcher.DownloaderOptions{Dir: dir, MaxBytes: 16})

	_, err := d.Download(context.Background(), domain.LogoCandidate{Domain: "d.com", URL: srv.URL + "/big"})
	require.ErrorIs(t, err, serrors.ErrDownload)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDownloader_Download_networkError(t *testing.T) {
	client := &http.Client{Transport: rtFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})}
	d := fetcher.NewDownloader(client, fetcher.DownloaderOptions{Dir: t.TempDir()})

	_, err := d.Download(context.Background(), domain.LogoCandidate{Domain: "e.com", URL: "https://e.com/favicon.ico"})
	require.ErrorIs(t, err, serrors.ErrNetwork)
}

func TestDownloader_Download_missingDir(t *testing.T) {
	srv := newLogoServer(t)
	d := fetcher.NewDownloader(srv.Client(), fetcher.DownloaderOptions{Dir: filepath.Join(t.TempDir(), "nope")})

	_, err := d.Download(context.Background(), domain.LogoCandidate{Domain: "a.com", URL: srv.URL + "/logo.PNG"})
	require.ErrorIs(t, err, serrors.ErrDownload)
}
