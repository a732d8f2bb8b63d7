package fetcher

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"logogrouper/pkg/domain"
	"logogrouper/pkg/serrors"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultMaxLogoSize limits the size of a single downloaded logo.
const DefaultMaxLogoSize = 10 * 1024 * 1024 // 10MB

// DownloaderOptions configure where and how logos are written.
type DownloaderOptions struct {
	// Dir is the directory logo files are written to. It must exist.
	Dir string
	// MaxBytes is the largest accepted logo; zero means DefaultMaxLogoSize.
	MaxBytes int64
}

// downloader is the concrete implementation of the Downloader interface.
type downloader struct {
	httpClient *http.Client
	dir        string
	maxBytes   int64
}

// Download streams the candidate to <dir>/<domain><ext>. Failures are not
// retried and never leave a partial file behind. Once the logo is saved, logos
// of the same domain left by earlier runs under another extension are removed.
func (d *downloader) Download(ctx context.Context, candidate domain.LogoCandidate) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate.URL, nil)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrDownload, err, "could not create request")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrNetwork, err, "could not download %s", candidate.URL)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", serrors.With(serrors.ErrDownload, "download failed: status %d", resp.StatusCode)
	}

	ext := Extension(candidate.URL, resp.Header.Get("Content-Type"))
	filePath := filepath.Join(d.dir, string(candidate.Domain)+ext)
	if err := d.save(filePath, resp.Body); err != nil {
		return "", err
	}
	if err := d.removeSiblings(candidate.Domain, ext); err != nil {
		return "", err
	}

	return filePath, nil
}

// removeSiblings deletes <dir>/<domain><other> for every extension Extension
// can return other than keep. Names are matched exactly, so the logos of
// a.com.au survive a download for a.com.
func (d *downloader) removeSiblings(name domain.Domain, keep string) error {
	for ext := range urlExtensions {
		if ext == keep {
			continue
		}
		err := os.Remove(filepath.Join(d.dir, string(name)+ext))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return serrors.Wrap(serrors.ErrDownload, err, "could not remove stale logo")
		}
	}

	return nil
}

// save writes body to filePath, removing the file again on any failure.
func (d *downloader) save(filePath string, body io.Reader) (err error) {
	f, err := os.Create(filePath)
	if err != nil {
		return serrors.Wrap(serrors.ErrDownload, err, "could not create logo file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = serrors.Wrap(serrors.ErrDownload, cerr, "could not close logo file")
		}
		if err != nil {
			_ = os.Remove(filePath)
		}
	}()

	n, err := io.Copy(f, io.LimitReader(body, d.maxBytes+1))
	if err != nil {
		return serrors.Wrap(serrors.ErrDownload, err, "could not write logo file")
	}
	if n > d.maxBytes {
		return serrors.With(serrors.ErrDownload, "logo is larger than %d bytes", d.maxBytes)
	}

	return nil
}

// NewDownloader creates a Downloader writing into opts.Dir.
func NewDownloader(httpClient *http.Client, opts DownloaderOptions) Downloader {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxLogoSize
	}

	return &downloader{
		httpClient: httpClient,
		dir:        opts.Dir,
		maxBytes:   maxBytes,
	}
}
