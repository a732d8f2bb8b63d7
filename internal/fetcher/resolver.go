package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"logogrouper/pkg/domain"
	"logogrouper/pkg/logger"
	"logogrouper/pkg/logocdn"
	"logogrouper/pkg/serrors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	// defaultIconPath is used when a homepage declares no icon link.
	defaultIconPath = "/favicon.ico"

	// maxHomepageSize limits how much of a homepage is parsed.
	maxHomepageSize = 5 * 1024 * 1024 // 5MB
)

// resolver is the concrete implementation of the Resolver interface. It asks
// the logo CDN first and falls back to scraping icon links from the homepage.
type resolver struct {
	// httpClient fetches homepages.
	httpClient *http.Client
	// cdn is asked before any homepage is fetched.
	cdn logocdn.Client
}

// Resolve tries the bare domain first. Some servers silently fail on a bare
// fetch but answer once the https scheme is forced, so a second attempt is made
// with an explicit "https://" prefix. A CDN lookup that timed out ends the
// task right away.
func (r *resolver) Resolve(ctx context.Context, d domain.Domain) (domain.LogoCandidate, error) {
	logoURL, err := r.resolve(ctx, string(d))
	if err != nil && !errors.Is(err, serrors.ErrTimeout) {
		logger.Debug(ctx, "could not resolve bare domain, forcing https", zap.Error(err))

		logoURL, err = r.resolve(ctx, "https://"+string(d))
	}
	if err != nil {
		return domain.LogoCandidate{}, serrors.Wrap(serrors.ErrNoLogo, err, "could not resolve logo")
	}

	return domain.LogoCandidate{Domain: d, URL: logoURL}, nil
}

// resolve runs both tiers for a single target, which is either a bare host or
// a URL with a scheme.
func (r *resolver) resolve(ctx context.Context, target string) (string, error) {
	logoURL, err := r.cdn.Lookup(ctx, hostOf(target))
	if err == nil {
		logger.Debug(ctx, "logo found on CDN", zap.String("url", logoURL))

		return logoURL, nil
	}
	switch {
	case errors.Is(err, serrors.ErrTimeout):
		// the context ended while waiting for the CDN rate limit
		return "", err
	case errors.Is(err, serrors.ErrNotFound):
		logger.Debug(ctx, "CDN has no logo", zap.Error(err))
	default:
		logger.Warn(ctx, "CDN lookup failed", zap.Error(err))
	}

	homepage := target
	if !hasScheme(target) {
		homepage = "http://" + target
	}

	return r.scrapeIcon(ctx, homepage)
}

// scrapeIcon fetches the homepage and returns the absolute URL of its
// preferred icon.
func (r *resolver) scrapeIcon(ctx context.Context, homepage string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, homepage, nil)
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrNetwork, err, "could not fetch homepage %s", homepage)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", serrors.With(serrors.ErrNotFound, "homepage %s returned status %d", homepage, resp.StatusCode)
	}

	var body io.Reader = io.LimitReader(resp.Body, maxHomepageSize)
	if utf8Body, err := charset.NewReader(body, resp.Header.Get("Content-Type")); err == nil {
		body = utf8Body
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrNetwork, err, "could not read homepage %s", homepage)
	}

	// relative hrefs resolve against the page actually served, after redirects
	base := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}

	ref, err := url.Parse(pickIcon(doc))
	if err != nil {
		return "", serrors.Wrap(serrors.ErrNotFound, err, "invalid icon reference")
	}

	return base.ResolveReference(ref).String(), nil
}

// pickIcon returns the href of the preferred icon link: the first one pointing
// at an SVG file, otherwise the first icon link, otherwise defaultIconPath.
func pickIcon(doc *goquery.Document) string {
	var first, svg string
	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		if !strings.Contains(strings.ToLower(rel), "icon") {
			return true
		}

		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if first == "" {
			first = href
		}
		if isSVGRef(href) {
			svg = href

			return false
		}

		return true
	})

	switch {
	case svg != "":
		return svg
	case first != "":
		return first
	default:
		return defaultIconPath
	}
}

// isSVGRef reports whether the path of href ends with ".svg".
func isSVGRef(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}

	return strings.EqualFold(path.Ext(u.Path), ".svg")
}

func hasScheme(target string) bool {
	lower := strings.ToLower(target)

	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// hostOf strips the scheme of target, if any, leaving the host used as CDN key.
func hostOf(target string) string {
	if !hasScheme(target) {
		return target
	}
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return target
	}

	return u.Host
}

// NewResolver creates a Resolver that asks cdn first and then scrapes the
// homepage using httpClient.
func NewResolver(httpClient *http.Client, cdn logocdn.Client) Resolver {
	return &resolver{
		httpClient: httpClient,
		cdn:        cdn,
	}
}
