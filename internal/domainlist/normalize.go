package domainlist

import (
	"logogrouper/pkg/domain"
	"logogrouper/pkg/serrors"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// NormalizeDomain returns the domain of a domain list entry.
//
// A domain is an opaque identifier that also names the logo file, so a bare
// host is returned exactly as written, surrounding whitespace aside. Entries
// written as URLs (with a scheme, path, port or user info) are reduced to
// their host, keeping its case.
//
// Entries that are empty, or whose host is not a valid DNS name or IPv4
// address, are rejected with serrors.ErrBadRequest.
func NormalizeDomain(raw string) (domain.Domain, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", serrors.With(serrors.ErrBadRequest, "empty domain")
	}

	host := s
	if strings.ContainsAny(s, ":/@?#") {
		target := s
		if !strings.Contains(s, "://") {
			target = "http://" + s
		}
		u, err := url.Parse(target)
		if err != nil {
			return "", serrors.Wrap(serrors.ErrBadRequest, err, "could not parse domain %q", raw)
		}
		host = u.Hostname()
	}
	if host == "" {
		return "", serrors.With(serrors.ErrBadRequest, "no host in %q", raw)
	}

	// validation only: the lookup form is lower-case and punycode
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid domain %q", raw)
	}
	if !validHost(ascii) {
		return "", serrors.With(serrors.ErrBadRequest, "invalid domain %q", raw)
	}

	return domain.Domain(host), nil
}

// validHost reports whether host only has the characters of a DNS name or an
// IPv4 address, none of which are special in file names.
func validHost(host string) bool {
	if host == "" || strings.HasPrefix(host, ".") || strings.Contains(host, "..") {
		return false
	}
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
		default:
			return false
		}
	}

	return true
}
