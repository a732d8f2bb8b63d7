// Package logocdn defines the abstraction for logo CDNs: services that serve
// an organization's logo image from a URL keyed by its domain name.
package logocdn

import "context"

// Client is the abstraction for logo CDNs.
//
//go:generate mockgen -package mocklogocdn -source=interface.go -destination=mock/mocklogocdn.go *
type Client interface {
	// Lookup asks the CDN for the logo of host and returns the URL serving it.
	// A miss (non-success status or a non-image response) is reported as
	// serrors.ErrNotFound; transport failures as serrors.ErrNetwork. When ctx
	// ends before the request may be sent, the error is serrors.ErrTimeout.
	Lookup(ctx context.Context, host string) (string, error)
}
