package fetcher

import (
	"context"
	"logogrouper/pkg/domain"
)

// Resolver finds the best-guess logo URL of a domain.
//
//go:generate mockgen -package mockfetcher -source=interface.go -destination=mock/mockfetcher.go *
type Resolver interface {
	// Resolve returns the logo candidate of d. When every strategy is exhausted
	// it returns an error of kind serrors.ErrNoLogo.
	Resolve(ctx context.Context, d domain.Domain) (domain.LogoCandidate, error)
}

// Downloader persists a resolved logo to disk.
type Downloader interface {
	// Download fetches the candidate and returns the path of the written file.
	Download(ctx context.Context, candidate domain.LogoCandidate) (string, error)
}
