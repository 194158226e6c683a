// Package source defines the per-source adapters. An adapter encapsulates
// how one external site lists candidate events and how a single event's
// detail can be fetched, leaving the crawl and extraction mechanics to the
// crawler and extractor packages.
package source

import (
	"context"
	"fmt"
	"regexp"

	"github.com/gmodebadze/eventscout/internal/domain"
)

// Adapter describes one external event source.
type Adapter interface {
	// ID returns the source identifier.
	ID() domain.SourceID

	// ListingURL returns the listing view URL for the given iteration
	// (1-based). Sources without pagination may return the same URL for
	// every iteration; the crawler's stability detection stops the loop.
	ListingURL(iteration int) string

	// CandidatePattern matches candidate identifiers in fully rendered
	// listing content. The first capture group is the external id.
	CandidatePattern() *regexp.Regexp

	// DetailURL returns the public detail page URL for an external id.
	DetailURL(externalID string) string

	// Location returns the city and country the adapter is scoped to.
	Location() (city, country string)
}

// APIQuerier is implemented by adapters whose source exposes a structured
// query API (extraction strategy 1). It must be safe for concurrent use.
type APIQuerier interface {
	// QueryByID fetches one event by external id and returns the raw,
	// source-shaped field map. A missing event or an explicit API error
	// is returned as an error so the cascade can fall through.
	QueryByID(ctx context.Context, externalID string) (map[string]any, error)
}

// Options carries shared adapter construction settings.
type Options struct {
	City      string
	Country   string
	UserAgent string
}

// Build constructs the adapter for the given source id.
func Build(id domain.SourceID, opts Options) (Adapter, error) {
	switch id {
	case domain.SourceRA:
		return NewRA(opts), nil
	case domain.SourceTKT:
		return NewTKT(opts), nil
	case domain.SourceBandsintown:
		return NewBandsintown(opts), nil
	default:
		return nil, fmt.Errorf("unknown source %q", id)
	}
}
