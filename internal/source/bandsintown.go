package source

import (
	"fmt"
	"regexp"

	"github.com/gmodebadze/eventscout/internal/domain"
)

// Bandsintown endpoints. The city feed is an infinite-scroll page with no
// public query API, so details rely on embedded markup and heuristics.
const (
	bandsintownBaseURL = "https://www.bandsintown.com"
	// bandsintownTbilisiCityID is the GeoNames id the site uses for Tbilisi.
	bandsintownTbilisiCityID = "611717"
)

var bandsintownCandidatePattern = regexp.MustCompile(`/e/(\d+)`)

// Bandsintown is the bandsintown.com adapter.
type Bandsintown struct {
	baseURL string
	cityID  string
	city    string
	country string
}

// NewBandsintown creates the Bandsintown adapter.
func NewBandsintown(opts Options) *Bandsintown {
	return &Bandsintown{
		baseURL: bandsintownBaseURL,
		cityID:  bandsintownTbilisiCityID,
		city:    opts.City,
		country: opts.Country,
	}
}

// ID returns the source identifier.
func (a *Bandsintown) ID() domain.SourceID { return domain.SourceBandsintown }

// ListingURL returns the city feed. The page parameter drives the lazy
// feed's server-side pagination.
func (a *Bandsintown) ListingURL(iteration int) string {
	return fmt.Sprintf("%s/?city_id=%s&page=%d", a.baseURL, a.cityID, iteration)
}

// CandidatePattern matches event ids in detail links like /e/104857623.
func (a *Bandsintown) CandidatePattern() *regexp.Regexp { return bandsintownCandidatePattern }

// DetailURL returns the public event page URL.
func (a *Bandsintown) DetailURL(externalID string) string {
	return a.baseURL + "/e/" + externalID
}

// Location returns the configured city and country.
func (a *Bandsintown) Location() (string, string) { return a.city, a.country }

// SetBaseURL overrides the site endpoint. Used in tests.
func (a *Bandsintown) SetBaseURL(baseURL string) {
	a.baseURL = baseURL
}
