package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/gmodebadze/eventscout/internal/domain"
)

// tkt.ge endpoints. The gateway returns every show with its full payload
// in one List call, so detail queries are served from a cached list.
const (
	tktGatewayURL    = "https://gateway.tkt.ge"
	tktEventURL      = "https://tkt.ge/event/"
	tktConcertsQuery = "/Shows/List?categoryId=2"
)

const tktRequestTimeout = 30 * time.Second

var tktCandidatePattern = regexp.MustCompile(`"showId"\s*:\s*(\d+)`)

// TKT is the tkt.ge adapter. Listing and detail both ride on the public
// gateway API; there is no HTML to render.
type TKT struct {
	gatewayURL string
	city       string
	country    string
	userAgent  string
	apiKey     string
	httpClient *http.Client

	mu    sync.Mutex
	shows map[string]map[string]any
}

// NewTKT creates the tkt.ge adapter. The gateway API key comes from
// TKT_API_KEY when set.
func NewTKT(opts Options) *TKT {
	return &TKT{
		gatewayURL: tktGatewayURL,
		city:       opts.City,
		country:    opts.Country,
		userAgent:  opts.UserAgent,
		apiKey:     os.Getenv("TKT_API_KEY"),
		httpClient: &http.Client{Timeout: tktRequestTimeout},
	}
}

// ID returns the source identifier.
func (a *TKT) ID() domain.SourceID { return domain.SourceTKT }

// ListingURL returns the concerts list endpoint. The gateway has no
// pagination, so every iteration hits the same URL and the candidate
// count stabilizes immediately.
func (a *TKT) ListingURL(int) string {
	return a.gatewayURL + tktConcertsQuery + "&api_key=" + a.apiKey
}

// CandidatePattern matches show ids in the JSON listing body.
func (a *TKT) CandidatePattern() *regexp.Regexp { return tktCandidatePattern }

// DetailURL returns the public event page URL.
func (a *TKT) DetailURL(externalID string) string {
	return tktEventURL + externalID
}

// Location returns the configured city and country.
func (a *TKT) Location() (string, string) { return a.city, a.country }

// QueryByID returns the raw show payload for one external id. The show
// list is fetched once per run and shared across workers.
func (a *TKT) QueryByID(ctx context.Context, externalID string) (map[string]any, error) {
	shows, err := a.loadShows(ctx)
	if err != nil {
		return nil, err
	}

	show, ok := shows[externalID]
	if !ok {
		return nil, fmt.Errorf("show %s not present in gateway list", externalID)
	}
	return show, nil
}

// loadShows fetches and caches the full show list, keyed by show id.
func (a *TKT) loadShows(ctx context.Context) (map[string]map[string]any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.shows != nil {
		return a.shows, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.ListingURL(1), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway body: %w", err)
	}

	var listing struct {
		Shows []map[string]any `json:"shows"`
	}
	if err = json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode gateway listing: %w", err)
	}

	shows := make(map[string]map[string]any, len(listing.Shows))
	for _, show := range listing.Shows {
		if id := showID(show); id != "" {
			shows[id] = show
		}
	}

	a.shows = shows
	return shows, nil
}

// showID extracts the show id from a raw payload, tolerating JSON numbers
// and strings.
func showID(show map[string]any) string {
	switch v := show["showId"].(type) {
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case json.Number:
		return v.String()
	case string:
		return v
	default:
		return ""
	}
}

// SetGatewayURL overrides the gateway endpoint. Used in tests.
func (a *TKT) SetGatewayURL(gatewayURL string) {
	a.gatewayURL = gatewayURL
}
