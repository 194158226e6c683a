package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gmodebadze/eventscout/internal/domain"
)

// Resident Advisor endpoints.
const (
	raBaseURL    = "https://ra.co"
	raGraphQLURL = "https://ra.co/graphql"
)

const raRequestTimeout = 30 * time.Second

// raMaxRetryElapsed bounds retries of transient GraphQL failures; a
// structural API error (missing event, errors payload) never retries.
const raMaxRetryElapsed = 10 * time.Second

// raGetEventQuery fetches one event by id from the RA GraphQL API.
const raGetEventQuery = `
  query GetEvent($id: ID!) {
    event(id: $id) {
      id
      title
      date
      startTime
      endTime
      venue {
        id
        name
        contentUrl
      }
      images {
        filename
      }
      artists {
        id
        name
      }
      content
      contentUrl
    }
  }
`

var raCandidatePattern = regexp.MustCompile(`/events/(\d+)`)

// RA is the Resident Advisor adapter. Listing pages are paginated and
// lazily loaded; event details come from the public GraphQL API.
type RA struct {
	baseURL    string
	graphqlURL string
	city       string
	country    string
	userAgent  string
	httpClient *http.Client
}

// NewRA creates the Resident Advisor adapter.
func NewRA(opts Options) *RA {
	return &RA{
		baseURL:    raBaseURL,
		graphqlURL: raGraphQLURL,
		city:       opts.City,
		country:    opts.Country,
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: raRequestTimeout},
	}
}

// ID returns the source identifier.
func (a *RA) ID() domain.SourceID { return domain.SourceRA }

// ListingURL returns the paginated area listing, e.g.
// https://ra.co/events/ge/tbilisi?page=2.
func (a *RA) ListingURL(iteration int) string {
	return fmt.Sprintf("%s/events/%s/%s?page=%d",
		a.baseURL, strings.ToLower(a.country), strings.ToLower(a.city), iteration)
}

// CandidatePattern matches the numeric id in detail page paths.
func (a *RA) CandidatePattern() *regexp.Regexp { return raCandidatePattern }

// DetailURL returns the public event page URL.
func (a *RA) DetailURL(externalID string) string {
	return a.baseURL + "/events/" + externalID
}

// Location returns the configured city and country.
func (a *RA) Location() (string, string) { return a.city, a.country }

// graphqlRequest is the POST body for the GraphQL endpoint.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphqlResponse is the subset of the GraphQL envelope we care about.
type graphqlResponse struct {
	Data struct {
		Event map[string]any `json:"event"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// QueryByID fetches one event through the GraphQL API. Transient network
// failures are retried with exponential backoff; a response without event
// data is a structural error and fails immediately.
func (a *RA) QueryByID(ctx context.Context, externalID string) (map[string]any, error) {
	payload, err := json.Marshal(graphqlRequest{
		Query:     raGetEventQuery,
		Variables: map[string]any{"id": externalID},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	var body []byte
	operation := func() error {
		var fetchErr error
		body, fetchErr = a.postGraphQL(ctx, payload)
		return fetchErr
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = raMaxRetryElapsed
	if err = backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("graphql fetch for event %s: %w", externalID, err)
	}

	var resp graphqlResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error for event %s: %s", externalID, resp.Errors[0].Message)
	}
	if resp.Data.Event == nil {
		return nil, fmt.Errorf("graphql response has no event %s", externalID)
	}

	return resp.Data.Event, nil
}

func (a *RA) postGraphQL(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("graphql status %d", resp.StatusCode)
		if resp.StatusCode >= http.StatusInternalServerError ||
			resp.StatusCode == http.StatusTooManyRequests {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// SetEndpoints overrides the listing and GraphQL endpoints. Used in tests.
func (a *RA) SetEndpoints(baseURL, graphqlURL string) {
	a.baseURL = baseURL
	a.graphqlURL = graphqlURL
}
