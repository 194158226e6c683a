package extractor_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gmodebadze/eventscout/internal/config"
	"github.com/gmodebadze/eventscout/internal/domain"
	"github.com/gmodebadze/eventscout/internal/extractor"
	"github.com/gmodebadze/eventscout/internal/logger"
)

// fakeAdapter is a minimal adapter without a query API: extraction must
// go straight to the rendered page.
type fakeAdapter struct{}

func (fakeAdapter) ID() domain.SourceID              { return domain.SourceBandsintown }
func (fakeAdapter) ListingURL(int) string            { return "https://example.test/" }
func (fakeAdapter) CandidatePattern() *regexp.Regexp { return regexp.MustCompile(`/e/(\d+)`) }
func (fakeAdapter) Location() (string, string)       { return "Tbilisi", "GE" }

func (fakeAdapter) DetailURL(externalID string) string {
	return "https://example.test/e/" + externalID
}

// fakeQuerier adds a canned structured API on top of fakeAdapter.
type fakeQuerier struct {
	fakeAdapter
	fields map[string]any
	err    error
}

func (f *fakeQuerier) QueryByID(_ context.Context, _ string) (map[string]any, error) {
	return f.fields, f.err
}

func newExtractor() *extractor.Extractor {
	cfg := config.CrawlerConfig{
		RequestTimeout: 5 * time.Second,
		UserAgent:      "eventscout-test",
	}
	return extractor.New(cfg, logger.NewNoop())
}

func candidate(detailURL string) domain.CandidateRef {
	return domain.CandidateRef{
		Source:     domain.SourceBandsintown,
		ExternalID: "42",
		DetailURL:  detailURL,
	}
}

func TestExtractPrefersAPIQuery(t *testing.T) {
	t.Parallel()

	var pageHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		pageHits.Add(1)
		fmt.Fprint(w, `<html><h1>should never be read</h1></html>`)
	}))
	defer srv.Close()

	adapter := &fakeQuerier{fields: map[string]any{"title": "Horoom Nights"}}
	raw, err := newExtractor().Extract(context.Background(), adapter, candidate(srv.URL))

	require.NoError(t, err)
	require.Equal(t, domain.StrategyAPIQuery, raw.Strategy)
	require.Equal(t, "Horoom Nights", raw.Fields["title"])
	require.Zero(t, pageHits.Load(), "page must not be fetched when the api answers")
}

func TestExtractFallsThroughToEmbeddedMarkup(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head>
<script type="application/ld+json">{not valid json</script>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {"@type": "WebPage", "name": "wrapper"},
    {
      "@type": ["MusicEvent"],
      "name": "Mtkvarze Friday",
      "startDate": "2026-09-12T23:00:00+04:00",
      "location": {"@type": "MusicVenue", "name": "Mtkvarze"},
      "performer": [{"@type": "MusicGroup", "name": "HVL"}, "Newa"],
      "offers": [{"@type": "Offer", "url": "https://tickets.example.test/1"}],
      "image": ["https://img.example.test/flyer.jpg"]
    }
  ]
}
</script></head><body><h1>fallback heading</h1></body></html>`)
	}))
	defer srv.Close()

	adapter := &fakeQuerier{err: errors.New("api unavailable")}
	raw, err := newExtractor().Extract(context.Background(), adapter, candidate(srv.URL))

	require.NoError(t, err)
	require.Equal(t, domain.StrategyEmbeddedMarkup, raw.Strategy)
	require.Equal(t, "Mtkvarze Friday", raw.Fields["name"])
	require.Equal(t, "2026-09-12T23:00:00+04:00", raw.Fields["startDate"])
	require.Equal(t, "Mtkvarze", raw.Fields["venue"])
	require.Equal(t, []string{"HVL", "Newa"}, raw.Fields["artists"])
	require.Equal(t, "https://tickets.example.test/1", raw.Fields["ticketUrl"])
	require.Equal(t, "https://img.example.test/flyer.jpg", raw.Fields["image"])
}

func TestExtractHeuristicFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>
<h1>  Basement Takeover  </h1>
<time datetime="2026-10-03T22:00:00">Oct 3</time>
<a href="/clubs/bassiani">Bassiani</a>
<a href="/dj/hvl">HVL</a>
<a href="/dj/hvl">HVL</a>
<img src="https://img.example.test/poster.jpg" />
</body></html>`)
	}))
	defer srv.Close()

	raw, err := newExtractor().Extract(context.Background(), fakeAdapter{}, candidate(srv.URL))

	require.NoError(t, err)
	require.Equal(t, domain.StrategyHeuristicParse, raw.Strategy)
	require.Equal(t, "Basement Takeover", raw.Fields["name"])
	require.Equal(t, "2026-10-03T22:00:00", raw.Fields["startDate"])
	require.Equal(t, "Bassiani", raw.Fields["venue"])
	require.Equal(t, []string{"HVL"}, raw.Fields["artists"])
	require.Equal(t, "https://img.example.test/poster.jpg", raw.Fields["image"])
}

func TestExtractFailsWithoutIdentity(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// A page with neither structured markup nor a usable heading.
		fmt.Fprint(w, `<html><body><p>nothing to see</p></body></html>`)
	}))
	defer srv.Close()

	_, err := newExtractor().Extract(context.Background(), fakeAdapter{}, candidate(srv.URL))
	require.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestExtractFailsWhenPageUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := &fakeQuerier{err: errors.New("api unavailable")}
	_, err := newExtractor().Extract(context.Background(), adapter, candidate(srv.URL))
	require.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestExtractIgnoresAPIPayloadWithoutIdentity(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><h1>From the page instead</h1></body></html>`)
	}))
	defer srv.Close()

	// The api answers, but with nothing that establishes identity; the
	// cascade must keep going.
	adapter := &fakeQuerier{fields: map[string]any{"internalFlag": true}}
	raw, err := newExtractor().Extract(context.Background(), adapter, candidate(srv.URL))

	require.NoError(t, err)
	require.Equal(t, domain.StrategyHeuristicParse, raw.Strategy)
	require.Equal(t, "From the page instead", raw.Fields["name"])
}
